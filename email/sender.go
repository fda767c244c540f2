package email

import (
	"fmt"

	"land-registry-service/config"
	"land-registry-service/models"

	"github.com/apex/log"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Sender emails the admin inbox when a transfer request arrives. Sending
// is best-effort; callers only log failures.
type Sender struct {
	config *config.Config
	client *sendgrid.Client
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config) *Sender {
	client := sendgrid.NewSendClient(cfg.SendGridAPIKey)
	return &Sender{
		config: cfg,
		client: client,
	}
}

// Enabled reports whether the sender has enough configuration to send.
func (s *Sender) Enabled() bool {
	return s.config.SendGridAPIKey != "" && s.config.AdminEmail != ""
}

// SendTransferRequest notifies the admin inbox about a new transfer
// request.
func (s *Sender) SendTransferRequest(n *models.AdminNotification) error {
	if !s.Enabled() {
		log.Debug("Email sending is not configured, skipping transfer request email")
		return nil
	}

	from := mail.NewEmail(s.config.SendGridFromName, s.config.SendGridFromEmail)
	to := mail.NewEmail("Land Registry Admin", s.config.AdminEmail)
	subject := fmt.Sprintf("Transfer request for survey %s", n.SurveyNumber)
	plainText := fmt.Sprintf(
		"A transfer of land record %d (survey %s) from %s to %s is pending approval.",
		n.RecordId, n.SurveyNumber, n.FromOwner, n.ToOwner)

	message := mail.NewSingleEmail(from, subject, to, plainText, "")
	response, err := s.client.Send(message)
	if err != nil {
		return err
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid returned status %d: %s", response.StatusCode, response.Body)
	}

	log.Infof("Sent transfer request email for survey %s", n.SurveyNumber)
	return nil
}
