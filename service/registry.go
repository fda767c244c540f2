package service

import (
	"context"
	"fmt"
	"time"

	"land-registry-service/apperr"
	"land-registry-service/blockchain"
	"land-registry-service/database"
	"land-registry-service/email"
	"land-registry-service/models"
	"land-registry-service/websocket"
	"land-registry-service/workflow"

	"github.com/apex/log"
	"github.com/shopspring/decimal"
)

const defaultDeedImage = "default-deed.jpg"

// RegistryService drives the registration and transfer workflow. The
// record store is the source of truth for every operation; the chain
// write, the admin notification, the email and the websocket broadcast are
// side effects that never block or fail the authoritative mutation (the
// chain write only does so when chain recording is configured as
// required).
type RegistryService struct {
	records       *database.LandRecordsService
	notifications *database.NotificationsService
	transferor    blockchain.Transferor
	hub           *websocket.Hub
	emailer       *email.Sender
	chainRequired bool
}

func NewRegistryService(
	records *database.LandRecordsService,
	notifications *database.NotificationsService,
	transferor blockchain.Transferor,
	hub *websocket.Hub,
	emailer *email.Sender,
	chainRequired bool,
) *RegistryService {
	return &RegistryService{
		records:       records,
		notifications: notifications,
		transferor:    transferor,
		hub:           hub,
		emailer:       emailer,
		chainRequired: chainRequired,
	}
}

// Register validates a registration request and creates the record in
// status Pending, together with the owner's holdings entry.
func (s *RegistryService) Register(ctx context.Context, req *models.RegisterRecordRequest) (*models.LandRecord, error) {
	if err := validateRegistration(req); err != nil {
		return nil, err
	}

	status, err := workflow.Next("", workflow.ActionRegister)
	if err != nil {
		return nil, err
	}

	deedImage := req.DeedImage
	if deedImage == "" {
		deedImage = defaultDeedImage
	}

	rec := &models.LandRecord{
		SurveyNumber:   req.SurveyNumber,
		OwnerName:      req.OwnerName,
		OwnerAddress:   req.OwnerAddress,
		OwnerPhone:     req.OwnerPhone,
		Latitude:       *req.Location.Latitude,
		Longitude:      *req.Location.Longitude,
		Area:           req.Area.InexactFloat64(),
		Value:          req.Value.InexactFloat64(),
		Status:         status,
		DeedImage:      deedImage,
		Description:    req.Description,
		PreviousOwners: []models.PreviousOwner{},
	}

	id, err := s.records.Register(ctx, rec)
	if err != nil {
		return nil, err
	}
	return s.records.GetRecord(ctx, id)
}

// Verify moves a Pending record to Verified. Verifying an already-Verified
// record succeeds without touching the row.
func (s *RegistryService) Verify(ctx context.Context, id uint64) (*models.LandRecord, error) {
	return s.applyStatusAction(ctx, id, workflow.ActionVerify)
}

// UpdateStatus applies an admin status override. Only Verified and
// Rejected are reachable this way; PendingTransfer is refused so transfers
// cannot bypass admin review.
func (s *RegistryService) UpdateStatus(ctx context.Context, id uint64, status string) (*models.LandRecord, error) {
	action, err := workflow.ActionForStatus(status)
	if err != nil {
		return nil, err
	}
	return s.applyStatusAction(ctx, id, action)
}

func (s *RegistryService) applyStatusAction(ctx context.Context, id uint64, action workflow.Action) (*models.LandRecord, error) {
	rec, err := s.records.GetRecord(ctx, id)
	if err != nil {
		return nil, err
	}

	next, err := workflow.Next(rec.Status, action)
	if err != nil {
		return nil, err
	}
	if next == rec.Status {
		return rec, nil
	}

	matched, err := s.records.SetStatus(ctx, id, rec.Status, next)
	if err != nil {
		return nil, err
	}
	if !matched {
		return nil, apperr.Newf(apperr.InvalidState,
			"land record %d was modified concurrently, retry the operation", id)
	}

	log.Infof("Land record %d status changed from %s to %s", id, rec.Status, next)
	return s.records.GetRecord(ctx, id)
}

// RequestTransfer places a Verified record into PendingTransfer and
// records the embedded transfer request. Notifying admins (store row,
// email, websocket) is best-effort.
func (s *RegistryService) RequestTransfer(ctx context.Context, req *models.RequestTransferRequest) (*models.LandRecord, error) {
	if !blockchain.IsValidAddress(req.NewOwnerAddress) {
		return nil, apperr.New(apperr.Validation, "invalid new owner address format")
	}

	rec, err := s.records.GetRecord(ctx, req.RecordId)
	if err != nil {
		return nil, err
	}

	if _, err := workflow.Next(rec.Status, workflow.ActionRequestTransfer); err != nil {
		return nil, err
	}

	reason := req.Reason
	if reason == "" {
		reason = "Not specified"
	}
	transfer := &models.TransferRequest{
		NewOwnerAddress: req.NewOwnerAddress,
		RequestedBy:     rec.OwnerAddress,
		Reason:          reason,
		RequestedAt:     time.Now().UTC(),
		Status:          models.TransferPending,
	}
	note := fmt.Sprintf("Transfer requested from %s to %s", rec.OwnerAddress, req.NewOwnerAddress)

	matched, err := s.records.CreateTransferRequest(ctx, req.RecordId, transfer, note)
	if err != nil {
		return nil, err
	}
	if !matched {
		return nil, apperr.Newf(apperr.InvalidState,
			"land record %d was modified concurrently, retry the operation", req.RecordId)
	}

	s.notifyTransferRequested(ctx, rec, req.NewOwnerAddress)

	return s.records.GetRecord(ctx, req.RecordId)
}

// ApproveTransfer completes a pending transfer. The chain submission runs
// first when configured; its failure aborts the approval only in
// chain-required mode, otherwise a synthesized hash is stored and the
// database mutation proceeds.
func (s *RegistryService) ApproveTransfer(ctx context.Context, id uint64) (*models.LandRecord, string, error) {
	rec, err := s.records.GetRecord(ctx, id)
	if err != nil {
		return nil, "", err
	}

	if _, err := workflow.Next(rec.Status, workflow.ActionApproveTransfer); err != nil {
		return nil, "", err
	}
	if rec.TransferRequest == nil || rec.TransferRequest.NewOwnerAddress == "" {
		return nil, "", apperr.New(apperr.InvalidState, "transfer request information is missing")
	}

	txHash, err := s.transactionHash(ctx, rec)
	if err != nil {
		return nil, "", err
	}

	newOwner := rec.TransferRequest.NewOwnerAddress
	matched, err := s.records.ApproveTransfer(ctx, id, rec.OwnerAddress, newOwner, txHash)
	if err != nil {
		return nil, "", err
	}
	if !matched {
		return nil, "", apperr.Newf(apperr.InvalidState,
			"land record %d was modified concurrently, retry the operation", id)
	}

	// Best-effort: the ownership change above is authoritative even if the
	// holdings index update fails.
	if err := s.records.MoveHolding(ctx, id, rec.OwnerAddress, newOwner); err != nil {
		log.Errorf("Error updating wallet holdings for record %d: %v", id, err)
	}

	log.Infof("Transfer of land record %d approved, new owner %s, tx %s", id, newOwner, txHash)

	updated, err := s.records.GetRecord(ctx, id)
	if err != nil {
		return nil, "", err
	}
	return updated, txHash, nil
}

// RejectTransfer reverts a pending transfer to Verified without changing
// ownership. The request stays on the record, marked Rejected.
func (s *RegistryService) RejectTransfer(ctx context.Context, id uint64) (*models.LandRecord, error) {
	rec, err := s.records.GetRecord(ctx, id)
	if err != nil {
		return nil, err
	}

	if _, err := workflow.Next(rec.Status, workflow.ActionRejectTransfer); err != nil {
		return nil, err
	}

	matched, err := s.records.RejectTransfer(ctx, id)
	if err != nil {
		return nil, err
	}
	if !matched {
		return nil, apperr.Newf(apperr.InvalidState,
			"land record %d was modified concurrently, retry the operation", id)
	}

	log.Infof("Transfer of land record %d rejected", id)
	return s.records.GetRecord(ctx, id)
}

func (s *RegistryService) transactionHash(ctx context.Context, rec *models.LandRecord) (string, error) {
	if s.transferor == nil {
		if s.chainRequired {
			return "", apperr.New(apperr.Upstream, "chain recording is required but not configured")
		}
		log.Debugf("Chain client is not configured, synthesizing a transaction hash for record %d", rec.Id)
		return blockchain.SyntheticTxHash(), nil
	}

	tokenId := rec.TokenId
	if tokenId == 0 {
		tokenId = rec.Id
	}
	hash, err := s.transferor.Transfer(ctx, tokenId, rec.TransferRequest.NewOwnerAddress)
	if err == nil {
		return hash, nil
	}
	if s.chainRequired {
		return "", apperr.Wrap(err, apperr.Upstream, "chain transfer submission failed")
	}
	log.Warnf("Chain transfer submission failed for record %d, falling back to a synthesized hash: %v", rec.Id, err)
	return blockchain.SyntheticTxHash(), nil
}

func (s *RegistryService) notifyTransferRequested(ctx context.Context, rec *models.LandRecord, newOwner string) {
	n := &models.AdminNotification{
		Type:         models.NotificationTransferRequest,
		RecordId:     rec.Id,
		SurveyNumber: rec.SurveyNumber,
		FromOwner:    rec.OwnerAddress,
		ToOwner:      newOwner,
		Message:      fmt.Sprintf("Transfer request for survey number %s is pending approval", rec.SurveyNumber),
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.notifications.Create(ctx, n); err != nil {
		log.Errorf("Error storing admin notification for record %d: %v", rec.Id, err)
	}
	if s.hub != nil {
		s.hub.BroadcastNotification(n)
	}
	if s.emailer != nil {
		if err := s.emailer.SendTransferRequest(n); err != nil {
			log.Warnf("Error emailing transfer request notification for record %d: %v", rec.Id, err)
		}
	}
}

func validateRegistration(req *models.RegisterRecordRequest) error {
	switch {
	case req.SurveyNumber == "":
		return apperr.New(apperr.Validation, "survey_number is required")
	case req.OwnerName == "":
		return apperr.New(apperr.Validation, "owner_name is required")
	case req.OwnerAddress == "":
		return apperr.New(apperr.Validation, "owner_address is required")
	case req.OwnerPhone == "":
		return apperr.New(apperr.Validation, "owner_phone is required")
	case req.Location == nil || req.Location.Latitude == nil || req.Location.Longitude == nil:
		return apperr.New(apperr.Validation, "location with latitude and longitude is required")
	case req.Area == nil:
		return apperr.New(apperr.Validation, "area is required")
	case req.Value == nil:
		return apperr.New(apperr.Validation, "value is required")
	}

	if !blockchain.IsValidAddress(req.OwnerAddress) {
		return apperr.New(apperr.Validation, "invalid owner wallet address format")
	}
	if req.Area.Cmp(decimal.Zero) <= 0 {
		return apperr.New(apperr.Validation, "area must be a positive number")
	}
	if req.Value.Cmp(decimal.Zero) < 0 {
		return apperr.New(apperr.Validation, "value must be a non-negative number")
	}
	if lat := *req.Location.Latitude; lat < -90 || lat > 90 {
		return apperr.New(apperr.Validation, "latitude must be between -90 and 90")
	}
	if lon := *req.Location.Longitude; lon < -180 || lon > 180 {
		return apperr.New(apperr.Validation, "longitude must be between -180 and 180")
	}
	return nil
}
