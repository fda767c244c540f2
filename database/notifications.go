package database

import (
	"context"
	"database/sql"

	"land-registry-service/apperr"
	"land-registry-service/models"
	"land-registry-service/utils"
)

const notificationsLimit = 50

// NotificationsService manages the admin notification feed. Writes are
// best-effort from the caller's point of view; the transfer workflow never
// fails because a notification could not be stored.
type NotificationsService struct {
	db *sql.DB
}

func NewNotificationsService(db *sql.DB) *NotificationsService {
	return &NotificationsService{db: db}
}

func (s *NotificationsService) Create(ctx context.Context, n *models.AdminNotification) error {
	result, err := s.db.ExecContext(ctx, `INSERT
		INTO admin_notifications (type, record_id, survey_number, from_owner, to_owner, message)
		VALUES (?, ?, ?, ?, ?, ?)`,
		n.Type, n.RecordId, n.SurveyNumber, n.FromOwner, n.ToOwner, n.Message)
	utils.LogResult("insertAdminNotification", result, err, true)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err == nil {
		n.Id = uint64(id)
	}
	return nil
}

// List returns the most recent notifications, newest first.
func (s *NotificationsService) List(ctx context.Context) ([]*models.AdminNotification, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, type, record_id, survey_number,
			from_owner, to_owner, message, created_at, `+"`read`"+`
		FROM admin_notifications
		ORDER BY created_at DESC
		LIMIT ?`, notificationsLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []*models.AdminNotification{}
	for rows.Next() {
		var n models.AdminNotification
		if err := rows.Scan(&n.Id, &n.Type, &n.RecordId, &n.SurveyNumber,
			&n.FromOwner, &n.ToOwner, &n.Message, &n.CreatedAt, &n.Read); err != nil {
			return nil, err
		}
		res = append(res, &n)
	}
	return res, rows.Err()
}

func (s *NotificationsService) MarkRead(ctx context.Context, id uint64) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE admin_notifications SET `+"`read`"+` = true WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperr.Newf(apperr.NotFound, "notification %d not found", id)
	}
	return nil
}

func (s *NotificationsService) MarkAllRead(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE admin_notifications SET `+"`read`"+` = true WHERE `+"`read`"+` = false`)
	return err
}

func (s *NotificationsService) Delete(ctx context.Context, id uint64) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM admin_notifications WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperr.Newf(apperr.NotFound, "notification %d not found", id)
	}
	return nil
}
