package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"land-registry-service/apperr"
	"land-registry-service/models"
	"land-registry-service/utils"

	"github.com/apex/log"
	"github.com/go-sql-driver/mysql"
)

// MySQL error 1062, ER_DUP_ENTRY.
const mysqlDupEntry = 1062

const recordColumns = `id, survey_number, owner_name, owner_address, owner_phone,
		latitude, longitude, area, value, status, deed_image, description, token_id,
		transfer_new_owner, transfer_requested_by, transfer_reason, transfer_requested_at,
		transfer_status, created_at, updated_at`

// LandRecordsService owns all reads and writes against the land record
// tables. Status transitions use conditional updates keyed on the expected
// current status so concurrent conflicting operations fail cleanly instead
// of racing.
type LandRecordsService struct {
	db *sql.DB
}

func NewLandRecordsService(db *sql.DB) *LandRecordsService {
	return &LandRecordsService{db: db}
}

// Register inserts a new Pending record and its owner's holdings row in one
// transaction. Duplicate survey numbers come back as conflicts.
func (s *LandRecordsService) Register(ctx context.Context, rec *models.LandRecord) (uint64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Errorf("Error creating transaction: %v", err)
		return 0, err
	}
	defer tx.Rollback()

	rows, err := tx.Query(`SELECT id FROM land_records WHERE survey_number = ?`, rec.SurveyNumber)
	if err != nil {
		return 0, err
	}
	surveyExists := rows.Next()
	rows.Close()
	if surveyExists {
		return 0, apperr.Newf(apperr.Conflict, "survey number %s already exists", rec.SurveyNumber)
	}

	result, err := tx.Exec(`INSERT
		INTO land_records (survey_number, owner_name, owner_address, owner_phone,
			latitude, longitude, area, value, status, deed_image, description)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.SurveyNumber, rec.OwnerName, rec.OwnerAddress, rec.OwnerPhone,
		rec.Latitude, rec.Longitude, rec.Area, rec.Value, rec.Status,
		rec.DeedImage, rec.Description)
	if err != nil {
		// Concurrent registrations can both pass the read above; the
		// unique survey_number index catches the loser here.
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDupEntry {
			return 0, apperr.Newf(apperr.Conflict, "survey number %s already exists", rec.SurveyNumber)
		}
		return 0, err
	}
	newId, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}

	result, err = tx.Exec(`INSERT IGNORE INTO wallet_holdings (address, record_id) VALUES (?, ?)`,
		rec.OwnerAddress, newId)
	utils.LogResult("insertWalletHolding", result, err, true)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	log.Infof("Registered land record %d for survey %s", newId, rec.SurveyNumber)
	return uint64(newId), nil
}

// GetRecord loads one record with its previous owners.
func (s *LandRecordsService) GetRecord(ctx context.Context, id uint64) (*models.LandRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+`
		FROM land_records WHERE id = ?`, id)

	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, apperr.Newf(apperr.NotFound, "land record %d not found", id)
	}
	if err != nil {
		return nil, err
	}

	owners, err := s.previousOwners(ctx, id)
	if err != nil {
		return nil, err
	}
	rec.PreviousOwners = owners
	return rec, nil
}

// ListRecords returns records newest first, optionally filtered by owner
// address. Previous owners are not joined in; use GetRecord for the full
// custody trail.
func (s *LandRecordsService) ListRecords(ctx context.Context, owner string) ([]*models.LandRecord, error) {
	sqlStr := `SELECT ` + recordColumns + ` FROM land_records`
	params := []any{}
	if owner != "" {
		sqlStr += ` WHERE owner_address = ?`
		params = append(params, owner)
	}
	sqlStr += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, sqlStr, params...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []*models.LandRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, rec)
	}
	return res, rows.Err()
}

// GetHoldings returns the record ids associated with a wallet address.
func (s *LandRecordsService) GetHoldings(ctx context.Context, address string) ([]uint64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT record_id FROM wallet_holdings WHERE address = ? ORDER BY record_id`, address)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []uint64{}
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SetStatus flips a record from the expected status to the next one. The
// returned bool reports whether the row matched; a false result means the
// record is missing or no longer in the expected status.
func (s *LandRecordsService) SetStatus(ctx context.Context, id uint64, from, to string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `UPDATE land_records
		SET status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ?`, to, id, from)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// CreateTransferRequest atomically moves a Verified record into
// PendingTransfer and stores the embedded request.
func (s *LandRecordsService) CreateTransferRequest(ctx context.Context, id uint64, req *models.TransferRequest, note string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	result, err := tx.Exec(`UPDATE land_records
		SET status = ?, transfer_new_owner = ?, transfer_requested_by = ?,
			transfer_reason = ?, transfer_requested_at = ?, transfer_status = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ?`,
		models.StatusPendingTransfer, req.NewOwnerAddress, req.RequestedBy,
		req.Reason, req.RequestedAt, models.TransferPending,
		id, models.StatusVerified)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 0 {
		return false, nil
	}

	result, err = tx.Exec(`INSERT INTO transfer_history (record_id, status, note) VALUES (?, ?, ?)`,
		id, "Requested", note)
	utils.LogResult("insertTransferHistory", result, err, true)
	if err != nil {
		return false, err
	}

	return true, tx.Commit()
}

// ApproveTransfer completes a pending transfer: ownership swaps to the
// requested address and exactly one previous-owner entry is appended, all
// or nothing. A false result means the record lost the conditional update.
func (s *LandRecordsService) ApproveTransfer(ctx context.Context, id uint64, oldOwner, newOwner, txHash string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	result, err := tx.Exec(`UPDATE land_records
		SET status = ?, owner_address = ?, transfer_status = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ? AND transfer_status = ?`,
		models.StatusVerified, newOwner, models.TransferCompleted,
		id, models.StatusPendingTransfer, models.TransferPending)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 0 {
		return false, nil
	}

	result, err = tx.Exec(`INSERT INTO previous_owners (record_id, address, transaction_hash) VALUES (?, ?, ?)`,
		id, oldOwner, txHash)
	utils.LogResult("insertPreviousOwner", result, err, true)
	if err != nil {
		return false, err
	}

	result, err = tx.Exec(`INSERT INTO transfer_history (record_id, status, note) VALUES (?, ?, ?)`,
		id, "Approved", "Transfer approved, tx "+txHash)
	utils.LogResult("insertTransferHistory", result, err, true)
	if err != nil {
		return false, err
	}

	return true, tx.Commit()
}

// RejectTransfer reverts a pending transfer to Verified. Ownership is
// untouched and the request is kept, marked Rejected, for the audit trail.
func (s *LandRecordsService) RejectTransfer(ctx context.Context, id uint64) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	result, err := tx.Exec(`UPDATE land_records
		SET status = ?, transfer_status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ? AND transfer_status = ?`,
		models.StatusVerified, models.TransferRejected,
		id, models.StatusPendingTransfer, models.TransferPending)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 0 {
		return false, nil
	}

	result, err = tx.Exec(`INSERT INTO transfer_history (record_id, status, note) VALUES (?, ?, ?)`,
		id, "Rejected", "Transfer rejected by admin")
	utils.LogResult("insertTransferHistory", result, err, true)
	if err != nil {
		return false, err
	}

	return true, tx.Commit()
}

// MoveHolding reassigns a record between wallet holdings indexes.
func (s *LandRecordsService) MoveHolding(ctx context.Context, recordId uint64, from, to string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM wallet_holdings WHERE address = ? AND record_id = ?`, from, recordId)
	utils.LogResult("deleteWalletHolding", result, err, true)
	if err != nil {
		return err
	}
	result, err = s.db.ExecContext(ctx,
		`INSERT IGNORE INTO wallet_holdings (address, record_id) VALUES (?, ?)`, to, recordId)
	utils.LogResult("insertWalletHolding", result, err, true)
	return err
}

// ParcelsInViewport returns the positions of all records inside the
// bounding box for map aggregation.
func (s *LandRecordsService) ParcelsInViewport(ctx context.Context, vp *models.ViewPort) ([]models.ParcelPoint, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, survey_number, latitude, longitude, status
		FROM land_records
		WHERE latitude BETWEEN ? AND ? AND longitude BETWEEN ? AND ?`,
		vp.LatMin, vp.LatMax, vp.LonMin, vp.LonMax)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []models.ParcelPoint{}
	for rows.Next() {
		var p models.ParcelPoint
		if err := rows.Scan(&p.RecordId, &p.SurveyNumber, &p.Latitude, &p.Longitude, &p.Status); err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

func (s *LandRecordsService) previousOwners(ctx context.Context, recordId uint64) ([]models.PreviousOwner, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT address, transfer_date, transaction_hash
		FROM previous_owners WHERE record_id = ? ORDER BY id`, recordId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	owners := []models.PreviousOwner{}
	for rows.Next() {
		var o models.PreviousOwner
		if err := rows.Scan(&o.Address, &o.TransferDate, &o.TransactionHash); err != nil {
			return nil, err
		}
		owners = append(owners, o)
	}
	return owners, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.LandRecord, error) {
	var (
		rec           models.LandRecord
		description   sql.NullString
		trNewOwner    sql.NullString
		trRequestedBy sql.NullString
		trReason      sql.NullString
		trRequestedAt sql.NullTime
		trStatus      sql.NullString
	)
	err := row.Scan(&rec.Id, &rec.SurveyNumber, &rec.OwnerName, &rec.OwnerAddress,
		&rec.OwnerPhone, &rec.Latitude, &rec.Longitude, &rec.Area, &rec.Value,
		&rec.Status, &rec.DeedImage, &description, &rec.TokenId,
		&trNewOwner, &trRequestedBy, &trReason, &trRequestedAt, &trStatus,
		&rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	rec.Description = description.String
	if trStatus.Valid {
		rec.TransferRequest = &models.TransferRequest{
			NewOwnerAddress: trNewOwner.String,
			RequestedBy:     trRequestedBy.String,
			Reason:          trReason.String,
			RequestedAt:     trRequestedAt.Time,
			Status:          trStatus.String,
		}
	}
	rec.PreviousOwners = []models.PreviousOwner{}
	return &rec, nil
}

// TransferHistory returns the status-change notes for a record, oldest
// first.
func (s *LandRecordsService) TransferHistory(ctx context.Context, recordId uint64) ([]models.TransferHistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, record_id, status, note, created_at
		FROM transfer_history WHERE record_id = ? ORDER BY id`, recordId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []models.TransferHistoryEntry{}
	for rows.Next() {
		var e models.TransferHistoryEntry
		var createdAt time.Time
		if err := rows.Scan(&e.Id, &e.RecordId, &e.Status, &e.Note, &createdAt); err != nil {
			return nil, err
		}
		e.CreatedAt = createdAt
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
