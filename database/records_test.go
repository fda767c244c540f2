package database

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"land-registry-service/apperr"
	"land-registry-service/models"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/jknair0/beforeeach"
)

var (
	db   *sql.DB
	mock sqlmock.Sqlmock
)

func setUp() {
	db, mock, _ = sqlmock.New()
}

func tearDown() {
	db.Close()
}

var it = beforeeach.Create(setUp, tearDown)

var recordRowColumns = []string{
	"id", "survey_number", "owner_name", "owner_address", "owner_phone",
	"latitude", "longitude", "area", "value", "status", "deed_image",
	"description", "token_id",
	"transfer_new_owner", "transfer_requested_by", "transfer_reason",
	"transfer_requested_at", "transfer_status",
	"created_at", "updated_at",
}

func verifiedRecordRow(id uint64, survey, owner, status string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(recordRowColumns).
		AddRow(id, survey, "Asha Rao", owner, "+91-900000001",
			12.95, 77.60, 1200.0, 5000000.0, status, "deed.jpg",
			"South facing plot", 0,
			nil, nil, nil, nil, nil,
			now, now)
}

func pendingTransferRecordRow(id uint64, survey, owner, newOwner string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(recordRowColumns).
		AddRow(id, survey, "Asha Rao", owner, "+91-900000001",
			12.95, 77.60, 1200.0, 5000000.0, models.StatusPendingTransfer, "deed.jpg",
			nil, 0,
			newOwner, owner, "Sale", now, models.TransferPending,
			now, now)
}

func TestRegister(t *testing.T) {
	it(func() {
		testCases := []struct {
			name         string
			existingIds  string
			execExpected bool
			expectKind   apperr.Kind
		}{
			{
				name:         "New survey number",
				existingIds:  "",
				execExpected: true,
			}, {
				name:        "Duplicate survey number",
				existingIds: "3",
				expectKind:  apperr.Conflict,
			},
		}

		for _, testCase := range testCases {
			setUp()
			s := NewLandRecordsService(db)

			mock.ExpectBegin()
			mock.ExpectQuery("SELECT id FROM land_records WHERE survey_number = (.+)").
				WithArgs("SRV-001").
				WillReturnRows(sqlmock.NewRows([]string{"id"}).FromCSVString(testCase.existingIds))
			if testCase.execExpected {
				mock.ExpectExec("INSERT\\s+INTO land_records").
					WillReturnResult(sqlmock.NewResult(7, 1))
				mock.ExpectExec("INSERT IGNORE INTO wallet_holdings").
					WithArgs("0xOwner", int64(7)).
					WillReturnResult(sqlmock.NewResult(1, 1))
				mock.ExpectCommit()
			} else {
				mock.ExpectRollback()
			}

			id, err := s.Register(context.Background(), &models.LandRecord{
				SurveyNumber: "SRV-001",
				OwnerName:    "Asha Rao",
				OwnerAddress: "0xOwner",
				OwnerPhone:   "+91-900000001",
				Latitude:     12.95,
				Longitude:    77.60,
				Area:         1200.0,
				Value:        5000000.0,
				Status:       models.StatusPending,
				DeedImage:    "deed.jpg",
			})

			if testCase.expectKind != "" {
				kind, ok := apperr.KindOf(err)
				if !ok || kind != testCase.expectKind {
					t.Errorf("%s: expected %s error, got %v", testCase.name, testCase.expectKind, err)
				}
				continue
			}
			if err != nil {
				t.Errorf("%s: unexpected error %v", testCase.name, err)
				continue
			}
			if id != 7 {
				t.Errorf("%s: expected id 7, got %d", testCase.name, id)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("%s: unmet expectations: %v", testCase.name, err)
			}
		}
	})
}

func TestRegisterDuplicateRace(t *testing.T) {
	it(func() {
		s := NewLandRecordsService(db)

		// Both racing registrations pass the read check; the unique index
		// rejects the second INSERT with ER_DUP_ENTRY.
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT id FROM land_records WHERE survey_number = (.+)").
			WithArgs("SRV-001").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
		mock.ExpectExec("INSERT\\s+INTO land_records").
			WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'SRV-001' for key 'survey_number_index'"})
		mock.ExpectRollback()

		_, err := s.Register(context.Background(), &models.LandRecord{
			SurveyNumber: "SRV-001",
			OwnerName:    "Asha Rao",
			OwnerAddress: "0xOwner",
			OwnerPhone:   "+91-900000001",
			Status:       models.StatusPending,
		})
		kind, ok := apperr.KindOf(err)
		if !ok || kind != apperr.Conflict {
			t.Errorf("expected conflict error, got %v", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})
}

func TestGetRecord(t *testing.T) {
	it(func() {
		s := NewLandRecordsService(db)

		mock.ExpectQuery("SELECT (.+) FROM land_records WHERE id = (.+)").
			WithArgs(uint64(7)).
			WillReturnRows(verifiedRecordRow(7, "SRV-001", "0xOwner", models.StatusVerified))
		mock.ExpectQuery("SELECT address, transfer_date, transaction_hash\\s+FROM previous_owners").
			WithArgs(uint64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"address", "transfer_date", "transaction_hash"}).
				AddRow("0xPrev", time.Now(), "0xabc"))

		rec, err := s.GetRecord(context.Background(), 7)
		if err != nil {
			t.Fatalf("unexpected error %v", err)
		}
		if rec.SurveyNumber != "SRV-001" || rec.Status != models.StatusVerified {
			t.Errorf("unexpected record %+v", rec)
		}
		if rec.TransferRequest != nil {
			t.Errorf("expected no transfer request, got %+v", rec.TransferRequest)
		}
		if len(rec.PreviousOwners) != 1 || rec.PreviousOwners[0].Address != "0xPrev" {
			t.Errorf("unexpected previous owners %+v", rec.PreviousOwners)
		}
	})
}

func TestGetRecordNotFound(t *testing.T) {
	it(func() {
		s := NewLandRecordsService(db)

		mock.ExpectQuery("SELECT (.+) FROM land_records WHERE id = (.+)").
			WithArgs(uint64(99)).
			WillReturnRows(sqlmock.NewRows(recordRowColumns))

		_, err := s.GetRecord(context.Background(), 99)
		kind, ok := apperr.KindOf(err)
		if !ok || kind != apperr.NotFound {
			t.Errorf("expected not_found error, got %v", err)
		}
	})
}

func TestGetRecordWithTransferRequest(t *testing.T) {
	it(func() {
		s := NewLandRecordsService(db)

		mock.ExpectQuery("SELECT (.+) FROM land_records WHERE id = (.+)").
			WithArgs(uint64(7)).
			WillReturnRows(pendingTransferRecordRow(7, "SRV-001", "0xOwner", "0xBuyer"))
		mock.ExpectQuery("SELECT address, transfer_date, transaction_hash\\s+FROM previous_owners").
			WithArgs(uint64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"address", "transfer_date", "transaction_hash"}))

		rec, err := s.GetRecord(context.Background(), 7)
		if err != nil {
			t.Fatalf("unexpected error %v", err)
		}
		if rec.TransferRequest == nil {
			t.Fatal("expected a transfer request")
		}
		if rec.TransferRequest.NewOwnerAddress != "0xBuyer" ||
			rec.TransferRequest.Status != models.TransferPending {
			t.Errorf("unexpected transfer request %+v", rec.TransferRequest)
		}
	})
}

func TestSetStatus(t *testing.T) {
	it(func() {
		testCases := []struct {
			name          string
			affected      int64
			expectMatched bool
		}{
			{name: "Status matches", affected: 1, expectMatched: true},
			{name: "Lost the race", affected: 0, expectMatched: false},
		}

		for _, testCase := range testCases {
			setUp()
			s := NewLandRecordsService(db)

			mock.ExpectExec("UPDATE land_records\\s+SET status = (.+)").
				WithArgs(models.StatusVerified, uint64(7), models.StatusPending).
				WillReturnResult(sqlmock.NewResult(0, testCase.affected))

			matched, err := s.SetStatus(context.Background(), 7, models.StatusPending, models.StatusVerified)
			if err != nil {
				t.Errorf("%s: unexpected error %v", testCase.name, err)
				continue
			}
			if matched != testCase.expectMatched {
				t.Errorf("%s: expected matched=%v, got %v", testCase.name, testCase.expectMatched, matched)
			}
		}
	})
}

func TestCreateTransferRequest(t *testing.T) {
	it(func() {
		testCases := []struct {
			name          string
			affected      int64
			expectMatched bool
		}{
			{name: "Record is Verified", affected: 1, expectMatched: true},
			{name: "Record left Verified concurrently", affected: 0, expectMatched: false},
		}

		requestedAt := time.Now().UTC()
		for _, testCase := range testCases {
			setUp()
			s := NewLandRecordsService(db)

			mock.ExpectBegin()
			mock.ExpectExec("UPDATE land_records\\s+SET status = (.+), transfer_new_owner = (.+)").
				WithArgs(models.StatusPendingTransfer, "0xBuyer", "0xOwner", "Sale",
					requestedAt, models.TransferPending, uint64(7), models.StatusVerified).
				WillReturnResult(sqlmock.NewResult(0, testCase.affected))
			if testCase.expectMatched {
				mock.ExpectExec("INSERT INTO transfer_history").
					WithArgs(uint64(7), "Requested", "note").
					WillReturnResult(sqlmock.NewResult(1, 1))
				mock.ExpectCommit()
			} else {
				mock.ExpectRollback()
			}

			matched, err := s.CreateTransferRequest(context.Background(), 7, &models.TransferRequest{
				NewOwnerAddress: "0xBuyer",
				RequestedBy:     "0xOwner",
				Reason:          "Sale",
				RequestedAt:     requestedAt,
				Status:          models.TransferPending,
			}, "note")
			if err != nil {
				t.Errorf("%s: unexpected error %v", testCase.name, err)
				continue
			}
			if matched != testCase.expectMatched {
				t.Errorf("%s: expected matched=%v, got %v", testCase.name, testCase.expectMatched, matched)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("%s: unmet expectations: %v", testCase.name, err)
			}
		}
	})
}

func TestApproveTransfer(t *testing.T) {
	it(func() {
		testCases := []struct {
			name          string
			affected      int64
			expectMatched bool
		}{
			{name: "Transfer is pending", affected: 1, expectMatched: true},
			{name: "Transfer already resolved", affected: 0, expectMatched: false},
		}

		for _, testCase := range testCases {
			setUp()
			s := NewLandRecordsService(db)

			mock.ExpectBegin()
			mock.ExpectExec("UPDATE land_records\\s+SET status = (.+), owner_address = (.+)").
				WithArgs(models.StatusVerified, "0xBuyer", models.TransferCompleted,
					uint64(7), models.StatusPendingTransfer, models.TransferPending).
				WillReturnResult(sqlmock.NewResult(0, testCase.affected))
			if testCase.expectMatched {
				mock.ExpectExec("INSERT INTO previous_owners").
					WithArgs(uint64(7), "0xOwner", "0xhash").
					WillReturnResult(sqlmock.NewResult(1, 1))
				mock.ExpectExec("INSERT INTO transfer_history").
					WithArgs(uint64(7), "Approved", "Transfer approved, tx 0xhash").
					WillReturnResult(sqlmock.NewResult(1, 1))
				mock.ExpectCommit()
			} else {
				mock.ExpectRollback()
			}

			matched, err := s.ApproveTransfer(context.Background(), 7, "0xOwner", "0xBuyer", "0xhash")
			if err != nil {
				t.Errorf("%s: unexpected error %v", testCase.name, err)
				continue
			}
			if matched != testCase.expectMatched {
				t.Errorf("%s: expected matched=%v, got %v", testCase.name, testCase.expectMatched, matched)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("%s: unmet expectations: %v", testCase.name, err)
			}
		}
	})
}

func TestRejectTransfer(t *testing.T) {
	it(func() {
		s := NewLandRecordsService(db)

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE land_records\\s+SET status = (.+), transfer_status = (.+)").
			WithArgs(models.StatusVerified, models.TransferRejected,
				uint64(7), models.StatusPendingTransfer, models.TransferPending).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO transfer_history").
			WithArgs(uint64(7), "Rejected", "Transfer rejected by admin").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		matched, err := s.RejectTransfer(context.Background(), 7)
		if err != nil {
			t.Fatalf("unexpected error %v", err)
		}
		if !matched {
			t.Error("expected the conditional update to match")
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})
}

func TestGetHoldings(t *testing.T) {
	it(func() {
		s := NewLandRecordsService(db)

		mock.ExpectQuery("SELECT record_id FROM wallet_holdings WHERE address = (.+)").
			WithArgs("0xOwner").
			WillReturnRows(sqlmock.NewRows([]string{"record_id"}).FromCSVString("3\n7"))

		ids, err := s.GetHoldings(context.Background(), "0xOwner")
		if err != nil {
			t.Fatalf("unexpected error %v", err)
		}
		if len(ids) != 2 || ids[0] != 3 || ids[1] != 7 {
			t.Errorf("unexpected holdings %v", ids)
		}
	})
}

func TestMoveHolding(t *testing.T) {
	it(func() {
		s := NewLandRecordsService(db)

		mock.ExpectExec("DELETE FROM wallet_holdings WHERE address = (.+)").
			WithArgs("0xOwner", uint64(7)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT IGNORE INTO wallet_holdings").
			WithArgs("0xBuyer", uint64(7)).
			WillReturnResult(sqlmock.NewResult(1, 1))

		if err := s.MoveHolding(context.Background(), 7, "0xOwner", "0xBuyer"); err != nil {
			t.Fatalf("unexpected error %v", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})
}

func TestTransferHistory(t *testing.T) {
	it(func() {
		s := NewLandRecordsService(db)

		mock.ExpectQuery("SELECT id, record_id, status, note, created_at\\s+FROM transfer_history").
			WithArgs(uint64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "record_id", "status", "note", "created_at"}).
				AddRow(1, 7, "Requested", "Transfer requested from 0xOwner to 0xBuyer", time.Now()).
				AddRow(2, 7, "Approved", "Transfer approved, tx 0xhash", time.Now()))

		entries, err := s.TransferHistory(context.Background(), 7)
		if err != nil {
			t.Fatalf("unexpected error %v", err)
		}
		if len(entries) != 2 {
			t.Fatalf("expected 2 entries, got %d", len(entries))
		}
		if entries[0].Status != "Requested" || entries[1].Status != "Approved" {
			t.Errorf("unexpected entries %+v", entries)
		}
	})
}

func TestParcelsInViewport(t *testing.T) {
	it(func() {
		s := NewLandRecordsService(db)

		mock.ExpectQuery("SELECT id, survey_number, latitude, longitude, status\\s+FROM land_records").
			WithArgs(12.90, 13.00, 77.55, 77.65).
			WillReturnRows(sqlmock.NewRows([]string{"id", "survey_number", "latitude", "longitude", "status"}).
				AddRow(7, "SRV-001", 12.95, 77.60, models.StatusVerified))

		parcels, err := s.ParcelsInViewport(context.Background(), &models.ViewPort{
			LatMin: 12.90, LonMin: 77.55, LatMax: 13.00, LonMax: 77.65,
		})
		if err != nil {
			t.Fatalf("unexpected error %v", err)
		}
		if len(parcels) != 1 || parcels[0].RecordId != 7 {
			t.Errorf("unexpected parcels %+v", parcels)
		}
	})
}
