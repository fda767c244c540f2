package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Land record statuses. PendingTransfer is never accepted from clients
// directly; it is only set by the transfer request flow.
const (
	StatusPending         = "Pending"
	StatusVerified        = "Verified"
	StatusRejected        = "Rejected"
	StatusPendingTransfer = "PendingTransfer"
)

// Transfer request statuses.
const (
	TransferPending   = "Pending"
	TransferCompleted = "Completed"
	TransferRejected  = "Rejected"
)

const NotificationTransferRequest = "TransferRequest"

type PreviousOwner struct {
	Address         string    `json:"address"`
	TransferDate    time.Time `json:"transfer_date"`
	TransactionHash string    `json:"transaction_hash"`
}

type TransferRequest struct {
	NewOwnerAddress string    `json:"new_owner_address"`
	RequestedBy     string    `json:"requested_by"`
	Reason          string    `json:"reason"`
	RequestedAt     time.Time `json:"requested_at"`
	Status          string    `json:"status"`
}

type LandRecord struct {
	Id              uint64           `json:"id"`
	SurveyNumber    string           `json:"survey_number"`
	OwnerName       string           `json:"owner_name"`
	OwnerAddress    string           `json:"owner_address"`
	OwnerPhone      string           `json:"owner_phone"`
	Latitude        float64          `json:"latitude"`
	Longitude       float64          `json:"longitude"`
	Area            float64          `json:"area"`
	Value           float64          `json:"value"`
	Status          string           `json:"status"`
	DeedImage       string           `json:"deed_image"`
	Description     string           `json:"description"`
	TokenId         uint64           `json:"token_id,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
	TransferRequest *TransferRequest `json:"transfer_request,omitempty"`
	PreviousOwners  []PreviousOwner  `json:"previous_owners"`
}

type AdminNotification struct {
	Id           uint64    `json:"id"`
	Type         string    `json:"type"`
	RecordId     uint64    `json:"record_id"`
	SurveyNumber string    `json:"survey_number"`
	FromOwner    string    `json:"from_owner"`
	ToOwner      string    `json:"to_owner"`
	Message      string    `json:"message"`
	CreatedAt    time.Time `json:"created_at"`
	Read         bool      `json:"read"`
}

type TransferHistoryEntry struct {
	Id        uint64    `json:"id"`
	RecordId  uint64    `json:"record_id"`
	Status    string    `json:"status"`
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"created_at"`
}

type Location struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// RegisterRecordRequest is the public registration payload. Area and value
// are decimals so both JSON numbers and strings are accepted.
type RegisterRecordRequest struct {
	SurveyNumber string           `json:"survey_number"`
	OwnerName    string           `json:"owner_name"`
	OwnerAddress string           `json:"owner_address"`
	OwnerPhone   string           `json:"owner_phone"`
	Location     *Location        `json:"location"`
	Area         *decimal.Decimal `json:"area"`
	Value        *decimal.Decimal `json:"value"`
	DeedImage    string           `json:"deed_image"`
	Description  string           `json:"description"`
}

type RecordIdRequest struct {
	RecordId uint64 `json:"record_id"`
}

type UpdateStatusRequest struct {
	RecordId uint64 `json:"record_id"`
	Status   string `json:"status"`
}

type RequestTransferRequest struct {
	RecordId        uint64 `json:"record_id"`
	NewOwnerAddress string `json:"new_owner_address"`
	Reason          string `json:"reason"`
}

type NotificationActionRequest struct {
	Id uint64 `json:"id"`
}

type RecordResponse struct {
	Record *LandRecord `json:"record"`
}

type RecordsResponse struct {
	Records []*LandRecord `json:"records"`
}

type TransferResponse struct {
	Record          *LandRecord `json:"record"`
	TransactionHash string      `json:"transaction_hash,omitempty"`
	Message         string      `json:"message,omitempty"`
}

type HoldingsResponse struct {
	Address   string   `json:"address"`
	RecordIds []uint64 `json:"record_ids"`
}

type NotificationsResponse struct {
	Notifications []*AdminNotification `json:"notifications"`
}

type BroadcastMessage struct {
	Type      string    `json:"type"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

type ViewPort struct {
	LatMin float64 `json:"latmin"`
	LonMin float64 `json:"lonmin"`
	LatMax float64 `json:"latmax"`
	LonMax float64 `json:"lonmax"`
}

// ParcelPoint is what the map endpoint aggregates: one record's position
// plus the fields the map popup needs.
type ParcelPoint struct {
	RecordId     uint64  `json:"record_id"`
	SurveyNumber string  `json:"survey_number"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	Status       string  `json:"status"`
}
