package handler

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/classsync/backend/internal/domain/reconcile"
)

// ---------------------------------------------------------------------------
// Requests
// ---------------------------------------------------------------------------

// StartSyncRequest starts a manual sync run
type StartSyncRequest struct {
	// RangeDays is how far back the run reaches; 0 uses the default
	RangeDays int `json:"range_days"`
}

// ToggleScheduleRequest enables or disables scheduled syncing
type ToggleScheduleRequest struct {
	Enabled         *bool `json:"enabled" binding:"required"`
	IntervalMinutes int   `json:"interval_minutes"`
}

// ChangeStatusRequest requests a manual status transition
type ChangeStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Round  *int   `json:"round"`
	Actor  string `json:"actor" binding:"required"`
}

// ---------------------------------------------------------------------------
// Responses
// ---------------------------------------------------------------------------

// SyncRunResponse is one sync run
type SyncRunResponse struct {
	ID           uuid.UUID  `json:"id"`
	StoreID      uuid.UUID  `json:"store_id"`
	Mode         string     `json:"mode"`
	Status       string     `json:"status"`
	Error        string     `json:"error,omitempty"`
	WindowStart  time.Time  `json:"window_start"`
	WindowEnd    time.Time  `json:"window_end"`
	TotalCount   int        `json:"total_count"`
	SuccessCount int        `json:"success_count"`
	FailedCount  int        `json:"failed_count"`
	// Percentage of processed orders, 0 when the total is still unknown
	Percentage  float64    `json:"percentage"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func toSyncRunResponse(run *reconcile.SyncRun) SyncRunResponse {
	resp := SyncRunResponse{
		ID:           run.ID,
		StoreID:      run.StoreID,
		Mode:         string(run.Mode),
		Status:       string(run.Status),
		Error:        run.Error,
		WindowStart:  run.WindowStart,
		WindowEnd:    run.WindowEnd,
		TotalCount:   run.TotalCount,
		SuccessCount: run.SuccessCount,
		FailedCount:  run.FailedCount,
		StartedAt:    run.StartedAt,
		CompletedAt:  run.CompletedAt,
	}
	if run.TotalCount > 0 {
		processed := run.SuccessCount + run.FailedCount
		resp.Percentage = float64(processed) / float64(run.TotalCount) * 100
	}
	return resp
}

// ScheduleResponse is a store's scheduling state
type ScheduleResponse struct {
	StoreID         uuid.UUID  `json:"store_id"`
	Enabled         bool       `json:"enabled"`
	IntervalMinutes int        `json:"interval_minutes"`
	LastRunAt       *time.Time `json:"last_run_at,omitempty"`
	LastSuccessAt   *time.Time `json:"last_success_at,omitempty"`
	LastError       string     `json:"last_error,omitempty"`
	NextDueAt       time.Time  `json:"next_due_at"`
}

func toScheduleResponse(schedule *reconcile.StoreSchedule) ScheduleResponse {
	return ScheduleResponse{
		StoreID:         schedule.StoreID,
		Enabled:         schedule.Enabled,
		IntervalMinutes: schedule.IntervalMinutes,
		LastRunAt:       schedule.LastRunAt,
		LastSuccessAt:   schedule.LastSuccessAt,
		LastError:       schedule.LastError,
		NextDueAt:       schedule.NextDueAt,
	}
}

// RecordResponse is one order record
type RecordResponse struct {
	ID              uuid.UUID `json:"id"`
	StoreID         uuid.UUID `json:"store_id"`
	PlatformOrderID string    `json:"platform_order_id"`

	OrderedAt   time.Time `json:"ordered_at"`
	OrdererName string    `json:"orderer_name"`
	OrdererTel  string    `json:"orderer_tel"`

	PaymentStatus string          `json:"payment_status"`
	PaymentMethod string          `json:"payment_method,omitempty"`
	PaymentAmount decimal.Decimal `json:"payment_amount"`
	PaidAt        *time.Time      `json:"paid_at,omitempty"`
	ClaimStatus   string          `json:"claim_status,omitempty"`

	ProductID     string          `json:"product_id,omitempty"`
	ProductName   string          `json:"product_name,omitempty"`
	ProductRegion string          `json:"product_region,omitempty"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Quantity      int             `json:"quantity"`

	MemberID    string `json:"member_id,omitempty"`
	MemberName  string `json:"member_name,omitempty"`
	MemberEmail string `json:"member_email,omitempty"`
	MemberPhone string `json:"member_phone,omitempty"`

	Gender           string     `json:"gender,omitempty"`
	BirthYear        string     `json:"birth_year,omitempty"`
	Age              int        `json:"age,omitempty"`
	Occupation       string     `json:"occupation,omitempty"`
	PreferredDateRaw string     `json:"preferred_date_raw,omitempty"`
	PreferredDate    *time.Time `json:"preferred_date,omitempty"`

	ManageStatus    string     `json:"manage_status"`
	DeferralRound   *int       `json:"deferral_round,omitempty"`
	NotifiedStatus  string     `json:"notified_status,omitempty"`
	OperatorEntered bool       `json:"operator_entered"`
	LastCheckedAt   *time.Time `json:"last_checked_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toRecordResponse(record *reconcile.OrderRecord) RecordResponse {
	return RecordResponse{
		ID:              record.ID,
		StoreID:         record.StoreID,
		PlatformOrderID: record.PlatformOrderID,

		OrderedAt:   record.OrderedAt,
		OrdererName: record.OrdererName,
		OrdererTel:  record.OrdererTel,

		PaymentStatus: string(record.PaymentStatus),
		PaymentMethod: record.PaymentMethod,
		PaymentAmount: record.PaymentAmount,
		PaidAt:        record.PaidAt,
		ClaimStatus:   string(record.ClaimStatus),

		ProductID:     record.ProductID,
		ProductName:   record.ProductName,
		ProductRegion: record.ProductRegion,
		UnitPrice:     record.UnitPrice,
		Quantity:      record.Quantity,

		MemberID:    record.MemberID,
		MemberName:  record.MemberName,
		MemberEmail: record.MemberEmail,
		MemberPhone: record.MemberPhone,

		Gender:           record.Gender,
		BirthYear:        record.BirthYear,
		Age:              record.Age,
		Occupation:       record.Occupation,
		PreferredDateRaw: record.PreferredDateRaw,
		PreferredDate:    record.PreferredDate,

		ManageStatus:    string(record.ManageStatus),
		DeferralRound:   record.DeferralRound,
		NotifiedStatus:  string(record.NotifiedStatus),
		OperatorEntered: record.OperatorEntered,
		LastCheckedAt:   record.LastCheckedAt,

		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}
}

// StatusHistoryResponse is one workflow transition
type StatusHistoryResponse struct {
	ID            uuid.UUID `json:"id"`
	RecordID      uuid.UUID `json:"record_id"`
	Previous      string    `json:"previous"`
	Next          string    `json:"next"`
	DeferralRound *int      `json:"deferral_round,omitempty"`
	Actor         string    `json:"actor"`
	CreatedAt     time.Time `json:"created_at"`
}

func toStatusHistoryResponse(entry *reconcile.StatusHistory) StatusHistoryResponse {
	return StatusHistoryResponse{
		ID:            entry.ID,
		RecordID:      entry.RecordID,
		Previous:      string(entry.Previous),
		Next:          string(entry.Next),
		DeferralRound: entry.DeferralRound,
		Actor:         entry.Actor,
		CreatedAt:     entry.CreatedAt,
	}
}
