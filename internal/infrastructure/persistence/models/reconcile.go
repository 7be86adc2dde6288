package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/classsync/backend/internal/domain/reconcile"
	"github.com/classsync/backend/internal/domain/upstream"
)

// OrderRecordModel is the persistence model for the OrderRecord domain entity.
// The unique index on (store_id, platform_order_id) backs the idempotent
// upsert: re-syncing the same order can never create a duplicate row.
type OrderRecordModel struct {
	BaseModel
	StoreID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_order_records_natural_key,priority:1"`
	PlatformOrderID string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_order_records_natural_key,priority:2"`

	OrderedAt   time.Time `gorm:"not null;index"`
	OrdererName string    `gorm:"type:varchar(100)"`
	OrdererTel  string    `gorm:"type:varchar(32)"`

	PaymentStatus string          `gorm:"type:varchar(20);not null;default:''"`
	PaymentMethod string          `gorm:"type:varchar(32)"`
	PaymentAmount decimal.Decimal `gorm:"type:decimal(12,2)"`
	PaidAt        *time.Time

	ClaimStatus string `gorm:"type:varchar(20)"`

	ProductID     string          `gorm:"type:varchar(64);index"`
	ProductName   string          `gorm:"type:varchar(255)"`
	ProductRegion string          `gorm:"type:varchar(100)"`
	UnitPrice     decimal.Decimal `gorm:"type:decimal(12,2)"`
	Quantity      int             `gorm:"not null;default:0"`

	MemberID    string `gorm:"type:varchar(64)"`
	MemberName  string `gorm:"type:varchar(100)"`
	MemberEmail string `gorm:"type:varchar(255)"`
	MemberPhone string `gorm:"type:varchar(32)"`

	Gender           string `gorm:"type:varchar(16)"`
	BirthYear        string `gorm:"type:varchar(8)"`
	Age              int    `gorm:"not null;default:0"`
	Occupation       string `gorm:"type:varchar(100)"`
	PreferredDateRaw string `gorm:"type:varchar(255)"`
	PreferredDate    *time.Time

	ManageStatus   string `gorm:"type:varchar(20);not null;index"`
	DeferralRound  *int
	NotifiedStatus string `gorm:"type:varchar(20);not null;default:''"`
	LastCheckedAt  *time.Time

	OperatorEntered bool `gorm:"not null;default:false"`

	RawData string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (OrderRecordModel) TableName() string {
	return "order_records"
}

// ToDomain converts the persistence model to a domain OrderRecord entity
func (m *OrderRecordModel) ToDomain() *reconcile.OrderRecord {
	return &reconcile.OrderRecord{
		BaseEntity:       m.BaseModel.ToDomain(),
		StoreID:          m.StoreID,
		PlatformOrderID:  m.PlatformOrderID,
		OrderedAt:        m.OrderedAt,
		OrdererName:      m.OrdererName,
		OrdererTel:       m.OrdererTel,
		PaymentStatus:    upstream.PaymentStatus(m.PaymentStatus),
		PaymentMethod:    m.PaymentMethod,
		PaymentAmount:    m.PaymentAmount,
		PaidAt:           m.PaidAt,
		ClaimStatus:      upstream.ClaimStatus(m.ClaimStatus),
		ProductID:        m.ProductID,
		ProductName:      m.ProductName,
		ProductRegion:    m.ProductRegion,
		UnitPrice:        m.UnitPrice,
		Quantity:         m.Quantity,
		MemberID:         m.MemberID,
		MemberName:       m.MemberName,
		MemberEmail:      m.MemberEmail,
		MemberPhone:      m.MemberPhone,
		Gender:           m.Gender,
		BirthYear:        m.BirthYear,
		Age:              m.Age,
		Occupation:       m.Occupation,
		PreferredDateRaw: m.PreferredDateRaw,
		PreferredDate:    m.PreferredDate,
		ManageStatus:     reconcile.ManageStatus(m.ManageStatus),
		DeferralRound:    m.DeferralRound,
		NotifiedStatus:   reconcile.ManageStatus(m.NotifiedStatus),
		LastCheckedAt:    m.LastCheckedAt,
		OperatorEntered:  m.OperatorEntered,
		RawData:          m.RawData,
	}
}

// FromDomain populates the persistence model from a domain OrderRecord entity
func (m *OrderRecordModel) FromDomain(r *reconcile.OrderRecord) {
	m.FromDomainBaseEntity(r.BaseEntity)
	m.StoreID = r.StoreID
	m.PlatformOrderID = r.PlatformOrderID
	m.OrderedAt = r.OrderedAt
	m.OrdererName = r.OrdererName
	m.OrdererTel = r.OrdererTel
	m.PaymentStatus = string(r.PaymentStatus)
	m.PaymentMethod = r.PaymentMethod
	m.PaymentAmount = r.PaymentAmount
	m.PaidAt = r.PaidAt
	m.ClaimStatus = string(r.ClaimStatus)
	m.ProductID = r.ProductID
	m.ProductName = r.ProductName
	m.ProductRegion = r.ProductRegion
	m.UnitPrice = r.UnitPrice
	m.Quantity = r.Quantity
	m.MemberID = r.MemberID
	m.MemberName = r.MemberName
	m.MemberEmail = r.MemberEmail
	m.MemberPhone = r.MemberPhone
	m.Gender = r.Gender
	m.BirthYear = r.BirthYear
	m.Age = r.Age
	m.Occupation = r.Occupation
	m.PreferredDateRaw = r.PreferredDateRaw
	m.PreferredDate = r.PreferredDate
	m.ManageStatus = string(r.ManageStatus)
	m.DeferralRound = r.DeferralRound
	m.NotifiedStatus = string(r.NotifiedStatus)
	m.LastCheckedAt = r.LastCheckedAt
	m.OperatorEntered = r.OperatorEntered
	m.RawData = r.RawData
}

// StatusHistoryModel is the persistence model for the StatusHistory audit entry
type StatusHistoryModel struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key"`
	StoreID       uuid.UUID `gorm:"type:uuid;not null;index"`
	RecordID      uuid.UUID `gorm:"type:uuid;not null;index"`
	Previous      string    `gorm:"type:varchar(20);not null;default:''"`
	Next          string    `gorm:"type:varchar(20);not null"`
	DeferralRound *int
	Actor         string    `gorm:"type:varchar(100);not null"`
	CreatedAt     time.Time `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (StatusHistoryModel) TableName() string {
	return "status_histories"
}

// ToDomain converts the persistence model to a domain StatusHistory entry
func (m *StatusHistoryModel) ToDomain() *reconcile.StatusHistory {
	return &reconcile.StatusHistory{
		ID:            m.ID,
		StoreID:       m.StoreID,
		RecordID:      m.RecordID,
		Previous:      reconcile.ManageStatus(m.Previous),
		Next:          reconcile.ManageStatus(m.Next),
		DeferralRound: m.DeferralRound,
		Actor:         m.Actor,
		CreatedAt:     m.CreatedAt,
	}
}

// FromDomain populates the persistence model from a domain StatusHistory entry
func (m *StatusHistoryModel) FromDomain(e *reconcile.StatusHistory) {
	m.ID = e.ID
	m.StoreID = e.StoreID
	m.RecordID = e.RecordID
	m.Previous = string(e.Previous)
	m.Next = string(e.Next)
	m.DeferralRound = e.DeferralRound
	m.Actor = e.Actor
	m.CreatedAt = e.CreatedAt
}

// SyncRunModel is the persistence model for the SyncRun entity. The partial
// unique index on (store_id) for scheduled rows backs the single rolling
// scheduled-run record per store.
type SyncRunModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key"`
	StoreID     uuid.UUID `gorm:"type:uuid;not null;index"`
	Mode        string    `gorm:"type:varchar(16);not null"`
	WindowStart time.Time `gorm:"not null"`
	WindowEnd   time.Time `gorm:"not null"`

	Status string `gorm:"type:varchar(16);not null;index"`
	Error  string `gorm:"type:text"`

	TotalCount   int `gorm:"not null;default:0"`
	SuccessCount int `gorm:"not null;default:0"`
	FailedCount  int `gorm:"not null;default:0"`

	StartedAt   *time.Time
	CompletedAt *time.Time
	HeartbeatAt time.Time `gorm:"not null"`

	CreatedAt time.Time `gorm:"not null;index"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SyncRunModel) TableName() string {
	return "sync_runs"
}

// ToDomain converts the persistence model to a domain SyncRun entity
func (m *SyncRunModel) ToDomain() *reconcile.SyncRun {
	return &reconcile.SyncRun{
		ID:           m.ID,
		StoreID:      m.StoreID,
		Mode:         reconcile.RunMode(m.Mode),
		WindowStart:  m.WindowStart,
		WindowEnd:    m.WindowEnd,
		Status:       reconcile.RunStatus(m.Status),
		Error:        m.Error,
		TotalCount:   m.TotalCount,
		SuccessCount: m.SuccessCount,
		FailedCount:  m.FailedCount,
		StartedAt:    m.StartedAt,
		CompletedAt:  m.CompletedAt,
		HeartbeatAt:  m.HeartbeatAt,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain SyncRun entity
func (m *SyncRunModel) FromDomain(r *reconcile.SyncRun) {
	m.ID = r.ID
	m.StoreID = r.StoreID
	m.Mode = string(r.Mode)
	m.WindowStart = r.WindowStart
	m.WindowEnd = r.WindowEnd
	m.Status = string(r.Status)
	m.Error = r.Error
	m.TotalCount = r.TotalCount
	m.SuccessCount = r.SuccessCount
	m.FailedCount = r.FailedCount
	m.StartedAt = r.StartedAt
	m.CompletedAt = r.CompletedAt
	m.HeartbeatAt = r.HeartbeatAt
	m.CreatedAt = r.CreatedAt
	m.UpdatedAt = r.UpdatedAt
}

// StoreScheduleModel is the persistence model for per-store scheduling state
type StoreScheduleModel struct {
	StoreID         uuid.UUID `gorm:"type:uuid;primary_key"`
	Enabled         bool      `gorm:"not null;default:false;index"`
	IntervalMinutes int       `gorm:"not null;default:10"`

	LastRunAt     *time.Time
	LastSuccessAt *time.Time
	LastError     string    `gorm:"type:text"`
	NextDueAt     time.Time `gorm:"not null;index"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (StoreScheduleModel) TableName() string {
	return "store_schedules"
}

// ToDomain converts the persistence model to a domain StoreSchedule entity
func (m *StoreScheduleModel) ToDomain() *reconcile.StoreSchedule {
	return &reconcile.StoreSchedule{
		StoreID:         m.StoreID,
		Enabled:         m.Enabled,
		IntervalMinutes: m.IntervalMinutes,
		LastRunAt:       m.LastRunAt,
		LastSuccessAt:   m.LastSuccessAt,
		LastError:       m.LastError,
		NextDueAt:       m.NextDueAt,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain StoreSchedule entity
func (m *StoreScheduleModel) FromDomain(s *reconcile.StoreSchedule) {
	m.StoreID = s.StoreID
	m.Enabled = s.Enabled
	m.IntervalMinutes = s.IntervalMinutes
	m.LastRunAt = s.LastRunAt
	m.LastSuccessAt = s.LastSuccessAt
	m.LastError = s.LastError
	m.NextDueAt = s.NextDueAt
	m.CreatedAt = s.CreatedAt
	m.UpdatedAt = s.UpdatedAt
}
