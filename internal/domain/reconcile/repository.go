package reconcile

import (
	"context"

	"github.com/google/uuid"
)

// OrderRecordFilter defines listing criteria for order records
type OrderRecordFilter struct {
	// Status filters by manage status (optional)
	Status *ManageStatus
	// Page number (1-indexed)
	Page int
	// Page size
	PageSize int
}

// OrderRecordRepository persists order records keyed by (store, order id)
type OrderRecordRepository interface {
	// Upsert inserts or updates by the natural key. The same key must
	// never produce a duplicate row.
	Upsert(ctx context.Context, record *OrderRecord) error

	// Save updates an existing record by ID
	Save(ctx context.Context, record *OrderRecord) error

	// FindByID finds a record by its local ID
	FindByID(ctx context.Context, id uuid.UUID) (*OrderRecord, error)

	// FindByNaturalKey finds the record for (store, platform order id)
	FindByNaturalKey(ctx context.Context, storeID uuid.UUID, platformOrderID string) (*OrderRecord, error)

	// List lists records for a store with paging
	List(ctx context.Context, storeID uuid.UUID, filter OrderRecordFilter) ([]OrderRecord, int64, error)

	// DeleteByStore removes all records for a store (data reset)
	DeleteByStore(ctx context.Context, storeID uuid.UUID) error

	// DeleteOperatorEntered removes one operator-entered record
	DeleteOperatorEntered(ctx context.Context, id uuid.UUID) error
}

// StatusHistoryRepository persists the append-only status audit trail
type StatusHistoryRepository interface {
	// Append inserts one entry
	Append(ctx context.Context, entry *StatusHistory) error

	// ListByRecord returns entries for a record, newest first
	ListByRecord(ctx context.Context, recordID uuid.UUID) ([]StatusHistory, error)

	// DeleteByStore removes all entries for a store (data reset)
	DeleteByStore(ctx context.Context, storeID uuid.UUID) error
}

// SyncRunRepository persists run records. Scheduled runs are stored as a
// single rolling row per store; manual runs accumulate history.
type SyncRunRepository interface {
	// Create inserts a new run row (manual mode)
	Create(ctx context.Context, run *SyncRun) error

	// Save updates a run row by ID
	Save(ctx context.Context, run *SyncRun) error

	// UpsertScheduled overwrites the store's rolling scheduled-run row
	UpsertScheduled(ctx context.Context, run *SyncRun) error

	// FindRunning returns the running run for a store, or ErrRunNotFound
	FindRunning(ctx context.Context, storeID uuid.UUID) (*SyncRun, error)

	// FindByID finds a run by ID
	FindByID(ctx context.Context, id uuid.UUID) (*SyncRun, error)

	// ListByStore returns runs for a store, newest first
	ListByStore(ctx context.Context, storeID uuid.UUID, limit int) ([]SyncRun, error)

	// DeleteByStore removes all runs for a store (data reset)
	DeleteByStore(ctx context.Context, storeID uuid.UUID) error
}

// StoreScheduleRepository persists per-store scheduling state
type StoreScheduleRepository interface {
	// Find returns the schedule for a store, or ErrScheduleNotFound
	Find(ctx context.Context, storeID uuid.UUID) (*StoreSchedule, error)

	// Save creates or updates a schedule
	Save(ctx context.Context, schedule *StoreSchedule) error

	// FindEnabled returns all schedules with scheduling enabled
	FindEnabled(ctx context.Context) ([]StoreSchedule, error)
}

// Notifier is the outbound notification port. The reconciliation core only
// decides eligibility; content and delivery live with the collaborator.
type Notifier interface {
	// StatusChanged is invoked when a record enters a notification-worthy
	// status. A nil return marks the record as notified for that status.
	StatusChanged(ctx context.Context, record *OrderRecord, previous ManageStatus) error
}
