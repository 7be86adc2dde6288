package reconcile

import (
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Sync Run
// ---------------------------------------------------------------------------

// RunMode distinguishes operator-started from scheduler-started runs
type RunMode string

const (
	ModeManual    RunMode = "MANUAL"
	ModeScheduled RunMode = "SCHEDULED"
)

// RunStatus is the lifecycle state of a sync run
type RunStatus string

const (
	RunStatusCreated   RunStatus = "CREATED"
	RunStatusRunning   RunStatus = "RUNNING"
	RunStatusCompleted RunStatus = "COMPLETED"
	RunStatusFailed    RunStatus = "FAILED"
)

// Terminal returns true for final run states
func (s RunStatus) Terminal() bool {
	return s == RunStatusCompleted || s == RunStatusFailed
}

// SyncRun is one execution of the reconciliation loop for a store.
// Scheduled runs collapse into a single rolling record per store;
// manual runs each keep their own history row.
type SyncRun struct {
	ID          uuid.UUID
	StoreID     uuid.UUID
	Mode        RunMode
	WindowStart time.Time
	WindowEnd   time.Time

	Status RunStatus
	Error  string

	TotalCount   int
	SuccessCount int
	FailedCount  int

	StartedAt   *time.Time
	CompletedAt *time.Time
	// HeartbeatAt advances with every progress update; stale-run recovery
	// keys off of it.
	HeartbeatAt time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewSyncRun creates a run covering [windowStart, windowEnd)
func NewSyncRun(storeID uuid.UUID, mode RunMode, windowStart, windowEnd time.Time) *SyncRun {
	now := time.Now()
	return &SyncRun{
		ID:          uuid.New(),
		StoreID:     storeID,
		Mode:        mode,
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
		Status:      RunStatusCreated,
		HeartbeatAt: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Start marks the run as running
func (r *SyncRun) Start() {
	now := time.Now()
	r.Status = RunStatusRunning
	r.StartedAt = &now
	r.HeartbeatAt = now
	r.Error = ""
}

// Progress records incremental counts and advances the heartbeat
func (r *SyncRun) Progress(total, succeeded, failed int) {
	r.TotalCount = total
	r.SuccessCount = succeeded
	r.FailedCount = failed
	r.HeartbeatAt = time.Now()
}

// Complete marks the run as completed with final counts
func (r *SyncRun) Complete() error {
	if r.Status.Terminal() {
		return ErrRunAlreadyFinished
	}
	now := time.Now()
	r.Status = RunStatusCompleted
	r.CompletedAt = &now
	return nil
}

// Fail marks the run as failed
func (r *SyncRun) Fail(reason string) error {
	if r.Status.Terminal() {
		return ErrRunAlreadyFinished
	}
	now := time.Now()
	r.Status = RunStatusFailed
	r.CompletedAt = &now
	r.Error = reason
	return nil
}

// Stale reports whether a running record with no recent heartbeat is
// presumed crashed. This is a liveness heuristic, not a correctness
// guarantee: two processes racing on the boundary can both reclaim.
func (r *SyncRun) Stale(now time.Time, threshold time.Duration) bool {
	return r.Status == RunStatusRunning && now.Sub(r.HeartbeatAt) > threshold
}

// ProgressPercent estimates completion for UI consumption
func (r *SyncRun) ProgressPercent() int {
	if r.Status == RunStatusCompleted {
		return 100
	}
	if r.TotalCount == 0 {
		return 0
	}
	done := r.SuccessCount + r.FailedCount
	pct := done * 100 / r.TotalCount
	if pct > 100 {
		pct = 100
	}
	return pct
}
