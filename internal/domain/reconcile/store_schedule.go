package reconcile

import (
	"time"

	"github.com/google/uuid"
)

// Schedule interval bounds in minutes
const (
	MinIntervalMinutes     = 1
	MaxIntervalMinutes     = 60
	DefaultIntervalMinutes = 10
)

// StoreSchedule is the per-store scheduling state read and updated once
// per scheduler tick.
type StoreSchedule struct {
	StoreID         uuid.UUID
	Enabled         bool
	IntervalMinutes int

	LastRunAt     *time.Time
	LastSuccessAt *time.Time
	LastError     string
	NextDueAt     time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewStoreSchedule creates a schedule on first enable
func NewStoreSchedule(storeID uuid.UUID, intervalMinutes int) (*StoreSchedule, error) {
	if intervalMinutes == 0 {
		intervalMinutes = DefaultIntervalMinutes
	}
	if intervalMinutes < MinIntervalMinutes || intervalMinutes > MaxIntervalMinutes {
		return nil, ErrInvalidInterval
	}
	now := time.Now()
	return &StoreSchedule{
		StoreID:         storeID,
		Enabled:         true,
		IntervalMinutes: intervalMinutes,
		NextDueAt:       now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// Interval returns the configured run interval
func (s *StoreSchedule) Interval() time.Duration {
	return time.Duration(s.IntervalMinutes) * time.Minute
}

// SetInterval updates the interval within the allowed range
func (s *StoreSchedule) SetInterval(minutes int) error {
	if minutes < MinIntervalMinutes || minutes > MaxIntervalMinutes {
		return ErrInvalidInterval
	}
	s.IntervalMinutes = minutes
	return nil
}

// Due reports whether a scheduled run should start at the given time
func (s *StoreSchedule) Due(now time.Time) bool {
	return s.Enabled && !now.Before(s.NextDueAt)
}

// MarkRun records a tick outcome and advances the next-due timestamp
func (s *StoreSchedule) MarkRun(now time.Time, runErr error) {
	s.LastRunAt = &now
	s.NextDueAt = now.Add(s.Interval())
	if runErr != nil {
		s.LastError = runErr.Error()
		return
	}
	s.LastError = ""
	s.LastSuccessAt = &now
}
