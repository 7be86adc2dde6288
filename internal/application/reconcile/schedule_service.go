package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/classsync/backend/internal/domain/reconcile"
)

// AutomationCredentialChecker verifies that an automation credential is
// obtainable for a store, directly or through the adoption fallback chain.
type AutomationCredentialChecker interface {
	EnsureAutomation(ctx context.Context, storeID uuid.UUID) error
}

// ScheduleService manages per-store scheduling state
type ScheduleService struct {
	schedules   reconcile.StoreScheduleRepository
	credentials AutomationCredentialChecker
	logger      *zap.Logger
}

// NewScheduleService creates a schedule service
func NewScheduleService(
	schedules reconcile.StoreScheduleRepository,
	credentials AutomationCredentialChecker,
	logger *zap.Logger,
) *ScheduleService {
	return &ScheduleService{
		schedules:   schedules,
		credentials: credentials,
		logger:      logger,
	}
}

// Toggle enables or disables scheduling for a store. Enabling is gated on
// an obtainable automation credential; without one it fails fast rather
// than silently never running.
func (s *ScheduleService) Toggle(ctx context.Context, storeID uuid.UUID, enabled bool, intervalMinutes int) (*reconcile.StoreSchedule, error) {
	if enabled {
		if err := s.credentials.EnsureAutomation(ctx, storeID); err != nil {
			return nil, fmt.Errorf("%w: %v", reconcile.ErrNoAutomationCredential, err)
		}
	}

	schedule, err := s.schedules.Find(ctx, storeID)
	if errors.Is(err, reconcile.ErrScheduleNotFound) {
		if !enabled {
			// Disabling a store that was never enabled is a no-op
			return nil, reconcile.ErrScheduleNotFound
		}
		schedule, err = reconcile.NewStoreSchedule(storeID, intervalMinutes)
		if err != nil {
			return nil, err
		}
		if err := s.schedules.Save(ctx, schedule); err != nil {
			return nil, err
		}
		s.logger.Info("Store scheduling enabled",
			zap.String("store_id", storeID.String()),
			zap.Int("interval_minutes", schedule.IntervalMinutes),
		)
		return schedule, nil
	}
	if err != nil {
		return nil, err
	}

	schedule.Enabled = enabled
	if intervalMinutes > 0 {
		if err := schedule.SetInterval(intervalMinutes); err != nil {
			return nil, err
		}
	}
	if enabled {
		schedule.NextDueAt = time.Now()
	}
	schedule.UpdatedAt = time.Now()
	if err := s.schedules.Save(ctx, schedule); err != nil {
		return nil, err
	}

	s.logger.Info("Store scheduling updated",
		zap.String("store_id", storeID.String()),
		zap.Bool("enabled", enabled),
		zap.Int("interval_minutes", schedule.IntervalMinutes),
	)
	return schedule, nil
}

// Status returns the schedule for a store
func (s *ScheduleService) Status(ctx context.Context, storeID uuid.UUID) (*reconcile.StoreSchedule, error) {
	return s.schedules.Find(ctx, storeID)
}

// DueStores returns the enabled schedules that are due at the given time
func (s *ScheduleService) DueStores(ctx context.Context, now time.Time) ([]reconcile.StoreSchedule, error) {
	enabled, err := s.schedules.FindEnabled(ctx)
	if err != nil {
		return nil, err
	}
	due := make([]reconcile.StoreSchedule, 0, len(enabled))
	for _, schedule := range enabled {
		if schedule.Due(now) {
			due = append(due, schedule)
		}
	}
	return due, nil
}

// RecordTick stores a tick outcome for a store and advances next-due
func (s *ScheduleService) RecordTick(ctx context.Context, storeID uuid.UUID, now time.Time, runErr error) error {
	schedule, err := s.schedules.Find(ctx, storeID)
	if err != nil {
		return err
	}
	schedule.MarkRun(now, runErr)
	schedule.UpdatedAt = now
	return s.schedules.Save(ctx, schedule)
}
