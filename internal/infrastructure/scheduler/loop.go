package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/classsync/backend/internal/domain/reconcile"
	"github.com/classsync/backend/internal/infrastructure/config"
)

// SyncRunner starts a scheduled incremental sync for a store
type SyncRunner interface {
	RunScheduled(ctx context.Context, storeID uuid.UUID) error
}

// SchedulePlanner supplies due stores and records tick outcomes
type SchedulePlanner interface {
	DueStores(ctx context.Context, now time.Time) ([]reconcile.StoreSchedule, error)
	RecordTick(ctx context.Context, storeID uuid.UUID, now time.Time, runErr error) error
}

// Loop periodically scans for stores whose schedule is due and runs an
// incremental sync for each. One failing store never blocks the others,
// and a store whose sync is already running is skipped, not failed.
type Loop struct {
	runner  SyncRunner
	planner SchedulePlanner
	feed    *ActivityFeed
	cron    *cron.Cron
	tick    time.Duration
	logger  *zap.Logger
}

// NewLoop creates a scheduler loop
func NewLoop(
	runner SyncRunner,
	planner SchedulePlanner,
	cfg config.SchedulerConfig,
	logger *zap.Logger,
) *Loop {
	tick := cfg.TickInterval
	if tick < time.Second {
		tick = time.Minute
	}
	return &Loop{
		runner:  runner,
		planner: planner,
		feed:    NewActivityFeed(cfg.ActivityFeedSize),
		cron:    cron.New(),
		tick:    tick,
		logger:  logger,
	}
}

// Feed exposes the activity ring for the HTTP layer
func (l *Loop) Feed() *ActivityFeed {
	return l.feed
}

// Start begins the periodic due-store scan
func (l *Loop) Start(ctx context.Context) {
	l.cron.Schedule(cron.Every(l.tick), cron.FuncJob(func() {
		l.Tick(ctx, time.Now())
	}))
	l.cron.Start()
	l.logger.Info("Scheduler loop started", zap.Duration("tick_interval", l.tick))
}

// Stop halts the scan and waits for any in-flight tick to finish
func (l *Loop) Stop() {
	<-l.cron.Stop().Done()
	l.logger.Info("Scheduler loop stopped")
}

// Tick runs one due-store scan. Exposed for tests and manual triggering.
func (l *Loop) Tick(ctx context.Context, now time.Time) {
	due, err := l.planner.DueStores(ctx, now)
	if err != nil {
		l.logger.Error("Due store scan failed", zap.Error(err))
		l.feed.Record(Event{Kind: EventKindTick, Message: "due store scan failed: " + err.Error()})
		return
	}
	if len(due) == 0 {
		return
	}

	l.feed.Record(Event{Kind: EventKindTick, Message: fmt.Sprintf("%d store(s) due", len(due))})

	for i := range due {
		l.runStore(ctx, due[i].StoreID, now)
	}
}

// runStore syncs one store, isolating its failure from the rest of the tick
func (l *Loop) runStore(ctx context.Context, storeID uuid.UUID, now time.Time) {
	l.feed.Record(Event{StoreID: storeID, Kind: EventKindRunStarted, Message: "scheduled sync started"})

	runErr := l.runner.RunScheduled(ctx, storeID)

	switch {
	case runErr == nil:
		l.feed.Record(Event{StoreID: storeID, Kind: EventKindRunFinished, Message: "scheduled sync finished"})

	case errors.Is(runErr, reconcile.ErrSyncAlreadyRunning):
		// A manual sync holds the slot; the schedule catches up next tick
		l.logger.Info("Scheduled sync skipped, already running",
			zap.String("store_id", storeID.String()),
		)
		l.feed.Record(Event{StoreID: storeID, Kind: EventKindRunSkipped, Message: "sync already running"})
		return

	default:
		l.logger.Error("Scheduled sync failed",
			zap.String("store_id", storeID.String()),
			zap.Error(runErr),
		)
		l.feed.Record(Event{StoreID: storeID, Kind: EventKindRunFailed, Message: runErr.Error()})
	}

	if err := l.planner.RecordTick(ctx, storeID, now, runErr); err != nil {
		l.logger.Error("Failed to record schedule tick",
			zap.String("store_id", storeID.String()),
			zap.Error(err),
		)
	}
}
