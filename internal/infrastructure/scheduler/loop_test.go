package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/classsync/backend/internal/domain/reconcile"
	"github.com/classsync/backend/internal/infrastructure/config"
)

// fakeRunner records which stores were synced and fails configured ones
type fakeRunner struct {
	ran  []uuid.UUID
	fail map[uuid.UUID]error
}

func (r *fakeRunner) RunScheduled(_ context.Context, storeID uuid.UUID) error {
	r.ran = append(r.ran, storeID)
	return r.fail[storeID]
}

// fakePlanner serves a fixed due list and records ticks
type fakePlanner struct {
	due      []reconcile.StoreSchedule
	dueErr   error
	ticks    map[uuid.UUID]error
	tickErrs int
}

func (p *fakePlanner) DueStores(_ context.Context, _ time.Time) ([]reconcile.StoreSchedule, error) {
	return p.due, p.dueErr
}

func (p *fakePlanner) RecordTick(_ context.Context, storeID uuid.UUID, _ time.Time, runErr error) error {
	if p.ticks == nil {
		p.ticks = make(map[uuid.UUID]error)
	}
	p.ticks[storeID] = runErr
	return nil
}

func newTestLoop(runner *fakeRunner, planner *fakePlanner) *Loop {
	return NewLoop(runner, planner, config.SchedulerConfig{
		TickInterval:     time.Minute,
		ActivityFeedSize: 50,
	}, zap.NewNop())
}

func dueStore(storeID uuid.UUID) reconcile.StoreSchedule {
	return reconcile.StoreSchedule{StoreID: storeID, Enabled: true, IntervalMinutes: 10}
}

func TestLoop_Tick(t *testing.T) {
	ctx := context.Background()

	t.Run("runs every due store", func(t *testing.T) {
		storeA, storeB := uuid.New(), uuid.New()
		runner := &fakeRunner{}
		planner := &fakePlanner{due: []reconcile.StoreSchedule{dueStore(storeA), dueStore(storeB)}}

		loop := newTestLoop(runner, planner)
		loop.Tick(ctx, time.Now())

		assert.ElementsMatch(t, []uuid.UUID{storeA, storeB}, runner.ran)
		assert.NoError(t, planner.ticks[storeA])
		assert.NoError(t, planner.ticks[storeB])
	})

	t.Run("one failing store does not block the rest", func(t *testing.T) {
		storeA, storeB := uuid.New(), uuid.New()
		bad := errors.New("upstream down")
		runner := &fakeRunner{fail: map[uuid.UUID]error{storeA: bad}}
		planner := &fakePlanner{due: []reconcile.StoreSchedule{dueStore(storeA), dueStore(storeB)}}

		loop := newTestLoop(runner, planner)
		loop.Tick(ctx, time.Now())

		assert.Len(t, runner.ran, 2)
		assert.ErrorIs(t, planner.ticks[storeA], bad)
		assert.NoError(t, planner.ticks[storeB])

		var failed bool
		for _, e := range loop.Feed().Recent() {
			if e.Kind == EventKindRunFailed && e.StoreID == storeA {
				failed = true
			}
		}
		assert.True(t, failed)
	})

	t.Run("already running store is skipped without a tick", func(t *testing.T) {
		storeID := uuid.New()
		runner := &fakeRunner{fail: map[uuid.UUID]error{storeID: reconcile.ErrSyncAlreadyRunning}}
		planner := &fakePlanner{due: []reconcile.StoreSchedule{dueStore(storeID)}}

		loop := newTestLoop(runner, planner)
		loop.Tick(ctx, time.Now())

		// Skipping must not rewrite the schedule, or the due slot would
		// silently advance past the blocked run
		_, ticked := planner.ticks[storeID]
		assert.False(t, ticked)

		events := loop.Feed().Recent()
		require.NotEmpty(t, events)
		assert.Equal(t, EventKindRunSkipped, events[0].Kind)
	})

	t.Run("empty due list records nothing", func(t *testing.T) {
		runner := &fakeRunner{}
		loop := newTestLoop(runner, &fakePlanner{})
		loop.Tick(ctx, time.Now())

		assert.Empty(t, runner.ran)
		assert.Zero(t, loop.Feed().Len())
	})

	t.Run("scan failure is surfaced in the feed", func(t *testing.T) {
		loop := newTestLoop(&fakeRunner{}, &fakePlanner{dueErr: errors.New("db gone")})
		loop.Tick(ctx, time.Now())

		events := loop.Feed().Recent()
		require.Len(t, events, 1)
		assert.Equal(t, EventKindTick, events[0].Kind)
		assert.Contains(t, events[0].Message, "db gone")
	})
}
