package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/classsync/backend/internal/domain/reconcile"
	"github.com/classsync/backend/internal/domain/upstream"
)

// ---------------------------------------------------------------------------
// Sync Service
// ---------------------------------------------------------------------------

// SyncConfig holds the run-level tunables
type SyncConfig struct {
	// PageSize for upstream order listing
	PageSize int
	// PageInterval is the minimum delay between page fetches
	PageInterval time.Duration
	// StaleThreshold after which a running record with no heartbeat is
	// presumed crashed and reclaimed
	StaleThreshold time.Duration
}

// DefaultSyncConfig returns the reference tunables
func DefaultSyncConfig() SyncConfig {
	return SyncConfig{
		PageSize:       50,
		PageInterval:   500 * time.Millisecond,
		StaleThreshold: 5 * time.Minute,
	}
}

// SyncService drives sync runs: single-flight exclusion, paging, merging,
// progress bookkeeping and outcome recording.
type SyncService struct {
	client      upstream.Client
	planner     *WindowPlanner
	merger      *Merger
	runs        reconcile.SyncRunRepository
	records     reconcile.OrderRecordRepository
	histories   reconcile.StatusHistoryRepository
	workflow    *reconcile.Workflow
	notifier    reconcile.Notifier
	invalidator DetailInvalidator
	logger      *zap.Logger
	config      SyncConfig
	limiter     *rate.Limiter
}

// DetailInvalidator drops cached upstream detail for a store. The Redis
// detail cache implements it; nil when no cache is wired.
type DetailInvalidator interface {
	InvalidateStore(ctx context.Context, storeID uuid.UUID)
}

// NewSyncService creates a sync service. notifier and invalidator may be
// nil when those collaborators are not wired.
func NewSyncService(
	client upstream.Client,
	planner *WindowPlanner,
	merger *Merger,
	runs reconcile.SyncRunRepository,
	records reconcile.OrderRecordRepository,
	histories reconcile.StatusHistoryRepository,
	workflow *reconcile.Workflow,
	notifier reconcile.Notifier,
	invalidator DetailInvalidator,
	logger *zap.Logger,
	config SyncConfig,
) *SyncService {
	if config.PageSize <= 0 {
		config.PageSize = 50
	}
	if config.PageInterval <= 0 {
		config.PageInterval = 500 * time.Millisecond
	}
	if config.StaleThreshold <= 0 {
		config.StaleThreshold = 5 * time.Minute
	}
	return &SyncService{
		client:      client,
		planner:     planner,
		merger:      merger,
		runs:        runs,
		records:     records,
		histories:   histories,
		workflow:    workflow,
		notifier:    notifier,
		invalidator: invalidator,
		logger:      logger,
		config:      config,
		limiter:     rate.NewLimiter(rate.Every(config.PageInterval), 1),
	}
}

// StartManual starts a manual full-range run for a store. The run executes
// on a background goroutine; the returned handle carries the run ID the
// progress endpoint polls. Rejected while another run is active.
func (s *SyncService) StartManual(ctx context.Context, storeID uuid.UUID, rangeDays int) (*reconcile.SyncRun, error) {
	if err := s.ensureNotRunning(ctx, storeID); err != nil {
		return nil, err
	}

	window := s.planner.PlanFull(time.Now(), rangeDays)
	run := reconcile.NewSyncRun(storeID, reconcile.ModeManual, window.Start, window.End)
	run.Start()
	if err := s.runs.Create(ctx, run); err != nil {
		return nil, err
	}

	go func() {
		// The HTTP request context ends when the response is written;
		// the run keeps its own lifetime.
		bgCtx := context.Background()
		s.execute(bgCtx, run, window)
	}()

	return run, nil
}

// RunScheduled executes an incremental run for a store synchronously.
// Returns ErrSyncAlreadyRunning when single-flight exclusion skips it.
func (s *SyncService) RunScheduled(ctx context.Context, storeID uuid.UUID) error {
	if err := s.ensureNotRunning(ctx, storeID); err != nil {
		return err
	}

	window := s.planner.PlanIncremental(time.Now())
	run := reconcile.NewSyncRun(storeID, reconcile.ModeScheduled, window.Start, window.End)
	run.Start()
	if err := s.runs.UpsertScheduled(ctx, run); err != nil {
		return err
	}

	s.execute(ctx, run, window)
	if run.Status == reconcile.RunStatusFailed {
		return fmt.Errorf("scheduled sync failed: %s", run.Error)
	}
	return nil
}

// ensureNotRunning enforces single-flight per store, reclaiming stale runs.
// Best-effort: races at the boundary resolve by last-writer-wins plus the
// stale reclamation below.
func (s *SyncService) ensureNotRunning(ctx context.Context, storeID uuid.UUID) error {
	running, err := s.runs.FindRunning(ctx, storeID)
	if errors.Is(err, reconcile.ErrRunNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if running.Stale(time.Now(), s.config.StaleThreshold) {
		s.logger.Warn("Reclaiming stale sync run",
			zap.String("store_id", storeID.String()),
			zap.String("run_id", running.ID.String()),
			zap.Time("heartbeat_at", running.HeartbeatAt),
		)
		if err := running.Fail("reclaimed: no progress within stale threshold"); err != nil {
			return err
		}
		return s.saveRun(ctx, running)
	}
	return reconcile.ErrSyncAlreadyRunning
}

// execute pages through the window and merges every order. Pages are
// processed strictly in increasing order; no parallel fetch.
func (s *SyncService) execute(ctx context.Context, run *reconcile.SyncRun, window Window) {
	s.logger.Info("Sync run started",
		zap.String("run_id", run.ID.String()),
		zap.String("store_id", run.StoreID.String()),
		zap.String("mode", string(run.Mode)),
		zap.Time("window_start", window.StartDisplay),
		zap.Time("window_end", window.EndDisplay),
	)

	total, succeeded, failed := 0, 0, 0
	seen := make(map[string]bool)
	pageNo := 1

	for {
		// Cancellation is honored at page boundaries only
		if err := s.limiter.Wait(ctx); err != nil {
			s.failRun(ctx, run, fmt.Sprintf("cancelled: %v", err))
			return
		}

		resp, err := s.client.ListOrders(ctx, &upstream.OrderListRequest{
			StoreID:   run.StoreID,
			StartTime: window.StartAPI,
			EndTime:   window.EndAPI,
			PageNo:    pageNo,
			PageSize:  s.config.PageSize,
		})
		if err != nil {
			// Failing to reach the list endpoint at all fails the run
			s.failRun(ctx, run, fmt.Sprintf("order listing failed on page %d: %v", pageNo, err))
			return
		}

		orders := window.FilterOrders(resp.Orders, seen)
		total += len(orders)

		for i := range orders {
			if err := s.processOrder(ctx, run.StoreID, &orders[i]); err != nil {
				failed++
				s.logger.Error("Order merge failed",
					zap.String("run_id", run.ID.String()),
					zap.String("store_id", run.StoreID.String()),
					zap.String("platform_order_id", orders[i].OrderID),
					zap.Error(err),
				)
				continue
			}
			succeeded++
		}

		// Incremental progress so observers see live counts
		run.Progress(total, succeeded, failed)
		if err := s.saveRun(ctx, run); err != nil {
			s.failRun(ctx, run, fmt.Sprintf("run bookkeeping failed: %v", err))
			return
		}

		if !resp.HasMore || len(resp.Orders) == 0 {
			break
		}
		pageNo = resp.NextPageNo
	}

	if err := run.Complete(); err == nil {
		if err := s.saveRun(ctx, run); err != nil {
			s.logger.Error("Failed to record run completion",
				zap.String("run_id", run.ID.String()),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("Sync run completed",
		zap.String("run_id", run.ID.String()),
		zap.String("store_id", run.StoreID.String()),
		zap.Int("total", total),
		zap.Int("succeeded", succeeded),
		zap.Int("failed", failed),
	)
}

// processOrder merges one order, persists it, and applies the automatic
// status transition when the observed payment state changed.
func (s *SyncService) processOrder(ctx context.Context, storeID uuid.UUID, order *upstream.Order) error {
	outcome, err := s.merger.Merge(ctx, storeID, order, time.Now())
	if err != nil {
		return err
	}
	record := outcome.Record

	if outcome.IsNew {
		if err := s.records.Upsert(ctx, record); err != nil {
			return err
		}
		entry := reconcile.NewStatusHistory(storeID, record.ID, "", record.ManageStatus, nil, reconcile.ActorSystem)
		if err := s.histories.Append(ctx, entry); err != nil {
			return err
		}
		s.maybeNotify(ctx, record, "")
		return nil
	}

	// Auto-transition shares the workflow rule table but is driven by the
	// payment-state change observed across syncs, not by the merge itself
	var previous reconcile.ManageStatus
	transitioned := false
	if record.PaymentStatus != outcome.PrevPaymentStatus {
		if next, ok := s.workflow.AutoTransition(record.ManageStatus, record.PaymentStatus); ok {
			previous = record.ManageStatus
			record.SetStatus(next, nil)
			transitioned = true
		}
	}

	if err := s.records.Upsert(ctx, record); err != nil {
		return err
	}
	if transitioned {
		entry := reconcile.NewStatusHistory(storeID, record.ID, previous, record.ManageStatus, nil, reconcile.ActorSystem)
		if err := s.histories.Append(ctx, entry); err != nil {
			return err
		}
		s.maybeNotify(ctx, record, previous)
	}
	return nil
}

// maybeNotify invokes the notification collaborator when the record is
// eligible, and marks the record notified on success
func (s *SyncService) maybeNotify(ctx context.Context, record *reconcile.OrderRecord, previous reconcile.ManageStatus) {
	if s.notifier == nil {
		return
	}
	if !s.workflow.NotifyEligible(record.ManageStatus, record.NotifiedStatus) {
		return
	}
	if err := s.notifier.StatusChanged(ctx, record, previous); err != nil {
		s.logger.Warn("Status-change notification failed",
			zap.String("record_id", record.ID.String()),
			zap.String("status", record.ManageStatus.String()),
			zap.Error(err),
		)
		return
	}
	record.MarkNotified()
	if err := s.records.Save(ctx, record); err != nil {
		s.logger.Warn("Failed to persist notified flag",
			zap.String("record_id", record.ID.String()),
			zap.Error(err),
		)
	}
}

func (s *SyncService) failRun(ctx context.Context, run *reconcile.SyncRun, reason string) {
	if err := run.Fail(reason); err != nil {
		return
	}
	if err := s.saveRun(ctx, run); err != nil {
		s.logger.Error("Failed to record run failure",
			zap.String("run_id", run.ID.String()),
			zap.Error(err),
		)
	}
	s.logger.Error("Sync run failed",
		zap.String("run_id", run.ID.String()),
		zap.String("store_id", run.StoreID.String()),
		zap.String("reason", reason),
	)
}

func (s *SyncService) saveRun(ctx context.Context, run *reconcile.SyncRun) error {
	if run.Mode == reconcile.ModeScheduled {
		return s.runs.UpsertScheduled(ctx, run)
	}
	return s.runs.Save(ctx, run)
}

// ---------------------------------------------------------------------------
// Observation & Reset
// ---------------------------------------------------------------------------

// Progress returns the store's current running run, or its most recent run
// when none is active
func (s *SyncService) Progress(ctx context.Context, storeID uuid.UUID) (*reconcile.SyncRun, error) {
	running, err := s.runs.FindRunning(ctx, storeID)
	if err == nil {
		return running, nil
	}
	if !errors.Is(err, reconcile.ErrRunNotFound) {
		return nil, err
	}
	runs, err := s.runs.ListByStore(ctx, storeID, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, reconcile.ErrRunNotFound
	}
	return &runs[0], nil
}

// ListRuns returns the store's run history, newest first
func (s *SyncService) ListRuns(ctx context.Context, storeID uuid.UUID, limit int) ([]reconcile.SyncRun, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.runs.ListByStore(ctx, storeID, limit)
}

// Reset deletes all sync data for a store. Blocked while a run is active.
func (s *SyncService) Reset(ctx context.Context, storeID uuid.UUID) error {
	running, err := s.runs.FindRunning(ctx, storeID)
	if err == nil {
		if !running.Stale(time.Now(), s.config.StaleThreshold) {
			return reconcile.ErrResetWhileRunning
		}
		if err := running.Fail("reclaimed: no progress within stale threshold"); err != nil {
			return err
		}
		if err := s.saveRun(ctx, running); err != nil {
			return err
		}
	} else if !errors.Is(err, reconcile.ErrRunNotFound) {
		return err
	}

	if err := s.histories.DeleteByStore(ctx, storeID); err != nil {
		return err
	}
	if err := s.records.DeleteByStore(ctx, storeID); err != nil {
		return err
	}
	if err := s.runs.DeleteByStore(ctx, storeID); err != nil {
		return err
	}

	// Cached product/member detail would otherwise outlive the reset and
	// leak into the next sync's merges
	if s.invalidator != nil {
		s.invalidator.InvalidateStore(ctx, storeID)
	}
	return nil
}
