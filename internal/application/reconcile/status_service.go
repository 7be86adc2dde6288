package reconcile

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/classsync/backend/internal/domain/reconcile"
)

// StatusService handles operator-initiated status changes and the
// notification bookkeeping around them.
type StatusService struct {
	records   reconcile.OrderRecordRepository
	histories reconcile.StatusHistoryRepository
	workflow  *reconcile.Workflow
	notifier  reconcile.Notifier
	logger    *zap.Logger
}

// NewStatusService creates a status service. notifier may be nil.
func NewStatusService(
	records reconcile.OrderRecordRepository,
	histories reconcile.StatusHistoryRepository,
	workflow *reconcile.Workflow,
	notifier reconcile.Notifier,
	logger *zap.Logger,
) *StatusService {
	return &StatusService{
		records:   records,
		histories: histories,
		workflow:  workflow,
		notifier:  notifier,
		logger:    logger,
	}
}

// ChangeStatus applies an operator-requested transition. Invalid
// transitions are rejected synchronously with no partial effect.
func (s *StatusService) ChangeStatus(ctx context.Context, recordID uuid.UUID, requested reconcile.ManageStatus, round *int, actor string) (*reconcile.OrderRecord, error) {
	record, err := s.records.FindByID(ctx, recordID)
	if err != nil {
		return nil, err
	}

	if err := s.workflow.ValidateManual(record.ManageStatus, requested); err != nil {
		return nil, err
	}
	// Entering DEFERRED without a round would leave the record unschedulable
	if requested.UsesDeferralRound() && round == nil && record.DeferralRound == nil {
		return nil, reconcile.ErrDeferralRoundNotSet
	}

	previous := record.ManageStatus
	record.SetStatus(requested, round)
	if err := s.records.Save(ctx, record); err != nil {
		return nil, err
	}

	entry := reconcile.NewStatusHistory(record.StoreID, record.ID, previous, requested, record.DeferralRound, actor)
	if err := s.histories.Append(ctx, entry); err != nil {
		return nil, err
	}

	s.maybeNotify(ctx, record, previous)
	return record, nil
}

// History returns the audit trail for a record, newest first
func (s *StatusService) History(ctx context.Context, recordID uuid.UUID) ([]reconcile.StatusHistory, error) {
	if _, err := s.records.FindByID(ctx, recordID); err != nil {
		return nil, err
	}
	return s.histories.ListByRecord(ctx, recordID)
}

// NotifySent is the post-send callback for the notification collaborator:
// it marks the record as notified for its current status.
func (s *StatusService) NotifySent(ctx context.Context, recordID uuid.UUID) error {
	record, err := s.records.FindByID(ctx, recordID)
	if err != nil {
		return err
	}
	record.MarkNotified()
	return s.records.Save(ctx, record)
}

func (s *StatusService) maybeNotify(ctx context.Context, record *reconcile.OrderRecord, previous reconcile.ManageStatus) {
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
