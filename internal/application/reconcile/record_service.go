package reconcile

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/classsync/backend/internal/domain/reconcile"
)

// RecordService serves order record queries for the HTTP layer
type RecordService struct {
	records reconcile.OrderRecordRepository
	logger  *zap.Logger
}

// NewRecordService creates a record service
func NewRecordService(records reconcile.OrderRecordRepository, logger *zap.Logger) *RecordService {
	return &RecordService{records: records, logger: logger}
}

// List returns a page of records for a store
func (s *RecordService) List(ctx context.Context, storeID uuid.UUID, filter reconcile.OrderRecordFilter) ([]reconcile.OrderRecord, int64, error) {
	return s.records.List(ctx, storeID, filter)
}

// Get returns a single record by its local ID
func (s *RecordService) Get(ctx context.Context, recordID uuid.UUID) (*reconcile.OrderRecord, error) {
	return s.records.FindByID(ctx, recordID)
}

// Delete removes an operator-entered record. Synced records survive every
// delete except a full data reset; only rows an operator created by hand
// may be removed individually.
func (s *RecordService) Delete(ctx context.Context, recordID uuid.UUID) error {
	if err := s.records.DeleteOperatorEntered(ctx, recordID); err != nil {
		return err
	}
	s.logger.Info("Operator-entered record deleted", zap.String("record_id", recordID.String()))
	return nil
}
