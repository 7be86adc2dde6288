package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/classsync/backend/internal/domain/reconcile"
	"github.com/classsync/backend/internal/infrastructure/persistence/models"
)

// GormStatusHistoryRepository implements StatusHistoryRepository using GORM
type GormStatusHistoryRepository struct {
	db *gorm.DB
}

// NewGormStatusHistoryRepository creates a new GormStatusHistoryRepository
func NewGormStatusHistoryRepository(db *gorm.DB) *GormStatusHistoryRepository {
	return &GormStatusHistoryRepository{db: db}
}

// Append inserts one audit entry
func (r *GormStatusHistoryRepository) Append(ctx context.Context, entry *reconcile.StatusHistory) error {
	var model models.StatusHistoryModel
	model.FromDomain(entry)
	return r.db.WithContext(ctx).Create(&model).Error
}

// ListByRecord returns entries for a record, newest first
func (r *GormStatusHistoryRepository) ListByRecord(ctx context.Context, recordID uuid.UUID) ([]reconcile.StatusHistory, error) {
	var entryModels []models.StatusHistoryModel
	if err := r.db.WithContext(ctx).
		Where("record_id = ?", recordID).
		Order("created_at DESC").
		Find(&entryModels).Error; err != nil {
		return nil, err
	}

	entries := make([]reconcile.StatusHistory, len(entryModels))
	for i := range entryModels {
		entries[i] = *entryModels[i].ToDomain()
	}
	return entries, nil
}

// DeleteByStore removes all entries for a store (data reset)
func (r *GormStatusHistoryRepository) DeleteByStore(ctx context.Context, storeID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("store_id = ?", storeID).
		Delete(&models.StatusHistoryModel{}).Error
}
