package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/classsync/backend/internal/domain/reconcile"
	"github.com/classsync/backend/internal/infrastructure/persistence/models"
)

// GormSyncRunRepository implements SyncRunRepository using GORM
type GormSyncRunRepository struct {
	db *gorm.DB
}

// NewGormSyncRunRepository creates a new GormSyncRunRepository
func NewGormSyncRunRepository(db *gorm.DB) *GormSyncRunRepository {
	return &GormSyncRunRepository{db: db}
}

// Create inserts a new run row
func (r *GormSyncRunRepository) Create(ctx context.Context, run *reconcile.SyncRun) error {
	var model models.SyncRunModel
	model.FromDomain(run)
	return r.db.WithContext(ctx).Create(&model).Error
}

// Save updates a run row by ID
func (r *GormSyncRunRepository) Save(ctx context.Context, run *reconcile.SyncRun) error {
	var model models.SyncRunModel
	model.FromDomain(run)

	result := r.db.WithContext(ctx).Model(&models.SyncRunModel{}).
		Where("id = ?", run.ID).
		Select("*").Omit("id", "created_at").
		Updates(&model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return reconcile.ErrRunNotFound
	}
	return nil
}

// UpsertScheduled overwrites the store's rolling scheduled-run row: the new
// run replaces any previous scheduled run, so scheduled history never grows.
func (r *GormSyncRunRepository) UpsertScheduled(ctx context.Context, run *reconcile.SyncRun) error {
	var model models.SyncRunModel
	model.FromDomain(run)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("store_id = ? AND mode = ? AND id <> ?", run.StoreID, string(reconcile.ModeScheduled), run.ID).
			Delete(&models.SyncRunModel{}).Error; err != nil {
			return err
		}
		return tx.
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				UpdateAll: true,
			}).
			Create(&model).Error
	})
}

// FindRunning returns the running run for a store, or ErrRunNotFound
func (r *GormSyncRunRepository) FindRunning(ctx context.Context, storeID uuid.UUID) (*reconcile.SyncRun, error) {
	var model models.SyncRunModel
	if err := r.db.WithContext(ctx).
		Where("store_id = ? AND status = ?", storeID, string(reconcile.RunStatusRunning)).
		Order("created_at DESC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, reconcile.ErrRunNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByID finds a run by ID
func (r *GormSyncRunRepository) FindByID(ctx context.Context, id uuid.UUID) (*reconcile.SyncRun, error) {
	var model models.SyncRunModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, reconcile.ErrRunNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ListByStore returns runs for a store, newest first
func (r *GormSyncRunRepository) ListByStore(ctx context.Context, storeID uuid.UUID, limit int) ([]reconcile.SyncRun, error) {
	if limit <= 0 {
		limit = 20
	}

	var runModels []models.SyncRunModel
	if err := r.db.WithContext(ctx).
		Where("store_id = ?", storeID).
		Order("created_at DESC").
		Limit(limit).
		Find(&runModels).Error; err != nil {
		return nil, err
	}

	runs := make([]reconcile.SyncRun, len(runModels))
	for i := range runModels {
		runs[i] = *runModels[i].ToDomain()
	}
	return runs, nil
}

// DeleteByStore removes all runs for a store (data reset)
func (r *GormSyncRunRepository) DeleteByStore(ctx context.Context, storeID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("store_id = ?", storeID).
		Delete(&models.SyncRunModel{}).Error
}
