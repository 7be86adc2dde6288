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

// GormStoreScheduleRepository implements StoreScheduleRepository using GORM
type GormStoreScheduleRepository struct {
	db *gorm.DB
}

// NewGormStoreScheduleRepository creates a new GormStoreScheduleRepository
func NewGormStoreScheduleRepository(db *gorm.DB) *GormStoreScheduleRepository {
	return &GormStoreScheduleRepository{db: db}
}

// Find returns the schedule for a store, or ErrScheduleNotFound
func (r *GormStoreScheduleRepository) Find(ctx context.Context, storeID uuid.UUID) (*reconcile.StoreSchedule, error) {
	var model models.StoreScheduleModel
	if err := r.db.WithContext(ctx).First(&model, "store_id = ?", storeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, reconcile.ErrScheduleNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or updates a schedule keyed by store ID
func (r *GormStoreScheduleRepository) Save(ctx context.Context, schedule *reconcile.StoreSchedule) error {
	var model models.StoreScheduleModel
	model.FromDomain(schedule)

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "store_id"}},
			UpdateAll: true,
		}).
		Create(&model).Error
}

// FindEnabled returns all schedules with scheduling enabled
func (r *GormStoreScheduleRepository) FindEnabled(ctx context.Context) ([]reconcile.StoreSchedule, error) {
	var scheduleModels []models.StoreScheduleModel
	if err := r.db.WithContext(ctx).
		Where("enabled = ?", true).
		Order("next_due_at ASC").
		Find(&scheduleModels).Error; err != nil {
		return nil, err
	}

	schedules := make([]reconcile.StoreSchedule, len(scheduleModels))
	for i := range scheduleModels {
		schedules[i] = *scheduleModels[i].ToDomain()
	}
	return schedules, nil
}
