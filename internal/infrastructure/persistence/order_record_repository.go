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

// GormOrderRecordRepository implements OrderRecordRepository using GORM
type GormOrderRecordRepository struct {
	db *gorm.DB
}

// NewGormOrderRecordRepository creates a new GormOrderRecordRepository
func NewGormOrderRecordRepository(db *gorm.DB) *GormOrderRecordRepository {
	return &GormOrderRecordRepository{db: db}
}

// Upsert inserts or updates by the (store_id, platform_order_id) key.
// Conflicts update all columns except the primary key and created_at, so
// an insert racing a concurrent sync degrades to an update of the same row.
func (r *GormOrderRecordRepository) Upsert(ctx context.Context, record *reconcile.OrderRecord) error {
	var model models.OrderRecordModel
	model.FromDomain(record)

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "store_id"}, {Name: "platform_order_id"}},
			UpdateAll: true,
		}).
		Create(&model).Error
}

// Save updates an existing record by ID
func (r *GormOrderRecordRepository) Save(ctx context.Context, record *reconcile.OrderRecord) error {
	var model models.OrderRecordModel
	model.FromDomain(record)

	result := r.db.WithContext(ctx).Model(&models.OrderRecordModel{}).
		Where("id = ?", record.ID).
		Select("*").Omit("id", "created_at").
		Updates(&model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return reconcile.ErrRecordNotFound
	}
	return nil
}

// FindByID finds a record by its local ID
func (r *GormOrderRecordRepository) FindByID(ctx context.Context, id uuid.UUID) (*reconcile.OrderRecord, error) {
	var model models.OrderRecordModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, reconcile.ErrRecordNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByNaturalKey finds the record for (store, platform order id)
func (r *GormOrderRecordRepository) FindByNaturalKey(ctx context.Context, storeID uuid.UUID, platformOrderID string) (*reconcile.OrderRecord, error) {
	var model models.OrderRecordModel
	if err := r.db.WithContext(ctx).
		Where("store_id = ? AND platform_order_id = ?", storeID, platformOrderID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, reconcile.ErrRecordNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// List lists records for a store with paging, newest order first
func (r *GormOrderRecordRepository) List(ctx context.Context, storeID uuid.UUID, filter reconcile.OrderRecordFilter) ([]reconcile.OrderRecord, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.OrderRecordModel{}).
		Where("store_id = ?", storeID)
	if filter.Status != nil {
		query = query.Where("manage_status = ?", string(*filter.Status))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}

	var recordModels []models.OrderRecordModel
	if err := query.
		Order("ordered_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&recordModels).Error; err != nil {
		return nil, 0, err
	}

	records := make([]reconcile.OrderRecord, len(recordModels))
	for i := range recordModels {
		records[i] = *recordModels[i].ToDomain()
	}
	return records, total, nil
}

// DeleteByStore removes all records for a store (data reset)
func (r *GormOrderRecordRepository) DeleteByStore(ctx context.Context, storeID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("store_id = ?", storeID).
		Delete(&models.OrderRecordModel{}).Error
}

// DeleteOperatorEntered removes one operator-entered record. Synced records
// are never deleted individually; they would reappear on the next sync.
func (r *GormOrderRecordRepository) DeleteOperatorEntered(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND operator_entered = ?", id, true).
		Delete(&models.OrderRecordModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return reconcile.ErrRecordNotFound
	}
	return nil
}
