package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/classsync/backend/internal/domain/upstream"
	"github.com/classsync/backend/internal/infrastructure/persistence/models"
)

// GormCredentialRepository implements CredentialRepository using GORM.
// Reads always hit the database: the credential retry loop depends on
// seeing tokens written concurrently by the other slot's actor, so this
// repository must never sit behind a cache.
type GormCredentialRepository struct {
	db *gorm.DB
}

// NewGormCredentialRepository creates a new GormCredentialRepository
func NewGormCredentialRepository(db *gorm.DB) *GormCredentialRepository {
	return &GormCredentialRepository{db: db}
}

// Find returns the credential for a store slot
func (r *GormCredentialRepository) Find(ctx context.Context, storeID uuid.UUID, slot upstream.CredentialSlot) (*upstream.Credential, error) {
	var model models.CredentialModel
	if err := r.db.WithContext(ctx).
		Where("store_id = ? AND slot = ?", storeID, string(slot)).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, upstream.ErrCredentialNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or updates the credential for its (store, slot) key
func (r *GormCredentialRepository) Save(ctx context.Context, cred *upstream.Credential) error {
	var model models.CredentialModel
	model.FromDomain(cred)

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "store_id"}, {Name: "slot"}},
			UpdateAll: true,
		}).
		Create(&model).Error
}

// Delete removes the credential for a store slot
func (r *GormCredentialRepository) Delete(ctx context.Context, storeID uuid.UUID, slot upstream.CredentialSlot) error {
	return r.db.WithContext(ctx).
		Where("store_id = ? AND slot = ?", storeID, string(slot)).
		Delete(&models.CredentialModel{}).Error
}
