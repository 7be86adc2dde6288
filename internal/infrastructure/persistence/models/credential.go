package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/classsync/backend/internal/domain/upstream"
)

// CredentialModel is the persistence model for one stored token pair.
// The unique index on (store_id, slot) keeps exactly one credential per
// store slot.
type CredentialModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key"`
	StoreID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_credentials_store_slot,priority:1"`
	Slot         string    `gorm:"type:varchar(16);not null;uniqueIndex:idx_credentials_store_slot,priority:2"`
	AccessToken  string    `gorm:"type:text;not null"`
	RefreshToken string    `gorm:"type:text"`
	ExpiresAt    time.Time `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CredentialModel) TableName() string {
	return "shop_credentials"
}

// ToDomain converts the persistence model to a domain Credential entity
func (m *CredentialModel) ToDomain() *upstream.Credential {
	return &upstream.Credential{
		ID:           m.ID,
		StoreID:      m.StoreID,
		Slot:         upstream.CredentialSlot(m.Slot),
		AccessToken:  m.AccessToken,
		RefreshToken: m.RefreshToken,
		ExpiresAt:    m.ExpiresAt,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain Credential entity
func (m *CredentialModel) FromDomain(c *upstream.Credential) {
	m.ID = c.ID
	m.StoreID = c.StoreID
	m.Slot = string(c.Slot)
	m.AccessToken = c.AccessToken
	m.RefreshToken = c.RefreshToken
	m.ExpiresAt = c.ExpiresAt
	m.CreatedAt = c.CreatedAt
	m.UpdatedAt = c.UpdatedAt
}
