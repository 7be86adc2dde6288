package upstream

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrCredentialNotFound = errors.New("upstream: credential not found")
	ErrNoRefreshToken     = errors.New("upstream: credential has no refresh token")
)

// CredentialSlot distinguishes the two independently-held credentials per
// store. The shop API keeps a single valid access token per store, so a
// token issued through either slot invalidates the other slot's token.
type CredentialSlot string

const (
	// SlotInteractive is obtained through an operator login on the dashboard
	SlotInteractive CredentialSlot = "INTERACTIVE"
	// SlotAutomation is obtained and refreshed by the scheduler
	SlotAutomation CredentialSlot = "AUTOMATION"
)

// Credential is one stored access/refresh token pair for a store slot
type Credential struct {
	ID           uuid.UUID
	StoreID      uuid.UUID
	Slot         CredentialSlot
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Expired reports whether the access token is past its expiry at the given time
func (c *Credential) Expired(now time.Time) bool {
	return !c.ExpiresAt.After(now)
}

// CopyInto copies the token material into the target slot credential.
// Used when the automation slot adopts the interactive credential.
func (c *Credential) CopyInto(target *Credential) {
	target.AccessToken = c.AccessToken
	target.RefreshToken = c.RefreshToken
	target.ExpiresAt = c.ExpiresAt
}

// CredentialRepository persists credentials. Reads must hit durable
// storage, not a cache: the retry design depends on observing tokens
// written concurrently by the other slot's actor.
type CredentialRepository interface {
	// Find returns the credential for a store slot
	Find(ctx context.Context, storeID uuid.UUID, slot CredentialSlot) (*Credential, error)

	// Save creates or updates the credential for its (store, slot) key
	Save(ctx context.Context, cred *Credential) error

	// Delete removes the credential for a store slot
	Delete(ctx context.Context, storeID uuid.UUID, slot CredentialSlot) error
}

// TokenExchanger performs the shop API's token endpoints
type TokenExchanger interface {
	// RefreshToken exchanges a refresh token for a fresh access token.
	// Issuing the new token invalidates every previously issued access
	// token for the store, regardless of which slot requested it.
	RefreshToken(ctx context.Context, storeID uuid.UUID, refreshToken string) (*Credential, error)
}
