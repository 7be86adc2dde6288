package shop

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/classsync/backend/internal/domain/upstream"
	"github.com/classsync/backend/internal/infrastructure/config"
)

// CredentialCoordinator acquires a usable automation access token for a
// store. The shop keeps a single valid access token per store, so an
// operator logging into the dashboard silently invalidates the token the
// scheduler was holding. The coordinator therefore re-reads the stored
// credential from durable storage on every attempt: a token rotated by the
// other slot's actor shows up there before the retry budget runs out.
//
// Fallback chain per attempt:
//  1. automation credential valid -> use it
//  2. automation credential expired -> refresh-exchange and persist
//  3. automation credential missing -> adopt the interactive credential,
//     then refresh-exchange so the automation slot owns its own pair
type CredentialCoordinator struct {
	credentials upstream.CredentialRepository
	exchanger   upstream.TokenExchanger
	attempts    int
	delay       time.Duration
	logger      *zap.Logger

	mu sync.Mutex
	// rejected holds, per store, the last access token the API refused
	// while still locally unexpired. Serving it again is pointless; the
	// next acquisition refreshes past it or picks up a rotated pair.
	rejected map[uuid.UUID]string
}

// NewCredentialCoordinator creates a coordinator
func NewCredentialCoordinator(
	credentials upstream.CredentialRepository,
	exchanger upstream.TokenExchanger,
	cfg config.ShopConfig,
	logger *zap.Logger,
) *CredentialCoordinator {
	attempts := cfg.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}
	delay := cfg.RetryDelay
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}
	return &CredentialCoordinator{
		credentials: credentials,
		exchanger:   exchanger,
		attempts:    attempts,
		delay:       delay,
		logger:      logger,
		rejected:    make(map[uuid.UUID]string),
	}
}

// MarkInvalid records that the API rejected the given access token even
// though it had not expired locally. Implements TokenSource.
func (c *CredentialCoordinator) MarkInvalid(storeID uuid.UUID, token string) {
	if token == "" {
		return
	}
	c.mu.Lock()
	c.rejected[storeID] = token
	c.mu.Unlock()
}

// rejectedToken returns the store's marked-invalid token, if any
func (c *CredentialCoordinator) rejectedToken(storeID uuid.UUID) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rejected[storeID]
}

// clearRejected drops the store's mark once a different token is served
func (c *CredentialCoordinator) clearRejected(storeID uuid.UUID, token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rejected[storeID] != token {
		delete(c.rejected, storeID)
	}
}

// AccessToken returns a valid automation access token for the store.
// Implements TokenSource.
func (c *CredentialCoordinator) AccessToken(ctx context.Context, storeID uuid.UUID) (string, error) {
	cred, err := c.acquire(ctx, storeID)
	if err != nil {
		return "", err
	}
	return cred.AccessToken, nil
}

// EnsureAutomation verifies that an automation credential is obtainable,
// acquiring one through the fallback chain if needed. Implements the
// schedule service's credential gate.
func (c *CredentialCoordinator) EnsureAutomation(ctx context.Context, storeID uuid.UUID) error {
	_, err := c.acquire(ctx, storeID)
	return err
}

// acquire runs the per-attempt fallback chain under the retry budget
func (c *CredentialCoordinator) acquire(ctx context.Context, storeID uuid.UUID) (*upstream.Credential, error) {
	operation := func() (*upstream.Credential, error) {
		return c.attemptOnce(ctx, storeID)
	}

	cred, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewConstantBackOff(c.delay)),
		backoff.WithMaxTries(uint(c.attempts)),
	)
	if err != nil {
		c.logger.Warn("Automation credential acquisition failed",
			zap.String("store_id", storeID.String()),
			zap.Error(err),
		)
		return nil, err
	}
	c.clearRejected(storeID, cred.AccessToken)
	return cred, nil
}

// attemptOnce performs a single pass of the fallback chain, always reading
// the credential fresh from durable storage
func (c *CredentialCoordinator) attemptOnce(ctx context.Context, storeID uuid.UUID) (*upstream.Credential, error) {
	now := time.Now()

	automation, err := c.credentials.Find(ctx, storeID, upstream.SlotAutomation)
	switch {
	case err == nil:
		// A token the API already refused counts as expired no matter
		// what its local expiry says
		if !automation.Expired(now) && automation.AccessToken != c.rejectedToken(storeID) {
			return automation, nil
		}
		return c.refresh(ctx, automation)

	case errors.Is(err, upstream.ErrCredentialNotFound):
		return c.adoptInteractive(ctx, storeID)

	default:
		return nil, backoff.Permanent(fmt.Errorf("shop: credential lookup failed: %w", err))
	}
}

// refresh exchanges the credential's refresh token and persists the result
// into the same slot
func (c *CredentialCoordinator) refresh(ctx context.Context, cred *upstream.Credential) (*upstream.Credential, error) {
	if cred.RefreshToken == "" {
		// Nothing to exchange; retrying lets a concurrently written token appear
		return nil, upstream.ErrNoRefreshToken
	}

	fresh, err := c.exchanger.RefreshToken(ctx, cred.StoreID, cred.RefreshToken)
	if err != nil {
		// Auth failures here usually mean the other slot rotated the token
		// underneath us; the next attempt re-reads storage and may find it
		return nil, err
	}

	fresh.ID = cred.ID
	fresh.Slot = cred.Slot
	fresh.CreatedAt = cred.CreatedAt
	if err := c.credentials.Save(ctx, fresh); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("shop: failed to persist refreshed credential: %w", err))
	}

	c.logger.Info("Shop credential refreshed",
		zap.String("store_id", cred.StoreID.String()),
		zap.String("slot", string(cred.Slot)),
		zap.Time("expires_at", fresh.ExpiresAt),
	)
	return fresh, nil
}

// adoptInteractive seeds the automation slot from the interactive
// credential, then refresh-exchanges so the automation slot holds its own
// token pair instead of sharing the operator's
func (c *CredentialCoordinator) adoptInteractive(ctx context.Context, storeID uuid.UUID) (*upstream.Credential, error) {
	interactive, err := c.credentials.Find(ctx, storeID, upstream.SlotInteractive)
	if errors.Is(err, upstream.ErrCredentialNotFound) {
		// No credential in either slot; retrying cannot conjure one
		return nil, backoff.Permanent(upstream.ErrCredentialNotFound)
	}
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("shop: credential lookup failed: %w", err))
	}

	now := time.Now()
	automation := &upstream.Credential{
		ID:        uuid.New(),
		StoreID:   storeID,
		Slot:      upstream.SlotAutomation,
		CreatedAt: now,
		UpdatedAt: now,
	}
	interactive.CopyInto(automation)

	c.logger.Info("Automation slot adopting interactive credential",
		zap.String("store_id", storeID.String()),
	)
	return c.refresh(ctx, automation)
}
