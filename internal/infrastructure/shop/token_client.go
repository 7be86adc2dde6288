package shop

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/classsync/backend/internal/domain/upstream"
	"github.com/classsync/backend/internal/infrastructure/config"
)

// TokenClient performs the shop API's OAuth token exchange. It implements
// upstream.TokenExchanger.
type TokenClient struct {
	tokenURL   string
	httpClient *http.Client
}

// NewTokenClient creates a token client
func NewTokenClient(cfg config.ShopConfig) *TokenClient {
	return &TokenClient{
		tokenURL: cfg.TokenURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// RefreshToken exchanges a refresh token for a fresh access token. The shop
// keeps one valid access token per store: the exchange invalidates every
// previously issued token regardless of which slot requested it.
func (c *TokenClient) RefreshToken(ctx context.Context, storeID uuid.UUID, refreshToken string) (*upstream.Credential, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("shop: failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", upstream.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("shop: failed to read token response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusBadRequest:
		return nil, fmt.Errorf("%w: token exchange rejected (HTTP %d)", upstream.ErrAuthFailed, resp.StatusCode)
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("%w: token endpoint HTTP %d", upstream.ErrRequestFailed, resp.StatusCode)
	}

	var payload tokenResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", upstream.ErrInvalidResponse, err)
	}
	if payload.AccessToken == "" {
		return nil, fmt.Errorf("%w: empty access token", upstream.ErrInvalidResponse)
	}

	now := time.Now()
	cred := &upstream.Credential{
		ID:           uuid.New(),
		StoreID:      storeID,
		AccessToken:  payload.AccessToken,
		RefreshToken: payload.RefreshToken,
		ExpiresAt:    now.Add(time.Duration(payload.ExpiresIn) * time.Second),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if cred.RefreshToken == "" {
		// Some token responses omit the rotation; the old refresh token stays valid
		cred.RefreshToken = refreshToken
	}
	return cred, nil
}
