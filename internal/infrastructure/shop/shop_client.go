package shop

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"

	"github.com/classsync/backend/internal/domain/upstream"
	"github.com/classsync/backend/internal/infrastructure/config"
)

// maxResponseSize limits response bodies to prevent memory exhaustion
const maxResponseSize = 10 * 1024 * 1024 // 10MB

// TokenSource supplies a valid access token for a store. The credential
// coordinator implements it; callers of the client never handle tokens.
// MarkInvalid reports a token the API rejected despite being locally
// unexpired, so the next AccessToken call refreshes instead of serving it
// again.
type TokenSource interface {
	AccessToken(ctx context.Context, storeID uuid.UUID) (string, error)
	MarkInvalid(storeID uuid.UUID, token string)
}

// Client implements upstream.Client against the shop commerce API
type Client struct {
	baseURL       string
	tokens        TokenSource
	httpClient    *http.Client
	retryAttempts int
	retryDelay    time.Duration
}

// NewClient creates a shop API client
func NewClient(cfg config.ShopConfig, tokens TokenSource) *Client {
	attempts := cfg.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}
	delay := cfg.RetryDelay
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}
	return &Client{
		baseURL: cfg.BaseURL,
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		retryAttempts: attempts,
		retryDelay:    delay,
	}
}

// ListOrders returns one page of orders created within the window
func (c *Client) ListOrders(ctx context.Context, req *upstream.OrderListRequest) (*upstream.OrderListResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("from", req.StartTime.UTC().Format(time.RFC3339))
	query.Set("to", req.EndTime.UTC().Format(time.RFC3339))
	query.Set("page", strconv.Itoa(req.PageNo))
	query.Set("size", strconv.Itoa(req.PageSize))

	body, err := c.doGet(ctx, req.StoreID, "/external/v1/pay-order/seller/orders", query, upstream.ErrRequestFailed)
	if err != nil {
		return nil, err
	}

	var payload orderListResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", upstream.ErrInvalidResponse, err)
	}

	orders := make([]upstream.Order, len(payload.Contents))
	for i := range payload.Contents {
		orders[i] = convertOrder(&payload.Contents[i])
	}
	return &upstream.OrderListResponse{
		Orders:     orders,
		TotalCount: payload.TotalElements,
		HasMore:    payload.Page < payload.TotalPages,
		NextPageNo: payload.Page + 1,
	}, nil
}

// GetOrder returns full order detail
func (c *Client) GetOrder(ctx context.Context, storeID uuid.UUID, orderID string) (*upstream.Order, error) {
	body, err := c.doGet(ctx, storeID, "/external/v1/pay-order/seller/orders/"+url.PathEscape(orderID), nil, upstream.ErrOrderNotFound)
	if err != nil {
		return nil, err
	}

	var payload orderDetailResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", upstream.ErrInvalidResponse, err)
	}
	order := convertOrder(&payload.Order)
	return &order, nil
}

// GetProduct returns product detail for a line item
func (c *Client) GetProduct(ctx context.Context, storeID uuid.UUID, productID string) (*upstream.Product, error) {
	body, err := c.doGet(ctx, storeID, "/external/v2/products/"+url.PathEscape(productID), nil, upstream.ErrProductNotFound)
	if err != nil {
		return nil, err
	}

	var payload productResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", upstream.ErrInvalidResponse, err)
	}
	return &upstream.Product{
		ProductID:  payload.ProductID,
		Name:       payload.Name,
		CategoryID: payload.CategoryID,
		Price:      payload.Price,
		Region:     payload.Region,
	}, nil
}

// GetMember returns member detail for an attributed order
func (c *Client) GetMember(ctx context.Context, storeID uuid.UUID, memberID string) (*upstream.Member, error) {
	body, err := c.doGet(ctx, storeID, "/external/v1/members/"+url.PathEscape(memberID), nil, upstream.ErrMemberNotFound)
	if err != nil {
		return nil, err
	}

	var payload memberResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", upstream.ErrInvalidResponse, err)
	}
	return &upstream.Member{
		MemberID: payload.MemberID,
		Name:     payload.Name,
		Email:    payload.Email,
		Phone:    payload.Phone,
		JoinedAt: payload.JoinedAt,
	}, nil
}

// ListCategories returns the store's product categories
func (c *Client) ListCategories(ctx context.Context, storeID uuid.UUID) ([]upstream.Category, error) {
	body, err := c.doGet(ctx, storeID, "/external/v1/categories", nil, upstream.ErrRequestFailed)
	if err != nil {
		return nil, err
	}

	var payload categoryListResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", upstream.ErrInvalidResponse, err)
	}

	categories := make([]upstream.Category, len(payload.Categories))
	for i, entry := range payload.Categories {
		categories[i] = upstream.Category{
			CategoryID: entry.CategoryID,
			Name:       entry.Name,
			ParentID:   entry.ParentID,
		}
	}
	return categories, nil
}

// doGet performs an authenticated GET against the shop API. notFound is
// the sentinel returned for a 404 and varies per resource.
//
// The shop keeps a single valid access token per store, so a locally
// unexpired token can be rejected because the interactive actor rotated it
// mid-flight. An auth failure therefore marks the token invalid and retries
// under the budget; each retry re-acquires, which re-reads durable storage
// and refreshes or picks up the rotated pair.
func (c *Client) doGet(ctx context.Context, storeID uuid.UUID, path string, query url.Values, notFound error) ([]byte, error) {
	operation := func() ([]byte, error) {
		token, err := c.tokens.AccessToken(ctx, storeID)
		if err != nil {
			return nil, backoff.Permanent(err)
		}

		body, err := c.attempt(ctx, token, path, query, notFound)
		if err != nil {
			if errors.Is(err, upstream.ErrAuthFailed) {
				c.tokens.MarkInvalid(storeID, token)
				return nil, err
			}
			return nil, backoff.Permanent(err)
		}
		return body, nil
	}

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewConstantBackOff(c.retryDelay)),
		backoff.WithMaxTries(uint(c.retryAttempts)),
	)
}

// attempt performs one authenticated GET with the given token
func (c *Client) attempt(ctx context.Context, token, path string, query url.Values, notFound error) ([]byte, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("shop: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", upstream.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("shop: failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, apiError(body, upstream.ErrAuthFailed, resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		return nil, apiError(body, notFound, resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, apiError(body, upstream.ErrRateLimited, resp.StatusCode)
	case resp.StatusCode >= 500:
		return nil, apiError(body, upstream.ErrUnavailable, resp.StatusCode)
	case resp.StatusCode >= 400:
		return nil, apiError(body, upstream.ErrRequestFailed, resp.StatusCode)
	}

	return body, nil
}

// apiError wraps a sentinel with the shop's error envelope when present
func apiError(body []byte, sentinel error, status int) error {
	var payload shopError
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return fmt.Errorf("%w: %s (%s, HTTP %d)", sentinel, payload.Message, payload.Code, status)
	}
	return fmt.Errorf("%w: HTTP %d", sentinel, status)
}

// convertOrder maps a wire order to the domain shape
func convertOrder(o *shopOrder) upstream.Order {
	order := upstream.Order{
		OrderID:     o.OrderID,
		OrderedAt:   o.OrderedAt,
		OrdererName: o.OrdererName,
		OrdererTel:  o.OrdererTel,
		MemberID:    o.MemberID,
		Options:     o.Options,
	}
	if raw, err := json.Marshal(o); err == nil {
		order.RawData = string(raw)
	}

	for _, p := range o.Payments {
		order.Payments = append(order.Payments, upstream.Payment{
			PaymentID: p.PaymentID,
			Status:    upstream.PaymentStatus(p.Status),
			Method:    p.Method,
			Amount:    p.Amount,
			PaidAt:    p.PaidAt,
		})
	}
	for _, s := range o.Sections {
		section := upstream.OrderSection{
			SectionID:   s.SectionID,
			ClaimStatus: upstream.ClaimStatus(s.ClaimStatus),
		}
		for _, item := range s.Items {
			section.Items = append(section.Items, upstream.OrderItem{
				ItemID:    item.ItemID,
				ProductID: item.ProductID,
				Name:      item.Name,
				UnitPrice: item.UnitPrice,
				Quantity:  item.Quantity,
			})
		}
		order.Sections = append(order.Sections, section)
	}
	return order
}
