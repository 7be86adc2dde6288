package upstream

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Upstream Client Errors
// ---------------------------------------------------------------------------

var (
	// Generic client errors
	ErrStoreNotConfigured = errors.New("upstream: store not configured")
	ErrUnavailable        = errors.New("upstream: shop API temporarily unavailable")
	ErrRequestFailed      = errors.New("upstream: shop API request failed")
	ErrInvalidResponse    = errors.New("upstream: invalid shop API response")
	ErrAuthFailed         = errors.New("upstream: shop API authentication failed")
	ErrRateLimited        = errors.New("upstream: rate limited by shop API")

	// Lookup errors
	ErrOrderNotFound   = errors.New("upstream: order not found")
	ErrProductNotFound = errors.New("upstream: product not found")
	ErrMemberNotFound  = errors.New("upstream: member not found")

	// Request validation errors
	ErrInvalidStoreID   = errors.New("upstream: invalid store ID")
	ErrInvalidTimeRange = errors.New("upstream: invalid time range")
	ErrInvalidPage      = errors.New("upstream: invalid page parameters")
)

// ---------------------------------------------------------------------------
// Payment / Claim Status Vocabulary
// ---------------------------------------------------------------------------

// PaymentStatus is the payment state reported by the shop API
type PaymentStatus string

const (
	PaymentStatusWaiting         PaymentStatus = "WAITING"
	PaymentStatusPaid            PaymentStatus = "PAID"
	PaymentStatusRefunded        PaymentStatus = "REFUNDED"
	PaymentStatusPartialRefunded PaymentStatus = "PARTIAL_REFUNDED"
	PaymentStatusFailed          PaymentStatus = "FAILED"
)

// ClaimStatus is the cancellation/return claim state of an order section
type ClaimStatus string

const (
	ClaimStatusNone       ClaimStatus = "CLAIM_NONE"
	ClaimStatusCancelReq  ClaimStatus = "CANCEL_REQUESTED"
	ClaimStatusCancelDone ClaimStatus = "CANCEL_DONE"
	ClaimStatusReturnReq  ClaimStatus = "RETURN_REQUESTED"
	ClaimStatusReturnDone ClaimStatus = "RETURN_DONE"
)

// ---------------------------------------------------------------------------
// Order Payloads
// ---------------------------------------------------------------------------

// Order is one order as returned by the shop API list/detail endpoints.
// Payments, Sections and Items mirror the upstream list shapes; consumers
// use the First* accessors rather than indexing directly.
type Order struct {
	OrderID     string
	OrderedAt   time.Time
	OrdererName string
	OrdererTel  string
	// MemberID is set when the order is attributed to a registered member
	MemberID string
	// Options is the free-form question/answer map attached at checkout
	Options  map[string]string
	Payments []Payment
	Sections []OrderSection
	RawData  string
}

// Payment is one payment attached to an order
type Payment struct {
	PaymentID string
	Status    PaymentStatus
	Method    string
	Amount    decimal.Decimal
	PaidAt    *time.Time
}

// OrderSection is one fulfillment section of an order
type OrderSection struct {
	SectionID   string
	ClaimStatus ClaimStatus
	Items       []OrderItem
}

// OrderItem is one line item within a section
type OrderItem struct {
	ItemID    string
	ProductID string
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
}

// FirstPayment returns the first payment, or nil when the order has none
func (o *Order) FirstPayment() *Payment {
	if len(o.Payments) == 0 {
		return nil
	}
	return &o.Payments[0]
}

// FirstSection returns the first fulfillment section, or nil when absent
func (o *Order) FirstSection() *OrderSection {
	if len(o.Sections) == 0 {
		return nil
	}
	return &o.Sections[0]
}

// FirstItem returns the first line item of the first section, or nil
func (o *Order) FirstItem() *OrderItem {
	s := o.FirstSection()
	if s == nil || len(s.Items) == 0 {
		return nil
	}
	return &s.Items[0]
}

// Product is the product detail behind a line item
type Product struct {
	ProductID  string
	Name       string
	CategoryID string
	Price      decimal.Decimal
	Region     string
}

// Member is the member detail behind an attributed order
type Member struct {
	MemberID string
	Name     string
	Email    string
	Phone    string
	JoinedAt *time.Time
}

// Category is one product category from the shop API
type Category struct {
	CategoryID string
	Name       string
	ParentID   string
}

// ---------------------------------------------------------------------------
// Paged Order Listing
// ---------------------------------------------------------------------------

// OrderListRequest asks for orders created within [StartTime, EndTime)
type OrderListRequest struct {
	StoreID   uuid.UUID
	StartTime time.Time
	EndTime   time.Time
	PageNo    int
	PageSize  int
}

// Validate checks the request parameters
func (r *OrderListRequest) Validate() error {
	if r.StoreID == uuid.Nil {
		return ErrInvalidStoreID
	}
	if !r.StartTime.Before(r.EndTime) {
		return ErrInvalidTimeRange
	}
	if r.PageNo < 1 || r.PageSize < 1 {
		return ErrInvalidPage
	}
	return nil
}

// OrderListResponse is one page of orders
type OrderListResponse struct {
	Orders     []Order
	TotalCount int
	HasMore    bool
	NextPageNo int
}

// ---------------------------------------------------------------------------
// Client Port
// ---------------------------------------------------------------------------

// Client is the port to the upstream shop API. Implementations obtain a
// valid access credential per call; callers never pass tokens directly.
type Client interface {
	// ListOrders returns one page of orders created within the window
	ListOrders(ctx context.Context, req *OrderListRequest) (*OrderListResponse, error)

	// GetOrder returns full order detail
	GetOrder(ctx context.Context, storeID uuid.UUID, orderID string) (*Order, error)

	// GetProduct returns product detail for a line item
	GetProduct(ctx context.Context, storeID uuid.UUID, productID string) (*Product, error)

	// GetMember returns member detail for an attributed order
	GetMember(ctx context.Context, storeID uuid.UUID, memberID string) (*Member, error)

	// ListCategories returns the store's product categories
	ListCategories(ctx context.Context, storeID uuid.UUID) ([]Category, error)
}
