package shop

import (
	"time"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Common Shop API Response Types
// ---------------------------------------------------------------------------

// shopError is the error envelope the shop API returns on non-2xx responses
type shopError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// tokenResponse is the OAuth token endpoint payload
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// ---------------------------------------------------------------------------
// Order Related Types
// ---------------------------------------------------------------------------

// orderListResponse is the paged order listing payload
type orderListResponse struct {
	Contents      []shopOrder `json:"contents"`
	TotalElements int         `json:"totalElements"`
	TotalPages    int         `json:"totalPages"`
	Page          int         `json:"page"`
}

// orderDetailResponse wraps a single order detail
type orderDetailResponse struct {
	Order shopOrder `json:"order"`
}

// shopOrder is one order as the shop API serializes it
type shopOrder struct {
	OrderID     string            `json:"orderId"`
	OrderedAt   time.Time         `json:"orderedAt"`
	OrdererName string            `json:"ordererName"`
	OrdererTel  string            `json:"ordererTel"`
	MemberID    string            `json:"memberId,omitempty"`
	Options     map[string]string `json:"orderOptions,omitempty"`
	Payments    []shopPayment     `json:"payments,omitempty"`
	Sections    []shopSection     `json:"productOrders,omitempty"`
}

// shopPayment is one payment attached to an order
type shopPayment struct {
	PaymentID string          `json:"paymentId"`
	Status    string          `json:"paymentStatus"`
	Method    string          `json:"paymentMethod"`
	Amount    decimal.Decimal `json:"paymentAmount"`
	PaidAt    *time.Time      `json:"paidAt,omitempty"`
}

// shopSection is one fulfillment section (a product order) of an order
type shopSection struct {
	SectionID   string     `json:"productOrderId"`
	ClaimStatus string     `json:"claimStatus"`
	Items       []shopItem `json:"items,omitempty"`
}

// shopItem is one line item within a section
type shopItem struct {
	ItemID    string          `json:"itemId"`
	ProductID string          `json:"productId"`
	Name      string          `json:"productName"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
}

// ---------------------------------------------------------------------------
// Product / Member / Category Types
// ---------------------------------------------------------------------------

// productResponse is the product detail payload
type productResponse struct {
	ProductID  string          `json:"productId"`
	Name       string          `json:"name"`
	CategoryID string          `json:"categoryId"`
	Price      decimal.Decimal `json:"salePrice"`
	Region     string          `json:"region"`
}

// memberResponse is the member detail payload
type memberResponse struct {
	MemberID string     `json:"memberId"`
	Name     string     `json:"name"`
	Email    string     `json:"email"`
	Phone    string     `json:"cellphone"`
	JoinedAt *time.Time `json:"joinedAt,omitempty"`
}

// categoryListResponse is the category listing payload
type categoryListResponse struct {
	Categories []categoryEntry `json:"categories"`
}

type categoryEntry struct {
	CategoryID string `json:"categoryId"`
	Name       string `json:"name"`
	ParentID   string `json:"parentCategoryId,omitempty"`
}
