package reconcile

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/classsync/backend/internal/domain/shared"
	"github.com/classsync/backend/internal/domain/upstream"
)

// OrderRecord is the merged local representation of one upstream order,
// its first payment, first fulfillment section and first line item, plus
// supplementary product/member detail and locally-owned workflow fields.
//
// Natural key: (StoreID, PlatformOrderID). Re-syncing the same key updates
// the remote-sourced snapshot but never the locally-owned fields
// (ManageStatus, DeferralRound, NotifiedStatus).
type OrderRecord struct {
	shared.BaseEntity

	StoreID         uuid.UUID
	PlatformOrderID string

	// Order header snapshot
	OrderedAt   time.Time
	OrdererName string
	OrdererTel  string

	// First payment snapshot
	PaymentStatus upstream.PaymentStatus
	PaymentMethod string
	PaymentAmount decimal.Decimal
	PaidAt        *time.Time

	// First section snapshot
	ClaimStatus upstream.ClaimStatus

	// First line item / product snapshot
	ProductID     string
	ProductName   string
	ProductRegion string
	UnitPrice     decimal.Decimal
	Quantity      int

	// Member snapshot (empty when the order is not attributed to a member)
	MemberID    string
	MemberName  string
	MemberEmail string
	MemberPhone string

	// Parsed demographic options
	Gender           string
	BirthYear        string
	Age              int
	Occupation       string
	PreferredDateRaw string
	PreferredDate    *time.Time

	// Locally-owned workflow state
	ManageStatus  ManageStatus
	DeferralRound *int
	// NotifiedStatus is the status for which a notification was last sent
	NotifiedStatus ManageStatus
	LastCheckedAt  *time.Time

	// Source of the record: synced from upstream or entered by an operator
	OperatorEntered bool

	RawData string
}

// NewOrderRecord creates a record for the first sync of a natural key
func NewOrderRecord(storeID uuid.UUID, platformOrderID string) *OrderRecord {
	return &OrderRecord{
		BaseEntity:      shared.NewBaseEntity(),
		StoreID:         storeID,
		PlatformOrderID: platformOrderID,
	}
}

// SetStatus moves the record to the given status and maintains the
// deferral round: the round is kept only while the status uses it.
func (r *OrderRecord) SetStatus(next ManageStatus, round *int) {
	r.ManageStatus = next
	if next.UsesDeferralRound() {
		if round != nil {
			r.DeferralRound = round
		}
	} else {
		r.DeferralRound = nil
	}
}

// MarkNotified records that a notification was sent for the current status
func (r *OrderRecord) MarkNotified() {
	r.NotifiedStatus = r.ManageStatus
}

// MarkChecked updates the live-check timestamp
func (r *OrderRecord) MarkChecked(now time.Time) {
	r.LastCheckedAt = &now
}
