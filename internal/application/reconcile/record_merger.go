package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/classsync/backend/internal/domain/reconcile"
	"github.com/classsync/backend/internal/domain/upstream"
)

// DetailLookup is the slice of the upstream client the merger needs for
// supplementary lookups. The cache layer decorates it transparently.
type DetailLookup interface {
	GetProduct(ctx context.Context, storeID uuid.UUID, productID string) (*upstream.Product, error)
	GetMember(ctx context.Context, storeID uuid.UUID, memberID string) (*upstream.Member, error)
}

// MergeOutcome is the result of merging one upstream order
type MergeOutcome struct {
	Record *reconcile.OrderRecord
	// IsNew is true on the first sync of the natural key
	IsNew bool
	// PrevPaymentStatus is the payment state held before this merge
	// (zero value when IsNew)
	PrevPaymentStatus upstream.PaymentStatus
	// Warnings are non-fatal issues (failed supplementary lookups)
	Warnings []string
}

// Merger converts one upstream order plus supplementary lookups into an
// order record ready for upsert. It does not persist; the sync run owns
// the write.
type Merger struct {
	records  reconcile.OrderRecordRepository
	details  DetailLookup
	workflow *reconcile.Workflow
	logger   *zap.Logger
}

// NewMerger creates a merger
func NewMerger(
	records reconcile.OrderRecordRepository,
	details DetailLookup,
	workflow *reconcile.Workflow,
	logger *zap.Logger,
) *Merger {
	return &Merger{
		records:  records,
		details:  details,
		workflow: workflow,
		logger:   logger,
	}
}

// Merge builds the merged record for one upstream order. On the first sync
// of a key the initial manage status is derived; on a re-sync only
// remote-sourced fields are refreshed and the locally-owned workflow fields
// are preserved untouched.
func (m *Merger) Merge(ctx context.Context, storeID uuid.UUID, order *upstream.Order, now time.Time) (*MergeOutcome, error) {
	outcome := &MergeOutcome{}

	record, err := m.records.FindByNaturalKey(ctx, storeID, order.OrderID)
	switch {
	case err == nil:
		outcome.PrevPaymentStatus = record.PaymentStatus
	case errors.Is(err, reconcile.ErrRecordNotFound):
		record = reconcile.NewOrderRecord(storeID, order.OrderID)
		outcome.IsNew = true
	default:
		return nil, err
	}
	outcome.Record = record

	m.applyOrder(record, order)
	m.applyOptions(record, order.Options, now)
	outcome.Warnings = append(outcome.Warnings, m.applyProductDetail(ctx, record, order)...)
	outcome.Warnings = append(outcome.Warnings, m.applyMemberDetail(ctx, record, order)...)

	if outcome.IsNew {
		record.ManageStatus = m.workflow.InitialStatus(order.FirstPayment(), order.FirstSection())
	}
	record.MarkChecked(now)
	record.Touch(now)

	for _, warning := range outcome.Warnings {
		m.logger.Warn("Order merged with degraded detail",
			zap.String("store_id", storeID.String()),
			zap.String("platform_order_id", order.OrderID),
			zap.String("warning", warning),
		)
	}

	return outcome, nil
}

// applyOrder refreshes the remote-sourced snapshot columns
func (m *Merger) applyOrder(record *reconcile.OrderRecord, order *upstream.Order) {
	record.OrderedAt = order.OrderedAt
	record.OrdererName = order.OrdererName
	record.OrdererTel = order.OrdererTel
	record.MemberID = order.MemberID
	record.RawData = order.RawData

	if p := order.FirstPayment(); p != nil {
		record.PaymentStatus = p.Status
		record.PaymentMethod = p.Method
		record.PaymentAmount = p.Amount
		record.PaidAt = p.PaidAt
	}
	if s := order.FirstSection(); s != nil {
		record.ClaimStatus = s.ClaimStatus
	}
	if item := order.FirstItem(); item != nil {
		record.ProductID = item.ProductID
		record.ProductName = item.Name
		record.UnitPrice = item.UnitPrice
		record.Quantity = item.Quantity
	}
}

// applyOptions parses the free-form checkout options into normalized fields
func (m *Merger) applyOptions(record *reconcile.OrderRecord, options map[string]string, now time.Time) {
	parsed := ParseOptions(options)
	if parsed.Gender != "" {
		record.Gender = parsed.Gender
	}
	if parsed.BirthYear != "" {
		record.BirthYear = parsed.BirthYear
		record.Age = AgeFromBirthYear(parsed.BirthYear, now)
	}
	if parsed.Occupation != "" {
		record.Occupation = parsed.Occupation
	}
	if parsed.PreferredDateRaw != "" {
		record.PreferredDateRaw = parsed.PreferredDateRaw
		record.PreferredDate = ResolvePreferredDate(parsed.PreferredDateRaw, record.OrderedAt)
	}
}

// applyProductDetail enriches the record from the product detail endpoint.
// Detail endpoints are less reliable than the list endpoint; a failure
// leaves the fields unset and never fails the order.
func (m *Merger) applyProductDetail(ctx context.Context, record *reconcile.OrderRecord, order *upstream.Order) []string {
	item := order.FirstItem()
	if item == nil || item.ProductID == "" {
		return nil
	}
	product, err := m.details.GetProduct(ctx, record.StoreID, item.ProductID)
	if err != nil {
		return []string{fmt.Sprintf("product detail lookup failed for %s: %v", item.ProductID, err)}
	}
	record.ProductRegion = product.Region
	if record.ProductName == "" {
		record.ProductName = product.Name
	}
	return nil
}

// applyMemberDetail enriches the record from the member detail endpoint
// when the order is attributed to a registered member. Best-effort.
func (m *Merger) applyMemberDetail(ctx context.Context, record *reconcile.OrderRecord, order *upstream.Order) []string {
	if order.MemberID == "" {
		return nil
	}
	member, err := m.details.GetMember(ctx, record.StoreID, order.MemberID)
	if err != nil {
		return []string{fmt.Sprintf("member detail lookup failed for %s: %v", order.MemberID, err)}
	}
	record.MemberName = member.Name
	record.MemberEmail = member.Email
	record.MemberPhone = member.Phone
	return nil
}
