package reconcile

import (
	"github.com/classsync/backend/internal/domain/upstream"
)

// ---------------------------------------------------------------------------
// Manage Status Vocabulary
// ---------------------------------------------------------------------------

// ManageStatus is the operator-facing lifecycle state of an order record
type ManageStatus string

const (
	// Normal family
	StatusNeedsReview     ManageStatus = "NEEDS_REVIEW"
	StatusConfirmed       ManageStatus = "CONFIRMED"
	StatusWaitlisted      ManageStatus = "WAITLISTED"
	StatusDeferred        ManageStatus = "DEFERRED"
	StatusNoShow          ManageStatus = "NO_SHOW"
	StatusAwaitingPayment ManageStatus = "AWAITING_PAYMENT"

	// Refund family: the coarse state is entered automatically from payment
	// data; operators then pick one of the sub-states.
	StatusRefund         ManageStatus = "REFUND"
	StatusRefundWaitlist ManageStatus = "REFUND_WAITLIST"
	StatusRefundCancel   ManageStatus = "REFUND_CANCEL"
)

// normalStatuses is the normal family in display order
var normalStatuses = []ManageStatus{
	StatusNeedsReview,
	StatusConfirmed,
	StatusWaitlisted,
	StatusDeferred,
	StatusNoShow,
	StatusAwaitingPayment,
}

// IsValid returns true for any known status value
func (s ManageStatus) IsValid() bool {
	return s.IsNormal() || s.IsRefundFamily()
}

// IsNormal returns true for the normal family
func (s ManageStatus) IsNormal() bool {
	for _, n := range normalStatuses {
		if s == n {
			return true
		}
	}
	return false
}

// IsRefundSub returns true for a refund sub-state
func (s ManageStatus) IsRefundSub() bool {
	return s == StatusRefundWaitlist || s == StatusRefundCancel
}

// IsRefundFamily returns true for the coarse refund state or a sub-state
func (s ManageStatus) IsRefundFamily() bool {
	return s == StatusRefund || s.IsRefundSub()
}

// UsesDeferralRound reports whether the status carries a deferral round
func (s ManageStatus) UsesDeferralRound() bool {
	return s == StatusDeferred
}

// String returns the string representation
func (s ManageStatus) String() string {
	return string(s)
}

// ---------------------------------------------------------------------------
// Workflow Rules
// ---------------------------------------------------------------------------

// RuleSet holds the upstream status sets that drive automatic workflow
// decisions. Loaded once at startup and injected; not a package global.
type RuleSet struct {
	// RefundPayments are payment states that indicate a refund occurred
	RefundPayments map[upstream.PaymentStatus]bool
	// CompletedClaims are claim states meaning cancel/return completed
	CompletedClaims map[upstream.ClaimStatus]bool
}

// DefaultRuleSet returns the rule set matching the shop API vocabulary
func DefaultRuleSet() RuleSet {
	return RuleSet{
		RefundPayments: map[upstream.PaymentStatus]bool{
			upstream.PaymentStatusRefunded:        true,
			upstream.PaymentStatusPartialRefunded: true,
		},
		CompletedClaims: map[upstream.ClaimStatus]bool{
			upstream.ClaimStatusCancelDone: true,
			upstream.ClaimStatusReturnDone: true,
		},
	}
}

// IsRefundPayment reports whether the payment state indicates a refund
func (r RuleSet) IsRefundPayment(p upstream.PaymentStatus) bool {
	return r.RefundPayments[p]
}

// IsCompletedClaim reports whether the claim state is cancel/return done
func (r RuleSet) IsCompletedClaim(c upstream.ClaimStatus) bool {
	return r.CompletedClaims[c]
}

// ---------------------------------------------------------------------------
// Workflow
// ---------------------------------------------------------------------------

// Workflow is the finite state machine over ManageStatus
type Workflow struct {
	rules RuleSet
}

// NewWorkflow creates a workflow with the given rule set
func NewWorkflow(rules RuleSet) *Workflow {
	return &Workflow{rules: rules}
}

// InitialStatus derives the status on the first sync of an order.
// Refund evidence (payment or completed claim) wins over everything.
func (w *Workflow) InitialStatus(payment *upstream.Payment, section *upstream.OrderSection) ManageStatus {
	if payment != nil && w.rules.IsRefundPayment(payment.Status) {
		return StatusRefund
	}
	if section != nil && w.rules.IsCompletedClaim(section.ClaimStatus) {
		return StatusRefund
	}
	if payment != nil && payment.Status == upstream.PaymentStatusPaid {
		return StatusNeedsReview
	}
	return StatusAwaitingPayment
}

// AutoTransition returns the new status driven by an observed payment-state
// change, and whether a transition applies. Automatic transitions are never
// gated by the manual validity table.
func (w *Workflow) AutoTransition(current ManageStatus, newPayment upstream.PaymentStatus) (ManageStatus, bool) {
	if w.rules.IsRefundPayment(newPayment) && !current.IsRefundFamily() {
		return StatusRefund, true
	}
	if current == StatusAwaitingPayment && newPayment == upstream.PaymentStatusPaid {
		return StatusNeedsReview, true
	}
	return current, false
}

// ValidateManual checks an operator-requested transition.
//   - from REFUND: only into a refund sub-state
//   - from a refund sub-state: into any normal state (not the other sub-state)
//   - from a normal state: into any other normal state; refund-family entry
//     is exclusively automatic
func (w *Workflow) ValidateManual(current, requested ManageStatus) error {
	if !requested.IsValid() {
		return ErrUnknownStatus
	}
	if requested == current {
		return ErrInvalidTransition
	}

	switch {
	case current == StatusRefund:
		if !requested.IsRefundSub() {
			return ErrInvalidTransition
		}
		return nil
	case current.IsRefundSub():
		if !requested.IsNormal() {
			return ErrInvalidTransition
		}
		return nil
	case current.IsNormal():
		if requested.IsRefundFamily() {
			return ErrRefundEntryIsAuto
		}
		return nil
	default:
		return ErrUnknownStatus
	}
}

// notifyStatuses are the statuses whose entry is notification-worthy
var notifyStatuses = map[ManageStatus]bool{
	StatusConfirmed:      true,
	StatusRefundWaitlist: true,
	StatusRefundCancel:   true,
}

// NotifyEligible reports whether a record in the given status, whose last
// notification (if any) covered notifiedStatus, should trigger a
// status-change notification.
func (w *Workflow) NotifyEligible(status, notifiedStatus ManageStatus) bool {
	return notifyStatuses[status] && notifiedStatus != status
}
