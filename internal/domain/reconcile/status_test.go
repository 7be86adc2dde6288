package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classsync/backend/internal/domain/upstream"
)

func newTestWorkflow() *Workflow {
	return NewWorkflow(DefaultRuleSet())
}

// ---------------------------------------------------------------------------
// Initial Status Derivation
// ---------------------------------------------------------------------------

func TestWorkflow_InitialStatus(t *testing.T) {
	w := newTestWorkflow()

	tests := []struct {
		name     string
		payment  *upstream.Payment
		section  *upstream.OrderSection
		expected ManageStatus
	}{
		{
			"refund payment wins",
			&upstream.Payment{Status: upstream.PaymentStatusRefunded},
			&upstream.OrderSection{ClaimStatus: upstream.ClaimStatusNone},
			StatusRefund,
		},
		{
			"partial refund payment wins",
			&upstream.Payment{Status: upstream.PaymentStatusPartialRefunded},
			nil,
			StatusRefund,
		},
		{
			"completed cancel claim wins over paid",
			&upstream.Payment{Status: upstream.PaymentStatusPaid},
			&upstream.OrderSection{ClaimStatus: upstream.ClaimStatusCancelDone},
			StatusRefund,
		},
		{
			"completed return claim wins over paid",
			&upstream.Payment{Status: upstream.PaymentStatusPaid},
			&upstream.OrderSection{ClaimStatus: upstream.ClaimStatusReturnDone},
			StatusRefund,
		},
		{
			"paid becomes needs review",
			&upstream.Payment{Status: upstream.PaymentStatusPaid},
			&upstream.OrderSection{ClaimStatus: upstream.ClaimStatusNone},
			StatusNeedsReview,
		},
		{
			"waiting payment",
			&upstream.Payment{Status: upstream.PaymentStatusWaiting},
			nil,
			StatusAwaitingPayment,
		},
		{
			"requested but not completed claim is not refund",
			&upstream.Payment{Status: upstream.PaymentStatusPaid},
			&upstream.OrderSection{ClaimStatus: upstream.ClaimStatusCancelReq},
			StatusNeedsReview,
		},
		{
			"missing payment and section",
			nil,
			nil,
			StatusAwaitingPayment,
		},
		{
			"missing payment with completed claim",
			nil,
			&upstream.OrderSection{ClaimStatus: upstream.ClaimStatusReturnDone},
			StatusRefund,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, w.InitialStatus(tt.payment, tt.section))
		})
	}
}

// ---------------------------------------------------------------------------
// Automatic Transitions
// ---------------------------------------------------------------------------

func TestWorkflow_AutoTransition(t *testing.T) {
	w := newTestWorkflow()

	tests := []struct {
		name       string
		current    ManageStatus
		payment    upstream.PaymentStatus
		expected   ManageStatus
		transition bool
	}{
		{"awaiting payment completes", StatusAwaitingPayment, upstream.PaymentStatusPaid, StatusNeedsReview, true},
		{"refund from confirmed", StatusConfirmed, upstream.PaymentStatusRefunded, StatusRefund, true},
		{"refund from awaiting payment", StatusAwaitingPayment, upstream.PaymentStatusRefunded, StatusRefund, true},
		{"refund from needs review", StatusNeedsReview, upstream.PaymentStatusPartialRefunded, StatusRefund, true},
		{"refund sub-state untouched by refund payment", StatusRefundWaitlist, upstream.PaymentStatusRefunded, StatusRefundWaitlist, false},
		{"coarse refund untouched by refund payment", StatusRefund, upstream.PaymentStatusRefunded, StatusRefund, false},
		{"confirmed untouched by paid", StatusConfirmed, upstream.PaymentStatusPaid, StatusConfirmed, false},
		{"needs review untouched by paid", StatusNeedsReview, upstream.PaymentStatusPaid, StatusNeedsReview, false},
		{"awaiting payment untouched by waiting", StatusAwaitingPayment, upstream.PaymentStatusWaiting, StatusAwaitingPayment, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := w.AutoTransition(tt.current, tt.payment)
			assert.Equal(t, tt.transition, ok)
			assert.Equal(t, tt.expected, got)
		})
	}
}

// ---------------------------------------------------------------------------
// Manual Transition Validity Table
// ---------------------------------------------------------------------------

func TestWorkflow_ValidateManual(t *testing.T) {
	w := newTestWorkflow()

	normals := []ManageStatus{
		StatusNeedsReview, StatusConfirmed, StatusWaitlisted,
		StatusDeferred, StatusNoShow, StatusAwaitingPayment,
	}

	t.Run("normal to other normal is valid", func(t *testing.T) {
		for _, from := range normals {
			for _, to := range normals {
				if from == to {
					continue
				}
				assert.NoError(t, w.ValidateManual(from, to), "%s -> %s", from, to)
			}
		}
	})

	t.Run("normal to refund family is rejected", func(t *testing.T) {
		for _, from := range normals {
			for _, to := range []ManageStatus{StatusRefund, StatusRefundWaitlist, StatusRefundCancel} {
				err := w.ValidateManual(from, to)
				require.Error(t, err, "%s -> %s", from, to)
				assert.ErrorIs(t, err, ErrRefundEntryIsAuto)
			}
		}
	})

	t.Run("coarse refund only into sub-states", func(t *testing.T) {
		assert.NoError(t, w.ValidateManual(StatusRefund, StatusRefundWaitlist))
		assert.NoError(t, w.ValidateManual(StatusRefund, StatusRefundCancel))
		for _, to := range normals {
			assert.ErrorIs(t, w.ValidateManual(StatusRefund, to), ErrInvalidTransition)
		}
	})

	t.Run("refund sub-state into normal states only", func(t *testing.T) {
		for _, from := range []ManageStatus{StatusRefundWaitlist, StatusRefundCancel} {
			for _, to := range normals {
				assert.NoError(t, w.ValidateManual(from, to), "%s -> %s", from, to)
			}
			assert.ErrorIs(t, w.ValidateManual(from, StatusRefund), ErrInvalidTransition)
		}
		assert.ErrorIs(t, w.ValidateManual(StatusRefundWaitlist, StatusRefundCancel), ErrInvalidTransition)
		assert.ErrorIs(t, w.ValidateManual(StatusRefundCancel, StatusRefundWaitlist), ErrInvalidTransition)
	})

	t.Run("same status is rejected", func(t *testing.T) {
		assert.ErrorIs(t, w.ValidateManual(StatusConfirmed, StatusConfirmed), ErrInvalidTransition)
	})

	t.Run("unknown status is rejected", func(t *testing.T) {
		assert.ErrorIs(t, w.ValidateManual(StatusConfirmed, ManageStatus("BOGUS")), ErrUnknownStatus)
	})
}

// ---------------------------------------------------------------------------
// Notification Eligibility
// ---------------------------------------------------------------------------

func TestWorkflow_NotifyEligible(t *testing.T) {
	w := newTestWorkflow()

	tests := []struct {
		name     string
		status   ManageStatus
		notified ManageStatus
		expected bool
	}{
		{"confirmed not yet notified", StatusConfirmed, "", true},
		{"confirmed already notified", StatusConfirmed, StatusConfirmed, false},
		{"confirmed notified for earlier status", StatusConfirmed, StatusRefundCancel, true},
		{"refund waitlist eligible", StatusRefundWaitlist, "", true},
		{"refund cancel eligible", StatusRefundCancel, "", true},
		{"coarse refund never eligible", StatusRefund, "", false},
		{"needs review never eligible", StatusNeedsReview, "", false},
		{"deferred never eligible", StatusDeferred, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, w.NotifyEligible(tt.status, tt.notified))
		})
	}
}

func TestManageStatus_Families(t *testing.T) {
	assert.True(t, StatusConfirmed.IsNormal())
	assert.False(t, StatusConfirmed.IsRefundFamily())
	assert.True(t, StatusRefund.IsRefundFamily())
	assert.False(t, StatusRefund.IsRefundSub())
	assert.True(t, StatusRefundWaitlist.IsRefundSub())
	assert.True(t, StatusRefundCancel.IsRefundFamily())
	assert.False(t, ManageStatus("BOGUS").IsValid())
	assert.True(t, StatusDeferred.UsesDeferralRound())
	assert.False(t, StatusConfirmed.UsesDeferralRound())
}
