package reconcile

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderRecord_SetStatus_DeferralRound(t *testing.T) {
	r := NewOrderRecord(uuid.New(), "order-1")
	round := 2

	r.SetStatus(StatusDeferred, &round)
	require.NotNil(t, r.DeferralRound)
	assert.Equal(t, 2, *r.DeferralRound)

	// Round survives while the status keeps using it
	r.SetStatus(StatusDeferred, nil)
	require.NotNil(t, r.DeferralRound)

	// Leaving the deferred status clears the round
	r.SetStatus(StatusConfirmed, nil)
	assert.Nil(t, r.DeferralRound)
}

func TestOrderRecord_MarkNotified(t *testing.T) {
	r := NewOrderRecord(uuid.New(), "order-1")
	r.SetStatus(StatusConfirmed, nil)

	r.MarkNotified()
	assert.Equal(t, StatusConfirmed, r.NotifiedStatus)

	// A later status change makes the record eligible again
	w := NewWorkflow(DefaultRuleSet())
	r.SetStatus(StatusRefundCancel, nil)
	assert.True(t, w.NotifyEligible(r.ManageStatus, r.NotifiedStatus))
}
