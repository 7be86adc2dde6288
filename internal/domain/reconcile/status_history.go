package reconcile

import (
	"time"

	"github.com/google/uuid"
)

// StatusHistory is one append-only audit entry for a workflow-status change.
// Entries are never mutated or deleted except by a full store data reset.
type StatusHistory struct {
	ID       uuid.UUID
	StoreID  uuid.UUID
	RecordID uuid.UUID

	Previous ManageStatus
	Next     ManageStatus
	// DeferralRound is set when the change carried a deferral round
	DeferralRound *int
	// Actor is "system" for automatic transitions, an operator name otherwise
	Actor string

	CreatedAt time.Time
}

// ActorSystem is the actor recorded for automatic transitions
const ActorSystem = "system"

// NewStatusHistory creates an audit entry for a status change
func NewStatusHistory(storeID, recordID uuid.UUID, previous, next ManageStatus, round *int, actor string) *StatusHistory {
	return &StatusHistory{
		ID:            uuid.New(),
		StoreID:       storeID,
		RecordID:      recordID,
		Previous:      previous,
		Next:          next,
		DeferralRound: round,
		Actor:         actor,
		CreatedAt:     time.Now(),
	}
}
