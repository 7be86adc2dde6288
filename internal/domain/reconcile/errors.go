package reconcile

import (
	"errors"

	"github.com/classsync/backend/internal/domain/shared"
)

// Operator-facing rejections are coded DomainErrors so the HTTP layer can
// surface a distinct reason even on paths without an explicit mapping.
// Sentinel identity still holds under errors.Is.
var (
	// Record errors
	ErrRecordNotFound = shared.NewDomainError("RECORD_NOT_FOUND", "order record not found")

	// Status workflow errors
	ErrInvalidTransition   = shared.NewDomainError("INVALID_TRANSITION", "status transition not allowed")
	ErrRefundEntryIsAuto   = shared.NewDomainError("REFUND_IS_AUTOMATIC", "refund statuses are entered automatically, not manually")
	ErrUnknownStatus       = shared.NewDomainError("UNKNOWN_STATUS", "unknown manage status")
	ErrDeferralRoundNotSet = shared.NewDomainError("DEFERRAL_ROUND_REQUIRED", "deferral round required for deferred status")

	// Sync run errors
	ErrRunNotFound        = shared.NewDomainError("RUN_NOT_FOUND", "sync run not found")
	ErrSyncAlreadyRunning = shared.NewDomainError("SYNC_IN_PROGRESS", "a sync run is already running for this store")
	ErrRunAlreadyFinished = errors.New("reconcile: sync run already finished")
	ErrResetWhileRunning  = shared.NewDomainError("SYNC_IN_PROGRESS", "cannot reset sync data while a run is active")

	// Schedule errors
	ErrScheduleNotFound       = shared.NewDomainError("SCHEDULE_NOT_FOUND", "store schedule not found")
	ErrInvalidInterval        = shared.NewDomainError("INVALID_INTERVAL", "schedule interval out of allowed range")
	ErrNoAutomationCredential = shared.NewDomainError("NO_CREDENTIAL", "no automation credential obtainable for store")
)
