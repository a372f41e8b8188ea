package leave

import (
	"errors"
	"fmt"
)

// Not found
var (
	ErrLeaveTypeNotFound   = errors.New("leave type not found")
	ErrSettingsNotFound    = errors.New("leave settings not found")
	ErrBalanceNotFound     = errors.New("leave balance not found")
	ErrApplicationNotFound = errors.New("leave application not found")
	ErrRecallNotFound      = errors.New("leave recall not found")
)

// Conflict
var (
	ErrDuplicateLeaveTypeCode = errors.New("leave type code already exists for this company")
	ErrOverlappingApplication = errors.New("an application already covers part of this date range")
	ErrAlreadyProcessed       = errors.New("leave application already processed")
	ErrRecallAlreadyPending   = errors.New("a pending recall already exists for this application")
	ErrRecallAlreadyResolved  = errors.New("recall already responded to")
)

// Authorization
var (
	ErrNotAuthorizedApprover = errors.New("actor is not authorized to act on this approval stage")
	ErrNotApplicationOwner   = errors.New("only the application owner may cancel it")
	ErrNotRecallInitiator    = errors.New("only the recall initiator may cancel it")
)

// Business rules
var (
	// ErrInsufficientBalance is the raw guard failure from the ledger; the
	// balance service wraps it with available/requested context.
	ErrInsufficientBalance = errors.New("insufficient leave balance")

	ErrGenderNotApplicable   = errors.New("leave type does not apply to employee's gender")
	ErrAttachmentRequired    = errors.New("leave type requires a supporting attachment")
	ErrUnpaidLimitExceeded   = errors.New("unpaid leave usage limit reached for this fiscal year")
	ErrUnpaidSpanTooLong     = errors.New("unpaid leave span exceeds the consecutive-day limit")
	ErrLeaveNotInProgress    = errors.New("application is not currently in progress")
	ErrRecallDateOutOfRange  = errors.New("recall date must fall after today and within the leave span")
	ErrAdjustBelowUsed       = errors.New("entitlement cannot be adjusted below used days")
	ErrLeaveAlreadyStarted   = errors.New("leave has already started")
	ErrNotEncashable         = errors.New("leave type is not encashable")
	ErrNoSalaryOnRecord      = errors.New("employee has no salary on record")
)

// ErrStoreConflict marks a lost race against a concurrent writer (unique
// violation on first-time creation, or a status guard that matched zero
// rows). It is the only error class eligible for a bounded automatic retry.
var ErrStoreConflict = errors.New("transient store conflict")

// BusinessRuleError carries the computed context of a failed rule so
// clients can show available vs requested amounts.
type BusinessRuleError struct {
	Rule      string
	Available float64
	Requested float64
}

func (e *BusinessRuleError) Error() string {
	return fmt.Sprintf("%s: available %.1f days, requested %.1f days", e.Rule, e.Available, e.Requested)
}

// NewInsufficientBalance builds the insufficient-balance rule violation.
func NewInsufficientBalance(available, requested float64) *BusinessRuleError {
	return &BusinessRuleError{Rule: "insufficient leave balance", Available: available, Requested: requested}
}
