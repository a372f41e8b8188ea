package leave

import (
	"context"
	"time"
)

// LeaveTypeRepository - interface for leave_types table
type LeaveTypeRepository interface {
	Create(ctx context.Context, leaveType LeaveType) (LeaveType, error)
	GetByID(ctx context.Context, id string) (LeaveType, error)
	GetByCode(ctx context.Context, companyID, code string) (LeaveType, error)
	GetByCompanyID(ctx context.Context, companyID string) ([]LeaveType, error)
	Update(ctx context.Context, req UpdateLeaveTypeRequest) error
	Delete(ctx context.Context, id string) error
}

// LeaveSettingsRepository - interface for leave_settings table (one row per company)
type LeaveSettingsRepository interface {
	GetByCompanyID(ctx context.Context, companyID string) (LeaveSettings, error)
	Upsert(ctx context.Context, settings LeaveSettings) error
}

// LeaveBalanceRepository - interface for leave_balances table.
// Guarded mutations are single conditional UPDATE statements; a guard that
// matches zero rows is reported through the documented sentinel so callers
// never observe a partially-applied change.
type LeaveBalanceRepository interface {
	Create(ctx context.Context, balance LeaveBalance) (LeaveBalance, error)
	Get(ctx context.Context, employeeID, leaveTypeID string, fiscalYear int) (LeaveBalance, error)
	GetByID(ctx context.Context, id string) (LeaveBalance, error)
	GetByEmployeeYear(ctx context.Context, employeeID string, fiscalYear int) ([]LeaveBalance, error)
	GetByCompanyYear(ctx context.Context, companyID string, fiscalYear int) ([]LeaveBalance, error)

	// AddPending reserves days. The guard re-checks availability against the
	// caller-computed effective entitlement; ErrInsufficientBalance when it fails.
	AddPending(ctx context.Context, balanceID string, days, effectiveEntitlement float64) error
	// MovePendingToUsed commits reserved days on final approval.
	MovePendingToUsed(ctx context.Context, balanceID string, days float64) error
	// RemovePending releases reserved days on rejection or cancellation.
	RemovePending(ctx context.Context, balanceID string, days float64) error
	// RefundUsed gives back committed days (recall, cancel of approved leave).
	RefundUsed(ctx context.Context, balanceID string, days float64) error
	// AdjustEntitlement applies a signed administrative delta;
	// ErrAdjustBelowUsed when the result would not cover used days.
	AdjustEntitlement(ctx context.Context, balanceID string, delta float64) error
}

// LeaveApplicationRepository - interface for leave_applications table
type LeaveApplicationRepository interface {
	Create(ctx context.Context, application LeaveApplication) (LeaveApplication, error)
	GetByID(ctx context.Context, id string) (LeaveApplication, error)
	// HasOverlapping reports whether a non-terminal or approved application
	// of the employee intersects [startDate, endDate].
	HasOverlapping(ctx context.Context, employeeID string, startDate, endDate time.Time) (bool, error)
	// UpdateStatus performs a compare-and-swap on current_status;
	// ErrStoreConflict when the expected status no longer matches.
	UpdateStatus(ctx context.Context, id string, from, to ApplicationStatus) error
	// Truncate shortens an approved application after an accepted recall.
	Truncate(ctx context.Context, id string, endDate, returnDate time.Time, requestedDays float64) error
	GetByEmployeeID(ctx context.Context, employeeID string, fiscalYear int) ([]LeaveApplication, error)
	GetByCompanyID(ctx context.Context, companyID string, status *ApplicationStatus) ([]LeaveApplication, error)
}

// ApprovalLogRepository - append-only audit log, one row per transition.
type ApprovalLogRepository interface {
	Append(ctx context.Context, log ApprovalLog) error
	GetByApplicationID(ctx context.Context, applicationID string) ([]ApprovalLog, error)
}

// LeaveRecallRepository - interface for leave_recalls table
type LeaveRecallRepository interface {
	// Create inserts a recall guarded against an existing pending one;
	// ErrRecallAlreadyPending when the guard fails.
	Create(ctx context.Context, recall LeaveRecall) (LeaveRecall, error)
	GetByID(ctx context.Context, id string) (LeaveRecall, error)
	// Resolve performs a compare-and-swap from pending to a terminal status;
	// ErrRecallAlreadyResolved when the recall is no longer pending.
	Resolve(ctx context.Context, id string, status RecallStatus, daysRestored float64, actualReturnDate *time.Time) error
	Delete(ctx context.Context, id string) error
}

// UnpaidUsageRepository - interface for unpaid_leave_usages table.
type UnpaidUsageRepository interface {
	// Get returns a zero-count row when no usage has been recorded yet.
	Get(ctx context.Context, employeeID, companyID string, fiscalYear int) (UnpaidLeaveUsage, error)
	// Increment upserts the row and bumps usage_count, guarded by the
	// per-fiscal-year cap; ErrUnpaidLimitExceeded when the cap is hit.
	Increment(ctx context.Context, employeeID, companyID string, fiscalYear int) error
}

// HolidayRepository reads the working-calendar holiday table. The table is
// maintained elsewhere; this service only consumes it.
type HolidayRepository interface {
	GetDates(ctx context.Context, companyID string, from, to time.Time) ([]time.Time, error)
}
