package leave

import (
	"context"
	"time"
)

// RegistryService manages leave types and company policy settings.
type RegistryService interface {
	CreateLeaveType(ctx context.Context, req CreateLeaveTypeRequest) (LeaveType, error)
	UpdateLeaveType(ctx context.Context, req UpdateLeaveTypeRequest) error
	GetLeaveType(ctx context.Context, id string) (LeaveType, error)
	ListLeaveTypes(ctx context.Context, companyID string) ([]LeaveType, error)
	DeleteLeaveType(ctx context.Context, id string) error

	// ResolveSettings returns the stored policy row or the documented
	// defaults when the company has none.
	ResolveSettings(ctx context.Context, companyID string) (LeaveSettings, error)
	UpdateSettings(ctx context.Context, req UpdateLeaveSettingsRequest) (LeaveSettings, error)
}

// BalanceService is the single owner of LeaveBalance mutations.
type BalanceService interface {
	// Ensure lazily creates the balance row for the fiscal year, resolving
	// concurrent first-time creation to exactly one row.
	Ensure(ctx context.Context, employeeID, leaveTypeID string, fiscalYear int) (LeaveBalance, error)
	// Get returns the row with effective entitlement and remaining days
	// recomputed as of now.
	Get(ctx context.Context, employeeID, leaveTypeID string, fiscalYear int) (LeaveBalance, error)
	GetByEmployeeYear(ctx context.Context, employeeID string, fiscalYear int) ([]LeaveBalance, error)
	GetByCompanyYear(ctx context.Context, companyID string, fiscalYear int) ([]LeaveBalance, error)

	Reserve(ctx context.Context, employeeID, leaveTypeID string, fiscalYear int, days float64) error
	Commit(ctx context.Context, employeeID, leaveTypeID string, fiscalYear int, days float64) error
	Release(ctx context.Context, employeeID, leaveTypeID string, fiscalYear int, days float64) error
	Refund(ctx context.Context, employeeID, leaveTypeID string, fiscalYear int, days float64) error
	Adjust(ctx context.Context, req AdjustBalanceRequest) error
}

// ApplicationService drives the request lifecycle state machine.
type ApplicationService interface {
	Create(ctx context.Context, req CreateApplicationRequest) (LeaveApplication, error)
	Approve(ctx context.Context, req ApproveApplicationRequest) (LeaveApplication, error)
	Reject(ctx context.Context, req RejectApplicationRequest) (LeaveApplication, error)
	Cancel(ctx context.Context, applicationID string, actor Actor) (LeaveApplication, error)
	Get(ctx context.Context, applicationID string) (LeaveApplication, error)
	GetByEmployee(ctx context.Context, employeeID string, fiscalYear int) ([]LeaveApplication, error)
	GetByCompany(ctx context.Context, companyID string, status *ApplicationStatus) ([]LeaveApplication, error)
	ApprovalHistory(ctx context.Context, applicationID string) ([]ApprovalLog, error)
}

// RecallService manages early-return recalls of approved leave.
type RecallService interface {
	Create(ctx context.Context, req CreateRecallRequest) (LeaveRecall, error)
	Respond(ctx context.Context, req RespondRecallRequest) (LeaveRecall, error)
	Cancel(ctx context.Context, recallID string, actor Actor) error
}

// EncashmentService values unused leave in currency.
type EncashmentService interface {
	Quote(ctx context.Context, req EncashmentQuoteRequest) (EncashmentQuote, error)
}

// EncashmentQuote values unused leave in currency. Advisory only.
type EncashmentQuote struct {
	EligibleDays float64   `json:"eligible_days"`
	DailyRate    string    `json:"daily_rate"`
	CashValue    string    `json:"cash_value"`
	QuotedAt     time.Time `json:"quoted_at"`
}
