package leave

import (
	"time"

	"github.com/kestrelhq/leave-backend-go/internal/domain/employee"
)

// LeaveType entity
type LeaveType struct {
	ID        string
	CompanyID string
	Name      string
	Code      string // unique per company

	// Entitlement rules
	DefaultAllowanceDays float64
	IncrementDays        float64
	IncrementPeriodYears int
	MaxCapDays           *float64
	Accruing             bool

	// Carry-over rules
	CarryOver             bool
	CarryOverExpiryMonths int

	// Applicability rules
	ApplicableGender   ApplicableGender
	RequiresAttachment bool
	Paid               bool
	DeductionBasis     DeductionBasis

	CreatedAt time.Time
	UpdatedAt time.Time
}

type ApplicableGender string

const (
	GenderAll    ApplicableGender = "all"
	GenderMale   ApplicableGender = "male"
	GenderFemale ApplicableGender = "female"
)

// AppliesTo reports whether this leave type is open to the given gender.
func (t LeaveType) AppliesTo(g employee.Gender) bool {
	switch t.ApplicableGender {
	case GenderMale:
		return g == employee.Male
	case GenderFemale:
		return g == employee.Female
	default:
		return true
	}
}

// DeductionBasis controls how requested days are counted.
type DeductionBasis string

const (
	DeductWorkingDays  DeductionBasis = "working_days"
	DeductCalendarDays DeductionBasis = "calendar_days"
)

type AccrualBasis string

const (
	BasisAnniversary  AccrualBasis = "anniversary"
	BasisCalendarYear AccrualBasis = "calendar_year"
)

type RoundingMode string

const (
	RoundNearest RoundingMode = "round"
	RoundFloor   RoundingMode = "floor"
	RoundCeil    RoundingMode = "ceil"
)

// Policy defaults applied when a company has no settings row.
const (
	DefaultBaseAllowanceDays   = 16.0
	DefaultAccrualDivisor      = 365
	DefaultFiscalStartMonth    = 1
	DefaultIncrementPeriod     = 2
	DefaultIncrementDays       = 1.0
	DefaultEncashmentDivisor   = 30
	DefaultWeeklyPattern       = "FFFFFHO" // Mon..Sun: F=full, H=half, O=off
	UnpaidMaxConsecutiveDays   = 5
	UnpaidMaxUsesPerFiscalYear = 2
)

// LeaveSettings is the per-company policy row. One row per company.
type LeaveSettings struct {
	CompanyID            string
	FiscalYearStartMonth int
	AccrualBasis         AccrualBasis
	AccrualDivisor       int
	IncrementPeriodYears int
	IncrementDays        float64
	CEOApprovalRequired  bool
	EncashmentDivisor    int
	EncashmentMaxDays    *float64
	EncashmentRounding   RoundingMode
	WeeklyPattern        string // seven chars, Monday first: F/H/O
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// DefaultSettings returns the documented policy defaults for a company
// without a settings row.
func DefaultSettings(companyID string) LeaveSettings {
	return LeaveSettings{
		CompanyID:            companyID,
		FiscalYearStartMonth: DefaultFiscalStartMonth,
		AccrualBasis:         BasisAnniversary,
		AccrualDivisor:       DefaultAccrualDivisor,
		IncrementPeriodYears: DefaultIncrementPeriod,
		IncrementDays:        DefaultIncrementDays,
		CEOApprovalRequired:  true,
		EncashmentDivisor:    DefaultEncashmentDivisor,
		EncashmentRounding:   RoundNearest,
		WeeklyPattern:        DefaultWeeklyPattern,
	}
}

// FiscalYear returns the fiscal-year label containing the given date.
// A fiscal year is labelled by the calendar year it starts in.
func (s LeaveSettings) FiscalYear(at time.Time) int {
	if int(at.Month()) >= s.FiscalYearStartMonth {
		return at.Year()
	}
	return at.Year() - 1
}

// FiscalYearStart returns the first day of the given fiscal year.
func (s LeaveSettings) FiscalYearStart(fiscalYear int) time.Time {
	return time.Date(fiscalYear, time.Month(s.FiscalYearStartMonth), 1, 0, 0, 0, 0, time.UTC)
}

// LeaveBalance is the per (employee, leave type, fiscal year) ledger row.
// Mutated only through the balance service; other components request
// mutations, never edit it directly.
type LeaveBalance struct {
	ID          string
	EmployeeID  string
	LeaveTypeID string
	FiscalYear  int

	TotalEntitlement float64 // carried-over opening balance
	UsedDays         float64
	PendingDays      float64
	ExpiryDate       *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time

	// Derived on read, never persisted.
	AccruedDays          float64
	EffectiveEntitlement float64
	RemainingDays        float64
}

type ApplicationStatus string

const (
	StatusPendingSupervisor ApplicationStatus = "pending_supervisor"
	StatusPendingHR         ApplicationStatus = "pending_hr"
	StatusPendingCEO        ApplicationStatus = "pending_ceo"
	StatusApproved          ApplicationStatus = "approved"
	StatusRejected          ApplicationStatus = "rejected"
	StatusCancelled         ApplicationStatus = "cancelled"
)

// IsTerminal reports whether no further transition is allowed from s,
// except the recall truncation of an approved application.
func (s ApplicationStatus) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected || s == StatusCancelled
}

// IsPending reports whether s still sits in the approval chain.
func (s ApplicationStatus) IsPending() bool {
	return s == StatusPendingSupervisor || s == StatusPendingHR || s == StatusPendingCEO
}

// LeaveApplication entity
type LeaveApplication struct {
	ID          string
	CompanyID   string
	EmployeeID  string
	LeaveTypeID string
	FiscalYear  int

	StartDate  time.Time
	EndDate    time.Time
	ReturnDate time.Time

	RequestedDays  float64
	Status         ApplicationStatus
	ReliefOfficerID *string
	Reason         string
	AttachmentURL  *string

	CreatedAt time.Time
	UpdatedAt time.Time

	// Joined for responses
	LeaveTypeName *string
	EmployeeName  *string
}

// ApprovalAction is the recorded outcome of one approval-chain transition.
type ApprovalAction string

const (
	ActionApproved  ApprovalAction = "approved"
	ActionRejected  ApprovalAction = "rejected"
	ActionCancelled ApprovalAction = "cancelled"
)

// ApprovalLog rows are append-only; one row per transition.
type ApprovalLog struct {
	ID            string
	ApplicationID string
	ApproverID    string
	Role          ApproverRole
	Action        ApprovalAction
	Comments      string
	CreatedAt     time.Time
}

// ApproverRole is the role an actor holds at transition time.
type ApproverRole string

const (
	RoleSupervisor ApproverRole = "supervisor"
	RoleHR         ApproverRole = "hr"
	RoleCEO        ApproverRole = "ceo"
	RoleAdmin      ApproverRole = "admin"
	RoleEmployee   ApproverRole = "employee"
)

// Actor identifies who is performing an operation.
type Actor struct {
	EmployeeID string
	Role       ApproverRole
}

type RecallStatus string

const (
	RecallPending  RecallStatus = "pending"
	RecallAccepted RecallStatus = "accepted"
	RecallDeclined RecallStatus = "declined"
)

// LeaveRecall entity. At most one pending recall per application.
type LeaveRecall struct {
	ID               string
	ApplicationID    string
	InitiatorID      string
	Reason           string
	RecallDate       time.Time
	Status           RecallStatus
	DaysRestored     float64
	ActualReturnDate *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// UnpaidLeaveUsage counts approved unpaid-leave applications per employee
// and fiscal year.
type UnpaidLeaveUsage struct {
	ID         string
	EmployeeID string
	CompanyID  string
	FiscalYear int
	UsageCount int
	UpdatedAt  time.Time
}
