package leave

import (
	"github.com/kestrelhq/leave-backend-go/internal/pkg/validator"
)

type CreateLeaveTypeRequest struct {
	CompanyID             string   `json:"company_id"`
	Name                  string   `json:"leave_type_name"`
	Code                  string   `json:"leave_type_code"`
	DefaultAllowanceDays  float64  `json:"default_allowance_days"`
	IncrementDays         float64  `json:"increment_days"`
	IncrementPeriodYears  int      `json:"increment_period_years"`
	MaxCapDays            *float64 `json:"max_cap_days,omitempty"`
	Accruing              bool     `json:"accruing"`
	CarryOver             bool     `json:"carry_over"`
	CarryOverExpiryMonths int      `json:"carry_over_expiry_months"`
	ApplicableGender      string   `json:"applicable_gender"`
	RequiresAttachment    bool     `json:"requires_attachment"`
	Paid                  bool     `json:"paid"`
	DeductionBasis        string   `json:"deduction_basis"`
}

func (r *CreateLeaveTypeRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.CompanyID) {
		errs = append(errs, validator.ValidationError{
			Field:   "company_id",
			Message: "company_id is required",
		})
	}
	if validator.IsEmpty(r.Name) {
		errs = append(errs, validator.ValidationError{
			Field:   "leave_type_name",
			Message: "leave_type_name is required",
		})
	}
	if len(r.Name) > 255 {
		errs = append(errs, validator.ValidationError{
			Field:   "leave_type_name",
			Message: "leave_type_name must not exceed 255 characters",
		})
	}
	if validator.IsEmpty(r.Code) {
		errs = append(errs, validator.ValidationError{
			Field:   "leave_type_code",
			Message: "leave_type_code is required",
		})
	}
	if r.DefaultAllowanceDays < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "default_allowance_days",
			Message: "default_allowance_days must not be negative",
		})
	}
	if r.IncrementDays < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "increment_days",
			Message: "increment_days must not be negative",
		})
	}
	if r.IncrementPeriodYears < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "increment_period_years",
			Message: "increment_period_years must not be negative",
		})
	}
	if r.MaxCapDays != nil && *r.MaxCapDays <= 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "max_cap_days",
			Message: "max_cap_days must be positive when set",
		})
	}
	if r.ApplicableGender != "" &&
		!validator.IsInSlice(r.ApplicableGender, []string{string(GenderAll), string(GenderMale), string(GenderFemale)}) {
		errs = append(errs, validator.ValidationError{
			Field:   "applicable_gender",
			Message: "applicable_gender must be one of all, male, female",
		})
	}
	if r.DeductionBasis != "" &&
		!validator.IsInSlice(r.DeductionBasis, []string{string(DeductWorkingDays), string(DeductCalendarDays)}) {
		errs = append(errs, validator.ValidationError{
			Field:   "deduction_basis",
			Message: "deduction_basis must be one of working_days, calendar_days",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type UpdateLeaveTypeRequest struct {
	ID                    string   `json:"leave_type_id"`
	Name                  *string  `json:"leave_type_name,omitempty"`
	DefaultAllowanceDays  *float64 `json:"default_allowance_days,omitempty"`
	IncrementDays         *float64 `json:"increment_days,omitempty"`
	IncrementPeriodYears  *int     `json:"increment_period_years,omitempty"`
	MaxCapDays            *float64 `json:"max_cap_days,omitempty"`
	CarryOver             *bool    `json:"carry_over,omitempty"`
	CarryOverExpiryMonths *int     `json:"carry_over_expiry_months,omitempty"`
	RequiresAttachment    *bool    `json:"requires_attachment,omitempty"`
	Paid                  *bool    `json:"paid,omitempty"`
}

func (r *UpdateLeaveTypeRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.ID) {
		errs = append(errs, validator.ValidationError{
			Field:   "leave_type_id",
			Message: "leave_type_id is required",
		})
	}
	if r.Name != nil && validator.IsEmpty(*r.Name) {
		errs = append(errs, validator.ValidationError{
			Field:   "leave_type_name",
			Message: "leave_type_name must not be empty",
		})
	}
	if r.DefaultAllowanceDays != nil && *r.DefaultAllowanceDays < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "default_allowance_days",
			Message: "default_allowance_days must not be negative",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type UpdateLeaveSettingsRequest struct {
	CompanyID            string   `json:"company_id"`
	FiscalYearStartMonth *int     `json:"fiscal_year_start_month,omitempty"`
	AccrualBasis         *string  `json:"accrual_basis,omitempty"`
	AccrualDivisor       *int     `json:"accrual_divisor,omitempty"`
	IncrementPeriodYears *int     `json:"increment_period_years,omitempty"`
	IncrementDays        *float64 `json:"increment_days,omitempty"`
	CEOApprovalRequired  *bool    `json:"ceo_approval_required,omitempty"`
	EncashmentDivisor    *int     `json:"encashment_divisor,omitempty"`
	EncashmentMaxDays    *float64 `json:"encashment_max_days,omitempty"`
	EncashmentRounding   *string  `json:"encashment_rounding,omitempty"`
	WeeklyPattern        *string  `json:"weekly_pattern,omitempty"`
}

func (r *UpdateLeaveSettingsRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.CompanyID) {
		errs = append(errs, validator.ValidationError{
			Field:   "company_id",
			Message: "company_id is required",
		})
	}
	if r.FiscalYearStartMonth != nil && (*r.FiscalYearStartMonth < 1 || *r.FiscalYearStartMonth > 12) {
		errs = append(errs, validator.ValidationError{
			Field:   "fiscal_year_start_month",
			Message: "fiscal_year_start_month must be between 1 and 12",
		})
	}
	if r.AccrualBasis != nil &&
		!validator.IsInSlice(*r.AccrualBasis, []string{string(BasisAnniversary), string(BasisCalendarYear)}) {
		errs = append(errs, validator.ValidationError{
			Field:   "accrual_basis",
			Message: "accrual_basis must be one of anniversary, calendar_year",
		})
	}
	if r.AccrualDivisor != nil && (*r.AccrualDivisor < 1 || *r.AccrualDivisor > 366) {
		errs = append(errs, validator.ValidationError{
			Field:   "accrual_divisor",
			Message: "accrual_divisor must be between 1 and 366",
		})
	}
	if r.EncashmentDivisor != nil && *r.EncashmentDivisor < 1 {
		errs = append(errs, validator.ValidationError{
			Field:   "encashment_divisor",
			Message: "encashment_divisor must be positive",
		})
	}
	if r.EncashmentRounding != nil &&
		!validator.IsInSlice(*r.EncashmentRounding, []string{string(RoundNearest), string(RoundFloor), string(RoundCeil)}) {
		errs = append(errs, validator.ValidationError{
			Field:   "encashment_rounding",
			Message: "encashment_rounding must be one of round, floor, ceil",
		})
	}
	if r.WeeklyPattern != nil && !isValidWeeklyPattern(*r.WeeklyPattern) {
		errs = append(errs, validator.ValidationError{
			Field:   "weekly_pattern",
			Message: "weekly_pattern must be seven characters of F, H or O with at least one working day",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func isValidWeeklyPattern(p string) bool {
	if len(p) != 7 {
		return false
	}
	hasWorkDay := false
	for _, c := range p {
		switch c {
		case 'F', 'H':
			hasWorkDay = true
		case 'O':
		default:
			return false
		}
	}
	return hasWorkDay
}

type CreateApplicationRequest struct {
	EmployeeID      string  `json:"employee_id"`
	LeaveTypeID     string  `json:"leave_type_id"`
	StartDate       string  `json:"start_date"`
	EndDate         string  `json:"end_date"`
	Reason          string  `json:"reason"`
	ReliefOfficerID *string `json:"relief_officer_id,omitempty"`
	AttachmentURL   *string `json:"attachment_url,omitempty"`
}

func (r *CreateApplicationRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	}
	if validator.IsEmpty(r.LeaveTypeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "leave_type_id",
			Message: "leave_type_id is required",
		})
	}

	start, startOK := validator.IsValidDate(r.StartDate)
	if !startOK {
		errs = append(errs, validator.ValidationError{
			Field:   "start_date",
			Message: "start_date must be a valid date (YYYY-MM-DD)",
		})
	}
	end, endOK := validator.IsValidDate(r.EndDate)
	if !endOK {
		errs = append(errs, validator.ValidationError{
			Field:   "end_date",
			Message: "end_date must be a valid date (YYYY-MM-DD)",
		})
	}
	if startOK && endOK && end.Before(start) {
		errs = append(errs, validator.ValidationError{
			Field:   "end_date",
			Message: "end_date must not be before start_date",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type ApproveApplicationRequest struct {
	ApplicationID string `json:"application_id"`
	Comments      string `json:"comments,omitempty"`
	Approver      Actor  `json:"-"`
}

func (r *ApproveApplicationRequest) Validate() error {
	var errs validator.ValidationErrors
	if validator.IsEmpty(r.ApplicationID) {
		errs = append(errs, validator.ValidationError{
			Field:   "application_id",
			Message: "application_id is required",
		})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

type RejectApplicationRequest struct {
	ApplicationID string `json:"application_id"`
	Reason        string `json:"reason"`
	Approver      Actor  `json:"-"`
}

func (r *RejectApplicationRequest) Validate() error {
	var errs validator.ValidationErrors
	if validator.IsEmpty(r.ApplicationID) {
		errs = append(errs, validator.ValidationError{
			Field:   "application_id",
			Message: "application_id is required",
		})
	}
	if validator.IsEmpty(r.Reason) {
		errs = append(errs, validator.ValidationError{
			Field:   "reason",
			Message: "reason is required when rejecting",
		})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

type AdjustBalanceRequest struct {
	EmployeeID  string  `json:"employee_id"`
	LeaveTypeID string  `json:"leave_type_id"`
	FiscalYear  int     `json:"fiscal_year"`
	Days        float64 `json:"days"`
	Direction   string  `json:"direction"` // add / subtract
	Reason      string  `json:"reason"`
}

func (r *AdjustBalanceRequest) Validate() error {
	var errs validator.ValidationErrors
	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	}
	if validator.IsEmpty(r.LeaveTypeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "leave_type_id",
			Message: "leave_type_id is required",
		})
	}
	if r.FiscalYear <= 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "fiscal_year",
			Message: "fiscal_year must be a positive integer",
		})
	}
	if r.Days <= 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "days",
			Message: "days must be positive",
		})
	}
	if !validator.IsInSlice(r.Direction, []string{"add", "subtract"}) {
		errs = append(errs, validator.ValidationError{
			Field:   "direction",
			Message: "direction must be add or subtract",
		})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

type CreateRecallRequest struct {
	ApplicationID string `json:"application_id"`
	RecallDate    string `json:"recall_date"`
	Reason        string `json:"reason"`
	Initiator     Actor  `json:"-"`
}

func (r *CreateRecallRequest) Validate() error {
	var errs validator.ValidationErrors
	if validator.IsEmpty(r.ApplicationID) {
		errs = append(errs, validator.ValidationError{
			Field:   "application_id",
			Message: "application_id is required",
		})
	}
	if _, ok := validator.IsValidDate(r.RecallDate); !ok {
		errs = append(errs, validator.ValidationError{
			Field:   "recall_date",
			Message: "recall_date must be a valid date (YYYY-MM-DD)",
		})
	}
	if validator.IsEmpty(r.Reason) {
		errs = append(errs, validator.ValidationError{
			Field:   "reason",
			Message: "reason is required",
		})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

type RespondRecallRequest struct {
	RecallID         string  `json:"recall_id"`
	Decision         string  `json:"decision"` // accept / decline
	ActualReturnDate *string `json:"actual_return_date,omitempty"`
	Responder        Actor   `json:"-"`
}

func (r *RespondRecallRequest) Validate() error {
	var errs validator.ValidationErrors
	if validator.IsEmpty(r.RecallID) {
		errs = append(errs, validator.ValidationError{
			Field:   "recall_id",
			Message: "recall_id is required",
		})
	}
	if !validator.IsInSlice(r.Decision, []string{"accept", "decline"}) {
		errs = append(errs, validator.ValidationError{
			Field:   "decision",
			Message: "decision must be accept or decline",
		})
	}
	if r.ActualReturnDate != nil {
		if _, ok := validator.IsValidDate(*r.ActualReturnDate); !ok {
			errs = append(errs, validator.ValidationError{
				Field:   "actual_return_date",
				Message: "actual_return_date must be a valid date (YYYY-MM-DD)",
			})
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

type EncashmentQuoteRequest struct {
	EmployeeID  string `json:"employee_id"`
	LeaveTypeID string `json:"leave_type_id"`
	FiscalYear  int    `json:"fiscal_year"`
}

func (r *EncashmentQuoteRequest) Validate() error {
	var errs validator.ValidationErrors
	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	}
	if validator.IsEmpty(r.LeaveTypeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "leave_type_id",
			Message: "leave_type_id is required",
		})
	}
	if r.FiscalYear <= 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "fiscal_year",
			Message: "fiscal_year must be a positive integer",
		})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}
