package leave

import (
	"context"
	"errors"

	"github.com/kestrelhq/leave-backend-go/internal/domain/leave"
)

type registryServiceImpl struct {
	leaveTypeRepo leave.LeaveTypeRepository
	settingsRepo  leave.LeaveSettingsRepository
}

func NewRegistryService(
	leaveTypeRepo leave.LeaveTypeRepository,
	settingsRepo leave.LeaveSettingsRepository,
) leave.RegistryService {
	return &registryServiceImpl{
		leaveTypeRepo: leaveTypeRepo,
		settingsRepo:  settingsRepo,
	}
}

// CreateLeaveType implements leave.RegistryService.
func (s *registryServiceImpl) CreateLeaveType(ctx context.Context, req leave.CreateLeaveTypeRequest) (leave.LeaveType, error) {
	if err := req.Validate(); err != nil {
		return leave.LeaveType{}, err
	}

	gender := leave.ApplicableGender(req.ApplicableGender)
	if gender == "" {
		gender = leave.GenderAll
	}
	basis := leave.DeductionBasis(req.DeductionBasis)
	if basis == "" {
		basis = leave.DeductWorkingDays
	}

	leaveType := leave.LeaveType{
		CompanyID:             req.CompanyID,
		Name:                  req.Name,
		Code:                  req.Code,
		DefaultAllowanceDays:  req.DefaultAllowanceDays,
		IncrementDays:         req.IncrementDays,
		IncrementPeriodYears:  req.IncrementPeriodYears,
		MaxCapDays:            req.MaxCapDays,
		Accruing:              req.Accruing,
		CarryOver:             req.CarryOver,
		CarryOverExpiryMonths: req.CarryOverExpiryMonths,
		ApplicableGender:      gender,
		RequiresAttachment:    req.RequiresAttachment,
		Paid:                  req.Paid,
		DeductionBasis:        basis,
	}

	return s.leaveTypeRepo.Create(ctx, leaveType)
}

// UpdateLeaveType implements leave.RegistryService.
func (s *registryServiceImpl) UpdateLeaveType(ctx context.Context, req leave.UpdateLeaveTypeRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	return s.leaveTypeRepo.Update(ctx, req)
}

// GetLeaveType implements leave.RegistryService.
func (s *registryServiceImpl) GetLeaveType(ctx context.Context, id string) (leave.LeaveType, error) {
	return s.leaveTypeRepo.GetByID(ctx, id)
}

// ListLeaveTypes implements leave.RegistryService.
func (s *registryServiceImpl) ListLeaveTypes(ctx context.Context, companyID string) ([]leave.LeaveType, error) {
	return s.leaveTypeRepo.GetByCompanyID(ctx, companyID)
}

// DeleteLeaveType implements leave.RegistryService.
func (s *registryServiceImpl) DeleteLeaveType(ctx context.Context, id string) error {
	return s.leaveTypeRepo.Delete(ctx, id)
}

// ResolveSettings implements leave.RegistryService. A company with no stored
// row gets the documented defaults; nothing is persisted on read.
func (s *registryServiceImpl) ResolveSettings(ctx context.Context, companyID string) (leave.LeaveSettings, error) {
	settings, err := s.settingsRepo.GetByCompanyID(ctx, companyID)
	if err != nil {
		if errors.Is(err, leave.ErrSettingsNotFound) {
			return leave.DefaultSettings(companyID), nil
		}
		return leave.LeaveSettings{}, err
	}
	return settings, nil
}

// UpdateSettings implements leave.RegistryService. Partial updates start
// from the resolved settings so omitted fields keep their current values.
func (s *registryServiceImpl) UpdateSettings(ctx context.Context, req leave.UpdateLeaveSettingsRequest) (leave.LeaveSettings, error) {
	if err := req.Validate(); err != nil {
		return leave.LeaveSettings{}, err
	}

	settings, err := s.ResolveSettings(ctx, req.CompanyID)
	if err != nil {
		return leave.LeaveSettings{}, err
	}

	if req.FiscalYearStartMonth != nil {
		settings.FiscalYearStartMonth = *req.FiscalYearStartMonth
	}
	if req.AccrualBasis != nil {
		settings.AccrualBasis = leave.AccrualBasis(*req.AccrualBasis)
	}
	if req.AccrualDivisor != nil {
		settings.AccrualDivisor = *req.AccrualDivisor
	}
	if req.IncrementPeriodYears != nil {
		settings.IncrementPeriodYears = *req.IncrementPeriodYears
	}
	if req.IncrementDays != nil {
		settings.IncrementDays = *req.IncrementDays
	}
	if req.CEOApprovalRequired != nil {
		settings.CEOApprovalRequired = *req.CEOApprovalRequired
	}
	if req.EncashmentDivisor != nil {
		settings.EncashmentDivisor = *req.EncashmentDivisor
	}
	if req.EncashmentMaxDays != nil {
		settings.EncashmentMaxDays = req.EncashmentMaxDays
	}
	if req.EncashmentRounding != nil {
		settings.EncashmentRounding = leave.RoundingMode(*req.EncashmentRounding)
	}
	if req.WeeklyPattern != nil {
		settings.WeeklyPattern = *req.WeeklyPattern
	}

	if err := s.settingsRepo.Upsert(ctx, settings); err != nil {
		return leave.LeaveSettings{}, err
	}
	return settings, nil
}
