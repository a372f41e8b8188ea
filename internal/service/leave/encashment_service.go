package leave

import (
	"context"
	"errors"
	"time"

	"github.com/kestrelhq/leave-backend-go/internal/domain/employee"
	"github.com/kestrelhq/leave-backend-go/internal/domain/leave"
)

type encashmentServiceImpl struct {
	balanceService leave.BalanceService
	leaveTypeRepo  leave.LeaveTypeRepository
	settingsRepo   leave.LeaveSettingsRepository
	employeeRepo   employee.EmployeeRepository
	now            func() time.Time
}

func NewEncashmentService(
	balanceService leave.BalanceService,
	leaveTypeRepo leave.LeaveTypeRepository,
	settingsRepo leave.LeaveSettingsRepository,
	employeeRepo employee.EmployeeRepository,
) leave.EncashmentService {
	return &encashmentServiceImpl{
		balanceService: balanceService,
		leaveTypeRepo:  leaveTypeRepo,
		settingsRepo:   settingsRepo,
		employeeRepo:   employeeRepo,
		now:            time.Now,
	}
}

// Quote implements leave.EncashmentService. Unpaid leave types carry no
// entitlement and cannot be encashed. The quote reads the ledger but never
// writes it.
func (s *encashmentServiceImpl) Quote(ctx context.Context, req leave.EncashmentQuoteRequest) (leave.EncashmentQuote, error) {
	if err := req.Validate(); err != nil {
		return leave.EncashmentQuote{}, err
	}

	leaveType, err := s.leaveTypeRepo.GetByID(ctx, req.LeaveTypeID)
	if err != nil {
		return leave.EncashmentQuote{}, err
	}
	if !leaveType.Paid {
		return leave.EncashmentQuote{}, leave.ErrNotEncashable
	}

	emp, err := s.employeeRepo.GetByID(ctx, req.EmployeeID)
	if err != nil {
		return leave.EncashmentQuote{}, err
	}
	if emp.MonthlySalary == nil {
		return leave.EncashmentQuote{}, leave.ErrNoSalaryOnRecord
	}

	settings, err := s.settingsRepo.GetByCompanyID(ctx, emp.CompanyID)
	if err != nil {
		if errors.Is(err, leave.ErrSettingsNotFound) {
			settings = leave.DefaultSettings(emp.CompanyID)
		} else {
			return leave.EncashmentQuote{}, err
		}
	}

	balance, err := s.balanceService.Get(ctx, req.EmployeeID, req.LeaveTypeID, req.FiscalYear)
	if err != nil {
		return leave.EncashmentQuote{}, err
	}

	result := CashValue(EncashmentInput{
		RemainingDays: balance.RemainingDays,
		MonthlySalary: *emp.MonthlySalary,
		Divisor:       settings.EncashmentDivisor,
		MaxDays:       settings.EncashmentMaxDays,
		Rounding:      settings.EncashmentRounding,
	})

	return leave.EncashmentQuote{
		EligibleDays: result.EligibleDays,
		DailyRate:    result.DailyRate.StringFixed(2),
		CashValue:    result.CashValue.StringFixed(2),
		QuotedAt:     s.now(),
	}, nil
}
