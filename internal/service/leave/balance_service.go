package leave

import (
	"context"
	"errors"
	"time"

	"github.com/kestrelhq/leave-backend-go/internal/domain/employee"
	"github.com/kestrelhq/leave-backend-go/internal/domain/leave"
)

// Transactor runs fn inside a single database transaction. Wired to
// postgresql.WithTransaction in production; tests use a passthrough.
type Transactor func(ctx context.Context, fn func(ctx context.Context) error) error

type balanceServiceImpl struct {
	tx            Transactor
	balanceRepo   leave.LeaveBalanceRepository
	leaveTypeRepo leave.LeaveTypeRepository
	settingsRepo  leave.LeaveSettingsRepository
	employeeRepo  employee.EmployeeRepository
	now           func() time.Time
}

func NewBalanceService(
	tx Transactor,
	balanceRepo leave.LeaveBalanceRepository,
	leaveTypeRepo leave.LeaveTypeRepository,
	settingsRepo leave.LeaveSettingsRepository,
	employeeRepo employee.EmployeeRepository,
) leave.BalanceService {
	return &balanceServiceImpl{
		tx:            tx,
		balanceRepo:   balanceRepo,
		leaveTypeRepo: leaveTypeRepo,
		settingsRepo:  settingsRepo,
		employeeRepo:  employeeRepo,
		now:           time.Now,
	}
}

func (s *balanceServiceImpl) resolveSettings(ctx context.Context, companyID string) (leave.LeaveSettings, error) {
	settings, err := s.settingsRepo.GetByCompanyID(ctx, companyID)
	if err != nil {
		if errors.Is(err, leave.ErrSettingsNotFound) {
			return leave.DefaultSettings(companyID), nil
		}
		return leave.LeaveSettings{}, err
	}
	return settings, nil
}

// Ensure implements leave.BalanceService. The first caller for a fiscal year
// creates the row with the carried-over opening balance; a lost creation
// race resolves by re-fetching the winner's row.
func (s *balanceServiceImpl) Ensure(ctx context.Context, employeeID, leaveTypeID string, fiscalYear int) (leave.LeaveBalance, error) {
	balance, err := s.balanceRepo.Get(ctx, employeeID, leaveTypeID, fiscalYear)
	if err == nil {
		return s.decorate(ctx, balance)
	}
	if !errors.Is(err, leave.ErrBalanceNotFound) {
		return leave.LeaveBalance{}, err
	}

	emp, err := s.employeeRepo.GetByID(ctx, employeeID)
	if err != nil {
		return leave.LeaveBalance{}, err
	}
	leaveType, err := s.leaveTypeRepo.GetByID(ctx, leaveTypeID)
	if err != nil {
		return leave.LeaveBalance{}, err
	}
	settings, err := s.resolveSettings(ctx, emp.CompanyID)
	if err != nil {
		return leave.LeaveBalance{}, err
	}

	opening, expiry, err := s.openingBalance(ctx, emp, leaveType, settings, fiscalYear)
	if err != nil {
		return leave.LeaveBalance{}, err
	}

	created, err := s.balanceRepo.Create(ctx, leave.LeaveBalance{
		EmployeeID:       employeeID,
		LeaveTypeID:      leaveTypeID,
		FiscalYear:       fiscalYear,
		TotalEntitlement: opening,
		ExpiryDate:       expiry,
	})
	if err != nil {
		if errors.Is(err, leave.ErrStoreConflict) {
			balance, err = s.balanceRepo.Get(ctx, employeeID, leaveTypeID, fiscalYear)
			if err != nil {
				return leave.LeaveBalance{}, err
			}
			return s.decorate(ctx, balance)
		}
		return leave.LeaveBalance{}, err
	}
	return s.decorate(ctx, created)
}

// openingBalance computes the carried-over days from the prior fiscal year
// and the date they expire.
func (s *balanceServiceImpl) openingBalance(ctx context.Context, emp employee.Employee, leaveType leave.LeaveType, settings leave.LeaveSettings, fiscalYear int) (float64, *time.Time, error) {
	if !leaveType.CarryOver {
		return 0, nil, nil
	}

	prior, err := s.balanceRepo.Get(ctx, emp.ID, leaveType.ID, fiscalYear-1)
	if err != nil {
		if errors.Is(err, leave.ErrBalanceNotFound) {
			return 0, nil, nil
		}
		return 0, nil, err
	}

	// Value the prior year as of its final day: a full year has accrued.
	priorEnd := settings.FiscalYearStart(fiscalYear).AddDate(0, 0, -1)
	decorated := decorateBalance(prior, emp, leaveType, settings, priorEnd)

	carried := decorated.RemainingDays
	if carried <= 0 {
		return 0, nil, nil
	}

	var expiry *time.Time
	if leaveType.CarryOverExpiryMonths > 0 {
		e := settings.FiscalYearStart(fiscalYear).AddDate(0, leaveType.CarryOverExpiryMonths, 0)
		expiry = &e
	}
	return carried, expiry, nil
}

// Get implements leave.BalanceService.
func (s *balanceServiceImpl) Get(ctx context.Context, employeeID, leaveTypeID string, fiscalYear int) (leave.LeaveBalance, error) {
	balance, err := s.balanceRepo.Get(ctx, employeeID, leaveTypeID, fiscalYear)
	if err != nil {
		return leave.LeaveBalance{}, err
	}
	return s.decorate(ctx, balance)
}

// GetByEmployeeYear implements leave.BalanceService.
func (s *balanceServiceImpl) GetByEmployeeYear(ctx context.Context, employeeID string, fiscalYear int) ([]leave.LeaveBalance, error) {
	balances, err := s.balanceRepo.GetByEmployeeYear(ctx, employeeID, fiscalYear)
	if err != nil {
		return nil, err
	}
	for i := range balances {
		balances[i], err = s.decorate(ctx, balances[i])
		if err != nil {
			return nil, err
		}
	}
	return balances, nil
}

// GetByCompanyYear implements leave.BalanceService.
func (s *balanceServiceImpl) GetByCompanyYear(ctx context.Context, companyID string, fiscalYear int) ([]leave.LeaveBalance, error) {
	balances, err := s.balanceRepo.GetByCompanyYear(ctx, companyID, fiscalYear)
	if err != nil {
		return nil, err
	}
	for i := range balances {
		balances[i], err = s.decorate(ctx, balances[i])
		if err != nil {
			return nil, err
		}
	}
	return balances, nil
}

// decorate recomputes the derived entitlement fields as of now. Nothing is
// persisted.
func (s *balanceServiceImpl) decorate(ctx context.Context, balance leave.LeaveBalance) (leave.LeaveBalance, error) {
	emp, err := s.employeeRepo.GetByID(ctx, balance.EmployeeID)
	if err != nil {
		return leave.LeaveBalance{}, err
	}
	leaveType, err := s.leaveTypeRepo.GetByID(ctx, balance.LeaveTypeID)
	if err != nil {
		return leave.LeaveBalance{}, err
	}
	settings, err := s.resolveSettings(ctx, emp.CompanyID)
	if err != nil {
		return leave.LeaveBalance{}, err
	}
	return decorateBalance(balance, emp, leaveType, settings, s.now()), nil
}

// decorateBalance is the pure core of the derived-field computation: carried
// days (zeroed once expired) plus accrued days form the effective
// entitlement; remaining is what used and pending have not consumed.
func decorateBalance(balance leave.LeaveBalance, emp employee.Employee, leaveType leave.LeaveType, settings leave.LeaveSettings, asOf time.Time) leave.LeaveBalance {
	result := Accrue(AccrualInput{
		BaseAllowance:        leaveType.DefaultAllowanceDays,
		IncrementDays:        leaveType.IncrementDays,
		IncrementPeriodYears: leaveType.IncrementPeriodYears,
		MaxCapDays:           leaveType.MaxCapDays,
		Accruing:             leaveType.Accruing,
		Basis:                settings.AccrualBasis,
		Divisor:              settings.AccrualDivisor,
		HireDate:             emp.HireDate,
		FiscalYearStart:      settings.FiscalYearStart(balance.FiscalYear),
		AsOf:                 asOf,
	})

	carried := balance.TotalEntitlement
	if balance.ExpiryDate != nil && asOf.After(*balance.ExpiryDate) {
		carried = 0
	}

	balance.AccruedDays = result.AccruedDays
	balance.EffectiveEntitlement = carried + result.AccruedDays
	remaining := balance.EffectiveEntitlement - balance.UsedDays - balance.PendingDays
	if remaining < 0 {
		// Expired carry-over can leave used days exceeding the effective
		// entitlement; the displayed remainder floors at zero.
		remaining = 0
	}
	balance.RemainingDays = remaining
	return balance
}

// Reserve implements leave.BalanceService. The availability re-check runs
// inside the guarded update so a concurrent reservation cannot overdraw.
func (s *balanceServiceImpl) Reserve(ctx context.Context, employeeID, leaveTypeID string, fiscalYear int, days float64) error {
	return s.tx(ctx, func(ctx context.Context) error {
		balance, err := s.Ensure(ctx, employeeID, leaveTypeID, fiscalYear)
		if err != nil {
			return err
		}
		if err := s.balanceRepo.AddPending(ctx, balance.ID, days, balance.EffectiveEntitlement); err != nil {
			if errors.Is(err, leave.ErrInsufficientBalance) {
				return leave.NewInsufficientBalance(balance.RemainingDays, days)
			}
			return err
		}
		return nil
	})
}

// Commit implements leave.BalanceService.
func (s *balanceServiceImpl) Commit(ctx context.Context, employeeID, leaveTypeID string, fiscalYear int, days float64) error {
	return s.tx(ctx, func(ctx context.Context) error {
		balance, err := s.balanceRepo.Get(ctx, employeeID, leaveTypeID, fiscalYear)
		if err != nil {
			return err
		}
		return s.balanceRepo.MovePendingToUsed(ctx, balance.ID, days)
	})
}

// Release implements leave.BalanceService.
func (s *balanceServiceImpl) Release(ctx context.Context, employeeID, leaveTypeID string, fiscalYear int, days float64) error {
	return s.tx(ctx, func(ctx context.Context) error {
		balance, err := s.balanceRepo.Get(ctx, employeeID, leaveTypeID, fiscalYear)
		if err != nil {
			return err
		}
		return s.balanceRepo.RemovePending(ctx, balance.ID, days)
	})
}

// Refund implements leave.BalanceService.
func (s *balanceServiceImpl) Refund(ctx context.Context, employeeID, leaveTypeID string, fiscalYear int, days float64) error {
	return s.tx(ctx, func(ctx context.Context) error {
		balance, err := s.balanceRepo.Get(ctx, employeeID, leaveTypeID, fiscalYear)
		if err != nil {
			return err
		}
		return s.balanceRepo.RefundUsed(ctx, balance.ID, days)
	})
}

// Adjust implements leave.BalanceService. Administrative corrections; a
// subtraction may not undercut days already used.
func (s *balanceServiceImpl) Adjust(ctx context.Context, req leave.AdjustBalanceRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	delta := req.Days
	if req.Direction == "subtract" {
		delta = -delta
	}

	return s.tx(ctx, func(ctx context.Context) error {
		balance, err := s.Ensure(ctx, req.EmployeeID, req.LeaveTypeID, req.FiscalYear)
		if err != nil {
			return err
		}
		return s.balanceRepo.AdjustEntitlement(ctx, balance.ID, delta)
	})
}
