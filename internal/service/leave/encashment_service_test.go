package leave

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kestrelhq/leave-backend-go/internal/domain/employee"
	"github.com/kestrelhq/leave-backend-go/internal/domain/leave"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEncashmentFixture(t *testing.T, salary *decimal.Decimal, types ...leave.LeaveType) (leave.EncashmentService, leave.BalanceService) {
	t.Helper()

	empRepo := newFakeEmployeeRepo(employee.Employee{
		ID: "emp-1", CompanyID: "co-1", FullName: "Ada Staff", Email: "ada@example.com",
		Gender: employee.Female, HireDate: date(2020, time.January, 1),
		EmploymentLevel: employee.LevelStaff, MonthlySalary: salary, Active: true,
	})
	typeRepo := newFakeLeaveTypeRepo(types...)
	settingsRepo := newFakeSettingsRepo()
	balanceRepo := newFakeBalanceRepo()

	now := date(2026, time.March, 2)
	balanceSvc := NewBalanceService(passthroughTx, balanceRepo, typeRepo, settingsRepo, empRepo)
	balanceSvc.(*balanceServiceImpl).now = func() time.Time { return now }

	svc := NewEncashmentService(balanceSvc, typeRepo, settingsRepo, empRepo)
	svc.(*encashmentServiceImpl).now = func() time.Time { return now }
	return svc, balanceSvc
}

func TestEncashmentQuote(t *testing.T) {
	ctx := context.Background()
	salary := decimal.NewFromInt(3000)

	t.Run("values the remaining balance without mutating it", func(t *testing.T) {
		svc, balanceSvc := newEncashmentFixture(t, &salary, annualLeaveType())

		_, err := balanceSvc.Ensure(ctx, "emp-1", "lt-annual", 2026)
		require.NoError(t, err)
		require.NoError(t, balanceSvc.Reserve(ctx, "emp-1", "lt-annual", 2026, 5))
		require.NoError(t, balanceSvc.Commit(ctx, "emp-1", "lt-annual", 2026, 5))

		quote, err := svc.Quote(ctx, leave.EncashmentQuoteRequest{
			EmployeeID: "emp-1", LeaveTypeID: "lt-annual", FiscalYear: 2026,
		})
		require.NoError(t, err)

		// 16 entitled minus 5 used, at 3000/30 per day.
		assert.Equal(t, 11.0, quote.EligibleDays)
		assert.Equal(t, "100.00", quote.DailyRate)
		assert.Equal(t, "1100.00", quote.CashValue)

		balance, err := balanceSvc.Get(ctx, "emp-1", "lt-annual", 2026)
		require.NoError(t, err)
		assert.Equal(t, 5.0, balance.UsedDays)
		assert.Equal(t, 11.0, balance.RemainingDays)
	})

	t.Run("unpaid types are not encashable", func(t *testing.T) {
		svc, _ := newEncashmentFixture(t, &salary, unpaidLeaveType())

		_, err := svc.Quote(ctx, leave.EncashmentQuoteRequest{
			EmployeeID: "emp-1", LeaveTypeID: "lt-unpaid", FiscalYear: 2026,
		})
		assert.True(t, errors.Is(err, leave.ErrNotEncashable))
	})

	t.Run("requires a salary on record", func(t *testing.T) {
		svc, balanceSvc := newEncashmentFixture(t, nil, annualLeaveType())

		_, err := balanceSvc.Ensure(ctx, "emp-1", "lt-annual", 2026)
		require.NoError(t, err)

		_, err = svc.Quote(ctx, leave.EncashmentQuoteRequest{
			EmployeeID: "emp-1", LeaveTypeID: "lt-annual", FiscalYear: 2026,
		})
		assert.True(t, errors.Is(err, leave.ErrNoSalaryOnRecord))
	})
}
