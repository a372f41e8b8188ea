package leave

import (
	"github.com/kestrelhq/leave-backend-go/internal/domain/leave"
	"github.com/shopspring/decimal"
)

// EncashmentInput is the pure input of a cash valuation of unused leave.
type EncashmentInput struct {
	RemainingDays float64
	MonthlySalary decimal.Decimal
	Divisor       int
	MaxDays       *float64
	Rounding      leave.RoundingMode
}

// EncashmentResult is advisory: no ledger row changes when a quote is made.
type EncashmentResult struct {
	EligibleDays float64
	DailyRate    decimal.Decimal
	CashValue    decimal.Decimal
}

// CashValue prices the encashable portion of a balance. Eligible days are
// the remaining days capped by policy; the daily rate is the monthly salary
// over the policy divisor. Money is rounded to 2 decimal places using the
// policy rounding mode.
func CashValue(in EncashmentInput) EncashmentResult {
	eligible := in.RemainingDays
	if eligible < 0 {
		eligible = 0
	}
	if in.MaxDays != nil && eligible > *in.MaxDays {
		eligible = *in.MaxDays
	}

	divisor := in.Divisor
	if divisor <= 0 {
		divisor = leave.DefaultEncashmentDivisor
	}

	rate := in.MonthlySalary.Div(decimal.NewFromInt(int64(divisor)))
	value := rate.Mul(decimal.NewFromFloat(eligible))

	return EncashmentResult{
		EligibleDays: eligible,
		DailyRate:    roundMoney(rate, in.Rounding),
		CashValue:    roundMoney(value, in.Rounding),
	}
}

func roundMoney(d decimal.Decimal, mode leave.RoundingMode) decimal.Decimal {
	switch mode {
	case leave.RoundFloor:
		return d.RoundFloor(2)
	case leave.RoundCeil:
		return d.RoundCeil(2)
	default:
		return d.Round(2)
	}
}
