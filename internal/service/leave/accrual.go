package leave

import (
	"time"

	"github.com/kestrelhq/leave-backend-go/internal/domain/leave"
	"github.com/shopspring/decimal"
)

// AccrualInput is everything the accrual calculation depends on. It is
// assembled by the balance service from the leave type, company settings
// and employee record.
type AccrualInput struct {
	BaseAllowance        float64
	IncrementDays        float64
	IncrementPeriodYears int
	MaxCapDays           *float64
	Accruing             bool

	Basis   leave.AccrualBasis
	Divisor int

	HireDate        time.Time
	FiscalYearStart time.Time
	AsOf            time.Time
}

// AccrualResult carries the computed entitlement figures. AccruedDays never
// exceeds AnnualEntitlement; TenureBonusDays is the cap-adjusted increment
// share of the annual figure.
type AccrualResult struct {
	AnnualEntitlement float64
	DailyRate         float64
	AccruedDays       float64
	TenureBonusDays   float64
	DaysInPeriod      int
	PeriodStart       time.Time
}

// Accrue computes the annual entitlement for the employee's tenure and the
// portion of it earned so far in the current accrual period. Non-accruing
// types grant the full annual entitlement up front.
func Accrue(in AccrualInput) AccrualResult {
	annual := AnnualEntitlement(in.BaseAllowance, in.IncrementDays, in.IncrementPeriodYears, in.MaxCapDays, in.HireDate, in.AsOf)

	divisor := in.Divisor
	if divisor <= 0 {
		divisor = leave.DefaultAccrualDivisor
	}

	annualDec := decimal.NewFromFloat(annual)
	rate := annualDec.Div(decimal.NewFromInt(int64(divisor)))

	bonus := annual - in.BaseAllowance
	if bonus < 0 {
		bonus = 0
	}

	periodStart := accrualPeriodStart(in)
	elapsed := daysBetween(periodStart, in.AsOf)
	if elapsed < 0 {
		elapsed = 0
	}

	result := AccrualResult{
		AnnualEntitlement: annual,
		TenureBonusDays:   bonus,
		DaysInPeriod:      elapsed,
		PeriodStart:       periodStart,
	}
	result.DailyRate, _ = rate.Round(6).Float64()

	if !in.Accruing {
		result.AccruedDays = annual
		return result
	}

	accrued := rate.Mul(decimal.NewFromInt(int64(elapsed)))
	if accrued.GreaterThan(annualDec) {
		accrued = annualDec
	}
	result.AccruedDays, _ = accrued.Round(4).Float64()
	return result
}

// AnnualEntitlement returns the base allowance plus one increment per
// completed increment period of service, clamped to the cap when set.
func AnnualEntitlement(base, incrementDays float64, incrementPeriodYears int, maxCap *float64, hireDate, asOf time.Time) float64 {
	entitlement := decimal.NewFromFloat(base)

	if incrementDays > 0 && incrementPeriodYears > 0 {
		years := completedServiceYears(hireDate, asOf)
		steps := years / incrementPeriodYears
		if steps > 0 {
			bump := decimal.NewFromFloat(incrementDays).Mul(decimal.NewFromInt(int64(steps)))
			entitlement = entitlement.Add(bump)
		}
	}

	if maxCap != nil {
		cap := decimal.NewFromFloat(*maxCap)
		if entitlement.GreaterThan(cap) {
			entitlement = cap
		}
	}

	f, _ := entitlement.Float64()
	return f
}

// accrualPeriodStart returns the date the current accrual period opened:
// the most recent hire anniversary, or the fiscal year start.
func accrualPeriodStart(in AccrualInput) time.Time {
	if in.Basis == leave.BasisCalendarYear {
		return in.FiscalYearStart
	}
	return lastAnniversary(in.HireDate, in.AsOf)
}

// lastAnniversary returns the most recent anniversary of hireDate at or
// before asOf. Feb 29 anniversaries resolve to Mar 1 in non-leap years.
func lastAnniversary(hireDate, asOf time.Time) time.Time {
	anniversary := time.Date(asOf.Year(), hireDate.Month(), hireDate.Day(), 0, 0, 0, 0, time.UTC)
	if anniversary.After(truncateDay(asOf)) {
		anniversary = anniversary.AddDate(-1, 0, 0)
	}
	return anniversary
}

// completedServiceYears counts whole years of service as of asOf.
func completedServiceYears(hireDate, asOf time.Time) int {
	years := asOf.Year() - hireDate.Year()
	anniversary := hireDate.AddDate(years, 0, 0)
	if anniversary.After(truncateDay(asOf)) {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}

func daysBetween(from, to time.Time) int {
	return int(truncateDay(to).Sub(truncateDay(from)) / (24 * time.Hour))
}
