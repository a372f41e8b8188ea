package leave

import (
	"testing"

	"github.com/kestrelhq/leave-backend-go/internal/domain/leave"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCashValue(t *testing.T) {
	maxThree := 3.0

	tests := []struct {
		name          string
		in            EncashmentInput
		wantEligible  float64
		wantDailyRate string
		wantCashValue string
	}{
		{
			name: "plain valuation",
			in: EncashmentInput{
				RemainingDays: 5.5,
				MonthlySalary: decimal.NewFromInt(3000),
				Divisor:       30,
				Rounding:      leave.RoundNearest,
			},
			wantEligible:  5.5,
			wantDailyRate: "100.00",
			wantCashValue: "550.00",
		},
		{
			name: "policy cap limits eligible days",
			in: EncashmentInput{
				RemainingDays: 5.5,
				MonthlySalary: decimal.NewFromInt(3000),
				Divisor:       30,
				MaxDays:       &maxThree,
				Rounding:      leave.RoundNearest,
			},
			wantEligible:  3,
			wantDailyRate: "100.00",
			wantCashValue: "300.00",
		},
		{
			name: "negative remaining yields zero",
			in: EncashmentInput{
				RemainingDays: -2,
				MonthlySalary: decimal.NewFromInt(3000),
				Divisor:       30,
				Rounding:      leave.RoundNearest,
			},
			wantEligible:  0,
			wantDailyRate: "100.00",
			wantCashValue: "0.00",
		},
		{
			name: "floor rounding",
			in: EncashmentInput{
				RemainingDays: 1,
				MonthlySalary: decimal.NewFromInt(1000),
				Divisor:       3,
				Rounding:      leave.RoundFloor,
			},
			wantEligible:  1,
			wantDailyRate: "333.33",
			wantCashValue: "333.33",
		},
		{
			name: "ceil rounding",
			in: EncashmentInput{
				RemainingDays: 1,
				MonthlySalary: decimal.NewFromInt(1000),
				Divisor:       3,
				Rounding:      leave.RoundCeil,
			},
			wantEligible:  1,
			wantDailyRate: "333.34",
			wantCashValue: "333.34",
		},
		{
			name: "zero divisor falls back to the default",
			in: EncashmentInput{
				RemainingDays: 1,
				MonthlySalary: decimal.NewFromInt(3000),
				Rounding:      leave.RoundNearest,
			},
			wantEligible:  1,
			wantDailyRate: "100.00",
			wantCashValue: "100.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CashValue(tt.in)
			assert.Equal(t, tt.wantEligible, got.EligibleDays)
			assert.Equal(t, tt.wantDailyRate, got.DailyRate.StringFixed(2))
			assert.Equal(t, tt.wantCashValue, got.CashValue.StringFixed(2))
		})
	}
}
