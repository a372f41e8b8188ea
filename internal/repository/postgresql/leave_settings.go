package postgresql

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/kestrelhq/leave-backend-go/internal/domain/leave"
	"github.com/kestrelhq/leave-backend-go/internal/pkg/database"
)

type leaveSettingsRepositoryImpl struct {
	db *database.DB
}

func NewLeaveSettingsRepository(db *database.DB) leave.LeaveSettingsRepository {
	return &leaveSettingsRepositoryImpl{db: db}
}

// GetByCompanyID implements leave.LeaveSettingsRepository.
func (r *leaveSettingsRepositoryImpl) GetByCompanyID(ctx context.Context, companyID string) (leave.LeaveSettings, error) {
	q := GetQuerier(ctx, r.db)
	query := `
		SELECT company_id, fiscal_year_start_month, accrual_basis, accrual_divisor,
		       increment_period_years, increment_days, ceo_approval_required,
		       encashment_divisor, encashment_max_days, encashment_rounding,
		       weekly_pattern, created_at, updated_at
		FROM leave_settings
		WHERE company_id = $1
	`

	var s leave.LeaveSettings
	err := q.QueryRow(ctx, query, companyID).Scan(
		&s.CompanyID, &s.FiscalYearStartMonth, &s.AccrualBasis, &s.AccrualDivisor,
		&s.IncrementPeriodYears, &s.IncrementDays, &s.CEOApprovalRequired,
		&s.EncashmentDivisor, &s.EncashmentMaxDays, &s.EncashmentRounding,
		&s.WeeklyPattern, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return leave.LeaveSettings{}, leave.ErrSettingsNotFound
		}
		return leave.LeaveSettings{}, err
	}
	return s, nil
}

// Upsert implements leave.LeaveSettingsRepository. One row per company.
func (r *leaveSettingsRepositoryImpl) Upsert(ctx context.Context, settings leave.LeaveSettings) error {
	q := GetQuerier(ctx, r.db)
	query := `
		INSERT INTO leave_settings (
			company_id, fiscal_year_start_month, accrual_basis, accrual_divisor,
			increment_period_years, increment_days, ceo_approval_required,
			encashment_divisor, encashment_max_days, encashment_rounding,
			weekly_pattern, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
		ON CONFLICT (company_id) DO UPDATE SET
			fiscal_year_start_month = EXCLUDED.fiscal_year_start_month,
			accrual_basis = EXCLUDED.accrual_basis,
			accrual_divisor = EXCLUDED.accrual_divisor,
			increment_period_years = EXCLUDED.increment_period_years,
			increment_days = EXCLUDED.increment_days,
			ceo_approval_required = EXCLUDED.ceo_approval_required,
			encashment_divisor = EXCLUDED.encashment_divisor,
			encashment_max_days = EXCLUDED.encashment_max_days,
			encashment_rounding = EXCLUDED.encashment_rounding,
			weekly_pattern = EXCLUDED.weekly_pattern,
			updated_at = NOW()
	`

	_, err := q.Exec(ctx, query,
		settings.CompanyID, settings.FiscalYearStartMonth, settings.AccrualBasis, settings.AccrualDivisor,
		settings.IncrementPeriodYears, settings.IncrementDays, settings.CEOApprovalRequired,
		settings.EncashmentDivisor, settings.EncashmentMaxDays, settings.EncashmentRounding,
		settings.WeeklyPattern,
	)
	return err
}
