package postgresql

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/kestrelhq/leave-backend-go/internal/domain/leave"
	"github.com/kestrelhq/leave-backend-go/internal/pkg/database"
)

type unpaidUsageRepositoryImpl struct {
	db *database.DB
}

func NewUnpaidUsageRepository(db *database.DB) leave.UnpaidUsageRepository {
	return &unpaidUsageRepositoryImpl{db: db}
}

// Get implements leave.UnpaidUsageRepository. A missing row means the
// employee has not used unpaid leave this fiscal year.
func (r *unpaidUsageRepositoryImpl) Get(ctx context.Context, employeeID, companyID string, fiscalYear int) (leave.UnpaidLeaveUsage, error) {
	q := GetQuerier(ctx, r.db)
	query := `
		SELECT id, employee_id, company_id, fiscal_year, usage_count, updated_at
		FROM unpaid_leave_usages
		WHERE employee_id = $1 AND company_id = $2 AND fiscal_year = $3
	`

	var u leave.UnpaidLeaveUsage
	err := q.QueryRow(ctx, query, employeeID, companyID, fiscalYear).Scan(
		&u.ID, &u.EmployeeID, &u.CompanyID, &u.FiscalYear, &u.UsageCount, &u.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return leave.UnpaidLeaveUsage{
				EmployeeID: employeeID,
				CompanyID:  companyID,
				FiscalYear: fiscalYear,
				UsageCount: 0,
			}, nil
		}
		return leave.UnpaidLeaveUsage{}, err
	}
	return u, nil
}

// Increment implements leave.UnpaidUsageRepository. The cap check rides on
// the upsert's WHERE clause so concurrent approvals cannot exceed it.
func (r *unpaidUsageRepositoryImpl) Increment(ctx context.Context, employeeID, companyID string, fiscalYear int) error {
	q := GetQuerier(ctx, r.db)
	query := `
		INSERT INTO unpaid_leave_usages (
			id, employee_id, company_id, fiscal_year, usage_count, updated_at
		) VALUES ($1, $2, $3, $4, 1, NOW())
		ON CONFLICT (employee_id, company_id, fiscal_year) DO UPDATE
		SET usage_count = unpaid_leave_usages.usage_count + 1, updated_at = NOW()
		WHERE unpaid_leave_usages.usage_count < $5
	`

	commandTag, err := q.Exec(ctx, query,
		uuid.NewString(), employeeID, companyID, fiscalYear, leave.UnpaidMaxUsesPerFiscalYear,
	)
	if err != nil {
		return err
	}
	if commandTag.RowsAffected() != 1 {
		return leave.ErrUnpaidLimitExceeded
	}
	return nil
}
