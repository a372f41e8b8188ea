package postgresql

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/kestrelhq/leave-backend-go/internal/domain/leave"
	"github.com/kestrelhq/leave-backend-go/internal/pkg/database"
)

type leaveBalanceRepositoryImpl struct {
	db *database.DB
}

func NewLeaveBalanceRepository(db *database.DB) leave.LeaveBalanceRepository {
	return &leaveBalanceRepositoryImpl{db: db}
}

const leaveBalanceColumns = `id, employee_id, leave_type_id, fiscal_year,
	   total_entitlement, used_days, pending_days, expiry_date,
	   created_at, updated_at`

func scanLeaveBalance(row pgx.Row) (leave.LeaveBalance, error) {
	var b leave.LeaveBalance
	err := row.Scan(
		&b.ID, &b.EmployeeID, &b.LeaveTypeID, &b.FiscalYear,
		&b.TotalEntitlement, &b.UsedDays, &b.PendingDays, &b.ExpiryDate,
		&b.CreatedAt, &b.UpdatedAt,
	)
	return b, err
}

// Create implements leave.LeaveBalanceRepository. A concurrent first-time
// creation for the same (employee, leave type, fiscal year) loses the race
// on the unique index and surfaces ErrStoreConflict; callers re-fetch.
func (r *leaveBalanceRepositoryImpl) Create(ctx context.Context, balance leave.LeaveBalance) (leave.LeaveBalance, error) {
	q := GetQuerier(ctx, r.db)
	query := `
		INSERT INTO leave_balances (
			id, employee_id, leave_type_id, fiscal_year,
			total_entitlement, used_days, pending_days, expiry_date,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	balance.ID = uuid.NewString()
	err := q.QueryRow(ctx, query,
		balance.ID, balance.EmployeeID, balance.LeaveTypeID, balance.FiscalYear,
		balance.TotalEntitlement, balance.UsedDays, balance.PendingDays, balance.ExpiryDate,
	).Scan(&balance.CreatedAt, &balance.UpdatedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			return leave.LeaveBalance{}, leave.ErrStoreConflict
		}
		return leave.LeaveBalance{}, err
	}
	return balance, nil
}

// Get implements leave.LeaveBalanceRepository.
func (r *leaveBalanceRepositoryImpl) Get(ctx context.Context, employeeID, leaveTypeID string, fiscalYear int) (leave.LeaveBalance, error) {
	q := GetQuerier(ctx, r.db)
	query := `SELECT ` + leaveBalanceColumns + `
		FROM leave_balances
		WHERE employee_id = $1 AND leave_type_id = $2 AND fiscal_year = $3`

	b, err := scanLeaveBalance(q.QueryRow(ctx, query, employeeID, leaveTypeID, fiscalYear))
	if err != nil {
		if err == pgx.ErrNoRows {
			return leave.LeaveBalance{}, leave.ErrBalanceNotFound
		}
		return leave.LeaveBalance{}, err
	}
	return b, nil
}

// GetByID implements leave.LeaveBalanceRepository.
func (r *leaveBalanceRepositoryImpl) GetByID(ctx context.Context, id string) (leave.LeaveBalance, error) {
	q := GetQuerier(ctx, r.db)
	query := `SELECT ` + leaveBalanceColumns + ` FROM leave_balances WHERE id = $1`

	b, err := scanLeaveBalance(q.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return leave.LeaveBalance{}, leave.ErrBalanceNotFound
		}
		return leave.LeaveBalance{}, err
	}
	return b, nil
}

// GetByEmployeeYear implements leave.LeaveBalanceRepository.
func (r *leaveBalanceRepositoryImpl) GetByEmployeeYear(ctx context.Context, employeeID string, fiscalYear int) ([]leave.LeaveBalance, error) {
	q := GetQuerier(ctx, r.db)
	query := `SELECT ` + leaveBalanceColumns + `
		FROM leave_balances
		WHERE employee_id = $1 AND fiscal_year = $2
		ORDER BY leave_type_id`

	rows, err := q.Query(ctx, query, employeeID, fiscalYear)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectBalances(rows)
}

// GetByCompanyYear implements leave.LeaveBalanceRepository.
func (r *leaveBalanceRepositoryImpl) GetByCompanyYear(ctx context.Context, companyID string, fiscalYear int) ([]leave.LeaveBalance, error) {
	q := GetQuerier(ctx, r.db)
	query := `
		SELECT b.id, b.employee_id, b.leave_type_id, b.fiscal_year,
		       b.total_entitlement, b.used_days, b.pending_days, b.expiry_date,
		       b.created_at, b.updated_at
		FROM leave_balances b
		JOIN employees e ON e.id = b.employee_id
		WHERE e.company_id = $1 AND b.fiscal_year = $2
		ORDER BY b.employee_id, b.leave_type_id
	`

	rows, err := q.Query(ctx, query, companyID, fiscalYear)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectBalances(rows)
}

func collectBalances(rows pgx.Rows) ([]leave.LeaveBalance, error) {
	balances := make([]leave.LeaveBalance, 0)
	for rows.Next() {
		b, err := scanLeaveBalance(rows)
		if err != nil {
			return nil, err
		}
		balances = append(balances, b)
	}
	return balances, rows.Err()
}

// AddPending implements leave.LeaveBalanceRepository. The availability check
// is part of the UPDATE predicate so a concurrent reservation cannot slip
// past it; effectiveEntitlement is computed by the caller as of now.
func (r *leaveBalanceRepositoryImpl) AddPending(ctx context.Context, balanceID string, days, effectiveEntitlement float64) error {
	q := GetQuerier(ctx, r.db)
	query := `
		UPDATE leave_balances
		SET pending_days = pending_days + $2, updated_at = NOW()
		WHERE id = $1
		  AND $3 - used_days - pending_days >= $2
	`

	commandTag, err := q.Exec(ctx, query, balanceID, days, effectiveEntitlement)
	if err != nil {
		return err
	}
	if commandTag.RowsAffected() != 1 {
		return leave.ErrInsufficientBalance
	}
	return nil
}

// MovePendingToUsed implements leave.LeaveBalanceRepository.
func (r *leaveBalanceRepositoryImpl) MovePendingToUsed(ctx context.Context, balanceID string, days float64) error {
	q := GetQuerier(ctx, r.db)
	query := `
		UPDATE leave_balances
		SET pending_days = pending_days - $2,
		    used_days = used_days + $2,
		    updated_at = NOW()
		WHERE id = $1 AND pending_days >= $2
	`

	commandTag, err := q.Exec(ctx, query, balanceID, days)
	if err != nil {
		return err
	}
	if commandTag.RowsAffected() != 1 {
		return leave.ErrStoreConflict
	}
	return nil
}

// RemovePending implements leave.LeaveBalanceRepository.
func (r *leaveBalanceRepositoryImpl) RemovePending(ctx context.Context, balanceID string, days float64) error {
	q := GetQuerier(ctx, r.db)
	query := `
		UPDATE leave_balances
		SET pending_days = pending_days - $2, updated_at = NOW()
		WHERE id = $1 AND pending_days >= $2
	`

	commandTag, err := q.Exec(ctx, query, balanceID, days)
	if err != nil {
		return err
	}
	if commandTag.RowsAffected() != 1 {
		return leave.ErrStoreConflict
	}
	return nil
}

// RefundUsed implements leave.LeaveBalanceRepository.
func (r *leaveBalanceRepositoryImpl) RefundUsed(ctx context.Context, balanceID string, days float64) error {
	q := GetQuerier(ctx, r.db)
	query := `
		UPDATE leave_balances
		SET used_days = used_days - $2, updated_at = NOW()
		WHERE id = $1 AND used_days >= $2
	`

	commandTag, err := q.Exec(ctx, query, balanceID, days)
	if err != nil {
		return err
	}
	if commandTag.RowsAffected() != 1 {
		return leave.ErrStoreConflict
	}
	return nil
}

// AdjustEntitlement implements leave.LeaveBalanceRepository. A negative delta
// may not push the entitlement below what the employee has already used.
func (r *leaveBalanceRepositoryImpl) AdjustEntitlement(ctx context.Context, balanceID string, delta float64) error {
	q := GetQuerier(ctx, r.db)
	query := `
		UPDATE leave_balances
		SET total_entitlement = total_entitlement + $2, updated_at = NOW()
		WHERE id = $1
		  AND total_entitlement + $2 >= used_days
	`

	commandTag, err := q.Exec(ctx, query, balanceID, delta)
	if err != nil {
		return err
	}
	if commandTag.RowsAffected() != 1 {
		return leave.ErrAdjustBelowUsed
	}
	return nil
}
