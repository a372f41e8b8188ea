package postgresql

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/kestrelhq/leave-backend-go/internal/domain/leave"
	"github.com/kestrelhq/leave-backend-go/internal/pkg/database"
)

type leaveTypeRepositoryImpl struct {
	db *database.DB
}

func NewLeaveTypeRepository(db *database.DB) leave.LeaveTypeRepository {
	return &leaveTypeRepositoryImpl{db: db}
}

const leaveTypeColumns = `id, company_id, name, code,
	   default_allowance_days, increment_days, increment_period_years, max_cap_days, accruing,
	   carry_over, carry_over_expiry_months,
	   applicable_gender, requires_attachment, paid, deduction_basis,
	   created_at, updated_at`

func scanLeaveType(row pgx.Row) (leave.LeaveType, error) {
	var t leave.LeaveType
	err := row.Scan(
		&t.ID, &t.CompanyID, &t.Name, &t.Code,
		&t.DefaultAllowanceDays, &t.IncrementDays, &t.IncrementPeriodYears, &t.MaxCapDays, &t.Accruing,
		&t.CarryOver, &t.CarryOverExpiryMonths,
		&t.ApplicableGender, &t.RequiresAttachment, &t.Paid, &t.DeductionBasis,
		&t.CreatedAt, &t.UpdatedAt,
	)
	return t, err
}

// Create implements leave.LeaveTypeRepository.
func (r *leaveTypeRepositoryImpl) Create(ctx context.Context, leaveType leave.LeaveType) (leave.LeaveType, error) {
	q := GetQuerier(ctx, r.db)
	query := `
		INSERT INTO leave_types (
			id, company_id, name, code,
			default_allowance_days, increment_days, increment_period_years, max_cap_days, accruing,
			carry_over, carry_over_expiry_months,
			applicable_gender, requires_attachment, paid, deduction_basis,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7, $8, $9,
			$10, $11,
			$12, $13, $14, $15,
			NOW(), NOW()
		) RETURNING id, created_at, updated_at
	`

	leaveType.ID = uuid.NewString()
	err := q.QueryRow(ctx, query,
		leaveType.ID, leaveType.CompanyID, leaveType.Name, leaveType.Code,
		leaveType.DefaultAllowanceDays, leaveType.IncrementDays, leaveType.IncrementPeriodYears, leaveType.MaxCapDays, leaveType.Accruing,
		leaveType.CarryOver, leaveType.CarryOverExpiryMonths,
		leaveType.ApplicableGender, leaveType.RequiresAttachment, leaveType.Paid, leaveType.DeductionBasis,
	).Scan(&leaveType.ID, &leaveType.CreatedAt, &leaveType.UpdatedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			return leave.LeaveType{}, leave.ErrDuplicateLeaveTypeCode
		}
		return leave.LeaveType{}, err
	}

	return leaveType, nil
}

// GetByID implements leave.LeaveTypeRepository.
func (r *leaveTypeRepositoryImpl) GetByID(ctx context.Context, id string) (leave.LeaveType, error) {
	q := GetQuerier(ctx, r.db)
	query := `SELECT ` + leaveTypeColumns + ` FROM leave_types WHERE id = $1`

	t, err := scanLeaveType(q.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return leave.LeaveType{}, leave.ErrLeaveTypeNotFound
		}
		return leave.LeaveType{}, err
	}
	return t, nil
}

// GetByCode implements leave.LeaveTypeRepository.
func (r *leaveTypeRepositoryImpl) GetByCode(ctx context.Context, companyID, code string) (leave.LeaveType, error) {
	q := GetQuerier(ctx, r.db)
	query := `SELECT ` + leaveTypeColumns + ` FROM leave_types WHERE company_id = $1 AND code = $2`

	t, err := scanLeaveType(q.QueryRow(ctx, query, companyID, code))
	if err != nil {
		if err == pgx.ErrNoRows {
			return leave.LeaveType{}, leave.ErrLeaveTypeNotFound
		}
		return leave.LeaveType{}, err
	}
	return t, nil
}

// GetByCompanyID implements leave.LeaveTypeRepository.
func (r *leaveTypeRepositoryImpl) GetByCompanyID(ctx context.Context, companyID string) ([]leave.LeaveType, error) {
	q := GetQuerier(ctx, r.db)
	query := `SELECT ` + leaveTypeColumns + ` FROM leave_types WHERE company_id = $1 ORDER BY name`

	rows, err := q.Query(ctx, query, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	types := make([]leave.LeaveType, 0)
	for rows.Next() {
		t, err := scanLeaveType(rows)
		if err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, rows.Err()
}

// Update implements leave.LeaveTypeRepository.
func (r *leaveTypeRepositoryImpl) Update(ctx context.Context, req leave.UpdateLeaveTypeRequest) error {
	q := GetQuerier(ctx, r.db)

	updates := make(map[string]interface{})

	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.DefaultAllowanceDays != nil {
		updates["default_allowance_days"] = *req.DefaultAllowanceDays
	}
	if req.IncrementDays != nil {
		updates["increment_days"] = *req.IncrementDays
	}
	if req.IncrementPeriodYears != nil {
		updates["increment_period_years"] = *req.IncrementPeriodYears
	}
	if req.MaxCapDays != nil {
		updates["max_cap_days"] = *req.MaxCapDays
	}
	if req.CarryOver != nil {
		updates["carry_over"] = *req.CarryOver
	}
	if req.CarryOverExpiryMonths != nil {
		updates["carry_over_expiry_months"] = *req.CarryOverExpiryMonths
	}
	if req.RequiresAttachment != nil {
		updates["requires_attachment"] = *req.RequiresAttachment
	}
	if req.Paid != nil {
		updates["paid"] = *req.Paid
	}

	if len(updates) == 0 {
		return fmt.Errorf("no updatable fields provided for leave type update")
	}
	updates["updated_at"] = time.Now()

	setClauses := make([]string, 0, len(updates))
	args := make([]interface{}, 0, len(updates)+1)
	i := 1
	for col, val := range updates {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", col, i))
		args = append(args, val)
		i++
	}

	sql := "UPDATE leave_types SET " +
		strings.Join(setClauses, ", ") +
		fmt.Sprintf(" WHERE id = $%d RETURNING id", i)
	args = append(args, req.ID)

	var updatedID string
	if err := q.QueryRow(ctx, sql, args...).Scan(&updatedID); err != nil {
		if err == pgx.ErrNoRows {
			return leave.ErrLeaveTypeNotFound
		}
		return fmt.Errorf("failed to update leave type with id %s: %w", req.ID, err)
	}
	return nil
}

// Delete implements leave.LeaveTypeRepository.
func (r *leaveTypeRepositoryImpl) Delete(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)
	query := `DELETE FROM leave_types WHERE id = $1`

	commandTag, err := q.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if commandTag.RowsAffected() != 1 {
		return leave.ErrLeaveTypeNotFound
	}
	return nil
}
