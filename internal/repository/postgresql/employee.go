package postgresql

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/kestrelhq/leave-backend-go/internal/domain/employee"
	"github.com/kestrelhq/leave-backend-go/internal/pkg/database"
)

type employeeRepositoryImpl struct {
	db *database.DB
}

func NewEmployeeRepository(db *database.DB) employee.EmployeeRepository {
	return &employeeRepositoryImpl{db: db}
}

// GetByID implements employee.EmployeeRepository. Inactive employees are
// treated as not found.
func (r *employeeRepositoryImpl) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	q := GetQuerier(ctx, r.db)
	query := `
		SELECT id, company_id, full_name, email, gender, hire_date,
		       manager_id, employment_level, monthly_salary, active
		FROM employees
		WHERE id = $1 AND active = TRUE
	`

	var e employee.Employee
	err := q.QueryRow(ctx, query, id).Scan(
		&e.ID, &e.CompanyID, &e.FullName, &e.Email, &e.Gender, &e.HireDate,
		&e.ManagerID, &e.EmploymentLevel, &e.MonthlySalary, &e.Active,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, err
	}
	return e, nil
}
