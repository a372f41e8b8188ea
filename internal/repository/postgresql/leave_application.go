package postgresql

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/kestrelhq/leave-backend-go/internal/domain/leave"
	"github.com/kestrelhq/leave-backend-go/internal/pkg/database"
)

type leaveApplicationRepositoryImpl struct {
	db *database.DB
}

func NewLeaveApplicationRepository(db *database.DB) leave.LeaveApplicationRepository {
	return &leaveApplicationRepositoryImpl{db: db}
}

const leaveApplicationColumns = `a.id, a.company_id, a.employee_id, a.leave_type_id, a.fiscal_year,
	   a.start_date, a.end_date, a.return_date,
	   a.requested_days, a.status, a.relief_officer_id, a.reason, a.attachment_url,
	   a.created_at, a.updated_at,
	   t.name, e.full_name`

func scanLeaveApplication(row pgx.Row) (leave.LeaveApplication, error) {
	var a leave.LeaveApplication
	err := row.Scan(
		&a.ID, &a.CompanyID, &a.EmployeeID, &a.LeaveTypeID, &a.FiscalYear,
		&a.StartDate, &a.EndDate, &a.ReturnDate,
		&a.RequestedDays, &a.Status, &a.ReliefOfficerID, &a.Reason, &a.AttachmentURL,
		&a.CreatedAt, &a.UpdatedAt,
		&a.LeaveTypeName, &a.EmployeeName,
	)
	return a, err
}

// Create implements leave.LeaveApplicationRepository.
func (r *leaveApplicationRepositoryImpl) Create(ctx context.Context, application leave.LeaveApplication) (leave.LeaveApplication, error) {
	q := GetQuerier(ctx, r.db)
	query := `
		INSERT INTO leave_applications (
			id, company_id, employee_id, leave_type_id, fiscal_year,
			start_date, end_date, return_date,
			requested_days, status, relief_officer_id, reason, attachment_url,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8,
			$9, $10, $11, $12, $13,
			NOW(), NOW()
		) RETURNING created_at, updated_at
	`

	application.ID = uuid.NewString()
	err := q.QueryRow(ctx, query,
		application.ID, application.CompanyID, application.EmployeeID, application.LeaveTypeID, application.FiscalYear,
		application.StartDate, application.EndDate, application.ReturnDate,
		application.RequestedDays, application.Status, application.ReliefOfficerID, application.Reason, application.AttachmentURL,
	).Scan(&application.CreatedAt, &application.UpdatedAt)
	if err != nil {
		return leave.LeaveApplication{}, err
	}
	return application, nil
}

// GetByID implements leave.LeaveApplicationRepository.
func (r *leaveApplicationRepositoryImpl) GetByID(ctx context.Context, id string) (leave.LeaveApplication, error) {
	q := GetQuerier(ctx, r.db)
	query := `
		SELECT ` + leaveApplicationColumns + `
		FROM leave_applications a
		JOIN leave_types t ON t.id = a.leave_type_id
		JOIN employees e ON e.id = a.employee_id
		WHERE a.id = $1
	`

	a, err := scanLeaveApplication(q.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return leave.LeaveApplication{}, leave.ErrApplicationNotFound
		}
		return leave.LeaveApplication{}, err
	}
	return a, nil
}

// HasOverlapping implements leave.LeaveApplicationRepository. Rejected and
// cancelled applications do not block the range.
func (r *leaveApplicationRepositoryImpl) HasOverlapping(ctx context.Context, employeeID string, startDate, endDate time.Time) (bool, error) {
	q := GetQuerier(ctx, r.db)
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM leave_applications
			WHERE employee_id = $1
			  AND status NOT IN ($2, $3)
			  AND start_date <= $5
			  AND end_date >= $4
		)
	`

	var exists bool
	err := q.QueryRow(ctx, query, employeeID,
		leave.StatusRejected, leave.StatusCancelled,
		startDate, endDate,
	).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// UpdateStatus implements leave.LeaveApplicationRepository. The expected
// current status is part of the predicate; a concurrent transition makes
// the update match zero rows.
func (r *leaveApplicationRepositoryImpl) UpdateStatus(ctx context.Context, id string, from, to leave.ApplicationStatus) error {
	q := GetQuerier(ctx, r.db)
	query := `
		UPDATE leave_applications
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`

	commandTag, err := q.Exec(ctx, query, id, from, to)
	if err != nil {
		return err
	}
	if commandTag.RowsAffected() != 1 {
		return leave.ErrStoreConflict
	}
	return nil
}

// Truncate implements leave.LeaveApplicationRepository. Only an approved
// application can be shortened.
func (r *leaveApplicationRepositoryImpl) Truncate(ctx context.Context, id string, endDate, returnDate time.Time, requestedDays float64) error {
	q := GetQuerier(ctx, r.db)
	query := `
		UPDATE leave_applications
		SET end_date = $2, return_date = $3, requested_days = $4, updated_at = NOW()
		WHERE id = $1 AND status = $5
	`

	commandTag, err := q.Exec(ctx, query, id, endDate, returnDate, requestedDays, leave.StatusApproved)
	if err != nil {
		return err
	}
	if commandTag.RowsAffected() != 1 {
		return leave.ErrStoreConflict
	}
	return nil
}

// GetByEmployeeID implements leave.LeaveApplicationRepository.
func (r *leaveApplicationRepositoryImpl) GetByEmployeeID(ctx context.Context, employeeID string, fiscalYear int) ([]leave.LeaveApplication, error) {
	q := GetQuerier(ctx, r.db)
	query := `
		SELECT ` + leaveApplicationColumns + `
		FROM leave_applications a
		JOIN leave_types t ON t.id = a.leave_type_id
		JOIN employees e ON e.id = a.employee_id
		WHERE a.employee_id = $1 AND a.fiscal_year = $2
		ORDER BY a.start_date DESC
	`

	rows, err := q.Query(ctx, query, employeeID, fiscalYear)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectApplications(rows)
}

// GetByCompanyID implements leave.LeaveApplicationRepository. When status is
// nil all applications are returned.
func (r *leaveApplicationRepositoryImpl) GetByCompanyID(ctx context.Context, companyID string, status *leave.ApplicationStatus) ([]leave.LeaveApplication, error) {
	q := GetQuerier(ctx, r.db)
	query := `
		SELECT ` + leaveApplicationColumns + `
		FROM leave_applications a
		JOIN leave_types t ON t.id = a.leave_type_id
		JOIN employees e ON e.id = a.employee_id
		WHERE a.company_id = $1
		  AND ($2::text IS NULL OR a.status = $2)
		ORDER BY a.created_at DESC
	`

	rows, err := q.Query(ctx, query, companyID, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectApplications(rows)
}

func collectApplications(rows pgx.Rows) ([]leave.LeaveApplication, error) {
	applications := make([]leave.LeaveApplication, 0)
	for rows.Next() {
		a, err := scanLeaveApplication(rows)
		if err != nil {
			return nil, err
		}
		applications = append(applications, a)
	}
	return applications, rows.Err()
}
