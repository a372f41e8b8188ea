package postgresql

import (
	"context"

	"github.com/google/uuid"
	"github.com/kestrelhq/leave-backend-go/internal/domain/leave"
	"github.com/kestrelhq/leave-backend-go/internal/pkg/database"
)

type approvalLogRepositoryImpl struct {
	db *database.DB
}

func NewApprovalLogRepository(db *database.DB) leave.ApprovalLogRepository {
	return &approvalLogRepositoryImpl{db: db}
}

// Append implements leave.ApprovalLogRepository. Rows are never updated or
// deleted.
func (r *approvalLogRepositoryImpl) Append(ctx context.Context, log leave.ApprovalLog) error {
	q := GetQuerier(ctx, r.db)
	query := `
		INSERT INTO leave_approval_logs (
			id, application_id, approver_id, role, action, comments, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`

	_, err := q.Exec(ctx, query,
		uuid.NewString(), log.ApplicationID, log.ApproverID, log.Role, log.Action, log.Comments,
	)
	return err
}

// GetByApplicationID implements leave.ApprovalLogRepository.
func (r *approvalLogRepositoryImpl) GetByApplicationID(ctx context.Context, applicationID string) ([]leave.ApprovalLog, error) {
	q := GetQuerier(ctx, r.db)
	query := `
		SELECT id, application_id, approver_id, role, action, comments, created_at
		FROM leave_approval_logs
		WHERE application_id = $1
		ORDER BY created_at
	`

	rows, err := q.Query(ctx, query, applicationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]leave.ApprovalLog, 0)
	for rows.Next() {
		var l leave.ApprovalLog
		if err := rows.Scan(&l.ID, &l.ApplicationID, &l.ApproverID, &l.Role, &l.Action, &l.Comments, &l.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
