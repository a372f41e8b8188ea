package postgresql

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/kestrelhq/leave-backend-go/internal/domain/leave"
	"github.com/kestrelhq/leave-backend-go/internal/pkg/database"
)

type leaveRecallRepositoryImpl struct {
	db *database.DB
}

func NewLeaveRecallRepository(db *database.DB) leave.LeaveRecallRepository {
	return &leaveRecallRepositoryImpl{db: db}
}

// Create implements leave.LeaveRecallRepository. The insert is guarded
// against an existing pending recall for the same application so two
// concurrent initiators cannot both succeed.
func (r *leaveRecallRepositoryImpl) Create(ctx context.Context, recall leave.LeaveRecall) (leave.LeaveRecall, error) {
	q := GetQuerier(ctx, r.db)
	query := `
		INSERT INTO leave_recalls (
			id, application_id, initiator_id, reason, recall_date,
			status, days_restored, actual_return_date, created_at, updated_at
		)
		SELECT $1, $2, $3, $4, $5, $6, 0, NULL, NOW(), NOW()
		WHERE NOT EXISTS (
			SELECT 1 FROM leave_recalls
			WHERE application_id = $2 AND status = $6
		)
		RETURNING created_at, updated_at
	`

	recall.ID = uuid.NewString()
	recall.Status = leave.RecallPending
	err := q.QueryRow(ctx, query,
		recall.ID, recall.ApplicationID, recall.InitiatorID, recall.Reason, recall.RecallDate,
		leave.RecallPending,
	).Scan(&recall.CreatedAt, &recall.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return leave.LeaveRecall{}, leave.ErrRecallAlreadyPending
		}
		return leave.LeaveRecall{}, err
	}
	return recall, nil
}

// GetByID implements leave.LeaveRecallRepository.
func (r *leaveRecallRepositoryImpl) GetByID(ctx context.Context, id string) (leave.LeaveRecall, error) {
	q := GetQuerier(ctx, r.db)
	query := `
		SELECT id, application_id, initiator_id, reason, recall_date,
		       status, days_restored, actual_return_date, created_at, updated_at
		FROM leave_recalls
		WHERE id = $1
	`

	var rec leave.LeaveRecall
	err := q.QueryRow(ctx, query, id).Scan(
		&rec.ID, &rec.ApplicationID, &rec.InitiatorID, &rec.Reason, &rec.RecallDate,
		&rec.Status, &rec.DaysRestored, &rec.ActualReturnDate, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return leave.LeaveRecall{}, leave.ErrRecallNotFound
		}
		return leave.LeaveRecall{}, err
	}
	return rec, nil
}

// Resolve implements leave.LeaveRecallRepository. Only a pending recall can
// be resolved; a lost race surfaces ErrRecallAlreadyResolved.
func (r *leaveRecallRepositoryImpl) Resolve(ctx context.Context, id string, status leave.RecallStatus, daysRestored float64, actualReturnDate *time.Time) error {
	q := GetQuerier(ctx, r.db)
	query := `
		UPDATE leave_recalls
		SET status = $2, days_restored = $3, actual_return_date = $4, updated_at = NOW()
		WHERE id = $1 AND status = $5
	`

	commandTag, err := q.Exec(ctx, query, id, status, daysRestored, actualReturnDate, leave.RecallPending)
	if err != nil {
		return err
	}
	if commandTag.RowsAffected() != 1 {
		return leave.ErrRecallAlreadyResolved
	}
	return nil
}

// Delete implements leave.LeaveRecallRepository. Only pending recalls can be
// withdrawn.
func (r *leaveRecallRepositoryImpl) Delete(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)
	query := `DELETE FROM leave_recalls WHERE id = $1 AND status = $2`

	commandTag, err := q.Exec(ctx, query, id, leave.RecallPending)
	if err != nil {
		return err
	}
	if commandTag.RowsAffected() != 1 {
		return leave.ErrRecallAlreadyResolved
	}
	return nil
}
