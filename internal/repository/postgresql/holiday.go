package postgresql

import (
	"context"
	"time"

	"github.com/kestrelhq/leave-backend-go/internal/domain/leave"
	"github.com/kestrelhq/leave-backend-go/internal/pkg/database"
)

type holidayRepositoryImpl struct {
	db *database.DB
}

func NewHolidayRepository(db *database.DB) leave.HolidayRepository {
	return &holidayRepositoryImpl{db: db}
}

// GetDates implements leave.HolidayRepository.
func (r *holidayRepositoryImpl) GetDates(ctx context.Context, companyID string, from, to time.Time) ([]time.Time, error) {
	q := GetQuerier(ctx, r.db)
	query := `
		SELECT holiday_date
		FROM holidays
		WHERE company_id = $1 AND holiday_date BETWEEN $2 AND $3
		ORDER BY holiday_date
	`

	rows, err := q.Query(ctx, query, companyID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	dates := make([]time.Time, 0)
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}
