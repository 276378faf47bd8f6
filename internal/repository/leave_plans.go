package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/planopia/leave_service/internal/entity"
)

type LeavePlanRepository struct {
	db Queryer
}

func NewLeavePlanRepository(db Queryer) *LeavePlanRepository {
	return &LeavePlanRepository{db: db}
}

// ListDates returns the planned days of one user in ascending order.
func (r *LeavePlanRepository) ListDates(ctx context.Context, userID uuid.UUID) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT date FROM leave_plans WHERE user_id = $1 ORDER BY date`, userID)
	if err != nil {
		return nil, translateError(err, "leave plans")
	}
	defer rows.Close()

	dates := []string{}
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return dates, nil
}

// Add inserts a planned day. The (user, date) pair is unique; a duplicate yields ErrConflict.
func (r *LeavePlanRepository) Add(ctx context.Context, plan *entity.LeavePlan) error {
	tag, err := r.db.Exec(ctx, `
        INSERT INTO leave_plans (user_id, date, first_name, last_name, created_at)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (user_id, date) DO NOTHING`,
		plan.UserID, plan.Date, plan.FirstName, plan.LastName, plan.CreatedAt)
	if err != nil {
		return translateError(err, "leave plan")
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: date %s is already planned", entity.ErrConflict, plan.Date)
	}

	return nil
}

func (r *LeavePlanRepository) Remove(ctx context.Context, userID uuid.UUID, date string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM leave_plans WHERE user_id = $1 AND date = $2`, userID, date)
	if err != nil {
		return translateError(err, "leave plan")
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: date %s is not planned", entity.ErrNotFound, date)
	}

	return nil
}

// ListAll returns every planned day of users still present in the directory.
func (r *LeavePlanRepository) ListAll(ctx context.Context) ([]entity.LeavePlanEntry, error) {
	rows, err := r.db.Query(ctx, `
        SELECT lp.date, u.id, u.username, u.first_name, u.last_name
          FROM leave_plans lp
          JOIN users u ON u.id = lp.user_id
         ORDER BY lp.date, u.last_name`)
	if err != nil {
		return nil, translateError(err, "leave plans")
	}
	defer rows.Close()

	entries := []entity.LeavePlanEntry{}
	for rows.Next() {
		var e entity.LeavePlanEntry
		if err := rows.Scan(&e.Date, &e.UserID, &e.Username, &e.FirstName, &e.LastName); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}
