package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/planopia/leave_service/internal/entity"
)

type WorkdayRepository struct {
	db Queryer
}

func NewWorkdayRepository(db Queryer) *WorkdayRepository {
	return &WorkdayRepository{db: db}
}

func (r *WorkdayRepository) Create(ctx context.Context, w *entity.Workday) (*entity.Workday, error) {
	var created entity.Workday

	err := r.db.QueryRow(ctx, `
        INSERT INTO workdays (user_id, date, hours_worked, additional_worked, real_time_day_worked, absence_type, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id, user_id, date, hours_worked, additional_worked, real_time_day_worked, absence_type, created_at`,
		w.UserID, w.Date, w.HoursWorked, w.AdditionalWorked, w.RealTimeDayWorked, w.AbsenceType, w.CreatedAt,
	).Scan(&created.ID, &created.UserID, &created.Date, &created.HoursWorked, &created.AdditionalWorked,
		&created.RealTimeDayWorked, &created.AbsenceType, &created.CreatedAt)
	if err != nil {
		return nil, translateError(err, "workday")
	}

	return &created, nil
}

func (r *WorkdayRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]entity.Workday, error) {
	rows, err := r.db.Query(ctx, `
        SELECT id, user_id, date, hours_worked, additional_worked, real_time_day_worked, absence_type, created_at
          FROM workdays
         WHERE user_id = $1
         ORDER BY date`, userID)
	if err != nil {
		return nil, translateError(err, "workdays")
	}
	defer rows.Close()

	days := []entity.Workday{}
	for rows.Next() {
		var w entity.Workday
		if err := rows.Scan(&w.ID, &w.UserID, &w.Date, &w.HoursWorked, &w.AdditionalWorked,
			&w.RealTimeDayWorked, &w.AbsenceType, &w.CreatedAt); err != nil {
			return nil, err
		}
		days = append(days, w)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return days, nil
}

// Delete removes a workday only when it belongs to userID.
func (r *WorkdayRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM workdays WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return translateError(err, "workday")
	}

	if tag.RowsAffected() == 0 {
		return translateError(pgx.ErrNoRows, "workday")
	}

	return nil
}

type ConfirmationRepository struct {
	db Queryer
}

func NewConfirmationRepository(db Queryer) *ConfirmationRepository {
	return &ConfirmationRepository{db: db}
}

// Upsert sets the confirmation flag for one user-month, creating the record on first use.
func (r *ConfirmationRepository) Upsert(ctx context.Context, userID uuid.UUID, month, year int, confirmed bool, now time.Time) (*entity.CalendarConfirmation, error) {
	var c entity.CalendarConfirmation

	err := r.db.QueryRow(ctx, `
        INSERT INTO calendar_confirmations (user_id, month, year, is_confirmed, updated_at)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (user_id, month, year)
        DO UPDATE SET is_confirmed = EXCLUDED.is_confirmed, updated_at = EXCLUDED.updated_at
        RETURNING id, user_id, month, year, is_confirmed, updated_at`,
		userID, month, year, confirmed, now,
	).Scan(&c.ID, &c.UserID, &c.Month, &c.Year, &c.IsConfirmed, &c.UpdatedAt)
	if err != nil {
		return nil, translateError(err, "confirmation")
	}

	return &c, nil
}

func (r *ConfirmationRepository) Find(ctx context.Context, userID uuid.UUID, month, year int) (*entity.CalendarConfirmation, error) {
	var c entity.CalendarConfirmation

	err := r.db.QueryRow(ctx, `
        SELECT id, user_id, month, year, is_confirmed, updated_at
          FROM calendar_confirmations
         WHERE user_id = $1 AND month = $2 AND year = $3`, userID, month, year,
	).Scan(&c.ID, &c.UserID, &c.Month, &c.Year, &c.IsConfirmed, &c.UpdatedAt)
	if err != nil {
		return nil, translateError(err, "confirmation")
	}

	return &c, nil
}
