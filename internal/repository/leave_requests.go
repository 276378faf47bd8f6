package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/planopia/leave_service/internal/entity"
)

const leaveRequestColumns = `id, user_id, type, start_date, end_date, days_requested, replacement,
        additional_info, status, updated_by, is_processed, created_at, updated_at`

type LeaveRequestRepository struct {
	db Queryer
}

func NewLeaveRequestRepository(db Queryer) *LeaveRequestRepository {
	return &LeaveRequestRepository{db: db}
}

func (r *LeaveRequestRepository) Create(ctx context.Context, lr *entity.LeaveRequest) (*entity.LeaveRequest, error) {
	row := r.db.QueryRow(ctx, `
        INSERT INTO leave_requests (user_id, type, start_date, end_date, days_requested, replacement,
                                    additional_info, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        RETURNING `+leaveRequestColumns,
		lr.UserID, string(lr.Type), lr.StartDate, lr.EndDate, lr.DaysRequested, lr.Replacement,
		lr.AdditionalInfo, string(entity.StatusPending), lr.CreatedAt, lr.UpdatedAt)

	created, err := scanLeaveRequest(row)
	if err != nil {
		return nil, translateError(err, "leave request")
	}

	return created, nil
}

func (r *LeaveRequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.LeaveRequest, error) {
	row := r.db.QueryRow(ctx, `SELECT `+leaveRequestColumns+` FROM leave_requests WHERE id = $1`, id)

	lr, err := scanLeaveRequest(row)
	if err != nil {
		return nil, translateError(err, "leave request")
	}

	return lr, nil
}

// UpdateStatus records a review decision and the reviewer who made it.
func (r *LeaveRequestRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.LeaveStatus, reviewer uuid.UUID, now time.Time) (*entity.LeaveRequest, error) {
	row := r.db.QueryRow(ctx, `
        UPDATE leave_requests
           SET status = $1, updated_by = $2, updated_at = $3
         WHERE id = $4
        RETURNING `+leaveRequestColumns, string(status), reviewer, now, id)

	lr, err := scanLeaveRequest(row)
	if err != nil {
		return nil, translateError(err, "leave request")
	}

	return lr, nil
}

func (r *LeaveRequestRepository) MarkProcessed(ctx context.Context, id uuid.UUID, now time.Time) (*entity.LeaveRequest, error) {
	row := r.db.QueryRow(ctx, `
        UPDATE leave_requests
           SET is_processed = true, updated_at = $1
         WHERE id = $2
        RETURNING `+leaveRequestColumns, now, id)

	lr, err := scanLeaveRequest(row)
	if err != nil {
		return nil, translateError(err, "leave request")
	}

	return lr, nil
}

// ListByUser returns the user's requests, newest first, with owner and reviewer identities.
func (r *LeaveRequestRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]entity.LeaveRequestView, error) {
	rows, err := r.db.Query(ctx, `
        SELECT lr.id, lr.user_id, lr.type, lr.start_date, lr.end_date, lr.days_requested, lr.replacement,
               lr.additional_info, lr.status, lr.updated_by, lr.is_processed, lr.created_at, lr.updated_at,
               o.username, o.first_name, o.last_name,
               rv.username, rv.first_name, rv.last_name
          FROM leave_requests lr
          JOIN users o ON o.id = lr.user_id
          LEFT JOIN users rv ON rv.id = lr.updated_by
         WHERE lr.user_id = $1
         ORDER BY lr.created_at DESC`, userID)
	if err != nil {
		return nil, translateError(err, "leave requests")
	}
	defer rows.Close()

	views := []entity.LeaveRequestView{}
	for rows.Next() {
		var (
			v                              entity.LeaveRequestView
			leaveType, status              string
			owner                          entity.UserSummary
			revUsername, revFirst, revLast *string
		)

		if err := rows.Scan(&v.ID, &v.UserID, &leaveType, &v.StartDate, &v.EndDate, &v.DaysRequested,
			&v.Replacement, &v.AdditionalInfo, &status, &v.UpdatedBy, &v.IsProcessed, &v.CreatedAt, &v.UpdatedAt,
			&owner.Username, &owner.FirstName, &owner.LastName,
			&revUsername, &revFirst, &revLast); err != nil {
			return nil, err
		}

		v.Type = entity.LeaveType(leaveType)
		v.Status = entity.LeaveStatus(status)

		owner.ID = v.UserID
		v.Owner = &owner

		if v.UpdatedBy != nil && revUsername != nil {
			v.Reviewer = &entity.UserSummary{
				ID:        *v.UpdatedBy,
				Username:  *revUsername,
				FirstName: deref(revFirst),
				LastName:  deref(revLast),
			}
		}

		views = append(views, v)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return views, nil
}

func scanLeaveRequest(row pgx.Row) (*entity.LeaveRequest, error) {
	var (
		lr                entity.LeaveRequest
		leaveType, status string
	)

	if err := row.Scan(&lr.ID, &lr.UserID, &leaveType, &lr.StartDate, &lr.EndDate, &lr.DaysRequested,
		&lr.Replacement, &lr.AdditionalInfo, &status, &lr.UpdatedBy, &lr.IsProcessed,
		&lr.CreatedAt, &lr.UpdatedAt); err != nil {
		return nil, err
	}

	lr.Type = entity.LeaveType(leaveType)
	lr.Status = entity.LeaveStatus(status)

	return &lr, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}

	return *s
}
