package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/planopia/leave_service/internal/entity"
)

type AuditLogRepository struct {
	db Queryer
}

func NewAuditLogRepository(db Queryer) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

func (r *AuditLogRepository) Create(ctx context.Context, e *entity.AuditLogEntry) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO audit_logs (subject_user_id, action, details, created_by, timestamp)
        VALUES ($1, $2, $3, $4, $5)`,
		e.SubjectUserID, string(e.Action), e.Details, e.CreatedBy, e.Timestamp)

	return translateError(err, "audit log")
}

const auditSelect = `
        SELECT a.id, a.subject_user_id, a.action, a.details, a.created_by, a.timestamp,
               s.username, c.username
          FROM audit_logs a
          LEFT JOIN users s ON s.id = a.subject_user_id
          LEFT JOIN users c ON c.id = a.created_by`

// List returns all entries, newest first.
func (r *AuditLogRepository) List(ctx context.Context) ([]entity.AuditLogEntry, error) {
	return r.query(ctx, auditSelect+` ORDER BY a.timestamp DESC`)
}

// ListBySubject returns entries about one user, newest first.
func (r *AuditLogRepository) ListBySubject(ctx context.Context, subject uuid.UUID) ([]entity.AuditLogEntry, error) {
	return r.query(ctx, auditSelect+` WHERE a.subject_user_id = $1 ORDER BY a.timestamp DESC`, subject)
}

func (r *AuditLogRepository) query(ctx context.Context, sql string, args ...any) ([]entity.AuditLogEntry, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, translateError(err, "audit logs")
	}
	defer rows.Close()

	entries := []entity.AuditLogEntry{}
	for rows.Next() {
		var (
			e      entity.AuditLogEntry
			action string
		)

		if err := rows.Scan(&e.ID, &e.SubjectUserID, &action, &e.Details, &e.CreatedBy, &e.Timestamp,
			&e.SubjectUsername, &e.ActorUsername); err != nil {
			return nil, err
		}

		e.Action = entity.AuditAction(action)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}
