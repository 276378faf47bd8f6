package controllers

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/planopia/leave_service/internal/access"
	"github.com/planopia/leave_service/internal/entity"
)

type AuditController struct {
	deps *Dependens
}

func NewAuditController(deps *Dependens) *AuditController {
	return &AuditController{
		deps: deps,
	}
}

// Record appends an entry. The log is an observer of the operation that
// triggered it, so a failed write is logged and otherwise ignored.
func (c *AuditController) Record(ctx context.Context, subject uuid.UUID, action entity.AuditAction, details string, actor *uuid.UUID) {
	recordAudit(ctx, c.deps, subject, action, details, actor)
}

func (c *AuditController) List(ctx context.Context, actor *entity.Claims) ([]entity.AuditLogEntry, error) {
	if err := access.Authorize(access.OpReadAuditLog, actor.Roles); err != nil {
		c.deps.Logger.Warn("Audit log access denied", slog.String("user_id", actor.UserID.String()))
		return nil, err
	}

	entries, err := c.deps.AuditLogs.List(ctx)
	if err != nil {
		c.deps.Logger.Error("Error listing audit logs", slog.String("error", err.Error()))
		return nil, err
	}

	return entries, nil
}

func (c *AuditController) ListForUser(ctx context.Context, actor *entity.Claims, subject uuid.UUID) ([]entity.AuditLogEntry, error) {
	if err := access.Authorize(access.OpReadAuditLog, actor.Roles); err != nil {
		c.deps.Logger.Warn("Audit log access denied", slog.String("user_id", actor.UserID.String()))
		return nil, err
	}

	entries, err := c.deps.AuditLogs.ListBySubject(ctx, subject)
	if err != nil {
		c.deps.Logger.Error("Error listing audit logs", slog.String("error", err.Error()), slog.String("subject", subject.String()))
		return nil, err
	}

	return entries, nil
}

func recordAudit(ctx context.Context, deps *Dependens, subject uuid.UUID, action entity.AuditAction, details string, actor *uuid.UUID) {
	entry := &entity.AuditLogEntry{
		SubjectUserID: subject,
		Action:        action,
		Details:       details,
		CreatedBy:     actor,
		Timestamp:     deps.now(),
	}

	if err := deps.AuditLogs.Create(ctx, entry); err != nil {
		deps.Logger.Error("Error creating audit log",
			slog.String("action", string(action)),
			slog.String("subject", subject.String()),
			slog.String("error", err.Error()),
		)
		return
	}

	deps.Logger.Info("Audit log created", slog.String("action", string(action)), slog.String("subject", subject.String()))
}
