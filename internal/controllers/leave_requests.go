package controllers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/planopia/leave_service/internal/access"
	"github.com/planopia/leave_service/internal/entity"
	"github.com/planopia/leave_service/internal/notify"
)

type LeaveRequestController struct {
	deps *Dependens
}

func NewLeaveRequestController(deps *Dependens) *LeaveRequestController {
	return &LeaveRequestController{
		deps: deps,
	}
}

// Submit stores a pending request and notifies the submitter's supervisors.
func (c *LeaveRequestController) Submit(ctx context.Context, actor *entity.Claims, req *entity.SubmitLeaveRequest) (*entity.LeaveRequest, error) {
	if !req.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown leave type %q", entity.ErrValidation, req.Type)
	}

	start, err := parseDay(req.StartDate)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid startDate", entity.ErrValidation)
	}

	end, err := parseDay(req.EndDate)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid endDate", entity.ErrValidation)
	}

	if end.Before(start) {
		return nil, fmt.Errorf("%w: endDate is before startDate", entity.ErrValidation)
	}

	if req.DaysRequested <= 0 {
		return nil, fmt.Errorf("%w: daysRequested must be positive", entity.ErrValidation)
	}

	now := c.deps.now()
	lr, err := c.deps.LeaveRequests.Create(ctx, &entity.LeaveRequest{
		UserID:         actor.UserID,
		Type:           req.Type,
		StartDate:      start,
		EndDate:        end,
		DaysRequested:  req.DaysRequested,
		Replacement:    trimmed(req.Replacement),
		AdditionalInfo: trimmed(req.AdditionalInfo),
		Status:         entity.StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		c.deps.Logger.Error("Error creating leave request", slog.String("error", err.Error()))
		return nil, err
	}

	c.notifySupervisors(ctx, lr)

	return lr, nil
}

func (c *LeaveRequestController) notifySupervisors(ctx context.Context, lr *entity.LeaveRequest) {
	owner, err := c.deps.Users.FindByID(ctx, lr.UserID)
	if err != nil {
		c.deps.Logger.Error("Error loading request owner", slog.String("request_id", lr.ID.String()), slog.String("error", err.Error()))
		return
	}

	role, ok := access.SupervisorRole(owner.Roles)
	if !ok {
		c.deps.Logger.Info("No supervisor role for request owner", slog.String("user_id", owner.ID.String()))
		return
	}

	supervisors, err := c.deps.Users.FindByRole(ctx, role)
	if err != nil {
		c.deps.Logger.Error("Error loading supervisors", slog.String("role", string(role)), slog.String("error", err.Error()))
		return
	}

	c.deps.Notifier.Dispatch(newMailer(ctx, c.deps).leaveSubmitted(owner, lr, supervisors)...)
}

// ChangeStatus records a reviewer's decision. The owner is always notified;
// the leave administration team is notified once on acceptance.
func (c *LeaveRequestController) ChangeStatus(ctx context.Context, actor *entity.Claims, id uuid.UUID, req *entity.ChangeStatusRequest) (*entity.LeaveRequest, error) {
	if err := access.Authorize(access.OpChangeLeaveStatus, actor.Roles); err != nil {
		c.deps.Logger.Warn("Change status denied", slog.String("user_id", actor.UserID.String()))
		return nil, err
	}

	status := normalizeStatus(req.Status)
	if status != entity.StatusAccepted && status != entity.StatusRejected {
		return nil, fmt.Errorf("%w: status must be accepted or rejected", entity.ErrValidation)
	}

	lr, err := c.deps.LeaveRequests.UpdateStatus(ctx, id, status, actor.UserID, c.deps.now())
	if err != nil {
		c.deps.Logger.Error("Error updating leave request status", slog.String("request_id", id.String()), slog.String("error", err.Error()))
		return nil, err
	}

	c.deps.Metrics.statusChanged(status)
	c.notifyDecision(ctx, actor, lr)

	return lr, nil
}

func (c *LeaveRequestController) notifyDecision(ctx context.Context, actor *entity.Claims, lr *entity.LeaveRequest) {
	owner, err := c.deps.Users.FindByID(ctx, lr.UserID)
	if err != nil {
		c.deps.Logger.Error("Error loading request owner", slog.String("request_id", lr.ID.String()), slog.String("error", err.Error()))
		return
	}

	reviewer := actor.Username
	if u, err := c.deps.Users.FindByID(ctx, actor.UserID); err == nil {
		reviewer = u.FullName()
	} else {
		c.deps.Logger.Warn("Error loading reviewer", slog.String("user_id", actor.UserID.String()), slog.String("error", err.Error()))
	}

	m := newMailer(ctx, c.deps)
	msgs := []notify.EmailMessage{m.statusChanged(owner, lr, reviewer)}

	if lr.Status == entity.StatusAccepted {
		team, err := c.deps.Users.FindByRole(ctx, entity.RoleUrlopyCzasPracy)
		if err != nil {
			c.deps.Logger.Error("Error loading leave administration team", slog.String("error", err.Error()))
		} else {
			msgs = append(msgs, m.leaveAccepted(owner, lr, reviewer, team)...)
		}
	}

	c.deps.Notifier.Dispatch(msgs...)
}

// ListForUser returns the caller's own requests.
func (c *LeaveRequestController) ListForUser(ctx context.Context, actor *entity.Claims) ([]entity.LeaveRequestView, error) {
	views, err := c.deps.LeaveRequests.ListByUser(ctx, actor.UserID)
	if err != nil {
		c.deps.Logger.Error("Error listing leave requests", slog.String("error", err.Error()))
		return nil, err
	}

	return views, nil
}

// ListForSubject returns another user's requests to a privileged caller.
func (c *LeaveRequestController) ListForSubject(ctx context.Context, actor *entity.Claims, target uuid.UUID) ([]entity.LeaveRequestView, error) {
	if err := access.Authorize(access.OpListLeaveRequests, actor.Roles); err != nil {
		return nil, err
	}

	views, err := c.deps.LeaveRequests.ListByUser(ctx, target)
	if err != nil {
		c.deps.Logger.Error("Error listing leave requests", slog.String("target", target.String()), slog.String("error", err.Error()))
		return nil, err
	}

	return views, nil
}

func (c *LeaveRequestController) MarkProcessed(ctx context.Context, actor *entity.Claims, id uuid.UUID) (*entity.LeaveRequest, error) {
	if err := access.Authorize(access.OpMarkLeaveProcessed, actor.Roles); err != nil {
		return nil, err
	}

	lr, err := c.deps.LeaveRequests.MarkProcessed(ctx, id, c.deps.now())
	if err != nil {
		c.deps.Logger.Error("Error marking leave request processed", slog.String("request_id", id.String()), slog.String("error", err.Error()))
		return nil, err
	}

	return lr, nil
}

// normalizeStatus accepts both "accepted" and the "status.accepted" form used by older clients.
func normalizeStatus(s entity.LeaveStatus) entity.LeaveStatus {
	return entity.LeaveStatus(strings.TrimPrefix(string(s), "status."))
}

// parseDay accepts a calendar day or a full RFC 3339 timestamp and truncates it to the day.
func parseDay(s string) (time.Time, error) {
	s = strings.TrimSpace(s)

	if t, err := time.Parse(entity.DateLayout, s); err == nil {
		return t, nil
	}

	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}

	t = t.UTC()

	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}

	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}

	return &v
}
