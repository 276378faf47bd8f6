package controllers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/planopia/leave_service/internal/access"
	"github.com/planopia/leave_service/internal/entity"
)

type LeavePlanController struct {
	deps *Dependens
}

func NewLeavePlanController(deps *Dependens) *LeavePlanController {
	return &LeavePlanController{
		deps: deps,
	}
}

func (c *LeavePlanController) List(ctx context.Context, actor *entity.Claims) ([]string, error) {
	dates, err := c.deps.LeavePlans.ListDates(ctx, actor.UserID)
	if err != nil {
		c.deps.Logger.Error("Error listing leave plans", slog.String("error", err.Error()))
		return nil, err
	}

	return dates, nil
}

// Add plans a day off. Planning the same day twice is a conflict.
func (c *LeavePlanController) Add(ctx context.Context, actor *entity.Claims, req *entity.LeavePlanRequest) (*entity.LeavePlan, error) {
	date, err := planDate(req.Date)
	if err != nil {
		return nil, err
	}

	owner, err := c.deps.Users.FindByID(ctx, actor.UserID)
	if err != nil {
		c.deps.Logger.Error("Error querying user", slog.String("error", err.Error()))
		return nil, err
	}

	plan := &entity.LeavePlan{
		UserID:    owner.ID,
		Date:      date,
		FirstName: owner.FirstName,
		LastName:  owner.LastName,
		CreatedAt: c.deps.now(),
	}

	if err := c.deps.LeavePlans.Add(ctx, plan); err != nil {
		c.deps.Logger.Warn("Error adding leave plan", slog.String("date", date), slog.String("error", err.Error()))
		return nil, err
	}

	return plan, nil
}

func (c *LeavePlanController) Remove(ctx context.Context, actor *entity.Claims, req *entity.LeavePlanRequest) error {
	date, err := planDate(req.Date)
	if err != nil {
		return err
	}

	if err := c.deps.LeavePlans.Remove(ctx, actor.UserID, date); err != nil {
		c.deps.Logger.Warn("Error removing leave plan", slog.String("date", date), slog.String("error", err.Error()))
		return err
	}

	return nil
}

func (c *LeavePlanController) ListForUser(ctx context.Context, actor *entity.Claims, target uuid.UUID) ([]string, error) {
	if err := access.Authorize(access.OpReadUserLeavePlans, actor.Roles); err != nil {
		return nil, err
	}

	dates, err := c.deps.LeavePlans.ListDates(ctx, target)
	if err != nil {
		c.deps.Logger.Error("Error listing leave plans", slog.String("target", target.String()), slog.String("error", err.Error()))
		return nil, err
	}

	return dates, nil
}

func (c *LeavePlanController) ListAll(ctx context.Context, actor *entity.Claims) ([]entity.LeavePlanEntry, error) {
	if err := access.Authorize(access.OpReadAllLeavePlans, actor.Roles); err != nil {
		return nil, err
	}

	entries, err := c.deps.LeavePlans.ListAll(ctx)
	if err != nil {
		c.deps.Logger.Error("Error listing all leave plans", slog.String("error", err.Error()))
		return nil, err
	}

	return entries, nil
}

// planDate normalises a plan date to the YYYY-MM-DD key the store is unique on.
func planDate(raw string) (string, error) {
	if raw == "" {
		return "", fmt.Errorf("%w: date is required", entity.ErrValidation)
	}

	day, err := parseDay(raw)
	if err != nil {
		return "", fmt.Errorf("%w: invalid date %q", entity.ErrValidation, raw)
	}

	return day.Format(entity.DateLayout), nil
}
