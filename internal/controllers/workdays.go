package controllers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/planopia/leave_service/internal/access"
	"github.com/planopia/leave_service/internal/entity"
)

type WorkdayController struct {
	deps *Dependens
}

func NewWorkdayController(deps *Dependens) *WorkdayController {
	return &WorkdayController{
		deps: deps,
	}
}

// Create records one day of the caller's timesheet. An entry holds either
// worked hours or an absence, never both.
func (c *WorkdayController) Create(ctx context.Context, actor *entity.Claims, req *entity.WorkdayRequest) (*entity.Workday, error) {
	date, err := parseDay(req.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid date", entity.ErrValidation)
	}

	absence := trimmed(req.AbsenceType)

	if req.HoursWorked != nil && absence != nil {
		return nil, fmt.Errorf("%w: hoursWorked and absenceType are mutually exclusive", entity.ErrValidation)
	}

	if (req.HoursWorked != nil && *req.HoursWorked < 0) || (req.AdditionalWorked != nil && *req.AdditionalWorked < 0) {
		return nil, fmt.Errorf("%w: worked hours cannot be negative", entity.ErrValidation)
	}

	w, err := c.deps.Workdays.Create(ctx, &entity.Workday{
		UserID:            actor.UserID,
		Date:              date,
		HoursWorked:       req.HoursWorked,
		AdditionalWorked:  req.AdditionalWorked,
		RealTimeDayWorked: trimmed(req.RealTimeDayWorked),
		AbsenceType:       absence,
		CreatedAt:         c.deps.now(),
	})
	if err != nil {
		c.deps.Logger.Error("Error creating workday", slog.String("error", err.Error()))
		return nil, err
	}

	return w, nil
}

func (c *WorkdayController) List(ctx context.Context, actor *entity.Claims) ([]entity.Workday, error) {
	days, err := c.deps.Workdays.ListByUser(ctx, actor.UserID)
	if err != nil {
		c.deps.Logger.Error("Error listing workdays", slog.String("error", err.Error()))
		return nil, err
	}

	return days, nil
}

func (c *WorkdayController) ListForUser(ctx context.Context, actor *entity.Claims, target uuid.UUID) ([]entity.Workday, error) {
	if err := access.Authorize(access.OpReadUserWorkdays, actor.Roles); err != nil {
		return nil, err
	}

	days, err := c.deps.Workdays.ListByUser(ctx, target)
	if err != nil {
		c.deps.Logger.Error("Error listing workdays", slog.String("target", target.String()), slog.String("error", err.Error()))
		return nil, err
	}

	return days, nil
}

// Delete removes one of the caller's own entries.
func (c *WorkdayController) Delete(ctx context.Context, actor *entity.Claims, id uuid.UUID) error {
	if err := c.deps.Workdays.Delete(ctx, id, actor.UserID); err != nil {
		c.deps.Logger.Warn("Error deleting workday", slog.String("workday_id", id.String()), slog.String("error", err.Error()))
		return err
	}

	return nil
}

// Confirm sets the caller's confirmation flag for a month (0-11).
func (c *WorkdayController) Confirm(ctx context.Context, actor *entity.Claims, req *entity.ConfirmRequest) (*entity.CalendarConfirmation, error) {
	if req.Month == nil || req.Year == nil {
		return nil, fmt.Errorf("%w: month and year are required", entity.ErrValidation)
	}

	if err := validMonth(*req.Month, *req.Year); err != nil {
		return nil, err
	}

	conf, err := c.deps.Confirmations.Upsert(ctx, actor.UserID, *req.Month, *req.Year, req.IsConfirmed, c.deps.now())
	if err != nil {
		c.deps.Logger.Error("Error confirming month", slog.String("error", err.Error()))
		return nil, err
	}

	return conf, nil
}

// ConfirmationStatus reports the flag for target (nil means the caller).
// A month never confirmed reads as not confirmed.
func (c *WorkdayController) ConfirmationStatus(ctx context.Context, actor *entity.Claims, target *uuid.UUID, month, year int) (*entity.ConfirmationStatus, error) {
	userID := actor.UserID
	if target != nil && *target != actor.UserID {
		if err := access.Authorize(access.OpReadUserConfirmStat, actor.Roles); err != nil {
			return nil, err
		}
		userID = *target
	}

	if err := validMonth(month, year); err != nil {
		return nil, err
	}

	conf, err := c.deps.Confirmations.Find(ctx, userID, month, year)
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return &entity.ConfirmationStatus{IsConfirmed: false}, nil
		}

		c.deps.Logger.Error("Error reading confirmation", slog.String("error", err.Error()))
		return nil, err
	}

	return &entity.ConfirmationStatus{IsConfirmed: conf.IsConfirmed}, nil
}

func validMonth(month, year int) error {
	if month < 0 || month > 11 {
		return fmt.Errorf("%w: month must be between 0 and 11", entity.ErrValidation)
	}

	if year < 1970 || year > 9999 {
		return fmt.Errorf("%w: invalid year", entity.ErrValidation)
	}

	return nil
}
