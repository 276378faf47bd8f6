package controllers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/planopia/leave_service/internal/access"
	"github.com/planopia/leave_service/internal/entity"
)

// PasswordCost is the bcrypt cost for stored password hashes.
var PasswordCost = 12

const minPasswordLength = 8

type UserController struct {
	deps  *Dependens
	auth  *AuthController
	audit *AuditController
}

func NewUserController(deps *Dependens, auth *AuthController, audit *AuditController) *UserController {
	return &UserController{
		deps:  deps,
		auth:  auth,
		audit: audit,
	}
}

// Register creates a pending account and mails its activation link.
func (c *UserController) Register(ctx context.Context, actor *entity.Claims, req *entity.RegisterRequest) (*entity.User, error) {
	if err := access.Authorize(access.OpRegisterUser, actor.Roles); err != nil {
		c.deps.Logger.Warn("Register denied", slog.String("user_id", actor.UserID.String()))
		return nil, err
	}

	req.Username = strings.TrimSpace(req.Username)
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)

	if req.Username == "" || req.FirstName == "" || req.LastName == "" {
		return nil, fmt.Errorf("%w: required fields: username, firstName, lastName", entity.ErrValidation)
	}

	if _, err := mail.ParseAddress(req.Username); err != nil {
		return nil, fmt.Errorf("%w: username must be an e-mail address", entity.ErrValidation)
	}

	roles, err := validRoles(req.Roles)
	if err != nil {
		return nil, err
	}

	now := c.deps.now()
	user, err := c.deps.Users.Create(ctx, &entity.User{
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Roles:     roles,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		c.deps.Logger.Error("Error creating user", slog.String("username", req.Username), slog.String("error", err.Error()))
		return nil, err
	}

	actorID := actor.UserID
	c.audit.Record(ctx, user.ID, entity.ActionRegister, "Registered user "+user.Username, &actorID)

	token, err := c.auth.IssueActionToken(ctx, user.ID, PurposeActivation, c.deps.Config.Server.ActivationTokenTTL)
	if err != nil {
		// the account exists; an admin can trigger a password reset later
		c.deps.Logger.Error("Error issuing activation token", slog.String("user_id", user.ID.String()), slog.String("error", err.Error()))
		return user, nil
	}

	c.deps.Notifier.Dispatch(newMailer(ctx, c.deps).welcome(user, token))

	return user, nil
}

// SetPassword activates an account through its activation link.
func (c *UserController) SetPassword(ctx context.Context, req *entity.SetPasswordRequest) error {
	var position *string
	if p := strings.TrimSpace(req.Position); p != "" {
		position = &p
	}

	userID, err := c.applyTokenPassword(ctx, req.Token, req.Password, PurposeActivation, position)
	if err != nil {
		return err
	}

	c.audit.Record(ctx, userID, entity.ActionSetPassword, "Password and position set", &userID)

	return nil
}

// NewPassword completes a password reset.
func (c *UserController) NewPassword(ctx context.Context, req *entity.NewPasswordRequest) error {
	userID, err := c.applyTokenPassword(ctx, req.Token, req.Password, PurposeReset, nil)
	if err != nil {
		return err
	}

	c.audit.Record(ctx, userID, entity.ActionResetPassword, "Password reset", &userID)

	return nil
}

func (c *UserController) applyTokenPassword(ctx context.Context, token, password, purpose string, position *string) (uuid.UUID, error) {
	if token == "" || password == "" {
		return uuid.Nil, fmt.Errorf("%w: missing password or token", entity.ErrValidation)
	}

	if err := ValidatePassword(password); err != nil {
		return uuid.Nil, err
	}

	claims, err := c.auth.VerifyActionToken(ctx, token, purpose)
	if err != nil {
		return uuid.Nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	if err != nil {
		c.deps.Logger.Error("Error hashing password", slog.String("error", err.Error()))
		return uuid.Nil, err
	}

	if err := c.deps.Users.SetPassword(ctx, claims.UserID, string(hash), position, c.deps.now()); err != nil {
		c.deps.Logger.Error("Error setting password", slog.String("user_id", claims.UserID.String()), slog.String("error", err.Error()))
		return uuid.Nil, err
	}

	c.auth.RevokeActionToken(ctx, claims)

	return claims.UserID, nil
}

// RequestPasswordReset mails a reset link to a known user.
func (c *UserController) RequestPasswordReset(ctx context.Context, req *entity.ResetPasswordRequest, clientKey string) error {
	if err := c.auth.AllowAttempt(ctx, "reset", clientKey); err != nil {
		return err
	}

	email := strings.TrimSpace(req.Email)
	if email == "" {
		return fmt.Errorf("%w: email is required", entity.ErrValidation)
	}

	user, err := c.deps.Users.FindByUsername(ctx, email)
	if err != nil {
		if !errors.Is(err, entity.ErrNotFound) {
			c.deps.Logger.Error("Error querying user", slog.String("error", err.Error()))
		}
		return err
	}

	token, err := c.auth.IssueActionToken(ctx, user.ID, PurposeReset, c.deps.Config.Server.ResetTokenTTL)
	if err != nil {
		return err
	}

	c.deps.Notifier.Dispatch(newMailer(ctx, c.deps).passwordReset(user, token))
	c.audit.Record(ctx, user.ID, entity.ActionResetPasswordRequest, "Password reset requested", nil)

	return nil
}

func (c *UserController) ChangePassword(ctx context.Context, actor *entity.Claims, req *entity.ChangePasswordRequest) error {
	if req.CurrentPassword == "" || req.NewPassword == "" {
		return fmt.Errorf("%w: current and new password are required", entity.ErrValidation)
	}

	user, err := c.deps.Users.FindByID(ctx, actor.UserID)
	if err != nil {
		c.deps.Logger.Error("Error querying user", slog.String("error", err.Error()))
		return err
	}

	if user.Pending() || bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(req.CurrentPassword)) != nil {
		c.deps.Logger.Warn("Current password mismatch", slog.String("user_id", user.ID.String()))
		return fmt.Errorf("%w: current password is incorrect", entity.ErrValidation)
	}

	if err := ValidatePassword(req.NewPassword); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), PasswordCost)
	if err != nil {
		c.deps.Logger.Error("Error hashing password", slog.String("error", err.Error()))
		return err
	}

	if err := c.deps.Users.SetPassword(ctx, user.ID, string(hash), nil, c.deps.now()); err != nil {
		c.deps.Logger.Error("Error updating password", slog.String("error", err.Error()))
		return err
	}

	c.audit.Record(ctx, user.ID, entity.ActionChangePassword, "Password changed", &user.ID)

	return nil
}

func (c *UserController) UpdatePosition(ctx context.Context, actor *entity.Claims, req *entity.UpdatePositionRequest) error {
	position := strings.TrimSpace(req.Position)
	if position == "" {
		return fmt.Errorf("%w: position is required", entity.ErrValidation)
	}

	if err := c.deps.Users.UpdatePosition(ctx, actor.UserID, position, c.deps.now()); err != nil {
		c.deps.Logger.Error("Error updating position", slog.String("error", err.Error()))
		return err
	}

	return nil
}

func (c *UserController) UpdateRoles(ctx context.Context, actor *entity.Claims, target uuid.UUID, req *entity.UpdateRolesRequest) (*entity.User, error) {
	if err := access.Authorize(access.OpUpdateRoles, actor.Roles); err != nil {
		c.deps.Logger.Warn("Update roles denied", slog.String("user_id", actor.UserID.String()))
		return nil, err
	}

	roles, err := validRoles(req.Roles)
	if err != nil {
		return nil, err
	}

	user, err := c.deps.Users.UpdateRoles(ctx, target, roles, c.deps.now())
	if err != nil {
		c.deps.Logger.Error("Error updating roles", slog.String("target", target.String()), slog.String("error", err.Error()))
		return nil, err
	}

	actorID := actor.UserID
	c.audit.Record(ctx, target, entity.ActionUpdateRoles,
		fmt.Sprintf("Updated roles for user %s: %s", user.Username, strings.Join(roles.Strings(), ", ")), &actorID)

	return user, nil
}

func (c *UserController) GetRoles(ctx context.Context, actor *entity.Claims, target uuid.UUID) (entity.Roles, error) {
	if err := access.Authorize(access.OpGetRoles, actor.Roles); err != nil {
		return nil, err
	}

	user, err := c.deps.Users.FindByID(ctx, target)
	if err != nil {
		c.deps.Logger.Error("Error querying user", slog.String("target", target.String()), slog.String("error", err.Error()))
		return nil, err
	}

	return user.Roles, nil
}

func (c *UserController) UpdateVacationDays(ctx context.Context, actor *entity.Claims, target uuid.UUID, req *entity.VacationDaysRequest) (*entity.VacationDaysResponse, error) {
	if err := access.Authorize(access.OpUpdateVacationDays, actor.Roles); err != nil {
		return nil, err
	}

	if req.VacationDays == nil || *req.VacationDays < 0 {
		return nil, fmt.Errorf("%w: vacationDays must be a non-negative integer", entity.ErrValidation)
	}

	user, err := c.deps.Users.UpdateVacationDays(ctx, target, *req.VacationDays, c.deps.now())
	if err != nil {
		c.deps.Logger.Error("Error updating vacation days", slog.String("target", target.String()), slog.String("error", err.Error()))
		return nil, err
	}

	return &entity.VacationDaysResponse{VacationDays: user.VacationDays}, nil
}

// GetVacationDays reads the balance of target. Reading somebody else's balance is privileged.
func (c *UserController) GetVacationDays(ctx context.Context, actor *entity.Claims, target uuid.UUID) (*entity.VacationDaysResponse, error) {
	if target != actor.UserID {
		if err := access.Authorize(access.OpGetVacationDays, actor.Roles); err != nil {
			return nil, err
		}
	}

	user, err := c.deps.Users.FindByID(ctx, target)
	if err != nil {
		c.deps.Logger.Error("Error querying user", slog.String("target", target.String()), slog.String("error", err.Error()))
		return nil, err
	}

	return &entity.VacationDaysResponse{VacationDays: user.VacationDays}, nil
}

func (c *UserController) Delete(ctx context.Context, actor *entity.Claims, target uuid.UUID) error {
	if err := access.Authorize(access.OpDeleteUser, actor.Roles); err != nil {
		c.deps.Logger.Warn("Delete user denied", slog.String("user_id", actor.UserID.String()))
		return err
	}

	user, err := c.deps.Users.FindByID(ctx, target)
	if err != nil {
		c.deps.Logger.Error("Error querying user", slog.String("target", target.String()), slog.String("error", err.Error()))
		return err
	}

	if err := c.deps.Users.Delete(ctx, target); err != nil {
		c.deps.Logger.Error("Error deleting user", slog.String("target", target.String()), slog.String("error", err.Error()))
		return err
	}

	actorID := actor.UserID
	c.audit.Record(ctx, target, entity.ActionDeleteUser, "Deleted user "+user.Username, &actorID)

	return nil
}

func (c *UserController) Me(ctx context.Context, actor *entity.Claims) (*entity.MeResponse, error) {
	user, err := c.deps.Users.FindByID(ctx, actor.UserID)
	if err != nil {
		c.deps.Logger.Error("Error querying user", slog.String("error", err.Error()))
		return nil, err
	}

	return &entity.MeResponse{Roles: user.Roles, Username: user.Username}, nil
}

func (c *UserController) Profile(ctx context.Context, actor *entity.Claims) (*entity.ProfileResponse, error) {
	user, err := c.deps.Users.FindByID(ctx, actor.UserID)
	if err != nil {
		c.deps.Logger.Error("Error querying user", slog.String("error", err.Error()))
		return nil, err
	}

	return &entity.ProfileResponse{
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Position:  user.Position,
		Roles:     user.Roles,
	}, nil
}

// ListUsers is the unfiltered admin listing.
func (c *UserController) ListUsers(ctx context.Context, actor *entity.Claims) ([]entity.UserSummary, error) {
	if err := access.Authorize(access.OpListUsers, actor.Roles); err != nil {
		return nil, err
	}

	return c.list(ctx, access.Scope{Unrestricted: true})
}

// ListVisible lists the users the caller may see in the "all users" view.
func (c *UserController) ListVisible(ctx context.Context, actor *entity.Claims) ([]entity.UserSummary, error) {
	return c.list(ctx, access.UsersScope(actor.Roles))
}

// ListPlanners lists the users shown in the "all user plans" view.
func (c *UserController) ListPlanners(ctx context.Context, actor *entity.Claims) ([]entity.UserSummary, error) {
	return c.list(ctx, access.PlansScope(actor.Roles))
}

func (c *UserController) list(ctx context.Context, scope access.Scope) ([]entity.UserSummary, error) {
	var roles []entity.RoleName
	if !scope.Unrestricted {
		if len(scope.Roles) == 0 {
			return []entity.UserSummary{}, nil
		}
		roles = scope.Roles
	}

	users, err := c.deps.Users.List(ctx, roles)
	if err != nil {
		c.deps.Logger.Error("Error listing users", slog.String("error", err.Error()))
		return nil, err
	}

	return users, nil
}

func (c *UserController) GetUser(ctx context.Context, actor *entity.Claims, target uuid.UUID) (*entity.UserSummary, error) {
	if err := access.Authorize(access.OpGetUser, actor.Roles); err != nil {
		return nil, err
	}

	user, err := c.deps.Users.FindByID(ctx, target)
	if err != nil {
		c.deps.Logger.Error("Error querying user", slog.String("target", target.String()), slog.String("error", err.Error()))
		return nil, err
	}

	return &entity.UserSummary{
		ID:        user.ID,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Roles:     user.Roles,
		Position:  user.Position,
	}, nil
}

// ValidatePassword requires at least 8 characters with a lower and upper case
// letter, a digit and a character that is neither.
func ValidatePassword(password string) error {
	var lower, upper, digit, symbol bool

	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		default:
			symbol = true
		}
	}

	if len([]rune(password)) < minPasswordLength || !lower || !upper || !digit || !symbol {
		return fmt.Errorf("%w: password does not meet the security requirements", entity.ErrValidation)
	}

	return nil
}

func validRoles(names []entity.RoleName) (entity.Roles, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: at least one role is required", entity.ErrValidation)
	}

	seen := make(map[entity.RoleName]struct{}, len(names))
	roles := make(entity.Roles, 0, len(names))
	for _, r := range names {
		if !r.Valid() {
			return nil, fmt.Errorf("%w: unknown role %q", entity.ErrValidation, r)
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		roles = append(roles, r)
	}

	return roles, nil
}
