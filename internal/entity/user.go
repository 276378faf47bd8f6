package entity

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	PasswordHash *string   `json:"-"`
	Roles        Roles     `json:"roles"`
	Position     *string   `json:"position,omitempty"`
	VacationDays int       `json:"vacationDays"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Pending reports whether the account still waits for its first password.
func (u User) Pending() bool {
	return u.PasswordHash == nil || *u.PasswordHash == ""
}

func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// UserSummary is the identity snapshot used in listings and joins.
type UserSummary struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Roles     Roles     `json:"roles,omitempty"`
	Position  *string   `json:"position,omitempty"`
}

type RegisterRequest struct {
	Username  string     `json:"username"`
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName"`
	Roles     []RoleName `json:"roles"`
}

type SetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
	Position string `json:"position"`
}

type NewPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type ResetPasswordRequest struct {
	Email string `json:"email"`
}

type UpdatePositionRequest struct {
	Position string `json:"position"`
}

type UpdateRolesRequest struct {
	Roles []RoleName `json:"roles"`
}

type VacationDaysRequest struct {
	VacationDays *int `json:"vacationDays"`
}

type VacationDaysResponse struct {
	VacationDays int `json:"vacationDays"`
}
