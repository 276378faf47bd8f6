package entity

import (
	"time"

	"github.com/google/uuid"
)

type AuditAction string

const (
	ActionRegister             AuditAction = "REGISTER"
	ActionSetPassword          AuditAction = "SET_PASSWORD"
	ActionResetPassword        AuditAction = "RESET_PASSWORD"
	ActionResetPasswordRequest AuditAction = "RESET_PASSWORD_REQUEST"
	ActionLogin                AuditAction = "LOGIN"
	ActionChangePassword       AuditAction = "CHANGE_PASSWORD"
	ActionUpdateRoles          AuditAction = "UPDATE_ROLES"
	ActionDeleteUser           AuditAction = "DELETE_USER"
)

type AuditLogEntry struct {
	ID            uuid.UUID   `json:"id"`
	SubjectUserID uuid.UUID   `json:"subjectUserId"`
	Action        AuditAction `json:"action"`
	Details       string      `json:"details"`
	CreatedBy     *uuid.UUID  `json:"createdBy,omitempty"`
	Timestamp     time.Time   `json:"timestamp"`

	SubjectUsername *string `json:"subjectUsername,omitempty"`
	ActorUsername   *string `json:"actorUsername,omitempty"`
}
