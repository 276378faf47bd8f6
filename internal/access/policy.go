// Package access holds the role tables of the service: which roles may run an
// operation, which users a role may see, and who supervises whom.
package access

import (
	"fmt"

	"github.com/planopia/leave_service/internal/entity"
)

type Operation string

const (
	OpRegisterUser        Operation = "user.register"
	OpListUsers           Operation = "user.list"
	OpGetUser             Operation = "user.get"
	OpUpdateRoles         Operation = "user.roles.update"
	OpGetRoles            Operation = "user.roles.get"
	OpDeleteUser          Operation = "user.delete"
	OpUpdateVacationDays  Operation = "user.vacation_days.update"
	OpGetVacationDays     Operation = "user.vacation_days.get"
	OpReadAuditLog        Operation = "audit.read"
	OpListLeaveRequests   Operation = "leave_request.list_for_user"
	OpChangeLeaveStatus   Operation = "leave_request.change_status"
	OpMarkLeaveProcessed  Operation = "leave_request.mark_processed"
	OpReadUserLeavePlans  Operation = "leave_plan.read_user"
	OpReadAllLeavePlans   Operation = "leave_plan.read_all"
	OpReadUserWorkdays    Operation = "workday.read_user"
	OpReadUserConfirmStat Operation = "workday.confirmation.read_user"
)

// PrivilegedRoles is the default cross-user gate.
var PrivilegedRoles = []entity.RoleName{
	entity.RoleAdmin,
	entity.RoleZarzad,
	entity.RoleKierownikIT,
	entity.RoleKierownikBOK,
	entity.RoleKierownikBukmacher,
	entity.RoleKierownikMarketing,
	entity.RoleUrlopyCzasPracy,
}

var adminOnly = []entity.RoleName{entity.RoleAdmin}

var privilegedAndBase = append(append([]entity.RoleName{}, PrivilegedRoles...),
	entity.RoleIT, entity.RoleMarketing, entity.RoleBukmacher, entity.RoleBok)

// allowList maps every role-gated operation to the roles allowed to run it.
var allowList = map[Operation][]entity.RoleName{
	OpRegisterUser:        adminOnly,
	OpListUsers:           adminOnly,
	OpGetUser:             privilegedAndBase,
	OpUpdateRoles:         adminOnly,
	OpGetRoles:            adminOnly,
	OpDeleteUser:          adminOnly,
	OpUpdateVacationDays:  PrivilegedRoles,
	OpGetVacationDays:     PrivilegedRoles,
	OpReadAuditLog:        adminOnly,
	OpListLeaveRequests:   PrivilegedRoles,
	OpChangeLeaveStatus:   PrivilegedRoles,
	OpMarkLeaveProcessed:  PrivilegedRoles,
	OpReadUserLeavePlans:  privilegedAndBase,
	OpReadAllLeavePlans:   PrivilegedRoles,
	OpReadUserWorkdays:    PrivilegedRoles,
	OpReadUserConfirmStat: PrivilegedRoles,
}

// AllowedRoles returns the allow-list for op. Unknown operations allow nobody.
func AllowedRoles(op Operation) []entity.RoleName {
	return allowList[op]
}

// Authorize returns entity.ErrForbidden unless roles intersect the allow-list of op.
func Authorize(op Operation, roles entity.Roles) error {
	allowed, ok := allowList[op]
	if !ok {
		return fmt.Errorf("%w: unknown operation %s", entity.ErrForbidden, op)
	}

	if !roles.HasAny(allowed...) {
		return fmt.Errorf("%w: %s", entity.ErrForbidden, op)
	}

	return nil
}
