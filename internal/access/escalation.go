package access

import "github.com/planopia/leave_service/internal/entity"

type escalationStep struct {
	from entity.RoleName
	to   entity.RoleName
}

// escalationChain names the supervisor role notified for each submitter role.
var escalationChain = []escalationStep{
	{entity.RoleIT, entity.RoleKierownikIT},
	{entity.RoleBok, entity.RoleKierownikBOK},
	{entity.RoleBukmacher, entity.RoleKierownikBukmacher},
	{entity.RoleMarketing, entity.RoleKierownikMarketing},
	{entity.RoleKierownikIT, entity.RoleZarzad},
	{entity.RoleKierownikBOK, entity.RoleZarzad},
	{entity.RoleKierownikBukmacher, entity.RoleZarzad},
	{entity.RoleKierownikMarketing, entity.RoleZarzad},
	{entity.RoleZarzad, entity.RoleZarzad},
}

func supervisorOf(role entity.RoleName) (entity.RoleName, bool) {
	for _, step := range escalationChain {
		if step.from == role {
			return step.to, true
		}
	}

	return "", false
}

// SupervisorRole walks roles in the order the user holds them and returns the
// supervisor of the first role that has one.
func SupervisorRole(roles entity.Roles) (entity.RoleName, bool) {
	for _, r := range roles {
		if sup, ok := supervisorOf(r); ok {
			return sup, true
		}
	}

	return "", false
}
