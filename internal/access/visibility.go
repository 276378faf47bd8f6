package access

import "github.com/planopia/leave_service/internal/entity"

// Scope is the result of resolving what a requester may see in a listing.
// When Unrestricted is false only holders of Roles are visible.
type Scope struct {
	Unrestricted bool
	Roles        []entity.RoleName
}

// Includes reports whether a user holding roles falls inside the scope.
func (s Scope) Includes(roles entity.Roles) bool {
	if s.Unrestricted {
		return true
	}

	return roles.HasAny(s.Roles...)
}

var unrestrictedRoles = []entity.RoleName{entity.RoleAdmin, entity.RoleZarzad, entity.RoleUrlopyCzasPracy}

// subordinates maps a supervisor role to the single base role it oversees.
var subordinates = map[entity.RoleName]entity.RoleName{
	entity.RoleKierownikIT:        entity.RoleIT,
	entity.RoleKierownikBOK:       entity.RoleBok,
	entity.RoleKierownikBukmacher: entity.RoleBukmacher,
	entity.RoleKierownikMarketing: entity.RoleMarketing,
}

// Subordinate returns the base role overseen by a supervisor role.
func Subordinate(role entity.RoleName) (entity.RoleName, bool) {
	sub, ok := subordinates[role]
	return sub, ok
}

// UsersScope resolves the "all users" listing. Top-level roles see everyone;
// supervisors see the union of their subordinate base roles; base-only holders
// see users sharing their own base roles.
func UsersScope(roles entity.Roles) Scope {
	if roles.HasAny(unrestrictedRoles...) {
		return Scope{Unrestricted: true}
	}

	seen := make(map[entity.RoleName]struct{})
	visible := make([]entity.RoleName, 0, len(roles))
	add := func(r entity.RoleName) {
		if _, ok := seen[r]; ok {
			return
		}
		seen[r] = struct{}{}
		visible = append(visible, r)
	}

	for _, r := range roles {
		if sub, ok := subordinates[r]; ok {
			add(sub)
			continue
		}
		if isBaseRole(r) {
			add(r)
		}
	}

	return Scope{Roles: visible}
}

// PlansScope resolves the "all user plans" listing. It is deliberately broader
// than UsersScope: every known role sees all plans; only users without any
// recognised role see nothing.
func PlansScope(roles entity.Roles) Scope {
	for _, r := range roles {
		if r.Valid() {
			return Scope{Unrestricted: true}
		}
	}

	return Scope{Roles: []entity.RoleName{}}
}

func isBaseRole(r entity.RoleName) bool {
	switch r {
	case entity.RoleIT, entity.RoleMarketing, entity.RoleBukmacher, entity.RoleBok:
		return true
	}

	return false
}
