package entity

type RoleName string

const (
	RoleIT        RoleName = "IT"
	RoleMarketing RoleName = "Marketing"
	RoleBukmacher RoleName = "Bukmacher"
	RoleBok       RoleName = "Bok"

	RoleKierownikIT        RoleName = "Kierownik IT"
	RoleKierownikBOK       RoleName = "Kierownik BOK"
	RoleKierownikBukmacher RoleName = "Kierownik Bukmacher"
	RoleKierownikMarketing RoleName = "Kierownik Marketing"

	RoleZarzad          RoleName = "Zarząd"
	RoleAdmin           RoleName = "Admin"
	RoleUrlopyCzasPracy RoleName = "Urlopy czas pracy"
)

// AllRoles lists every role the system knows, base roles first.
var AllRoles = []RoleName{
	RoleIT, RoleMarketing, RoleBukmacher, RoleBok,
	RoleKierownikIT, RoleKierownikBOK, RoleKierownikBukmacher, RoleKierownikMarketing,
	RoleZarzad, RoleAdmin, RoleUrlopyCzasPracy,
}

func (r RoleName) Valid() bool {
	for _, known := range AllRoles {
		if r == known {
			return true
		}
	}

	return false
}

// Roles is the role set held by a user. Order is significant for supervisor resolution.
type Roles []RoleName

func (rs Roles) Has(role RoleName) bool {
	for _, r := range rs {
		if r == role {
			return true
		}
	}

	return false
}

func (rs Roles) HasAny(roles ...RoleName) bool {
	for _, r := range roles {
		if rs.Has(r) {
			return true
		}
	}

	return false
}

func (rs Roles) Strings() []string {
	out := make([]string, 0, len(rs))
	for _, r := range rs {
		out = append(out, string(r))
	}

	return out
}

func RolesFromStrings(values []string) Roles {
	out := make(Roles, 0, len(values))
	for _, v := range values {
		out = append(out, RoleName(v))
	}

	return out
}
