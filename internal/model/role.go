package model

// Role is a delivery role whose effort is estimated in days.
type Role string

const (
	RoleAnalyst        Role = "analyst"
	RoleDesigner       Role = "designer"
	RoleFrontend       Role = "frontend"
	RoleBackend        Role = "backend"
	RoleSystemAnalyst  Role = "system-analyst"
	RoleIntegrationDev Role = "integration-dev"
	RoleArchitect      Role = "architect"
)

// Roles lists every recognized role in display order.
var Roles = []Role{
	RoleAnalyst,
	RoleDesigner,
	RoleFrontend,
	RoleBackend,
	RoleSystemAnalyst,
	RoleIntegrationDev,
	RoleArchitect,
}

type roleInfo struct {
	title  string
	suffix string // form field suffix, e.g. "SystemAnalyst" in "rateSystemAnalyst"
}

var roleInfos = map[Role]roleInfo{
	RoleAnalyst:        {"Business analyst", "Analyst"},
	RoleDesigner:       {"Designer", "Designer"},
	RoleFrontend:       {"Frontend developer", "Frontend"},
	RoleBackend:        {"Backend developer", "Backend"},
	RoleSystemAnalyst:  {"System analyst", "SystemAnalyst"},
	RoleIntegrationDev: {"Integration developer", "IntegrationDev"},
	RoleArchitect:      {"Architect", "Architect"},
}

// ParseRole returns the role for a wire key such as "system-analyst".
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	_, ok := roleInfos[r]
	return r, ok
}

// Title returns the human-readable role name.
func (r Role) Title() string {
	if info, ok := roleInfos[r]; ok {
		return info.title
	}
	return string(r)
}
