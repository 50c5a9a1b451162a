package domain

// Role is a named permission held by an account.
type Role string

// Role constants.
const (
	RoleAdmin    Role = "ADMIN_ROLE"
	RoleMinter   Role = "MINTER_ROLE"
	RoleRedeemer Role = "REDEEMER_ROLE"
	RoleAuditor  Role = "AUDITOR_ROLE"
)

// AllRoles lists every role the registry knows about.
var AllRoles = []Role{RoleAdmin, RoleMinter, RoleRedeemer, RoleAuditor}

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleMinter, RoleRedeemer, RoleAuditor:
		return true
	}
	return false
}
