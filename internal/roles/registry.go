// Package roles implements the capability table gating ledger and exchange
// operations. It is a pure many-to-many Account<->Role mapping with no
// state machine of its own.
package roles

import (
	"github.com/polyphene/recs-contract/internal/domain"
)

// Registry tracks which accounts hold which roles. The deploying account is
// granted every role at creation and acts as the bootstrap Admin.
type Registry struct {
	grants map[domain.Role]map[domain.Address]struct{}
}

// NewRegistry creates a registry with the deployer holding all roles.
func NewRegistry(deployer domain.Address) *Registry {
	r := &Registry{grants: make(map[domain.Role]map[domain.Address]struct{})}
	for _, role := range domain.AllRoles {
		r.grants[role] = map[domain.Address]struct{}{deployer: {}}
	}
	return r
}

// Grant gives account the role. The caller must hold Admin. Granting an
// already-held role is a no-op.
func (r *Registry) Grant(caller domain.Address, role domain.Role, account domain.Address) error {
	if !r.Has(domain.RoleAdmin, caller) {
		return domain.AuthorizationError("Sender must have ADMIN_ROLE to grant roles")
	}
	if !role.Valid() {
		return domain.ValidationError("Unknown role")
	}
	r.grants[role][account] = struct{}{}
	return nil
}

// Has reports whether account holds role. Unknown roles are never held.
func (r *Registry) Has(role domain.Role, account domain.Address) bool {
	holders, ok := r.grants[role]
	if !ok {
		return false
	}
	_, held := holders[account]
	return held
}
