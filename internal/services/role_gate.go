package services

import (
	"crypto/subtle"

	"github.com/you/tradeauth/domain"
)

// RoleGateImpl implements domain.RoleGate
type RoleGateImpl struct {
	adminCode []byte
}

// NewRoleGate creates a role gate. An empty admin code rejects every admin login.
func NewRoleGate(adminCode string) *RoleGateImpl {
	return &RoleGateImpl{adminCode: []byte(adminCode)}
}

var _ domain.RoleGate = (*RoleGateImpl)(nil)

// Check implements domain.RoleGate. Status is checked first, then the
// endpoint role, then the admin code for any admin identity or endpoint.
func (g *RoleGateImpl) Check(identity *domain.Identity, expected *domain.Role, adminCode string) error {
	if !identity.IsActive() {
		return domain.ErrAccountInactive
	}
	if expected != nil && identity.Role != *expected {
		return domain.ErrRoleMismatch
	}
	if identity.Role == domain.RoleAdmin || (expected != nil && *expected == domain.RoleAdmin) {
		if !g.adminCodeMatches(adminCode) {
			return domain.ErrAdminCodeInvalid
		}
	}
	return nil
}

func (g *RoleGateImpl) adminCodeMatches(code string) bool {
	if len(g.adminCode) == 0 || code == "" {
		return false
	}
	return subtle.ConstantTimeCompare(g.adminCode, []byte(code)) == 1
}
