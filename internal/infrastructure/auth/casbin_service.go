package auth

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"github.com/you/tradeauth/domain"
	"gorm.io/gorm"
)

// DefaultModel matches role subjects against keyMatch2 paths and method regexes
const DefaultModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && keyMatch2(r.obj, p.obj) && regexMatch(r.act, p.act)
`

type CasbinService struct{ E *casbin.Enforcer }

// NewCasbinService loads the model from modelPath, or DefaultModel when the
// path is empty, and persists policies through the gorm adapter.
func NewCasbinService(db *gorm.DB, modelPath string) (*CasbinService, error) {
	adp, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin adapter: %w", err)
	}

	var m model.Model
	if modelPath != "" {
		m, err = model.NewModelFromFile(modelPath)
	} else {
		m, err = model.NewModelFromString(DefaultModel)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load casbin model: %w", err)
	}

	e, err := casbin.NewEnforcer(m, adp)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}
	if err := e.LoadPolicy(); err != nil {
		return nil, fmt.Errorf("failed to load casbin policies: %w", err)
	}
	return &CasbinService{E: e}, nil
}

// DefaultPolicies grants every role its own profile and password endpoints
// and admins the back-office routes
func DefaultPolicies() [][]string {
	roles := []domain.Role{
		domain.RoleBuyer, domain.RoleSeller, domain.RoleAdmin,
		domain.RoleSupport, domain.RoleCTO, domain.RoleDataEntry,
	}
	policies := make([][]string, 0, len(roles)*2+1)
	for _, role := range roles {
		sub := role.Subject()
		policies = append(policies,
			[]string{sub, "/auth/me", "GET"},
			[]string{sub, "/auth/password", "POST"},
		)
	}
	policies = append(policies, []string{domain.RoleAdmin.Subject(), "/admin/*", "(GET|POST|DELETE)"})
	return policies
}

// SeedDefaults installs DefaultPolicies when the policy table is empty and
// reports whether anything was written
func (s *CasbinService) SeedDefaults() (bool, error) {
	existing, err := s.E.GetPolicy()
	if err != nil {
		return false, err
	}
	if len(existing) > 0 {
		return false, nil
	}
	for _, p := range DefaultPolicies() {
		if _, err := s.E.AddPolicy(p[0], p[1], p[2]); err != nil {
			return false, fmt.Errorf("failed to seed policy %v: %w", p, err)
		}
	}
	return true, nil
}
