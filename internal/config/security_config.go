package config

import "lounge-pos-backend/internal/domain"

type SecurityLevel int

const (
	SecurityPublic  SecurityLevel = iota // No authentication
	SecurityCashier                      // Any signed-in staff member
	SecurityAdmin                        // Admin role required
)

// EndpointSecurityConfig maps route names to their required security level.
// Routes missing from the map require SecurityAdmin.
var EndpointSecurityConfig = map[string]SecurityLevel{
	"healthz": SecurityPublic,
	"metrics": SecurityPublic,

	"orders.create":        SecurityCashier,
	"orders.list":          SecurityCashier,
	"orders.stats":         SecurityCashier,
	"orders.get":           SecurityCashier,
	"orders.update_status": SecurityCashier,
	"orders.delete":        SecurityAdmin,

	"sessions.start":   SecurityCashier,
	"sessions.active":  SecurityCashier,
	"sessions.get":     SecurityCashier,
	"sessions.end":     SecurityCashier,
	"sessions.invoice": SecurityCashier,

	"payments.list":          SecurityCashier,
	"payments.get":           SecurityCashier,
	"payments.stats":         SecurityAdmin,
	"payments.update_status": SecurityAdmin,
}

func GetSecurityLevel(route string) SecurityLevel {
	if level, ok := EndpointSecurityConfig[route]; ok {
		return level
	}
	return SecurityAdmin
}

// Allows reports whether a caller with role may use a route at this level.
func (l SecurityLevel) Allows(role domain.Role) bool {
	switch l {
	case SecurityPublic:
		return true
	case SecurityCashier:
		return role == domain.RoleCashier || role == domain.RoleAdmin
	default:
		return role == domain.RoleAdmin
	}
}
