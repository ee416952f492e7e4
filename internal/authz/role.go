// Package authz holds the caller principal, the closed role set, and the
// ownership scoping applied to every project-tied read path.
package authz

import "fmt"

// Role is the closed set of caller roles.
type Role string

const (
	// RoleAdmin sees and mutates everything.
	RoleAdmin Role = "admin"
	// RoleClient sees only rows tied to projects it owns.
	RoleClient Role = "client"
)

// ParseRole maps a stored role string onto the closed set. Anything else is
// rejected rather than falling through to a default.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleClient:
		return RoleClient, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// Principal is the authenticated caller: a client id plus role, extracted
// from the JWT by the middleware.
type Principal struct {
	ClientID int64
	Role     Role
}

// IsAdmin reports whether the principal has the admin role.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}
