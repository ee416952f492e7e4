package authz

import "context"

// ProjectOwnership resolves the set of project ids a client owns.
type ProjectOwnership interface {
	OwnedProjectIDs(ctx context.Context, clientID int64) ([]int64, error)
}

// Scope narrows a query to the projects the caller may see. An admin scope
// is unrestricted; a client scope carries the owned project id set, which
// may be empty.
type Scope struct {
	all        bool
	projectIDs []int64
}

// AdminScope returns the unrestricted scope.
func AdminScope() Scope {
	return Scope{all: true}
}

// ProjectScope returns a scope restricted to the given project ids.
func ProjectScope(ids []int64) Scope {
	return Scope{projectIDs: ids}
}

// All reports whether the scope is unrestricted.
func (s Scope) All() bool { return s.all }

// Empty reports whether the scope restricts to zero projects. Callers must
// short-circuit to an empty result without querying the backing store.
func (s Scope) Empty() bool { return !s.all && len(s.projectIDs) == 0 }

// ProjectIDs returns the restricted id set. Meaningless when All() is true.
func (s Scope) ProjectIDs() []int64 { return s.projectIDs }

// Allows reports whether the scope permits access to the given project.
func (s Scope) Allows(projectID int64) bool {
	if s.all {
		return true
	}
	for _, id := range s.projectIDs {
		if id == projectID {
			return true
		}
	}
	return false
}

// ScopeFor resolves the caller's scope. Admins get the unrestricted scope
// without touching the store; clients get their owned project id set.
func ScopeFor(ctx context.Context, p Principal, ownership ProjectOwnership) (Scope, error) {
	switch p.Role {
	case RoleAdmin:
		return AdminScope(), nil
	case RoleClient:
		ids, err := ownership.OwnedProjectIDs(ctx, p.ClientID)
		if err != nil {
			return Scope{}, err
		}
		return ProjectScope(ids), nil
	default:
		// ParseRole keeps this unreachable; an unknown role sees nothing.
		return ProjectScope(nil), nil
	}
}
