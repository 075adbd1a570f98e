package auth

import (
	"context"
	"sort"
)

// Principal is a user with their flattened roles and permissions.
type Principal struct {
	User        *User
	Roles       map[string]struct{}
	Permissions map[string]struct{}
}

// HasRole reports whether the principal holds the named role.
func (p Principal) HasRole(name string) bool {
	_, ok := p.Roles[name]
	return ok
}

// HasPermission reports whether the principal holds the named permission.
func (p Principal) HasPermission(key string) bool {
	_, ok := p.Permissions[key]
	return ok
}

// RoleNames returns the principal's role names, sorted.
func (p Principal) RoleNames() []string {
	return sortedKeys(p.Roles)
}

// PermissionKeys returns the principal's permission keys, sorted.
func (p Principal) PermissionKeys() []string {
	return sortedKeys(p.Permissions)
}

// Subject converts the principal into evaluator input.
func (p Principal) Subject() Subject {
	return Subject{
		Authenticated: p.User != nil,
		Roles:         p.Roles,
		Permissions:   p.Permissions,
	}
}

// Principal loads a user and resolves the transitive permission set by
// walking user -> roles -> permissions. Read-only and idempotent; callers
// may cache the result for the lifetime of a session snapshot. Staleness
// after a server-side role change is bounded by the access-token TTL.
func (s *Service) Principal(ctx context.Context, userID string) (Principal, error) {
	user, err := s.store.Users(ctx).Find(ctx, userID)
	if err != nil {
		return Principal{}, err
	}
	roles, err := s.store.Roles(ctx).RolesForUser(ctx, userID)
	if err != nil {
		return Principal{}, err
	}

	roleSet := make(map[string]struct{}, len(roles))
	permSet := make(map[string]struct{})
	perms := s.store.Permissions(ctx)
	for _, role := range roles {
		roleSet[role.Name] = struct{}{}
		list, err := perms.PermissionsForRole(ctx, role.ID)
		if err != nil {
			return Principal{}, err
		}
		for _, p := range list {
			permSet[p.Key()] = struct{}{}
		}
	}
	return Principal{User: user, Roles: roleSet, Permissions: permSet}, nil
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
