package auth

import (
	"sort"
	"strings"
)

// Policy declares what a caller must hold to pass a gate. The zero value
// admits everyone. The same evaluation runs on the server boundary (403)
// and in the client-side guards, so the semantics here are the single
// source of truth.
type Policy struct {
	RequireAuth bool     `json:"require_auth"`
	Roles       []string `json:"roles,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
	RequireAll  bool     `json:"require_all"`
}

// Subject is the authenticated caller's resolved state.
type Subject struct {
	Authenticated bool
	Roles         map[string]struct{}
	Permissions   map[string]struct{}
}

// NewSubject builds an authenticated subject from flat role and permission
// name lists.
func NewSubject(roles, permissions []string) Subject {
	return Subject{
		Authenticated: true,
		Roles:         toSet(roles),
		Permissions:   toSet(permissions),
	}
}

// Anonymous is the subject used before authentication settles.
func Anonymous() Subject {
	return Subject{}
}

// Decision is the evaluator outcome. Missing sets are sorted so the
// decision is deterministic regardless of requirement ordering.
type Decision struct {
	Allowed            bool
	AuthMissing        bool
	MissingRoles       []string
	MissingPermissions []string
}

// Reason renders a human-readable denial explanation. It names what was
// required, never why the subject lacks it.
func (d Decision) Reason() string {
	if d.Allowed {
		return ""
	}
	if d.AuthMissing {
		return "authentication required"
	}
	var parts []string
	if len(d.MissingRoles) > 0 {
		parts = append(parts, "missing roles: "+strings.Join(d.MissingRoles, ", "))
	}
	if len(d.MissingPermissions) > 0 {
		parts = append(parts, "missing permissions: "+strings.Join(d.MissingPermissions, ", "))
	}
	if len(parts) == 0 {
		return "access denied"
	}
	return strings.Join(parts, "; ")
}

// Decide evaluates a policy against a subject. Role and permission
// requirements combine with AND; within each set RequireAll selects
// every-member semantics, otherwise any single match admits. An empty
// policy admits any subject unless RequireAuth is set and the subject is
// unauthenticated.
func Decide(p Policy, s Subject) Decision {
	if p.RequireAuth && !s.Authenticated {
		return Decision{AuthMissing: true}
	}

	d := Decision{Allowed: true}
	if len(p.Roles) > 0 {
		ok, missing := matchSet(p.Roles, s.Roles, p.RequireAll)
		if !ok {
			d.Allowed = false
			d.MissingRoles = missing
		}
	}
	if len(p.Permissions) > 0 {
		ok, missing := matchSet(p.Permissions, s.Permissions, p.RequireAll)
		if !ok {
			d.Allowed = false
			d.MissingPermissions = missing
		}
	}
	return d
}

// matchSet reports whether required is satisfied by held. On failure it
// returns the unmet requirements: under ALL the absent members, under ANY
// the full required set (none matched).
func matchSet(required []string, held map[string]struct{}, all bool) (bool, []string) {
	var missing []string
	matched := 0
	for _, name := range dedupe(required) {
		if _, ok := held[name]; ok {
			matched++
		} else {
			missing = append(missing, name)
		}
	}
	if all {
		if len(missing) == 0 {
			return true, nil
		}
		sort.Strings(missing)
		return false, missing
	}
	if matched > 0 {
		return true, nil
	}
	sort.Strings(missing)
	return false, missing
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		set[v] = struct{}{}
	}
	return set
}

func dedupe(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
