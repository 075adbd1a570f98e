package auth

import (
	"reflect"
	"testing"
)

func TestDecideRequireAuth(t *testing.T) {
	policy := Policy{RequireAuth: true}

	d := Decide(policy, Anonymous())
	if d.Allowed || !d.AuthMissing {
		t.Fatalf("anonymous subject should be denied with AuthMissing, got %+v", d)
	}
	if d.Reason() != "authentication required" {
		t.Fatalf("unexpected reason: %q", d.Reason())
	}

	d = Decide(policy, NewSubject(nil, nil))
	if !d.Allowed {
		t.Fatalf("authenticated subject should pass an auth-only policy, got %+v", d)
	}
}

func TestDecideEmptyPolicyAdmitsAnyone(t *testing.T) {
	if d := Decide(Policy{}, Anonymous()); !d.Allowed {
		t.Fatalf("zero policy should admit anonymous, got %+v", d)
	}
	if d := Decide(Policy{}, NewSubject([]string{"user"}, nil)); !d.Allowed {
		t.Fatalf("zero policy should admit authenticated, got %+v", d)
	}
}

func TestDecideAnyMode(t *testing.T) {
	policy := Policy{
		RequireAuth: true,
		Permissions: []string{PermQuestionsReview, PermUsersManage},
	}

	reviewer := NewSubject([]string{RoleReviewer}, []string{PermQuestionsRead, PermQuestionsReview})
	if d := Decide(policy, reviewer); !d.Allowed {
		t.Fatalf("one matching permission should satisfy ANY, got %+v", d)
	}

	// No match: the full required set comes back, sorted.
	user := NewSubject([]string{RoleUser}, []string{PermQuestionsRead})
	d := Decide(policy, user)
	if d.Allowed {
		t.Fatal("expected denial")
	}
	want := []string{PermQuestionsReview, PermUsersManage}
	if !reflect.DeepEqual(d.MissingPermissions, want) {
		t.Fatalf("missing permissions = %v, want %v", d.MissingPermissions, want)
	}
}

func TestDecideAllMode(t *testing.T) {
	policy := Policy{
		RequireAuth: true,
		Permissions: []string{PermQuestionsCreate, PermQuestionsReview},
		RequireAll:  true,
	}

	subject := NewSubject(nil, []string{PermQuestionsCreate})
	d := Decide(policy, subject)
	if d.Allowed {
		t.Fatal("expected denial when one of two required permissions is held")
	}
	if !reflect.DeepEqual(d.MissingPermissions, []string{PermQuestionsReview}) {
		t.Fatalf("ALL mode should name only the absent members, got %v", d.MissingPermissions)
	}

	full := NewSubject(nil, []string{PermQuestionsCreate, PermQuestionsReview})
	if d := Decide(policy, full); !d.Allowed {
		t.Fatalf("expected allow with both permissions, got %+v", d)
	}
}

func TestDecideRolesAndPermissionsCombineWithAnd(t *testing.T) {
	policy := Policy{
		RequireAuth: true,
		Roles:       []string{RoleAdmin},
		Permissions: []string{PermQuestionsRead},
	}
	subject := NewSubject([]string{RoleUser}, []string{PermQuestionsRead})
	d := Decide(policy, subject)
	if d.Allowed {
		t.Fatal("permission match must not compensate for a failed role requirement")
	}
	if !reflect.DeepEqual(d.MissingRoles, []string{RoleAdmin}) {
		t.Fatalf("missing roles = %v", d.MissingRoles)
	}
	if len(d.MissingPermissions) != 0 {
		t.Fatalf("permissions were satisfied, missing = %v", d.MissingPermissions)
	}
}

// A reviewer passes permission-based gates for review work but is still
// denied by an admin role gate, which names the missing role.
func TestDecideReviewerAgainstReviewAndAdminGates(t *testing.T) {
	reviewer := NewSubject(
		[]string{RoleReviewer},
		BuiltinRoleGrants[RoleReviewer],
	)

	reviewGate := Policy{RequireAuth: true, Permissions: []string{PermQuestionsReview}}
	if d := Decide(reviewGate, reviewer); !d.Allowed {
		t.Fatalf("reviewer should pass the review gate, got %+v", d)
	}

	adminGate := Policy{RequireAuth: true, Roles: []string{RoleAdmin}}
	d := Decide(adminGate, reviewer)
	if d.Allowed {
		t.Fatal("reviewer must not pass an admin role gate")
	}
	if d.Reason() != "missing roles: admin" {
		t.Fatalf("unexpected reason: %q", d.Reason())
	}
}

// The decision must not depend on declaration order, duplicates, or the
// iteration order of the subject's sets.
func TestDecideDeterministic(t *testing.T) {
	a := Policy{
		RequireAuth: true,
		Permissions: []string{PermUsersManage, PermRolesManage, PermUsersManage},
		RequireAll:  true,
	}
	b := Policy{
		RequireAuth: true,
		Permissions: []string{PermRolesManage, PermUsersManage},
		RequireAll:  true,
	}
	subject := NewSubject([]string{RoleUser}, []string{PermQuestionsRead})

	first := Decide(a, subject)
	for i := 0; i < 50; i++ {
		if d := Decide(a, subject); !reflect.DeepEqual(d, first) {
			t.Fatalf("decision changed across evaluations: %+v vs %+v", d, first)
		}
		if d := Decide(b, subject); !reflect.DeepEqual(d.MissingPermissions, first.MissingPermissions) {
			t.Fatalf("requirement order changed the outcome: %v vs %v", d.MissingPermissions, first.MissingPermissions)
		}
	}
}

func TestDecisionReasonNamesBothSets(t *testing.T) {
	d := Decision{
		MissingRoles:       []string{RoleAdmin},
		MissingPermissions: []string{PermUsersManage},
	}
	want := "missing roles: admin; missing permissions: users.manage"
	if got := d.Reason(); got != want {
		t.Fatalf("Reason() = %q, want %q", got, want)
	}
}
