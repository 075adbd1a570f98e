package guard

import (
	"strings"
	"testing"

	"github.com/Goblinzzzzzz/boxuemingti-sub004/internal/auth"
	"github.com/Goblinzzzzzz/boxuemingti-sub004/internal/session"
)

var (
	authOnly   = auth.Policy{RequireAuth: true}
	reviewGate = auth.Policy{RequireAuth: true, Permissions: []string{auth.PermQuestionsReview}}
	adminGate  = auth.Policy{RequireAuth: true, Roles: []string{auth.RoleAdmin}}

	reviewerSnap = session.Snapshot{
		UserID:      "user-1",
		Roles:       []string{auth.RoleReviewer},
		Permissions: []string{auth.PermQuestionsRead, auth.PermQuestionsReview},
	}
)

func TestRouteLoadingWhileUnsettled(t *testing.T) {
	for _, state := range []session.State{session.StateUninitialized, session.StateInitializing} {
		r := Route(authOnly, state, session.Snapshot{}, "/review")
		if r.Outcome != Loading {
			t.Fatalf("state %v: outcome %v, want loading", state, r.Outcome)
		}
	}
}

func TestRouteRedirectsAnonymousToLogin(t *testing.T) {
	for _, state := range []session.State{session.StateAnonymous, session.StateExpired} {
		r := Route(authOnly, state, session.Snapshot{}, "/review/queue")
		if r.Outcome != RedirectLogin {
			t.Fatalf("state %v: outcome %v, want redirect_login", state, r.Outcome)
		}
		if r.ReturnTo != "/review/queue" {
			t.Fatalf("return_to = %q", r.ReturnTo)
		}
		if !strings.Contains(r.LoginTarget(), "return_to=%2Freview%2Fqueue") {
			t.Fatalf("login target = %q", r.LoginTarget())
		}
	}
}

func TestRouteAllowsAuthenticated(t *testing.T) {
	if r := Route(reviewGate, session.StateAuthenticated, reviewerSnap, "/review"); r.Outcome != Allow {
		t.Fatalf("outcome %v, want allow", r.Outcome)
	}
	// An in-flight refresh still counts as authenticated.
	if r := Route(reviewGate, session.StateRefreshing, reviewerSnap, "/review"); r.Outcome != Allow {
		t.Fatalf("refreshing: outcome %v, want allow", r.Outcome)
	}
}

func TestRouteUnauthorizedNamesRequirements(t *testing.T) {
	r := Route(adminGate, session.StateAuthenticated, reviewerSnap, "/admin")
	if r.Outcome != RedirectUnauthorized {
		t.Fatalf("outcome %v, want redirect_unauthorized", r.Outcome)
	}
	if r.Reason != "missing roles: admin" {
		t.Fatalf("reason = %q", r.Reason)
	}
	if r.ReturnTo != "" {
		t.Fatal("unauthorized redirect must not carry a return path")
	}
}

// A stale snapshot from a dead session must not grant access.
func TestRouteIgnoresSnapshotWhenExpired(t *testing.T) {
	r := Route(reviewGate, session.StateExpired, reviewerSnap, "/review")
	if r.Outcome != RedirectLogin {
		t.Fatalf("expired session with stale snapshot: outcome %v", r.Outcome)
	}
}

func TestComponentNeverRedirects(t *testing.T) {
	cases := []struct {
		name        string
		state       session.State
		snap        session.Snapshot
		hasFallback bool
		want        Visibility
	}{
		{"unsettled hides", session.StateInitializing, session.Snapshot{}, false, Hide},
		{"unsettled with fallback", session.StateInitializing, session.Snapshot{}, true, Fallback},
		{"anonymous hides", session.StateAnonymous, session.Snapshot{}, false, Hide},
		{"allowed shows", session.StateAuthenticated, reviewerSnap, false, Show},
		{"denied hides", session.StateAuthenticated, session.Snapshot{UserID: "u", Roles: []string{auth.RoleUser}}, false, Hide},
		{"denied with fallback", session.StateAuthenticated, session.Snapshot{UserID: "u", Roles: []string{auth.RoleUser}}, true, Fallback},
		{"refreshing shows", session.StateRefreshing, reviewerSnap, false, Show},
	}
	for _, tc := range cases {
		if got := Component(reviewGate, tc.state, tc.snap, tc.hasFallback); got != tc.want {
			t.Fatalf("%s: visibility %v, want %v", tc.name, got, tc.want)
		}
	}
}

// Route and component guards run the same evaluator, so a subject allowed
// at the route is allowed in its components and vice versa.
func TestGuardsAgree(t *testing.T) {
	snaps := []session.Snapshot{
		reviewerSnap,
		{UserID: "u-2", Roles: []string{auth.RoleUser}, Permissions: []string{auth.PermQuestionsRead}},
		{},
	}
	for _, policy := range []auth.Policy{authOnly, reviewGate, adminGate} {
		for _, snap := range snaps {
			route := Route(policy, session.StateAuthenticated, snap, "/p")
			comp := Component(policy, session.StateAuthenticated, snap, false)
			if (route.Outcome == Allow) != (comp == Show) {
				t.Fatalf("guards disagree for policy %+v snap %+v: %v vs %v",
					policy, snap, route.Outcome, comp)
			}
		}
	}
}
