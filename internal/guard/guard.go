// Package guard turns authorization decisions into navigation outcomes.
// Route guards may redirect; component guards only ever show, hide, or
// swap in a fallback, so a denied widget never yanks the user off the
// page they are allowed to see.
package guard

import (
	"net/url"

	"github.com/Goblinzzzzzz/boxuemingti-sub004/internal/auth"
	"github.com/Goblinzzzzzz/boxuemingti-sub004/internal/session"
)

// Outcome is a route guard verdict.
type Outcome int

const (
	// Loading means the session has not settled; render a placeholder,
	// never a premature redirect.
	Loading Outcome = iota
	Allow
	// RedirectLogin carries the originally requested path so login can
	// return the user there.
	RedirectLogin
	// RedirectUnauthorized names what was missing, not why.
	RedirectUnauthorized
)

func (o Outcome) String() string {
	switch o {
	case Loading:
		return "loading"
	case Allow:
		return "allow"
	case RedirectLogin:
		return "redirect_login"
	case RedirectUnauthorized:
		return "redirect_unauthorized"
	default:
		return "unknown"
	}
}

// RouteResult is the full route guard decision.
type RouteResult struct {
	Outcome Outcome
	// ReturnTo is set for RedirectLogin: the path to resume after login.
	ReturnTo string
	// Reason is set for RedirectUnauthorized.
	Reason string
}

// LoginTarget builds the login URL with the return path attached.
func (r RouteResult) LoginTarget() string {
	if r.Outcome != RedirectLogin || r.ReturnTo == "" {
		return "/login"
	}
	return "/login?return_to=" + url.QueryEscape(r.ReturnTo)
}

// Route evaluates a policy for navigation. An unsettled session yields
// Loading; an unauthenticated subject is sent to login with the requested
// path preserved; an authenticated subject missing roles or permissions
// is sent to the unauthorized page with the missing requirements named.
func Route(policy auth.Policy, state session.State, snap session.Snapshot, requestedPath string) RouteResult {
	if !state.Settled() {
		return RouteResult{Outcome: Loading}
	}

	subject := snap.Subject()
	if !state.Authenticated() {
		subject = auth.Anonymous()
	}
	decision := auth.Decide(policy, subject)
	if decision.Allowed {
		return RouteResult{Outcome: Allow}
	}
	if decision.AuthMissing {
		return RouteResult{Outcome: RedirectLogin, ReturnTo: requestedPath}
	}
	return RouteResult{Outcome: RedirectUnauthorized, Reason: decision.Reason()}
}

// Visibility is a component guard verdict.
type Visibility int

const (
	Show Visibility = iota
	Hide
	Fallback
)

func (v Visibility) String() string {
	switch v {
	case Show:
		return "show"
	case Hide:
		return "hide"
	case Fallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// Component evaluates a policy for an in-page element. While the session
// is unsettled the element stays hidden (or shows its fallback) instead of
// flashing in and out. Component guards never redirect.
func Component(policy auth.Policy, state session.State, snap session.Snapshot, hasFallback bool) Visibility {
	denied := func() Visibility {
		if hasFallback {
			return Fallback
		}
		return Hide
	}
	if !state.Settled() {
		return denied()
	}
	subject := snap.Subject()
	if !state.Authenticated() {
		subject = auth.Anonymous()
	}
	if auth.Decide(policy, subject).Allowed {
		return Show
	}
	return denied()
}
