package session

import (
	"github.com/Goblinzzzzzz/boxuemingti-sub004/internal/auth"
)

// State is the session lifecycle:
//
//	Uninitialized -> Initializing -> {Authenticated, Anonymous}
//	Authenticated -> Refreshing -> {Authenticated, Expired}
//
// Expired means the refresh token itself was rejected; recovery requires a
// fresh login.
type State int

const (
	StateUninitialized State = iota
	StateInitializing
	StateAnonymous
	StateAuthenticated
	StateRefreshing
	StateExpired
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticated:
		return "authenticated"
	case StateRefreshing:
		return "refreshing"
	case StateExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Settled reports whether initialization has finished; guards render a
// loading placeholder until it has.
func (s State) Settled() bool {
	return s != StateUninitialized && s != StateInitializing
}

// Authenticated treats an in-flight refresh as still authenticated so the
// UI does not flicker to anonymous mid-refresh.
func (s State) Authenticated() bool {
	return s == StateAuthenticated || s == StateRefreshing
}

// Snapshot is the derived identity state other components read. Only the
// session client writes it.
type Snapshot struct {
	UserID       string   `json:"id"`
	Email        string   `json:"email"`
	Name         string   `json:"name"`
	Organization string   `json:"organization,omitempty"`
	Roles        []string `json:"roles"`
	Permissions  []string `json:"permissions"`
}

// Subject converts the snapshot into evaluator input.
func (s Snapshot) Subject() auth.Subject {
	if s.UserID == "" {
		return auth.Anonymous()
	}
	return auth.NewSubject(s.Roles, s.Permissions)
}
