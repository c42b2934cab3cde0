// Package guard decides, for every navigation, whether to proceed or to
// redirect to the login or home route.
package guard

import (
	"context"

	"github.com/coursehub/coursehub/internal/session"
)

// Decision is the outcome of evaluating a navigation
type Decision int

const (
	Proceed Decision = iota
	RedirectLogin
	RedirectHome
)

func (d Decision) String() string {
	switch d {
	case Proceed:
		return "proceed"
	case RedirectLogin:
		return "redirect-login"
	case RedirectHome:
		return "redirect-home"
	default:
		return "unknown"
	}
}

// State is the authentication state the guard sees
type State int

const (
	Anonymous State = iota
	TokenOnly
	Authenticated
)

func (s State) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case TokenOnly:
		return "token-only"
	case Authenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// SessionState is what the guard needs from the session manager
type SessionState interface {
	HasToken() bool
	Current() (session.User, bool)
	Restore(ctx context.Context) bool
}

// StateOf classifies the current session
func StateOf(s SessionState) State {
	if !s.HasToken() {
		return Anonymous
	}
	if _, ok := s.Current(); !ok {
		return TokenOnly
	}
	return Authenticated
}

// Evaluate decides a navigation to a route with the given auth requirement.
// It only blocks when a token exists without a user and the target needs
// auth, in which case the session is restored first.
func Evaluate(ctx context.Context, requiresAuth bool, s SessionState) Decision {
	hasToken := s.HasToken()
	_, hasUser := s.Current()

	if requiresAuth {
		if !hasToken {
			return RedirectLogin
		}
		if !hasUser && !s.Restore(ctx) {
			return RedirectLogin
		}
		return Proceed
	}

	if hasToken && hasUser {
		return RedirectHome
	}
	return Proceed
}
