// Package guard decides whether a viewer may see a protected page.
//
// Evaluate is the pure decision. Guard.Mount keeps a decision alive for as
// long as a view is open, re-evaluating on every session change, and
// Middleware is the one-shot form used when rendering a page.
package guard

import (
	"github.com/econest/web/internal/web/domain"
)

type Decision int

const (
	// Pending: session or role still being fetched. Render a placeholder, never redirect.
	Pending Decision = iota
	// Allow: render the guarded content.
	Allow
	// Deny: redirect to sign-in or show the inline denial, depending on Verdict.Redirect.
	Deny
)

func (d Decision) String() string {
	switch d {
	case Pending:
		return "pending"
	case Allow:
		return "allow"
	case Deny:
		return "deny"
	default:
		return "unknown"
	}
}

// State is what the guard knows so far.
type State struct {
	Resolved bool
	Session  *domain.Session
	Role     domain.Role
}

// Verdict is one decision plus what the renderer needs to act on it.
type Verdict struct {
	Decision   Decision
	Redirect   bool
	Capability domain.Capability
	Session    *domain.Session
	Role       domain.Role
}

// Evaluate maps state to a verdict for the required capability.
//
// Identity-required guards redirect when there is no session. Capability
// guards never redirect: without a session the role is none, and any role
// short of the capability gets the inline denial.
func Evaluate(st State, capability domain.Capability) Verdict {
	v := Verdict{Capability: capability, Session: st.Session, Role: st.Role}

	switch {
	case !st.Resolved:
		v.Decision = Pending
	case !capability.RequiresRole():
		if st.Session == nil {
			v.Decision = Deny
			v.Redirect = true
		} else {
			v.Decision = Allow
		}
	case st.Session == nil:
		v.Decision = Deny
		v.Role = domain.RoleNone
	case !domain.Satisfies(st.Role, capability):
		v.Decision = Deny
	default:
		v.Decision = Allow
	}
	return v
}
