package guard_test

import (
	"testing"

	"github.com/econest/web/internal/web/domain"
	"github.com/econest/web/internal/web/guard"
	"github.com/stretchr/testify/require"
)

var alice = &domain.Session{UserID: "7f1c6f8a-2a4e-4a57-9a57-6a1c2b3d4e5f", Email: "alice@example.com"}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name     string
		state    guard.State
		cap      domain.Capability
		decision guard.Decision
		redirect bool
	}{
		{"unresolved identity", guard.State{}, domain.CapAuthenticated, guard.Pending, false},
		{"unresolved admin", guard.State{}, domain.CapAdmin, guard.Pending, false},
		{"no session identity", guard.State{Resolved: true}, domain.CapAuthenticated, guard.Deny, true},
		{"session identity", guard.State{Resolved: true, Session: alice}, domain.CapAuthenticated, guard.Allow, false},
		{"session identity with role none", guard.State{Resolved: true, Session: alice, Role: domain.RoleNone}, domain.CapAuthenticated, guard.Allow, false},
		{"no session admin", guard.State{Resolved: true, Role: domain.RoleNone}, domain.CapAdmin, guard.Deny, false},
		{"member admin", guard.State{Resolved: true, Session: alice, Role: domain.RoleMember}, domain.CapAdmin, guard.Deny, false},
		{"admin admin", guard.State{Resolved: true, Session: alice, Role: domain.RoleAdmin}, domain.CapAdmin, guard.Allow, false},
		{"owner admin", guard.State{Resolved: true, Session: alice, Role: domain.RoleOwner}, domain.CapAdmin, guard.Allow, false},
		{"admin manage roles", guard.State{Resolved: true, Session: alice, Role: domain.RoleAdmin}, domain.CapManageRoles, guard.Deny, false},
		{"owner manage roles", guard.State{Resolved: true, Session: alice, Role: domain.RoleOwner}, domain.CapManageRoles, guard.Allow, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := guard.Evaluate(tt.state, tt.cap)
			require.Equal(t, tt.decision, v.Decision)
			require.Equal(t, tt.redirect, v.Redirect)
			require.Equal(t, tt.cap, v.Capability)
		})
	}
}

func TestEvaluateMatchesSatisfies(t *testing.T) {
	for _, c := range []domain.Capability{domain.CapAdmin, domain.CapManageRoles} {
		for _, r := range domain.Roles {
			v := guard.Evaluate(guard.State{Resolved: true, Session: alice, Role: r}, c)
			require.Equal(t, domain.Satisfies(r, c), v.Decision == guard.Allow, "%s/%s", r, c)
			require.False(t, v.Redirect)
		}
	}
}

func TestDecisionString(t *testing.T) {
	require.Equal(t, "pending", guard.Pending.String())
	require.Equal(t, "allow", guard.Allow.String())
	require.Equal(t, "deny", guard.Deny.String())
	require.Equal(t, "unknown", guard.Decision(42).String())
}
