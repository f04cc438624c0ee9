package domain

import (
	"fmt"
	"strings"
)

// Role is the coarse classification stored in user_roles.
type Role string

const (
	RoleNone   Role = "none"
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
	RoleOwner  Role = "owner"
)

// Roles lists every role, lowest privilege first.
var Roles = []Role{RoleNone, RoleMember, RoleAdmin, RoleOwner}

func (r Role) String() string { return string(r) }

// ParseRole rejects anything outside the closed set.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleNone, RoleMember, RoleAdmin, RoleOwner:
		return r, nil
	default:
		return RoleNone, fmt.Errorf("domain: unknown role %q", s)
	}
}

// Capability is what a guarded route requires.
type Capability string

const (
	// CapAuthenticated is the identity-required guard: any signed-in user.
	CapAuthenticated Capability = "authenticated"
	// CapAdmin gates the admin area.
	CapAdmin Capability = "admin"
	// CapManageRoles gates role assignment.
	CapManageRoles Capability = "manage_roles"
)

func (c Capability) String() string { return string(c) }

// ParseCapability rejects anything outside the closed set.
func ParseCapability(s string) (Capability, error) {
	switch c := Capability(strings.ToLower(strings.TrimSpace(s))); c {
	case CapAuthenticated, CapAdmin, CapManageRoles:
		return c, nil
	default:
		return "", fmt.Errorf("domain: unknown capability %q", s)
	}
}

// RequiresRole is false only for the identity-required guard, which looks at session presence alone.
func (c Capability) RequiresRole() bool {
	return c != CapAuthenticated
}

// Satisfies reports whether role grants capability.
func Satisfies(role Role, capability Capability) bool {
	switch capability {
	case CapAuthenticated:
		return true
	case CapAdmin:
		switch role {
		case RoleAdmin, RoleOwner:
			return true
		case RoleNone, RoleMember:
			return false
		}
	case CapManageRoles:
		switch role {
		case RoleOwner:
			return true
		case RoleNone, RoleMember, RoleAdmin:
			return false
		}
	}
	return false
}
