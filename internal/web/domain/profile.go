package domain

import "time"

type Profile struct {
	ID        string
	UserID    string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RoleAssignment is a row of user_roles.
type RoleAssignment struct {
	UserID    string
	Role      Role
	CreatedAt time.Time
	UpdatedAt time.Time
}
