package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidUserID = errors.New("domain: invalid user id")

// Session is an authenticated identity as issued by Supabase Auth.
// Guards only read it.
type Session struct {
	UserID       string
	Email        string
	SessionID    string
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Expired reports whether the access token is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Identity returns the part of the session the provisioner needs.
func (s *Session) Identity() Identity {
	return Identity{UserID: s.UserID, Email: s.Email}
}

// Identity is the user a profile is provisioned for.
type Identity struct {
	UserID string
	Email  string
}

// ParseUserID normalises a Supabase user id (a UUID) to its canonical lowercase form.
func ParseUserID(s string) (string, error) {
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return "", ErrInvalidUserID
	}
	return id.String(), nil
}
