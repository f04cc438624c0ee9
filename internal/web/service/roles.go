package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/econest/web/internal/web/domain"
	"github.com/econest/web/internal/web/session"
	"github.com/econest/web/internal/web/store"
	"github.com/econest/web/pkg/slogx"
)

var (
	// ErrRoleLookup means the role could not be read. The caller must treat the viewer as role none.
	ErrRoleLookup = errors.New("role lookup failed")
	ErrNoSession  = errors.New("no session")
)

// RoleResolver classifies a session against user_roles.
type RoleResolver struct {
	Store store.Store
}

// Resolve returns member for users with no assignment. Any failure yields
// RoleNone alongside ErrRoleLookup, so a broken lookup can never grant access.
func (r *RoleResolver) Resolve(ctx context.Context, s *domain.Session) (domain.Role, error) {
	if s == nil || s.UserID == "" {
		return domain.RoleNone, ErrNoSession
	}

	id, err := domain.ParseUserID(s.UserID)
	if err != nil {
		return domain.RoleNone, fmt.Errorf("%w: %v", ErrRoleLookup, err)
	}

	role, err := r.Store.Roles().GetRoleByUserID(ctx, id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return domain.RoleMember, nil
	case err != nil:
		return domain.RoleNone, fmt.Errorf("%w: %v", ErrRoleLookup, err)
	}
	return role, nil
}

type RolesService struct {
	Store store.Store
	Hub   *session.Hub
	Now   func() time.Time
}

// Assign sets a user's role and notifies that user's mounted guards.
func (s *RolesService) Assign(ctx context.Context, userID string, role domain.Role) error {
	id, err := domain.ParseUserID(userID)
	if err != nil {
		return err
	}
	if _, err := domain.ParseRole(string(role)); err != nil {
		return err
	}

	now := time.Now().UTC()
	if s.Now != nil {
		now = s.Now()
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		return tx.Roles().SetRole(ctx, id, role, now)
	})
	if err != nil {
		return fmt.Errorf("assign role: %w", err)
	}

	slogx.FromContext(ctx).Info("role assigned", slog.String("target_user_id", id), slog.String("role", role.String()))
	if s.Hub != nil {
		s.Hub.Publish(session.Event{Kind: session.EventRoleChanged, UserID: id})
	}
	return nil
}

// List returns every explicit assignment. Users missing from it are members.
func (s *RolesService) List(ctx context.Context) ([]domain.RoleAssignment, error) {
	return s.Store.Roles().ListAssignments(ctx)
}
