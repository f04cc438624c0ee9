package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/econest/web/internal/web/domain"
)

type rolesRepo struct {
	db dbtx
}

func (r *rolesRepo) GetRoleByUserID(ctx context.Context, userID string) (domain.Role, error) {
	var raw string
	err := r.db.QueryRowContext(ctx, `SELECT role FROM user_roles WHERE user_id = ?`, userID).Scan(&raw)
	if err != nil {
		return domain.RoleNone, mapNotFound(err)
	}
	role, err := domain.ParseRole(raw)
	if err != nil {
		return domain.RoleNone, fmt.Errorf("sqlite: user_roles row for %s: %w", userID, err)
	}
	return role, nil
}

func (r *rolesRepo) SetRole(ctx context.Context, userID string, role domain.Role, now time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_roles (user_id, role, created_at, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET role = excluded.role, updated_at = excluded.updated_at`,
		userID, string(role), now.UTC(), now.UTC())
	return err
}

func (r *rolesRepo) ListAssignments(ctx context.Context) ([]domain.RoleAssignment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id, role, created_at, updated_at FROM user_roles ORDER BY user_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.RoleAssignment
	for rows.Next() {
		var (
			a   domain.RoleAssignment
			raw string
		)
		if err := rows.Scan(&a.UserID, &raw, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		if a.Role, err = domain.ParseRole(raw); err != nil {
			return nil, err
		}
		a.CreatedAt = a.CreatedAt.UTC()
		a.UpdatedAt = a.UpdatedAt.UTC()
		out = append(out, a)
	}
	return out, rows.Err()
}
