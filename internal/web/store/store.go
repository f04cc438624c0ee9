package store

import (
	"context"
	"errors"
	"time"

	"github.com/econest/web/internal/web/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite, postgres)
// implement this and expose sub-repositories so transactions can't nest.
type Store interface {
	Profiles() Profiles
	Roles() Roles

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn in a transaction, committing when fn returns nil.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Profiles interface {
	// GetProfileByUserID returns ErrNotFound when the user has no profile.
	GetProfileByUserID(ctx context.Context, userID string) (domain.Profile, error)

	// InsertProfileIfMissing inserts unless a row for p.UserID exists, atomically
	// against the user_id unique constraint. created is false when it already existed.
	// A clashing row id is ErrAlreadyExists.
	InsertProfileIfMissing(ctx context.Context, p domain.Profile) (created bool, err error)

	// ListProfiles returns profiles newest first.
	ListProfiles(ctx context.Context, limit, offset int) ([]domain.Profile, error)

	CountProfiles(ctx context.Context) (int64, error)
}

type Roles interface {
	// GetRoleByUserID returns ErrNotFound when no role was ever assigned.
	GetRoleByUserID(ctx context.Context, userID string) (domain.Role, error)

	// SetRole upserts the assignment and bumps updated_at.
	SetRole(ctx context.Context, userID string, role domain.Role, now time.Time) error

	// ListAssignments returns every assignment ordered by user id.
	ListAssignments(ctx context.Context) ([]domain.RoleAssignment, error)
}
