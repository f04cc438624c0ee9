// Package storetest holds the behaviour every store driver must share.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/econest/web/internal/web/domain"
	"github.com/econest/web/internal/web/store"
	"github.com/econest/web/pkg/idx"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// NewUserID returns a random Supabase-style user id.
func NewUserID() string { return uuid.NewString() }

// Run exercises a freshly migrated store returned by open.
func Run(t *testing.T, open func(t *testing.T) store.Store) {
	t.Run("profiles", func(t *testing.T) { testProfiles(t, open(t)) })
	t.Run("insert if missing", func(t *testing.T) { testInsertIfMissing(t, open(t)) })
	t.Run("concurrent insert if missing", func(t *testing.T) { testConcurrentInsert(t, open(t)) })
	t.Run("roles", func(t *testing.T) { testRoles(t, open(t)) })
	t.Run("transactions", func(t *testing.T) { testTx(t, open(t)) })
}

func testProfiles(t *testing.T, s store.Store) {
	ctx := context.Background()
	userID := NewUserID()

	_, err := s.Profiles().GetProfileByUserID(ctx, userID)
	require.ErrorIs(t, err, store.ErrNotFound)

	now := time.Now().UTC().Truncate(time.Second)
	firstID := idx.New().String()
	created, err := s.Profiles().InsertProfileIfMissing(ctx, domain.Profile{
		ID: firstID, UserID: userID, Email: "a@x.com", CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	require.True(t, created)

	got, err := s.Profiles().GetProfileByUserID(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, userID, got.UserID)
	require.Equal(t, "a@x.com", got.Email)
	require.WithinDuration(t, now, got.CreatedAt, time.Second)

	// user_id conflicts are absorbed; an id conflict is not.
	_, err = s.Profiles().InsertProfileIfMissing(ctx, domain.Profile{ID: firstID, UserID: NewUserID()})
	require.ErrorIs(t, err, store.ErrAlreadyExists)

	for i := range 3 {
		created, err := s.Profiles().InsertProfileIfMissing(ctx, domain.Profile{
			ID:        idx.New().String(),
			UserID:    NewUserID(),
			Email:     fmt.Sprintf("u%d@x.com", i),
			CreatedAt: now.Add(time.Duration(i+1) * time.Minute),
		})
		require.NoError(t, err)
		require.True(t, created)
	}

	n, err := s.Profiles().CountProfiles(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 4, n)

	page, err := s.Profiles().ListProfiles(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.Equal(t, "u2@x.com", page[0].Email, "newest first")

	rest, err := s.Profiles().ListProfiles(ctx, 10, 2)
	require.NoError(t, err)
	require.Len(t, rest, 2)
	require.Equal(t, "a@x.com", rest[1].Email)
}

func testInsertIfMissing(t *testing.T, s store.Store) {
	ctx := context.Background()
	userID := NewUserID()

	created, err := s.Profiles().InsertProfileIfMissing(ctx, domain.Profile{ID: idx.New().String(), UserID: userID, Email: "first@x.com"})
	require.NoError(t, err)
	require.True(t, created)

	created, err = s.Profiles().InsertProfileIfMissing(ctx, domain.Profile{ID: idx.New().String(), UserID: userID, Email: "second@x.com"})
	require.NoError(t, err)
	require.False(t, created)

	got, err := s.Profiles().GetProfileByUserID(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, "first@x.com", got.Email, "existing row is left untouched")
}

func testConcurrentInsert(t *testing.T, s store.Store) {
	ctx := context.Background()
	userID := NewUserID()

	const workers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			created, err := s.Profiles().InsertProfileIfMissing(ctx, domain.Profile{ID: idx.New().String(), UserID: userID, Email: "race@x.com"})
			assert.NoError(t, err)
			if created {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 1, winners)
	n, err := s.Profiles().CountProfiles(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}

func testRoles(t *testing.T, s store.Store) {
	ctx := context.Background()
	alice, bob := NewUserID(), NewUserID()

	_, err := s.Roles().GetRoleByUserID(ctx, alice)
	require.ErrorIs(t, err, store.ErrNotFound)

	t0 := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, s.Roles().SetRole(ctx, alice, domain.RoleAdmin, t0))
	require.NoError(t, s.Roles().SetRole(ctx, bob, domain.RoleMember, t0))
	require.NoError(t, s.Roles().SetRole(ctx, alice, domain.RoleOwner, t0.Add(time.Hour)))

	role, err := s.Roles().GetRoleByUserID(ctx, alice)
	require.NoError(t, err)
	require.Equal(t, domain.RoleOwner, role)

	list, err := s.Roles().ListAssignments(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	for _, a := range list {
		if a.UserID == alice {
			require.Equal(t, domain.RoleOwner, a.Role)
			require.WithinDuration(t, t0, a.CreatedAt, time.Second)
			require.WithinDuration(t, t0.Add(time.Hour), a.UpdatedAt, time.Second)
		}
	}
}

func testTx(t *testing.T, s store.Store) {
	ctx := context.Background()
	userID := NewUserID()

	err := s.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Roles().SetRole(ctx, userID, domain.RoleAdmin, time.Now()); err != nil {
			return err
		}
		return fmt.Errorf("abort")
	})
	require.Error(t, err)

	_, err = s.Roles().GetRoleByUserID(ctx, userID)
	require.ErrorIs(t, err, store.ErrNotFound, "rolled back")

	require.NoError(t, s.WithTx(ctx, func(tx store.Tx) error {
		return tx.Roles().SetRole(ctx, userID, domain.RoleAdmin, time.Now())
	}))

	role, err := s.Roles().GetRoleByUserID(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, domain.RoleAdmin, role)

	// A nested WithTx shares the outer transaction, so the outer abort undoes it.
	nested := NewUserID()
	err = s.WithTx(ctx, func(tx store.Tx) error {
		_, err := tx.Tx(ctx)
		require.Error(t, err)
		if err := tx.WithTx(ctx, func(inner store.Tx) error {
			return inner.Roles().SetRole(ctx, nested, domain.RoleOwner, time.Now())
		}); err != nil {
			return err
		}
		return fmt.Errorf("abort")
	})
	require.Error(t, err)
	_, err = s.Roles().GetRoleByUserID(ctx, nested)
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.Ping(ctx))
}
