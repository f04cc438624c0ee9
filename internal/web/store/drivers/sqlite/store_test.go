package sqlite_test

import (
	"testing"

	"github.com/econest/web/internal/web/store"
	"github.com/econest/web/internal/web/store/drivers/sqlite"
	"github.com/econest/web/internal/web/store/storetest"
	"github.com/stretchr/testify/require"
)

func openMemory(t *testing.T) store.Store {
	t.Helper()
	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations())
	return s
}

func TestSQLiteStore(t *testing.T) {
	storetest.Run(t, openMemory)
}

func TestApplyMigrationsIsIdempotent(t *testing.T) {
	s := openMemory(t)
	require.NoError(t, s.ApplyMigrations())
}

func TestNestedTxRejected(t *testing.T) {
	s := openMemory(t)
	tx, err := s.Tx(t.Context())
	require.NoError(t, err)
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Tx(t.Context())
	require.Error(t, err)
}
