package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/econest/web/internal/web/store"
)

// errNestedTx is returned by Tx on a store that is already a transaction.
var errNestedTx = errors.New("sqlite: nested transactions are not supported")

// txStore scopes the repositories to one *sql.Tx.
type txStore struct {
	tx *sql.Tx
}

func (t *txStore) Profiles() store.Profiles { return &profilesRepo{db: t.tx} }
func (t *txStore) Roles() store.Roles       { return &rolesRepo{db: t.tx} }

func (t *txStore) Commit() error   { return t.tx.Commit() }
func (t *txStore) Rollback() error { return t.tx.Rollback() }

func (t *txStore) Tx(context.Context) (store.Tx, error) { return nil, errNestedTx }

// WithTx joins the enclosing transaction; the outer caller commits.
func (t *txStore) WithTx(_ context.Context, fn func(tx store.Tx) error) error {
	return fn(t)
}

// The connection and schema belong to the parent Store.
func (t *txStore) ApplyMigrations() error         { return nil }
func (t *txStore) Close() error                   { return nil }
func (t *txStore) Ping(ctx context.Context) error { return nil }
