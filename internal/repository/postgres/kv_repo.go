package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/and161185/educert/internal/errs"
	"github.com/and161185/educert/internal/repository"
)

// KVRepo implements KVRepository on the session_kv table.
type KVRepo struct {
	db        *DB
	namespace string
}

var _ repository.KVRepository = (*KVRepo)(nil)

// NewKVRepo constructs a key/value repository. namespace separates the keys of
// different installations sharing one database.
func NewKVRepo(db *DB, namespace string) *KVRepo { return &KVRepo{db: db, namespace: namespace} }

// Get selects the value for key.
func (r *KVRepo) Get(ctx context.Context, key string) (string, error) {
	const q = `SELECT value FROM session_kv WHERE namespace=$1 AND key=$2`
	var v string
	if err := r.db.Pool.QueryRow(ctx, q, r.namespace, key).Scan(&v); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("key %q: %w", key, errs.ErrNotFound)
		}
		return "", err
	}
	return v, nil
}

// Set upserts the value for key.
func (r *KVRepo) Set(ctx context.Context, key, value string) error {
	const q = `
INSERT INTO session_kv (namespace, key, value, updated_at)
VALUES ($1,$2,$3,now())
ON CONFLICT (namespace, key) DO UPDATE SET value=EXCLUDED.value, updated_at=now()`
	_, err := r.db.Pool.Exec(ctx, q, r.namespace, key, value)
	return err
}

// Delete removes key.
func (r *KVRepo) Delete(ctx context.Context, key string) error {
	const q = `DELETE FROM session_kv WHERE namespace=$1 AND key=$2`
	_, err := r.db.Pool.Exec(ctx, q, r.namespace, key)
	return err
}
