// Package redis implements repository interfaces on Redis.
package redis

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/and161185/educert/internal/errs"
	"github.com/and161185/educert/internal/repository"
)

// KVRepo stores keys as plain Redis strings under "educert:<namespace>:<key>".
type KVRepo struct {
	client    goredis.Cmdable
	namespace string
}

var _ repository.KVRepository = (*KVRepo)(nil)

// NewClient opens a client for addr.
func NewClient(addr, password string, db int) *goredis.Client {
	return goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// NewKVRepo constructs a repository over client.
func NewKVRepo(client goredis.Cmdable, namespace string) *KVRepo {
	return &KVRepo{client: client, namespace: namespace}
}

func (r *KVRepo) key(k string) string { return fmt.Sprintf("educert:%s:%s", r.namespace, k) }

// Get returns the value for key.
func (r *KVRepo) Get(ctx context.Context, key string) (string, error) {
	v, err := r.client.Get(ctx, r.key(key)).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return "", fmt.Errorf("key %q: %w", key, errs.ErrNotFound)
		}
		return "", err
	}
	return v, nil
}

// Set stores value under key without expiry.
func (r *KVRepo) Set(ctx context.Context, key, value string) error {
	return r.client.Set(ctx, r.key(key), value, 0).Err()
}

// Delete removes key.
func (r *KVRepo) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.key(key)).Err()
}
