// Package backend opens the configured KVRepository implementation.
package backend

import (
	"context"
	"fmt"

	"github.com/and161185/educert/internal/errs"
	"github.com/and161185/educert/internal/migrate"
	"github.com/and161185/educert/internal/repository"
	"github.com/and161185/educert/internal/repository/file"
	"github.com/and161185/educert/internal/repository/postgres"
	"github.com/and161185/educert/internal/repository/redis"
)

// Backend kinds.
const (
	File     = "file"
	Postgres = "postgres"
	Redis    = "redis"
)

// Options selects and configures a backend.
type Options struct {
	Kind      string
	Path      string // file
	DSN       string // postgres
	Migrate   bool   // postgres: apply migrations before use
	RedisAddr string
	RedisPass string
	RedisDB   int
	Namespace string // postgres and redis key namespace
}

// Open returns the repository and a function releasing its resources.
func Open(ctx context.Context, o Options) (repository.KVRepository, func(), error) {
	ns := o.Namespace
	if ns == "" {
		ns = "default"
	}
	switch o.Kind {
	case "", File:
		if o.Path == "" {
			return nil, nil, fmt.Errorf("%w: file store needs a path", errs.ErrInvalidInput)
		}
		return file.NewKVRepo(o.Path), func() {}, nil
	case Postgres:
		if o.DSN == "" {
			return nil, nil, fmt.Errorf("%w: postgres store needs a dsn", errs.ErrInvalidInput)
		}
		if o.Migrate {
			if err := migrate.Up(ctx, o.DSN); err != nil {
				return nil, nil, fmt.Errorf("migrate up: %w", err)
			}
		}
		db, err := postgres.New(ctx, o.DSN)
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewKVRepo(db, ns), db.Close, nil
	case Redis:
		if o.RedisAddr == "" {
			return nil, nil, fmt.Errorf("%w: redis store needs an address", errs.ErrInvalidInput)
		}
		c := redis.NewClient(o.RedisAddr, o.RedisPass, o.RedisDB)
		if err := c.Ping(ctx).Err(); err != nil {
			_ = c.Close()
			return nil, nil, fmt.Errorf("redis ping: %w", err)
		}
		return redis.NewKVRepo(c, ns), func() { _ = c.Close() }, nil
	}
	return nil, nil, fmt.Errorf("%w: unknown store %q", errs.ErrInvalidInput, o.Kind)
}
