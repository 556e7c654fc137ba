// Package migrate applies the embedded session store schema.
package migrate

import (
	"context"
	"database/sql"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/and161185/educert/migrations"
)

// Up brings the session_kv schema up to date.
func Up(ctx context.Context, dsn string) error {
	return run(ctx, dsn, func(ctx context.Context, db *sql.DB) error {
		return goose.UpContext(ctx, db, ".")
	})
}

// Reset rolls back every migration. Used by the CLI's "store-reset" command.
func Reset(ctx context.Context, dsn string) error {
	return run(ctx, dsn, func(ctx context.Context, db *sql.DB) error {
		return goose.ResetContext(ctx, db, ".")
	})
}

func run(ctx context.Context, dsn string, fn func(context.Context, *sql.DB) error) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return fn(ctx, db)
}
