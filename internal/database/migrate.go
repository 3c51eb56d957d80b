package database

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"

	"github.com/sanedge/user-management-api/migrations"
)

// Migrate applies all pending schema migrations embedded in the binary.
// Migrations are versioned goose SQL files; running them repeatedly is a
// no-op once the schema is current.
func Migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("mysql"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}
