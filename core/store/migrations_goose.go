package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"falcon-hq/core/utils"

	"github.com/pressly/goose/v3"
)

//go:embed migrations_pg/*.sql
var gooseMigrationsPgFS embed.FS

//go:embed schema_sqlite.sql
var sqliteSchema string

// ApplyMigrations brings the schema up to date. Postgres goes through goose;
// the sqlite test runtime applies the flat schema directly.
func ApplyMigrations(ctx context.Context, db *sql.DB, logger *utils.Logger) error {
	if db == nil {
		return fmt.Errorf("nil db")
	}
	isPG, err := isPostgresDB(ctx, db)
	if err != nil {
		return err
	}
	if !isPG {
		if !isTestRuntime() {
			return fmt.Errorf("sqlite schema bootstrap is supported only in go test runtime")
		}
		_, err := db.ExecContext(ctx, sqliteSchema)
		return err
	}
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	goose.SetBaseFS(gooseMigrationsPgFS)
	if logger != nil {
		logger.Printf("applying goose migrations")
	}
	if err := goose.UpContext(ctx, db, "migrations_pg"); err != nil {
		return err
	}
	if logger != nil {
		logger.Printf("goose migrations applied")
	}
	return nil
}

func isPostgresDB(ctx context.Context, db *sql.DB) (bool, error) {
	// sqlite_master only exists on sqlite; any error here means postgres.
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(1) FROM sqlite_master`).Scan(&n); err == nil {
		return false, nil
	}
	var one int
	if err := db.QueryRowContext(ctx, `SELECT 1`).Scan(&one); err != nil {
		return false, err
	}
	return true, nil
}
