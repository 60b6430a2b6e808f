// internal/storage/init.go
package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pressly/goose/v3"

	_ "github.com/lib/pq"
)

const migrationPath = "migrations"

//go:embed migrations/*.sql
var migrations embed.FS

// runMigrations applies the embedded goose migrations over a short-lived
// lib/pq connection.
func runMigrations(dsn string, logger *slog.Logger) error {
	const op = "storage.migrations"

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("%s: %v", op, err)
	}
	defer db.Close()

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("%s: %v", op, err)
	}

	if err := goose.Up(db, migrationPath); err != nil {
		if errors.Is(err, goose.ErrNoNextVersion) {
			logger.Info("no migrations to apply")
			return nil
		}
		return fmt.Errorf("%s: %v", op, err)
	}
	logger.Info("database migrations applied")
	return nil
}
