// Package migrate applies the embedded schema migrations.
package migrate

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
)

//go:embed sql/*.sql
var migrationFiles embed.FS

// Migrate brings the schema of dbname up to the latest version.
func Migrate(db *sqlx.DB, dbname string) error {
	m, err := newMigrate(db, dbname)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up: %w", err)
	}

	return nil
}

// Version returns the current schema version and whether it is dirty.
func Version(db *sqlx.DB, dbname string) (uint, bool, error) {
	m, err := newMigrate(db, dbname)
	if err != nil {
		return 0, false, err
	}

	v, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}

	if err != nil {
		return 0, false, fmt.Errorf("version: %w", err)
	}

	return v, dirty, nil
}

func newMigrate(db *sqlx.DB, dbname string) (*migrate.Migrate, error) {
	driver, err := postgres.WithInstance(db.DB, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("creating driver: %w", err)
	}

	source, err := iofs.New(migrationFiles, "sql")
	if err != nil {
		return nil, fmt.Errorf("creating source from fs: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, dbname, driver)
	if err != nil {
		return nil, fmt.Errorf("creating migration instance: %w", err)
	}

	return m, nil
}
