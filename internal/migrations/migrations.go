// Package migrations embeds the SQL schema files and applies them at startup.
// All migrations are additive, which keeps dirty-state recovery a plain force
// to the recorded version.
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed *.sql
var schemaFS embed.FS

// RunMigrations brings the database schema up to date from the embedded SQL
// files. With autoMigrate false it reports the current version and applies
// nothing, so operators can run migrations out of band.
func RunMigrations(db *sql.DB, autoMigrate bool) error {
	m, err := newMigrator(db)
	if err != nil {
		return err
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("read schema version: %w", err)
	}

	if dirty {
		if err := clearDirtyState(m, version); err != nil {
			return err
		}
	}

	if !autoMigrate {
		slog.Info("[Migrations] Auto-migration disabled, leaving schema as-is",
			"current_version", version)
		return nil
	}

	slog.Info("[Migrations] Applying pending migrations", "current_version", version)

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			slog.Info("[Migrations] Schema already up to date", "version", version)
			return nil
		}
		return fmt.Errorf("apply migrations: %w", err)
	}

	applied, _, err := m.Version()
	if err != nil {
		return fmt.Errorf("read schema version after migrating: %w", err)
	}
	slog.Info("[Migrations] Schema migrated",
		"from_version", version,
		"to_version", applied)
	return nil
}

func newMigrator(db *sql.DB) (*migrate.Migrate, error) {
	source, err := iofs.New(schemaFS, ".")
	if err != nil {
		return nil, fmt.Errorf("open embedded migration source: %w", err)
	}
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("open migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("create migrator: %w", err)
	}
	return m, nil
}

// clearDirtyState recovers from an interrupted migration by forcing the
// version marker back to the recorded version, after which Up re-applies
// whatever is still pending.
func clearDirtyState(m *migrate.Migrate, version uint) error {
	slog.Warn("[Migrations] Schema is dirty from an interrupted migration, recovering",
		"version", version)
	if err := m.Force(int(version)); err != nil {
		return fmt.Errorf("clear dirty schema state at version %d: %w", version, err)
	}
	slog.Info("[Migrations] Cleared dirty schema state", "version", version)
	return nil
}
