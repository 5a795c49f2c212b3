package db

import (
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/gorm"
)

//go:embed migrations/postgres/*.sql migrations/mysql/*.sql
var migrationsFS embed.FS

func newMigrator(gdb *gorm.DB, driver string) (*migrate.Migrate, error) {
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}

	src, err := iofs.New(migrationsFS, "migrations/"+driver)
	if err != nil {
		return nil, fmt.Errorf("load %s migrations: %w", driver, err)
	}

	switch driver {
	case "postgres":
		inst, err := migratepg.WithInstance(sqlDB, &migratepg.Config{})
		if err != nil {
			return nil, fmt.Errorf("postgres migrate driver: %w", err)
		}
		return migrate.NewWithInstance("iofs", src, "postgres", inst)
	case "mysql":
		inst, err := migratemysql.WithInstance(sqlDB, &migratemysql.Config{})
		if err != nil {
			return nil, fmt.Errorf("mysql migrate driver: %w", err)
		}
		return migrate.NewWithInstance("iofs", src, "mysql", inst)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// MigrateUp applies every pending migration. ErrNoChange is not an error.
func MigrateUp(gdb *gorm.DB, driver string, l *slog.Logger) error {
	m, err := newMigrator(gdb, driver)
	if err != nil {
		return err
	}

	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		l.Info("migrations: no change", "driver", driver)
		return nil
	}
	if err != nil {
		version, dirty, verr := m.Version()
		l.Error("migrations failed", "driver", driver, "version", version, "dirty", dirty, "version_err", verr, "error", err)
		return fmt.Errorf("apply migrations: %w", err)
	}

	version, _, _ := m.Version()
	l.Info("migrations applied", "driver", driver, "version", version)
	return nil
}

// MigrateDown rolls back the given number of steps.
func MigrateDown(gdb *gorm.DB, driver string, steps int) error {
	if steps < 1 {
		return fmt.Errorf("steps must be positive")
	}
	m, err := newMigrator(gdb, driver)
	if err != nil {
		return err
	}
	if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// MigrationVersion reports the current schema version.
func MigrationVersion(gdb *gorm.DB, driver string) (uint, bool, error) {
	m, err := newMigrator(gdb, driver)
	if err != nil {
		return 0, false, err
	}
	v, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return v, dirty, err
}
