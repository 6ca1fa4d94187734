package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrations embed.FS

// RunMigrations applies all up migrations to the database at path.
func RunMigrations(driver, path string) error {
	db, err := Open(driver, path)
	if err != nil {
		return err
	}
	defer db.Close()
	return RunMigrationsWithDB(driver, db)
}

// RunMigrationsWithDB allows reuse of an existing *sql.DB. db stays open;
// only the embedded migration source is released.
func RunMigrationsWithDB(driver string, db *sql.DB) error {
	var (
		instance database.Driver
		err      error
	)
	switch driver {
	case DriverCGO:
		instance, err = sqlite3.WithInstance(db, &sqlite3.Config{})
	case DriverPureGo:
		instance, err = sqlite.WithInstance(db, &sqlite.Config{})
	default:
		return fmt.Errorf("database: unknown driver %q", driver)
	}
	if err != nil {
		return err
	}

	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return err
	}
	defer src.Close()
	m, err := migrate.NewWithInstance("iofs", src, driver, instance)
	if err != nil {
		return err
	}

	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}
