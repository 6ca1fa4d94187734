package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// Driver names as registered with database/sql.
const (
	DriverCGO    = "sqlite3" // mattn/go-sqlite3
	DriverPureGo = "sqlite"  // modernc.org/sqlite
)

// Open opens sqlite with sensible defaults using the named driver.
func Open(driver, path string) (*sql.DB, error) {
	dsn, err := dsnFor(driver, path)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1) // sqlite
	db.SetConnMaxLifetime(0)
	return db, nil
}

func dsnFor(driver, path string) (string, error) {
	switch driver {
	case DriverCGO:
		return fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", path), nil
	case DriverPureGo:
		return fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", path), nil
	default:
		return "", fmt.Errorf("database: unknown driver %q", driver)
	}
}

// WithTx runs fn in a transaction, rolling back when fn fails.
func WithTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Now returns UTC time truncated to seconds (consistent with SQLite default).
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}
