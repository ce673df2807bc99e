// ABOUTME: Database connection management and initialization
// ABOUTME: Opens SQLite with WAL mode at an XDG path, or Postgres through pgx
package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

// Dialect selects placeholder style and schema flavor.
type Dialect int

const (
	DialectSQLite Dialect = iota
	DialectPostgres
)

func (d Dialect) String() string {
	if d == DialectPostgres {
		return "postgres"
	}
	return "sqlite"
}

func OpenDatabase(path string) (*sql.DB, error) {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	// Open database with WAL mode and enforced foreign keys
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, err
	}

	// Configure connection pool for SQLite (avoid database locked errors)
	db.SetMaxOpenConns(1)

	// Initialize schema
	if err := InitSchema(db, DialectSQLite); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// OpenPostgres connects through the pgx stdlib driver and applies the schema.
func OpenPostgres(ctx context.Context, databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetMaxIdleConns(10)
	db.SetMaxOpenConns(20)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := InitSchema(db, DialectPostgres); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return db, nil
}

// Open returns a Store for a Postgres URL when one is given, otherwise for
// the SQLite file at path.
func Open(ctx context.Context, databaseURL, path string) (*Store, error) {
	if databaseURL != "" {
		database, err := OpenPostgres(ctx, databaseURL)
		if err != nil {
			return nil, err
		}
		return NewStore(database, DialectPostgres), nil
	}

	database, err := OpenDatabase(path)
	if err != nil {
		return nil, err
	}
	return NewStore(database, DialectSQLite), nil
}
