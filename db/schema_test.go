// ABOUTME: Tests for database schema creation
// ABOUTME: Uses in-memory SQLite for fast isolated tests
package db

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func TestInitSchema(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open in-memory db: %v", err)
	}
	defer func() { _ = db.Close() }()

	if err := InitSchema(db, DialectSQLite); err != nil {
		t.Fatalf("InitSchema failed: %v", err)
	}

	for _, table := range []string{"leads", "clients", "engagements", "activities"} {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("Table %s not found: %v", table, err)
		}
	}

	indexes := []string{
		"idx_leads_status",
		"idx_leads_converted_client",
		"idx_clients_status",
		"idx_clients_source_lead",
		"idx_engagements_status",
		"idx_engagements_client_id",
		"idx_activities_entity",
	}
	for _, idx := range indexes {
		var indexName string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='index' AND name=?", idx).Scan(&indexName)
		if err != nil {
			t.Errorf("Index %s not found: %v", idx, err)
		}
	}

	for _, trigger := range []string{"activities_no_update", "activities_no_delete"} {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='trigger' AND name=?", trigger).Scan(&name)
		if err != nil {
			t.Errorf("Trigger %s not found: %v", trigger, err)
		}
	}
}

func TestInitSchemaIsIdempotent(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open in-memory db: %v", err)
	}
	defer func() { _ = db.Close() }()

	for i := 0; i < 2; i++ {
		if err := InitSchema(db, DialectSQLite); err != nil {
			t.Fatalf("InitSchema run %d failed: %v", i+1, err)
		}
	}
}
