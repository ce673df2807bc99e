// ABOUTME: Database schema definitions for leads, clients, engagements, and activities
// ABOUTME: Activities are insert-only, enforced by triggers in both dialects
package db

import (
	"database/sql"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS leads (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT,
	phone TEXT,
	company TEXT,
	message TEXT,
	source TEXT,
	status TEXT NOT NULL,
	priority TEXT NOT NULL DEFAULT 'medium',
	estimated_value INTEGER NOT NULL DEFAULT 0,
	converted_to_client_id TEXT,
	converted_at DATETIME,
	archived_at DATETIME,
	pre_archive_status TEXT,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	version TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_leads_status ON leads(status);
CREATE UNIQUE INDEX IF NOT EXISTS idx_leads_converted_client ON leads(converted_to_client_id);

CREATE TABLE IF NOT EXISTS clients (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT,
	phone TEXT,
	company TEXT,
	status TEXT NOT NULL,
	source_lead_id TEXT,
	notes TEXT,
	archived_at DATETIME,
	pre_archive_status TEXT,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	version TEXT NOT NULL,
	FOREIGN KEY (source_lead_id) REFERENCES leads(id)
);

CREATE INDEX IF NOT EXISTS idx_clients_status ON clients(status);
CREATE UNIQUE INDEX IF NOT EXISTS idx_clients_source_lead ON clients(source_lead_id);

CREATE TABLE IF NOT EXISTS engagements (
	id TEXT PRIMARY KEY,
	client_id TEXT NOT NULL,
	title TEXT NOT NULL,
	description TEXT,
	status TEXT NOT NULL,
	value INTEGER NOT NULL DEFAULT 0,
	start_date DATETIME,
	due_date DATETIME,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	version TEXT NOT NULL,
	FOREIGN KEY (client_id) REFERENCES clients(id)
);

CREATE INDEX IF NOT EXISTS idx_engagements_status ON engagements(status);
CREATE INDEX IF NOT EXISTS idx_engagements_client_id ON engagements(client_id);

CREATE TABLE IF NOT EXISTS activities (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	entity_type TEXT NOT NULL CHECK(entity_type IN ('lead', 'client', 'engagement')),
	entity_id TEXT NOT NULL,
	type TEXT NOT NULL,
	description TEXT NOT NULL,
	performed_by TEXT NOT NULL,
	metadata TEXT,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_activities_entity ON activities(entity_type, entity_id, seq);

CREATE TRIGGER IF NOT EXISTS activities_no_update BEFORE UPDATE ON activities
BEGIN
	SELECT RAISE(ABORT, 'activities are append-only');
END;

CREATE TRIGGER IF NOT EXISTS activities_no_delete BEFORE DELETE ON activities
BEGIN
	SELECT RAISE(ABORT, 'activities are append-only');
END;
`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS leads (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT,
	phone TEXT,
	company TEXT,
	message TEXT,
	source TEXT,
	status TEXT NOT NULL,
	priority TEXT NOT NULL DEFAULT 'medium',
	estimated_value BIGINT NOT NULL DEFAULT 0,
	converted_to_client_id TEXT UNIQUE,
	converted_at TIMESTAMPTZ,
	archived_at TIMESTAMPTZ,
	pre_archive_status TEXT,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	version TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_leads_status ON leads(status);

CREATE TABLE IF NOT EXISTS clients (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT,
	phone TEXT,
	company TEXT,
	status TEXT NOT NULL,
	source_lead_id TEXT UNIQUE REFERENCES leads(id),
	notes TEXT,
	archived_at TIMESTAMPTZ,
	pre_archive_status TEXT,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	version TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_clients_status ON clients(status);

CREATE TABLE IF NOT EXISTS engagements (
	id TEXT PRIMARY KEY,
	client_id TEXT NOT NULL REFERENCES clients(id),
	title TEXT NOT NULL,
	description TEXT,
	status TEXT NOT NULL,
	value BIGINT NOT NULL DEFAULT 0,
	start_date TIMESTAMPTZ,
	due_date TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	version TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_engagements_status ON engagements(status);
CREATE INDEX IF NOT EXISTS idx_engagements_client_id ON engagements(client_id);

CREATE TABLE IF NOT EXISTS activities (
	seq BIGSERIAL PRIMARY KEY,
	id TEXT NOT NULL UNIQUE,
	entity_type TEXT NOT NULL CHECK(entity_type IN ('lead', 'client', 'engagement')),
	entity_id TEXT NOT NULL,
	type TEXT NOT NULL,
	description TEXT NOT NULL,
	performed_by TEXT NOT NULL,
	metadata TEXT,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_activities_entity ON activities(entity_type, entity_id, seq);

CREATE OR REPLACE FUNCTION activities_append_only() RETURNS trigger AS $$
BEGIN
	RAISE EXCEPTION 'activities are append-only';
END;
$$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS activities_append_only ON activities;
CREATE TRIGGER activities_append_only BEFORE UPDATE OR DELETE ON activities
	FOR EACH ROW EXECUTE FUNCTION activities_append_only();
`

func InitSchema(db *sql.DB, dialect Dialect) error {
	schema := sqliteSchema
	if dialect == DialectPostgres {
		schema = postgresSchema
	}
	_, err := db.Exec(schema)
	return err
}
