// ABOUTME: Client database operations
// ABOUTME: Handles client creation, lookup, filtering, and version-guarded updates
package db

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/harperreed/studiocrm/models"
)

const clientColumns = `id, name, email, phone, company, status, source_lead_id, notes,
	archived_at, pre_archive_status, created_at, updated_at, version`

func (s *Store) CreateClient(ctx context.Context, client *models.Client) error {
	if client.ID == uuid.Nil {
		client.ID = uuid.New()
	}
	now := s.clock.next("")
	client.CreatedAt = now
	client.UpdatedAt = now
	client.Version = FormatVersion(now)

	_, err := s.exec(ctx, `
		INSERT INTO clients (`+clientColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, client.ID.String(), client.Name, client.Email, client.Phone, client.Company, client.Status,
		nullableUUID(client.SourceLeadID), client.Notes, client.ArchivedAt, nullableString(client.PreArchiveStatus),
		client.CreatedAt, client.UpdatedAt, client.Version)

	return err
}

func scanClient(row rowScanner) (*models.Client, error) {
	client := &models.Client{}
	var sourceLead, notes, preArchive sql.NullString
	var archivedAt sql.NullTime

	err := row.Scan(
		&client.ID,
		&client.Name,
		&client.Email,
		&client.Phone,
		&client.Company,
		&client.Status,
		&sourceLead,
		&notes,
		&archivedAt,
		&preArchive,
		&client.CreatedAt,
		&client.UpdatedAt,
		&client.Version,
	)
	if err != nil {
		return nil, err
	}

	client.SourceLeadID = parseNullUUID(sourceLead)
	client.Notes = notes.String
	client.ArchivedAt = timePtr(archivedAt)
	client.PreArchiveStatus = preArchive.String
	return client, nil
}

func (s *Store) GetClient(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	client, err := scanClient(s.queryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = ?`, id.String()))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return client, err
}

func (s *Store) ListClients(ctx context.Context, filter ListFilter) ([]models.Client, error) {
	clause, args := listClause(filter, "name", "email", "company")
	rows, err := s.query(ctx, `SELECT `+clientColumns+` FROM clients`+clause, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var clients []models.Client
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, *client)
	}
	return clients, rows.Err()
}

// UpdateClient writes the mutable columns under the version guard. The source
// lead reference is fixed at creation and is not part of the update.
func (s *Store) UpdateClient(ctx context.Context, client *models.Client, expectedVersion string) error {
	now := s.clock.next(expectedVersion)
	version := FormatVersion(now)

	result, err := s.exec(ctx, `
		UPDATE clients
		SET name = ?, email = ?, phone = ?, company = ?, status = ?, notes = ?,
			archived_at = ?, pre_archive_status = ?, updated_at = ?, version = ?
		WHERE id = ? AND version = ?
	`, client.Name, client.Email, client.Phone, client.Company, client.Status, client.Notes,
		client.ArchivedAt, nullableString(client.PreArchiveStatus), now, version,
		client.ID.String(), expectedVersion)
	if err != nil {
		return err
	}

	if err := s.checkConditionalUpdate(ctx, result, "clients", client.ID); err != nil {
		return err
	}

	client.UpdatedAt = now
	client.Version = version
	return nil
}
