// ABOUTME: Lead database operations
// ABOUTME: Handles lead creation, lookup, filtering, and version-guarded updates
package db

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/harperreed/studiocrm/models"
)

const leadColumns = `id, name, email, phone, company, message, source, status, priority, estimated_value,
	converted_to_client_id, converted_at, archived_at, pre_archive_status, created_at, updated_at, version`

func (s *Store) CreateLead(ctx context.Context, lead *models.Lead) error {
	if lead.ID == uuid.Nil {
		lead.ID = uuid.New()
	}
	now := s.clock.next("")
	lead.CreatedAt = now
	lead.UpdatedAt = now
	lead.Version = FormatVersion(now)

	_, err := s.exec(ctx, `
		INSERT INTO leads (`+leadColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, lead.ID.String(), lead.Name, lead.Email, lead.Phone, lead.Company, lead.Message, lead.Source,
		lead.Status, lead.Priority, lead.EstimatedValue, nullableUUID(lead.ConvertedToClientID), lead.ConvertedAt,
		lead.ArchivedAt, nullableString(lead.PreArchiveStatus), lead.CreatedAt, lead.UpdatedAt, lead.Version)

	return err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanLead(row rowScanner) (*models.Lead, error) {
	lead := &models.Lead{}
	var convertedTo, preArchive sql.NullString
	var convertedAt, archivedAt sql.NullTime

	err := row.Scan(
		&lead.ID,
		&lead.Name,
		&lead.Email,
		&lead.Phone,
		&lead.Company,
		&lead.Message,
		&lead.Source,
		&lead.Status,
		&lead.Priority,
		&lead.EstimatedValue,
		&convertedTo,
		&convertedAt,
		&archivedAt,
		&preArchive,
		&lead.CreatedAt,
		&lead.UpdatedAt,
		&lead.Version,
	)
	if err != nil {
		return nil, err
	}

	lead.ConvertedToClientID = parseNullUUID(convertedTo)
	lead.ConvertedAt = timePtr(convertedAt)
	lead.ArchivedAt = timePtr(archivedAt)
	lead.PreArchiveStatus = preArchive.String
	return lead, nil
}

func (s *Store) GetLead(ctx context.Context, id uuid.UUID) (*models.Lead, error) {
	lead, err := scanLead(s.queryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = ?`, id.String()))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return lead, err
}

func (s *Store) ListLeads(ctx context.Context, filter ListFilter) ([]models.Lead, error) {
	clause, args := listClause(filter, "name", "email", "company")
	rows, err := s.query(ctx, `SELECT `+leadColumns+` FROM leads`+clause, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var leads []models.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, *lead)
	}
	return leads, rows.Err()
}

// UpdateLead writes every mutable column when the stored version still equals
// expectedVersion. A conversion reference, once stored, is never cleared or replaced.
func (s *Store) UpdateLead(ctx context.Context, lead *models.Lead, expectedVersion string) error {
	now := s.clock.next(expectedVersion)
	version := FormatVersion(now)

	result, err := s.exec(ctx, `
		UPDATE leads
		SET name = ?, email = ?, phone = ?, company = ?, message = ?, source = ?, status = ?, priority = ?,
			estimated_value = ?,
			converted_to_client_id = COALESCE(converted_to_client_id, ?),
			converted_at = COALESCE(converted_at, ?),
			archived_at = ?, pre_archive_status = ?, updated_at = ?, version = ?
		WHERE id = ? AND version = ?
	`, lead.Name, lead.Email, lead.Phone, lead.Company, lead.Message, lead.Source, lead.Status, lead.Priority,
		lead.EstimatedValue, nullableUUID(lead.ConvertedToClientID), lead.ConvertedAt,
		lead.ArchivedAt, nullableString(lead.PreArchiveStatus), now, version,
		lead.ID.String(), expectedVersion)
	if err != nil {
		return err
	}

	if err := s.checkConditionalUpdate(ctx, result, "leads", lead.ID); err != nil {
		return err
	}

	lead.UpdatedAt = now
	lead.Version = version
	return nil
}
