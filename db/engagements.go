// ABOUTME: Engagement database operations
// ABOUTME: Handles engagement creation, lookup, filtering, and version-guarded updates
package db

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/harperreed/studiocrm/models"
)

const engagementColumns = `id, client_id, title, description, status, value, start_date, due_date,
	created_at, updated_at, version`

func (s *Store) CreateEngagement(ctx context.Context, engagement *models.Engagement) error {
	if engagement.ID == uuid.Nil {
		engagement.ID = uuid.New()
	}
	now := s.clock.next("")
	engagement.CreatedAt = now
	engagement.UpdatedAt = now
	engagement.Version = FormatVersion(now)

	_, err := s.exec(ctx, `
		INSERT INTO engagements (`+engagementColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, engagement.ID.String(), engagement.ClientID.String(), engagement.Title, engagement.Description,
		engagement.Status, engagement.Value, engagement.StartDate, engagement.DueDate,
		engagement.CreatedAt, engagement.UpdatedAt, engagement.Version)

	return err
}

func scanEngagement(row rowScanner) (*models.Engagement, error) {
	e := &models.Engagement{}
	var description sql.NullString
	var startDate, dueDate sql.NullTime

	err := row.Scan(
		&e.ID,
		&e.ClientID,
		&e.Title,
		&description,
		&e.Status,
		&e.Value,
		&startDate,
		&dueDate,
		&e.CreatedAt,
		&e.UpdatedAt,
		&e.Version,
	)
	if err != nil {
		return nil, err
	}

	e.Description = description.String
	e.StartDate = timePtr(startDate)
	e.DueDate = timePtr(dueDate)
	return e, nil
}

func (s *Store) GetEngagement(ctx context.Context, id uuid.UUID) (*models.Engagement, error) {
	e, err := scanEngagement(s.queryRow(ctx, `SELECT `+engagementColumns+` FROM engagements WHERE id = ?`, id.String()))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return e, err
}

// ListEngagements never hides rows by status since engagements are not archivable.
func (s *Store) ListEngagements(ctx context.Context, filter ListFilter) ([]models.Engagement, error) {
	filter.IncludeArchived = true
	clause, args := listClause(filter, "title", "description")
	rows, err := s.query(ctx, `SELECT `+engagementColumns+` FROM engagements`+clause, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var engagements []models.Engagement
	for rows.Next() {
		e, err := scanEngagement(rows)
		if err != nil {
			return nil, err
		}
		engagements = append(engagements, *e)
	}
	return engagements, rows.Err()
}

// UpdateEngagement writes the mutable columns under the version guard. The
// client reference is immutable and never rewritten.
func (s *Store) UpdateEngagement(ctx context.Context, engagement *models.Engagement, expectedVersion string) error {
	now := s.clock.next(expectedVersion)
	version := FormatVersion(now)

	result, err := s.exec(ctx, `
		UPDATE engagements
		SET title = ?, description = ?, status = ?, value = ?, start_date = ?, due_date = ?,
			updated_at = ?, version = ?
		WHERE id = ? AND version = ?
	`, engagement.Title, engagement.Description, engagement.Status, engagement.Value,
		engagement.StartDate, engagement.DueDate, now, version,
		engagement.ID.String(), expectedVersion)
	if err != nil {
		return err
	}

	if err := s.checkConditionalUpdate(ctx, result, "engagements", engagement.ID); err != nil {
		return err
	}

	engagement.UpdatedAt = now
	engagement.Version = version
	return nil
}
