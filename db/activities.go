// ABOUTME: Append-only activity log storage
// ABOUTME: Inserts and lists audit records; no update or delete path exists
package db

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/harperreed/studiocrm/models"
)

var ErrInvalidActivity = errors.New("invalid activity")

// AppendActivity inserts one audit record. The ID and CreatedAt are supplied by
// the caller so that the record is fully formed before it is persisted.
func (s *Store) AppendActivity(ctx context.Context, activity *models.Activity) error {
	if activity == nil || activity.ID == "" || activity.EntityID == uuid.Nil || activity.Type == "" {
		return ErrInvalidActivity
	}

	var metadata interface{}
	if activity.Metadata != nil {
		data, err := json.Marshal(activity.Metadata)
		if err != nil {
			return err
		}
		metadata = string(data)
	}

	_, err := s.exec(ctx, `
		INSERT INTO activities (id, entity_type, entity_id, type, description, performed_by, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, activity.ID, string(activity.EntityType), activity.EntityID.String(), string(activity.Type),
		activity.Description, activity.PerformedBy, metadata, activity.CreatedAt)

	return err
}

// ListActivities returns the audit trail of one entity, newest first.
func (s *Store) ListActivities(ctx context.Context, entityType models.EntityType, entityID uuid.UUID) ([]models.Activity, error) {
	rows, err := s.query(ctx, `
		SELECT id, entity_type, entity_id, type, description, performed_by, metadata, created_at
		FROM activities
		WHERE entity_type = ? AND entity_id = ?
		ORDER BY seq DESC
	`, string(entityType), entityID.String())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	activities := make([]models.Activity, 0)
	for rows.Next() {
		var a models.Activity
		var kind, typ string
		var metadata []byte

		if err := rows.Scan(&a.ID, &kind, &a.EntityID, &typ, &a.Description, &a.PerformedBy, &metadata, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.EntityType = models.EntityType(kind)
		a.Type = models.ActivityType(typ)

		if len(metadata) > 0 && string(metadata) != "null" {
			a.Metadata = &models.ActivityMetadata{}
			if err := json.Unmarshal(metadata, a.Metadata); err != nil {
				return nil, err
			}
		}

		activities = append(activities, a)
	}

	return activities, rows.Err()
}

func (s *Store) CountActivities(ctx context.Context, entityType models.EntityType, entityID uuid.UUID) (int, error) {
	var n int
	err := s.queryRow(ctx, `
		SELECT COUNT(*) FROM activities WHERE entity_type = ? AND entity_id = ?
	`, string(entityType), entityID.String()).Scan(&n)
	return n, err
}
