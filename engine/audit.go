// ABOUTME: Audit logger appending immutable activity records inside the mutation transaction
// ABOUTME: Activity ids are ULIDs; history is read back newest first
package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/harperreed/studiocrm/db"
	"github.com/harperreed/studiocrm/models"
	"github.com/oklog/ulid/v2"
)

type auditLog struct {
	engine   *Engine
	repo     db.Repository
	actor    string
	recorded []models.Activity
}

func (e *Engine) newAuditLog(ctx context.Context) *auditLog {
	return &auditLog{engine: e, actor: e.actorFrom(ctx)}
}

// bind attaches the log to a transaction. Records from an earlier attempt are dropped.
func (a *auditLog) bind(repo db.Repository) {
	a.repo = repo
	a.recorded = a.recorded[:0]
}

// record appends one activity. It is the last step of a successful mutation.
func (a *auditLog) record(ctx context.Context, entity models.EntityType, id uuid.UUID, typ models.ActivityType, description string, metadata *models.ActivityMetadata) error {
	now := a.engine.now().UTC()
	activity := models.Activity{
		ID:          ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String(),
		EntityType:  entity,
		EntityID:    id,
		Type:        typ,
		Description: description,
		PerformedBy: a.actor,
		Metadata:    metadata,
		CreatedAt:   now,
	}

	if err := a.repo.AppendActivity(ctx, &activity); err != nil {
		return fmt.Errorf("failed to record activity: %w", err)
	}
	a.recorded = append(a.recorded, activity)
	return nil
}

// ListActivities returns the history of one entity, newest first.
func (e *Engine) ListActivities(ctx context.Context, entity models.EntityType, id uuid.UUID) ([]models.Activity, error) {
	if err := checkEntity(entity); err != nil {
		return nil, err
	}
	if _, err := load(ctx, e.store, entity, id); err != nil {
		return nil, translate(err, string(entity))
	}

	activities, err := e.store.ListActivities(ctx, entity, id)
	if err != nil {
		return nil, translate(err, "activities")
	}
	return activities, nil
}
