// ABOUTME: Archive and restore pseudo-transitions outside the status graphs
// ABOUTME: Only leads and clients can be archived; restore returns them to their pre-archive status
package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/harperreed/studiocrm/db"
	"github.com/harperreed/studiocrm/models"
	"github.com/harperreed/studiocrm/workflow"
)

func archivedActivity(entity models.EntityType) models.ActivityType {
	if entity == models.EntityClient {
		return models.ActivityClientArchived
	}
	return models.ActivityLeadArchived
}

// Archive hides a lead or client from default views without deleting it.
func (e *Engine) Archive(ctx context.Context, entity models.EntityType, id uuid.UUID, version string) (any, error) {
	if err := checkEntity(entity); err != nil {
		return nil, err
	}

	var out any
	err := e.mutate(ctx, "archive", entity, func(repo db.Repository, audit *auditLog) error {
		s, prev, err := e.archiveStep(ctx, repo, entity, id, version)
		if err != nil {
			return err
		}
		out = s.value()
		return audit.record(ctx, entity, id, archivedActivity(entity),
			fmt.Sprintf("Archived from %s", prev),
			&models.ActivityMetadata{PreviousStatus: prev, NewStatus: models.StatusArchived})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (e *Engine) archiveStep(ctx context.Context, repo db.Repository, entity models.EntityType, id uuid.UUID, version string) (*subject, string, error) {
	s, err := load(ctx, repo, entity, id)
	if err != nil {
		return nil, "", err
	}
	if err := Guard(s.version(), version); err != nil {
		return nil, "", err
	}
	if !workflow.Archivable(entity) {
		return nil, "", newError(ErrInvalidState, "%s records cannot be archived", entity)
	}

	prev := s.status()
	if prev == models.StatusArchived {
		return nil, "", newError(ErrInvalidState, "%s is already archived", entity)
	}

	s.archive(e.now().UTC())
	if err := s.save(ctx, repo, version); err != nil {
		return nil, "", err
	}
	return s, prev, nil
}

// Restore brings an archived lead or client back into its workflow.
func (e *Engine) Restore(ctx context.Context, entity models.EntityType, id uuid.UUID, version string) (any, error) {
	if err := checkEntity(entity); err != nil {
		return nil, err
	}

	var out any
	err := e.mutate(ctx, "restore", entity, func(repo db.Repository, audit *auditLog) error {
		s, err := load(ctx, repo, entity, id)
		if err != nil {
			return err
		}
		if err := Guard(s.version(), version); err != nil {
			return err
		}
		if !workflow.Archivable(entity) {
			return newError(ErrInvalidState, "%s records cannot be restored", entity)
		}
		if s.status() != models.StatusArchived {
			return newError(ErrInvalidState, "%s is not archived", entity)
		}

		target := s.restoreTarget()
		s.restore(target)
		if err := s.save(ctx, repo, version); err != nil {
			return err
		}
		out = s.value()
		return audit.record(ctx, entity, id, models.ActivityRecordRestored,
			fmt.Sprintf("Restored to %s", target),
			&models.ActivityMetadata{PreviousStatus: models.StatusArchived, NewStatus: target})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
