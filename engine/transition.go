// ABOUTME: Guarded status transitions along the fixed per-entity graphs
// ABOUTME: A successful transition appends exactly one status_change activity
package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/harperreed/studiocrm/db"
	"github.com/harperreed/studiocrm/models"
	"github.com/harperreed/studiocrm/workflow"
)

// Transition moves an entity to target. It returns the updated *models.Lead,
// *models.Client or *models.Engagement.
func (e *Engine) Transition(ctx context.Context, entity models.EntityType, id uuid.UUID, target, version string) (any, error) {
	if err := checkEntity(entity); err != nil {
		return nil, err
	}

	var out any
	err := e.mutate(ctx, "transition", entity, func(repo db.Repository, audit *auditLog) error {
		s, prev, err := transitionStep(ctx, repo, entity, id, target, version)
		if err != nil {
			return err
		}
		out = s.value()
		return audit.record(ctx, entity, id, models.ActivityStatusChange,
			fmt.Sprintf("Status changed from %s to %s", prev, target),
			&models.ActivityMetadata{PreviousStatus: prev, NewStatus: target})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// transitionStep loads, guards, validates, and saves one status change.
func transitionStep(ctx context.Context, repo db.Repository, entity models.EntityType, id uuid.UUID, target, version string) (*subject, string, error) {
	s, err := load(ctx, repo, entity, id)
	if err != nil {
		return nil, "", err
	}
	if err := Guard(s.version(), version); err != nil {
		return nil, "", err
	}

	prev := s.status()
	if target == models.StatusArchived {
		return nil, "", newError(ErrInvalidTransition, "%s cannot move to archived through a transition; use archive", entity)
	}
	if err := workflow.Validate(entity, prev, target); err != nil {
		return nil, "", translate(err, string(entity))
	}

	s.setStatus(target)
	if err := s.save(ctx, repo, version); err != nil {
		return nil, "", err
	}
	return s, prev, nil
}
