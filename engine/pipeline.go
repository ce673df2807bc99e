// ABOUTME: Pipeline summary of record counts and value per status
// ABOUTME: Every status of the entity's workflow is present, in graph order
package engine

import (
	"context"

	"github.com/harperreed/studiocrm/models"
	"github.com/harperreed/studiocrm/workflow"
)

// Pipeline returns one bucket per status of entity, zero-filled.
func (e *Engine) Pipeline(ctx context.Context, entity models.EntityType) ([]models.StatusCount, error) {
	if err := checkEntity(entity); err != nil {
		return nil, err
	}

	counts, err := e.store.CountByStatus(ctx, entity)
	if err != nil {
		return nil, translate(err, "pipeline")
	}

	byStatus := make(map[string]models.StatusCount, len(counts))
	for _, c := range counts {
		byStatus[c.Status] = c
	}

	statuses := workflow.Statuses(entity)
	out := make([]models.StatusCount, 0, len(statuses))
	for _, status := range statuses {
		c := byStatus[status]
		c.Status = status
		out = append(out, c)
	}
	return out, nil
}
