// ABOUTME: Engagement creation, field updates, and reads
// ABOUTME: An engagement always belongs to an existing client and never moves to another
package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/studiocrm/db"
	"github.com/harperreed/studiocrm/models"
	"github.com/harperreed/studiocrm/workflow"
)

type EngagementInput struct {
	ClientID    uuid.UUID  `json:"client"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Value       int64      `json:"value,omitempty"`
	StartDate   *time.Time `json:"startDate,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
}

type EngagementPatch struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Value       *int64     `json:"value,omitempty"`
	StartDate   *time.Time `json:"startDate,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
}

func validateEngagement(e *models.Engagement) fieldErrors {
	f := fieldErrors{}
	if strings.TrimSpace(e.Title) == "" {
		f.add("title", "is required")
	}
	if e.ClientID == uuid.Nil {
		f.add("client", "is required")
	}
	f.money("value", e.Value)
	f.dates(e.StartDate, e.DueDate)
	return f
}

func (e *Engine) CreateEngagement(ctx context.Context, in EngagementInput) (*models.Engagement, error) {
	engagement := &models.Engagement{
		ClientID:    in.ClientID,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Status:      workflow.InitialStatus(models.EntityEngagement),
		Value:       in.Value,
		StartDate:   in.StartDate,
		DueDate:     in.DueDate,
	}
	if err := validateEngagement(engagement).err(); err != nil {
		return nil, err
	}

	err := e.mutate(ctx, "create", models.EntityEngagement, func(repo db.Repository, audit *auditLog) error {
		client, err := repo.GetClient(ctx, engagement.ClientID)
		if err == db.ErrNotFound {
			return validationError(map[string]string{"client": "does not exist"})
		}
		if err != nil {
			return err
		}

		if err := repo.CreateEngagement(ctx, engagement); err != nil {
			return err
		}
		return audit.record(ctx, models.EntityEngagement, engagement.ID, models.ActivityEngagementCreated,
			fmt.Sprintf("Engagement %s created for %s", engagement.Title, client.Name), nil)
	})
	if err != nil {
		return nil, err
	}
	return engagement, nil
}

func (e *Engine) UpdateEngagement(ctx context.Context, id uuid.UUID, version string, patch EngagementPatch) (*models.Engagement, error) {
	var engagement *models.Engagement
	err := e.mutate(ctx, "update", models.EntityEngagement, func(repo db.Repository, audit *auditLog) error {
		current, err := repo.GetEngagement(ctx, id)
		if err != nil {
			return err
		}
		if err := Guard(current.Version, version); err != nil {
			return err
		}

		var changed []string
		setString(&changed, "title", &current.Title, trimmed(patch.Title))
		setString(&changed, "description", &current.Description, patch.Description)
		if patch.Value != nil && *patch.Value != current.Value {
			current.Value = *patch.Value
			changed = append(changed, "value")
		}
		setTime(&changed, "startDate", &current.StartDate, patch.StartDate)
		setTime(&changed, "dueDate", &current.DueDate, patch.DueDate)
		if len(changed) == 0 {
			return validationError(map[string]string{"fields": "no changes supplied"})
		}
		if err := validateEngagement(current).err(); err != nil {
			return err
		}

		if err := repo.UpdateEngagement(ctx, current, version); err != nil {
			return err
		}
		engagement = current
		return audit.record(ctx, models.EntityEngagement, id, models.ActivityEngagementUpdated,
			fmt.Sprintf("Engagement %s updated", current.Title), changedMetadata(changed))
	})
	if err != nil {
		return nil, err
	}
	return engagement, nil
}

func setTime(changed *[]string, field string, dst **time.Time, value *time.Time) {
	if value == nil || (*dst != nil && (*dst).Equal(*value)) {
		return
	}
	t := *value
	*dst = &t
	*changed = append(*changed, field)
}

func (e *Engine) GetEngagement(ctx context.Context, id uuid.UUID) (*models.Engagement, error) {
	engagement, err := e.store.GetEngagement(ctx, id)
	if err != nil {
		return nil, translate(err, "engagement")
	}
	return engagement, nil
}

func (e *Engine) ListEngagements(ctx context.Context, filter db.ListFilter) ([]models.Engagement, error) {
	engagements, err := e.store.ListEngagements(ctx, filter)
	if err != nil {
		return nil, translate(err, "engagements")
	}
	return engagements, nil
}
