// ABOUTME: Uniform lifecycle view over leads, clients, and engagements
// ABOUTME: Lets transition, archive, and bulk code load, mutate, and save any entity kind
package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/studiocrm/db"
	"github.com/harperreed/studiocrm/models"
	"github.com/harperreed/studiocrm/workflow"
)

// subject wraps exactly one of the three entity pointers.
type subject struct {
	entity     models.EntityType
	lead       *models.Lead
	client     *models.Client
	engagement *models.Engagement
}

func checkEntity(entity models.EntityType) error {
	switch entity {
	case models.EntityLead, models.EntityClient, models.EntityEngagement:
		return nil
	}
	return validationError(map[string]string{"entityType": "unknown entity type " + string(entity)})
}

func load(ctx context.Context, repo db.Repository, entity models.EntityType, id uuid.UUID) (*subject, error) {
	s := &subject{entity: entity}
	var err error
	switch entity {
	case models.EntityLead:
		s.lead, err = repo.GetLead(ctx, id)
	case models.EntityClient:
		s.client, err = repo.GetClient(ctx, id)
	case models.EntityEngagement:
		s.engagement, err = repo.GetEngagement(ctx, id)
	default:
		return nil, checkEntity(entity)
	}
	if err != nil {
		return nil, translate(err, string(entity))
	}
	return s, nil
}

func (s *subject) id() uuid.UUID {
	switch {
	case s.lead != nil:
		return s.lead.ID
	case s.client != nil:
		return s.client.ID
	}
	return s.engagement.ID
}

func (s *subject) status() string {
	switch {
	case s.lead != nil:
		return s.lead.Status
	case s.client != nil:
		return s.client.Status
	}
	return s.engagement.Status
}

func (s *subject) version() string {
	switch {
	case s.lead != nil:
		return s.lead.Version
	case s.client != nil:
		return s.client.Version
	}
	return s.engagement.Version
}

func (s *subject) setStatus(status string) {
	switch {
	case s.lead != nil:
		s.lead.Status = status
	case s.client != nil:
		s.client.Status = status
	default:
		s.engagement.Status = status
	}
}

// archive moves the record out of the graph and remembers where it was.
func (s *subject) archive(now time.Time) {
	prev := s.status()
	switch {
	case s.lead != nil:
		s.lead.PreArchiveStatus = prev
		s.lead.ArchivedAt = &now
	case s.client != nil:
		s.client.PreArchiveStatus = prev
		s.client.ArchivedAt = &now
	}
	s.setStatus(models.StatusArchived)
}

// restoreTarget is the stored pre-archive status when it is a graph status,
// otherwise the entity's initial status.
func (s *subject) restoreTarget() string {
	var pre string
	switch {
	case s.lead != nil:
		pre = s.lead.PreArchiveStatus
	case s.client != nil:
		pre = s.client.PreArchiveStatus
	}
	if pre != "" && pre != models.StatusArchived && workflow.IsValidStatus(s.entity, pre) {
		return pre
	}
	return workflow.InitialStatus(s.entity)
}

func (s *subject) restore(target string) {
	switch {
	case s.lead != nil:
		s.lead.PreArchiveStatus = ""
		s.lead.ArchivedAt = nil
	case s.client != nil:
		s.client.PreArchiveStatus = ""
		s.client.ArchivedAt = nil
	}
	s.setStatus(target)
}

func (s *subject) save(ctx context.Context, repo db.Repository, expectedVersion string) error {
	var err error
	switch {
	case s.lead != nil:
		err = repo.UpdateLead(ctx, s.lead, expectedVersion)
	case s.client != nil:
		err = repo.UpdateClient(ctx, s.client, expectedVersion)
	default:
		err = repo.UpdateEngagement(ctx, s.engagement, expectedVersion)
	}
	return translate(err, string(s.entity))
}

// value returns the wrapped model pointer.
func (s *subject) value() any {
	switch {
	case s.lead != nil:
		return s.lead
	case s.client != nil:
		return s.client
	}
	return s.engagement
}
