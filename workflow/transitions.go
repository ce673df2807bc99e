// ABOUTME: Fixed status transition graphs for leads, clients, and engagements
// ABOUTME: Validates requested status moves against the declared edges
package workflow

import (
	"errors"
	"fmt"
	"sort"

	"github.com/harperreed/studiocrm/models"
)

var (
	ErrInvalidTransition = errors.New("invalid transition")
	ErrUnknownStatus     = errors.New("unknown status")
	ErrUnknownEntity     = errors.New("unknown entity type")
)

type machine struct {
	initial    string
	archivable bool
	// edges maps a status to the statuses directly reachable from it.
	edges map[string][]string
}

var machines = map[models.EntityType]machine{
	models.EntityLead: {
		initial:    models.LeadStatusNew,
		archivable: true,
		edges: map[string][]string{
			models.LeadStatusNew:          {models.LeadStatusContacted, models.LeadStatusLost},
			models.LeadStatusContacted:    {models.LeadStatusQualified, models.LeadStatusLost},
			models.LeadStatusQualified:    {models.LeadStatusProposalSent, models.LeadStatusLost},
			models.LeadStatusProposalSent: {models.LeadStatusWon, models.LeadStatusLost},
			models.LeadStatusWon:          {},
			models.LeadStatusLost:         {},
		},
	},
	models.EntityClient: {
		initial:    models.ClientStatusActive,
		archivable: true,
		edges: map[string][]string{
			models.ClientStatusActive:    {models.ClientStatusCompleted, models.ClientStatusInactive},
			models.ClientStatusCompleted: {models.ClientStatusInactive},
			models.ClientStatusInactive:  {models.ClientStatusActive},
		},
	},
	models.EntityEngagement: {
		initial: models.EngagementStatusNew,
		edges: map[string][]string{
			models.EngagementStatusNew: {
				models.EngagementStatusInProgress, models.EngagementStatusPaused, models.EngagementStatusCancelled,
			},
			models.EngagementStatusInProgress: {
				models.EngagementStatusReview, models.EngagementStatusDelivered, models.EngagementStatusPaused, models.EngagementStatusCancelled,
			},
			models.EngagementStatusReview: {
				models.EngagementStatusInProgress, models.EngagementStatusDelivered, models.EngagementStatusPaused, models.EngagementStatusCancelled,
			},
			models.EngagementStatusDelivered: {
				models.EngagementStatusCompleted, models.EngagementStatusInProgress, models.EngagementStatusCancelled,
			},
			models.EngagementStatusPaused: {
				models.EngagementStatusNew, models.EngagementStatusInProgress, models.EngagementStatusCancelled,
			},
			models.EngagementStatusCompleted: {},
			models.EngagementStatusCancelled: {},
		},
	},
}

// statusOrder is the display order of each graph's statuses.
var statusOrder = map[models.EntityType][]string{
	models.EntityLead: {
		models.LeadStatusNew, models.LeadStatusContacted, models.LeadStatusQualified,
		models.LeadStatusProposalSent, models.LeadStatusWon, models.LeadStatusLost,
	},
	models.EntityClient: {
		models.ClientStatusActive, models.ClientStatusCompleted, models.ClientStatusInactive,
	},
	models.EntityEngagement: {
		models.EngagementStatusNew, models.EngagementStatusInProgress, models.EngagementStatusReview,
		models.EngagementStatusDelivered, models.EngagementStatusCompleted, models.EngagementStatusPaused,
		models.EngagementStatusCancelled,
	},
}

func lookup(entity models.EntityType) (machine, error) {
	m, ok := machines[entity]
	if !ok {
		return machine{}, fmt.Errorf("%w: %q", ErrUnknownEntity, entity)
	}
	return m, nil
}

// InitialStatus returns the status every new record of the entity type starts in.
func InitialStatus(entity models.EntityType) string {
	return machines[entity].initial
}

// Archivable reports whether the entity type supports the archive pseudo-transition.
func Archivable(entity models.EntityType) bool {
	return machines[entity].archivable
}

// Statuses returns the graph statuses of an entity type in display order,
// followed by archived when the type is archivable.
func Statuses(entity models.EntityType) []string {
	out := append([]string(nil), statusOrder[entity]...)
	if Archivable(entity) {
		out = append(out, models.StatusArchived)
	}
	return out
}

// IsValidStatus reports whether status belongs to the entity type, archived included.
func IsValidStatus(entity models.EntityType, status string) bool {
	m, ok := machines[entity]
	if !ok {
		return false
	}
	if status == models.StatusArchived {
		return m.archivable
	}
	_, ok = m.edges[status]
	return ok
}

// Allowed returns the statuses reachable from the given status, sorted.
// Archived and terminal statuses have none.
func Allowed(entity models.EntityType, from string) []string {
	m, ok := machines[entity]
	if !ok {
		return nil
	}
	next := append([]string(nil), m.edges[from]...)
	sort.Strings(next)
	return next
}

// IsTerminal reports whether the status has no outgoing edges in the graph.
func IsTerminal(entity models.EntityType, status string) bool {
	m, ok := machines[entity]
	if !ok {
		return false
	}
	edges, ok := m.edges[status]
	return ok && len(edges) == 0
}

// CanTransition reports whether from -> to is a declared edge.
func CanTransition(entity models.EntityType, from, to string) bool {
	m, ok := machines[entity]
	if !ok {
		return false
	}
	for _, next := range m.edges[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Validate returns nil when from -> to is a declared edge.
func Validate(entity models.EntityType, from, to string) error {
	m, err := lookup(entity)
	if err != nil {
		return err
	}
	if !IsValidStatus(entity, to) {
		return fmt.Errorf("%w: %s status %q", ErrUnknownStatus, entity, to)
	}
	if _, known := m.edges[from]; !known && from != models.StatusArchived {
		return fmt.Errorf("%w: %s status %q", ErrUnknownStatus, entity, from)
	}
	if !CanTransition(entity, from, to) {
		return fmt.Errorf("%w: %s cannot move from %s to %s", ErrInvalidTransition, entity, from, to)
	}
	return nil
}

// Edge is one declared transition, used by graph renderers.
type Edge struct {
	From string
	To   string
}

// Edges returns every declared transition of the entity type in display order.
func Edges(entity models.EntityType) []Edge {
	m, ok := machines[entity]
	if !ok {
		return nil
	}
	var edges []Edge
	for _, from := range statusOrder[entity] {
		for _, to := range m.edges[from] {
			edges = append(edges, Edge{From: from, To: to})
		}
	}
	return edges
}
