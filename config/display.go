// ABOUTME: Read-only display configuration for pipeline labels and colors
// ABOUTME: Ships Hebrew and English defaults; a JSON file may override labels but never the graphs
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/harperreed/studiocrm/models"
)

// StageDisplay is how one status is presented.
type StageDisplay struct {
	LabelHE string `json:"labelHe"`
	LabelEN string `json:"labelEn"`
	Color   string `json:"color"`
}

// Display is built once and then only read.
type Display struct {
	stages map[models.EntityType]map[string]StageDisplay
}

type displayFile struct {
	Stages map[models.EntityType]map[string]StageDisplay `json:"stages"`
}

var defaultStages = map[models.EntityType]map[string]StageDisplay{
	models.EntityLead: {
		models.LeadStatusNew:          {LabelHE: "חדש", LabelEN: "New", Color: "#3b82f6"},
		models.LeadStatusContacted:    {LabelHE: "נוצר קשר", LabelEN: "Contacted", Color: "#8b5cf6"},
		models.LeadStatusQualified:    {LabelHE: "מתאים", LabelEN: "Qualified", Color: "#06b6d4"},
		models.LeadStatusProposalSent: {LabelHE: "הצעה נשלחה", LabelEN: "Proposal sent", Color: "#f59e0b"},
		models.LeadStatusWon:          {LabelHE: "נסגר בהצלחה", LabelEN: "Won", Color: "#22c55e"},
		models.LeadStatusLost:         {LabelHE: "אבד", LabelEN: "Lost", Color: "#ef4444"},
		models.StatusArchived:         {LabelHE: "בארכיון", LabelEN: "Archived", Color: "#6b7280"},
	},
	models.EntityClient: {
		models.ClientStatusActive:    {LabelHE: "פעיל", LabelEN: "Active", Color: "#22c55e"},
		models.ClientStatusCompleted: {LabelHE: "הושלם", LabelEN: "Completed", Color: "#3b82f6"},
		models.ClientStatusInactive:  {LabelHE: "לא פעיל", LabelEN: "Inactive", Color: "#9ca3af"},
		models.StatusArchived:        {LabelHE: "בארכיון", LabelEN: "Archived", Color: "#6b7280"},
	},
	models.EntityEngagement: {
		models.EngagementStatusNew:        {LabelHE: "חדש", LabelEN: "New", Color: "#3b82f6"},
		models.EngagementStatusInProgress: {LabelHE: "בעבודה", LabelEN: "In progress", Color: "#8b5cf6"},
		models.EngagementStatusReview:     {LabelHE: "בבדיקה", LabelEN: "Review", Color: "#f59e0b"},
		models.EngagementStatusDelivered:  {LabelHE: "נמסר", LabelEN: "Delivered", Color: "#06b6d4"},
		models.EngagementStatusCompleted:  {LabelHE: "הושלם", LabelEN: "Completed", Color: "#22c55e"},
		models.EngagementStatusPaused:     {LabelHE: "מושהה", LabelEN: "Paused", Color: "#9ca3af"},
		models.EngagementStatusCancelled:  {LabelHE: "בוטל", LabelEN: "Cancelled", Color: "#ef4444"},
	},
}

func DefaultDisplay() *Display {
	return &Display{stages: cloneStages(defaultStages)}
}

// LoadDisplay starts from the defaults and applies overrides from a JSON file.
// An empty path returns the defaults.
func LoadDisplay(path string) (*Display, error) {
	d := DefaultDisplay()
	if path == "" {
		return d, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read display config: %w", err)
	}

	var file displayFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse display config: %w", err)
	}

	for entity, stages := range file.Stages {
		current, ok := d.stages[entity]
		if !ok {
			return nil, fmt.Errorf("display config names unknown entity type %q", entity)
		}
		for status, override := range stages {
			base, ok := current[status]
			if !ok {
				return nil, fmt.Errorf("display config names unknown %s status %q", entity, status)
			}
			if override.LabelHE != "" {
				base.LabelHE = override.LabelHE
			}
			if override.LabelEN != "" {
				base.LabelEN = override.LabelEN
			}
			if override.Color != "" {
				base.Color = override.Color
			}
			current[status] = base
		}
	}
	return d, nil
}

// Stage returns the display for a status, falling back to the raw status name.
func (d *Display) Stage(entity models.EntityType, status string) StageDisplay {
	if s, ok := d.stages[entity][status]; ok {
		return s
	}
	return StageDisplay{LabelHE: status, LabelEN: status, Color: "#6b7280"}
}

// Label returns the label in lang ("he" or "en"; anything else means he).
func (d *Display) Label(entity models.EntityType, status, lang string) string {
	s := d.Stage(entity, status)
	if lang == "en" {
		return s.LabelEN
	}
	return s.LabelHE
}

// Stages returns a copy of every stage display for entity.
func (d *Display) Stages(entity models.EntityType) map[string]StageDisplay {
	out := make(map[string]StageDisplay, len(d.stages[entity]))
	for k, v := range d.stages[entity] {
		out[k] = v
	}
	return out
}

// MarshalJSON exposes the configuration to API clients.
func (d *Display) MarshalJSON() ([]byte, error) {
	return json.Marshal(displayFile{Stages: d.stages})
}

func cloneStages(in map[models.EntityType]map[string]StageDisplay) map[models.EntityType]map[string]StageDisplay {
	out := make(map[models.EntityType]map[string]StageDisplay, len(in))
	for entity, stages := range in {
		copied := make(map[string]StageDisplay, len(stages))
		for k, v := range stages {
			copied[k] = v
		}
		out[entity] = copied
	}
	return out
}
