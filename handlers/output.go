// ABOUTME: Tool output shapes and shared input parsing for the MCP handlers
// ABOUTME: Flattens ids and timestamps to strings and renders engine errors as envelopes
package handlers

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/studiocrm/engine"
	"github.com/harperreed/studiocrm/models"
)

type LeadOutput struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Email          string  `json:"email,omitempty"`
	Phone          string  `json:"phone,omitempty"`
	Company        string  `json:"company,omitempty"`
	Message        string  `json:"message,omitempty"`
	Source         string  `json:"source,omitempty"`
	Status         string  `json:"status"`
	Priority       string  `json:"priority"`
	EstimatedValue int64   `json:"estimated_value"`
	ConvertedTo    *string `json:"converted_to_client_id,omitempty"`
	ArchivedAt     *string `json:"archived_at,omitempty"`
	Version        string  `json:"version"`
	CreatedAt      string  `json:"created_at"`
	UpdatedAt      string  `json:"updated_at"`
}

type ClientOutput struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Email        string  `json:"email,omitempty"`
	Phone        string  `json:"phone,omitempty"`
	Company      string  `json:"company,omitempty"`
	Status       string  `json:"status"`
	SourceLeadID *string `json:"source_lead_id,omitempty"`
	Notes        string  `json:"notes,omitempty"`
	ArchivedAt   *string `json:"archived_at,omitempty"`
	Version      string  `json:"version"`
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    string  `json:"updated_at"`
}

type EngagementOutput struct {
	ID          string  `json:"id"`
	ClientID    string  `json:"client_id"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Status      string  `json:"status"`
	Value       int64   `json:"value"`
	StartDate   *string `json:"start_date,omitempty"`
	DueDate     *string `json:"due_date,omitempty"`
	Version     string  `json:"version"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

type ActivityOutput struct {
	ID             string            `json:"id"`
	EntityType     string            `json:"entity_type"`
	EntityID       string            `json:"entity_id"`
	Type           string            `json:"type"`
	Description    string            `json:"description"`
	PerformedBy    string            `json:"performed_by"`
	PreviousStatus string            `json:"previous_status,omitempty"`
	NewStatus      string            `json:"new_status,omitempty"`
	BulkAction     string            `json:"bulk_action,omitempty"`
	Details        map[string]string `json:"details,omitempty"`
	CreatedAt      string            `json:"created_at"`
}

// RecordOutput carries whichever entity a lifecycle tool touched.
type RecordOutput struct {
	EntityType string            `json:"entity_type"`
	Lead       *LeadOutput       `json:"lead,omitempty"`
	Client     *ClientOutput     `json:"client,omitempty"`
	Engagement *EngagementOutput `json:"engagement,omitempty"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

func formatIDPtr(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func leadToOutput(lead *models.Lead) LeadOutput {
	return LeadOutput{
		ID:             lead.ID.String(),
		Name:           lead.Name,
		Email:          lead.Email,
		Phone:          lead.Phone,
		Company:        lead.Company,
		Message:        lead.Message,
		Source:         lead.Source,
		Status:         lead.Status,
		Priority:       lead.Priority,
		EstimatedValue: lead.EstimatedValue,
		ConvertedTo:    formatIDPtr(lead.ConvertedToClientID),
		ArchivedAt:     formatTimePtr(lead.ArchivedAt),
		Version:        lead.Version,
		CreatedAt:      formatTime(lead.CreatedAt),
		UpdatedAt:      formatTime(lead.UpdatedAt),
	}
}

func clientToOutput(client *models.Client) ClientOutput {
	return ClientOutput{
		ID:           client.ID.String(),
		Name:         client.Name,
		Email:        client.Email,
		Phone:        client.Phone,
		Company:      client.Company,
		Status:       client.Status,
		SourceLeadID: formatIDPtr(client.SourceLeadID),
		Notes:        client.Notes,
		ArchivedAt:   formatTimePtr(client.ArchivedAt),
		Version:      client.Version,
		CreatedAt:    formatTime(client.CreatedAt),
		UpdatedAt:    formatTime(client.UpdatedAt),
	}
}

func engagementToOutput(e *models.Engagement) EngagementOutput {
	return EngagementOutput{
		ID:          e.ID.String(),
		ClientID:    e.ClientID.String(),
		Title:       e.Title,
		Description: e.Description,
		Status:      e.Status,
		Value:       e.Value,
		StartDate:   formatTimePtr(e.StartDate),
		DueDate:     formatTimePtr(e.DueDate),
		Version:     e.Version,
		CreatedAt:   formatTime(e.CreatedAt),
		UpdatedAt:   formatTime(e.UpdatedAt),
	}
}

func activityToOutput(a models.Activity) ActivityOutput {
	out := ActivityOutput{
		ID:          a.ID,
		EntityType:  string(a.EntityType),
		EntityID:    a.EntityID.String(),
		Type:        string(a.Type),
		Description: a.Description,
		PerformedBy: a.PerformedBy,
		CreatedAt:   formatTime(a.CreatedAt),
	}
	if a.Metadata != nil {
		out.PreviousStatus = a.Metadata.PreviousStatus
		out.NewStatus = a.Metadata.NewStatus
		out.BulkAction = a.Metadata.BulkAction
		out.Details = a.Metadata.Details
	}
	return out
}

func recordToOutput(record any) RecordOutput {
	switch r := record.(type) {
	case *models.Lead:
		out := leadToOutput(r)
		return RecordOutput{EntityType: string(models.EntityLead), Lead: &out}
	case *models.Client:
		out := clientToOutput(r)
		return RecordOutput{EntityType: string(models.EntityClient), Client: &out}
	case *models.Engagement:
		out := engagementToOutput(r)
		return RecordOutput{EntityType: string(models.EntityEngagement), Engagement: &out}
	}
	return RecordOutput{}
}

// ToolError reports an engine failure to the agent as a JSON envelope.
type ToolError struct {
	Envelope engine.Envelope
}

func (e *ToolError) Error() string {
	data, err := json.Marshal(e.Envelope)
	if err != nil {
		return string(e.Envelope.Code) + ": " + e.Envelope.Message
	}
	return string(data)
}

func toolError(err error) error {
	return &ToolError{Envelope: engine.ToEnvelope(err)}
}

// invalidInput reports a malformed tool argument as VALIDATION_FAILED.
func invalidInput(field, message string) error {
	return &ToolError{Envelope: engine.Envelope{
		Category:    engine.CategoryValidation,
		Code:        engine.CodeValidation,
		Message:     "validation failed",
		FieldErrors: map[string]string{field: message},
	}}
}

func parseID(field, value string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(value))
	if err != nil {
		return uuid.Nil, invalidInput(field, "must be a UUID")
	}
	return id, nil
}

func parseEntity(value string) (models.EntityType, error) {
	entity, ok := models.ParseEntityType(strings.ToLower(strings.TrimSpace(value)))
	if !ok {
		return "", invalidInput("entity_type", fmt.Sprintf("unknown entity type %q", value))
	}
	return entity, nil
}

// parseDate accepts RFC 3339 timestamps or plain YYYY-MM-DD dates.
func parseDate(field, value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return &t, nil
		}
	}
	return nil, invalidInput(field, "must be YYYY-MM-DD or RFC 3339")
}
