// ABOUTME: MCP resource handlers for exposing CRM data
// ABOUTME: Provides read-only access to leads, clients, engagements and the pipeline via crm:// URIs
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/harperreed/studiocrm/db"
	"github.com/harperreed/studiocrm/engine"
	"github.com/harperreed/studiocrm/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type ResourceHandlers struct {
	engine *engine.Engine
}

func NewResourceHandlers(eng *engine.Engine) *ResourceHandlers {
	return &ResourceHandlers{engine: eng}
}

// ReadResource handles resource read requests
func (h *ResourceHandlers) ReadResource(ctx context.Context, request *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := request.Params.URI
	if !strings.HasPrefix(uri, "crm://") {
		return nil, fmt.Errorf("invalid URI scheme: expected crm://")
	}

	parts := strings.Split(strings.TrimPrefix(uri, "crm://"), "/")
	if parts[0] == "pipeline" {
		return h.readPipeline(ctx, uri)
	}

	entity, ok := models.ParseEntityType(parts[0])
	if !ok {
		return nil, fmt.Errorf("unknown resource: %s", parts[0])
	}
	if len(parts) == 1 || parts[1] == "" {
		return h.readAll(ctx, uri, entity)
	}
	return h.readOne(ctx, uri, entity, parts[1])
}

func (h *ResourceHandlers) readAll(ctx context.Context, uri string, entity models.EntityType) (*mcp.ReadResourceResult, error) {
	filter := db.ListFilter{Limit: 1000}
	var payload any
	switch entity {
	case models.EntityLead:
		leads, err := h.engine.ListLeads(ctx, filter)
		if err != nil {
			return nil, toolError(err)
		}
		out := make([]LeadOutput, len(leads))
		for i := range leads {
			out[i] = leadToOutput(&leads[i])
		}
		payload = out
	case models.EntityClient:
		clients, err := h.engine.ListClients(ctx, filter)
		if err != nil {
			return nil, toolError(err)
		}
		out := make([]ClientOutput, len(clients))
		for i := range clients {
			out[i] = clientToOutput(&clients[i])
		}
		payload = out
	default:
		engagements, err := h.engine.ListEngagements(ctx, filter)
		if err != nil {
			return nil, toolError(err)
		}
		out := make([]EngagementOutput, len(engagements))
		for i := range engagements {
			out[i] = engagementToOutput(&engagements[i])
		}
		payload = out
	}
	return jsonResource(uri, payload)
}

// readOne returns the record together with its activity timeline.
func (h *ResourceHandlers) readOne(ctx context.Context, uri string, entity models.EntityType, idStr string) (*mcp.ReadResourceResult, error) {
	id, err := parseID("id", idStr)
	if err != nil {
		return nil, err
	}

	var record any
	switch entity {
	case models.EntityLead:
		record, err = h.engine.GetLead(ctx, id)
	case models.EntityClient:
		record, err = h.engine.GetClient(ctx, id)
	default:
		record, err = h.engine.GetEngagement(ctx, id)
	}
	if err != nil {
		return nil, toolError(err)
	}

	activities, err := h.engine.ListActivities(ctx, entity, id)
	if err != nil {
		return nil, toolError(err)
	}
	timeline := make([]ActivityOutput, len(activities))
	for i, a := range activities {
		timeline[i] = activityToOutput(a)
	}

	return jsonResource(uri, struct {
		RecordOutput
		Activities []ActivityOutput `json:"activities"`
	}{
		RecordOutput: recordToOutput(record),
		Activities:   timeline,
	})
}

func (h *ResourceHandlers) readPipeline(ctx context.Context, uri string) (*mcp.ReadResourceResult, error) {
	pipeline := make(map[models.EntityType][]models.StatusCount, len(models.EntityTypes))
	for _, entity := range models.EntityTypes {
		counts, err := h.engine.Pipeline(ctx, entity)
		if err != nil {
			return nil, toolError(err)
		}
		pipeline[entity] = counts
	}
	return jsonResource(uri, pipeline)
}

func jsonResource(uri string, payload any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
	}

	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}}, nil
}
