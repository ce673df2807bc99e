// ABOUTME: Lifecycle MCP tool handlers shared by every entity type
// ABOUTME: Implements transition_entity, archive_entity, restore_entity, bulk_apply, and list_activities
package handlers

import (
	"context"

	"github.com/google/uuid"
	"github.com/harperreed/studiocrm/engine"
	"github.com/harperreed/studiocrm/workflow"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type LifecycleHandlers struct {
	engine *engine.Engine
}

func NewLifecycleHandlers(eng *engine.Engine) *LifecycleHandlers {
	return &LifecycleHandlers{engine: eng}
}

type TransitionInput struct {
	EntityType   string `json:"entity_type" jsonschema:"lead, client, or engagement (required)"`
	ID           string `json:"id" jsonschema:"Record UUID (required)"`
	TargetStatus string `json:"target_status" jsonschema:"Status to move to; must be allowed from the current one (required)"`
	Version      string `json:"version" jsonschema:"Version token from the last read (required)"`
}

type TransitionOutput struct {
	RecordOutput
	AllowedNext []string `json:"allowed_next"`
}

func (h *LifecycleHandlers) TransitionEntity(ctx context.Context, request *mcp.CallToolRequest, input TransitionInput) (*mcp.CallToolResult, TransitionOutput, error) {
	entity, err := parseEntity(input.EntityType)
	if err != nil {
		return nil, TransitionOutput{}, err
	}
	id, err := parseID("id", input.ID)
	if err != nil {
		return nil, TransitionOutput{}, err
	}

	record, err := h.engine.Transition(ctx, entity, id, input.TargetStatus, input.Version)
	if err != nil {
		return nil, TransitionOutput{}, toolError(err)
	}
	return nil, TransitionOutput{
		RecordOutput: recordToOutput(record),
		AllowedNext:  nonNil(workflow.Allowed(entity, input.TargetStatus)),
	}, nil
}

type ArchiveInput struct {
	EntityType string `json:"entity_type" jsonschema:"lead or client (required)"`
	ID         string `json:"id" jsonschema:"Record UUID (required)"`
	Version    string `json:"version" jsonschema:"Version token from the last read (required)"`
}

func (h *LifecycleHandlers) ArchiveEntity(ctx context.Context, request *mcp.CallToolRequest, input ArchiveInput) (*mcp.CallToolResult, RecordOutput, error) {
	entity, err := parseEntity(input.EntityType)
	if err != nil {
		return nil, RecordOutput{}, err
	}
	id, err := parseID("id", input.ID)
	if err != nil {
		return nil, RecordOutput{}, err
	}

	record, err := h.engine.Archive(ctx, entity, id, input.Version)
	if err != nil {
		return nil, RecordOutput{}, toolError(err)
	}
	return nil, recordToOutput(record), nil
}

func (h *LifecycleHandlers) RestoreEntity(ctx context.Context, request *mcp.CallToolRequest, input ArchiveInput) (*mcp.CallToolResult, RecordOutput, error) {
	entity, err := parseEntity(input.EntityType)
	if err != nil {
		return nil, RecordOutput{}, err
	}
	id, err := parseID("id", input.ID)
	if err != nil {
		return nil, RecordOutput{}, err
	}

	record, err := h.engine.Restore(ctx, entity, id, input.Version)
	if err != nil {
		return nil, RecordOutput{}, toolError(err)
	}
	return nil, recordToOutput(record), nil
}

type BulkItemInput struct {
	ID      string `json:"id" jsonschema:"Record UUID"`
	Version string `json:"version" jsonschema:"Version token the agent last saw for this record"`
}

type BulkApplyInput struct {
	EntityType   string          `json:"entity_type" jsonschema:"lead, client, or engagement (required)"`
	Action       string          `json:"action" jsonschema:"archive or status_change (required)"`
	TargetStatus string          `json:"target_status,omitempty" jsonschema:"Target status for status_change"`
	Items        []BulkItemInput `json:"items" jsonschema:"Records to change with their version tokens (required)"`
}

type BulkSkipOutput struct {
	ID      string `json:"id"`
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

type BulkApplyOutput struct {
	Affected int              `json:"affected"`
	Skipped  []BulkSkipOutput `json:"skipped"`
}

func (h *LifecycleHandlers) BulkApply(ctx context.Context, request *mcp.CallToolRequest, input BulkApplyInput) (*mcp.CallToolResult, BulkApplyOutput, error) {
	entity, err := parseEntity(input.EntityType)
	if err != nil {
		return nil, BulkApplyOutput{}, err
	}

	req := engine.BulkRequest{
		EntityType:   entity,
		Action:       engine.BulkAction(input.Action),
		TargetStatus: input.TargetStatus,
		IDs:          make([]uuid.UUID, 0, len(input.Items)),
		Versions:     make(map[uuid.UUID]string, len(input.Items)),
	}
	for _, item := range input.Items {
		id, err := parseID("items", item.ID)
		if err != nil {
			return nil, BulkApplyOutput{}, err
		}
		req.IDs = append(req.IDs, id)
		if item.Version != "" {
			req.Versions[id] = item.Version
		}
	}

	result, err := h.engine.Bulk(ctx, req)
	out := BulkApplyOutput{Affected: result.Affected, Skipped: make([]BulkSkipOutput, len(result.Skipped))}
	for i, skip := range result.Skipped {
		out.Skipped[i] = BulkSkipOutput{ID: skip.ID.String(), Code: string(skip.Code), Message: skip.Message}
	}
	if err != nil {
		return nil, out, toolError(err)
	}
	return nil, out, nil
}

type ListActivitiesInput struct {
	EntityType string `json:"entity_type" jsonschema:"lead, client, or engagement (required)"`
	ID         string `json:"id" jsonschema:"Record UUID (required)"`
}

type ListActivitiesOutput struct {
	Activities []ActivityOutput `json:"activities"`
}

func (h *LifecycleHandlers) ListActivities(ctx context.Context, request *mcp.CallToolRequest, input ListActivitiesInput) (*mcp.CallToolResult, ListActivitiesOutput, error) {
	entity, err := parseEntity(input.EntityType)
	if err != nil {
		return nil, ListActivitiesOutput{}, err
	}
	id, err := parseID("id", input.ID)
	if err != nil {
		return nil, ListActivitiesOutput{}, err
	}

	activities, err := h.engine.ListActivities(ctx, entity, id)
	if err != nil {
		return nil, ListActivitiesOutput{}, toolError(err)
	}

	result := make([]ActivityOutput, len(activities))
	for i, a := range activities {
		result[i] = activityToOutput(a)
	}
	return nil, ListActivitiesOutput{Activities: result}, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
