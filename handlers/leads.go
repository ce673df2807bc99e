// ABOUTME: Lead MCP tool handlers
// ABOUTME: Implements create_lead, update_lead, list_leads, and convert_lead tools
package handlers

import (
	"context"

	"github.com/harperreed/studiocrm/db"
	"github.com/harperreed/studiocrm/engine"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type LeadHandlers struct {
	engine *engine.Engine
}

func NewLeadHandlers(eng *engine.Engine) *LeadHandlers {
	return &LeadHandlers{engine: eng}
}

type CreateLeadInput struct {
	Name           string `json:"name" jsonschema:"Lead name (required)"`
	Email          string `json:"email,omitempty" jsonschema:"Contact email address"`
	Phone          string `json:"phone,omitempty" jsonschema:"Contact phone number"`
	Company        string `json:"company,omitempty" jsonschema:"Company the lead works for"`
	Message        string `json:"message,omitempty" jsonschema:"Original inquiry text"`
	Source         string `json:"source,omitempty" jsonschema:"Where the lead came from, e.g. website or referral"`
	Priority       string `json:"priority,omitempty" jsonschema:"low, medium (default), or high"`
	EstimatedValue int64  `json:"estimated_value,omitempty" jsonschema:"Estimated deal value in minor currency units"`
}

func (h *LeadHandlers) CreateLead(ctx context.Context, request *mcp.CallToolRequest, input CreateLeadInput) (*mcp.CallToolResult, LeadOutput, error) {
	lead, err := h.engine.CreateLead(ctx, engine.LeadInput{
		Name:           input.Name,
		Email:          input.Email,
		Phone:          input.Phone,
		Company:        input.Company,
		Message:        input.Message,
		Source:         input.Source,
		Priority:       input.Priority,
		EstimatedValue: input.EstimatedValue,
	})
	if err != nil {
		return nil, LeadOutput{}, toolError(err)
	}
	return nil, leadToOutput(lead), nil
}

type UpdateLeadInput struct {
	ID             string  `json:"id" jsonschema:"Lead UUID (required)"`
	Version        string  `json:"version" jsonschema:"Version token from the last read (required)"`
	Name           *string `json:"name,omitempty" jsonschema:"New name"`
	Email          *string `json:"email,omitempty" jsonschema:"New email address"`
	Phone          *string `json:"phone,omitempty" jsonschema:"New phone number"`
	Company        *string `json:"company,omitempty" jsonschema:"New company"`
	Message        *string `json:"message,omitempty" jsonschema:"New inquiry text"`
	Source         *string `json:"source,omitempty" jsonschema:"New source"`
	Priority       *string `json:"priority,omitempty" jsonschema:"low, medium, or high"`
	EstimatedValue *int64  `json:"estimated_value,omitempty" jsonschema:"New estimated value in minor units"`
}

func (h *LeadHandlers) UpdateLead(ctx context.Context, request *mcp.CallToolRequest, input UpdateLeadInput) (*mcp.CallToolResult, LeadOutput, error) {
	id, err := parseID("id", input.ID)
	if err != nil {
		return nil, LeadOutput{}, err
	}

	lead, err := h.engine.UpdateLead(ctx, id, input.Version, engine.LeadPatch{
		Name:           input.Name,
		Email:          input.Email,
		Phone:          input.Phone,
		Company:        input.Company,
		Message:        input.Message,
		Source:         input.Source,
		Priority:       input.Priority,
		EstimatedValue: input.EstimatedValue,
	})
	if err != nil {
		return nil, LeadOutput{}, toolError(err)
	}
	return nil, leadToOutput(lead), nil
}

type ListLeadsInput struct {
	Query           string `json:"query,omitempty" jsonschema:"Search name, email, or company"`
	Status          string `json:"status,omitempty" jsonschema:"Only leads in this status"`
	IncludeArchived bool   `json:"include_archived,omitempty" jsonschema:"Include archived leads"`
	Limit           int    `json:"limit,omitempty" jsonschema:"Maximum number of results (default 20)"`
}

type ListLeadsOutput struct {
	Leads []LeadOutput `json:"leads"`
}

func (h *LeadHandlers) ListLeads(ctx context.Context, request *mcp.CallToolRequest, input ListLeadsInput) (*mcp.CallToolResult, ListLeadsOutput, error) {
	limit := input.Limit
	if limit == 0 {
		limit = 20
	}

	leads, err := h.engine.ListLeads(ctx, db.ListFilter{
		Status:          input.Status,
		Query:           input.Query,
		IncludeArchived: input.IncludeArchived,
		Limit:           limit,
	})
	if err != nil {
		return nil, ListLeadsOutput{}, toolError(err)
	}

	result := make([]LeadOutput, len(leads))
	for i := range leads {
		result[i] = leadToOutput(&leads[i])
	}
	return nil, ListLeadsOutput{Leads: result}, nil
}

type ConvertLeadInput struct {
	ID                    string `json:"id" jsonschema:"Lead UUID; the lead must be won (required)"`
	Version               string `json:"version" jsonschema:"Version token from the last read (required)"`
	EngagementTitle       string `json:"engagement_title,omitempty" jsonschema:"Title for the first engagement (defaults to '<name> engagement')"`
	EngagementDescription string `json:"engagement_description,omitempty" jsonschema:"Description for the first engagement"`
	EngagementValue       *int64 `json:"engagement_value,omitempty" jsonschema:"Engagement value in minor units (defaults to the lead estimate)"`
	StartDate             string `json:"start_date,omitempty" jsonschema:"Engagement start date, YYYY-MM-DD"`
	DueDate               string `json:"due_date,omitempty" jsonschema:"Engagement due date, YYYY-MM-DD"`
}

type ConvertLeadOutput struct {
	Lead       LeadOutput       `json:"lead"`
	Client     ClientOutput     `json:"client"`
	Engagement EngagementOutput `json:"engagement"`
}

func (h *LeadHandlers) ConvertLead(ctx context.Context, request *mcp.CallToolRequest, input ConvertLeadInput) (*mcp.CallToolResult, ConvertLeadOutput, error) {
	id, err := parseID("id", input.ID)
	if err != nil {
		return nil, ConvertLeadOutput{}, err
	}

	overrides := &engine.EngagementOverrides{Value: input.EngagementValue}
	if input.EngagementTitle != "" {
		overrides.Title = &input.EngagementTitle
	}
	if input.EngagementDescription != "" {
		overrides.Description = &input.EngagementDescription
	}
	if overrides.StartDate, err = parseDate("start_date", input.StartDate); err != nil {
		return nil, ConvertLeadOutput{}, err
	}
	if overrides.DueDate, err = parseDate("due_date", input.DueDate); err != nil {
		return nil, ConvertLeadOutput{}, err
	}

	result, err := h.engine.Convert(ctx, id, input.Version, overrides)
	if err != nil {
		return nil, ConvertLeadOutput{}, toolError(err)
	}

	return nil, ConvertLeadOutput{
		Lead:       leadToOutput(result.Lead),
		Client:     clientToOutput(result.Client),
		Engagement: engagementToOutput(result.Engagement),
	}, nil
}
