// ABOUTME: Client and engagement MCP tool handlers
// ABOUTME: Implements create_client, add_client_note, and create_engagement tools
package handlers

import (
	"context"

	"github.com/harperreed/studiocrm/engine"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type ClientHandlers struct {
	engine *engine.Engine
}

func NewClientHandlers(eng *engine.Engine) *ClientHandlers {
	return &ClientHandlers{engine: eng}
}

type CreateClientInput struct {
	Name    string `json:"name" jsonschema:"Client name (required)"`
	Email   string `json:"email,omitempty" jsonschema:"Client email address"`
	Phone   string `json:"phone,omitempty" jsonschema:"Client phone number"`
	Company string `json:"company,omitempty" jsonschema:"Client company"`
	Notes   string `json:"notes,omitempty" jsonschema:"Initial notes"`
}

func (h *ClientHandlers) CreateClient(ctx context.Context, request *mcp.CallToolRequest, input CreateClientInput) (*mcp.CallToolResult, ClientOutput, error) {
	client, err := h.engine.CreateClient(ctx, engine.ClientInput{
		Name:    input.Name,
		Email:   input.Email,
		Phone:   input.Phone,
		Company: input.Company,
		Notes:   input.Notes,
	})
	if err != nil {
		return nil, ClientOutput{}, toolError(err)
	}
	return nil, clientToOutput(client), nil
}

type AddClientNoteInput struct {
	ID      string `json:"id" jsonschema:"Client UUID (required)"`
	Version string `json:"version" jsonschema:"Version token from the last read (required)"`
	Note    string `json:"note" jsonschema:"Note text to append (required)"`
}

func (h *ClientHandlers) AddClientNote(ctx context.Context, request *mcp.CallToolRequest, input AddClientNoteInput) (*mcp.CallToolResult, ClientOutput, error) {
	id, err := parseID("id", input.ID)
	if err != nil {
		return nil, ClientOutput{}, err
	}

	client, err := h.engine.AddClientNote(ctx, id, input.Version, input.Note)
	if err != nil {
		return nil, ClientOutput{}, toolError(err)
	}
	return nil, clientToOutput(client), nil
}

type CreateEngagementInput struct {
	ClientID    string `json:"client_id" jsonschema:"Owning client UUID (required)"`
	Title       string `json:"title" jsonschema:"Engagement title (required)"`
	Description string `json:"description,omitempty" jsonschema:"What the engagement covers"`
	Value       int64  `json:"value,omitempty" jsonschema:"Engagement value in minor currency units"`
	StartDate   string `json:"start_date,omitempty" jsonschema:"Start date, YYYY-MM-DD"`
	DueDate     string `json:"due_date,omitempty" jsonschema:"Due date, YYYY-MM-DD"`
}

func (h *ClientHandlers) CreateEngagement(ctx context.Context, request *mcp.CallToolRequest, input CreateEngagementInput) (*mcp.CallToolResult, EngagementOutput, error) {
	clientID, err := parseID("client_id", input.ClientID)
	if err != nil {
		return nil, EngagementOutput{}, err
	}
	start, err := parseDate("start_date", input.StartDate)
	if err != nil {
		return nil, EngagementOutput{}, err
	}
	due, err := parseDate("due_date", input.DueDate)
	if err != nil {
		return nil, EngagementOutput{}, err
	}

	engagement, err := h.engine.CreateEngagement(ctx, engine.EngagementInput{
		ClientID:    clientID,
		Title:       input.Title,
		Description: input.Description,
		Value:       input.Value,
		StartDate:   start,
		DueDate:     due,
	})
	if err != nil {
		return nil, EngagementOutput{}, toolError(err)
	}
	return nil, engagementToOutput(engagement), nil
}
