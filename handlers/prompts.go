// ABOUTME: MCP prompt handlers for reusable CRM workflow templates
// ABOUTME: Provides lead-summary and pipeline-review prompts built from live engine data
package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/harperreed/studiocrm/config"
	"github.com/harperreed/studiocrm/engine"
	"github.com/harperreed/studiocrm/models"
	"github.com/harperreed/studiocrm/viz"
	"github.com/harperreed/studiocrm/workflow"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type PromptHandlers struct {
	engine  *engine.Engine
	display *config.Display
}

func NewPromptHandlers(eng *engine.Engine, display *config.Display) *PromptHandlers {
	if display == nil {
		display = config.DefaultDisplay()
	}
	return &PromptHandlers{engine: eng, display: display}
}

// GetPrompt generates the prompt message based on the template
func (h *PromptHandlers) GetPrompt(ctx context.Context, request *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	switch request.Params.Name {
	case "lead-summary":
		return h.getLeadSummaryPrompt(ctx, request.Params.Arguments)
	case "pipeline-review":
		return h.getPipelineReviewPrompt(ctx)
	default:
		return nil, fmt.Errorf("unknown prompt: %s", request.Params.Name)
	}
}

func (h *PromptHandlers) getLeadSummaryPrompt(ctx context.Context, args map[string]string) (*mcp.GetPromptResult, error) {
	idStr, ok := args["lead_id"]
	if !ok {
		return nil, fmt.Errorf("lead_id is required")
	}
	id, err := parseID("lead_id", idStr)
	if err != nil {
		return nil, err
	}

	lead, err := h.engine.GetLead(ctx, id)
	if err != nil {
		return nil, toolError(err)
	}
	activities, err := h.engine.ListActivities(ctx, models.EntityLead, id)
	if err != nil {
		return nil, toolError(err)
	}

	var promptText strings.Builder
	promptText.WriteString("Please summarize this lead and suggest the next step:\n\n")
	promptText.WriteString(fmt.Sprintf("Name: %s\n", lead.Name))
	if lead.Company != "" {
		promptText.WriteString(fmt.Sprintf("Company: %s\n", lead.Company))
	}
	promptText.WriteString(fmt.Sprintf("Status: %s\n", h.display.Label(models.EntityLead, lead.Status, "en")))
	promptText.WriteString(fmt.Sprintf("Priority: %s\n", lead.Priority))
	promptText.WriteString(fmt.Sprintf("Estimated value: %s\n", viz.FormatMoney(lead.EstimatedValue)))
	if lead.Message != "" {
		promptText.WriteString(fmt.Sprintf("\nInquiry: %s\n", lead.Message))
	}
	if next := workflow.Allowed(models.EntityLead, lead.Status); len(next) > 0 {
		promptText.WriteString(fmt.Sprintf("\nAllowed next statuses: %s\n", strings.Join(next, ", ")))
	}
	if lead.IsConverted() {
		promptText.WriteString(fmt.Sprintf("\nAlready converted to client %s\n", lead.ConvertedToClientID))
	}

	if len(activities) > 0 {
		promptText.WriteString("\nTimeline (newest first):\n")
		for _, a := range activities {
			promptText.WriteString(fmt.Sprintf("  - %s %s by %s: %s\n",
				a.CreatedAt.Format("2006-01-02"), a.Type, a.PerformedBy, a.Description))
		}
	}

	promptText.WriteString("\nPlease provide:")
	promptText.WriteString("\n1. A short summary of where this lead stands")
	promptText.WriteString("\n2. The single most useful next action")

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Summary for lead: %s", lead.Name),
		Messages: []*mcp.PromptMessage{
			{
				Role:    "user",
				Content: &mcp.TextContent{Text: promptText.String()},
			},
		},
	}, nil
}

func (h *PromptHandlers) getPipelineReviewPrompt(ctx context.Context) (*mcp.GetPromptResult, error) {
	stats, err := viz.GenerateDashboardStats(ctx, h.engine)
	if err != nil {
		return nil, toolError(err)
	}

	var promptText strings.Builder
	promptText.WriteString("Please review the current studio pipeline:\n\n")
	promptText.WriteString(viz.RenderDashboard(stats, h.display, "en"))
	promptText.WriteString("\nPlease provide:")
	promptText.WriteString("\n1. Where work is piling up")
	promptText.WriteString("\n2. Leads that look ready to move forward")

	return &mcp.GetPromptResult{
		Description: "Pipeline review",
		Messages: []*mcp.PromptMessage{
			{
				Role:    "user",
				Content: &mcp.TextContent{Text: promptText.String()},
			},
		},
	}, nil
}
