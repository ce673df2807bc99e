// ABOUTME: MCP server subcommand
// ABOUTME: Registers lifecycle tools, record resources and prompts, then serves them on stdio
package cli

import (
	"context"
	"log"

	"github.com/harperreed/studiocrm/config"
	"github.com/harperreed/studiocrm/engine"
	"github.com/harperreed/studiocrm/handlers"
	"github.com/harperreed/studiocrm/viz"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// NewMCPServer builds the MCP server with every tool, resource and prompt registered.
func NewMCPServer(eng *engine.Engine, display *config.Display) *mcp.Server {
	if display == nil {
		display = config.DefaultDisplay()
	}

	leadHandlers := handlers.NewLeadHandlers(eng)
	clientHandlers := handlers.NewClientHandlers(eng)
	lifecycleHandlers := handlers.NewLifecycleHandlers(eng)
	vizHandlers := handlers.NewVizHandlers(eng, viz.NewGraphGenerator(display, "en"))
	resourceHandlers := handlers.NewResourceHandlers(eng)
	promptHandlers := handlers.NewPromptHandlers(eng, display)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "studiocrm",
		Version: "0.1.0",
	}, nil)

	// Leads
	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_lead",
		Description: "Create a new lead in status 'new'",
	}, leadHandlers.CreateLead)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_lead",
		Description: "Update lead fields other than status. Requires the current version token",
	}, leadHandlers.UpdateLead)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_leads",
		Description: "List leads with optional status and text filters. Archived leads are hidden unless requested",
	}, leadHandlers.ListLeads)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "convert_lead",
		Description: "Convert a won lead into a client plus a first engagement in one atomic step",
	}, leadHandlers.ConvertLead)

	// Clients and engagements
	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_client",
		Description: "Create a client directly, without a source lead",
	}, clientHandlers.CreateClient)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_client_note",
		Description: "Append a timestamped note to a client. Requires the current version token",
	}, clientHandlers.AddClientNote)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_engagement",
		Description: "Create an engagement for an existing client",
	}, clientHandlers.CreateEngagement)

	// Lifecycle
	mcp.AddTool(server, &mcp.Tool{
		Name:        "transition_entity",
		Description: "Move a lead, client or engagement to a new status along its allowed transitions",
	}, lifecycleHandlers.TransitionEntity)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "archive_entity",
		Description: "Archive a lead or client, remembering its status for restore",
	}, lifecycleHandlers.ArchiveEntity)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "restore_entity",
		Description: "Restore an archived lead or client to the status it had before archiving",
	}, lifecycleHandlers.RestoreEntity)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "bulk_apply",
		Description: "Archive or change status of many records at once, reporting skipped items per record",
	}, lifecycleHandlers.BulkApply)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_activities",
		Description: "Show the audit timeline of a record, newest first",
	}, lifecycleHandlers.ListActivities)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate_graph",
		Description: "Generate a GraphViz DOT diagram of an entity's status graph with current counts",
	}, vizHandlers.GenerateGraph)

	// Resources
	for _, r := range []struct{ uri, name string }{
		{"crm://leads", "All leads"},
		{"crm://clients", "All clients"},
		{"crm://engagements", "All engagements"},
		{"crm://pipeline", "Pipeline counts per status"},
	} {
		server.AddResource(&mcp.Resource{
			URI:      r.uri,
			Name:     r.name,
			MIMEType: "application/json",
		}, resourceHandlers.ReadResource)
	}
	for _, t := range []struct{ uri, name string }{
		{"crm://leads/{id}", "Lead with timeline"},
		{"crm://clients/{id}", "Client with timeline"},
		{"crm://engagements/{id}", "Engagement with timeline"},
	} {
		server.AddResourceTemplate(&mcp.ResourceTemplate{
			URITemplate: t.uri,
			Name:        t.name,
			MIMEType:    "application/json",
		}, resourceHandlers.ReadResource)
	}

	// Prompts
	server.AddPrompt(&mcp.Prompt{
		Name:        "lead-summary",
		Description: "Summarize a lead with its allowed next steps and timeline",
		Arguments: []*mcp.PromptArgument{
			{Name: "lead_id", Description: "Lead ID", Required: true},
		},
	}, promptHandlers.GetPrompt)

	server.AddPrompt(&mcp.Prompt{
		Name:        "pipeline-review",
		Description: "Review the pipelines of every entity type",
	}, promptHandlers.GetPrompt)

	return server
}

// MCPCommand starts the MCP server on stdio.
func MCPCommand(ctx context.Context, eng *engine.Engine, display *config.Display) error {
	log.Println("Starting studiocrm MCP server...")
	return NewMCPServer(eng, display).Run(ctx, &mcp.StdioTransport{})
}
