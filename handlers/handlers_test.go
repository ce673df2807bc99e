// ABOUTME: Tests for the MCP tool, resource and prompt handlers
// ABOUTME: Exercises each tool against a real SQLite engine and checks error envelopes
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/harperreed/studiocrm/db"
	"github.com/harperreed/studiocrm/engine"
	"github.com/harperreed/studiocrm/models"
	"github.com/harperreed/studiocrm/viz"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func setupTestEngine(t *testing.T) *engine.Engine {
	t.Helper()
	database, err := db.OpenDatabase(filepath.Join(t.TempDir(), "handlers.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	store := db.NewStore(database, db.DialectSQLite)
	t.Cleanup(func() { _ = store.Close() })
	return engine.New(store)
}

func requireCode(t *testing.T, err error, want engine.Code) {
	t.Helper()
	var te *ToolError
	if !errors.As(err, &te) {
		t.Fatalf("expected ToolError with %s, got %v", want, err)
	}
	if te.Envelope.Code != want {
		t.Fatalf("expected code %s, got %s (%s)", want, te.Envelope.Code, te.Envelope.Message)
	}
}

func createLead(t *testing.T, h *LeadHandlers, name string) LeadOutput {
	t.Helper()
	_, lead, err := h.CreateLead(context.Background(), nil, CreateLeadInput{Name: name, Email: "lead@example.com", EstimatedValue: 80000})
	if err != nil {
		t.Fatalf("CreateLead failed: %v", err)
	}
	return lead
}

// advance walks a lead along the happy path up to won.
func advance(t *testing.T, h *LifecycleHandlers, lead LeadOutput) string {
	t.Helper()
	version := lead.Version
	for _, status := range []string{models.LeadStatusContacted, models.LeadStatusQualified, models.LeadStatusProposalSent, models.LeadStatusWon} {
		_, out, err := h.TransitionEntity(context.Background(), nil, TransitionInput{
			EntityType: "lead", ID: lead.ID, TargetStatus: status, Version: version,
		})
		if err != nil {
			t.Fatalf("transition to %s failed: %v", status, err)
		}
		version = out.Lead.Version
	}
	return version
}

func TestCreateLeadHandler(t *testing.T) {
	h := NewLeadHandlers(setupTestEngine(t))

	lead := createLead(t, h, "Ronit Alon")
	if lead.Status != models.LeadStatusNew {
		t.Errorf("expected status new, got %s", lead.Status)
	}
	if lead.Priority != models.PriorityMedium {
		t.Errorf("expected default priority medium, got %s", lead.Priority)
	}
	if lead.Version == "" || lead.ID == "" {
		t.Error("expected id and version to be set")
	}

	_, _, err := h.CreateLead(context.Background(), nil, CreateLeadInput{Name: " "})
	requireCode(t, err, engine.CodeValidation)
}

func TestUpdateLeadHandlerConflict(t *testing.T) {
	h := NewLeadHandlers(setupTestEngine(t))
	lead := createLead(t, h, "Ronit Alon")

	newName := "Ronit Alon-Peretz"
	_, updated, err := h.UpdateLead(context.Background(), nil, UpdateLeadInput{ID: lead.ID, Version: lead.Version, Name: &newName})
	if err != nil {
		t.Fatalf("UpdateLead failed: %v", err)
	}
	if updated.Name != newName {
		t.Errorf("expected name %q, got %q", newName, updated.Name)
	}

	_, _, err = h.UpdateLead(context.Background(), nil, UpdateLeadInput{ID: lead.ID, Version: lead.Version, Name: &newName})
	requireCode(t, err, engine.CodeConflict)

	_, _, err = h.UpdateLead(context.Background(), nil, UpdateLeadInput{ID: "nope", Version: lead.Version})
	requireCode(t, err, engine.CodeValidation)
}

func TestListLeadsHandler(t *testing.T) {
	eng := setupTestEngine(t)
	h := NewLeadHandlers(eng)
	lc := NewLifecycleHandlers(eng)

	createLead(t, h, "Alpha Studio")
	archived := createLead(t, h, "Beta Studio")
	if _, _, err := lc.ArchiveEntity(context.Background(), nil, ArchiveInput{EntityType: "lead", ID: archived.ID, Version: archived.Version}); err != nil {
		t.Fatalf("ArchiveEntity failed: %v", err)
	}

	_, out, err := h.ListLeads(context.Background(), nil, ListLeadsInput{})
	if err != nil {
		t.Fatalf("ListLeads failed: %v", err)
	}
	if len(out.Leads) != 1 {
		t.Fatalf("expected 1 visible lead, got %d", len(out.Leads))
	}

	_, out, err = h.ListLeads(context.Background(), nil, ListLeadsInput{IncludeArchived: true})
	if err != nil {
		t.Fatalf("ListLeads failed: %v", err)
	}
	if len(out.Leads) != 2 {
		t.Errorf("expected 2 leads including archived, got %d", len(out.Leads))
	}
}

func TestTransitionHandler(t *testing.T) {
	eng := setupTestEngine(t)
	lead := createLead(t, NewLeadHandlers(eng), "Gal Mizrahi")
	h := NewLifecycleHandlers(eng)

	_, out, err := h.TransitionEntity(context.Background(), nil, TransitionInput{
		EntityType: "lead", ID: lead.ID, TargetStatus: models.LeadStatusContacted, Version: lead.Version,
	})
	if err != nil {
		t.Fatalf("TransitionEntity failed: %v", err)
	}
	if out.EntityType != "lead" || out.Lead == nil || out.Lead.Status != models.LeadStatusContacted {
		t.Fatalf("unexpected transition output: %+v", out)
	}
	if strings.Join(out.AllowedNext, ",") != "lost,qualified" {
		t.Errorf("unexpected allowed next: %v", out.AllowedNext)
	}

	_, _, err = h.TransitionEntity(context.Background(), nil, TransitionInput{
		EntityType: "lead", ID: lead.ID, TargetStatus: models.LeadStatusWon, Version: out.Lead.Version,
	})
	requireCode(t, err, engine.CodeInvalidTransition)

	_, _, err = h.TransitionEntity(context.Background(), nil, TransitionInput{EntityType: "invoice", ID: lead.ID})
	requireCode(t, err, engine.CodeValidation)
}

func TestArchiveRestoreHandlers(t *testing.T) {
	eng := setupTestEngine(t)
	ch := NewClientHandlers(eng)
	h := NewLifecycleHandlers(eng)

	_, client, err := ch.CreateClient(context.Background(), nil, CreateClientInput{Name: "Studio Kedem"})
	if err != nil {
		t.Fatalf("CreateClient failed: %v", err)
	}

	_, archived, err := h.ArchiveEntity(context.Background(), nil, ArchiveInput{EntityType: "client", ID: client.ID, Version: client.Version})
	if err != nil {
		t.Fatalf("ArchiveEntity failed: %v", err)
	}
	if archived.Client.Status != models.StatusArchived || archived.Client.ArchivedAt == nil {
		t.Fatalf("expected archived client, got %+v", archived.Client)
	}

	_, restored, err := h.RestoreEntity(context.Background(), nil, ArchiveInput{EntityType: "client", ID: client.ID, Version: archived.Client.Version})
	if err != nil {
		t.Fatalf("RestoreEntity failed: %v", err)
	}
	if restored.Client.Status != models.ClientStatusActive {
		t.Errorf("expected restore to active, got %s", restored.Client.Status)
	}

	_, _, err = h.RestoreEntity(context.Background(), nil, ArchiveInput{EntityType: "client", ID: client.ID, Version: restored.Client.Version})
	requireCode(t, err, engine.CodeInvalidState)
}

func TestBulkApplyHandler(t *testing.T) {
	eng := setupTestEngine(t)
	lh := NewLeadHandlers(eng)
	h := NewLifecycleHandlers(eng)

	first := createLead(t, lh, "First")
	second := createLead(t, lh, "Second")
	missing := uuid.NewString()

	_, out, err := h.BulkApply(context.Background(), nil, BulkApplyInput{
		EntityType:   "lead",
		Action:       "status_change",
		TargetStatus: models.LeadStatusContacted,
		Items: []BulkItemInput{
			{ID: first.ID, Version: first.Version},
			{ID: second.ID},
			{ID: missing, Version: first.Version},
		},
	})
	if err != nil {
		t.Fatalf("BulkApply failed: %v", err)
	}
	if out.Affected != 1 {
		t.Errorf("expected 1 affected, got %d", out.Affected)
	}
	if len(out.Skipped) != 2 {
		t.Fatalf("expected 2 skipped, got %d", len(out.Skipped))
	}
	if out.Skipped[0].ID != second.ID || out.Skipped[0].Code != string(engine.CodeConflict) {
		t.Errorf("expected missing version to be a conflict, got %+v", out.Skipped[0])
	}
	if out.Skipped[1].ID != missing || out.Skipped[1].Code != string(engine.CodeNotFound) {
		t.Errorf("expected unknown id to be not found, got %+v", out.Skipped[1])
	}

	_, _, err = h.BulkApply(context.Background(), nil, BulkApplyInput{EntityType: "lead", Action: "archive"})
	requireCode(t, err, engine.CodeValidation)
}

func TestConvertLeadHandler(t *testing.T) {
	eng := setupTestEngine(t)
	lead := createLead(t, NewLeadHandlers(eng), "Shira Golan")
	lc := NewLifecycleHandlers(eng)
	h := NewLeadHandlers(eng)

	_, _, err := h.ConvertLead(context.Background(), nil, ConvertLeadInput{ID: lead.ID, Version: lead.Version})
	requireCode(t, err, engine.CodeInvalidState)

	version := advance(t, lc, lead)

	_, out, err := h.ConvertLead(context.Background(), nil, ConvertLeadInput{
		ID: lead.ID, Version: version, EngagementTitle: "Identity system", DueDate: "2026-12-01",
	})
	if err != nil {
		t.Fatalf("ConvertLead failed: %v", err)
	}
	if out.Engagement.Title != "Identity system" {
		t.Errorf("expected override title, got %q", out.Engagement.Title)
	}
	if out.Engagement.ClientID != out.Client.ID {
		t.Error("engagement must belong to the new client")
	}
	if out.Engagement.Value != 80000 {
		t.Errorf("expected engagement value from lead, got %d", out.Engagement.Value)
	}
	if out.Lead.ConvertedTo == nil || *out.Lead.ConvertedTo != out.Client.ID {
		t.Error("lead must point at the new client")
	}

	_, _, err = h.ConvertLead(context.Background(), nil, ConvertLeadInput{ID: lead.ID, Version: out.Lead.Version})
	requireCode(t, err, engine.CodeAlreadyConverted)

	_, _, err = h.ConvertLead(context.Background(), nil, ConvertLeadInput{ID: lead.ID, Version: out.Lead.Version, DueDate: "soon"})
	requireCode(t, err, engine.CodeValidation)
}

func TestCreateEngagementAndNotes(t *testing.T) {
	eng := setupTestEngine(t)
	h := NewClientHandlers(eng)

	_, client, err := h.CreateClient(context.Background(), nil, CreateClientInput{Name: "Studio Kedem"})
	if err != nil {
		t.Fatalf("CreateClient failed: %v", err)
	}

	_, engagement, err := h.CreateEngagement(context.Background(), nil, CreateEngagementInput{
		ClientID: client.ID, Title: "Packaging", StartDate: "2026-11-01", DueDate: "2026-12-15",
	})
	if err != nil {
		t.Fatalf("CreateEngagement failed: %v", err)
	}
	if engagement.Status != models.EngagementStatusNew {
		t.Errorf("expected status new, got %s", engagement.Status)
	}

	_, _, err = h.CreateEngagement(context.Background(), nil, CreateEngagementInput{
		ClientID: client.ID, Title: "Backwards", StartDate: "2026-12-15", DueDate: "2026-11-01",
	})
	requireCode(t, err, engine.CodeValidation)

	_, noted, err := h.AddClientNote(context.Background(), nil, AddClientNoteInput{ID: client.ID, Version: client.Version, Note: "Prefers email"})
	if err != nil {
		t.Fatalf("AddClientNote failed: %v", err)
	}
	if !strings.Contains(noted.Notes, "Prefers email") {
		t.Errorf("expected note in client notes, got %q", noted.Notes)
	}
}

func TestListActivitiesHandler(t *testing.T) {
	eng := setupTestEngine(t)
	lead := createLead(t, NewLeadHandlers(eng), "Timeline Test")
	h := NewLifecycleHandlers(eng)
	advance(t, h, lead)

	_, out, err := h.ListActivities(context.Background(), nil, ListActivitiesInput{EntityType: "lead", ID: lead.ID})
	if err != nil {
		t.Fatalf("ListActivities failed: %v", err)
	}
	if len(out.Activities) != 5 {
		t.Fatalf("expected 5 activities, got %d", len(out.Activities))
	}
	if out.Activities[0].NewStatus != models.LeadStatusWon {
		t.Errorf("expected newest activity first, got %+v", out.Activities[0])
	}
	if out.Activities[4].Type != string(models.ActivityLeadCreated) {
		t.Errorf("expected creation last, got %s", out.Activities[4].Type)
	}

	_, _, err = h.ListActivities(context.Background(), nil, ListActivitiesInput{EntityType: "lead", ID: uuid.NewString()})
	requireCode(t, err, engine.CodeNotFound)
}

func TestGenerateGraphHandler(t *testing.T) {
	eng := setupTestEngine(t)
	createLead(t, NewLeadHandlers(eng), "Graph Lead")
	h := NewVizHandlers(eng, viz.NewGraphGenerator(nil, "en"))

	_, out, err := h.GenerateGraph(context.Background(), nil, GenerateGraphInput{EntityType: "lead"})
	if err != nil {
		t.Fatalf("GenerateGraph failed: %v", err)
	}
	if out.NodeCount != 7 {
		t.Errorf("expected 7 lead statuses, got %d", out.NodeCount)
	}
	if !strings.Contains(out.DOTSource, "(1)") {
		t.Error("expected the new lead to be counted")
	}
}

func TestReadResources(t *testing.T) {
	eng := setupTestEngine(t)
	lead := createLead(t, NewLeadHandlers(eng), "Resource Lead")
	h := NewResourceHandlers(eng)

	read := func(uri string) string {
		t.Helper()
		result, err := h.ReadResource(context.Background(), &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: uri}})
		if err != nil {
			t.Fatalf("ReadResource(%s) failed: %v", uri, err)
		}
		return result.Contents[0].Text
	}

	var leads []LeadOutput
	if err := json.Unmarshal([]byte(read("crm://leads")), &leads); err != nil || len(leads) != 1 {
		t.Fatalf("expected one lead, got %v (%v)", leads, err)
	}

	if !strings.Contains(read("crm://leads/"+lead.ID), `"lead_created"`) {
		t.Error("expected single lead resource to include its timeline")
	}
	if !strings.Contains(read("crm://pipeline"), `"engagement"`) {
		t.Error("expected pipeline for every entity type")
	}

	_, err := h.ReadResource(context.Background(), &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: "crm://invoices"}})
	if err == nil {
		t.Error("expected error for unknown resource")
	}
}

func TestPrompts(t *testing.T) {
	eng := setupTestEngine(t)
	lead := createLead(t, NewLeadHandlers(eng), "Prompt Lead")
	h := NewPromptHandlers(eng, nil)

	result, err := h.GetPrompt(context.Background(), &mcp.GetPromptRequest{Params: &mcp.GetPromptParams{
		Name: "lead-summary", Arguments: map[string]string{"lead_id": lead.ID},
	}})
	if err != nil {
		t.Fatalf("lead-summary failed: %v", err)
	}
	text := result.Messages[0].Content.(*mcp.TextContent).Text
	if !strings.Contains(text, "Prompt Lead") || !strings.Contains(text, "Allowed next statuses: contacted, lost") {
		t.Errorf("unexpected lead summary:\n%s", text)
	}

	result, err = h.GetPrompt(context.Background(), &mcp.GetPromptRequest{Params: &mcp.GetPromptParams{Name: "pipeline-review"}})
	if err != nil {
		t.Fatalf("pipeline-review failed: %v", err)
	}
	if !strings.Contains(result.Messages[0].Content.(*mcp.TextContent).Text, "LEAD PIPELINE") {
		t.Error("expected dashboard in pipeline review")
	}

	if _, err := h.GetPrompt(context.Background(), &mcp.GetPromptRequest{Params: &mcp.GetPromptParams{Name: "nope"}}); err == nil {
		t.Error("expected error for unknown prompt")
	}
}
