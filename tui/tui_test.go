// ABOUTME: Tests for the TUI board
// ABOUTME: Drives the model with key messages against a temporary SQLite engine
package tui

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/harperreed/studiocrm/db"
	"github.com/harperreed/studiocrm/engine"
	"github.com/harperreed/studiocrm/models"
)

func setupTestEngine(t *testing.T) *engine.Engine {
	t.Helper()
	database, err := db.OpenDatabase(filepath.Join(t.TempDir(), "tui.db"))
	if err != nil {
		t.Fatalf("Failed to open test db: %v", err)
	}
	store := db.NewStore(database, db.DialectSQLite)
	t.Cleanup(func() { _ = store.Close() })
	return engine.New(store)
}

func press(t *testing.T, m Model, keys ...tea.KeyMsg) Model {
	t.Helper()
	for _, k := range keys {
		next, _ := m.Update(k)
		m = next.(Model)
	}
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	esc   = tea.KeyMsg{Type: tea.KeyEsc}
	tab   = tea.KeyMsg{Type: tea.KeyTab}
)

func TestListViewShowsLeads(t *testing.T) {
	eng := setupTestEngine(t)
	if _, err := eng.CreateLead(context.Background(), engine.LeadInput{Name: "Maya Cohen", Company: "Cohen Design"}); err != nil {
		t.Fatal(err)
	}

	m := NewModel(eng, nil)
	output := m.View()
	if !strings.Contains(output, "STUDIO CRM") {
		t.Error("list view should contain title")
	}
	if !strings.Contains(output, "Maya Cohen") {
		t.Errorf("list view should contain the lead, got:\n%s", output)
	}
}

func TestTabCyclesEntities(t *testing.T) {
	m := NewModel(setupTestEngine(t), nil)

	m = press(t, m, tab)
	if m.entity != models.EntityClient {
		t.Errorf("expected clients tab, got %s", m.entity)
	}
	m = press(t, m, tab, tab)
	if m.entity != models.EntityLead {
		t.Errorf("expected wrap back to leads, got %s", m.entity)
	}
}

func TestDetailTransitionByNumber(t *testing.T) {
	eng := setupTestEngine(t)
	ctx := context.Background()
	lead, err := eng.CreateLead(ctx, engine.LeadInput{Name: "Yael"})
	if err != nil {
		t.Fatal(err)
	}

	m := press(t, NewModel(eng, nil), enter)
	if m.viewMode != ViewDetail {
		t.Fatalf("expected detail view, got %v", m.viewMode)
	}
	if !strings.Contains(m.View(), "TIMELINE") {
		t.Error("detail view should show the timeline")
	}

	// Allowed targets from new are sorted: contacted, lost.
	m = press(t, m, runes("1"))
	stored, err := eng.GetLead(ctx, lead.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Status != models.LeadStatusContacted {
		t.Fatalf("expected contacted, got %s", stored.Status)
	}
	if m.detail.Version != stored.Version {
		t.Error("detail should hold the fresh version after a transition")
	}
	if len(m.activities) != 2 {
		t.Errorf("expected 2 activities, got %d", len(m.activities))
	}

	// Out of range numbers are ignored.
	m = press(t, m, runes("9"))
	if m.message != "Moved to Contacted" {
		t.Errorf("unexpected message %q", m.message)
	}
}

func TestArchiveConfirmAndRestore(t *testing.T) {
	eng := setupTestEngine(t)
	ctx := context.Background()
	lead, err := eng.CreateLead(ctx, engine.LeadInput{Name: "Archive Target"})
	if err != nil {
		t.Fatal(err)
	}

	m := press(t, NewModel(eng, nil), enter, runes("a"))
	if m.viewMode != ViewConfirmArchive {
		t.Fatalf("expected confirm view, got %v", m.viewMode)
	}
	if !strings.Contains(m.View(), "ARCHIVE CONFIRMATION") {
		t.Error("confirm view should contain its title")
	}

	m = press(t, m, runes("y"))
	stored, _ := eng.GetLead(ctx, lead.ID)
	if stored.Status != models.StatusArchived {
		t.Fatalf("expected archived, got %s", stored.Status)
	}

	m = press(t, m, runes("r"))
	stored, _ = eng.GetLead(ctx, lead.ID)
	if stored.Status != models.LeadStatusNew {
		t.Fatalf("expected restore to new, got %s", stored.Status)
	}

	m = press(t, m, esc)
	if m.viewMode != ViewList || len(m.rows) != 1 {
		t.Errorf("expected list with restored lead, got mode %v rows %d", m.viewMode, len(m.rows))
	}
}

func TestArchiveCancel(t *testing.T) {
	eng := setupTestEngine(t)
	if _, err := eng.CreateLead(context.Background(), engine.LeadInput{Name: "Keep"}); err != nil {
		t.Fatal(err)
	}

	m := press(t, NewModel(eng, nil), enter, runes("a"), esc)
	if m.viewMode != ViewDetail {
		t.Errorf("expected back to detail, got %v", m.viewMode)
	}
	if m.detail.Status != models.LeadStatusNew {
		t.Errorf("expected status unchanged, got %s", m.detail.Status)
	}
}

func TestEngagementsCannotBeArchived(t *testing.T) {
	eng := setupTestEngine(t)
	ctx := context.Background()
	client, err := eng.CreateClient(ctx, engine.ClientInput{Name: "Client"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := eng.CreateEngagement(ctx, engine.EngagementInput{ClientID: client.ID, Title: "Site"}); err != nil {
		t.Fatal(err)
	}

	m := press(t, NewModel(eng, nil), tab, tab, enter, runes("a"))
	if m.viewMode != ViewDetail {
		t.Errorf("archive key should do nothing for engagements, got %v", m.viewMode)
	}
}

func TestGraphView(t *testing.T) {
	m := press(t, NewModel(setupTestEngine(t), nil), runes("g"))
	if m.viewMode != ViewGraph {
		t.Fatalf("expected graph view, got %v", m.viewMode)
	}
	if !strings.Contains(m.graphDOT, "digraph") {
		t.Errorf("expected DOT source, got %q", m.graphDOT)
	}

	m = press(t, m, esc)
	if m.viewMode != ViewList {
		t.Errorf("expected return to list, got %v", m.viewMode)
	}
}

func TestQuit(t *testing.T) {
	m := NewModel(setupTestEngine(t), nil)
	_, cmd := m.Update(runes("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}
