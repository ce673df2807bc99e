// ABOUTME: Tests for transition graph rendering and the text dashboard
// ABOUTME: Checks node labels, counts, edges, and pipeline value aggregation
package viz

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/harperreed/studiocrm/config"
	"github.com/harperreed/studiocrm/models"
	"github.com/harperreed/studiocrm/workflow"
)

type fakePipeline map[models.EntityType][]models.StatusCount

func (f fakePipeline) Pipeline(_ context.Context, entity models.EntityType) ([]models.StatusCount, error) {
	buckets, ok := f[entity]
	if !ok {
		return nil, errors.New("no pipeline")
	}
	return buckets, nil
}

func TestGenerateTransitionGraph(t *testing.T) {
	gen := NewGraphGenerator(config.DefaultDisplay(), "en")

	dot, err := gen.GenerateTransitionGraph(context.Background(), models.EntityLead, []models.StatusCount{
		{Status: models.LeadStatusNew, Count: 4},
		{Status: models.LeadStatusWon, Count: 1},
	})
	if err != nil {
		t.Fatalf("GenerateTransitionGraph failed: %v", err)
	}

	if !strings.Contains(dot, "digraph") {
		t.Errorf("expected a directed graph, got %s", dot)
	}
	for _, want := range []string{"New", "(4)", "Proposal sent", "(0)"} {
		if !strings.Contains(dot, want) {
			t.Errorf("expected %q in graph, got %s", want, dot)
		}
	}
	if got, want := strings.Count(dot, "->"), len(workflow.Edges(models.EntityLead)); got < want {
		t.Errorf("expected at least %d edges, got %d", want, got)
	}
}

func TestGenerateTransitionGraphHebrewLabels(t *testing.T) {
	gen := NewGraphGenerator(nil, "he")

	dot, err := gen.GenerateTransitionGraph(context.Background(), models.EntityEngagement, nil)
	if err != nil {
		t.Fatalf("GenerateTransitionGraph failed: %v", err)
	}
	if !strings.Contains(dot, "בעבודה") {
		t.Errorf("expected Hebrew label for in_progress")
	}
	if strings.Contains(dot, models.StatusArchived) {
		t.Errorf("engagements have no archived node")
	}
}

func TestGenerateTransitionGraphUnknownEntity(t *testing.T) {
	gen := NewGraphGenerator(nil, "en")
	if _, err := gen.GenerateTransitionGraph(context.Background(), "invoice", nil); err == nil {
		t.Error("expected error for unknown entity type")
	}
}

func TestDashboardStats(t *testing.T) {
	source := fakePipeline{
		models.EntityLead: {
			{Status: models.LeadStatusNew, Count: 2, Value: 500000},
			{Status: models.LeadStatusWon, Count: 1, Value: 300000},
			{Status: models.LeadStatusLost, Count: 1, Value: 900000},
			{Status: models.StatusArchived, Count: 1, Value: 100000},
		},
		models.EntityClient: {
			{Status: models.ClientStatusActive, Count: 3},
		},
		models.EntityEngagement: {
			{Status: models.EngagementStatusInProgress, Count: 1, Value: 200000},
			{Status: models.EngagementStatusCompleted, Count: 1, Value: 700000},
		},
	}

	stats, err := GenerateDashboardStats(context.Background(), source)
	if err != nil {
		t.Fatalf("GenerateDashboardStats failed: %v", err)
	}

	if stats.Totals[models.EntityLead] != 5 {
		t.Errorf("expected 5 leads, got %d", stats.Totals[models.EntityLead])
	}
	if stats.OpenLeadValue != 500000 {
		t.Errorf("expected open value 500000, got %d", stats.OpenLeadValue)
	}
	if stats.WonLeadValue != 300000 {
		t.Errorf("expected won value 300000, got %d", stats.WonLeadValue)
	}
	if stats.ActiveWork != 200000 {
		t.Errorf("expected active work 200000, got %d", stats.ActiveWork)
	}

	out := RenderDashboard(stats, nil, "en")
	for _, want := range []string{"LEAD PIPELINE", "Won", "5 leads  3 clients  2 engagements", "won ₪3K"} {
		if !strings.Contains(out, want) {
			t.Errorf("dashboard missing %q:\n%s", want, out)
		}
	}
}

func TestDashboardStatsPropagatesErrors(t *testing.T) {
	if _, err := GenerateDashboardStats(context.Background(), fakePipeline{}); err == nil {
		t.Error("expected error when a pipeline cannot be loaded")
	}
}

func TestFormatMoney(t *testing.T) {
	cases := map[int64]string{
		0:        "₪0",
		99900:    "₪999",
		120000:   "₪1K",
		12000000: "₪120K",
	}
	for minor, want := range cases {
		if got := FormatMoney(minor); got != want {
			t.Errorf("FormatMoney(%d) = %q, want %q", minor, got, want)
		}
	}
}
