// ABOUTME: Tests for lead database operations
// ABOUTME: Covers creation, listing filters, and version-guarded updates
package db

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/studiocrm/models"
)

func newTestLead(name string) *models.Lead {
	return &models.Lead{
		Name:     name,
		Email:    "lead@example.com",
		Status:   models.LeadStatusNew,
		Priority: models.PriorityMedium,
	}
}

func TestCreateLead(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	lead := newTestLead("Dana Levi")
	lead.Company = "Levi Studio"
	lead.EstimatedValue = 250000

	if err := store.CreateLead(ctx, lead); err != nil {
		t.Fatalf("CreateLead failed: %v", err)
	}

	if lead.ID == uuid.Nil {
		t.Error("Lead ID was not set")
	}
	if lead.Version == "" {
		t.Error("Version was not set")
	}
	if !lead.CreatedAt.Equal(lead.UpdatedAt) {
		t.Error("CreatedAt and UpdatedAt should match on create")
	}

	got, err := store.GetLead(ctx, lead.ID)
	if err != nil {
		t.Fatalf("GetLead failed: %v", err)
	}
	if got.Name != "Dana Levi" || got.Company != "Levi Studio" || got.EstimatedValue != 250000 {
		t.Errorf("Unexpected lead: %+v", got)
	}
	if got.Version != lead.Version {
		t.Errorf("Version round trip: got %s, want %s", got.Version, lead.Version)
	}
	if got.ConvertedToClientID != nil || got.ArchivedAt != nil {
		t.Error("Optional references should be nil")
	}
}

func TestGetLeadNotFound(t *testing.T) {
	store := setupTestStore(t)

	if _, err := store.GetLead(context.Background(), uuid.New()); err != ErrNotFound {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestListLeadsHidesArchived(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	active := newTestLead("Active Lead")
	archived := newTestLead("Archived Lead")
	archived.Status = models.StatusArchived
	for _, l := range []*models.Lead{active, archived} {
		if err := store.CreateLead(ctx, l); err != nil {
			t.Fatalf("CreateLead failed: %v", err)
		}
	}

	leads, err := store.ListLeads(ctx, ListFilter{})
	if err != nil {
		t.Fatalf("ListLeads failed: %v", err)
	}
	if len(leads) != 1 || leads[0].ID != active.ID {
		t.Errorf("Expected only the active lead, got %d leads", len(leads))
	}

	leads, err = store.ListLeads(ctx, ListFilter{IncludeArchived: true})
	if err != nil {
		t.Fatalf("ListLeads failed: %v", err)
	}
	if len(leads) != 2 {
		t.Errorf("Expected 2 leads with archived included, got %d", len(leads))
	}

	leads, err = store.ListLeads(ctx, ListFilter{Status: models.StatusArchived})
	if err != nil {
		t.Fatalf("ListLeads failed: %v", err)
	}
	if len(leads) != 1 || leads[0].ID != archived.ID {
		t.Error("Explicit archived status filter should return the archived lead")
	}
}

func TestListLeadsSearch(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	a := newTestLead("Noa Cohen")
	a.Company = "Blue Door"
	b := newTestLead("Avi Mizrahi")
	b.Company = "Red Window"
	for _, l := range []*models.Lead{a, b} {
		if err := store.CreateLead(ctx, l); err != nil {
			t.Fatalf("CreateLead failed: %v", err)
		}
	}

	leads, err := store.ListLeads(ctx, ListFilter{Query: "blue"})
	if err != nil {
		t.Fatalf("ListLeads failed: %v", err)
	}
	if len(leads) != 1 || leads[0].ID != a.ID {
		t.Errorf("Expected search to match company, got %d leads", len(leads))
	}
}

func TestUpdateLeadGuardsVersion(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	lead := newTestLead("Guarded Lead")
	if err := store.CreateLead(ctx, lead); err != nil {
		t.Fatalf("CreateLead failed: %v", err)
	}
	original := lead.Version

	lead.Status = models.LeadStatusContacted
	if err := store.UpdateLead(ctx, lead, original); err != nil {
		t.Fatalf("UpdateLead failed: %v", err)
	}
	if lead.Version == original {
		t.Error("Version should change on update")
	}

	stale := *lead
	stale.Status = models.LeadStatusQualified
	if err := store.UpdateLead(ctx, &stale, original); err != ErrVersionMismatch {
		t.Fatalf("Expected ErrVersionMismatch for stale version, got %v", err)
	}

	got, err := store.GetLead(ctx, lead.ID)
	if err != nil {
		t.Fatalf("GetLead failed: %v", err)
	}
	if got.Status != models.LeadStatusContacted {
		t.Errorf("Stale write leaked through: status %s", got.Status)
	}
	if got.Version != lead.Version {
		t.Errorf("Stored version %s, want %s", got.Version, lead.Version)
	}

	missing := newTestLead("Ghost")
	missing.ID = uuid.New()
	if err := store.UpdateLead(ctx, missing, original); err != ErrNotFound {
		t.Errorf("Expected ErrNotFound for missing lead, got %v", err)
	}
}

func TestUpdateLeadConcurrentWritersOnlyOneWins(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	lead := newTestLead("Contended Lead")
	if err := store.CreateLead(ctx, lead); err != nil {
		t.Fatalf("CreateLead failed: %v", err)
	}
	version := lead.Version

	const writers = 8
	var wg sync.WaitGroup
	results := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			attempt := *lead
			attempt.Status = models.LeadStatusContacted
			results <- store.UpdateLead(ctx, &attempt, version)
		}()
	}
	wg.Wait()
	close(results)

	wins, conflicts := 0, 0
	for err := range results {
		switch err {
		case nil:
			wins++
		case ErrVersionMismatch:
			conflicts++
		default:
			t.Errorf("Unexpected error: %v", err)
		}
	}
	if wins != 1 || conflicts != writers-1 {
		t.Errorf("Expected 1 win and %d conflicts, got %d and %d", writers-1, wins, conflicts)
	}
}

func TestUpdateLeadNeverClearsConversion(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	lead := newTestLead("Converted Lead")
	if err := store.CreateLead(ctx, lead); err != nil {
		t.Fatalf("CreateLead failed: %v", err)
	}

	client := &models.Client{Name: "Converted Lead", Status: models.ClientStatusActive, SourceLeadID: &lead.ID}
	if err := store.CreateClient(ctx, client); err != nil {
		t.Fatalf("CreateClient failed: %v", err)
	}

	now := time.Now().UTC()
	lead.ConvertedToClientID = &client.ID
	lead.ConvertedAt = &now
	if err := store.UpdateLead(ctx, lead, lead.Version); err != nil {
		t.Fatalf("UpdateLead failed: %v", err)
	}

	lead.ConvertedToClientID = nil
	lead.ConvertedAt = nil
	if err := store.UpdateLead(ctx, lead, lead.Version); err != nil {
		t.Fatalf("UpdateLead failed: %v", err)
	}

	got, err := store.GetLead(ctx, lead.ID)
	if err != nil {
		t.Fatalf("GetLead failed: %v", err)
	}
	if got.ConvertedToClientID == nil || *got.ConvertedToClientID != client.ID {
		t.Error("Conversion reference was cleared")
	}
	if got.ConvertedAt == nil {
		t.Error("ConvertedAt was cleared")
	}
}
