// ABOUTME: Tests for bulk archive and status change
// ABOUTME: Covers partial success, per-item activities, skipped reasons, and malformed requests
package engine

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/harperreed/studiocrm/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bulkLeads(t *testing.T, eng *Engine, n int) ([]uuid.UUID, map[uuid.UUID]string) {
	t.Helper()
	ids := make([]uuid.UUID, 0, n)
	versions := make(map[uuid.UUID]string, n)
	for i := 0; i < n; i++ {
		lead, err := eng.CreateLead(context.Background(), LeadInput{Name: "Bulk"})
		require.NoError(t, err)
		ids = append(ids, lead.ID)
		versions[lead.ID] = lead.Version
	}
	return ids, versions
}

func TestBulkArchivePartialSuccess(t *testing.T) {
	obs := &recordingObserver{}
	eng, _ := setupEngine(t, WithObserver(obs))
	ctx := context.Background()

	ids, versions := bulkLeads(t, eng, 5)
	versions[ids[1]] = "stale"
	versions[ids[3]] = "stale"

	result, err := eng.Bulk(ctx, BulkRequest{
		EntityType: models.EntityLead,
		Action:     BulkArchive,
		IDs:        ids,
		Versions:   versions,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Affected)
	require.Len(t, result.Skipped, 2)
	assert.Equal(t, ids[1], result.Skipped[0].ID)
	assert.Equal(t, CodeConflict, result.Skipped[0].Code)
	assert.Equal(t, ids[3], result.Skipped[1].ID)
	assert.Equal(t, []int{3, 2}, obs.bulk)

	for i, id := range ids {
		lead, err := eng.GetLead(ctx, id)
		require.NoError(t, err)
		activities, err := eng.ListActivities(ctx, models.EntityLead, id)
		require.NoError(t, err)

		if i == 1 || i == 3 {
			assert.Equal(t, models.LeadStatusNew, lead.Status)
			assert.Len(t, activities, 1)
			continue
		}
		assert.Equal(t, models.StatusArchived, lead.Status)
		assert.Equal(t, models.LeadStatusNew, lead.PreArchiveStatus)
		require.Len(t, activities, 2)
		assert.Equal(t, models.ActivityBulkOperation, activities[0].Type)
		assert.Equal(t, string(BulkArchive), activities[0].Metadata.BulkAction)
	}
}

func TestBulkStatusChangeSkipsIllegalEdges(t *testing.T) {
	eng, store := setupEngine(t)
	ctx := context.Background()

	fresh := leadInStatus(t, eng, store, models.LeadStatusNew)
	won := leadInStatus(t, eng, store, models.LeadStatusWon)
	missing := uuid.New()

	result, err := eng.Bulk(ctx, BulkRequest{
		EntityType:   models.EntityLead,
		Action:       BulkStatusChange,
		IDs:          []uuid.UUID{fresh.ID, won.ID, missing},
		Versions:     map[uuid.UUID]string{fresh.ID: fresh.Version, won.ID: won.Version, missing: "v"},
		TargetStatus: models.LeadStatusContacted,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Affected)
	require.Len(t, result.Skipped, 2)
	assert.Equal(t, CodeInvalidTransition, result.Skipped[0].Code)
	assert.Equal(t, CodeNotFound, result.Skipped[1].Code)

	activities, err := eng.ListActivities(ctx, models.EntityLead, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ActivityBulkOperation, activities[0].Type)
	assert.Equal(t, models.LeadStatusNew, activities[0].Metadata.PreviousStatus)
	assert.Equal(t, models.LeadStatusContacted, activities[0].Metadata.NewStatus)
}

func TestBulkMissingVersionIsConflict(t *testing.T) {
	eng, _ := setupEngine(t)

	ids, _ := bulkLeads(t, eng, 2)
	result, err := eng.Bulk(context.Background(), BulkRequest{
		EntityType: models.EntityLead,
		Action:     BulkArchive,
		IDs:        ids,
	})
	require.NoError(t, err)
	assert.Zero(t, result.Affected)
	require.Len(t, result.Skipped, 2)
	assert.Equal(t, CodeConflict, result.Skipped[0].Code)
}

func TestBulkMalformedRequests(t *testing.T) {
	eng, _ := setupEngine(t)
	ctx := context.Background()
	ids, versions := bulkLeads(t, eng, 1)

	tests := []struct {
		name  string
		req   BulkRequest
		field string
	}{
		{"unknown action", BulkRequest{EntityType: models.EntityLead, Action: "delete", IDs: ids, Versions: versions}, "action"},
		{"empty ids", BulkRequest{EntityType: models.EntityLead, Action: BulkArchive}, "ids"},
		{"missing target", BulkRequest{EntityType: models.EntityLead, Action: BulkStatusChange, IDs: ids, Versions: versions}, "targetStatus"},
		{"unknown target", BulkRequest{EntityType: models.EntityLead, Action: BulkStatusChange, IDs: ids, Versions: versions, TargetStatus: "done"}, "targetStatus"},
		{"archived target", BulkRequest{EntityType: models.EntityLead, Action: BulkStatusChange, IDs: ids, Versions: versions, TargetStatus: models.StatusArchived}, "targetStatus"},
		{"engagement archive", BulkRequest{EntityType: models.EntityEngagement, Action: BulkArchive, IDs: ids, Versions: versions}, "action"},
		{"unknown entity", BulkRequest{EntityType: "widget", Action: BulkArchive, IDs: ids, Versions: versions}, "entityType"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := eng.Bulk(ctx, tt.req)
			assert.Contains(t, fieldErrorsOf(t, err), tt.field)
			assert.Zero(t, result.Affected)
		})
	}

	lead, err := eng.GetLead(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, models.LeadStatusNew, lead.Status)
}
