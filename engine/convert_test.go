// ABOUTME: Tests for lead conversion into a client and engagement
// ABOUTME: Covers check ordering, defaults and overrides, idempotency, and rollback on failure
package engine

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/studiocrm/db"
	"github.com/harperreed/studiocrm/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countClients(t *testing.T, store *db.Store) int {
	t.Helper()
	clients, err := store.ListClients(context.Background(), db.ListFilter{IncludeArchived: true})
	require.NoError(t, err)
	return len(clients)
}

func TestConvertWonLead(t *testing.T) {
	eng, store := setupEngine(t)
	ctx := context.Background()

	lead := leadInStatus(t, eng, store, models.LeadStatusWon)

	result, err := eng.Convert(ctx, lead.ID, lead.Version, nil)
	require.NoError(t, err)

	require.NotNil(t, result.Lead.ConvertedToClientID)
	assert.Equal(t, result.Client.ID, *result.Lead.ConvertedToClientID)
	assert.NotNil(t, result.Lead.ConvertedAt)
	assert.Equal(t, models.LeadStatusWon, result.Lead.Status)

	assert.Equal(t, lead.Name, result.Client.Name)
	assert.Equal(t, lead.Email, result.Client.Email)
	assert.Equal(t, models.ClientStatusActive, result.Client.Status)
	require.NotNil(t, result.Client.SourceLeadID)
	assert.Equal(t, lead.ID, *result.Client.SourceLeadID)

	assert.Equal(t, result.Client.ID, result.Engagement.ClientID)
	assert.Equal(t, "Yael Ben-David engagement", result.Engagement.Title)
	assert.Equal(t, int64(120000), result.Engagement.Value)
	assert.Equal(t, models.EngagementStatusNew, result.Engagement.Status)

	stored, err := eng.GetLead(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, result.Lead.Version, stored.Version)
	assert.True(t, stored.IsConverted())

	leadActs, err := eng.ListActivities(ctx, models.EntityLead, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ActivityLeadConverted, leadActs[0].Type)
	assert.Equal(t, result.Client.ID.String(), leadActs[0].Metadata.Details["clientId"])

	clientActs, err := eng.ListActivities(ctx, models.EntityClient, result.Client.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.ActivityType{models.ActivityClientCreated}, activityTypes(clientActs))

	engActs, err := eng.ListActivities(ctx, models.EntityEngagement, result.Engagement.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.ActivityType{models.ActivityEngagementCreated}, activityTypes(engActs))
}

func TestConvertTwiceIsAlreadyConverted(t *testing.T) {
	eng, store := setupEngine(t)
	ctx := context.Background()

	lead := leadInStatus(t, eng, store, models.LeadStatusWon)
	result, err := eng.Convert(ctx, lead.ID, lead.Version, nil)
	require.NoError(t, err)

	_, err = eng.Convert(ctx, lead.ID, result.Lead.Version, nil)
	assert.ErrorIs(t, err, ErrAlreadyConverted)

	_, err = eng.Convert(ctx, lead.ID, lead.Version, nil)
	assert.ErrorIs(t, err, ErrAlreadyConverted, "stale version still reports the idempotency outcome")

	assert.Equal(t, 1, countClients(t, store))
}

func TestConvertStaleVersionCreatesNothing(t *testing.T) {
	eng, store := setupEngine(t)
	ctx := context.Background()

	lead := leadInStatus(t, eng, store, models.LeadStatusWon)

	_, err := eng.Convert(ctx, lead.ID, "stale", nil)
	assert.ErrorIs(t, err, ErrConflict)
	assert.Zero(t, countClients(t, store))

	stored, err := eng.GetLead(ctx, lead.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsConverted())
}

func TestConvertRequiresWon(t *testing.T) {
	eng, store := setupEngine(t)
	ctx := context.Background()

	lead := leadInStatus(t, eng, store, models.LeadStatusProposalSent)
	_, err := eng.Convert(ctx, lead.ID, lead.Version, nil)
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = eng.Convert(ctx, uuid.New(), "v", nil)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Zero(t, countClients(t, store))
}

func TestConvertWithOverrides(t *testing.T) {
	eng, store := setupEngine(t)
	ctx := context.Background()

	lead := leadInStatus(t, eng, store, models.LeadStatusWon)
	title := "Rebrand 2026"
	value := int64(990000)
	start := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)

	result, err := eng.Convert(ctx, lead.ID, lead.Version, &EngagementOverrides{
		Title:     &title,
		Value:     &value,
		StartDate: &start,
	})
	require.NoError(t, err)
	assert.Equal(t, title, result.Engagement.Title)
	assert.Equal(t, value, result.Engagement.Value)
	require.NotNil(t, result.Engagement.StartDate)
	assert.True(t, result.Engagement.StartDate.Equal(start))
}

func TestConvertInvalidOverridesRollBack(t *testing.T) {
	eng, store := setupEngine(t)
	ctx := context.Background()

	lead := leadInStatus(t, eng, store, models.LeadStatusWon)
	negative := int64(-1)

	_, err := eng.Convert(ctx, lead.ID, lead.Version, &EngagementOverrides{Value: &negative})
	assert.Contains(t, fieldErrorsOf(t, err), "value")
	assert.Zero(t, countClients(t, store))

	stored, err := eng.GetLead(ctx, lead.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsConverted())
	assert.Equal(t, lead.Version, stored.Version)
}

// failingEngagementStore lets the lead update and client insert through, then
// fails the engagement insert to prove the whole conversion rolls back.
type failingEngagementStore struct {
	*db.Store
}

func (s failingEngagementStore) WithTx(ctx context.Context, fn func(db.Repository) error) error {
	return s.Store.WithTx(ctx, func(repo db.Repository) error {
		return fn(failingEngagementRepo{repo})
	})
}

type failingEngagementRepo struct {
	db.Repository
}

func (failingEngagementRepo) CreateEngagement(context.Context, *models.Engagement) error {
	return assert.AnError
}

func TestConvertRollsBackWhenEngagementFails(t *testing.T) {
	store := setupTestDB(t)
	eng := New(failingEngagementStore{store})
	ctx := context.Background()

	lead := leadInStatus(t, New(store), store, models.LeadStatusWon)

	_, err := eng.Convert(ctx, lead.ID, lead.Version, nil)
	require.Error(t, err)
	assert.Equal(t, CodeServer, CodeOf(err))
	assert.ErrorIs(t, err, assert.AnError)

	assert.Zero(t, countClients(t, store))
	stored, err := store.GetLead(ctx, lead.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsConverted())
	assert.Equal(t, lead.Version, stored.Version)
}
