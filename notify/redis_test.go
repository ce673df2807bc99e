// ABOUTME: Tests for the Redis activity feed against an in-process Redis
// ABOUTME: Covers publish, capped recent history, subscription, and connection errors
package notify

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/harperreed/studiocrm/models"
)

func setupTestFeed(t *testing.T) (*RedisFeed, *miniredis.Miniredis) {
	s := miniredis.RunT(t)
	feed, err := NewRedisFeed("redis://" + s.Addr())
	if err != nil {
		t.Fatalf("failed to create redis feed: %v", err)
	}
	t.Cleanup(func() { _ = feed.Close() })
	return feed, s
}

func testActivity(n int) models.Activity {
	return models.Activity{
		ID:          fmt.Sprintf("01HZ%022d", n),
		EntityType:  models.EntityLead,
		EntityID:    uuid.New(),
		Type:        models.ActivityStatusChange,
		Description: fmt.Sprintf("change %d", n),
		PerformedBy: "admin",
		Metadata:    &models.ActivityMetadata{PreviousStatus: "new", NewStatus: "contacted"},
		CreatedAt:   time.Now().UTC(),
	}
}

func TestNewRedisFeedBadURL(t *testing.T) {
	if _, err := NewRedisFeed("not a url"); err == nil {
		t.Error("expected error for invalid url")
	}
}

func TestNewRedisFeedUnreachable(t *testing.T) {
	s := miniredis.RunT(t)
	addr := s.Addr()
	s.Close()

	if _, err := NewRedisFeed("redis://" + addr); err == nil {
		t.Error("expected connection error")
	}
}

func TestPublishAndRecent(t *testing.T) {
	feed, s := setupTestFeed(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		if err := feed.Publish(ctx, testActivity(i)); err != nil {
			t.Fatalf("Publish failed: %v", err)
		}
	}

	stored, err := s.List(DefaultRecentKey)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(stored) != 3 {
		t.Fatalf("expected 3 stored activities, got %d", len(stored))
	}

	recent, err := feed.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 recent activities, got %d", len(recent))
	}
	if recent[0].Description != "change 3" || recent[1].Description != "change 2" {
		t.Errorf("expected newest first, got %q then %q", recent[0].Description, recent[1].Description)
	}
	if recent[0].Metadata == nil || recent[0].Metadata.NewStatus != "contacted" {
		t.Errorf("metadata lost: %+v", recent[0].Metadata)
	}
}

func TestRecentListIsCapped(t *testing.T) {
	feed, s := setupTestFeed(t)
	feed.recentMax = 5
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		if err := feed.Publish(ctx, testActivity(i)); err != nil {
			t.Fatalf("Publish failed: %v", err)
		}
	}

	stored, err := s.List(DefaultRecentKey)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(stored) != 5 {
		t.Errorf("expected list capped at 5, got %d", len(stored))
	}
}

func TestSubscribeReceivesPublished(t *testing.T) {
	feed, _ := setupTestFeed(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := feed.Subscribe(ctx)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	want := testActivity(7)
	if err := feed.Publish(ctx, want); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	select {
	case got := <-ch:
		if got.ID != want.ID || got.EntityID != want.EntityID {
			t.Errorf("received %+v, want %+v", got, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for activity")
	}

	cancel()
	select {
	case _, ok := <-ch:
		if ok {
			t.Error("expected channel to close after cancel")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("channel did not close")
	}
}
