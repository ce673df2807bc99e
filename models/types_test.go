// ABOUTME: Tests for CRM data models
// ABOUTME: Validates entity type parsing and conversion helpers
package models

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
)

func TestParseEntityType(t *testing.T) {
	cases := map[string]EntityType{
		"lead":        EntityLead,
		"leads":       EntityLead,
		"client":      EntityClient,
		"clients":     EntityClient,
		"engagement":  EntityEngagement,
		"engagements": EntityEngagement,
	}
	for in, want := range cases {
		got, ok := ParseEntityType(in)
		if !ok || got != want {
			t.Errorf("ParseEntityType(%q) = %q, %v; want %q", in, got, ok, want)
		}
	}

	if _, ok := ParseEntityType("activity"); ok {
		t.Error("activity should not parse as a lifecycle entity")
	}
}

func TestLeadIsConverted(t *testing.T) {
	lead := &Lead{Status: LeadStatusWon}
	if lead.IsConverted() {
		t.Error("fresh lead should not be converted")
	}

	clientID := uuid.New()
	lead.ConvertedToClientID = &clientID
	if !lead.IsConverted() {
		t.Error("lead with client reference should be converted")
	}
}

func TestEngagementJSONUsesClientKey(t *testing.T) {
	e := Engagement{ID: uuid.New(), ClientID: uuid.New(), Title: "Site redesign", Status: EngagementStatusNew}
	data, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if decoded["client"] != e.ClientID.String() {
		t.Errorf("expected client key %s, got %v", e.ClientID, decoded["client"])
	}
}
