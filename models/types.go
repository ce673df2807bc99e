// ABOUTME: Data models for CRM lifecycle entities
// ABOUTME: Defines Lead, Client, Engagement, and Activity structs plus their status enums
package models

import (
	"time"

	"github.com/google/uuid"
)

// EntityType names one of the three lifecycle-managed record kinds.
type EntityType string

const (
	EntityLead       EntityType = "lead"
	EntityClient     EntityType = "client"
	EntityEngagement EntityType = "engagement"
)

// EntityTypes lists every managed entity type in display order.
var EntityTypes = []EntityType{EntityLead, EntityClient, EntityEngagement}

// ParseEntityType accepts singular or plural names ("lead", "leads").
func ParseEntityType(s string) (EntityType, bool) {
	switch s {
	case "lead", "leads":
		return EntityLead, true
	case "client", "clients":
		return EntityClient, true
	case "engagement", "engagements":
		return EntityEngagement, true
	}
	return "", false
}

// StatusArchived is shared by Lead and Client and sits outside the transition graphs.
const StatusArchived = "archived"

// Lead status constants.
const (
	LeadStatusNew          = "new"
	LeadStatusContacted    = "contacted"
	LeadStatusQualified    = "qualified"
	LeadStatusProposalSent = "proposal_sent"
	LeadStatusWon          = "won"
	LeadStatusLost         = "lost"
	LeadStatusArchived     = StatusArchived
)

// Client status constants.
const (
	ClientStatusActive    = "active"
	ClientStatusCompleted = "completed"
	ClientStatusInactive  = "inactive"
	ClientStatusArchived  = StatusArchived
)

// Engagement status constants.
const (
	EngagementStatusNew        = "new"
	EngagementStatusInProgress = "in_progress"
	EngagementStatusReview     = "review"
	EngagementStatusDelivered  = "delivered"
	EngagementStatusCompleted  = "completed"
	EngagementStatusPaused     = "paused"
	EngagementStatusCancelled  = "cancelled"
)

// Priority constants.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

type Lead struct {
	ID                  uuid.UUID  `json:"id"`
	Name                string     `json:"name"`
	Email               string     `json:"email,omitempty"`
	Phone               string     `json:"phone,omitempty"`
	Company             string     `json:"company,omitempty"`
	Message             string     `json:"message,omitempty"`
	Source              string     `json:"source,omitempty"`
	Status              string     `json:"status"`
	Priority            string     `json:"priority"`
	EstimatedValue      int64      `json:"estimatedValue"` // minor units
	ConvertedToClientID *uuid.UUID `json:"convertedToClientId,omitempty"`
	ConvertedAt         *time.Time `json:"convertedAt,omitempty"`
	ArchivedAt          *time.Time `json:"archivedAt,omitempty"`
	PreArchiveStatus    string     `json:"preArchiveStatus,omitempty"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
	Version             string     `json:"version"`
}

// IsConverted reports whether the lead has already been promoted to a client.
func (l *Lead) IsConverted() bool {
	return l.ConvertedToClientID != nil
}

type Client struct {
	ID               uuid.UUID  `json:"id"`
	Name             string     `json:"name"`
	Email            string     `json:"email,omitempty"`
	Phone            string     `json:"phone,omitempty"`
	Company          string     `json:"company,omitempty"`
	Status           string     `json:"status"`
	SourceLeadID     *uuid.UUID `json:"sourceLead,omitempty"`
	Notes            string     `json:"notes,omitempty"`
	ArchivedAt       *time.Time `json:"archivedAt,omitempty"`
	PreArchiveStatus string     `json:"preArchiveStatus,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
	Version          string     `json:"version"`
}

type Engagement struct {
	ID          uuid.UUID  `json:"id"`
	ClientID    uuid.UUID  `json:"client"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status"`
	Value       int64      `json:"value"` // minor units
	StartDate   *time.Time `json:"startDate,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	Version     string     `json:"version"`
}

// ActivityType is the closed set of audit record kinds.
type ActivityType string

const (
	ActivityLeadCreated       ActivityType = "lead_created"
	ActivityLeadUpdated       ActivityType = "lead_updated"
	ActivityClientCreated     ActivityType = "client_created"
	ActivityClientUpdated     ActivityType = "client_updated"
	ActivityClientNoteAdded   ActivityType = "client_note_added"
	ActivityEngagementCreated ActivityType = "engagement_created"
	ActivityEngagementUpdated ActivityType = "engagement_updated"
	ActivityStatusChange      ActivityType = "status_change"
	ActivityLeadArchived      ActivityType = "lead_archived"
	ActivityClientArchived    ActivityType = "client_archived"
	ActivityRecordRestored    ActivityType = "record_restored"
	ActivityBulkOperation     ActivityType = "bulk_operation"
	ActivityLeadConverted     ActivityType = "lead_converted"
)

// ActivityMetadata carries the optional structured part of an audit record.
type ActivityMetadata struct {
	PreviousStatus string            `json:"previousStatus,omitempty"`
	NewStatus      string            `json:"newStatus,omitempty"`
	BulkAction     string            `json:"bulkAction,omitempty"`
	Details        map[string]string `json:"details,omitempty"`
}

// Activity is an immutable audit record for one accepted mutation.
type Activity struct {
	ID          string            `json:"id"`
	EntityType  EntityType        `json:"entityType"`
	EntityID    uuid.UUID         `json:"entityId"`
	Type        ActivityType      `json:"type"`
	Description string            `json:"description"`
	PerformedBy string            `json:"performedBy"`
	Metadata    *ActivityMetadata `json:"metadata,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
}

// StatusCount aggregates records in one status, used by pipeline views.
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
	Value  int64  `json:"value"` // minor units; estimated value for leads, value for engagements
}
