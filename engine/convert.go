// ABOUTME: Promotes a won lead into a new client and engagement in one transaction
// ABOUTME: The lead is guarded and marked first so a stale version creates nothing
package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/studiocrm/db"
	"github.com/harperreed/studiocrm/models"
	"github.com/harperreed/studiocrm/workflow"
)

// EngagementOverrides replaces the defaults derived from the lead.
type EngagementOverrides struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Value       *int64     `json:"value,omitempty"`
	StartDate   *time.Time `json:"startDate,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
}

type ConversionResult struct {
	Lead       *models.Lead       `json:"lead"`
	Client     *models.Client     `json:"client"`
	Engagement *models.Engagement `json:"engagement"`
}

// DefaultEngagementTitle is the title used when no override is given.
func DefaultEngagementTitle(lead *models.Lead) string {
	return lead.Name + " engagement"
}

// Convert turns a won lead into a client plus a first engagement. A lead can
// be converted once; repeating the call fails with ALREADY_CONVERTED.
func (e *Engine) Convert(ctx context.Context, leadID uuid.UUID, version string, overrides *EngagementOverrides) (*ConversionResult, error) {
	var result *ConversionResult
	err := e.mutate(ctx, "convert", models.EntityLead, func(repo db.Repository, audit *auditLog) error {
		lead, err := repo.GetLead(ctx, leadID)
		if err != nil {
			return err
		}
		if lead.IsConverted() {
			return newError(ErrAlreadyConverted, "lead was already converted to client %s", lead.ConvertedToClientID)
		}
		if err := Guard(lead.Version, version); err != nil {
			return err
		}
		if lead.Status != models.LeadStatusWon {
			return newError(ErrInvalidState, "only won leads can be converted; lead is %s", lead.Status)
		}

		clientID := uuid.New()
		engagement := defaultEngagement(lead, clientID, overrides)
		if err := validateEngagement(engagement).err(); err != nil {
			return err
		}

		now := e.now().UTC()
		lead.ConvertedToClientID = &clientID
		lead.ConvertedAt = &now
		if err := repo.UpdateLead(ctx, lead, version); err != nil {
			return err
		}

		client := &models.Client{
			ID:           clientID,
			Name:         lead.Name,
			Email:        lead.Email,
			Phone:        lead.Phone,
			Company:      lead.Company,
			Status:       workflow.InitialStatus(models.EntityClient),
			SourceLeadID: &lead.ID,
			Notes:        strings.TrimSpace(lead.Message),
		}
		if err := repo.CreateClient(ctx, client); err != nil {
			return fmt.Errorf("failed to create client: %w", err)
		}

		if err := repo.CreateEngagement(ctx, engagement); err != nil {
			return fmt.Errorf("failed to create engagement: %w", err)
		}

		if err := audit.record(ctx, models.EntityLead, lead.ID, models.ActivityLeadConverted,
			fmt.Sprintf("Lead %s converted to client", lead.Name),
			&models.ActivityMetadata{Details: map[string]string{
				"clientId":     client.ID.String(),
				"engagementId": engagement.ID.String(),
			}}); err != nil {
			return err
		}
		if err := audit.record(ctx, models.EntityClient, client.ID, models.ActivityClientCreated,
			fmt.Sprintf("Client %s created from lead", client.Name),
			&models.ActivityMetadata{Details: map[string]string{"sourceLead": lead.ID.String()}}); err != nil {
			return err
		}
		if err := audit.record(ctx, models.EntityEngagement, engagement.ID, models.ActivityEngagementCreated,
			fmt.Sprintf("Engagement %s created for %s", engagement.Title, client.Name), nil); err != nil {
			return err
		}

		result = &ConversionResult{Lead: lead, Client: client, Engagement: engagement}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func defaultEngagement(lead *models.Lead, clientID uuid.UUID, o *EngagementOverrides) *models.Engagement {
	engagement := &models.Engagement{
		ID:       uuid.New(),
		ClientID: clientID,
		Title:    DefaultEngagementTitle(lead),
		Status:   workflow.InitialStatus(models.EntityEngagement),
		Value:    lead.EstimatedValue,
	}
	if o == nil {
		return engagement
	}
	if o.Title != nil {
		engagement.Title = strings.TrimSpace(*o.Title)
	}
	if o.Description != nil {
		engagement.Description = *o.Description
	}
	if o.Value != nil {
		engagement.Value = *o.Value
	}
	engagement.StartDate = o.StartDate
	engagement.DueDate = o.DueDate
	return engagement
}
