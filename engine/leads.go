// ABOUTME: Lead creation, field updates, and reads
// ABOUTME: Updates are guarded by version and never touch status or conversion fields
package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/harperreed/studiocrm/db"
	"github.com/harperreed/studiocrm/models"
	"github.com/harperreed/studiocrm/workflow"
)

type LeadInput struct {
	Name           string `json:"name"`
	Email          string `json:"email,omitempty"`
	Phone          string `json:"phone,omitempty"`
	Company        string `json:"company,omitempty"`
	Message        string `json:"message,omitempty"`
	Source         string `json:"source,omitempty"`
	Priority       string `json:"priority,omitempty"`
	EstimatedValue int64  `json:"estimatedValue,omitempty"`
}

// LeadPatch holds the fields to change; nil means leave as is.
type LeadPatch struct {
	Name           *string `json:"name,omitempty"`
	Email          *string `json:"email,omitempty"`
	Phone          *string `json:"phone,omitempty"`
	Company        *string `json:"company,omitempty"`
	Message        *string `json:"message,omitempty"`
	Source         *string `json:"source,omitempty"`
	Priority       *string `json:"priority,omitempty"`
	EstimatedValue *int64  `json:"estimatedValue,omitempty"`
}

func validateLead(lead *models.Lead) error {
	f := fieldErrors{}
	f.name(lead.Name)
	f.email(lead.Email)
	f.priority(lead.Priority)
	f.money("estimatedValue", lead.EstimatedValue)
	return f.err()
}

// CreateLead stores a new lead in the initial status.
func (e *Engine) CreateLead(ctx context.Context, in LeadInput) (*models.Lead, error) {
	lead := &models.Lead{
		Name:           strings.TrimSpace(in.Name),
		Email:          strings.TrimSpace(in.Email),
		Phone:          in.Phone,
		Company:        in.Company,
		Message:        in.Message,
		Source:         in.Source,
		Status:         workflow.InitialStatus(models.EntityLead),
		Priority:       in.Priority,
		EstimatedValue: in.EstimatedValue,
	}
	if lead.Priority == "" {
		lead.Priority = models.PriorityMedium
	}
	if err := validateLead(lead); err != nil {
		return nil, err
	}

	err := e.mutate(ctx, "create", models.EntityLead, func(repo db.Repository, audit *auditLog) error {
		if err := repo.CreateLead(ctx, lead); err != nil {
			return err
		}
		return audit.record(ctx, models.EntityLead, lead.ID, models.ActivityLeadCreated,
			fmt.Sprintf("Lead %s created", lead.Name), nil)
	})
	if err != nil {
		return nil, err
	}
	return lead, nil
}

// UpdateLead applies patch when version is current.
func (e *Engine) UpdateLead(ctx context.Context, id uuid.UUID, version string, patch LeadPatch) (*models.Lead, error) {
	var lead *models.Lead
	err := e.mutate(ctx, "update", models.EntityLead, func(repo db.Repository, audit *auditLog) error {
		current, err := repo.GetLead(ctx, id)
		if err != nil {
			return err
		}
		if err := Guard(current.Version, version); err != nil {
			return err
		}

		changed := applyLeadPatch(current, patch)
		if len(changed) == 0 {
			return validationError(map[string]string{"fields": "no changes supplied"})
		}
		if err := validateLead(current); err != nil {
			return err
		}

		if err := repo.UpdateLead(ctx, current, version); err != nil {
			return err
		}
		lead = current
		return audit.record(ctx, models.EntityLead, id, models.ActivityLeadUpdated,
			fmt.Sprintf("Lead %s updated", current.Name), changedMetadata(changed))
	})
	if err != nil {
		return nil, err
	}
	return lead, nil
}

func applyLeadPatch(lead *models.Lead, p LeadPatch) []string {
	var changed []string
	setString(&changed, "name", &lead.Name, trimmed(p.Name))
	setString(&changed, "email", &lead.Email, trimmed(p.Email))
	setString(&changed, "phone", &lead.Phone, p.Phone)
	setString(&changed, "company", &lead.Company, p.Company)
	setString(&changed, "message", &lead.Message, p.Message)
	setString(&changed, "source", &lead.Source, p.Source)
	setString(&changed, "priority", &lead.Priority, p.Priority)
	if p.EstimatedValue != nil && *p.EstimatedValue != lead.EstimatedValue {
		lead.EstimatedValue = *p.EstimatedValue
		changed = append(changed, "estimatedValue")
	}
	return changed
}

func setString(changed *[]string, field string, dst *string, value *string) {
	if value == nil || *value == *dst {
		return
	}
	*dst = *value
	*changed = append(*changed, field)
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}

func changedMetadata(changed []string) *models.ActivityMetadata {
	sort.Strings(changed)
	return &models.ActivityMetadata{Details: map[string]string{"fields": strings.Join(changed, ",")}}
}

func (e *Engine) GetLead(ctx context.Context, id uuid.UUID) (*models.Lead, error) {
	lead, err := e.store.GetLead(ctx, id)
	if err != nil {
		return nil, translate(err, "lead")
	}
	return lead, nil
}

func (e *Engine) ListLeads(ctx context.Context, filter db.ListFilter) ([]models.Lead, error) {
	leads, err := e.store.ListLeads(ctx, filter)
	if err != nil {
		return nil, translate(err, "leads")
	}
	return leads, nil
}
