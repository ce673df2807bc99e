// ABOUTME: Client creation, field updates, append-only notes, and reads
// ABOUTME: Clients created here have no source lead; only conversion sets one
package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/harperreed/studiocrm/db"
	"github.com/harperreed/studiocrm/models"
	"github.com/harperreed/studiocrm/workflow"
)

type ClientInput struct {
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Company string `json:"company,omitempty"`
	Notes   string `json:"notes,omitempty"`
}

type ClientPatch struct {
	Name    *string `json:"name,omitempty"`
	Email   *string `json:"email,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Company *string `json:"company,omitempty"`
}

func validateClient(client *models.Client) error {
	f := fieldErrors{}
	f.name(client.Name)
	f.email(client.Email)
	return f.err()
}

func (e *Engine) CreateClient(ctx context.Context, in ClientInput) (*models.Client, error) {
	client := &models.Client{
		Name:    strings.TrimSpace(in.Name),
		Email:   strings.TrimSpace(in.Email),
		Phone:   in.Phone,
		Company: in.Company,
		Notes:   strings.TrimSpace(in.Notes),
		Status:  workflow.InitialStatus(models.EntityClient),
	}
	if err := validateClient(client); err != nil {
		return nil, err
	}

	err := e.mutate(ctx, "create", models.EntityClient, func(repo db.Repository, audit *auditLog) error {
		if err := repo.CreateClient(ctx, client); err != nil {
			return err
		}
		return audit.record(ctx, models.EntityClient, client.ID, models.ActivityClientCreated,
			fmt.Sprintf("Client %s created", client.Name), nil)
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

func (e *Engine) UpdateClient(ctx context.Context, id uuid.UUID, version string, patch ClientPatch) (*models.Client, error) {
	var client *models.Client
	err := e.mutate(ctx, "update", models.EntityClient, func(repo db.Repository, audit *auditLog) error {
		current, err := repo.GetClient(ctx, id)
		if err != nil {
			return err
		}
		if err := Guard(current.Version, version); err != nil {
			return err
		}

		var changed []string
		setString(&changed, "name", &current.Name, trimmed(patch.Name))
		setString(&changed, "email", &current.Email, trimmed(patch.Email))
		setString(&changed, "phone", &current.Phone, patch.Phone)
		setString(&changed, "company", &current.Company, patch.Company)
		if len(changed) == 0 {
			return validationError(map[string]string{"fields": "no changes supplied"})
		}
		if err := validateClient(current); err != nil {
			return err
		}

		if err := repo.UpdateClient(ctx, current, version); err != nil {
			return err
		}
		client = current
		return audit.record(ctx, models.EntityClient, id, models.ActivityClientUpdated,
			fmt.Sprintf("Client %s updated", current.Name), changedMetadata(changed))
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

// AddClientNote appends note to the client's notes. Existing text is never rewritten.
func (e *Engine) AddClientNote(ctx context.Context, id uuid.UUID, version, note string) (*models.Client, error) {
	var client *models.Client
	err := e.mutate(ctx, "note", models.EntityClient, func(repo db.Repository, audit *auditLog) error {
		current, err := repo.GetClient(ctx, id)
		if err != nil {
			return err
		}
		if err := Guard(current.Version, version); err != nil {
			return err
		}

		note = strings.TrimSpace(note)
		if note == "" {
			return validationError(map[string]string{"note": "is required"})
		}

		stamped := fmt.Sprintf("[%s] %s", e.now().UTC().Format("2006-01-02 15:04"), note)
		if current.Notes == "" {
			current.Notes = stamped
		} else {
			current.Notes = current.Notes + "\n\n" + stamped
		}

		if err := repo.UpdateClient(ctx, current, version); err != nil {
			return err
		}
		client = current
		return audit.record(ctx, models.EntityClient, id, models.ActivityClientNoteAdded,
			fmt.Sprintf("Note added to %s", current.Name), nil)
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

func (e *Engine) GetClient(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	client, err := e.store.GetClient(ctx, id)
	if err != nil {
		return nil, translate(err, "client")
	}
	return client, nil
}

func (e *Engine) ListClients(ctx context.Context, filter db.ListFilter) ([]models.Client, error) {
	clients, err := e.store.ListClients(ctx, filter)
	if err != nil {
		return nil, translate(err, "clients")
	}
	return clients, nil
}
