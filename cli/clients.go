// ABOUTME: Client and engagement CLI commands
// ABOUTME: Commands for adding and listing clients, appending notes, and managing engagements
package cli

import (
	"flag"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/studiocrm/db"
	"github.com/harperreed/studiocrm/engine"
	"github.com/harperreed/studiocrm/models"
)

// AddClientCommand adds a client directly, without a source lead.
func AddClientCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("add-client", flag.ContinueOnError)
	name := fs.String("name", "", "Client name (required)")
	email := fs.String("email", "", "Email address")
	phone := fs.String("phone", "", "Phone number")
	company := fs.String("company", "", "Company name")
	notes := fs.String("notes", "", "Initial notes")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *name == "" {
		return fmt.Errorf("--name is required")
	}

	client, err := app.Engine.CreateClient(app.context(), engine.ClientInput{
		Name:    *name,
		Email:   *email,
		Phone:   *phone,
		Company: *company,
		Notes:   *notes,
	})
	if err != nil {
		return describe(err)
	}

	return app.emit(client, func(w *tabwriter.Writer) {
		_, _ = fmt.Fprintf(w, "✓ Client created: %s (ID: %s)\n", client.Name, client.ID)
		_, _ = fmt.Fprintf(w, "  Status:\t%s\n", app.label(models.EntityClient, client.Status))
	})
}

// ListClientsCommand lists clients.
func ListClientsCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("list-clients", flag.ContinueOnError)
	status := fs.String("status", "", "Filter by status")
	query := fs.String("query", "", "Search name, email or company")
	archived := fs.Bool("archived", false, "Include archived clients")
	limit := fs.Int("limit", 50, "Maximum results")
	if err := fs.Parse(args); err != nil {
		return err
	}

	clients, err := app.Engine.ListClients(app.context(), db.ListFilter{
		Status:          *status,
		Query:           *query,
		IncludeArchived: *archived,
		Limit:           *limit,
	})
	if err != nil {
		return describe(err)
	}

	return app.emit(clients, func(w *tabwriter.Writer) {
		if len(clients) == 0 {
			_, _ = fmt.Fprintln(w, "No clients found")
			return
		}
		_, _ = fmt.Fprintln(w, "NAME\tCOMPANY\tSTATUS\tFROM LEAD\tID")
		_, _ = fmt.Fprintln(w, "----\t-------\t------\t---------\t--")
		for _, client := range clients {
			fromLead := "-"
			if client.SourceLeadID != nil {
				fromLead = client.SourceLeadID.String()[:8]
			}
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				client.Name, dash(client.Company), app.label(models.EntityClient, client.Status), fromLead, client.ID)
		}
	})
}

// AddNoteCommand appends a timestamped note to a client.
func AddNoteCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("add-note", flag.ContinueOnError)
	version := fs.String("version", "", "Version token (default: current)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 2 {
		return fmt.Errorf("usage: add-note <client-id> <note>")
	}

	id, err := parseIDArg(fs.Arg(0))
	if err != nil {
		return err
	}
	current, err := app.versionFor(models.EntityClient, id, *version)
	if err != nil {
		return err
	}

	client, err := app.Engine.AddClientNote(app.context(), id, current, fs.Arg(1))
	if err != nil {
		return describe(err)
	}

	return app.emit(client, func(w *tabwriter.Writer) {
		_, _ = fmt.Fprintf(w, "✓ Note added to %s\n", client.Name)
	})
}

// AddEngagementCommand creates an engagement under an existing client.
func AddEngagementCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("add-engagement", flag.ContinueOnError)
	clientArg := fs.String("client", "", "Client ID (required)")
	title := fs.String("title", "", "Engagement title (required)")
	description := fs.String("description", "", "Description")
	value := fs.Int64("value", 0, "Value in agorot")
	start := fs.String("start", "", "Start date (YYYY-MM-DD)")
	due := fs.String("due", "", "Due date (YYYY-MM-DD)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *clientArg == "" {
		return fmt.Errorf("--client is required")
	}
	clientID, err := parseIDArg(*clientArg)
	if err != nil {
		return err
	}

	in := engine.EngagementInput{ClientID: clientID, Title: *title, Description: *description, Value: *value}
	if in.StartDate, err = parseDateFlag("start", *start); err != nil {
		return err
	}
	if in.DueDate, err = parseDateFlag("due", *due); err != nil {
		return err
	}

	engagement, err := app.Engine.CreateEngagement(app.context(), in)
	if err != nil {
		return describe(err)
	}

	return app.emit(engagement, func(w *tabwriter.Writer) {
		_, _ = fmt.Fprintf(w, "✓ Engagement created: %s (ID: %s)\n", engagement.Title, engagement.ID)
		_, _ = fmt.Fprintf(w, "  Value:\t%s\n", money(engagement.Value))
	})
}

// ListEngagementsCommand lists engagements, optionally for one client.
func ListEngagementsCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("list-engagements", flag.ContinueOnError)
	clientArg := fs.String("client", "", "Only engagements of this client ID")
	status := fs.String("status", "", "Filter by status")
	limit := fs.Int("limit", 50, "Maximum results")
	if err := fs.Parse(args); err != nil {
		return err
	}

	filter := db.ListFilter{Status: *status, Limit: *limit}
	if *clientArg != "" {
		clientID, err := parseIDArg(*clientArg)
		if err != nil {
			return err
		}
		filter.ClientID = &clientID
	}

	engagements, err := app.Engine.ListEngagements(app.context(), filter)
	if err != nil {
		return describe(err)
	}

	return app.emit(engagements, func(w *tabwriter.Writer) {
		if len(engagements) == 0 {
			_, _ = fmt.Fprintln(w, "No engagements found")
			return
		}
		_, _ = fmt.Fprintln(w, "TITLE\tSTATUS\tVALUE\tDUE\tCLIENT\tID")
		_, _ = fmt.Fprintln(w, "-----\t------\t-----\t---\t------\t--")
		for _, e := range engagements {
			dueStr := "-"
			if e.DueDate != nil {
				dueStr = e.DueDate.Format("2006-01-02")
			}
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				e.Title, app.label(models.EntityEngagement, e.Status), money(e.Value), dueStr, shortID(e.ClientID), e.ID)
		}
	})
}

func parseDateFlag(name, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, fmt.Errorf("invalid --%s date: %w", name, err)
	}
	return &t, nil
}

func shortID(id uuid.UUID) string {
	return id.String()[:8]
}
