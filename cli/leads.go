// ABOUTME: Lead CLI commands
// ABOUTME: Human-friendly commands for adding, listing, updating and converting leads
package cli

import (
	"flag"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/harperreed/studiocrm/db"
	"github.com/harperreed/studiocrm/engine"
	"github.com/harperreed/studiocrm/models"
)

// AddLeadCommand adds a new lead in the initial status.
func AddLeadCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("add-lead", flag.ContinueOnError)
	name := fs.String("name", "", "Lead name (required)")
	email := fs.String("email", "", "Email address")
	phone := fs.String("phone", "", "Phone number")
	company := fs.String("company", "", "Company name")
	message := fs.String("message", "", "Inquiry text")
	source := fs.String("source", "", "Where the lead came from")
	priority := fs.String("priority", "", "Priority (low, medium, high)")
	value := fs.Int64("value", 0, "Estimated value in agorot")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *name == "" {
		return fmt.Errorf("--name is required")
	}

	lead, err := app.Engine.CreateLead(app.context(), engine.LeadInput{
		Name:           *name,
		Email:          *email,
		Phone:          *phone,
		Company:        *company,
		Message:        *message,
		Source:         *source,
		Priority:       *priority,
		EstimatedValue: *value,
	})
	if err != nil {
		return describe(err)
	}

	return app.emit(lead, func(w *tabwriter.Writer) {
		_, _ = fmt.Fprintf(w, "✓ Lead created: %s (ID: %s)\n", lead.Name, lead.ID)
		_, _ = fmt.Fprintf(w, "  Status:\t%s\n", app.label(models.EntityLead, lead.Status))
		_, _ = fmt.Fprintf(w, "  Priority:\t%s\n", lead.Priority)
		_, _ = fmt.Fprintf(w, "  Value:\t%s\n", money(lead.EstimatedValue))
		_, _ = fmt.Fprintf(w, "  Version:\t%s\n", lead.Version)
	})
}

// ListLeadsCommand lists leads, hiding archived ones unless asked.
func ListLeadsCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("list-leads", flag.ContinueOnError)
	status := fs.String("status", "", "Filter by status")
	query := fs.String("query", "", "Search name, email or company")
	archived := fs.Bool("archived", false, "Include archived leads")
	limit := fs.Int("limit", 50, "Maximum results")
	if err := fs.Parse(args); err != nil {
		return err
	}

	leads, err := app.Engine.ListLeads(app.context(), db.ListFilter{
		Status:          *status,
		Query:           *query,
		IncludeArchived: *archived,
		Limit:           *limit,
	})
	if err != nil {
		return describe(err)
	}

	return app.emit(leads, func(w *tabwriter.Writer) {
		if len(leads) == 0 {
			_, _ = fmt.Fprintln(w, "No leads found")
			return
		}
		_, _ = fmt.Fprintln(w, "NAME\tCOMPANY\tSTATUS\tPRIORITY\tVALUE\tID")
		_, _ = fmt.Fprintln(w, "----\t-------\t------\t--------\t-----\t--")
		var total int64
		for _, lead := range leads {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				lead.Name, dash(lead.Company), app.label(models.EntityLead, lead.Status),
				lead.Priority, money(lead.EstimatedValue), lead.ID)
			total += lead.EstimatedValue
		}
		_, _ = fmt.Fprintf(w, "\nTotal: %d lead(s) - %s\n", len(leads), money(total))
	})
}

// UpdateLeadCommand changes lead fields; status changes go through transition.
func UpdateLeadCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("update-lead", flag.ContinueOnError)
	version := fs.String("version", "", "Version token (default: current)")
	name := fs.String("name", "", "New name")
	email := fs.String("email", "", "New email")
	phone := fs.String("phone", "", "New phone")
	company := fs.String("company", "", "New company")
	message := fs.String("message", "", "New inquiry text")
	source := fs.String("source", "", "New source")
	priority := fs.String("priority", "", "New priority")
	value := fs.Int64("value", -1, "New estimated value in agorot")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("lead ID required")
	}

	id, err := parseIDArg(fs.Arg(0))
	if err != nil {
		return err
	}

	var patch engine.LeadPatch
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "name":
			patch.Name = name
		case "email":
			patch.Email = email
		case "phone":
			patch.Phone = phone
		case "company":
			patch.Company = company
		case "message":
			patch.Message = message
		case "source":
			patch.Source = source
		case "priority":
			patch.Priority = priority
		case "value":
			patch.EstimatedValue = value
		}
	})

	current, err := app.versionFor(models.EntityLead, id, *version)
	if err != nil {
		return err
	}
	lead, err := app.Engine.UpdateLead(app.context(), id, current, patch)
	if err != nil {
		return describe(err)
	}

	return app.emit(lead, func(w *tabwriter.Writer) {
		_, _ = fmt.Fprintf(w, "✓ Lead updated: %s (version %s)\n", lead.Name, lead.Version)
	})
}

// ConvertCommand promotes a won lead into a client with a first engagement.
func ConvertCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	version := fs.String("version", "", "Version token (default: current)")
	title := fs.String("title", "", "Engagement title (default: '<name> engagement')")
	description := fs.String("description", "", "Engagement description")
	value := fs.Int64("value", -1, "Engagement value in agorot (default: lead estimate)")
	due := fs.String("due", "", "Engagement due date (YYYY-MM-DD)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("lead ID required")
	}

	id, err := parseIDArg(fs.Arg(0))
	if err != nil {
		return err
	}

	overrides := &engine.EngagementOverrides{}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "title":
			overrides.Title = title
		case "description":
			overrides.Description = description
		case "value":
			overrides.Value = value
		}
	})
	if *due != "" {
		t, err := time.Parse("2006-01-02", *due)
		if err != nil {
			return fmt.Errorf("invalid --due date: %w", err)
		}
		overrides.DueDate = &t
	}

	current, err := app.versionFor(models.EntityLead, id, *version)
	if err != nil {
		return err
	}
	result, err := app.Engine.Convert(app.context(), id, current, overrides)
	if err != nil {
		return describe(err)
	}

	return app.emit(result, func(w *tabwriter.Writer) {
		_, _ = fmt.Fprintf(w, "✓ Lead converted: %s\n", result.Lead.Name)
		_, _ = fmt.Fprintf(w, "  Client:\t%s (ID: %s)\n", result.Client.Name, result.Client.ID)
		_, _ = fmt.Fprintf(w, "  Engagement:\t%s (ID: %s)\n", result.Engagement.Title, result.Engagement.ID)
		_, _ = fmt.Fprintf(w, "  Value:\t%s\n", money(result.Engagement.Value))
	})
}
