// ABOUTME: Lifecycle CLI commands shared by every entity type
// ABOUTME: Transition, archive, restore, bulk changes, activity timelines and the pipeline
package cli

import (
	"flag"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/harperreed/studiocrm/engine"
	"github.com/harperreed/studiocrm/models"
	"github.com/harperreed/studiocrm/workflow"
)

// TransitionCommand moves a record along its status graph.
// Usage: transition <entity> <id> <target-status>
func TransitionCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("transition", flag.ContinueOnError)
	version := fs.String("version", "", "Version token (default: current)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 3 {
		return fmt.Errorf("usage: transition <lead|client|engagement> <id> <target-status>")
	}

	entity, err := parseEntityArg(fs.Arg(0))
	if err != nil {
		return err
	}
	id, err := parseIDArg(fs.Arg(1))
	if err != nil {
		return err
	}
	target := fs.Arg(2)

	current, err := app.versionFor(entity, id, *version)
	if err != nil {
		return err
	}
	record, err := app.Engine.Transition(app.context(), entity, id, target, current)
	if err != nil {
		return describe(err)
	}

	return app.emit(record, func(w *tabwriter.Writer) {
		_, _ = fmt.Fprintf(w, "✓ %s %s is now %s\n", entity, id, app.label(entity, target))
		if next := workflow.Allowed(entity, target); len(next) > 0 {
			_, _ = fmt.Fprintf(w, "  Next:\t%s\n", strings.Join(next, ", "))
		}
	})
}

// ArchiveCommand archives a lead or client.
func ArchiveCommand(app *App, args []string) error {
	return archiveOrRestore(app, "archive", args)
}

// RestoreCommand returns an archived lead or client to its previous status.
func RestoreCommand(app *App, args []string) error {
	return archiveOrRestore(app, "restore", args)
}

func archiveOrRestore(app *App, action string, args []string) error {
	fs := flag.NewFlagSet(action, flag.ContinueOnError)
	version := fs.String("version", "", "Version token (default: current)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 2 {
		return fmt.Errorf("usage: %s <lead|client> <id>", action)
	}

	entity, err := parseEntityArg(fs.Arg(0))
	if err != nil {
		return err
	}
	id, err := parseIDArg(fs.Arg(1))
	if err != nil {
		return err
	}

	current, err := app.versionFor(entity, id, *version)
	if err != nil {
		return err
	}

	var record any
	if action == "archive" {
		record, err = app.Engine.Archive(app.context(), entity, id, current)
	} else {
		record, err = app.Engine.Restore(app.context(), entity, id, current)
	}
	if err != nil {
		return describe(err)
	}

	return app.emit(record, func(w *tabwriter.Writer) {
		_, _ = fmt.Fprintf(w, "✓ %s %s: %s\n", entity, action+"d", id)
	})
}

// BulkCommand applies archive or a status change to many records.
// Without --versions each record is guarded by its current version.
func BulkCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("bulk", flag.ContinueOnError)
	action := fs.String("action", "", "archive or status_change (required)")
	target := fs.String("status", "", "Target status for status_change")
	versions := fs.String("versions", "", "Comma-separated id=version pairs")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 2 {
		return fmt.Errorf("usage: bulk --action <archive|status_change> [--status s] <entity> <id>...")
	}

	entity, err := parseEntityArg(fs.Arg(0))
	if err != nil {
		return err
	}

	req := engine.BulkRequest{
		EntityType:   entity,
		Action:       engine.BulkAction(*action),
		TargetStatus: *target,
		Versions:     make(map[uuid.UUID]string),
	}
	for _, pair := range splitList(*versions) {
		idStr, v, ok := strings.Cut(pair, "=")
		if !ok {
			return fmt.Errorf("invalid --versions entry %q (want id=version)", pair)
		}
		id, err := parseIDArg(idStr)
		if err != nil {
			return err
		}
		req.Versions[id] = v
	}
	for _, arg := range fs.Args()[1:] {
		id, err := parseIDArg(arg)
		if err != nil {
			return err
		}
		req.IDs = append(req.IDs, id)
		if _, ok := req.Versions[id]; !ok {
			// A record that cannot be read is left without a version and
			// reported by the engine.
			if v, err := app.versionFor(entity, id, ""); err == nil {
				req.Versions[id] = v
			}
		}
	}

	result, err := app.Engine.Bulk(app.context(), req)
	if err != nil && engine.CodeOf(err) != engine.CodeServer {
		return describe(err)
	}

	if emitErr := app.emit(result, func(w *tabwriter.Writer) {
		_, _ = fmt.Fprintf(w, "✓ %d %s record(s) affected\n", result.Affected, entity)
		for _, skip := range result.Skipped {
			_, _ = fmt.Fprintf(w, "  skipped\t%s\t%s\t%s\n", skip.ID, skip.Code, skip.Message)
		}
	}); emitErr != nil {
		return emitErr
	}
	if err != nil {
		return describe(err)
	}
	return nil
}

// ActivitiesCommand prints the timeline of one record, newest first.
func ActivitiesCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("activities", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 2 {
		return fmt.Errorf("usage: activities <lead|client|engagement> <id>")
	}

	entity, err := parseEntityArg(fs.Arg(0))
	if err != nil {
		return err
	}
	id, err := parseIDArg(fs.Arg(1))
	if err != nil {
		return err
	}

	activities, err := app.Engine.ListActivities(app.context(), entity, id)
	if err != nil {
		return describe(err)
	}

	return app.emit(activities, func(w *tabwriter.Writer) {
		if len(activities) == 0 {
			_, _ = fmt.Fprintln(w, "No activity recorded")
			return
		}
		_, _ = fmt.Fprintln(w, "WHEN\tTYPE\tBY\tDESCRIPTION")
		_, _ = fmt.Fprintln(w, "----\t----\t--\t-----------")
		for _, a := range activities {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				a.CreatedAt.Local().Format("2006-01-02 15:04"), a.Type, a.PerformedBy, a.Description)
		}
	})
}

// PipelineCommand prints record counts per status.
func PipelineCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("pipeline", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	entities := models.EntityTypes
	if fs.NArg() > 0 {
		entity, err := parseEntityArg(fs.Arg(0))
		if err != nil {
			return err
		}
		entities = []models.EntityType{entity}
	}

	pipeline := make(map[models.EntityType][]models.StatusCount, len(entities))
	for _, entity := range entities {
		counts, err := app.Engine.Pipeline(app.context(), entity)
		if err != nil {
			return describe(err)
		}
		pipeline[entity] = counts
	}

	return app.emit(pipeline, func(w *tabwriter.Writer) {
		for _, entity := range entities {
			_, _ = fmt.Fprintf(w, "%s\n", strings.ToUpper(string(entity)))
			for _, c := range pipeline[entity] {
				_, _ = fmt.Fprintf(w, "  %s\t%d\t%s\n", app.label(entity, c.Status), c.Count, money(c.Value))
			}
		}
	})
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
