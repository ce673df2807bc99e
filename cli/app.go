// ABOUTME: Shared state and output helpers for CLI commands
// ABOUTME: Switches between tab-aligned tables on a terminal and JSON when piped
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/harperreed/studiocrm/config"
	"github.com/harperreed/studiocrm/engine"
	"github.com/harperreed/studiocrm/models"
	"golang.org/x/term"
)

// App carries what every command needs.
type App struct {
	Engine  *engine.Engine
	Display *config.Display
	Out     io.Writer
	// Warn receives notices that must not mix into Out. Nil discards them.
	Warn io.Writer
	// JSON selects machine-readable output.
	JSON bool
	Lang string
	Ctx  context.Context
}

// NewApp writes to stdout and picks JSON output when stdout is not a terminal.
func NewApp(eng *engine.Engine, display *config.Display) *App {
	if display == nil {
		display = config.DefaultDisplay()
	}
	return &App{
		Engine:  eng,
		Display: display,
		Out:     os.Stdout,
		Warn:    os.Stderr,
		JSON:    !term.IsTerminal(int(os.Stdout.Fd())),
		Lang:    "en",
		Ctx:     context.Background(),
	}
}

func (a *App) warnf(format string, args ...any) {
	if a.Warn != nil {
		_, _ = fmt.Fprintf(a.Warn, "warning: "+format+"\n", args...)
	}
}

func (a *App) context() context.Context {
	if a.Ctx == nil {
		return context.Background()
	}
	return a.Ctx
}

// emit prints v as JSON or hands a tabwriter to human.
func (a *App) emit(v any, human func(w *tabwriter.Writer)) error {
	if a.JSON {
		enc := json.NewEncoder(a.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	w := tabwriter.NewWriter(a.Out, 0, 0, 2, ' ', 0)
	human(w)
	return w.Flush()
}

func (a *App) label(entity models.EntityType, status string) string {
	return a.Display.Label(entity, status, a.Lang)
}

// commandError prints the envelope form of an engine error and keeps it unwrappable.
type commandError struct {
	msg string
	err error
}

func (e *commandError) Error() string { return e.msg }
func (e *commandError) Unwrap() error { return e.err }

// describe turns an engine error into a one-line message with field details.
func describe(err error) error {
	env := engine.ToEnvelope(err)
	msg := fmt.Sprintf("%s: %s", env.Code, env.Message)
	if len(env.FieldErrors) > 0 {
		parts := make([]string, 0, len(env.FieldErrors))
		for field, problem := range env.FieldErrors {
			parts = append(parts, field+" "+problem)
		}
		sort.Strings(parts)
		msg += " (" + strings.Join(parts, "; ") + ")"
	}
	return &commandError{msg: msg, err: err}
}

func parseEntityArg(value string) (models.EntityType, error) {
	entity, ok := models.ParseEntityType(strings.ToLower(value))
	if !ok {
		return "", fmt.Errorf("unknown entity type %q (valid: lead, client, engagement)", value)
	}
	return entity, nil
}

func parseIDArg(value string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(value))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid ID %q: %w", value, err)
	}
	return id, nil
}

// versionFor returns supplied when set, otherwise the record's current version.
// The fallback skips the conflict check, so it is announced on Warn.
// An empty supplied version means "whatever is stored now".
func (a *App) versionFor(entity models.EntityType, id uuid.UUID, supplied string) (string, error) {
	if supplied != "" {
		return supplied, nil
	}
	a.warnf("no --version given for %s %s; using the current version without a conflict check", entity, shortID(id))
	ctx := a.context()
	switch entity {
	case models.EntityLead:
		lead, err := a.Engine.GetLead(ctx, id)
		if err != nil {
			return "", describe(err)
		}
		return lead.Version, nil
	case models.EntityClient:
		client, err := a.Engine.GetClient(ctx, id)
		if err != nil {
			return "", describe(err)
		}
		return client.Version, nil
	case models.EntityEngagement:
		engagement, err := a.Engine.GetEngagement(ctx, id)
		if err != nil {
			return "", describe(err)
		}
		return engagement.Version, nil
	}
	return "", fmt.Errorf("unknown entity type %q", entity)
}

func money(minor int64) string {
	return fmt.Sprintf("₪%.2f", float64(minor)/100.0)
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
