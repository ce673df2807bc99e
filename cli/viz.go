// ABOUTME: Visualization CLI commands
// ABOUTME: Handles the terminal dashboard and status graph generation
package cli

import (
	"flag"
	"fmt"
	"os"

	"github.com/harperreed/studiocrm/viz"
)

// VizGraphCommand writes the DOT status graph for one entity type.
// Usage: viz graph <lead|client|engagement> [--output file]
func VizGraphCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("viz graph", flag.ContinueOnError)
	output := fs.String("output", "", "Output file (default: stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("usage: viz graph <lead|client|engagement> [--output file]")
	}

	entity, err := parseEntityArg(fs.Arg(0))
	if err != nil {
		return err
	}

	ctx := app.context()
	counts, err := app.Engine.Pipeline(ctx, entity)
	if err != nil {
		return describe(err)
	}

	generator := viz.NewGraphGenerator(app.Display, app.Lang)
	dot, err := generator.GenerateTransitionGraph(ctx, entity, counts)
	if err != nil {
		return err
	}

	if *output != "" {
		return os.WriteFile(*output, []byte(dot), 0644)
	}

	_, err = fmt.Fprintln(app.Out, dot)
	return err
}

// VizDashboardCommand prints the pipeline dashboard for every entity type.
func VizDashboardCommand(app *App, args []string) error {
	stats, err := viz.GenerateDashboardStats(app.context(), app.Engine)
	if err != nil {
		return fmt.Errorf("failed to generate dashboard stats: %w", err)
	}

	if app.JSON {
		return app.emit(stats, nil)
	}
	_, err = fmt.Fprint(app.Out, viz.RenderDashboard(stats, app.Display, app.Lang))
	return err
}
