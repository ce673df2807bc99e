// ABOUTME: HTTP server subcommand
// ABOUTME: Serves the JSON API until interrupted, then shuts down gracefully
package cli

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/harperreed/studiocrm/web"
)

// ServeCommand runs the HTTP API. Extra server options come from main,
// which owns the metrics collector and the store health check.
func ServeCommand(app *App, defaultAddr string, args []string, opts ...web.Option) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	addr := fs.String("addr", defaultAddr, "Listen address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(app.context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := web.NewServer(app.Engine, app.Display, opts...)
	log.Printf("studiocrm API listening on %s", *addr)
	if err := server.Start(ctx, *addr); err != nil {
		return err
	}
	log.Println("studiocrm API stopped")
	return nil
}
