// ABOUTME: Activity feed subcommand
// ABOUTME: Prints recent activities from the Redis feed and optionally follows new ones
package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/harperreed/studiocrm/models"
)

// ActivityFeed is the read side of the published activity stream.
type ActivityFeed interface {
	Recent(ctx context.Context, limit int) ([]models.Activity, error)
	Subscribe(ctx context.Context) (<-chan models.Activity, error)
}

// FeedCommand lists the latest published activities, newest first.
func FeedCommand(app *App, feed ActivityFeed, args []string) error {
	fs := flag.NewFlagSet("feed", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "Number of recent activities")
	follow := fs.Bool("follow", false, "Keep printing new activities until interrupted")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if feed == nil {
		return fmt.Errorf("activity feed requires REDIS_URL")
	}

	ctx := app.context()
	recent, err := feed.Recent(ctx, *limit)
	if err != nil {
		return fmt.Errorf("failed to read feed: %w", err)
	}
	if err := app.emit(recent, func(w *tabwriter.Writer) {
		if len(recent) == 0 {
			_, _ = fmt.Fprintln(w, "No recent activity")
			return
		}
		for _, a := range recent {
			writeActivity(w, a)
		}
	}); err != nil {
		return err
	}

	if !*follow {
		return nil
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	stream, err := feed.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}
	for a := range stream {
		if err := app.emit(a, func(w *tabwriter.Writer) { writeActivity(w, a) }); err != nil {
			return err
		}
	}
	return nil
}

func writeActivity(w *tabwriter.Writer, a models.Activity) {
	_, _ = fmt.Fprintf(w, "%s\t%s %s\t%s\t%s\n",
		a.CreatedAt.Local().Format("2006-01-02 15:04"), a.EntityType, shortID(a.EntityID), a.Type, a.Description)
}
