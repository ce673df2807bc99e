// ABOUTME: Entry point for the studiocrm CLI, HTTP API, MCP server and TUI
// ABOUTME: Loads configuration, opens the store, builds the engine and routes to a command
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/harperreed/studiocrm/cli"
	"github.com/harperreed/studiocrm/config"
	"github.com/harperreed/studiocrm/db"
	"github.com/harperreed/studiocrm/engine"
	"github.com/harperreed/studiocrm/metrics"
	"github.com/harperreed/studiocrm/notify"
	"github.com/harperreed/studiocrm/tui"
	"github.com/harperreed/studiocrm/web"
)

const version = "0.1.0"

// crmCommands maps `studiocrm crm <name>` to its handler.
var crmCommands = map[string]func(*cli.App, []string) error{
	"add-lead":         cli.AddLeadCommand,
	"list-leads":       cli.ListLeadsCommand,
	"update-lead":      cli.UpdateLeadCommand,
	"convert":          cli.ConvertCommand,
	"add-client":       cli.AddClientCommand,
	"list-clients":     cli.ListClientsCommand,
	"add-note":         cli.AddNoteCommand,
	"add-engagement":   cli.AddEngagementCommand,
	"list-engagements": cli.ListEngagementsCommand,
	"transition":       cli.TransitionCommand,
	"archive":          cli.ArchiveCommand,
	"restore":          cli.RestoreCommand,
	"bulk":             cli.BulkCommand,
	"activities":       cli.ActivitiesCommand,
	"pipeline":         cli.PipelineCommand,
}

func main() {
	// Global flags
	showVersion := flag.Bool("version", false, "Show version and exit")
	dbPath := flag.String("db-path", "", "SQLite database path (default: $XDG_DATA_HOME/studiocrm/crm.db)")
	actor := flag.String("actor", "", "Performer recorded on activities (default: $STUDIOCRM_ACTOR or admin)")
	lang := flag.String("lang", "en", "Status label language (en or he)")
	jsonOut := flag.Bool("json", false, "Force JSON output")
	initOnly := flag.Bool("init", false, "Initialize database and exit")

	// Parse global flags but don't fail on unknown (for subcommands)
	_ = flag.CommandLine.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("studiocrm version %s\n", version)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 && !*initOnly {
		printUsage()
		os.Exit(0)
	}

	cfg := config.Load()
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	if *actor != "" {
		cfg.Actor = *actor
	}

	ctx := context.Background()
	store, err := db.Open(ctx, cfg.DatabaseURL, cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() { _ = store.Close() }()

	if *initOnly {
		log.Printf("Database initialized successfully (%s)", cfg.Backend())
		return
	}

	display := config.DefaultDisplay()
	if cfg.DisplayPath != "" {
		display, err = config.LoadDisplay(cfg.DisplayPath)
		if err != nil {
			log.Fatalf("Failed to load display config: %v", err)
		}
	}

	collector := metrics.New()
	opts := []engine.Option{
		engine.WithLogger(log.Default()),
		engine.WithObserver(collector),
		engine.WithDefaultActor(cfg.Actor),
	}

	var feed cli.ActivityFeed
	if cfg.RedisURL != "" {
		redisFeed, err := notify.NewRedisFeed(cfg.RedisURL)
		if err != nil {
			log.Printf("Activity feed disabled: %v", err)
		} else {
			defer func() { _ = redisFeed.Close() }()
			opts = append(opts, engine.WithPublisher(redisFeed))
			feed = redisFeed
		}
	}

	eng := engine.New(store, opts...)
	app := cli.NewApp(eng, display)
	app.Lang = *lang
	app.Ctx = ctx
	if *jsonOut {
		app.JSON = true
	}

	command := args[0]
	commandArgs := args[1:]

	switch command {
	case "mcp":
		if err := cli.MCPCommand(ctx, eng, display); err != nil {
			log.Fatalf("MCP server failed: %v", err)
		}

	case "serve":
		if err := cli.ServeCommand(app, cfg.Addr, commandArgs,
			web.WithMetrics(collector.Handler()),
			web.WithHealthCheck(store.Ping),
		); err != nil {
			log.Fatalf("HTTP server failed: %v", err)
		}

	case "tui":
		if err := tui.Run(eng, display); err != nil {
			log.Fatalf("TUI failed: %v", err)
		}

	case "feed":
		if err := cli.FeedCommand(app, feed, commandArgs); err != nil {
			log.Fatalf("Error: %v", err)
		}

	case "crm":
		if len(commandArgs) == 0 {
			fmt.Println("Error: crm requires a subcommand")
			printUsage()
			os.Exit(1)
		}

		run, ok := crmCommands[commandArgs[0]]
		if !ok {
			fmt.Printf("Unknown crm command: %s\n\n", commandArgs[0])
			printUsage()
			os.Exit(1)
		}
		if err := run(app, commandArgs[1:]); err != nil {
			log.Fatalf("Error: %v", err)
		}

	case "viz":
		if len(commandArgs) == 0 {
			fmt.Println("Error: viz requires a subcommand")
			printUsage()
			os.Exit(1)
		}

		switch commandArgs[0] {
		case "graph":
			if err := cli.VizGraphCommand(app, commandArgs[1:]); err != nil {
				log.Fatalf("Error: %v", err)
			}
		case "dashboard":
			if err := cli.VizDashboardCommand(app, commandArgs[1:]); err != nil {
				log.Fatalf("Error: %v", err)
			}
		default:
			fmt.Printf("Unknown viz command: %s\n\n", commandArgs[0])
			printUsage()
			os.Exit(1)
		}

	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf(`studiocrm v%s - lead, client and engagement lifecycle manager

USAGE:
  studiocrm [global flags] <command> [subcommand] [flags]

GLOBAL FLAGS:
  --version              Show version and exit
  --db-path <path>       SQLite path (default: $XDG_DATA_HOME/studiocrm/crm.db)
  --actor <name>         Performer recorded on activities
  --lang <en|he>         Status label language (default: en)
  --json                 Force JSON output (default when stdout is not a terminal)
  --init                 Initialize database and exit

ENVIRONMENT (.env is read when present):
  DATABASE_URL             Use Postgres instead of SQLite
  STUDIOCRM_DB_PATH        SQLite path
  STUDIOCRM_ADDR           HTTP listen address (default: :8080)
  STUDIOCRM_ACTOR          Default performer (default: admin)
  STUDIOCRM_DISPLAY_CONFIG JSON file overriding status labels and colors
  REDIS_URL                Publish activities to Redis

COMMANDS:
  crm                    Record and lifecycle commands
  serve [--addr :8080]   Start the HTTP JSON API
  mcp                    Start MCP server on stdio
  tui                    Interactive board
  viz                    Visualization commands
  feed [--follow]        Show recent activities from Redis

CRM COMMANDS:
  studiocrm crm add-lead --name <name> [--email --phone --company --message --source --priority --value]
  studiocrm crm list-leads [--status s] [--query q] [--archived] [--limit n]
  studiocrm crm update-lead [flags] <id>
  studiocrm crm convert [--title t] [--description d] [--value v] [--due YYYY-MM-DD] <lead-id>

  studiocrm crm add-client --name <name> [--email --phone --company --notes]
  studiocrm crm list-clients [--status s] [--query q] [--archived]
  studiocrm crm add-note <client-id> <note>
  studiocrm crm add-engagement --client <id> --title <title> [--value v] [--start d] [--due d]
  studiocrm crm list-engagements [--client id] [--status s]

  studiocrm crm transition <lead|client|engagement> <id> <status>
  studiocrm crm archive <lead|client> <id>
  studiocrm crm restore <lead|client> <id>
  studiocrm crm bulk --action <archive|status_change> [--status s] [--versions id=v,...] <entity> <id>...
  studiocrm crm activities <entity> <id>
  studiocrm crm pipeline [entity]

  Mutating commands accept --version <token>. Without it the current
  stored version is used. Flags must come before positional arguments.

VIZ COMMANDS:
  studiocrm viz graph <lead|client|engagement> [--output file]
  studiocrm viz dashboard

EXAMPLES:
  studiocrm crm add-lead --name "Noa Levi" --email noa@example.com --value 500000
  studiocrm crm transition lead 3f2a... contacted
  studiocrm viz graph lead | dot -Tpng > lead.png

`, version)
}
