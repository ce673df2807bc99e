// ABOUTME: Demo data seeder for studiocrm databases
// ABOUTME: Creates leads, clients and engagements through the engine so every record has a timeline
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/harperreed/studiocrm/config"
	"github.com/harperreed/studiocrm/db"
	"github.com/harperreed/studiocrm/engine"
	"github.com/harperreed/studiocrm/models"
)

type seedLead struct {
	input engine.LeadInput
	// path is walked in order from the initial status.
	path    []string
	convert bool
	archive bool
}

var demoLeads = []seedLead{
	{input: engine.LeadInput{Name: "Noa Shapira", Email: "noa@shapira.co.il", Company: "Shapira Bakery", Source: "website", Message: "Need a new logo and menu design", EstimatedValue: 850000}},
	{input: engine.LeadInput{Name: "Eitan Mizrahi", Email: "eitan@mizrahi-law.com", Company: "Mizrahi Law", Source: "referral", Priority: models.PriorityHigh, EstimatedValue: 2400000},
		path: []string{models.LeadStatusContacted, models.LeadStatusQualified}},
	{input: engine.LeadInput{Name: "Tamar Ben-David", Email: "tamar@bdarch.io", Company: "BD Architects", Source: "instagram", EstimatedValue: 1600000},
		path: []string{models.LeadStatusContacted, models.LeadStatusQualified, models.LeadStatusProposalSent}},
	{input: engine.LeadInput{Name: "Yossi Katz", Email: "yossi@katzcoffee.com", Company: "Katz Coffee", Source: "website", Priority: models.PriorityHigh, EstimatedValue: 1200000},
		path: []string{models.LeadStatusContacted, models.LeadStatusQualified, models.LeadStatusProposalSent, models.LeadStatusWon}, convert: true},
	{input: engine.LeadInput{Name: "Dana Peretz", Email: "dana@peretz.studio", Source: "cold email", Priority: models.PriorityLow, EstimatedValue: 300000},
		path: []string{models.LeadStatusLost}},
	{input: engine.LeadInput{Name: "Amir Haddad", Email: "amir@haddad.net", Source: "website", EstimatedValue: 500000},
		path: []string{models.LeadStatusContacted}, archive: true},
}

func main() {
	dbPath := flag.String("db", "", "Path to database file (default: XDG data dir)")
	dryRun := flag.Bool("dry-run", false, "Show what would be created without writing")
	backup := flag.Bool("backup", true, "Back up an existing database before seeding")
	flag.Parse()

	cfg := config.Load()
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	if err := seed(context.Background(), cfg, *dryRun, *backup); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
}

func seed(ctx context.Context, cfg config.Config, dryRun, createBackup bool) error {
	if dryRun {
		for _, l := range demoLeads {
			final := models.LeadStatusNew
			if len(l.path) > 0 {
				final = l.path[len(l.path)-1]
			}
			log.Printf("[dry-run] lead %s -> %s (convert=%v archive=%v)", l.input.Name, final, l.convert, l.archive)
		}
		log.Println("[dry-run] client Galil Winery with 2 engagements")
		return nil
	}

	if createBackup && cfg.DatabaseURL == "" {
		if err := backupFile(cfg.DBPath); err != nil {
			return err
		}
	}

	store, err := db.Open(ctx, cfg.DatabaseURL, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	eng := engine.New(store, engine.WithDefaultActor("seed"))

	for _, l := range demoLeads {
		if err := seedOne(ctx, eng, l); err != nil {
			return fmt.Errorf("lead %s: %w", l.input.Name, err)
		}
	}

	client, err := eng.CreateClient(ctx, engine.ClientInput{
		Name:    "Galil Winery",
		Email:   "office@galilwinery.co.il",
		Company: "Galil Winery",
		Notes:   "Long-standing client, prefers phone calls",
	})
	if err != nil {
		return fmt.Errorf("client: %w", err)
	}

	due := time.Now().AddDate(0, 1, 0)
	labels, err := eng.CreateEngagement(ctx, engine.EngagementInput{
		ClientID: client.ID, Title: "Label redesign", Value: 1800000, DueDate: &due,
	})
	if err != nil {
		return fmt.Errorf("engagement: %w", err)
	}
	if _, err := eng.Transition(ctx, models.EntityEngagement, labels.ID, models.EngagementStatusInProgress, labels.Version); err != nil {
		return fmt.Errorf("engagement transition: %w", err)
	}
	if _, err := eng.CreateEngagement(ctx, engine.EngagementInput{
		ClientID: client.ID, Title: "Harvest festival poster", Value: 400000,
	}); err != nil {
		return fmt.Errorf("engagement: %w", err)
	}

	log.Printf("Seeded %d leads and demo clients into %s", len(demoLeads), cfg.Backend())
	return nil
}

func seedOne(ctx context.Context, eng *engine.Engine, l seedLead) error {
	lead, err := eng.CreateLead(ctx, l.input)
	if err != nil {
		return err
	}
	version := lead.Version

	for _, status := range l.path {
		record, err := eng.Transition(ctx, models.EntityLead, lead.ID, status, version)
		if err != nil {
			return err
		}
		version = record.(*models.Lead).Version
	}

	if l.convert {
		if _, err := eng.Convert(ctx, lead.ID, version, nil); err != nil {
			return err
		}
	}
	if l.archive {
		if _, err := eng.Archive(ctx, models.EntityLead, lead.ID, version); err != nil {
			return err
		}
	}
	return nil
}

func backupFile(path string) error {
	input, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read database: %w", err)
	}

	backupPath := fmt.Sprintf("%s.backup.%s", path, time.Now().Format("20060102-150405"))
	log.Printf("Creating backup: %s", backupPath)
	if err := os.WriteFile(backupPath, input, 0644); err != nil {
		return fmt.Errorf("failed to create backup: %w", err)
	}
	return nil
}
