// ABOUTME: Terminal dashboard statistics and rendering
// ABOUTME: Provides a text pipeline overview for leads, clients and engagements
package viz

import (
	"context"
	"fmt"
	"strings"

	"github.com/harperreed/studiocrm/config"
	"github.com/harperreed/studiocrm/models"
)

// PipelineSource supplies zero-filled status buckets per entity type.
type PipelineSource interface {
	Pipeline(ctx context.Context, entity models.EntityType) ([]models.StatusCount, error)
}

type DashboardStats struct {
	Pipelines map[models.EntityType][]models.StatusCount
	Totals    map[models.EntityType]int

	// OpenLeadValue sums estimated value of leads not yet won, lost or archived.
	OpenLeadValue int64
	WonLeadValue  int64
	// ActiveWork sums engagement value that is neither completed nor cancelled.
	ActiveWork int64
}

func GenerateDashboardStats(ctx context.Context, source PipelineSource) (*DashboardStats, error) {
	stats := &DashboardStats{
		Pipelines: make(map[models.EntityType][]models.StatusCount, len(models.EntityTypes)),
		Totals:    make(map[models.EntityType]int, len(models.EntityTypes)),
	}

	for _, entity := range models.EntityTypes {
		buckets, err := source.Pipeline(ctx, entity)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %s pipeline: %w", entity, err)
		}
		stats.Pipelines[entity] = buckets
		for _, b := range buckets {
			stats.Totals[entity] += b.Count
			switch entity {
			case models.EntityLead:
				switch b.Status {
				case models.LeadStatusWon:
					stats.WonLeadValue += b.Value
				case models.LeadStatusLost, models.StatusArchived:
				default:
					stats.OpenLeadValue += b.Value
				}
			case models.EntityEngagement:
				if b.Status != models.EngagementStatusCompleted && b.Status != models.EngagementStatusCancelled {
					stats.ActiveWork += b.Value
				}
			}
		}
	}
	return stats, nil
}

func RenderDashboard(stats *DashboardStats, display *config.Display, lang string) string {
	if display == nil {
		display = config.DefaultDisplay()
	}
	var out strings.Builder

	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	out.WriteString("  STUDIO CRM DASHBOARD\n")
	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

	for _, entity := range models.EntityTypes {
		out.WriteString(fmt.Sprintf("%s PIPELINE\n", strings.ToUpper(string(entity))))
		renderPipeline(&out, entity, stats.Pipelines[entity], display, lang)
		out.WriteString("\n")
	}

	out.WriteString("STATS\n")
	out.WriteString(fmt.Sprintf("  %d leads  %d clients  %d engagements\n",
		stats.Totals[models.EntityLead], stats.Totals[models.EntityClient], stats.Totals[models.EntityEngagement]))
	out.WriteString(fmt.Sprintf("  open leads %s  won %s  active work %s\n",
		FormatMoney(stats.OpenLeadValue), FormatMoney(stats.WonLeadValue), FormatMoney(stats.ActiveWork)))

	return out.String()
}

func renderPipeline(out *strings.Builder, entity models.EntityType, buckets []models.StatusCount, display *config.Display, lang string) {
	maxCount := 0
	for _, b := range buckets {
		if b.Count > maxCount {
			maxCount = b.Count
		}
	}
	if maxCount == 0 {
		maxCount = 1
	}

	for _, b := range buckets {
		barLength := (b.Count * 10) / maxCount
		bar := strings.Repeat("█", barLength) + strings.Repeat("░", 10-barLength)

		line := fmt.Sprintf("  %-15s %s  %2d", display.Label(entity, b.Status, lang), bar, b.Count)
		if entity != models.EntityClient {
			line += fmt.Sprintf(" (%s)", FormatMoney(b.Value))
		}
		out.WriteString(line + "\n")
	}
}

// FormatMoney renders minor units as whole currency with a thousands suffix.
func FormatMoney(minor int64) string {
	major := minor / 100
	if major >= 1000 || major <= -1000 {
		return fmt.Sprintf("₪%dK", major/1000)
	}
	return fmt.Sprintf("₪%d", major)
}
