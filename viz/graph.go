// ABOUTME: GraphViz rendering of the status transition graphs
// ABOUTME: Nodes carry display labels, colors and per-status record counts
package viz

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"
	"github.com/harperreed/studiocrm/config"
	"github.com/harperreed/studiocrm/models"
	"github.com/harperreed/studiocrm/workflow"
)

type GraphGenerator struct {
	display *config.Display
	lang    string
}

// NewGraphGenerator labels nodes in lang ("he" or "en").
func NewGraphGenerator(display *config.Display, lang string) *GraphGenerator {
	if display == nil {
		display = config.DefaultDisplay()
	}
	return &GraphGenerator{display: display, lang: lang}
}

// GenerateTransitionGraph renders the graph of entity as DOT source.
// counts may be nil; statuses missing from it are shown with zero records.
func (g *GraphGenerator) GenerateTransitionGraph(ctx context.Context, entity models.EntityType, counts []models.StatusCount) (string, error) {
	if len(workflow.Statuses(entity)) == 0 {
		return "", fmt.Errorf("unknown entity type: %s", entity)
	}

	gv, err := graphviz.New(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create graphviz instance: %w", err)
	}
	defer gv.Close()

	graph, err := gv.Graph()
	if err != nil {
		return "", fmt.Errorf("failed to create graph: %w", err)
	}
	defer graph.Close()

	graph.SetRankDir(cgraph.LRRank)
	graph.SetLabel(fmt.Sprintf("%s lifecycle", entity))

	byStatus := make(map[string]int, len(counts))
	for _, c := range counts {
		byStatus[c.Status] = c.Count
	}

	initial := workflow.InitialStatus(entity)
	nodes := make(map[string]*cgraph.Node)
	for _, status := range workflow.Statuses(entity) {
		node, err := graph.CreateNodeByName(status)
		if err != nil {
			return "", fmt.Errorf("failed to create node %s: %w", status, err)
		}
		stage := g.display.Stage(entity, status)
		label := stage.LabelHE
		if g.lang == "en" {
			label = stage.LabelEN
		}
		node.SetLabel(fmt.Sprintf("%s\n(%d)", label, byStatus[status]))
		node.SetFillColor(stage.Color)

		switch {
		case status == models.StatusArchived:
			node.SetShape("box")
			node.SetStyle("dashed")
		case workflow.IsTerminal(entity, status):
			node.SetShape("doublecircle")
			node.SetStyle("filled")
		case status == initial:
			node.SetShape("box")
			node.SetStyle("filled,bold")
		default:
			node.SetShape("box")
			node.SetStyle("filled")
		}
		nodes[status] = node
	}

	for _, edge := range workflow.Edges(entity) {
		if _, err := graph.CreateEdgeByName(edge.From+"->"+edge.To, nodes[edge.From], nodes[edge.To]); err != nil {
			return "", fmt.Errorf("failed to create edge %s->%s: %w", edge.From, edge.To, err)
		}
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, graphviz.XDOT, &buf); err != nil {
		return "", fmt.Errorf("failed to render graph: %w", err)
	}
	return buf.String(), nil
}
