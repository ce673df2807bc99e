// ABOUTME: GraphViz visualization MCP handlers
// ABOUTME: Provides the generate_graph tool rendering a transition graph with live counts
package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/harperreed/studiocrm/engine"
	"github.com/harperreed/studiocrm/viz"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type VizHandlers struct {
	engine    *engine.Engine
	generator *viz.GraphGenerator
}

func NewVizHandlers(eng *engine.Engine, generator *viz.GraphGenerator) *VizHandlers {
	return &VizHandlers{engine: eng, generator: generator}
}

type GenerateGraphInput struct {
	EntityType string `json:"entity_type" jsonschema:"lead, client, or engagement (required)"`
}

type GenerateGraphOutput struct {
	EntityType string `json:"entity_type"`
	DOTSource  string `json:"dot_source"`
	NodeCount  int    `json:"node_count"`
	EdgeCount  int    `json:"edge_count"`
}

func (h *VizHandlers) GenerateGraph(ctx context.Context, request *mcp.CallToolRequest, input GenerateGraphInput) (*mcp.CallToolResult, GenerateGraphOutput, error) {
	entity, err := parseEntity(input.EntityType)
	if err != nil {
		return nil, GenerateGraphOutput{}, err
	}

	counts, err := h.engine.Pipeline(ctx, entity)
	if err != nil {
		return nil, GenerateGraphOutput{}, toolError(err)
	}

	dot, err := h.generator.GenerateTransitionGraph(ctx, entity, counts)
	if err != nil {
		return nil, GenerateGraphOutput{}, fmt.Errorf("failed to generate graph: %w", err)
	}

	return nil, GenerateGraphOutput{
		EntityType: string(entity),
		DOTSource:  dot,
		NodeCount:  len(counts),
		EdgeCount:  strings.Count(dot, "->"),
	}, nil
}
