// ABOUTME: Graph view for TUI
// ABOUTME: Shows the DOT source of the current tab's status graph with counts
package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/studiocrm/viz"
)

func (m Model) renderGraphView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("GRAPH VIEW"))
	s.WriteString("\n\n")

	if m.graphDOT == "" {
		s.WriteString("No graph available\n")
		if m.message != "" {
			s.WriteString(messageStyle.Render(m.message))
			s.WriteString("\n")
		}
	} else {
		s.WriteString(lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Render(m.graphDOT))
	}

	s.WriteString("\n\n")
	s.WriteString(m.renderGraphHelp())

	return s.String()
}

func (m Model) renderGraphHelp() string {
	help := []string{
		"Esc: Back",
		"q: Quit",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleGraphKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "esc" {
		m.graphDOT = ""
		m.viewMode = m.graphReturn
	}
	return m, nil
}

// openGraph renders the current tab's status graph and switches to it.
func (m *Model) openGraph() {
	m.graphReturn = m.viewMode
	m.viewMode = ViewGraph
	m.graphDOT = ""

	counts, err := m.engine.Pipeline(m.ctx, m.entity)
	if err != nil {
		m.fail(err)
		return
	}
	dot, err := viz.NewGraphGenerator(m.display, m.lang).GenerateTransitionGraph(m.ctx, m.entity, counts)
	if err != nil {
		m.fail(err)
		return
	}
	m.graphDOT = dot
}
