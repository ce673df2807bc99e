// ABOUTME: Archive confirmation view for TUI
// ABOUTME: Confirms archiving the open lead or client before applying it
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	confirmBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("214")).
			Padding(1, 2).
			Width(60).
			Align(lipgloss.Center)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	confirmButtonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("214")).
				Padding(0, 2).
				MarginRight(2)

	cancelButtonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("8")).
				Padding(0, 2)
)

func (m Model) renderConfirmArchiveView() string {
	name := ""
	if len(m.fields) > 0 {
		name = m.fields[0][1]
	}

	title := warningStyle.Render("ARCHIVE CONFIRMATION")
	message := fmt.Sprintf("Archive this %s?", m.entity)
	info := fmt.Sprintf("\n%s: %s\n", strings.ToUpper(string(m.entity)), name)
	note := fmt.Sprintf("\nIt can be restored to %s later.", m.label(m.detail.Status))

	buttons := lipgloss.JoinHorizontal(
		lipgloss.Left,
		confirmButtonStyle.Render("Yes, Archive (y)"),
		cancelButtonStyle.Render("Cancel (n/esc)"),
	)

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		title,
		"",
		message,
		info,
		note,
		"",
		buttons,
	)

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		confirmBoxStyle.Render(content),
	)
}

func (m Model) handleConfirmArchiveKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		if _, err := m.engine.Archive(m.ctx, m.entity, m.selectedID, m.detail.Version); err != nil {
			m.fail(err)
		} else {
			m.message = "Archived"
		}
		m.viewMode = ViewDetail
		m.loadDetail()
	case "n", "N", "esc":
		m.viewMode = ViewDetail
	}

	return m, nil
}
