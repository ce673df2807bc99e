// ABOUTME: List view for the TUI board
// ABOUTME: Renders one tab per entity type and loads its records through the engine
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/studiocrm/db"
	"github.com/harperreed/studiocrm/models"
)

func (m Model) renderListView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("STUDIO CRM"))
	s.WriteString("\n\n")

	s.WriteString(m.renderTabs())
	s.WriteString("\n\n")

	s.WriteString(m.renderTable())
	s.WriteString("\n")

	if m.message != "" {
		s.WriteString(messageStyle.Render(m.message))
		s.WriteString("\n")
	}
	s.WriteString(m.renderListHelp())

	return s.String()
}

func (m Model) renderTabs() string {
	var rendered []string
	for _, entity := range models.EntityTypes {
		tab := strings.ToUpper(string(entity[:1])) + string(entity[1:]) + "s"
		if entity == m.entity {
			rendered = append(rendered, tabActiveStyle.Render(tab))
		} else {
			rendered = append(rendered, tabInactiveStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (m Model) columns() []table.Column {
	switch m.entity {
	case models.EntityClient:
		return []table.Column{
			{Title: "Name", Width: 28},
			{Title: "Company", Width: 22},
			{Title: "Status", Width: 14},
		}
	case models.EntityEngagement:
		return []table.Column{
			{Title: "Title", Width: 30},
			{Title: "Status", Width: 14},
			{Title: "Value", Width: 12},
			{Title: "Due", Width: 12},
		}
	}
	return []table.Column{
		{Title: "Name", Width: 24},
		{Title: "Company", Width: 20},
		{Title: "Status", Width: 16},
		{Title: "Value", Width: 12},
	}
}

func (m Model) renderTable() string {
	if m.err != nil && len(m.rows) == 0 {
		return fmt.Sprintf("Error: %v", m.err)
	}

	tableRows := make([]table.Row, 0, len(m.rows))
	for _, r := range m.rows {
		tableRows = append(tableRows, table.Row(r.Cells))
	}

	height := m.height - 10
	if height < 3 {
		height = 3
	}
	t := table.New(
		table.WithColumns(m.columns()),
		table.WithRows(tableRows),
		table.WithFocused(true),
		table.WithHeight(height),
	)
	if m.selectedRow < len(tableRows) {
		t.SetCursor(m.selectedRow)
	}
	return t.View()
}

func (m Model) renderListHelp() string {
	help := []string{
		"↑/↓: Navigate",
		"Tab: Switch tabs",
		"Enter: View details",
		"h: Toggle archived",
		"g: Graph",
		"q: Quit",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.selectedRow > 0 {
			m.selectedRow--
		}
	case "down", "j":
		if m.selectedRow < len(m.rows)-1 {
			m.selectedRow++
		}
	case "tab":
		m.entity = nextEntity(m.entity)
		m.selectedRow = 0
		m.message = ""
		m.reload()
	case "h":
		m.showArchived = !m.showArchived
		m.selectedRow = 0
		m.reload()
	case "g":
		m.openGraph()
	case "enter":
		if r, ok := m.selected(); ok {
			m.selectedID = r.ID
			m.viewMode = ViewDetail
			m.message = ""
			m.loadDetail()
		}
	}

	return m, nil
}

func nextEntity(current models.EntityType) models.EntityType {
	for i, entity := range models.EntityTypes {
		if entity == current {
			return models.EntityTypes[(i+1)%len(models.EntityTypes)]
		}
	}
	return models.EntityLead
}

// selected returns the row under the cursor.
func (m Model) selected() (row, bool) {
	if m.selectedRow < 0 || m.selectedRow >= len(m.rows) {
		return row{}, false
	}
	return m.rows[m.selectedRow], true
}

// reload fetches the current tab's records.
func (m *Model) reload() {
	filter := db.ListFilter{IncludeArchived: m.showArchived, Limit: listLimit}
	m.err = nil
	m.rows = nil

	switch m.entity {
	case models.EntityLead:
		leads, err := m.engine.ListLeads(m.ctx, filter)
		if err != nil {
			m.fail(err)
			return
		}
		for _, l := range leads {
			m.rows = append(m.rows, row{ID: l.ID, Status: l.Status, Version: l.Version,
				Cells: []string{l.Name, l.Company, m.label(l.Status), money(l.EstimatedValue)}})
		}
	case models.EntityClient:
		clients, err := m.engine.ListClients(m.ctx, filter)
		if err != nil {
			m.fail(err)
			return
		}
		for _, c := range clients {
			m.rows = append(m.rows, row{ID: c.ID, Status: c.Status, Version: c.Version,
				Cells: []string{c.Name, c.Company, m.label(c.Status)}})
		}
	case models.EntityEngagement:
		engagements, err := m.engine.ListEngagements(m.ctx, filter)
		if err != nil {
			m.fail(err)
			return
		}
		for _, e := range engagements {
			due := ""
			if e.DueDate != nil {
				due = e.DueDate.Format("2006-01-02")
			}
			m.rows = append(m.rows, row{ID: e.ID, Status: e.Status, Version: e.Version,
				Cells: []string{e.Title, m.label(e.Status), money(e.Value), due}})
		}
	}

	if m.selectedRow >= len(m.rows) {
		m.selectedRow = len(m.rows) - 1
	}
	if m.selectedRow < 0 {
		m.selectedRow = 0
	}
}

func money(minor int64) string {
	return fmt.Sprintf("₪%d", minor/100)
}
