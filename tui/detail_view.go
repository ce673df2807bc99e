// ABOUTME: Detail view for the TUI board
// ABOUTME: Shows one record with its activity timeline and applies lifecycle keys
package tui

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/studiocrm/models"
	"github.com/harperreed/studiocrm/workflow"
)

var (
	fieldLabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Width(20)

	fieldValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	sectionStyle = lipgloss.NewStyle().Bold(true)
)

func (m Model) renderDetailView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(strings.ToUpper(string(m.entity)) + " DETAIL"))
	s.WriteString("\n\n")

	for _, f := range m.fields {
		s.WriteString(m.renderField(f[0], f[1]))
	}

	s.WriteString("\n")
	s.WriteString(sectionStyle.Render("NEXT"))
	s.WriteString("\n")
	next := m.nextStatuses()
	if len(next) == 0 {
		s.WriteString("  (none)\n")
	}
	for i, status := range next {
		s.WriteString(fmt.Sprintf("  %d. %s\n", i+1, m.label(status)))
	}

	s.WriteString("\n")
	s.WriteString(sectionStyle.Render("TIMELINE"))
	s.WriteString("\n")
	for _, a := range m.activities {
		s.WriteString(fmt.Sprintf("  • [%s] %s (%s)\n",
			a.CreatedAt.Local().Format("2006-01-02 15:04"), a.Description, a.PerformedBy))
	}

	s.WriteString("\n")
	if m.message != "" {
		s.WriteString(messageStyle.Render(m.message))
		s.WriteString("\n")
	}
	s.WriteString(m.renderDetailHelp())

	return s.String()
}

func (m Model) renderField(label, value string) string {
	if value == "" {
		value = "-"
	}
	return fmt.Sprintf("%s %s\n",
		fieldLabelStyle.Render(label+":"),
		fieldValueStyle.Render(value))
}

func (m Model) renderDetailHelp() string {
	help := []string{"Esc: Back", "1-9: Move to next status"}
	if workflow.Archivable(m.entity) {
		if m.detail.Status == models.StatusArchived {
			help = append(help, "r: Restore")
		} else {
			help = append(help, "a: Archive")
		}
	}
	help = append(help, "g: Graph", "q: Quit")
	return helpStyle.Render(strings.Join(help, " • "))
}

// nextStatuses lists the allowed targets from the record's status.
func (m Model) nextStatuses() []string {
	if m.detail.Status == models.StatusArchived {
		return nil
	}
	return workflow.Allowed(m.entity, m.detail.Status)
}

func (m Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "esc":
		m.viewMode = ViewList
		m.message = ""
		m.reload()
		return m, nil
	case "a":
		if workflow.Archivable(m.entity) && m.detail.Status != models.StatusArchived {
			m.viewMode = ViewConfirmArchive
		}
		return m, nil
	case "r":
		if m.detail.Status == models.StatusArchived {
			if _, err := m.engine.Restore(m.ctx, m.entity, m.selectedID, m.detail.Version); err != nil {
				m.fail(err)
			} else {
				m.message = "Restored"
			}
			m.loadDetail()
		}
		return m, nil
	case "g":
		m.openGraph()
		return m, nil
	}

	if n, err := strconv.Atoi(key); err == nil && n >= 1 {
		next := m.nextStatuses()
		if n > len(next) {
			return m, nil
		}
		target := next[n-1]
		if _, err := m.engine.Transition(m.ctx, m.entity, m.selectedID, target, m.detail.Version); err != nil {
			m.fail(err)
		} else {
			m.message = "Moved to " + m.label(target)
		}
		m.loadDetail()
	}

	return m, nil
}

// loadDetail fetches the selected record and its timeline.
func (m *Model) loadDetail() {
	m.fields = nil
	switch m.entity {
	case models.EntityLead:
		lead, err := m.engine.GetLead(m.ctx, m.selectedID)
		if err != nil {
			m.fail(err)
			return
		}
		m.detail = row{ID: lead.ID, Status: lead.Status, Version: lead.Version}
		m.fields = [][2]string{
			{"Name", lead.Name},
			{"Email", lead.Email},
			{"Phone", lead.Phone},
			{"Company", lead.Company},
			{"Status", m.label(lead.Status)},
			{"Priority", lead.Priority},
			{"Value", money(lead.EstimatedValue)},
			{"Source", lead.Source},
			{"Message", lead.Message},
		}
		if lead.IsConverted() {
			m.fields = append(m.fields, [2]string{"Client", lead.ConvertedToClientID.String()})
		}
	case models.EntityClient:
		client, err := m.engine.GetClient(m.ctx, m.selectedID)
		if err != nil {
			m.fail(err)
			return
		}
		m.detail = row{ID: client.ID, Status: client.Status, Version: client.Version}
		m.fields = [][2]string{
			{"Name", client.Name},
			{"Email", client.Email},
			{"Phone", client.Phone},
			{"Company", client.Company},
			{"Status", m.label(client.Status)},
			{"Notes", client.Notes},
		}
	case models.EntityEngagement:
		e, err := m.engine.GetEngagement(m.ctx, m.selectedID)
		if err != nil {
			m.fail(err)
			return
		}
		m.detail = row{ID: e.ID, Status: e.Status, Version: e.Version}
		m.fields = [][2]string{
			{"Title", e.Title},
			{"Status", m.label(e.Status)},
			{"Value", money(e.Value)},
			{"Client", e.ClientID.String()},
			{"Description", e.Description},
		}
		if e.DueDate != nil {
			m.fields = append(m.fields, [2]string{"Due", e.DueDate.Format("2006-01-02")})
		}
	}

	activities, err := m.engine.ListActivities(m.ctx, m.entity, m.selectedID)
	if err != nil {
		m.fail(err)
		return
	}
	m.activities = activities
}
