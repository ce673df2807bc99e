// ABOUTME: Terminal User Interface using bubbletea framework
// ABOUTME: Tabbed lifecycle board over leads, clients and engagements
package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/harperreed/studiocrm/config"
	"github.com/harperreed/studiocrm/engine"
	"github.com/harperreed/studiocrm/models"
)

// ViewMode represents the current TUI view
type ViewMode int

const (
	ViewList ViewMode = iota
	ViewDetail
	ViewGraph
	ViewConfirmArchive
)

// listLimit caps how many records one tab loads.
const listLimit = 200

// row is one table line plus what lifecycle keys need to act on it.
type row struct {
	ID      uuid.UUID
	Status  string
	Version string
	Cells   []string
}

// Model is the main bubbletea model
type Model struct {
	engine  *engine.Engine
	display *config.Display
	lang    string
	ctx     context.Context

	viewMode ViewMode
	entity   models.EntityType

	// List view state
	rows         []row
	selectedRow  int
	showArchived bool

	// Detail view state
	selectedID uuid.UUID
	detail     row
	fields     [][2]string
	activities []models.Activity

	// Graph view state
	graphDOT    string
	graphReturn ViewMode

	// message is the outcome of the last action, shown under the view.
	message string

	width  int
	height int
	err    error
}

// NewModel creates a new TUI model on the leads tab.
func NewModel(eng *engine.Engine, display *config.Display) Model {
	if display == nil {
		display = config.DefaultDisplay()
	}
	m := Model{
		engine:   eng,
		display:  display,
		lang:     "en",
		ctx:      context.Background(),
		viewMode: ViewList,
		entity:   models.EntityLead,
		width:    80,
		height:   24,
	}
	m.reload()
	return m
}

// Run starts the board in the alternate screen.
func Run(eng *engine.Engine, display *config.Display) error {
	p := tea.NewProgram(NewModel(eng, display), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	switch m.viewMode {
	case ViewList:
		return m.renderListView()
	case ViewDetail:
		return m.renderDetailView()
	case ViewGraph:
		return m.renderGraphView()
	case ViewConfirmArchive:
		return m.renderConfirmArchiveView()
	}
	return ""
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "q":
		if m.viewMode != ViewConfirmArchive {
			return m, tea.Quit
		}
	}

	switch m.viewMode {
	case ViewList:
		return m.handleListKeys(msg)
	case ViewDetail:
		return m.handleDetailKeys(msg)
	case ViewGraph:
		return m.handleGraphKeys(msg)
	case ViewConfirmArchive:
		return m.handleConfirmArchiveKeys(msg)
	}

	return m, nil
}

// fail records err as the visible message.
func (m *Model) fail(err error) {
	m.err = err
	env := engine.ToEnvelope(err)
	m.message = "Error: " + string(env.Code) + ": " + env.Message
}

func (m *Model) label(status string) string {
	return m.display.Label(m.entity, status, m.lang)
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			MarginBottom(1)

	tabActiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Background(lipgloss.Color("235")).
			Padding(0, 2)

	tabInactiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Padding(0, 2)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1)

	messageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))
)
