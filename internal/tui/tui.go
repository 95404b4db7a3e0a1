// Package tui is the interactive scan browser behind `openport scan --tui`.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pratik-anurag/openport/internal/model"
	"github.com/pratik-anurag/openport/internal/report"
)

var (
	colorRisky = lipgloss.Color("#FF4500")
	colorSafe  = lipgloss.Color("#00FF7F")

	styleRisky = lipgloss.NewStyle().
			Foreground(colorRisky).
			Bold(true)

	styleSafe = lipgloss.NewStyle().
			Foreground(colorSafe).
			Bold(true)

	styleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#25A065")).
			Padding(0, 2)

	styleHelp = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	styleDetail = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(colorRisky).
			Padding(0, 1)
)

// KeyMap defines the key bindings
type KeyMap struct {
	RiskyOnly key.Binding
	Quit      key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		RiskyOnly: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "toggle risky only"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c", "esc"),
			key.WithHelp("q", "quit"),
		),
	}
}

var columns = []table.Column{
	{Title: "Proto", Width: 5},
	{Title: "Local", Width: 24},
	{Title: "Remote", Width: 24},
	{Title: "Status", Width: 11},
	{Title: "PID", Width: 7},
	{Title: "Process", Width: 15},
	{Title: "Service", Width: 13},
	{Title: "Security", Width: 8},
}

// Model browses annotated records. The records themselves are never
// modified; the risky filter only changes which rows are shown.
type Model struct {
	all       []model.AnnotatedRecord
	visible   []model.AnnotatedRecord
	summary   report.Summary
	riskyOnly bool
	keyMap    KeyMap
	table     table.Model
}

func New(recs []model.AnnotatedRecord, sum report.Summary) Model {
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	m := Model{all: recs, summary: sum, keyMap: DefaultKeyMap(), table: t}
	m.updateRows()
	return m
}

func (m *Model) updateRows() {
	m.visible = make([]model.AnnotatedRecord, 0, len(m.all))
	for _, r := range m.all {
		if m.riskyOnly && !r.Security.IsRisky() {
			continue
		}
		m.visible = append(m.visible, r)
	}

	rows := make([]table.Row, 0, len(m.visible))
	for _, r := range m.visible {
		sec := "Safe"
		if r.Security.IsRisky() {
			sec = "RISKY"
		}
		rows = append(rows, table.Row{
			string(r.Protocol),
			truncate(r.LocalEndpoint(), 24),
			truncate(r.RemoteEndpoint(), 24),
			r.Status,
			r.PID.String(),
			truncate(r.ProcessName, 15),
			truncate(r.ServiceName, 13),
			sec,
		})
	}
	m.table.SetRows(rows)
	if len(rows) > 0 && m.table.Cursor() >= len(rows) {
		m.table.SetCursor(len(rows) - 1)
	}
}

// Selected returns the record under the cursor.
func (m Model) Selected() (model.AnnotatedRecord, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.visible) {
		return model.AnnotatedRecord{}, false
	}
	return m.visible[i], true
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if h := msg.Height - 14; h > 3 {
			m.table.SetHeight(h)
		}

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keyMap.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keyMap.RiskyOnly):
			m.riskyOnly = !m.riskyOnly
			m.updateRows()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View implements tea.Model
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(styleHeader.Render("openport"))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Total: %d  │  %s %d  │  TCP: %d  UDP: %d",
		m.summary.Total, styleRisky.Render("Risky:"), m.summary.Risky, m.summary.TCP, m.summary.UDP)
	if m.riskyOnly {
		b.WriteString("  │  " + styleRisky.Render("risky only"))
	}
	b.WriteString("\n\n")

	if len(m.visible) == 0 {
		b.WriteString("No open ports found.\n\n")
	} else {
		b.WriteString(m.table.View())
		b.WriteString("\n\n")
	}

	if r, ok := m.Selected(); ok {
		b.WriteString(detail(r))
		b.WriteString("\n")
	}

	b.WriteString(styleHelp.Render("[↑/↓] Move  [r] Risky only  [q] Quit"))
	return lipgloss.NewStyle().Margin(1, 2).Render(b.String())
}

func detail(r model.AnnotatedRecord) string {
	if !r.Security.IsRisky() {
		return styleSafe.Render("Safe") + " " + model.NoActionNeeded + "\n"
	}
	body := fmt.Sprintf("%s %s on port %s\nRisk: %s\nFix:  %s\nRule: %s",
		styleRisky.Render("RISKY"), r.ServiceName, r.LocalPort, r.Security.Reason(),
		r.Remediation, r.FirewallCommand)
	return styleDetail.Render(body) + "\n"
}

// Run starts the full-screen program and blocks until the user quits.
func Run(recs []model.AnnotatedRecord, sum report.Summary) error {
	_, err := tea.NewProgram(New(recs, sum), tea.WithAltScreen()).Run()
	return err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
