// Package tui is a terminal viewer for the latest snapshot.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ikaadil/any-currency-to-bdt/internal/domain"
)

// Loader fetches the snapshot to display.
type Loader func(ctx context.Context) (*domain.Snapshot, error)

type snapshotMsg struct {
	snap *domain.Snapshot
	err  error
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	tabStyle    = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("245"))
	activeStyle = tabStyle.Foreground(lipgloss.Color("230")).Background(lipgloss.Color("62")).Bold(true)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// title, tabs, blank lines and help around the table
const (
	chromeLines    = 9
	minTableHeight = 3
)

type Model struct {
	load  Loader
	snap  *domain.Snapshot
	err   error
	codes []string
	idx   int
	table table.Model
}

func New(load Loader) Model {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "#", Width: 3},
			{Title: "Provider", Width: 16},
			{Title: "Rate", Width: 10},
			{Title: "Fee", Width: 10},
			{Title: "Delivery", Width: 34},
		}),
		table.WithFocused(true),
		table.WithHeight(16),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.Bold(true).BorderStyle(lipgloss.NormalBorder()).BorderBottom(true)
	s.Selected = s.Selected.Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))
	t.SetStyles(s)

	return Model{load: load, codes: domain.CurrencyCodes(), table: t}
}

func (m Model) Init() tea.Cmd {
	return m.reload()
}

func (m Model) reload() tea.Cmd {
	load := m.load
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		snap, err := load(ctx)
		return snapshotMsg{snap: snap, err: err}
	}
}

// Currency is the code currently shown.
func (m Model) Currency() string {
	return m.codes[m.idx]
}

// SetSize fits the table to a terminal of the given size.
func (m *Model) SetSize(width, height int) {
	if width > 0 {
		m.table.SetWidth(width)
	}
	if h := height - chromeLines; h >= minTableHeight {
		m.table.SetHeight(h)
	} else if height > 0 {
		m.table.SetHeight(minTableHeight)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case snapshotMsg:
		m.snap, m.err = msg.snap, msg.err
		m.refreshRows()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "right", "l", "tab":
			m.idx = (m.idx + 1) % len(m.codes)
			m.refreshRows()
			return m, nil
		case "left", "h", "shift+tab":
			m.idx = (m.idx - 1 + len(m.codes)) % len(m.codes)
			m.refreshRows()
			return m, nil
		case "r":
			return m, m.reload()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *Model) refreshRows() {
	var rows []table.Row
	if m.snap != nil {
		code := m.Currency()
		for i, r := range m.snap.Rates[code] {
			fee := "—"
			if r.Fee != nil {
				fee = fmt.Sprintf("%.2f %s", *r.Fee, code)
			}
			rows = append(rows, table.Row{
				fmt.Sprintf("%d", i+1),
				r.Provider,
				fmt.Sprintf("%.3f", r.Rate),
				fee,
				r.Delivery,
			})
		}
	}
	m.table.SetRows(rows)
	m.table.SetCursor(0)
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Remittance rates to BDT"))
	b.WriteString("\n\n")

	tabs := make([]string, 0, len(m.codes))
	for i, code := range m.codes {
		if i == m.idx {
			tabs = append(tabs, activeStyle.Render(code))
			continue
		}
		tabs = append(tabs, tabStyle.Render(code))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tabs...))
	b.WriteString("\n\n")

	switch {
	case m.err != nil:
		b.WriteString(errStyle.Render("error: " + m.err.Error()))
	case m.snap == nil:
		b.WriteString("Loading…")
	case len(m.snap.Rates[m.Currency()]) == 0:
		b.WriteString("No rates available.")
	default:
		b.WriteString(m.table.View())
	}
	b.WriteString("\n\n")

	if m.snap != nil {
		b.WriteString(helpStyle.Render("updated " + m.snap.UpdatedAt.Format("2006-01-02 15:04 UTC") + " · "))
	}
	b.WriteString(helpStyle.Render("←/→ currency · ↑/↓ select · r reload · q quit"))
	b.WriteByte('\n')
	return b.String()
}
