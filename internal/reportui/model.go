// Package reportui provides the Bubble Tea report browser.
package reportui

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/cinestat/cinestat/internal/report"
)

const (
	tabOverview = iota
	tabYears
	tabGenres
	tabTopTitles
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

// Model implements the Bubble Tea report browser over emitted tables.
type Model struct {
	summariesDir string

	tables map[string]report.Table
	errMsg string

	tabs      []string
	activeTab int
	viewports []viewport.Model
	topTable  table.Model

	width  int
	height int
}

// NewModel constructs a report browser reading tables from summariesDir.
func NewModel(summariesDir string) *Model {
	m := &Model{
		summariesDir: summariesDir,
		tabs:         []string{"Overview", "Years", "Genres", "Top 20"},
		tables:       map[string]report.Table{},
	}
	m.viewports = make([]viewport.Model, len(m.tabs))
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
	}
	m.topTable = table.New()
	m.loadTables()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderTabContents()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.String() == "q" {
			return m, tea.Quit
		}
		switch msg.String() {
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "g", "home":
			if m.activeTab == tabTopTitles {
				m.topTable.GotoTop()
			} else {
				m.viewports[m.activeTab].GotoTop()
			}
			return m, nil
		case "G", "end":
			if m.activeTab == tabTopTitles {
				m.topTable.GotoBottom()
			} else {
				m.viewports[m.activeTab].GotoBottom()
			}
			return m, nil
		default:
			if m.activeTab == tabTopTitles {
				var cmd tea.Cmd
				m.topTable, cmd = m.topTable.Update(msg)
				return m, cmd
			}
			vp := m.viewports[m.activeTab]
			var cmd tea.Cmd
			vp, cmd = vp.Update(msg)
			m.viewports[m.activeTab] = vp
			return m, cmd
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) loadTables() {
	names := []string{
		report.TableMoviesPerYear,
		report.TableYearlyRatings,
		report.TableGenreRatings,
		report.TableTopByVotes,
		report.TableRuntimeBins,
		report.TablePopularityBands,
	}
	for _, name := range names {
		t, err := report.ReadTableCSV(m.summariesDir, name)
		if err != nil {
			m.errMsg = fmt.Sprintf("failed to load %s: run the analysis first", name)
			continue
		}
		m.tables[name] = t
	}
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := lipgloss.Height(activeNavStyle.Render("X"))
	if tabsHeight < 1 {
		tabsHeight = 1
	}
	headerHeight = tabsHeight
	footerHeight = 1
	if m.errMsg != "" {
		footerHeight++
	}
	bodyHeight = m.height - headerHeight - footerHeight
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	for i := range m.viewports {
		m.viewports[i].Width = m.width
		m.viewports[i].Height = bodyHeight
	}
	m.rebuildTopTable(m.width, bodyHeight)
}

func (m *Model) renderTabContents() {
	m.viewports[tabOverview].SetContent(m.overviewContent())
	m.viewports[tabYears].SetContent(m.yearsContent())
	m.viewports[tabGenres].SetContent(m.tableContent(report.TableGenreRatings))
}

func (m *Model) overviewContent() string {
	var buf bytes.Buffer
	for _, name := range []string{report.TableRuntimeBins, report.TablePopularityBands} {
		if t, ok := m.tables[name]; ok {
			if err := report.Render(&buf, t); err != nil {
				return err.Error()
			}
		}
	}
	if buf.Len() == 0 {
		return "No report found. Run the analysis first."
	}
	return buf.String()
}

func (m *Model) yearsContent() string {
	var buf bytes.Buffer
	if t, ok := m.tables[report.TableMoviesPerYear]; ok {
		if xs, ys, ok := yearSeries(t); ok {
			plotWidth := m.width / 2
			if err := report.LinePlot(&buf, "Rated movies per year", xs, ys, plotWidth, 10); err != nil {
				return err.Error()
			}
		}
	}
	if t, ok := m.tables[report.TableYearlyRatings]; ok {
		if err := report.Render(&buf, t); err != nil {
			return err.Error()
		}
	}
	if buf.Len() == 0 {
		return "No report found. Run the analysis first."
	}
	return buf.String()
}

func (m *Model) tableContent(name string) string {
	t, ok := m.tables[name]
	if !ok {
		return "No report found. Run the analysis first."
	}
	var buf bytes.Buffer
	if err := report.Render(&buf, t); err != nil {
		return err.Error()
	}
	return buf.String()
}

func yearSeries(t report.Table) ([]float64, []float64, bool) {
	xs := make([]float64, 0, len(t.Rows))
	ys := make([]float64, 0, len(t.Rows))
	for _, row := range t.Rows {
		if len(row) < 2 {
			continue
		}
		var year, count float64
		if _, err := fmt.Sscanf(row[0], "%f", &year); err != nil {
			continue
		}
		if _, err := fmt.Sscanf(row[1], "%f", &count); err != nil {
			continue
		}
		xs = append(xs, year)
		ys = append(ys, count)
	}
	return xs, ys, len(xs) > 0
}

func (m *Model) rebuildTopTable(width, height int) {
	t, ok := m.tables[report.TableTopByVotes]
	if !ok {
		return
	}
	idWidth, yearWidth, ratingWidth, votesWidth := 10, 6, 8, 12
	titleWidth := width - idWidth - yearWidth - ratingWidth - votesWidth - 10
	if titleWidth < 12 {
		titleWidth = 12
	}
	columns := []table.Column{
		{Title: "ID", Width: idWidth},
		{Title: "Title", Width: titleWidth},
		{Title: "Year", Width: yearWidth},
		{Title: "Rating", Width: ratingWidth},
		{Title: "Votes", Width: votesWidth},
	}
	rows := make([]table.Row, 0, len(t.Rows))
	for _, row := range t.Rows {
		if len(row) < 5 {
			continue
		}
		rows = append(rows, table.Row{row[0], row[1], row[2], row[3], row[4]})
	}
	m.topTable = table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithHeight(maxInt(height-1, 1)),
		table.WithFocused(true),
	)
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	if count == 0 {
		return
	}
	next := m.activeTab + delta
	if next < 0 {
		next = count - 1
	}
	if next >= count {
		next = 0
	}
	m.activeTab = next
	if m.activeTab == tabTopTitles {
		m.topTable.Focus()
	} else {
		m.topTable.Blur()
	}
}

func (m *Model) renderHeader() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderBody() string {
	if m.activeTab == tabTopTitles {
		if _, ok := m.tables[report.TableTopByVotes]; !ok {
			return "No report found. Run the analysis first."
		}
		return tableMutedStyle.Render(m.topTable.View())
	}
	return m.viewports[m.activeTab].View()
}

func (m *Model) renderFooter() string {
	help := headerStyle.Render("Nav: left/right  Scroll: up/down/pgup/pgdn  Quit: q")
	if m.errMsg != "" {
		return help + "\n" + errorStyle.Render(m.errMsg)
	}
	return help
}

func fitLines(content string, width, height int) string {
	lines := strings.Split(content, "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	for i, line := range lines {
		if lipgloss.Width(line) > width {
			lines[i] = lipgloss.NewStyle().MaxWidth(width).Render(line)
		}
	}
	return strings.Join(lines, "\n")
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
