package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/ytmeta/internal/models"
	"github.com/desertthunder/ytmeta/internal/tasks"
)

const (
	defaultWidth  = 100
	defaultHeight = 30
	maxLogLines   = 1000
	chromeLines   = 6 // title, counts, separators and help
)

// rowState is the latest known state of one input row.
type rowState struct {
	index   int
	videoID string
	state   models.JobState
	reason  string
}

// Model is the live status view of one update run.
type Model struct {
	keys keyMap
	help help.Model

	table    table.Model
	viewport viewport.Model
	width    int
	height   int

	rows     []rowState
	position map[int]int
	lines    []string

	stop     func()
	stopping bool
	done     bool
	summary  tasks.Summary
}

// NewModel creates a model with every row Ready. stop is called at most once, on 's' or quit.
func NewModel(rows []models.Row, stop func()) *Model {
	m := &Model{
		keys:     newKeyMap(),
		help:     help.New(),
		rows:     make([]rowState, len(rows)),
		position: make(map[int]int, len(rows)),
		stop:     stop,
		width:    defaultWidth,
		height:   defaultHeight,
	}
	for i, row := range rows {
		m.position[row.Index] = i
		m.rows[i] = rowState{index: row.Index, videoID: row.VideoID, state: models.Ready}
	}

	m.table = table.New(
		table.WithColumns(columns(defaultWidth)),
		table.WithFocused(true),
	)
	m.viewport = viewport.New(defaultWidth, 0)
	m.resize()
	m.refreshTable()
	return m
}

func columns(width int) []table.Column {
	reason := max(width-4-6-14-12-8, 10)
	return []table.Column{
		{Title: "Row", Width: 6},
		{Title: "Video", Width: 14},
		{Title: "State", Width: 12},
		{Title: "Reason", Width: reason},
	}
}

// Init implements [tea.Model]. Events arrive from the pipeline, so there is nothing to start.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case Msg:
		switch msg.kind {
		case MsgStatus:
			m.applyStatus(msg.data.(tasks.StatusUpdate))
		case MsgLog:
			m.appendLog(msg.data.(tasks.LogLine))
		case MsgRunDone:
			m.done = true
			m.summary = msg.data.(tasks.Summary)
		}
		return m, nil
	}

	return m, nil
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		stop := m.requestStop()
		return m, func() tea.Msg {
			if stop != nil {
				stop()
			}
			return tea.Quit()
		}
	case key.Matches(msg, m.keys.stop):
		if stop := m.requestStop(); stop != nil {
			return m, func() tea.Msg { stop(); return nil }
		}
		return m, nil
	case key.Matches(msg, m.keys.help):
		m.help.ShowAll = !m.help.ShowAll
		m.resize()
		return m, nil
	case key.Matches(msg, m.keys.logUp, m.keys.logDown):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// requestStop marks the model as stopping and returns the stop callback to run, at most once.
//
// Callers run it in a command, off the event loop.
func (m *Model) requestStop() func() {
	if m.stopping || m.done {
		return nil
	}
	m.stopping = true
	return m.stop
}

func (m *Model) applyStatus(u tasks.StatusUpdate) {
	i, ok := m.position[u.Index]
	if !ok {
		return
	}
	m.rows[i].state = u.State
	m.rows[i].reason = u.Reason
	m.refreshTable()
}

func (m *Model) appendLog(l tasks.LogLine) {
	m.lines = append(m.lines, l.String())
	if len(m.lines) > maxLogLines {
		m.lines = m.lines[len(m.lines)-maxLogLines:]
	}

	follow := m.viewport.AtBottom()
	m.viewport.SetContent(strings.Join(m.lines, "\n"))
	if follow {
		m.viewport.GotoBottom()
	}
}

func (m *Model) refreshTable() {
	rows := make([]table.Row, len(m.rows))
	for i, r := range m.rows {
		rows[i] = table.Row{strconv.Itoa(r.index + 1), r.videoID, r.state.String(), r.reason}
	}
	m.table.SetRows(rows)
}

// resize splits the height between the row table and the log viewport.
func (m *Model) resize() {
	helpLines := 1
	if m.help.ShowAll {
		helpLines = 3
	}
	body := max(m.height-chromeLines-helpLines, 4)
	tableHeight := max(body/2, 2)

	m.table.SetColumns(columns(m.width))
	m.table.SetHeight(tableHeight)
	m.table.SetWidth(m.width)
	m.viewport.Width = m.width
	m.viewport.Height = max(body-tableHeight, 2)
	m.help.Width = m.width
}

// Counts returns the number of rows in each state.
func (m *Model) Counts() map[models.JobState]int {
	counts := map[models.JobState]int{}
	for _, r := range m.rows {
		counts[r.state]++
	}
	return counts
}

// View renders the row table, the log and the key help.
func (m *Model) View() string {
	title := styles.title.Render("ytmeta: updating videos")
	if m.done {
		title = styles.title.Render("ytmeta: update finished")
	} else if m.stopping {
		title = styles.title.Render("ytmeta: stopping after in-flight rows")
	}

	counts := m.Counts()
	parts := make([]string, 0, 4)
	for _, st := range []models.JobState{models.Ready, models.Updating, models.Completed, models.Failed} {
		parts = append(parts, styles.State(st).Render(fmt.Sprintf("%s %d", st, counts[st])))
	}
	status := strings.Join(parts, "  ")
	if m.done {
		status += "  " + styles.help.Render(fmt.Sprintf("(%d skipped)", m.summary.Skipped))
	}

	rule := styles.help.Render(strings.Repeat("─", max(m.width, 1)))
	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		status,
		m.table.View(),
		rule,
		m.viewport.View(),
		rule,
		m.help.View(m.keys),
	)
}
