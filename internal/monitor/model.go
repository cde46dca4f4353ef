// Package monitor implements the Monitor: a read-only bubbletea TUI that
// periodically scans session state and the Status Channel and renders a
// live table of every session's phase, branch, isolation, and current
// agent activity (spec.md §4.7).
package monitor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/para-dev/para/internal/session"
	"github.com/para-dev/para/internal/state"
	"github.com/para-dev/para/internal/status"
)

// snapshotQueueDepth bounds the worker→UI channel; the scan goroutine drops
// the oldest pending snapshot rather than blocking when the UI falls behind.
const snapshotQueueDepth = 4

const refreshInterval = 2 * time.Second

// Row is one session's display state, joining a state.Record with its
// latest published status.Report.
type Row struct {
	Name         string
	Phase        state.Phase
	Branch       string
	Isolation    state.IsolationMode
	Task         string
	Tests        status.TestStatus
	Todos        status.Todos
	Blocked      bool
	Stale        bool
	LastActivity time.Time
}

// Snapshot is one scan's worth of rows, delivered worker→UI.
type Snapshot struct {
	Rows []Row
	Err  error
}

type snapshotMsg Snapshot

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("51"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// Model is the monitor's root tea.Model.
type Model struct {
	mgr        *session.Manager
	table      table.Model
	err        error
	lastScan   time.Time
	snapshotCh chan Snapshot
	quitting   bool
}

// New builds a Monitor model over mgr. Call tea.NewProgram(New(mgr)).Run().
func New(mgr *session.Manager) Model {
	columns := []table.Column{
		{Title: "NAME", Width: 20},
		{Title: "PHASE", Width: 10},
		{Title: "BRANCH", Width: 24},
		{Title: "ISOLATION", Width: 10},
		{Title: "TASK", Width: 24},
		{Title: "TESTS", Width: 8},
		{Title: "TODOS", Width: 7},
		{Title: "FLAGS", Width: 7},
		{Title: "LAST ACTIVITY", Width: 16},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Bold(true).Foreground(lipgloss.Color("51"))
	styles.Selected = styles.Selected.Bold(true).Foreground(lipgloss.Color("231")).Background(lipgloss.Color("62"))
	t.SetStyles(styles)

	return Model{
		mgr:        mgr,
		table:      t,
		snapshotCh: make(chan Snapshot, snapshotQueueDepth),
	}
}

// Init starts the background scan loop and begins listening for snapshots.
func (m Model) Init() tea.Cmd {
	go m.scanLoop()
	return waitForSnapshot(m.snapshotCh)
}

// scanLoop runs for the lifetime of the program, periodically scanning
// session state and publishing a Snapshot. It never blocks on a slow or
// absent reader: the channel send drops the stale pending snapshot (if
// any) and pushes the fresh one in its place.
func (m Model) scanLoop() {
	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()

	for {
		snap := scan(m.mgr)
		select {
		case m.snapshotCh <- snap:
		default:
			select {
			case <-m.snapshotCh:
			default:
			}
			m.snapshotCh <- snap
		}
		<-ticker.C
	}
}

func scan(mgr *session.Manager) Snapshot {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	recs, err := mgr.List(ctx, state.ScopeActive)
	if err != nil {
		return Snapshot{Err: err}
	}
	reports, err := mgr.StatusReports(ctx)
	if err != nil {
		return Snapshot{Err: err}
	}

	threshold := mgr.StatusStaleThreshold()
	now := time.Now()

	rows := make([]Row, 0, len(recs))
	for _, rec := range recs {
		row := Row{
			Name:         rec.Name,
			Phase:        rec.Phase,
			Branch:       rec.Branch,
			Isolation:    rec.Isolation,
			Tests:        status.TestsUnknown,
			LastActivity: rec.LastActivity,
		}
		if r, ok := reports[rec.Name]; ok {
			row.Task = r.Task
			row.Tests = r.Tests
			row.Todos = r.Todos
			row.Blocked = r.Blocked
			row.Stale = r.Stale(now, threshold)
		}
		rows = append(rows, row)
	}
	return Snapshot{Rows: rows}
}

func waitForSnapshot(ch chan Snapshot) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(<-ch)
	}
}

// Update handles tick/key/snapshot messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.table.SetHeight(max(5, msg.Height-6))
		return m, nil

	case snapshotMsg:
		m.err = msg.Err
		if msg.Err == nil {
			m.table.SetRows(toTableRows(msg.Rows))
			m.lastScan = time.Now()
		}
		return m, waitForSnapshot(m.snapshotCh)
	}

	return m, nil
}

func toTableRows(rows []Row) []table.Row {
	out := make([]table.Row, 0, len(rows))
	for _, r := range rows {
		task := r.Task
		if task == "" {
			task = "-"
		}
		todos := "-"
		if r.Todos.Total > 0 {
			todos = fmt.Sprintf("%d/%d", r.Todos.Completed, r.Todos.Total)
		}
		var flags []string
		if r.Blocked {
			flags = append(flags, "blocked")
		}
		if r.Stale {
			flags = append(flags, "stale")
		}
		flagStr := "-"
		if len(flags) > 0 {
			flagStr = strings.Join(flags, ",")
		}
		out = append(out, table.Row{
			r.Name,
			string(r.Phase),
			r.Branch,
			string(r.Isolation),
			task,
			string(r.Tests),
			todos,
			flagStr,
			r.LastActivity.Format("15:04:05"),
		})
	}
	return out
}

// View renders the session table.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.err != nil {
		return headerStyle.Render("para monitor") + "\n\n" +
			errorStyle.Render("scan failed: "+m.err.Error()) + "\n"
	}

	header := headerStyle.Render("para monitor") + "  " +
		dimStyle.Render("last scan "+m.lastScan.Format("15:04:05"))
	footer := dimStyle.Render("[q] quit")
	return header + "\n\n" + m.table.View() + "\n" + footer
}
