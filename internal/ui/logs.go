package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/hublink/internal/logtail"
)

const (
	logTailLines  = 200
	logPaneHeight = 10
)

// logState holds the log pane.
type logState struct {
	visible bool
	lines   []string
	err     error
	follow  bool
}

type logsLoadedMsg struct {
	lines []string
	err   error
}

func readLogsCmd(path string) tea.Cmd {
	if path == "" {
		return nil
	}
	return func() tea.Msg {
		lines, err := logtail.Read(path, logTailLines)
		return logsLoadedMsg{lines: logtail.FormatLines(lines), err: err}
	}
}

func (m *Model) initLogViewport() {
	m.logViewport = viewport.New(m.logPaneWidth(), logPaneHeight)
	m.logState.follow = true
}

func (m *Model) resizeLogViewport() {
	m.logViewport.Width = m.logPaneWidth()
	m.logViewport.Height = logPaneHeight
}

func (m Model) logPaneWidth() int {
	if m.width <= 4 {
		return 80
	}
	return m.width - 4
}

func (m *Model) handleLogsLoaded(msg logsLoadedMsg) {
	m.logState.err = msg.err
	if msg.err != nil {
		return
	}
	m.logState.lines = msg.lines
	m.logViewport.SetContent(strings.Join(msg.lines, "\n"))
	if m.logState.follow {
		m.logViewport.GotoBottom()
	}
}

// scrollLogs forwards navigation keys to the viewport. Scrolling away from
// the bottom pauses follow mode; returning to it resumes.
func (m *Model) scrollLogs(msg tea.KeyMsg) tea.Cmd {
	var cmd tea.Cmd
	m.logViewport, cmd = m.logViewport.Update(msg)
	m.logState.follow = m.logViewport.AtBottom()
	return cmd
}

func (m Model) renderLogs() string {
	styles := m.theme.Styles()

	title := styles.AccentText.Bold(true).Render("Logs")
	if m.logPath != "" {
		title += " " + styles.FaintText.Render(truncateMiddle(m.logPath, 48))
	}
	if !m.logState.follow {
		title += " " + styles.WarningText.Render("(paused)")
	}

	var body string
	switch {
	case m.logState.err != nil:
		body = styles.DangerText.Render(m.logState.err.Error())
	case len(m.logState.lines) == 0:
		body = styles.FaintText.Render("No log records yet.")
	default:
		body = m.logViewport.View()
	}

	pane := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), true, false, false, false).
		BorderForeground(lipgloss.Color(m.theme.BorderMuted)).
		Width(m.logPaneWidth())
	return pane.Render(title + "\n" + body)
}

// truncateMiddle shortens s to max runes by replacing its middle with "…".
func truncateMiddle(s string, max int) string {
	r := []rune(s)
	if max <= 1 || len(r) <= max {
		return s
	}
	head := (max - 1) / 2
	tail := max - 1 - head
	return string(r[:head]) + "…" + string(r[len(r)-tail:])
}
