package ui

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/hublink/internal/connector"
	"github.com/five82/hublink/internal/prefs"
	"github.com/five82/hublink/internal/state"
)

// Connection is the part of *connector.Connector the widget drives.
type Connection interface {
	InitiateConnection(ctx context.Context, userID, orgID string) error
	VerifyConnection(ctx context.Context) error
	Disconnect()
	Status() connector.Status
	DisplayName() string
}

// Options configures the UI.
type Options struct {
	Context   context.Context
	Connector Connection
	Store     *state.Store
	Changes   <-chan connector.Status // transitions between ticks; optional
	Prefs     prefs.Prefs
	PrefsPath string
	ThemeName string
	UserID    string
	OrgID     string
	LogPath   string
	PollTick  time.Duration
	Logger    *slog.Logger
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	conn      Connection
	store     *state.Store
	changes   <-chan connector.Status
	prefsPath string
	logPath   string
	pollTick  time.Duration
	logger    *slog.Logger
	keys      keyMap
	now       func() time.Time

	// UI state
	theme    Theme
	width    int
	height   int
	ready    bool
	showHelp bool
	modal    Modal
	spinner  spinner.Model
	flash    string

	// Data state
	status   connector.Status
	snapshot state.Snapshot
	prefs    prefs.Prefs
	userID   string
	orgID    string

	// Log pane
	logViewport viewport.Model
	logState    logState
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	pollTick := opts.PollTick
	if pollTick <= 0 {
		pollTick = time.Second
	}

	themeName := opts.ThemeName
	if themeName == "" {
		themeName = opts.Prefs.Theme
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	user, org := strings.TrimSpace(opts.UserID), strings.TrimSpace(opts.OrgID)
	if user == "" && org == "" {
		user, org = opts.Prefs.Identity()
	}

	m := Model{
		ctx:       ctx,
		conn:      opts.Connector,
		store:     opts.Store,
		changes:   opts.Changes,
		prefsPath: opts.PrefsPath,
		logPath:   opts.LogPath,
		pollTick:  pollTick,
		logger:    logger,
		keys:      DefaultKeyMap(),
		now:       time.Now,
		theme:     GetTheme(themeName),
		spinner:   spinner.New(spinner.WithSpinner(spinner.Dot)),
		prefs:     opts.Prefs,
		userID:    user,
		orgID:     org,
	}
	m.prefs.Theme = m.theme.Name
	if m.conn != nil {
		m.status = m.conn.Status()
	}
	if m.store != nil {
		m.snapshot = m.store.Snapshot()
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tickCmd(m.pollTick),
		m.spinner.Tick,
	}
	if m.conn != nil {
		cmds = append(cmds, fetchStatusCmd(m.conn))
	}
	if m.changes != nil {
		cmds = append(cmds, waitForChange(m.changes))
	}
	if m.user() == "" || m.org() == "" {
		cmds = append(cmds, func() tea.Msg { return openIdentityMsg{} })
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.initLogViewport()
		}
		m.ready = true
		m.resizeLogViewport()
		return m, nil

	case tickMsg:
		return m.handleTick()

	case statusMsg:
		m.status = connector.Status(msg)
		return m, nil

	case changeMsg:
		m.status = connector.Status(msg)
		return m, waitForChange(m.changes)

	case snapshotMsg:
		m.snapshot = state.Snapshot(msg)
		return m, nil

	case actionDoneMsg:
		m.flash = actionFlash(msg.err)
		if m.conn != nil {
			m.status = m.conn.Status()
		}
		return m, nil

	case openIdentityMsg:
		if m.modal == nil {
			m.modal = newIdentityForm(m.userID, m.orgID)
			return m, textinput.Blink
		}
		return m, nil

	case identitySavedMsg:
		m.userID, m.orgID = msg.userID, msg.orgID
		m.prefs = m.prefs.WithIdentity(msg.userID, msg.orgID)
		m.savePrefs()
		m.flash = ""
		return m, nil

	case logsLoadedMsg:
		m.handleLogsLoaded(msg)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if m.modal != nil {
		modal, cmd, done := m.modal.Update(msg, m.keys)
		if done {
			m.modal = nil
		} else {
			m.modal = modal
		}
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Starting..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	if m.modal != nil {
		return m.modal.View(m.theme, m.width, m.height)
	}
	return m.renderMain()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.modal != nil {
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		modal, cmd, done := m.modal.Update(msg, m.keys)
		if done {
			m.modal = nil
		} else {
			m.modal = modal
		}
		return m, cmd
	}

	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.prefs.Theme = m.theme.Name
		m.savePrefs()
		return m, nil

	case key.Matches(msg, m.keys.Logs):
		m.logState.visible = !m.logState.visible
		if m.logState.visible {
			return m, readLogsCmd(m.logPath)
		}
		return m, nil

	case key.Matches(msg, m.keys.Connect):
		return m.toggleConnection()

	case key.Matches(msg, m.keys.Disconnect):
		return m.disconnect()

	case key.Matches(msg, m.keys.Verify):
		return m.verify()

	case key.Matches(msg, m.keys.Identity):
		return m, func() tea.Msg { return openIdentityMsg{} }
	}

	if m.logState.visible && m.isScrollKey(msg) {
		return m, m.scrollLogs(msg)
	}
	return m, nil
}

func (m Model) isScrollKey(msg tea.KeyMsg) bool {
	return key.Matches(msg, m.keys.Up, m.keys.Down, m.keys.PageUp, m.keys.PageDown)
}

// toggleConnection acts like the widget's single button: it starts an attempt
// when disconnected, disconnects when connected, and does nothing while busy.
func (m Model) toggleConnection() (tea.Model, tea.Cmd) {
	if m.conn == nil {
		return m, nil
	}
	st := m.conn.Status()
	m.status = st
	if st.Busy() {
		return m, nil
	}
	if st.State == connector.Connected {
		return m.disconnect()
	}

	m.flash = ""
	conn, ctx, user, org := m.conn, m.ctx, m.user(), m.org()
	return m, func() tea.Msg {
		return actionDoneMsg{err: conn.InitiateConnection(ctx, user, org)}
	}
}

func (m Model) disconnect() (tea.Model, tea.Cmd) {
	if m.conn == nil {
		return m, nil
	}
	m.flash = ""
	conn := m.conn
	return m, func() tea.Msg {
		conn.Disconnect()
		return actionDoneMsg{}
	}
}

func (m Model) verify() (tea.Model, tea.Cmd) {
	if m.conn == nil {
		return m, nil
	}
	st := m.conn.Status()
	m.status = st
	if st.Busy() {
		return m, nil
	}
	if st.State != connector.Connected {
		m.flash = actionFlash(connector.ErrNotConnected)
		return m, nil
	}
	m.flash = ""
	conn, ctx := m.conn, m.ctx
	return m, func() tea.Msg {
		return actionDoneMsg{err: conn.VerifyConnection(ctx)}
	}
}

// actionFlash maps errors the connector does not record in its status to a
// transient hint.
func actionFlash(err error) string {
	switch {
	case errors.Is(err, connector.ErrConnectionInProgress):
		return "A connection attempt is already running."
	case errors.Is(err, connector.ErrAlreadyConnected):
		return "Already connected. Disconnect first to reconnect."
	case errors.Is(err, connector.ErrNotConnected):
		return "Not connected."
	default:
		return ""
	}
}

func (m *Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	if err := prefs.Save(m.prefsPath, m.prefs); err != nil {
		m.logger.Warn("save prefs failed", "path", m.prefsPath, "error", err)
	}
}

func (m Model) user() string { return strings.TrimSpace(m.userID) }
func (m Model) org() string  { return strings.TrimSpace(m.orgID) }

func (m Model) displayName() string {
	if m.conn == nil {
		return "HubSpot"
	}
	return m.conn.DisplayName()
}

// handleTick processes the polling tick.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	if m.conn != nil {
		cmds = append(cmds, fetchStatusCmd(m.conn))
	}
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	if m.logState.visible && m.logState.follow {
		if cmd := readLogsCmd(m.logPath); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}

	cmds = append(cmds, tickCmd(m.pollTick))
	return m, tea.Batch(cmds...)
}

// renderMain renders the header, the widget card and the optional log pane.
func (m Model) renderMain() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")
	b.WriteString(m.renderWidget())
	b.WriteString("\n")
	b.WriteString(m.renderShortHelp())

	if m.logState.visible {
		b.WriteString("\n\n")
		b.WriteString(m.renderLogs())
	}
	return b.String()
}

// Messages

type tickMsg time.Time

type statusMsg connector.Status

type changeMsg connector.Status

type snapshotMsg state.Snapshot

type openIdentityMsg struct{}

type actionDoneMsg struct {
	err error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchStatusCmd(conn Connection) tea.Cmd {
	return func() tea.Msg {
		return statusMsg(conn.Status())
	}
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

// waitForChange blocks until the connector reports a transition. A closed
// channel ends the subscription.
func waitForChange(ch <-chan connector.Status) tea.Cmd {
	return func() tea.Msg {
		st, ok := <-ch
		if !ok {
			return nil
		}
		return changeMsg(st)
	}
}

// Run starts the Bubble Tea program. Cancelling opts.Context stops it.
func Run(opts Options) error {
	m := New(opts)
	progOpts := []tea.ProgramOption{tea.WithAltScreen()}
	if opts.Context != nil {
		progOpts = append(progOpts, tea.WithContext(opts.Context))
	}
	p := tea.NewProgram(m, progOpts...)
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && opts.Context != nil && opts.Context.Err() != nil {
		return nil
	}
	return err
}
