package ui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/deskhub/internal/events"
	"github.com/five82/deskhub/internal/hubsync"
	"github.com/five82/deskhub/internal/logtail"
	"github.com/five82/deskhub/internal/prefs"
	"github.com/five82/deskhub/internal/resource"
	"github.com/five82/deskhub/internal/state"
)

// View represents the current active view.
type View int

const (
	ViewTasks View = iota
	ViewNotifications
	ViewActions
	ViewConversations
	ViewHistory
	ViewLogs
	viewCount
)

// Kind returns the resource kind shown by v. The log view has none.
func (v View) Kind() (resource.Kind, bool) {
	switch v {
	case ViewTasks:
		return resource.Tasks, true
	case ViewNotifications:
		return resource.Notifications, true
	case ViewActions:
		return resource.Actions, true
	case ViewConversations:
		return resource.Conversations, true
	case ViewHistory:
		return resource.ConversationHistory, true
	}
	return 0, false
}

// Title is the tab label.
func (v View) Title() string {
	switch v {
	case ViewTasks:
		return "Tasks"
	case ViewNotifications:
		return "Notifications"
	case ViewActions:
		return "Actions"
	case ViewConversations:
		return "Conversations"
	case ViewHistory:
		return "History"
	case ViewLogs:
		return "Logs"
	}
	return ""
}

// Engine is the part of the sync engine the dashboard drives. Every method
// either publishes a request or blocks until the engine has handled it, so
// the model only calls them from commands.
type Engine interface {
	Refresh(kind resource.Kind)
	RefreshAll()
	SetRefreshMinutes(ctx context.Context, kind resource.Kind, minutes int) (int, error)
	SelectConversation(ctx context.Context, id string) error
	MarkNotificationRead(ctx context.Context, id string) error
	MarkAllNotificationsRead(ctx context.Context) error
	TaskAction(ctx context.Context, id, action string) error
	RunAction(ctx context.Context, id string) error
	SendMessage(ctx context.Context, text string) error
}

// Options configures the UI.
type Options struct {
	Context   context.Context
	Engine    Engine
	Store     *state.Store
	Events    <-chan events.Event // collection updates; nil disables live reload
	Prefs     prefs.Prefs
	PrefsPath string
	LogPath   string
	Logger    *slog.Logger
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	engine    Engine
	store     *state.Store
	events    <-chan events.Event
	prefs     prefs.Prefs
	prefsPath string
	logPath   string
	logger    *slog.Logger
	keys      keyMap

	// UI state
	theme       Theme
	currentView View
	width       int
	height      int
	ready       bool
	showHelp    bool

	// Data state
	snapshot state.Snapshot
	cursor   [viewCount]int

	// Compose state
	composing bool
	input     textinput.Model

	// Log state
	logViewport viewport.Model
	logTicking  bool

	// Footer message from the last command
	status      string
	statusError bool
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	input := textinput.New()
	input.Placeholder = "Message"
	input.CharLimit = 4000

	return Model{
		ctx:         ctx,
		engine:      opts.Engine,
		store:       opts.Store,
		events:      opts.Events,
		prefs:       opts.Prefs,
		prefsPath:   prefsPath,
		logPath:     opts.LogPath,
		logger:      logger.With("component", "ui"),
		keys:        DefaultKeyMap(),
		theme:       GetTheme(opts.Prefs.Theme),
		currentView: ViewTasks,
		input:       input,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{waitForEvent(m.events)}
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
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
			m.logViewport = viewport.New(msg.Width, m.bodyHeight())
		}
		m.ready = true
		m.logViewport.Width = msg.Width
		m.logViewport.Height = m.bodyHeight()
		m.input.Width = max(msg.Width-4, 10)
		return m, nil

	case eventMsg:
		// Any event may change published state: a refresh request flips the
		// fetching flag and an update replaces items.
		cmds := []tea.Cmd{waitForEvent(m.events)}
		if m.store != nil {
			cmds = append(cmds, fetchSnapshotCmd(m.store))
		}
		return m, tea.Batch(cmds...)

	case snapshotMsg:
		m.snapshot = state.Snapshot(msg)
		m.clampCursors()
		return m, nil

	case mutationMsg:
		if msg.err != nil {
			m.logger.Warn("action failed", "action", msg.label, "error", msg.err)
			m.setStatus(fmt.Sprintf("%s failed: %v", msg.label, msg.err), true)
		} else {
			m.setStatus(msg.label, false)
		}
		return m, nil

	case intervalMsg:
		return m.handleInterval(msg)

	case logTickMsg:
		if m.currentView != ViewLogs {
			m.logTicking = false
			return m, nil
		}
		return m, tea.Batch(readLogsCmd(m.logPath), logTickCmd())

	case logLinesMsg:
		m.handleLogLines(msg)
		return m, nil
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	if m.showHelp {
		return m.renderHelp()
	}

	return m.renderMain()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}

	if m.composing {
		return m.handleComposeKey(msg)
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

	case key.Matches(msg, m.keys.Tab):
		return m.switchView((m.currentView + 1) % viewCount)

	case key.Matches(msg, m.keys.ShiftTab):
		return m.switchView((m.currentView + viewCount - 1) % viewCount)

	case key.Matches(msg, m.keys.ViewTasks):
		return m.switchView(ViewTasks)
	case key.Matches(msg, m.keys.ViewNotifications):
		return m.switchView(ViewNotifications)
	case key.Matches(msg, m.keys.ViewActions):
		return m.switchView(ViewActions)
	case key.Matches(msg, m.keys.ViewConversations):
		return m.switchView(ViewConversations)
	case key.Matches(msg, m.keys.ViewHistory):
		return m.switchView(ViewHistory)
	case key.Matches(msg, m.keys.ViewLogs):
		return m.switchView(ViewLogs)

	case key.Matches(msg, m.keys.Refresh):
		if kind, ok := m.currentView.Kind(); ok {
			if kind == resource.ConversationHistory && m.snapshot.ConversationID == "" {
				m.setStatus("no conversation selected", true)
				return m, nil
			}
			m.engine.Refresh(kind)
			m.setStatus("refreshing "+kind.Label(), false)
			return m, nil
		}
		return m, readLogsCmd(m.logPath)

	case key.Matches(msg, m.keys.RefreshAll):
		m.engine.RefreshAll()
		m.setStatus("refreshing everything", false)
		return m, nil

	case key.Matches(msg, m.keys.IntervalUp):
		return m.changeInterval(1)
	case key.Matches(msg, m.keys.IntervalDown):
		return m.changeInterval(-1)
	}

	if m.currentView == ViewLogs {
		var cmd tea.Cmd
		m.logViewport, cmd = m.logViewport.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor[m.currentView] > 0 {
			m.cursor[m.currentView]--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor[m.currentView] < m.itemCount(m.currentView)-1 {
			m.cursor[m.currentView]++
		}
	case key.Matches(msg, m.keys.Top):
		m.cursor[m.currentView] = 0
	case key.Matches(msg, m.keys.Bottom):
		m.cursor[m.currentView] = max(m.itemCount(m.currentView)-1, 0)
	case key.Matches(msg, m.keys.Activate):
		return m.activate()
	case key.Matches(msg, m.keys.CloseTask):
		return m.closeTask()
	case key.Matches(msg, m.keys.MarkAll):
		if m.currentView != ViewNotifications {
			return m, nil
		}
		return m, m.mutate("marked all notifications read", func(ctx context.Context) error {
			return m.engine.MarkAllNotificationsRead(ctx)
		})
	case key.Matches(msg, m.keys.Compose):
		if m.currentView != ViewHistory && m.currentView != ViewConversations {
			return m, nil
		}
		m.composing = true
		m.input.Reset()
		blink := m.input.Focus()
		return m, blink
	}

	return m, nil
}

func (m Model) handleComposeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.composing = false
		m.input.Blur()
		return m, nil
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEnter:
		text := strings.TrimSpace(m.input.Value())
		m.composing = false
		m.input.Blur()
		if text == "" {
			return m, nil
		}
		return m, m.mutate("message sent", func(ctx context.Context) error {
			return m.engine.SendMessage(ctx, text)
		})
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) switchView(v View) (tea.Model, tea.Cmd) {
	m.currentView = v
	if v != ViewLogs {
		return m, nil
	}
	cmds := []tea.Cmd{readLogsCmd(m.logPath)}
	if !m.logTicking {
		m.logTicking = true
		cmds = append(cmds, logTickCmd())
	}
	return m, tea.Batch(cmds...)
}

// activate performs the enter action for the selected item.
func (m Model) activate() (tea.Model, tea.Cmd) {
	idx := m.cursor[m.currentView]
	switch m.currentView {
	case ViewTasks:
		items := m.snapshot.Tasks.Items
		if idx >= len(items) || items[idx].Synthetic {
			return m, nil
		}
		task := items[idx]
		action, label := hubsync.TaskStart, "started "+task.Title
		if task.Running() {
			action, label = hubsync.TaskStop, "stopped "+task.Title
		}
		return m, m.mutate(label, func(ctx context.Context) error {
			return m.engine.TaskAction(ctx, task.ID, action)
		})

	case ViewNotifications:
		items := m.snapshot.Notifications.Items
		if idx >= len(items) || !items[idx].Unread() {
			return m, nil
		}
		id := items[idx].ID
		return m, m.mutate("marked read", func(ctx context.Context) error {
			return m.engine.MarkNotificationRead(ctx, id)
		})

	case ViewActions:
		items := m.snapshot.Actions.Items
		if idx >= len(items) || items[idx].Synthetic {
			return m, nil
		}
		action := items[idx]
		return m, m.mutate("ran "+action.Title, func(ctx context.Context) error {
			return m.engine.RunAction(ctx, action.ID)
		})

	case ViewConversations:
		items := m.snapshot.Conversations.Items
		if idx >= len(items) || items[idx].Synthetic {
			return m, nil
		}
		conv := items[idx]
		m.currentView = ViewHistory
		return m, m.mutate("opened "+conv.Title, func(ctx context.Context) error {
			return m.engine.SelectConversation(ctx, conv.ID)
		})
	}
	return m, nil
}

func (m Model) closeTask() (tea.Model, tea.Cmd) {
	if m.currentView != ViewTasks {
		return m, nil
	}
	items := m.snapshot.Tasks.Items
	idx := m.cursor[ViewTasks]
	if idx >= len(items) || items[idx].Synthetic || !items[idx].Open() {
		return m, nil
	}
	task := items[idx]
	return m, m.mutate("closed "+task.Title, func(ctx context.Context) error {
		return m.engine.TaskAction(ctx, task.ID, hubsync.TaskClose)
	})
}

// changeInterval steps the refresh minutes of the current kind.
func (m Model) changeInterval(direction int) (tea.Model, tea.Cmd) {
	kind, ok := m.currentView.Kind()
	if !ok || !kind.UserConfigurable() {
		m.setStatus("refresh interval is fixed for this view", true)
		return m, nil
	}
	target := m.prefs.RefreshMinutes(kind) + direction*resource.RefreshStepMinutes
	engine, ctx := m.engine, m.ctx
	return m, func() tea.Msg {
		applied, err := engine.SetRefreshMinutes(ctx, kind, target)
		return intervalMsg{kind: kind, minutes: applied, err: err}
	}
}

func (m Model) handleInterval(msg intervalMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.setStatus(fmt.Sprintf("change %s interval: %v", msg.kind.Label(), msg.err), true)
		return m, nil
	}
	m.prefs = m.prefs.WithRefreshMinutes(msg.kind, msg.minutes)
	m.savePrefs()
	m.setStatus(fmt.Sprintf("%s refresh every %dm", msg.kind.Label(), msg.minutes), false)
	return m, nil
}

func (m *Model) handleLogLines(msg logLinesMsg) {
	if msg.err != nil {
		m.logViewport.SetContent(m.theme.Styles().DangerText.Render(msg.err.Error()))
		return
	}
	atBottom := m.logViewport.AtBottom() || m.logViewport.TotalLineCount() == 0
	m.logViewport.SetContent(m.renderLogLines(msg.lines))
	if atBottom {
		m.logViewport.GotoBottom()
	}
}

func (m *Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	if err := prefs.Save(m.prefsPath, m.prefs); err != nil {
		m.logger.Warn("save preferences failed", "error", err)
	}
}

func (m *Model) setStatus(text string, isError bool) {
	m.status = text
	m.statusError = isError
}

// mutate wraps an engine call in a command that reports its outcome.
func (m Model) mutate(label string, fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return mutationMsg{label: label, err: fn(ctx)}
	}
}

func (m Model) itemCount(v View) int {
	switch v {
	case ViewTasks:
		return len(m.snapshot.Tasks.Items)
	case ViewNotifications:
		return len(m.snapshot.Notifications.Items)
	case ViewActions:
		return len(m.snapshot.Actions.Items)
	case ViewConversations:
		return len(m.snapshot.Conversations.Items)
	case ViewHistory:
		return len(m.snapshot.History.Items)
	}
	return 0
}

func (m *Model) clampCursors() {
	for v := View(0); v < viewCount; v++ {
		n := m.itemCount(v)
		if m.cursor[v] >= n {
			m.cursor[v] = max(n-1, 0)
		}
	}
}

// bodyHeight is the space left under the header, tab bar and footer.
func (m Model) bodyHeight() int {
	return max(m.height-4, 1)
}

// Messages

type eventMsg events.Event

type snapshotMsg state.Snapshot

type mutationMsg struct {
	label string
	err   error
}

type intervalMsg struct {
	kind    resource.Kind
	minutes int
	err     error
}

type logTickMsg time.Time

type logLinesMsg struct {
	lines []string
	err   error
}

// Commands

// waitForEvent blocks for the next bus event. A closed or nil channel ends
// the chain.
func waitForEvent(ch <-chan events.Event) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return eventMsg(ev)
	}
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

func logTickCmd() tea.Cmd {
	return tea.Tick(LogRefreshInterval, func(t time.Time) tea.Msg {
		return logTickMsg(t)
	})
}

func readLogsCmd(path string) tea.Cmd {
	return func() tea.Msg {
		if path == "" {
			return logLinesMsg{}
		}
		lines, err := logtail.Read(path, LogTailLines)
		return logLinesMsg{lines: lines, err: err}
	}
}

// Run starts the Bubble Tea program and blocks until it exits or ctx ends.
func Run(opts Options) error {
	if opts.Engine == nil || opts.Store == nil {
		return fmt.Errorf("ui requires an engine and a store")
	}
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	if err != nil && m.ctx.Err() != nil {
		return nil
	}
	return err
}
