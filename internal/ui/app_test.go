package ui

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/deskhub/internal/decode"
	"github.com/five82/deskhub/internal/events"
	"github.com/five82/deskhub/internal/prefs"
	"github.com/five82/deskhub/internal/resource"
	"github.com/five82/deskhub/internal/state"
)

type fakeEngine struct {
	calls     []string
	refreshed []resource.Kind
	err       error
}

func (f *fakeEngine) Refresh(kind resource.Kind) { f.refreshed = append(f.refreshed, kind) }
func (f *fakeEngine) RefreshAll()                { f.calls = append(f.calls, "refresh_all") }

func (f *fakeEngine) SetRefreshMinutes(_ context.Context, kind resource.Kind, minutes int) (int, error) {
	f.calls = append(f.calls, "interval "+kind.String())
	if !kind.UserConfigurable() {
		return 0, errors.New("fixed")
	}
	return resource.ClampRefreshMinutes(minutes), f.err
}

func (f *fakeEngine) SelectConversation(_ context.Context, id string) error {
	f.calls = append(f.calls, "select "+id)
	return f.err
}

func (f *fakeEngine) MarkNotificationRead(_ context.Context, id string) error {
	f.calls = append(f.calls, "read "+id)
	return f.err
}

func (f *fakeEngine) MarkAllNotificationsRead(context.Context) error {
	f.calls = append(f.calls, "read_all")
	return f.err
}

func (f *fakeEngine) TaskAction(_ context.Context, id, action string) error {
	f.calls = append(f.calls, action+" "+id)
	return f.err
}

func (f *fakeEngine) RunAction(_ context.Context, id string) error {
	f.calls = append(f.calls, "run "+id)
	return f.err
}

func (f *fakeEngine) SendMessage(_ context.Context, text string) error {
	f.calls = append(f.calls, "send "+text)
	return f.err
}

func newTestModel(t *testing.T, snap state.Snapshot) (Model, *fakeEngine, string) {
	t.Helper()
	engine := &fakeEngine{}
	prefsPath := filepath.Join(t.TempDir(), "prefs.toml")
	m := New(Options{Engine: engine, Prefs: prefs.Default(), PrefsPath: prefsPath})
	m = update(t, m, tea.WindowSizeMsg{Width: 160, Height: 40})
	m = update(t, m, snapshotMsg(snap))
	return m, engine, prefsPath
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func press(t *testing.T, m Model, keys string) (Model, tea.Cmd) {
	t.Helper()
	var msg tea.KeyMsg
	switch keys {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(keys)}
	}
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

// run executes cmd and feeds its message back into the model.
func run(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		t.Fatalf("expected a command")
	}
	return update(t, m, cmd())
}

func sampleSnapshot() state.Snapshot {
	return state.Snapshot{
		Tasks: state.Collection[resource.Task]{
			Items: []resource.Task{
				{ID: "t1", Title: "Write report", Status: "in_progress", Priority: "high"},
				{ID: "t2", Title: "Review PR", Status: "pending", Priority: "low"},
			},
			Count:       2,
			UnreadCount: 2,
		},
		Notifications: state.Collection[resource.Notification]{
			Items: []resource.Notification{
				{ID: "n1", Title: "Build failed", Type: "error"},
				{ID: "n2", Title: "Deployed", Type: "success", Read: true},
			},
			Count:       2,
			UnreadCount: 1,
		},
		Actions: state.Collection[resource.Action]{
			Items: []resource.Action{{ID: "a1", Title: "Lock screen", Method: "POST"}},
			Count: 1,
		},
		Conversations: state.Collection[resource.Conversation]{
			Items: []resource.Conversation{{ID: "c1", Title: "Planning", UnreadCount: 1}},
			Count: 1,
		},
	}
}

func TestRefreshKeyTargetsCurrentView(t *testing.T) {
	m, engine, _ := newTestModel(t, sampleSnapshot())

	m, _ = press(t, m, "2")
	m, _ = press(t, m, "r")
	_, _ = press(t, m, "R")

	if !reflect.DeepEqual(engine.refreshed, []resource.Kind{resource.Notifications}) {
		t.Fatalf("refreshed = %v, want [notifications]", engine.refreshed)
	}
	if !reflect.DeepEqual(engine.calls, []string{"refresh_all"}) {
		t.Fatalf("calls = %v, want [refresh_all]", engine.calls)
	}
}

func TestRefreshHistoryNeedsConversation(t *testing.T) {
	m, engine, _ := newTestModel(t, sampleSnapshot())

	m, _ = press(t, m, "5")
	m, _ = press(t, m, "r")

	if len(engine.refreshed) != 0 {
		t.Fatalf("refreshed = %v, want none", engine.refreshed)
	}
	if !m.statusError {
		t.Fatalf("expected an error status, got %q", m.status)
	}
}

func TestIntervalKeyAppliesAndSavesPrefs(t *testing.T) {
	m, engine, prefsPath := newTestModel(t, sampleSnapshot())

	m, cmd := press(t, m, "+")
	m = run(t, m, cmd)

	if !reflect.DeepEqual(engine.calls, []string{"interval tasks"}) {
		t.Fatalf("calls = %v", engine.calls)
	}
	if got := m.prefs.TasksRefreshMinutes; got != 15 {
		t.Fatalf("TasksRefreshMinutes = %d, want 15", got)
	}
	saved, err := prefs.Load(prefsPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if saved.TasksRefreshMinutes != 15 {
		t.Fatalf("saved TasksRefreshMinutes = %d, want 15", saved.TasksRefreshMinutes)
	}

	// Already at the maximum: the engine clamps and nothing moves.
	m, cmd = press(t, m, "+")
	m = run(t, m, cmd)
	if got := m.prefs.TasksRefreshMinutes; got != 15 {
		t.Fatalf("TasksRefreshMinutes = %d, want 15", got)
	}
}

func TestIntervalKeyIgnoredForFixedKinds(t *testing.T) {
	m, engine, _ := newTestModel(t, sampleSnapshot())

	m, _ = press(t, m, "3")
	m, cmd := press(t, m, "-")

	if cmd != nil {
		t.Fatalf("expected no command for a fixed kind")
	}
	if len(engine.calls) != 0 {
		t.Fatalf("calls = %v, want none", engine.calls)
	}
	if !m.statusError {
		t.Fatalf("expected an error status")
	}
}

func TestEnterTogglesRunningTask(t *testing.T) {
	m, engine, _ := newTestModel(t, sampleSnapshot())

	m, cmd := press(t, m, "enter")
	m = run(t, m, cmd)
	m, _ = press(t, m, "j")
	m, cmd = press(t, m, "enter")
	m = run(t, m, cmd)
	_, cmd = press(t, m, "x")
	run(t, m, cmd)

	want := []string{"stop t1", "start t2", "close t2"}
	if !reflect.DeepEqual(engine.calls, want) {
		t.Fatalf("calls = %v, want %v", engine.calls, want)
	}
}

func TestEnterOnFallbackPlaceholderDoesNothing(t *testing.T) {
	snap := state.Snapshot{
		Tasks: state.Collection[resource.Task]{
			Items: []resource.Task{{
				ID:          "fallback-1",
				Title:       "Failed to load tasks from server",
				Description: "connection refused",
				Synthetic:   true,
			}},
			Outcome: decode.Fallback,
		},
	}
	m, engine, _ := newTestModel(t, snap)

	_, cmd := press(t, m, "enter")
	if cmd != nil {
		t.Fatalf("expected no command for a placeholder")
	}
	if len(engine.calls) != 0 {
		t.Fatalf("calls = %v, want none", engine.calls)
	}

	rows := rowsFor(ViewTasks, snap)
	if len(rows) != 1 || !rows[0].synthetic || rows[0].detail != "connection refused" {
		t.Fatalf("rows = %+v", rows)
	}
	if !reflect.DeepEqual(rows[0].badges, []string{"fallback"}) {
		t.Fatalf("badges = %v, want [fallback]", rows[0].badges)
	}
}

func TestNotificationKeys(t *testing.T) {
	m, engine, _ := newTestModel(t, sampleSnapshot())

	m, _ = press(t, m, "2")
	m, cmd := press(t, m, "enter")
	m = run(t, m, cmd)

	// The second notification is already read.
	m, _ = press(t, m, "G")
	m, cmd = press(t, m, "enter")
	if cmd != nil {
		t.Fatalf("expected no command for a read notification")
	}

	_, cmd = press(t, m, "A")
	run(t, m, cmd)

	want := []string{"read n1", "read_all"}
	if !reflect.DeepEqual(engine.calls, want) {
		t.Fatalf("calls = %v, want %v", engine.calls, want)
	}
}

func TestRunActionAndOpenConversation(t *testing.T) {
	m, engine, _ := newTestModel(t, sampleSnapshot())

	m, _ = press(t, m, "3")
	m, cmd := press(t, m, "enter")
	m = run(t, m, cmd)

	m, _ = press(t, m, "4")
	m, cmd = press(t, m, "enter")
	if m.currentView != ViewHistory {
		t.Fatalf("currentView = %v, want history", m.currentView)
	}
	m = run(t, m, cmd)

	want := []string{"run a1", "select c1"}
	if !reflect.DeepEqual(engine.calls, want) {
		t.Fatalf("calls = %v, want %v", engine.calls, want)
	}
	if m.status != "opened Planning" {
		t.Fatalf("status = %q", m.status)
	}
}

func TestMutationErrorShownInFooter(t *testing.T) {
	m, engine, _ := newTestModel(t, sampleSnapshot())
	engine.err = errors.New("status 500")

	m, _ = press(t, m, "3")
	m, cmd := press(t, m, "enter")
	m = run(t, m, cmd)

	if !m.statusError || !strings.Contains(m.status, "status 500") {
		t.Fatalf("status = %q (error=%v)", m.status, m.statusError)
	}
	if !strings.Contains(m.View(), "ran Lock screen failed: status 500") {
		t.Fatalf("footer does not show the failure")
	}
}

func TestComposeSendsMessage(t *testing.T) {
	snap := sampleSnapshot()
	snap.ConversationID = "c1"
	m, engine, _ := newTestModel(t, snap)

	m, _ = press(t, m, "5")
	m, _ = press(t, m, "c")
	if !m.composing {
		t.Fatalf("expected compose mode")
	}
	// Keys that are bindings elsewhere are plain text while composing.
	m, _ = press(t, m, "r q")
	m, cmd := press(t, m, "enter")
	if m.composing {
		t.Fatalf("compose mode should end on enter")
	}
	run(t, m, cmd)

	if len(engine.refreshed) != 0 {
		t.Fatalf("typing triggered a refresh")
	}
	if !reflect.DeepEqual(engine.calls, []string{"send r q"}) {
		t.Fatalf("calls = %v", engine.calls)
	}
}

func TestComposeEscapeCancels(t *testing.T) {
	m, engine, _ := newTestModel(t, sampleSnapshot())

	m, _ = press(t, m, "4")
	m, _ = press(t, m, "c")
	m, _ = press(t, m, "hello")
	m, cmd := press(t, m, "esc")

	if m.composing || cmd != nil || len(engine.calls) != 0 {
		t.Fatalf("escape should drop the draft (composing=%v calls=%v)", m.composing, engine.calls)
	}
}

func TestThemeKeySavesPrefs(t *testing.T) {
	m, _, prefsPath := newTestModel(t, sampleSnapshot())

	m, _ = press(t, m, "T")
	if m.theme.Name != "Kanagawa" {
		t.Fatalf("theme = %q, want Kanagawa", m.theme.Name)
	}
	saved, err := prefs.Load(prefsPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if saved.Theme != "Kanagawa" {
		t.Fatalf("saved theme = %q, want Kanagawa", saved.Theme)
	}
}

func TestEventReloadsSnapshot(t *testing.T) {
	store := &state.Store{}
	store.Tasks.Publish([]resource.Task{{ID: "t9", Title: "New"}}, 1, 1, decode.Decoded, false)

	ch := make(chan events.Event, 1)
	m := New(Options{Engine: &fakeEngine{}, Store: store, Events: ch, PrefsPath: filepath.Join(t.TempDir(), "p.toml")})

	ch <- events.Event{Type: events.CollectionUpdated, Kind: resource.Tasks}
	msg := waitForEvent(ch)()
	if _, ok := msg.(eventMsg); !ok {
		t.Fatalf("waitForEvent returned %T", msg)
	}

	m = update(t, m, fetchSnapshotCmd(store)())
	if len(m.snapshot.Tasks.Items) != 1 || m.snapshot.Tasks.Items[0].ID != "t9" {
		t.Fatalf("snapshot tasks = %+v", m.snapshot.Tasks.Items)
	}

	close(ch)
	if msg := waitForEvent(ch)(); msg != nil {
		t.Fatalf("closed channel should end the chain, got %T", msg)
	}
	if waitForEvent(nil) != nil {
		t.Fatalf("nil channel should produce no command")
	}
}

func TestViewRendersCollections(t *testing.T) {
	snap := sampleSnapshot()
	snap.Notifications.ConsecutiveFailures = 2
	snap.Tasks.ConsecutiveFailures = 2
	snap.Actions.ConsecutiveFailures = 2
	snap.Conversations.ConsecutiveFailures = 2
	m, _, _ := newTestModel(t, snap)

	out := m.View()
	for _, want := range []string{"deskhub", "OFFLINE", "Write report", "1 Tasks", "every 10m"} {
		if !strings.Contains(out, want) {
			t.Errorf("View() missing %q", want)
		}
	}

	m, _ = press(t, m, "?")
	if !strings.Contains(m.View(), "Keyboard Shortcuts") {
		t.Fatalf("help overlay not shown")
	}
	m, _ = press(t, m, "x")
	if m.showHelp {
		t.Fatalf("any key should close help")
	}
}

func TestRenderLogLines(t *testing.T) {
	m, _, _ := newTestModel(t, state.Snapshot{})

	out := m.renderLogLines([]string{
		"2026-10-08 21:01:05 WRN fetch failed kind=tasks",
		"goroutine 1 [running]:",
	})
	if !strings.Contains(out, "fetch failed") || !strings.Contains(out, "goroutine 1") {
		t.Fatalf("renderLogLines dropped lines: %q", out)
	}
	if got := m.renderLogLines(nil); !strings.Contains(got, "log is empty") {
		t.Fatalf("empty log placeholder missing: %q", got)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"short", 10, "short"},
		{"exactly", 7, "exactly"},
		{"longer text", 6, "longe…"},
		{"two\nlines", 20, "two lines"},
		{"anything", 1, "…"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.width); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}
