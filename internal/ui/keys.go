package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the dashboard.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	Tab        key.Binding
	ShiftTab   key.Binding

	// View switching
	ViewTasks         key.Binding
	ViewNotifications key.Binding
	ViewActions       key.Binding
	ViewConversations key.Binding
	ViewHistory       key.Binding
	ViewLogs          key.Binding

	// Sync
	Refresh      key.Binding
	RefreshAll   key.Binding
	IntervalUp   key.Binding
	IntervalDown key.Binding

	// Navigation
	Up     key.Binding
	Down   key.Binding
	Top    key.Binding
	Bottom key.Binding

	// Item actions
	Activate  key.Binding
	CloseTask key.Binding
	MarkAll   key.Binding
	Compose   key.Binding
	Cancel    key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		// Global
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("h", "?"),
			key.WithHelp("h/?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "Next view"),
		),
		ShiftTab: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "Previous view"),
		),

		// View switching
		ViewTasks: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "Tasks"),
		),
		ViewNotifications: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "Notifications"),
		),
		ViewActions: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "Quick actions"),
		),
		ViewConversations: key.NewBinding(
			key.WithKeys("4"),
			key.WithHelp("4", "Conversations"),
		),
		ViewHistory: key.NewBinding(
			key.WithKeys("5"),
			key.WithHelp("5", "Conversation history"),
		),
		ViewLogs: key.NewBinding(
			key.WithKeys("6", "l"),
			key.WithHelp("6/l", "Logs"),
		),

		// Sync
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Refresh view"),
		),
		RefreshAll: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "Refresh everything"),
		),
		IntervalUp: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "Longer refresh interval"),
		),
		IntervalDown: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "Shorter refresh interval"),
		),

		// Navigation
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "Move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "Move down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "Go to top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "Go to bottom"),
		),

		// Item actions
		Activate: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Start/stop, mark read, run, open"),
		),
		CloseTask: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "Close task"),
		),
		MarkAll: key.NewBinding(
			key.WithKeys("A"),
			key.WithHelp("A", "Mark all notifications read"),
		),
		Compose: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "Write a message"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Cancel"),
		),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Refresh, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab, k.ViewTasks, k.ViewNotifications, k.ViewActions, k.ViewConversations, k.ViewHistory, k.ViewLogs},
		{k.Up, k.Down, k.Top, k.Bottom},
		{k.Refresh, k.RefreshAll, k.IntervalUp, k.IntervalDown},
		{k.Activate, k.CloseTask, k.MarkAll, k.Compose},
		{k.CycleTheme, k.Help, k.Quit},
	}
}
