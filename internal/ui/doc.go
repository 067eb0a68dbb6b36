// Package ui is the deskhub terminal dashboard, built on Bubble Tea.
//
// The dashboard is a consumer of the sync engine and nothing more. It never
// fetches or decodes: it asks the engine for refreshes and mutations through
// the Engine interface and re-reads published collections from state.Store
// whenever an event arrives on the bus.
//
// # Views
//
// Six views are reachable with the number keys or tab:
//
//   - Tasks: enter starts or stops time tracking, x closes the task
//   - Notifications: enter marks one read, A marks all read
//   - Actions: enter triggers the quick action
//   - Conversations: enter opens the conversation in the history view
//   - History: prompt and reply pairs for the selected conversation; c composes
//   - Logs: the tail of the deskhub log file, colored by level
//
// Fallback placeholders are drawn like any other row, with a fallback badge,
// and ignore enter.
//
// # Live reload
//
// Init starts a command that blocks on the event channel. Each event is
// delivered as a message, the model re-reads the store snapshot and starts
// the next wait. Engine calls that block (mutations, interval changes) run as
// commands so the update loop stays responsive; their outcome lands in the
// footer.
//
// # Preferences
//
// T cycles the theme and +/- step the refresh interval of the tasks and
// notifications views. Both are written to prefs.toml immediately. Interval
// changes go through the engine first, so the stored value is always the
// clamped value the scheduler runs with.
package ui
