package ui

import (
	"fmt"
	"strings"

	"github.com/five82/deskhub/internal/decode"
	"github.com/five82/deskhub/internal/resource"
	"github.com/five82/deskhub/internal/state"
)

// renderHeader renders the status bar: logo, per-kind counters and the
// offline badge.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	parts := []string{bg.Render("deskhub", styles.Logo)}
	if m.snapshot.IsOffline() {
		parts = append(parts, styles.StatusStyle("offline").Render("OFFLINE"))
	}

	snap := m.snapshot
	parts = append(parts,
		m.counter(bg, styles, "tasks", fmt.Sprintf("%d open", snap.Tasks.UnreadCount), snap.Tasks.Meta()),
		m.counter(bg, styles, "inbox", fmt.Sprintf("%d unread", snap.Notifications.UnreadCount), snap.Notifications.Meta()),
		m.counter(bg, styles, "actions", fmt.Sprintf("%d", snap.Actions.Count), snap.Actions.Meta()),
		m.counter(bg, styles, "chats", fmt.Sprintf("%d", snap.Conversations.Count), snap.Conversations.Meta()),
	)

	return styles.Header.Width(m.width).Render(bg.Join(parts, "  "))
}

// counter renders "label value" colored by the collection's health.
func (m Model) counter(bg BgStyle, styles Styles, label, value string, meta state.Meta) string {
	valueStyle := styles.Text
	switch {
	case meta.IsOffline() || meta.Outcome == decode.Fallback:
		valueStyle = styles.DangerText
	case meta.Stale:
		valueStyle = styles.WarningText
	}
	out := bg.Render(label, styles.MutedText) + bg.Space() + bg.Render(value, valueStyle)
	if meta.Fetching {
		out += bg.Render("*", styles.InfoText)
	}
	return out
}

// renderTabs renders the view selector with the refresh interval of the
// current configurable kind.
func (m Model) renderTabs() string {
	styles := m.theme.Styles().WithBackground(m.theme.Background)
	bg := NewBgStyle(m.theme.Background)

	tabs := make([]string, 0, viewCount)
	for v := View(0); v < viewCount; v++ {
		label := fmt.Sprintf("%d %s", int(v)+1, v.Title())
		if v == m.currentView {
			tabs = append(tabs, styles.Selected.Render(" "+label+" "))
			continue
		}
		tabs = append(tabs, bg.Render(" "+label+" ", styles.MutedText))
	}
	line := strings.Join(tabs, bg.Space())

	if kind, ok := m.currentView.Kind(); ok && kind.UserConfigurable() {
		every := fmt.Sprintf("every %dm", m.prefs.RefreshMinutes(kind))
		line += bg.Spaces(2) + bg.Render(every, styles.FaintText)
	}
	return bg.FillLine(line, m.width)
}

// renderMeta summarizes the current collection in one line.
func (m Model) renderMeta(kind resource.Kind) string {
	styles := m.theme.Styles()
	meta := m.metaFor(kind)

	parts := []string{styles.MutedText.Render(fmt.Sprintf("%d items", meta.Len))}
	if meta.Count > meta.Len {
		parts = append(parts, styles.MutedText.Render(fmt.Sprintf("%d on server", meta.Count)))
	}
	if meta.UnreadCount > 0 {
		parts = append(parts, styles.AccentText.Render(fmt.Sprintf("%d unread", meta.UnreadCount)))
	}
	if !meta.LastUpdated.IsZero() {
		parts = append(parts, styles.FaintText.Render("updated "+meta.LastUpdated.Format("15:04:05")))
	}
	if meta.Stale {
		parts = append(parts, styles.StatusStyle("stale").Render("stale"))
	}
	if meta.Fetching {
		parts = append(parts, styles.StatusStyle("fetching").Render("fetching"))
	}
	if meta.LastError != nil {
		parts = append(parts, styles.DangerText.Render(truncate(meta.LastError.Error(), max(m.width/2, 20))))
	}
	return strings.Join(parts, styles.FaintText.Render(" · "))
}

// metaFor reads kind's metadata from the snapshot being displayed.
func (m Model) metaFor(kind resource.Kind) state.Meta {
	switch kind {
	case resource.Tasks:
		return m.snapshot.Tasks.Meta()
	case resource.Notifications:
		return m.snapshot.Notifications.Meta()
	case resource.Actions:
		return m.snapshot.Actions.Meta()
	case resource.Conversations:
		return m.snapshot.Conversations.Meta()
	default:
		return m.snapshot.History.Meta()
	}
}
