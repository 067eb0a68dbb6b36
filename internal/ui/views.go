package ui

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/deskhub/internal/logtail"
	"github.com/five82/deskhub/internal/resource"
	"github.com/five82/deskhub/internal/state"
)

// row is one rendered list line.
type row struct {
	title     string
	detail    string
	badges    []string
	dim       bool
	synthetic bool
}

// rowsFor flattens the collection shown by v.
func rowsFor(v View, snap state.Snapshot) []row {
	switch v {
	case ViewTasks:
		rows := make([]row, 0, len(snap.Tasks.Items))
		for _, t := range snap.Tasks.Items {
			detail := t.Project
			if !t.DueDate.IsZero() {
				detail = strings.TrimSpace(detail + " due " + t.DueDate.Local().Format("Jan 2"))
			}
			if len(t.Tags) > 0 {
				detail = strings.TrimSpace(detail + " #" + strings.Join(t.Tags, " #"))
			}
			if t.Synthetic {
				detail = t.Description
			}
			rows = append(rows, row{
				title:     t.Title,
				detail:    detail,
				badges:    badgesFor(t.Synthetic, t.Status, t.Priority),
				dim:       !t.Open() && !t.Synthetic,
				synthetic: t.Synthetic,
			})
		}
		return rows

	case ViewNotifications:
		rows := make([]row, 0, len(snap.Notifications.Items))
		for _, n := range snap.Notifications.Items {
			rows = append(rows, row{
				title:     n.Title,
				detail:    n.Message,
				badges:    badgesFor(n.Synthetic, n.Type),
				dim:       n.Read,
				synthetic: n.Synthetic,
			})
		}
		return rows

	case ViewActions:
		rows := make([]row, 0, len(snap.Actions.Items))
		for _, a := range snap.Actions.Items {
			rows = append(rows, row{
				title:     a.Title,
				detail:    a.Description,
				badges:    badgesFor(a.Synthetic, strings.ToUpper(a.Method)),
				synthetic: a.Synthetic,
			})
		}
		return rows

	case ViewConversations:
		rows := make([]row, 0, len(snap.Conversations.Items))
		for _, c := range snap.Conversations.Items {
			detail := c.LastMessage
			if c.MessageCount > 0 {
				detail = fmt.Sprintf("%d msgs  %s", c.MessageCount, detail)
			}
			var badges []string
			if c.UnreadCount > 0 {
				badges = []string{fmt.Sprintf("%d new", c.UnreadCount)}
			}
			rows = append(rows, row{
				title:     c.Title,
				detail:    detail,
				badges:    badgesFor(c.Synthetic, badges...),
				synthetic: c.Synthetic,
			})
		}
		return rows
	}
	return nil
}

func badgesFor(synthetic bool, badges ...string) []string {
	if synthetic {
		return []string{"fallback"}
	}
	out := make([]string, 0, len(badges))
	for _, b := range badges {
		if strings.TrimSpace(b) != "" {
			out = append(out, b)
		}
	}
	return out
}

// renderMain renders the full UI.
func (m Model) renderMain() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderTabs())
	b.WriteString("\n")
	b.WriteString(m.renderContent())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())

	return b.String()
}

// renderContent renders the main content area based on current view.
func (m Model) renderContent() string {
	height := m.bodyHeight()
	switch m.currentView {
	case ViewLogs:
		return m.logViewport.View()
	case ViewHistory:
		return m.renderHistory(height)
	default:
		kind, _ := m.currentView.Kind()
		return m.renderMeta(kind) + "\n" + m.renderList(rowsFor(m.currentView, m.snapshot), height-1)
	}
}

// renderList draws rows with the cursor kept in view.
func (m Model) renderList(rows []row, height int) string {
	styles := m.theme.Styles()
	if len(rows) == 0 {
		return styles.FaintText.Render("  nothing here")
	}

	selected := m.cursor[m.currentView]
	start := 0
	if selected >= height {
		start = selected - height + 1
	}
	end := min(start+height, len(rows))

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		lines = append(lines, m.renderRow(rows[i], i == selected))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderRow(r row, selected bool) string {
	styles := m.theme.Styles()

	badges := make([]string, 0, len(r.badges))
	for _, b := range r.badges {
		badges = append(badges, styles.StatusStyle(b).Render(b))
	}
	prefix := "  "
	if selected {
		prefix = "> "
	}

	titleStyle := styles.Text
	switch {
	case r.synthetic:
		titleStyle = styles.DangerText
	case r.dim:
		titleStyle = styles.FaintText
	}
	title := titleStyle.Render(r.title)

	line := prefix + strings.Join(append(badges, title), " ")
	if r.detail != "" && m.width >= LayoutCompactWidth {
		room := m.width - lipgloss.Width(line) - 3
		if room > 10 {
			line += "  " + styles.MutedText.Render(truncate(r.detail, room))
		}
	}
	if selected {
		return styles.Selected.Width(m.width).Render(line)
	}
	return line
}

// renderHistory shows the selected conversation as prompt/reply pairs,
// newest at the bottom.
func (m Model) renderHistory(height int) string {
	styles := m.theme.Styles()
	if m.snapshot.ConversationID == "" {
		return styles.FaintText.Render("  select a conversation in view 4 and press enter, or press c to start one")
	}

	var lines []string
	for _, pair := range m.snapshot.History.Items {
		if pair.Synthetic {
			lines = append(lines, styles.DangerText.Render(pair.UserMessage))
			if pair.AssistantMessage != "" {
				lines = append(lines, styles.MutedText.Render(pair.AssistantMessage))
			}
			continue
		}
		stamp := ""
		if !pair.Timestamp.IsZero() && m.width >= LayoutUpdatedWidth {
			stamp = styles.FaintText.Render(pair.Timestamp.Local().Format("Jan 2 15:04") + " ")
		}
		lines = append(lines,
			stamp+styles.AccentText.Render("you ")+styles.Text.Render(pair.UserMessage),
			styles.SuccessText.Render("hub ")+styles.Text.Render(pair.AssistantMessage),
			"",
		)
	}

	meta := m.renderMeta(resource.ConversationHistory)
	room := height - 1
	if len(lines) > room {
		lines = lines[len(lines)-room:]
	}
	return meta + "\n" + strings.Join(lines, "\n")
}

// renderLogLines colors each log line by level.
func (m Model) renderLogLines(lines []string) string {
	styles := m.theme.Styles()
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		e := logtail.Parse(line)
		style := styles.Text
		switch {
		case !e.Parsed:
			style = styles.MutedText
		case e.Level >= slog.LevelError:
			style = styles.DangerText
		case e.Level >= slog.LevelWarn:
			style = styles.WarningText
		case e.Level < slog.LevelInfo:
			style = styles.FaintText
		}
		out = append(out, style.Render(line))
	}
	if len(out) == 0 {
		return styles.FaintText.Render("  log is empty")
	}
	return strings.Join(out, "\n")
}

// renderFooter shows the compose input, the last command result or a key hint.
func (m Model) renderFooter() string {
	styles := m.theme.Styles()
	if m.composing {
		return m.input.View()
	}
	if m.status != "" {
		if m.statusError {
			return styles.DangerText.Render(m.status)
		}
		return styles.MutedText.Render(m.status)
	}
	hints := []string{"1-6 views", "r refresh", "R all", "enter act", "? help", "q quit"}
	return styles.FaintText.Render(strings.Join(hints, "  "))
}

// truncate shortens s to width runes with an ellipsis.
func truncate(s string, width int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	runes := []rune(s)
	if width <= 0 || len(runes) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return string(runes[:width-1]) + "…"
}
