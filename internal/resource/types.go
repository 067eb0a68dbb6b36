package resource

import (
	"strings"
	"time"
)

// Defaults substituted for missing optional fields.
const (
	DefaultTitle            = "No Title"
	DefaultTaskStatus       = "pending"
	DefaultTaskPriority     = "medium"
	DefaultNotificationType = "info"
	DefaultActionMethod     = "POST"
	DefaultActionIcon       = "bolt"
)

// alternateTimestampLayout is the one non-RFC3339 format servers are known to send.
const alternateTimestampLayout = "2006-01-02 15:04:05"

// Task is a normalized task record.
type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"`
	Priority    string    `json:"priority"`
	Project     string    `json:"project,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	DueDate     time.Time `json:"dueDate,omitzero"`
	CreatedAt   time.Time `json:"createdAt,omitzero"`
	UpdatedAt   time.Time `json:"updatedAt,omitzero"`
	Synthetic   bool      `json:"synthetic,omitempty"`
}

// Open reports whether the task still counts towards the pending total.
func (t Task) Open() bool {
	switch strings.ToLower(t.Status) {
	case "closed", "done", "completed", "cancelled":
		return false
	}
	return !t.Synthetic
}

// Running reports whether time is currently being tracked against the task.
func (t Task) Running() bool {
	switch strings.ToLower(t.Status) {
	case "in_progress", "running", "started":
		return true
	}
	return false
}

// Notification is a normalized notification record.
type Notification struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message,omitempty"`
	Type      string    `json:"type"`
	Source    string    `json:"source,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
	Synthetic bool      `json:"synthetic,omitempty"`
}

// Unread reports whether the notification counts towards the unread badge.
func (n Notification) Unread() bool {
	return !n.Read && !n.Synthetic
}

// Action is a quick-action the user can trigger from the hub.
type Action struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Icon        string         `json:"icon"`
	URL         string         `json:"url,omitempty"`
	Method      string         `json:"method"`
	Payload     map[string]any `json:"payload,omitempty"`
	Synthetic   bool           `json:"synthetic,omitempty"`
}

// Conversation summarizes a chat thread.
type Conversation struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	LastMessage  string    `json:"lastMessage,omitempty"`
	MessageCount int       `json:"messageCount"`
	UnreadCount  int       `json:"unreadCount"`
	UpdatedAt    time.Time `json:"updatedAt,omitzero"`
	Synthetic    bool      `json:"synthetic,omitempty"`
}

// ChatMessagePair is one user prompt and the assistant reply to it.
type ChatMessagePair struct {
	ID               string    `json:"id"`
	ConversationID   string    `json:"conversationId"`
	UserMessage      string    `json:"userMessage"`
	AssistantMessage string    `json:"assistantMessage"`
	Timestamp        time.Time `json:"timestamp,omitzero"`
	Synthetic        bool      `json:"synthetic,omitempty"`
}

// ParseTime parses an RFC3339 timestamp, then the alternate layout. Anything
// else is treated as absent.
func ParseTime(value string) (time.Time, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t, true
		}
	}
	if t, err := time.ParseInLocation(alternateTimestampLayout, trimmed, time.Local); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// OrDefault returns value unless it is blank.
func OrDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
