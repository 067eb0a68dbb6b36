package resource

import (
	"fmt"
	"strings"
	"time"
)

// Kind identifies one of the independently cached resource collections.
type Kind int

const (
	Tasks Kind = iota
	Notifications
	Actions
	Conversations
	ConversationHistory
)

// All lists every kind in display order.
var All = []Kind{Tasks, Notifications, Actions, Conversations, ConversationHistory}

var kindNames = map[Kind]string{
	Tasks:               "tasks",
	Notifications:       "notifications",
	Actions:             "actions",
	Conversations:       "conversations",
	ConversationHistory: "conversation_history",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Label is the human readable name used in placeholders and the dashboard.
func (k Kind) Label() string {
	switch k {
	case ConversationHistory:
		return "conversation history"
	case Actions:
		return "quick actions"
	default:
		return k.String()
	}
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// ParseKind maps a user supplied name onto a Kind.
func ParseKind(name string) (Kind, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	normalized = strings.ReplaceAll(normalized, "-", "_")
	switch normalized {
	case "history", "chat_history":
		return ConversationHistory, nil
	case "quick_actions":
		return Actions, nil
	}
	for kind, candidate := range kindNames {
		if candidate == normalized {
			return kind, nil
		}
	}
	return 0, fmt.Errorf("unknown resource kind %q", name)
}

const (
	MinRefreshMinutes     = 5
	MaxRefreshMinutes     = 15
	RefreshStepMinutes    = 5
	DefaultRefreshMinutes = 10

	ActionsTTL      = time.Hour
	ConversationTTL = 5 * time.Minute
)

// ClampRefreshMinutes snaps minutes to the nearest allowed step within
// [MinRefreshMinutes, MaxRefreshMinutes]. Zero selects the default.
func ClampRefreshMinutes(minutes int) int {
	if minutes == 0 {
		return DefaultRefreshMinutes
	}
	if minutes < MinRefreshMinutes {
		return MinRefreshMinutes
	}
	if minutes > MaxRefreshMinutes {
		return MaxRefreshMinutes
	}
	steps := (minutes + RefreshStepMinutes/2) / RefreshStepMinutes
	return steps * RefreshStepMinutes
}

// UserConfigurable reports whether the kind's TTL and refresh interval follow
// the user's refresh-minutes setting.
func (k Kind) UserConfigurable() bool {
	return k == Tasks || k == Notifications
}

// TTLPolicy maps each kind to its maximum cache age. The refresh interval of a
// kind always equals its TTL so the scheduler and the freshness gate agree.
type TTLPolicy struct {
	TasksMinutes         int
	NotificationsMinutes int
}

// DefaultTTLPolicy uses the default refresh minutes for both configurable kinds.
func DefaultTTLPolicy() TTLPolicy {
	return TTLPolicy{TasksMinutes: DefaultRefreshMinutes, NotificationsMinutes: DefaultRefreshMinutes}
}

// TTL returns the freshness window for kind.
func (p TTLPolicy) TTL(kind Kind) time.Duration {
	switch kind {
	case Tasks:
		return time.Duration(ClampRefreshMinutes(p.TasksMinutes)) * time.Minute
	case Notifications:
		return time.Duration(ClampRefreshMinutes(p.NotificationsMinutes)) * time.Minute
	case Actions:
		return ActionsTTL
	default:
		return ConversationTTL
	}
}

// RefreshInterval returns the scheduler period for kind.
func (p TTLPolicy) RefreshInterval(kind Kind) time.Duration {
	return p.TTL(kind)
}

// WithMinutes returns a copy of p with the configurable kind's minutes set.
// Fixed kinds are returned unchanged.
func (p TTLPolicy) WithMinutes(kind Kind, minutes int) TTLPolicy {
	switch kind {
	case Tasks:
		p.TasksMinutes = ClampRefreshMinutes(minutes)
	case Notifications:
		p.NotificationsMinutes = ClampRefreshMinutes(minutes)
	}
	return p
}
