package decode

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/five82/deskhub/internal/resource"
)

// flexString accepts a JSON string, number or boolean. Servers disagree on
// whether ids are numeric. Objects and arrays are treated as absent.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	*f = ""
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err == nil {
			*f = flexString(s)
		}
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err == nil {
			*f = flexString(strconv.FormatBool(b))
		}
	case '{', '[', 'n':
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err == nil {
			*f = flexString(n.String())
		}
	}
	return nil
}

// flexInt accepts a JSON number or a numeric string. Anything else is zero.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	var raw flexString
	if err := raw.UnmarshalJSON(data); err != nil {
		*f = 0
		return nil
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(string(raw)), 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexInt(n)
	return nil
}

// flexBool accepts true/false, "true"/"false", and 0/1.
type flexBool bool

func (f *flexBool) UnmarshalJSON(data []byte) error {
	var raw flexString
	if err := raw.UnmarshalJSON(data); err != nil {
		*f = false
		return nil
	}
	switch strings.ToLower(strings.TrimSpace(string(raw))) {
	case "true", "1", "yes":
		*f = true
	default:
		*f = false
	}
	return nil
}

// flexTime holds a timestamp string; unparseable values become absent.
type flexTime string

func (f *flexTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*f = ""
		return nil
	}
	*f = flexTime(s)
	return nil
}

// flexStrings accepts an array of strings or a single comma separated string.
type flexStrings []string

func (f *flexStrings) UnmarshalJSON(data []byte) error {
	var list []flexString
	if err := json.Unmarshal(data, &list); err == nil {
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s := strings.TrimSpace(string(item)); s != "" {
				out = append(out, s)
			}
		}
		*f = out
		return nil
	}
	var single flexString
	if err := single.UnmarshalJSON(data); err != nil {
		*f = nil
		return nil
	}
	var out []string
	for _, part := range strings.Split(string(single), ",") {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}
	*f = out
	return nil
}

// flexObject keeps a JSON object and drops anything else.
type flexObject map[string]any

func (f *flexObject) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		*f = nil
		return nil
	}
	*f = m
	return nil
}

func (f flexTime) Time() time.Time {
	t, _ := resource.ParseTime(string(f))
	return t
}

func firstTime(values ...flexTime) time.Time {
	for _, v := range values {
		if t := v.Time(); !t.IsZero() {
			return t
		}
	}
	return time.Time{}
}

func firstString(values ...flexString) string {
	for _, v := range values {
		if s := strings.TrimSpace(string(v)); s != "" {
			return s
		}
	}
	return ""
}

type taskWire struct {
	ID          flexString  `json:"id"`
	TaskID      flexString  `json:"taskId"`
	Title       flexString  `json:"title"`
	Name        flexString  `json:"name"`
	Description flexString  `json:"description"`
	Status      flexString  `json:"status"`
	Priority    flexString  `json:"priority"`
	Project     flexString  `json:"project"`
	Tags        flexStrings `json:"tags"`
	DueDate     flexTime    `json:"dueDate"`
	DueDateAlt  flexTime    `json:"due_date"`
	CreatedAt   flexTime    `json:"createdAt"`
	CreatedAlt  flexTime    `json:"created_at"`
	UpdatedAt   flexTime    `json:"updatedAt"`
	UpdatedAlt  flexTime    `json:"updated_at"`
}

func (w taskWire) normalize() resource.Task {
	return resource.Task{
		ID:          firstString(w.ID, w.TaskID),
		Title:       resource.OrDefault(firstString(w.Title, w.Name), resource.DefaultTitle),
		Description: strings.TrimSpace(string(w.Description)),
		Status:      resource.OrDefault(strings.ToLower(firstString(w.Status)), resource.DefaultTaskStatus),
		Priority:    resource.OrDefault(strings.ToLower(firstString(w.Priority)), resource.DefaultTaskPriority),
		Project:     strings.TrimSpace(string(w.Project)),
		Tags:        []string(w.Tags),
		DueDate:     firstTime(w.DueDate, w.DueDateAlt),
		CreatedAt:   firstTime(w.CreatedAt, w.CreatedAlt),
		UpdatedAt:   firstTime(w.UpdatedAt, w.UpdatedAlt),
	}
}

type notificationWire struct {
	ID         flexString `json:"id"`
	Title      flexString `json:"title"`
	Message    flexString `json:"message"`
	Body       flexString `json:"body"`
	Type       flexString `json:"type"`
	Source     flexString `json:"source"`
	Read       flexBool   `json:"read"`
	IsRead     flexBool   `json:"isRead"`
	CreatedAt  flexTime   `json:"createdAt"`
	CreatedAlt flexTime   `json:"created_at"`
	Timestamp  flexTime   `json:"timestamp"`
}

func (w notificationWire) normalize() resource.Notification {
	return resource.Notification{
		ID:        firstString(w.ID),
		Title:     resource.OrDefault(firstString(w.Title), resource.DefaultTitle),
		Message:   firstString(w.Message, w.Body),
		Type:      resource.OrDefault(strings.ToLower(firstString(w.Type)), resource.DefaultNotificationType),
		Source:    firstString(w.Source),
		Read:      bool(w.Read) || bool(w.IsRead),
		CreatedAt: firstTime(w.CreatedAt, w.CreatedAlt, w.Timestamp),
	}
}

type actionWire struct {
	ID          flexString `json:"id"`
	Title       flexString `json:"title"`
	Name        flexString `json:"name"`
	Description flexString `json:"description"`
	Icon        flexString `json:"icon"`
	URL         flexString `json:"url"`
	Webhook     flexString `json:"webhookUrl"`
	Method      flexString `json:"method"`
	Payload     flexObject `json:"payload"`
}

func (w actionWire) normalize() resource.Action {
	return resource.Action{
		ID:          firstString(w.ID),
		Title:       resource.OrDefault(firstString(w.Title, w.Name), resource.DefaultTitle),
		Description: firstString(w.Description),
		Icon:        resource.OrDefault(firstString(w.Icon), resource.DefaultActionIcon),
		URL:         firstString(w.URL, w.Webhook),
		Method:      resource.OrDefault(strings.ToUpper(firstString(w.Method)), resource.DefaultActionMethod),
		Payload:     map[string]any(w.Payload),
	}
}

type conversationWire struct {
	ID           flexString `json:"id"`
	ConvID       flexString `json:"conversationId"`
	Title        flexString `json:"title"`
	LastMessage  flexString `json:"lastMessage"`
	Preview      flexString `json:"preview"`
	MessageCount flexInt    `json:"messageCount"`
	UnreadCount  flexInt    `json:"unreadCount"`
	UpdatedAt    flexTime   `json:"updatedAt"`
	UpdatedAlt   flexTime   `json:"updated_at"`
}

func (w conversationWire) normalize() resource.Conversation {
	return resource.Conversation{
		ID:           firstString(w.ID, w.ConvID),
		Title:        resource.OrDefault(firstString(w.Title), resource.DefaultTitle),
		LastMessage:  firstString(w.LastMessage, w.Preview),
		MessageCount: int(w.MessageCount),
		UnreadCount:  int(w.UnreadCount),
		UpdatedAt:    firstTime(w.UpdatedAt, w.UpdatedAlt),
	}
}

type chatPairWire struct {
	ID               flexString `json:"id"`
	ConversationID   flexString `json:"conversationId"`
	UserMessage      flexString `json:"userMessage"`
	User             flexString `json:"user"`
	AssistantMessage flexString `json:"assistantMessage"`
	Assistant        flexString `json:"assistant"`
	Response         flexString `json:"response"`
	Timestamp        flexTime   `json:"timestamp"`
	CreatedAt        flexTime   `json:"createdAt"`
}

func (w chatPairWire) normalize() resource.ChatMessagePair {
	return resource.ChatMessagePair{
		ID:               firstString(w.ID),
		ConversationID:   firstString(w.ConversationID),
		UserMessage:      firstString(w.UserMessage, w.User),
		AssistantMessage: firstString(w.AssistantMessage, w.Assistant, w.Response),
		Timestamp:        firstTime(w.Timestamp, w.CreatedAt),
	}
}
