package cache

import (
	"context"
	"time"

	"github.com/five82/deskhub/internal/resource"
)

// Controller is the kind-agnostic view of an Entry.
type Controller interface {
	Kind() resource.Kind
	Invalidate()
	FetchedAt() (time.Time, bool)
	Len() int
	LoadFromDisk(ctx context.Context) int
}

// Set is the cache context for all five kinds. Construct one per process (or
// per test) and hand it to the sync engine.
type Set struct {
	Tasks         *Entry[resource.Task]
	Notifications *Entry[resource.Notification]
	Actions       *Entry[resource.Action]
	Conversations *Entry[resource.Conversation]
	History       *Entry[resource.ChatMessagePair]
}

// NewSet builds empty entries sharing opts.
func NewSet(opts Options) *Set {
	return &Set{
		Tasks:         NewEntry[resource.Task](resource.Tasks, opts),
		Notifications: NewEntry[resource.Notification](resource.Notifications, opts),
		Actions:       NewEntry[resource.Action](resource.Actions, opts),
		Conversations: NewEntry[resource.Conversation](resource.Conversations, opts),
		History:       NewEntry[resource.ChatMessagePair](resource.ConversationHistory, opts),
	}
}

// Entry returns the controller for kind, or nil for an unknown kind.
func (s *Set) Entry(kind resource.Kind) Controller {
	switch kind {
	case resource.Tasks:
		return s.Tasks
	case resource.Notifications:
		return s.Notifications
	case resource.Actions:
		return s.Actions
	case resource.Conversations:
		return s.Conversations
	case resource.ConversationHistory:
		return s.History
	}
	return nil
}

// LoadFromDisk restores every kind and returns the item counts per kind.
func (s *Set) LoadFromDisk(ctx context.Context) map[resource.Kind]int {
	loaded := make(map[resource.Kind]int, len(resource.All))
	for _, kind := range resource.All {
		loaded[kind] = s.Entry(kind).LoadFromDisk(ctx)
	}
	return loaded
}

// Invalidate clears the fetch time of kind.
func (s *Set) Invalidate(kind resource.Kind) {
	if entry := s.Entry(kind); entry != nil {
		entry.Invalidate()
	}
}
