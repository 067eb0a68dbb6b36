package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/five82/deskhub/internal/decode"
	"github.com/five82/deskhub/internal/resource"
)

// Collection is the published view of one resource kind.
type Collection[T any] struct {
	Items               []T
	Count               int
	UnreadCount         int
	Outcome             decode.Outcome
	Stale               bool // items came from disk or an expired cache entry
	LastError           error
	LastUpdated         time.Time
	Fetching            bool
	ConsecutiveFailures int // number of consecutive failed refreshes
}

// IsOffline returns true when the hub has been unreachable for multiple refreshes.
func (c Collection[T]) IsOffline() bool {
	return c.ConsecutiveFailures >= 2
}

// Meta returns the item-independent part of the collection.
func (c Collection[T]) Meta() Meta {
	return Meta{
		Len:                 len(c.Items),
		Count:               c.Count,
		UnreadCount:         c.UnreadCount,
		Outcome:             c.Outcome,
		Stale:               c.Stale,
		LastError:           c.LastError,
		LastUpdated:         c.LastUpdated,
		Fetching:            c.Fetching,
		ConsecutiveFailures: c.ConsecutiveFailures,
	}
}

// Meta describes a collection without its items. Tab headers and the CLI
// use it to treat every kind the same way.
type Meta struct {
	Len                 int
	Count               int
	UnreadCount         int
	Outcome             decode.Outcome
	Stale               bool
	LastError           error
	LastUpdated         time.Time
	Fetching            bool
	ConsecutiveFailures int
}

// IsOffline mirrors Collection.IsOffline.
func (m Meta) IsOffline() bool {
	return m.ConsecutiveFailures >= 2
}

// Published guards one collection. A single goroutine writes; any number read.
type Published[T any] struct {
	mu   sync.RWMutex
	coll Collection[T]
}

// Publish replaces the visible items after a decoded or empty result, or when
// cached items are republished. A non-stale publish clears the failure
// streak. Fetching is left to SetFetching since another request may still be
// in flight.
func (p *Published[T]) Publish(items []T, count, unread int, outcome decode.Outcome, stale bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.coll.Items = cloneItems(items)
	p.coll.Count = count
	p.coll.UnreadCount = unread
	p.coll.Outcome = outcome
	p.coll.Stale = stale
	p.coll.LastUpdated = time.Now()
	if !stale {
		p.coll.LastError = nil
		p.coll.ConsecutiveFailures = 0
	}
}

// Fail publishes placeholder items (normally a single synthetic record) and
// records err.
func (p *Published[T]) Fail(placeholder []T, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.coll.Items = cloneItems(placeholder)
	p.coll.Count = 0
	p.coll.UnreadCount = 0
	p.coll.Outcome = decode.Fallback
	p.coll.Stale = false
	p.coll.LastError = err
	p.coll.LastUpdated = time.Now()
	p.coll.ConsecutiveFailures++
}

// SetFetching flags an in-flight refresh.
func (p *Published[T]) SetFetching(fetching bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.coll.Fetching = fetching
}

// Snapshot returns a copy of the collection.
func (p *Published[T]) Snapshot() Collection[T] {
	p.mu.RLock()
	defer p.mu.RUnlock()

	snap := p.coll
	snap.Items = cloneItems(p.coll.Items)
	if p.coll.LastError != nil {
		snap.LastError = fmt.Errorf("%w", p.coll.LastError)
	}
	return snap
}

// Meta returns the snapshot's Meta without copying items.
func (p *Published[T]) Meta() Meta {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.coll.Meta()
}

// Store holds the published collection of every kind plus the conversation
// whose history is shown.
type Store struct {
	Tasks         Published[resource.Task]
	Notifications Published[resource.Notification]
	Actions       Published[resource.Action]
	Conversations Published[resource.Conversation]
	History       Published[resource.ChatMessagePair]

	mu             sync.RWMutex
	conversationID string
}

// Snapshot is every collection at one point in time.
type Snapshot struct {
	Tasks          Collection[resource.Task]
	Notifications  Collection[resource.Notification]
	Actions        Collection[resource.Action]
	Conversations  Collection[resource.Conversation]
	History        Collection[resource.ChatMessagePair]
	ConversationID string
}

// IsOffline returns true when every list kind is offline.
func (s Snapshot) IsOffline() bool {
	return s.Tasks.IsOffline() && s.Notifications.IsOffline() &&
		s.Actions.IsOffline() && s.Conversations.IsOffline()
}

// Snapshot copies every collection. Collections are copied one at a time, so
// two kinds may reflect different refresh generations.
func (s *Store) Snapshot() Snapshot {
	return Snapshot{
		Tasks:          s.Tasks.Snapshot(),
		Notifications:  s.Notifications.Snapshot(),
		Actions:        s.Actions.Snapshot(),
		Conversations:  s.Conversations.Snapshot(),
		History:        s.History.Snapshot(),
		ConversationID: s.ConversationID(),
	}
}

// Meta returns the item-independent view of kind.
func (s *Store) Meta(kind resource.Kind) Meta {
	switch kind {
	case resource.Tasks:
		return s.Tasks.Meta()
	case resource.Notifications:
		return s.Notifications.Meta()
	case resource.Actions:
		return s.Actions.Meta()
	case resource.Conversations:
		return s.Conversations.Meta()
	case resource.ConversationHistory:
		return s.History.Meta()
	default:
		return Meta{}
	}
}

// SetFetching flags kind as in flight or idle.
func (s *Store) SetFetching(kind resource.Kind, fetching bool) {
	switch kind {
	case resource.Tasks:
		s.Tasks.SetFetching(fetching)
	case resource.Notifications:
		s.Notifications.SetFetching(fetching)
	case resource.Actions:
		s.Actions.SetFetching(fetching)
	case resource.Conversations:
		s.Conversations.SetFetching(fetching)
	case resource.ConversationHistory:
		s.History.SetFetching(fetching)
	}
}

// SetConversationID records the conversation whose history is loaded.
func (s *Store) SetConversationID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversationID = id
}

// ConversationID returns the selected conversation.
func (s *Store) ConversationID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conversationID
}

func cloneItems[T any](items []T) []T {
	if items == nil {
		return nil
	}
	dup := make([]T, len(items))
	copy(dup, items)
	return dup
}
