// Package events decouples scheduler ticks and manual refresh requests from
// the consumers that react to them. Events are fire-and-forget: they carry no
// payload beyond "this kind wants a refresh" or "re-read this kind".
package events

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/five82/deskhub/internal/resource"
)

// Type distinguishes the two signals on the bus.
type Type int

const (
	RefreshRequested Type = iota
	CollectionUpdated
)

func (t Type) String() string {
	switch t {
	case RefreshRequested:
		return "refresh_requested"
	case CollectionUpdated:
		return "collection_updated"
	default:
		return fmt.Sprintf("event(%d)", int(t))
	}
}

// Event is a single notification.
type Event struct {
	Type   Type
	Kind   resource.Kind
	Manual bool // refresh requested by the user rather than a timer
	At     time.Time
}

// Publisher accepts events.
type Publisher interface {
	Publish(Event)
}

// Bus fans events out to subscribers. A subscriber whose buffer is full misses
// the event; since events only say "look again", a missed event is covered by
// the next one for the same kind.
type Bus struct {
	mu      sync.RWMutex
	subs    map[int]chan Event
	nextID  int
	closed  bool
	dropped atomic.Int64
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan Event)}
}

// Publish delivers ev to every subscriber without blocking.
func (b *Bus) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			b.dropped.Add(1)
		}
	}
}

// Subscribe registers a buffered subscriber. The returned cancel func removes
// the subscription and closes the channel; it is safe to call more than once.
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if sub, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(sub)
			}
		})
	}
}

// Dropped returns how many deliveries were skipped because a subscriber was full.
func (b *Bus) Dropped() int64 {
	return b.dropped.Load()
}

// Close closes every subscriber channel. Later publishes are ignored.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}

// RequestRefresh publishes a refresh request for kind.
func RequestRefresh(p Publisher, kind resource.Kind, manual bool) {
	if p == nil {
		return
	}
	p.Publish(Event{Type: RefreshRequested, Kind: kind, Manual: manual})
}

// NotifyUpdated publishes a collection-updated signal for kind.
func NotifyUpdated(p Publisher, kind resource.Kind) {
	if p == nil {
		return
	}
	p.Publish(Event{Type: CollectionUpdated, Kind: kind})
}
