// Package cache holds the in-memory collection for each resource kind together
// with the time it was last fetched, and mirrors every write to a
// persist.Store.
//
// Freshness is decided only by fetchedAt. Items restored from disk come back
// without a fetch time, so after a restart every kind reads as stale until the
// first successful fetch even though its old items are still available
// through Peek.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/five82/deskhub/internal/events"
	"github.com/five82/deskhub/internal/metrics"
	"github.com/five82/deskhub/internal/persist"
	"github.com/five82/deskhub/internal/resource"
)

// Unbounded passed as maxAge to Get returns whatever items are held,
// regardless of fetch time.
const Unbounded time.Duration = -1

const blobVersion = 1

// Options are shared by every entry in a Set.
type Options struct {
	Store     persist.Store
	Namespace string
	Notifier  events.Publisher
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
	Now       func() time.Time
}

// Entry is the cache for one resource kind.
type Entry[T any] struct {
	kind     resource.Kind
	key      string
	store    persist.Store
	notifier events.Publisher
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      func() time.Time

	mu        sync.RWMutex
	present   bool
	items     []T
	fetchedAt time.Time
	digest    uint64
	hasDigest bool
}

// NewEntry builds an empty entry for kind.
func NewEntry[T any](kind resource.Kind, opts Options) *Entry[T] {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Entry[T]{
		kind:     kind,
		key:      persist.Key(opts.Namespace, kind.String()),
		store:    opts.Store,
		notifier: opts.Notifier,
		metrics:  opts.Metrics,
		logger:   logger.With("kind", kind.String()),
		now:      now,
	}
}

// Kind returns the resource kind this entry caches.
func (e *Entry[T]) Kind() resource.Kind {
	return e.kind
}

// Get returns the items when they were fetched less than maxAge ago. A
// never-fetched or invalidated entry always misses unless maxAge is Unbounded.
func (e *Entry[T]) Get(maxAge time.Duration) ([]T, bool) {
	if maxAge == Unbounded {
		return e.Peek()
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	hit := e.present && !e.fetchedAt.IsZero() && e.now().Sub(e.fetchedAt) < maxAge
	e.metrics.CacheRead(e.kind.String(), hit)
	if !hit {
		return nil, false
	}
	return cloneItems(e.items), true
}

// Peek returns the held items regardless of freshness.
func (e *Entry[T]) Peek() ([]T, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if !e.present {
		return nil, false
	}
	return cloneItems(e.items), true
}

// FetchedAt returns the last successful fetch time; false when unknown.
func (e *Entry[T]) FetchedAt() (time.Time, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.fetchedAt, !e.fetchedAt.IsZero()
}

// Len returns the number of held items.
func (e *Entry[T]) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.items)
}

// Put replaces the collection, stamps it as fetched now, persists it and
// signals the update. Persistence failures are logged and otherwise ignored.
func (e *Entry[T]) Put(ctx context.Context, items []T) {
	e.mu.Lock()
	e.present = true
	e.items = cloneItems(items)
	if e.items == nil {
		e.items = []T{}
	}
	e.fetchedAt = e.now()
	e.persistLocked(ctx)
	e.mu.Unlock()

	events.NotifyUpdated(e.notifier, e.kind)
}

// Invalidate forgets the fetch time so the next gated read misses. Items are kept.
func (e *Entry[T]) Invalidate() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fetchedAt = time.Time{}
}

// LoadFromDisk restores items saved by a previous process. Any failure leaves
// an empty collection. The fetch time is never restored. It returns the number
// of items loaded.
func (e *Entry[T]) LoadFromDisk(ctx context.Context) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.items = []T{}
	e.fetchedAt = time.Time{}
	e.present = false
	if e.store == nil {
		return 0
	}

	data, err := e.store.Load(ctx, e.key)
	if err != nil {
		if !errors.Is(err, persist.ErrNotFound) {
			e.logger.Warn("cache load failed", "key", e.key, "error", err)
		}
		return 0
	}

	items, raw, err := decodeBlob[T](data, e.kind)
	if err != nil {
		e.logger.Warn("discarding unreadable cache blob", "key", e.key, "error", err)
		return 0
	}
	e.present = true
	e.items = items
	e.digest = xxhash.Sum64(raw)
	e.hasDigest = true
	return len(items)
}

func (e *Entry[T]) persistLocked(ctx context.Context) {
	if e.store == nil {
		return
	}
	kind := e.kind.String()

	raw, err := json.Marshal(e.items)
	if err != nil {
		e.logger.Warn("cache encode failed", "error", err)
		e.metrics.PersistWrite(kind, "error")
		return
	}
	digest := xxhash.Sum64(raw)
	if e.hasDigest && digest == e.digest {
		e.metrics.PersistWrite(kind, "skipped")
		return
	}

	blob, err := json.Marshal(envelope{
		Version: blobVersion,
		Kind:    kind,
		SavedAt: e.now().UTC(),
		Items:   raw,
	})
	if err != nil {
		e.logger.Warn("cache encode failed", "error", err)
		e.metrics.PersistWrite(kind, "error")
		return
	}
	if err := e.store.Save(ctx, e.key, blob); err != nil {
		e.logger.Warn("cache persist failed", "key", e.key, "error", err)
		e.metrics.PersistWrite(kind, "error")
		return
	}
	e.digest = digest
	e.hasDigest = true
	e.metrics.PersistWrite(kind, "ok")
}

// envelope is the on-disk format. SavedAt is informational and is not used to
// restore freshness.
type envelope struct {
	Version int             `json:"version"`
	Kind    string          `json:"kind"`
	SavedAt time.Time       `json:"savedAt"`
	Items   json.RawMessage `json:"items"`
}

func decodeBlob[T any](data []byte, kind resource.Kind) ([]T, []byte, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, nil, fmt.Errorf("parse envelope: %w", err)
	}
	if env.Version != blobVersion {
		return nil, nil, fmt.Errorf("unsupported blob version %d", env.Version)
	}
	if env.Kind != kind.String() {
		return nil, nil, fmt.Errorf("blob holds %q, want %q", env.Kind, kind.String())
	}
	var items []T
	if len(env.Items) > 0 {
		if err := json.Unmarshal(env.Items, &items); err != nil {
			return nil, nil, fmt.Errorf("parse items: %w", err)
		}
	}
	if items == nil {
		items = []T{}
	}
	return items, env.Items, nil
}

func cloneItems[T any](items []T) []T {
	if items == nil {
		return nil
	}
	dup := make([]T, len(items))
	copy(dup, items)
	return dup
}
