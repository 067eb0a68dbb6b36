package hubsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/five82/deskhub/internal/cache"
	"github.com/five82/deskhub/internal/decode"
	"github.com/five82/deskhub/internal/events"
	"github.com/five82/deskhub/internal/hubapi"
	"github.com/five82/deskhub/internal/metrics"
	"github.com/five82/deskhub/internal/resource"
	"github.com/five82/deskhub/internal/state"
)

// Phase is a coordinator's position in its refresh cycle.
type Phase int

const (
	Idle Phase = iota
	Fetching
	Success
	Failure
	FallbackApplied
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Fetching:
		return "fetching"
	case Success:
		return "success"
	case Failure:
		return "failure"
	case FallbackApplied:
		return "fallback_applied"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Status is a point-in-time view of one coordinator.
type Status struct {
	Kind          resource.Kind
	Phase         Phase
	InFlight      int
	LastOutcome   decode.Outcome
	HasOutcome    bool
	LastError     error
	LastCompleted time.Time
	Completed     uint64 // fetches applied so far
}

// coordinator is the kind-independent surface the engine drives. Every
// method except status and resolve runs on the engine goroutine.
type coordinator interface {
	kind() resource.Kind
	publishStale() bool
	serveFresh(ttl time.Duration) bool
	begin()
	resolve(body []byte, err error, elapsed time.Duration) func(ctx context.Context)
	invalidate()
	status() Status
}

// Coordinator ties one kind's cache entry, decoder and published view together.
type Coordinator[T any] struct {
	k        resource.Kind
	entry    *cache.Entry[T]
	view     *state.Published[T]
	decoder  *decode.Decoder[T]
	notifier events.Publisher
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      func() time.Time

	mu            sync.Mutex
	phase         Phase
	inFlight      int
	lastOutcome   decode.Outcome
	hasOutcome    bool
	lastErr       error
	lastCompleted time.Time
	completed     uint64
}

type coordinatorDeps struct {
	notifier events.Publisher
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      func() time.Time
}

func newCoordinator[T any](entry *cache.Entry[T], view *state.Published[T], decoder *decode.Decoder[T], deps coordinatorDeps) *Coordinator[T] {
	return &Coordinator[T]{
		k:        entry.Kind(),
		entry:    entry,
		view:     view,
		decoder:  decoder,
		notifier: deps.notifier,
		metrics:  deps.metrics,
		logger:   deps.logger.With("kind", entry.Kind().String()),
		now:      deps.now,
	}
}

func (c *Coordinator[T]) kind() resource.Kind { return c.k }

// publishStale shows whatever the cache holds, flagged stale. It reports
// whether anything was shown.
func (c *Coordinator[T]) publishStale() bool {
	items, ok := c.entry.Peek()
	if !ok || len(items) == 0 {
		return false
	}
	c.view.Publish(items, len(items), c.decoder.Unread(items), decode.Decoded, true)
	events.NotifyUpdated(c.notifier, c.k)
	return true
}

// serveFresh republishes cached items when they are younger than ttl.
func (c *Coordinator[T]) serveFresh(ttl time.Duration) bool {
	items, ok := c.entry.Get(ttl)
	if !ok {
		return false
	}
	outcome := decode.Decoded
	if len(items) == 0 {
		outcome = decode.Empty
	}
	c.view.Publish(items, len(items), c.decoder.Unread(items), outcome, false)
	events.NotifyUpdated(c.notifier, c.k)
	c.logger.Debug("served from cache", "items", len(items))
	return true
}

func (c *Coordinator[T]) begin() {
	c.mu.Lock()
	c.inFlight++
	c.phase = Fetching
	c.mu.Unlock()

	c.view.SetFetching(true)
	c.metrics.FetchStarted(c.k.String())
}

// resolve decodes a finished fetch. It runs on the worker goroutine and
// returns the state change to apply on the engine goroutine.
func (c *Coordinator[T]) resolve(body []byte, err error, elapsed time.Duration) func(ctx context.Context) {
	var res decode.Result[T]
	if err != nil {
		res = c.decoder.Fallback(err)
	} else {
		res = c.decoder.Decode(body)
	}
	return func(ctx context.Context) {
		c.metrics.FetchFinished(c.k.String(), elapsed)
		c.apply(ctx, res)
	}
}

// apply publishes a result. Completions are applied in arrival order, so the
// last fetch to complete decides what is visible.
func (c *Coordinator[T]) apply(ctx context.Context, res decode.Result[T]) {
	switch res.Outcome {
	case decode.Decoded, decode.Empty:
		c.transition(Success)
		c.view.Publish(res.Items, res.Count, res.UnreadCount, res.Outcome, false)
		c.entry.Put(ctx, res.Items)
		c.logger.Debug("refresh complete",
			"outcome", res.Outcome.String(),
			"shape", res.Shape.String(),
			"items", len(res.Items),
			"count", res.Count,
		)
	case decode.Fallback:
		c.transition(Failure)
		class := failureClass(res.Err)
		c.view.Fail(res.Items, res.Err)
		events.NotifyUpdated(c.notifier, c.k)
		c.metrics.SyncFailure(c.k.String(), class)
		c.logger.Warn("refresh failed, showing fallback", "class", class, "error", res.Err)
		c.transition(FallbackApplied)
	}
	c.metrics.SyncResult(c.k.String(), res.Outcome.String())

	c.mu.Lock()
	c.inFlight--
	c.lastOutcome = res.Outcome
	c.hasOutcome = true
	c.lastErr = res.Err
	c.lastCompleted = c.now()
	c.completed++
	stillFetching := c.inFlight > 0
	if stillFetching {
		c.phase = Fetching
	} else {
		c.phase = Idle
	}
	c.mu.Unlock()

	// A newer fetch may still be running; keep the spinner until it lands.
	c.view.SetFetching(stillFetching)
}

func (c *Coordinator[T]) transition(to Phase) {
	c.mu.Lock()
	from := c.phase
	c.phase = to
	c.mu.Unlock()
	c.logger.Debug("phase", "from", from.String(), "to", to.String())
}

func (c *Coordinator[T]) invalidate() {
	c.entry.Invalidate()
}

func (c *Coordinator[T]) status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Status{
		Kind:          c.k,
		Phase:         c.phase,
		InFlight:      c.inFlight,
		LastOutcome:   c.lastOutcome,
		HasOutcome:    c.hasOutcome,
		LastError:     c.lastErr,
		LastCompleted: c.lastCompleted,
		Completed:     c.completed,
	}
}

func failureClass(err error) string {
	var de *decode.DecodeError
	if errors.As(err, &de) {
		return "decode"
	}
	return hubapi.Class(err)
}
