package hubsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/five82/deskhub/internal/cache"
	"github.com/five82/deskhub/internal/decode"
	"github.com/five82/deskhub/internal/events"
	"github.com/five82/deskhub/internal/hubapi"
	"github.com/five82/deskhub/internal/metrics"
	"github.com/five82/deskhub/internal/resource"
	"github.com/five82/deskhub/internal/state"
)

// ErrNotRunning is returned by calls that need the engine goroutine after
// Run has returned or before it started accepting work.
var ErrNotRunning = errors.New("sync engine not running")

const waitPollInterval = 20 * time.Millisecond

// Bus is the event channel the engine listens on and publishes to.
type Bus interface {
	events.Publisher
	Subscribe(buffer int) (<-chan events.Event, func())
}

// Rescheduler reconfigures a kind's refresh timer.
type Rescheduler interface {
	Set(kind resource.Kind, period time.Duration)
}

// Endpoints holds the webhook URL for every list kind and mutation.
type Endpoints struct {
	Tasks               string
	Notifications       string
	Actions             string
	Conversations       string
	ConversationHistory string
	TaskUpdate          string
	NotificationUpdate  string
	ChatSend            string
}

// For returns the list endpoint of kind.
func (e Endpoints) For(kind resource.Kind) string {
	switch kind {
	case resource.Tasks:
		return e.Tasks
	case resource.Notifications:
		return e.Notifications
	case resource.Actions:
		return e.Actions
	case resource.Conversations:
		return e.Conversations
	case resource.ConversationHistory:
		return e.ConversationHistory
	default:
		return ""
	}
}

func (e *Endpoints) set(kind resource.Kind, url string) {
	switch kind {
	case resource.Tasks:
		e.Tasks = url
	case resource.Notifications:
		e.Notifications = url
	case resource.Actions:
		e.Actions = url
	case resource.Conversations:
		e.Conversations = url
	case resource.ConversationHistory:
		e.ConversationHistory = url
	}
}

// Options configure an Engine.
type Options struct {
	Transport      hubapi.Transport
	Cache          *cache.Set
	Store          *state.Store
	Bus            Bus
	Scheduler      Rescheduler // optional
	Policy         resource.TTLPolicy
	Endpoints      Endpoints
	UserID         string
	Limit          int
	ConversationID string // history to load at startup; empty skips it
	Metrics        *metrics.Metrics
	Logger         *slog.Logger
	Now            func() time.Time

	// RestoreOnly limits startup to publishing cached items. Nothing is
	// fetched until a refresh is requested.
	RestoreOnly bool
}

// Engine owns every coordinator. All cache writes and published-state
// changes happen on the goroutine running Run.
type Engine struct {
	transport   hubapi.Transport
	cache       *cache.Set
	store       *state.Store
	bus         Bus
	scheduler   Rescheduler
	metrics     *metrics.Metrics
	logger      *slog.Logger
	now         func() time.Time
	userID      string
	restoreOnly bool

	coords map[resource.Kind]coordinator

	// Owned by the engine goroutine.
	policy         resource.TTLPolicy
	endpoints      Endpoints
	params         hubapi.RequestParams
	conversationID string

	commands    chan func(context.Context)
	completions chan func(context.Context)
	started     atomic.Bool
	ready       chan struct{}
	done        chan struct{}
}

// New wires an engine. Call Run to start it.
func New(opts Options) (*Engine, error) {
	if opts.Transport == nil {
		return nil, fmt.Errorf("transport is required")
	}
	if opts.Cache == nil || opts.Store == nil || opts.Bus == nil {
		return nil, fmt.Errorf("cache, store and bus are required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	userID := strings.TrimSpace(opts.UserID)
	if userID == "" {
		userID = hubapi.DefaultUserID
	}
	policy := opts.Policy
	if policy == (resource.TTLPolicy{}) {
		policy = resource.DefaultTTLPolicy()
	}

	e := &Engine{
		transport:   opts.Transport,
		cache:       opts.Cache,
		store:       opts.Store,
		bus:         opts.Bus,
		scheduler:   opts.Scheduler,
		metrics:     opts.Metrics,
		logger:      logger.With("component", "sync"),
		now:         now,
		userID:      userID,
		restoreOnly: opts.RestoreOnly,
		policy:      policy,
		endpoints:   opts.Endpoints,
		params: hubapi.RequestParams{
			UserID:         userID,
			Limit:          opts.Limit,
			ConversationID: opts.ConversationID,
		},
		conversationID: opts.ConversationID,
		commands:       make(chan func(context.Context), 16),
		completions:    make(chan func(context.Context), 16),
		ready:          make(chan struct{}),
		done:           make(chan struct{}),
	}

	deps := coordinatorDeps{notifier: opts.Bus, metrics: opts.Metrics, logger: e.logger, now: now}
	e.coords = map[resource.Kind]coordinator{
		resource.Tasks:               newCoordinator(opts.Cache.Tasks, &opts.Store.Tasks, decode.NewTaskDecoder(), deps),
		resource.Notifications:       newCoordinator(opts.Cache.Notifications, &opts.Store.Notifications, decode.NewNotificationDecoder(), deps),
		resource.Actions:             newCoordinator(opts.Cache.Actions, &opts.Store.Actions, decode.NewActionDecoder(), deps),
		resource.Conversations:       newCoordinator(opts.Cache.Conversations, &opts.Store.Conversations, decode.NewConversationDecoder(), deps),
		resource.ConversationHistory: newCoordinator(opts.Cache.History, &opts.Store.History, decode.NewHistoryDecoder(), deps),
	}
	opts.Store.SetConversationID(opts.ConversationID)
	return e, nil
}

// Run restores cached collections, loads every kind and then serves refresh
// requests until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	if !e.started.CompareAndSwap(false, true) {
		return fmt.Errorf("sync engine already running")
	}
	defer close(e.done)

	sub, cancel := e.bus.Subscribe(256)
	defer cancel()

	e.startup(ctx)
	close(e.ready)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-sub:
			if !ok {
				return nil
			}
			if ev.Type != events.RefreshRequested {
				continue
			}
			if ev.Kind == resource.ConversationHistory && e.conversationID == "" {
				e.logger.Debug("history refresh skipped, no conversation selected")
				continue
			}
			e.logger.Debug("refresh requested", "kind", ev.Kind.String(), "manual", ev.Manual)
			e.fetch(ctx, ev.Kind)
		case cmd := <-e.commands:
			cmd(ctx)
		case apply := <-e.completions:
			apply(ctx)
		}
	}
}

func (e *Engine) startup(ctx context.Context) {
	loaded := e.cache.LoadFromDisk(ctx)
	for _, kind := range resource.All {
		if kind == resource.ConversationHistory && !e.cachedHistoryMatches() {
			e.logger.Debug("cached history not restored", "conversation", e.conversationID)
			continue
		}
		if e.coords[kind].publishStale() {
			e.logger.Info("restored cached items", "kind", kind.String(), "items", loaded[kind])
		}
	}
	if e.restoreOnly {
		return
	}
	for _, kind := range resource.All {
		if kind == resource.ConversationHistory && e.conversationID == "" {
			continue
		}
		e.load(ctx, kind)
	}
}

// cachedHistoryMatches reports whether the history on disk may be shown for
// the selected conversation. The cache holds the last fetched conversation
// only, and every pair must be tagged with the selected id.
func (e *Engine) cachedHistoryMatches() bool {
	if e.conversationID == "" {
		return false
	}
	pairs, _ := e.cache.History.Peek()
	for _, p := range pairs {
		if p.ConversationID != e.conversationID {
			return false
		}
	}
	return true
}

// load serves kind from cache when fresh and fetches otherwise.
func (e *Engine) load(ctx context.Context, kind resource.Kind) {
	c, ok := e.coords[kind]
	if !ok {
		return
	}
	if c.serveFresh(e.policy.TTL(kind)) {
		return
	}
	e.fetch(ctx, kind)
}

// fetch issues one live request for kind. Invalid endpoints fail immediately
// without touching the network.
func (e *Engine) fetch(ctx context.Context, kind resource.Kind) {
	c, ok := e.coords[kind]
	if !ok {
		e.logger.Warn("refresh for unknown kind ignored", "kind", kind.String())
		return
	}
	url := e.endpoints.For(kind)
	body := e.params.Body(kind)

	c.begin()
	if _, err := hubapi.ValidateEndpoint(url); err != nil {
		c.resolve(nil, err, 0)(ctx)
		return
	}

	start := e.now()
	go func() {
		raw, err := e.transport.Fetch(ctx, url, body)
		apply := c.resolve(raw, err, e.now().Sub(start))
		select {
		case e.completions <- apply:
		case <-e.done:
		}
	}()
}

// submit runs fn on the engine goroutine and waits for it.
func (e *Engine) submit(ctx context.Context, fn func(context.Context)) error {
	if !e.started.Load() {
		return ErrNotRunning
	}
	finished := make(chan struct{})
	wrapped := func(runCtx context.Context) {
		defer close(finished)
		fn(runCtx)
	}
	select {
	case e.commands <- wrapped:
	case <-e.done:
		return ErrNotRunning
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-finished:
		return nil
	case <-e.done:
		return ErrNotRunning
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Ready is closed once Run has subscribed to the bus and finished startup.
func (e *Engine) Ready() <-chan struct{} {
	return e.ready
}

// Load serves kind from cache when it is within its TTL and fetches otherwise.
func (e *Engine) Load(ctx context.Context, kind resource.Kind) error {
	if !kind.Valid() {
		return fmt.Errorf("unknown kind %d", int(kind))
	}
	return e.submit(ctx, func(runCtx context.Context) { e.load(runCtx, kind) })
}

// Refresh fetches kind now, ignoring cache freshness.
func (e *Engine) Refresh(kind resource.Kind) {
	events.RequestRefresh(e.bus, kind, true)
}

// RefreshAll requests a manual refresh of every loaded kind.
func (e *Engine) RefreshAll() {
	for _, kind := range resource.All {
		if kind == resource.ConversationHistory && e.store.ConversationID() == "" {
			continue
		}
		e.Refresh(kind)
	}
}

// FetchAndWait fetches kind now and blocks until that fetch, or one that
// finished after it started, has been applied. The returned status says
// whether the result was data or a fallback.
func (e *Engine) FetchAndWait(ctx context.Context, kind resource.Kind) (Status, error) {
	c, ok := e.coords[kind]
	if !ok {
		return Status{Kind: kind}, fmt.Errorf("unknown kind %d", int(kind))
	}
	var before uint64
	err := e.submit(ctx, func(runCtx context.Context) {
		before = c.status().Completed
		e.fetch(runCtx, kind)
	})
	if err != nil {
		return Status{Kind: kind}, err
	}

	ticker := time.NewTicker(waitPollInterval)
	defer ticker.Stop()
	for {
		st := c.status()
		if st.InFlight == 0 && st.Completed > before {
			return st, nil
		}
		select {
		case <-ctx.Done():
			return st, ctx.Err()
		case <-e.done:
			return st, ErrNotRunning
		case <-ticker.C:
		}
	}
}

// Status returns the state of kind's coordinator.
func (e *Engine) Status(kind resource.Kind) Status {
	c, ok := e.coords[kind]
	if !ok {
		return Status{Kind: kind}
	}
	return c.status()
}

// SetRefreshMinutes changes the TTL and refresh interval of a configurable
// kind together. It returns the clamped value in effect.
func (e *Engine) SetRefreshMinutes(ctx context.Context, kind resource.Kind, minutes int) (int, error) {
	if !kind.UserConfigurable() {
		return 0, fmt.Errorf("%s refresh interval is fixed", kind)
	}
	applied := resource.ClampRefreshMinutes(minutes)
	err := e.submit(ctx, func(context.Context) {
		e.policy = e.policy.WithMinutes(kind, applied)
		if e.scheduler != nil {
			e.scheduler.Set(kind, e.policy.RefreshInterval(kind))
		}
		e.logger.Info("refresh interval changed", "kind", kind.String(), "minutes", applied)
	})
	if err != nil {
		return 0, err
	}
	return applied, nil
}

// SetEndpoint replaces kind's list endpoint and refetches it.
func (e *Engine) SetEndpoint(ctx context.Context, kind resource.Kind, url string) error {
	if !kind.Valid() {
		return fmt.Errorf("unknown kind %d", int(kind))
	}
	url = strings.TrimSpace(url)
	return e.submit(ctx, func(runCtx context.Context) {
		e.endpoints.set(kind, url)
		e.coords[kind].invalidate()
		e.fetch(runCtx, kind)
	})
}

// SelectConversation switches the history view to id and loads it.
func (e *Engine) SelectConversation(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("conversation id required")
	}
	return e.submit(ctx, func(runCtx context.Context) {
		if id == e.conversationID {
			e.load(runCtx, resource.ConversationHistory)
			return
		}
		e.conversationID = id
		e.params.ConversationID = id
		e.store.SetConversationID(id)
		// The history cache holds one conversation at a time.
		e.coords[resource.ConversationHistory].invalidate()
		e.fetch(runCtx, resource.ConversationHistory)
	})
}
