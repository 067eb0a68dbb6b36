package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/five82/deskhub/internal/cache"
	"github.com/five82/deskhub/internal/config"
	"github.com/five82/deskhub/internal/events"
	"github.com/five82/deskhub/internal/hubapi"
	"github.com/five82/deskhub/internal/hubsync"
	"github.com/five82/deskhub/internal/logging"
	"github.com/five82/deskhub/internal/metrics"
	"github.com/five82/deskhub/internal/persist"
	"github.com/five82/deskhub/internal/prefs"
	"github.com/five82/deskhub/internal/resource"
	"github.com/five82/deskhub/internal/scheduler"
	"github.com/five82/deskhub/internal/state"
	"github.com/five82/deskhub/internal/ui"
)

const metricsShutdownTimeout = 5 * time.Second

// Options configure a deskhub process.
type Options struct {
	ConfigPath     string
	PrefsPath      string // empty uses ~/.config/deskhub/prefs.toml
	EnvFile        string // empty uses ./.env
	Version        string
	ConversationID string // history to load at startup

	// Headless runs the engine without the dashboard. Logs go to Stderr
	// instead of the log file.
	Headless bool
	Stderr   io.Writer

	// RestoreOnly skips the startup fetches and the refresh timers. One-shot
	// commands use it to touch only the kind they were asked about.
	RestoreOnly bool

	// Ephemeral keeps the cache in memory only.
	Ephemeral bool
}

// Services is a fully wired engine without a front end.
type Services struct {
	Config    config.Config
	Prefs     prefs.Prefs
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
	Bus       *events.Bus
	Persist   persist.Store
	Cache     *cache.Set
	Store     *state.Store
	Scheduler *scheduler.Scheduler
	Engine    *hubsync.Engine

	restoreOnly bool
	logCloser   io.Closer
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	metricsSrv  *http.Server
	closeOnce   sync.Once
}

// Build loads configuration and wires every component. Nothing runs until
// Start is called. Callers must Close the result.
func Build(ctx context.Context, opts Options) (*Services, error) {
	if err := config.LoadDotEnv(opts.EnvFile); err != nil {
		return nil, err
	}
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if opts.Ephemeral {
		cfg.Storage.Backend = persist.BackendMemory
	}
	userPrefs, _ := prefs.Load(opts.PrefsPath)

	logOpts := logging.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format}
	if opts.Headless {
		logOpts.Output = opts.Stderr
		if logOpts.Output == nil {
			logOpts.Output = os.Stderr
		}
		logOpts.Color = os.Getenv("NO_COLOR") == ""
	} else {
		logOpts.File = cfg.LogPath()
	}
	logger, logCloser, err := logging.New(logOpts)
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}
	slog.SetDefault(logger)

	s := &Services{
		Config:      cfg,
		Prefs:       userPrefs,
		Logger:      logger,
		Metrics:     metrics.New(),
		Bus:         events.NewBus(),
		Store:       &state.Store{},
		restoreOnly: opts.RestoreOnly,
		logCloser:   logCloser,
		cancel:      func() {},
	}

	store, err := persist.Open(ctx, cfg.PersistOptions())
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("open %s storage: %w", cfg.Storage.Backend, err)
	}
	s.Persist = store

	s.Cache = cache.NewSet(cache.Options{
		Store:     s.Persist,
		Namespace: cfg.Storage.Namespace,
		Notifier:  s.Bus,
		Metrics:   s.Metrics,
		Logger:    logger,
	})
	s.Scheduler = scheduler.New(s.Bus, nil, logger)

	version := opts.Version
	if version == "" {
		version = "dev"
	}
	client := hubapi.NewClient(hubapi.Options{
		Timeout:   cfg.HTTP.Timeout,
		UserAgent: "deskhub/" + version,
	})

	s.Engine, err = hubsync.New(hubsync.Options{
		Transport:      client,
		Cache:          s.Cache,
		Store:          s.Store,
		Bus:            s.Bus,
		Scheduler:      s.Scheduler,
		Policy:         userPrefs.Policy(),
		Endpoints:      engineEndpoints(cfg.Endpoints),
		UserID:         cfg.UserID,
		Limit:          cfg.FetchLimit,
		ConversationID: opts.ConversationID,
		Metrics:        s.Metrics,
		Logger:         logger,
		RestoreOnly:    opts.RestoreOnly,
	})
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("init sync engine: %w", err)
	}
	return s, nil
}

func engineEndpoints(e config.Endpoints) hubsync.Endpoints {
	return hubsync.Endpoints{
		Tasks:               e.Tasks,
		Notifications:       e.Notifications,
		Actions:             e.Actions,
		Conversations:       e.Conversations,
		ConversationHistory: e.ConversationHistory,
		TaskUpdate:          e.TaskUpdate,
		NotificationUpdate:  e.NotificationUpdate,
		ChatSend:            e.ChatSend,
	}
}

// refreshPeriods returns the scheduler period of every kind under policy.
func refreshPeriods(policy resource.TTLPolicy) map[resource.Kind]time.Duration {
	periods := make(map[resource.Kind]time.Duration, len(resource.All))
	for _, kind := range resource.All {
		periods[kind] = policy.RefreshInterval(kind)
	}
	return periods
}

// Start runs the engine, arms the refresh timers and opens the metrics
// listener. It returns once the engine has restored cached state.
func (s *Services) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.Engine.Run(runCtx); err != nil {
			s.Logger.Error("sync engine stopped", "error", err)
		}
	}()

	select {
	case <-s.Engine.Ready():
	case <-ctx.Done():
		return ctx.Err()
	}

	if !s.restoreOnly {
		s.Scheduler.Apply(refreshPeriods(s.Prefs.Policy()))
	}
	if s.Config.Metrics.Listen != "" {
		s.serveMetrics()
	}
	s.Logger.Info("deskhub started",
		"storage", s.Config.Storage.Backend,
		"tasks_refresh_minutes", s.Prefs.TasksRefreshMinutes,
		"notifications_refresh_minutes", s.Prefs.NotificationsRefreshMinutes,
	)
	return nil
}

func (s *Services) serveMetrics() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", s.Metrics.Handler())
	s.metricsSrv = &http.Server{
		Addr:              s.Config.Metrics.Listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	srv := s.metricsSrv
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.Logger.Warn("metrics listener failed", "listen", srv.Addr, "error", err)
		}
	}()
	s.Logger.Info("metrics enabled", "listen", srv.Addr)
}

// Close stops everything Start launched and releases storage. It is safe to
// call more than once.
func (s *Services) Close() error {
	var errs []error
	s.closeOnce.Do(func() {
		s.cancel()
		if s.Scheduler != nil {
			s.Scheduler.Stop()
		}
		s.wg.Wait()
		if s.metricsSrv != nil {
			ctx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
			if err := s.metricsSrv.Shutdown(ctx); err != nil {
				errs = append(errs, fmt.Errorf("stop metrics listener: %w", err))
			}
			cancel()
		}
		s.Bus.Close()
		if s.Persist != nil {
			if err := s.Persist.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close storage: %w", err))
			}
		}
		if s.Bus.Dropped() > 0 {
			s.Logger.Debug("events dropped by slow subscribers", "count", s.Bus.Dropped())
		}
		if err := s.logCloser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close log: %w", err))
		}
	})
	return errors.Join(errs...)
}

// Run boots deskhub and blocks until the dashboard exits or ctx is
// cancelled. Headless mode blocks on ctx alone.
func Run(ctx context.Context, opts Options) error {
	s, err := Build(ctx, opts)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	if err := s.Start(ctx); err != nil {
		return err
	}

	if opts.Headless {
		<-ctx.Done()
		return nil
	}

	sub, unsubscribe := s.Bus.Subscribe(64)
	defer unsubscribe()

	return ui.Run(ui.Options{
		Context:   ctx,
		Engine:    s.Engine,
		Store:     s.Store,
		Events:    sub,
		Prefs:     s.Prefs,
		PrefsPath: opts.PrefsPath,
		LogPath:   s.Config.LogPath(),
		Logger:    s.Logger,
	})
}

// Refresh fetches kind once and waits for the result. Cached items are
// restored first, so a failed fetch still reports what was on disk.
func Refresh(ctx context.Context, opts Options, kind resource.Kind) (hubsync.Status, state.Meta, error) {
	if kind == resource.ConversationHistory && opts.ConversationID == "" {
		return hubsync.Status{}, state.Meta{}, errors.New("history refresh needs a conversation id")
	}
	opts.Headless = true
	opts.RestoreOnly = true

	s, err := Build(ctx, opts)
	if err != nil {
		return hubsync.Status{}, state.Meta{}, err
	}
	defer func() { _ = s.Close() }()

	if err := s.Start(ctx); err != nil {
		return hubsync.Status{}, state.Meta{}, err
	}
	status, err := s.Engine.FetchAndWait(ctx, kind)
	if err != nil {
		return status, state.Meta{}, fmt.Errorf("refresh %s: %w", kind, err)
	}
	return status, s.Store.Meta(kind), nil
}

// CachedItems returns the persisted items of kind without touching the
// network. The result is a typed slice suitable for JSON encoding.
func (s *Services) CachedItems(ctx context.Context, kind resource.Kind) (any, error) {
	entry := s.Cache.Entry(kind)
	if entry == nil {
		return nil, fmt.Errorf("unknown kind %q", kind)
	}
	entry.LoadFromDisk(ctx)

	switch kind {
	case resource.Tasks:
		return peek(s.Cache.Tasks), nil
	case resource.Notifications:
		return peek(s.Cache.Notifications), nil
	case resource.Actions:
		return peek(s.Cache.Actions), nil
	case resource.Conversations:
		return peek(s.Cache.Conversations), nil
	default:
		return peek(s.Cache.History), nil
	}
}

func peek[T any](entry *cache.Entry[T]) []T {
	items, _ := entry.Peek()
	if items == nil {
		return []T{}
	}
	return items
}
