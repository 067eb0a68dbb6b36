// Package scheduler keeps one repeating timer per resource kind. A timer fire
// only publishes a refresh request on the event bus; the engine decides what
// to do with it.
package scheduler

import (
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/five82/deskhub/internal/events"
	"github.com/five82/deskhub/internal/resource"
)

// Scheduler owns the per-kind timers.
type Scheduler struct {
	pub    events.Publisher
	clock  Clock
	logger *slog.Logger

	mu     sync.Mutex
	timers map[resource.Kind]*timer
}

type timer struct {
	period time.Duration
	stop   chan struct{}
	done   chan struct{}
}

// New returns a scheduler with no active timers. A nil clock uses RealClock.
func New(pub events.Publisher, clock Clock, logger *slog.Logger) *Scheduler {
	if clock == nil {
		clock = RealClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		pub:    pub,
		clock:  clock,
		logger: logger,
		timers: make(map[resource.Kind]*timer),
	}
}

// Set replaces the timer for kind. The old timer is stopped and its goroutine
// has exited before the new one starts, so the next fire is one full period
// after this call. A non-positive period leaves the kind without a timer.
func (s *Scheduler) Set(kind resource.Kind, period time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked(kind)
	if period <= 0 {
		s.logger.Debug("refresh timer disabled", "kind", kind.String())
		return
	}

	t := &timer{
		period: period,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	ticker := s.clock.NewTicker(period)
	s.timers[kind] = t
	go s.run(kind, ticker, t)
	s.logger.Debug("refresh timer set", "kind", kind.String(), "period", period)
}

// Apply sets every kind in periods.
func (s *Scheduler) Apply(periods map[resource.Kind]time.Duration) {
	for _, kind := range resource.All {
		if period, ok := periods[kind]; ok {
			s.Set(kind, period)
		}
	}
}

// Periods returns the active period per kind.
func (s *Scheduler) Periods() map[resource.Kind]time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[resource.Kind]time.Duration, len(s.timers))
	for kind, t := range s.timers {
		out[kind] = t.period
	}
	return out
}

// Stop cancels every timer and waits for their goroutines.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, kind := range slices.Collect(maps.Keys(s.timers)) {
		s.stopLocked(kind)
	}
}

func (s *Scheduler) stopLocked(kind resource.Kind) {
	t, ok := s.timers[kind]
	if !ok {
		return
	}
	close(t.stop)
	<-t.done
	delete(s.timers, kind)
}

func (s *Scheduler) run(kind resource.Kind, ticker Ticker, t *timer) {
	defer close(t.done)
	defer ticker.Stop()
	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C():
			events.RequestRefresh(s.pub, kind, false)
		}
	}
}
