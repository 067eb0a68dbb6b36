package scheduler

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/deskhub/internal/events"
	"github.com/five82/deskhub/internal/resource"
)

type fire struct {
	period time.Duration
	at     time.Time
}

// manualClock fires tickers only when Advance moves past their deadline.
type manualClock struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*manualTicker
	fires   []fire
}

type manualTicker struct {
	clock   *manualClock
	period  time.Duration
	next    time.Time
	ch      chan time.Time
	stopped bool
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) NewTicker(d time.Duration) Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTicker{clock: c, period: d, next: c.now.Add(d), ch: make(chan time.Time, 1)}
	c.tickers = append(c.tickers, t)
	return t
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	target := c.now.Add(d)
	for {
		var due *manualTicker
		for _, t := range c.tickers {
			if t.stopped || t.next.After(target) {
				continue
			}
			if due == nil || t.next.Before(due.next) {
				due = t
			}
		}
		if due == nil {
			break
		}
		c.now = due.next
		select {
		case due.ch <- c.now:
		default:
		}
		c.fires = append(c.fires, fire{period: due.period, at: c.now})
		due.next = due.next.Add(due.period)
	}
	c.now = target
}

func (c *manualClock) Fires() []fire {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]fire(nil), c.fires...)
}

func (t *manualTicker) C() <-chan time.Time { return t.ch }

func (t *manualTicker) Stop() {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	t.stopped = true
}

func nextEvent(t *testing.T, ch <-chan events.Event) events.Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return events.Event{}
	}
}

func TestScheduler_RestartsFromTheChange(t *testing.T) {
	clock := newManualClock()
	start := clock.Now()
	bus := events.NewBus()
	sub, cancel := bus.Subscribe(8)
	defer cancel()

	s := New(bus, clock, nil)
	defer s.Stop()

	s.Set(resource.Tasks, 10*time.Minute)
	clock.Advance(7 * time.Minute)
	require.Empty(t, clock.Fires())

	s.Set(resource.Tasks, 5*time.Minute)

	clock.Advance(3 * time.Minute)
	assert.Empty(t, clock.Fires(), "old ten minute timer must not fire")

	clock.Advance(2 * time.Minute)
	fires := clock.Fires()
	require.Len(t, fires, 1)
	assert.Equal(t, 5*time.Minute, fires[0].period)
	assert.Equal(t, start.Add(12*time.Minute), fires[0].at)

	ev := nextEvent(t, sub)
	assert.Equal(t, events.RefreshRequested, ev.Type)
	assert.Equal(t, resource.Tasks, ev.Kind)
	assert.False(t, ev.Manual)
}

func TestScheduler_KindsAreIndependent(t *testing.T) {
	clock := newManualClock()
	bus := events.NewBus()
	sub, cancel := bus.Subscribe(8)
	defer cancel()

	s := New(bus, clock, nil)
	defer s.Stop()
	s.Apply(map[resource.Kind]time.Duration{
		resource.Tasks:         10 * time.Minute,
		resource.Notifications: 5 * time.Minute,
	})

	clock.Advance(5 * time.Minute)
	ev := nextEvent(t, sub)
	assert.Equal(t, resource.Notifications, ev.Kind)

	s.Set(resource.Notifications, 15*time.Minute)
	clock.Advance(5 * time.Minute)
	ev = nextEvent(t, sub)
	assert.Equal(t, resource.Tasks, ev.Kind)
}

func TestScheduler_NonPositivePeriodDisables(t *testing.T) {
	clock := newManualClock()
	s := New(nil, clock, nil)
	defer s.Stop()

	s.Set(resource.Actions, time.Hour)
	assert.Equal(t, map[resource.Kind]time.Duration{resource.Actions: time.Hour}, s.Periods())

	s.Set(resource.Actions, 0)
	assert.Empty(t, s.Periods())

	clock.Advance(2 * time.Hour)
	assert.Empty(t, clock.Fires())
}

func TestScheduler_StopCancelsEverything(t *testing.T) {
	clock := newManualClock()
	s := New(nil, clock, nil)
	s.Set(resource.Tasks, time.Minute)
	s.Set(resource.Conversations, time.Minute)

	s.Stop()
	assert.Empty(t, s.Periods())

	clock.Advance(time.Hour)
	assert.Empty(t, clock.Fires())
	s.Stop()
}
