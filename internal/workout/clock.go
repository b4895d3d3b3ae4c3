package workout

import (
	"fmt"
	"sync"
	"time"
)

const DefaultTickPeriod = time.Second

// Clock shows the elapsed time of a session, anchored to the session start.
// Elapsed is recomputed from the anchor on every tick, so missed ticks do not drift.
type Clock struct {
	period time.Duration
	now    func() time.Time

	// serializes Start and Stop
	runMu sync.Mutex
	stop  chan struct{}
	done  chan struct{}

	mu       sync.Mutex
	origin   time.Time
	anchored bool
	elapsed  int64
}

// NewClock creates a stopped clock. A nil now defaults to time.Now.
func NewClock(period time.Duration, now func() time.Time) *Clock {
	if period <= 0 {
		period = DefaultTickPeriod
	}
	if now == nil {
		now = time.Now
	}
	return &Clock{
		period: period,
		now:    now,
	}
}

// Start anchors the clock to origin and runs one periodic tick task.
// A task left over from a previous anchor is stopped first.
func (c *Clock) Start(origin time.Time) {
	c.runMu.Lock()
	defer c.runMu.Unlock()

	c.stopLocked()

	c.mu.Lock()
	c.origin = origin
	c.anchored = true
	c.elapsed = 0
	c.mu.Unlock()
	c.Tick()

	c.stop = make(chan struct{})
	c.done = make(chan struct{})
	go c.run(c.stop, c.done)
}

func (c *Clock) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(c.period)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.Tick()
		}
	}
}

// Tick recomputes the elapsed seconds since origin and returns them.
// The value never goes below zero nor backwards for the same anchor.
func (c *Clock) Tick() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.anchored {
		return 0
	}

	secs := int64(c.now().Sub(c.origin) / time.Second)
	if secs > c.elapsed {
		c.elapsed = secs
	}
	return c.elapsed
}

func (c *Clock) Elapsed() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.elapsed
}

func (c *Clock) Origin() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.origin
}

func (c *Clock) Running() bool {
	c.runMu.Lock()
	defer c.runMu.Unlock()
	return c.stop != nil
}

// Stop cancels the periodic task and waits for it to exit. The last
// elapsed value is kept. Safe to call on a stopped clock.
func (c *Clock) Stop() {
	c.runMu.Lock()
	defer c.runMu.Unlock()
	c.stopLocked()
}

func (c *Clock) stopLocked() {
	if c.stop == nil {
		return
	}
	close(c.stop)
	<-c.done
	c.stop = nil
	c.done = nil
}

// FormatElapsed renders seconds as HH:MM:SS.
func FormatElapsed(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
