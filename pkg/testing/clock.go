package testing

import (
	"slices"
	"sync"
	"time"

	"github.com/go-drift/ondemand/pkg/host"
)

// FakeClock is virtual time with timers. Time only moves through Advance or
// Set, and timers only fire inside Advance, on the calling goroutine and
// without the clock's lock held.
type FakeClock struct {
	mu     sync.Mutex
	now    time.Time
	seq    int
	timers []*clockTimer
}

type clockTimer struct {
	clock *FakeClock
	seq   int
	due   time.Time
	fn    func()
}

// NewFakeClock returns a clock at 2024-01-01 UTC with no timers.
func NewFakeClock() *FakeClock {
	return &FakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

// Now returns the current virtual time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set jumps to t. Timers falling due are left for the next Advance.
func (c *FakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// AfterFunc implements host.Timers on virtual time.
func (c *FakeClock) AfterFunc(d time.Duration, f func()) host.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	t := &clockTimer{clock: c, seq: c.seq, due: c.now.Add(d), fn: f}
	c.timers = append(c.timers, t)
	return t
}

// Stop implements host.Timer.
func (t *clockTimer) Stop() bool {
	c := t.clock
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.timers)
	c.timers = slices.DeleteFunc(c.timers, func(o *clockTimer) bool { return o == t })
	return len(c.timers) < n
}

// PendingTimers returns how many timers have neither fired nor been stopped.
func (c *FakeClock) PendingTimers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

// Advance moves time forward by d. Each timer due within the window fires
// with the clock set to its deadline, earliest first and in creation order
// on ties. Timers created by those callbacks fire too if they fall due in
// the window.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	for {
		t := c.popDueLocked(target)
		if t == nil {
			break
		}
		if t.due.After(c.now) {
			c.now = t.due
		}
		c.mu.Unlock()
		t.fn()
		c.mu.Lock()
	}
	if target.After(c.now) {
		c.now = target
	}
	c.mu.Unlock()
}

func (c *FakeClock) popDueLocked(limit time.Time) *clockTimer {
	i := -1
	for j, t := range c.timers {
		if t.due.After(limit) {
			continue
		}
		if i < 0 || t.due.Before(c.timers[i].due) || (t.due.Equal(c.timers[i].due) && t.seq < c.timers[i].seq) {
			i = j
		}
	}
	if i < 0 {
		return nil
	}
	t := c.timers[i]
	c.timers = slices.Delete(c.timers, i, i+1)
	return t
}
