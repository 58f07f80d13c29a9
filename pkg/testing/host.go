package testing

import (
	"slices"
	"sync"
	"time"

	"github.com/go-drift/ondemand/pkg/host"
)

// FakeHost implements every host capability on virtual time. Callbacks run
// synchronously on the goroutine that calls Advance, RunIdle or Pump, never
// while the host's lock is held.
type FakeHost struct {
	clock *FakeClock

	mu        sync.Mutex
	nextID    int
	idle      []*idleRequest
	frames    []*frameRequest
	observers []*FakeObserver
	pending   bool
	probe     bool

	// OnObserve, when set, is called from FakeObserver.Observe so tests can
	// report entries the way a real observer does right after observing.
	OnObserve func(o *FakeObserver, target host.Element)
}

// NewFakeHost creates a host at the FakeClock epoch with an input probe
// reporting no pending input.
func NewFakeHost() *FakeHost {
	return &FakeHost{clock: NewFakeClock(), probe: true}
}

// Host returns every capability backed by h.
func (h *FakeHost) Host() host.Host {
	out := host.Host{
		Timers:       h,
		Idle:         h,
		Frames:       h,
		Intersection: h,
	}
	if h.hasProbe() {
		out.Input = host.InputProbeFunc(h.IsInputPending)
	}
	return out
}

func (h *FakeHost) hasProbe() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.probe
}

// Clock returns the host's clock.
func (h *FakeHost) Clock() *FakeClock { return h.clock }

// Now returns the current virtual time.
func (h *FakeHost) Now() time.Time { return h.clock.Now() }

// SetInputPending sets what the input probe reports.
func (h *FakeHost) SetInputPending(pending bool) {
	h.mu.Lock()
	h.pending = pending
	h.mu.Unlock()
}

// RemoveInputProbe makes subsequent Host calls omit the input probe.
func (h *FakeHost) RemoveInputProbe() {
	h.mu.Lock()
	h.probe = false
	h.mu.Unlock()
}

// IsInputPending implements host.InputProbe.
func (h *FakeHost) IsInputPending() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pending
}

func (h *FakeHost) id() int {
	h.nextID++
	return h.nextID
}

// AfterFunc implements host.Timers on the host's clock.
func (h *FakeHost) AfterFunc(d time.Duration, f func()) host.Timer {
	return h.clock.AfterFunc(d, f)
}

// PendingTimers returns the number of timers that have not fired or been stopped.
func (h *FakeHost) PendingTimers() int { return h.clock.PendingTimers() }

// Advance moves the host's clock forward by d, firing due timers.
func (h *FakeHost) Advance(d time.Duration) { h.clock.Advance(d) }

type idleRequest struct {
	id      int
	fn      func(host.IdleDeadline)
	timeout host.Timer
}

// RequestIdleCallback implements host.IdleScheduler. A positive timeout
// schedules a timer that runs fn with DidTimeout set.
func (h *FakeHost) RequestIdleCallback(fn func(host.IdleDeadline), timeout time.Duration) int {
	h.mu.Lock()
	req := &idleRequest{id: h.id(), fn: fn}
	h.idle = append(h.idle, req)
	h.mu.Unlock()

	if timeout > 0 {
		req.timeout = h.AfterFunc(timeout, func() {
			if h.takeIdle(req.id) != nil {
				fn(host.IdleDeadline{DidTimeout: true})
			}
		})
	}
	return req.id
}

// CancelIdleCallback implements host.IdleScheduler.
func (h *FakeHost) CancelIdleCallback(id int) {
	if req := h.takeIdle(id); req != nil && req.timeout != nil {
		req.timeout.Stop()
	}
}

func (h *FakeHost) takeIdle(id int) *idleRequest {
	h.mu.Lock()
	defer h.mu.Unlock()
	i := slices.IndexFunc(h.idle, func(r *idleRequest) bool { return r.id == id })
	if i < 0 {
		return nil
	}
	req := h.idle[i]
	h.idle = slices.Delete(h.idle, i, i+1)
	return req
}

// PendingIdle returns the number of idle callbacks waiting to run.
func (h *FakeHost) PendingIdle() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.idle)
}

// RunIdle simulates an idle period: every idle callback requested before
// the call runs with a fresh budget.
func (h *FakeHost) RunIdle() int {
	h.mu.Lock()
	reqs := h.idle
	h.idle = nil
	h.mu.Unlock()

	for _, req := range reqs {
		if req.timeout != nil {
			req.timeout.Stop()
		}
		req.fn(host.IdleDeadline{TimeRemaining: 50 * time.Millisecond})
	}
	return len(reqs)
}

type frameRequest struct {
	id int
	fn func(time.Time)
}

// RequestAnimationFrame implements host.FrameScheduler.
func (h *FakeHost) RequestAnimationFrame(fn func(time.Time)) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	req := &frameRequest{id: h.id(), fn: fn}
	h.frames = append(h.frames, req)
	return req.id
}

// CancelAnimationFrame implements host.FrameScheduler.
func (h *FakeHost) CancelAnimationFrame(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.frames = slices.DeleteFunc(h.frames, func(r *frameRequest) bool { return r.id == id })
}

// PendingFrames returns the number of frame callbacks waiting to run.
func (h *FakeHost) PendingFrames() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.frames)
}

// Pump produces one frame, running the callbacks requested before the call.
func (h *FakeHost) Pump() int {
	h.mu.Lock()
	reqs := h.frames
	h.frames = nil
	h.mu.Unlock()

	now := h.clock.Now()
	for _, req := range reqs {
		req.fn(now)
	}
	return len(reqs)
}

// FakeObserver is an intersection observer whose entries are scripted.
type FakeObserver struct {
	host    *FakeHost
	cb      host.IntersectionCallback
	Options host.IntersectionOptions

	mu          sync.Mutex
	targets     []host.Element
	disconnects int
}

// NewIntersectionObserver implements host.IntersectionObserverFactory.
func (h *FakeHost) NewIntersectionObserver(cb host.IntersectionCallback, opts host.IntersectionOptions) host.IntersectionObserver {
	o := &FakeObserver{host: h, cb: cb, Options: opts}
	h.mu.Lock()
	h.observers = append(h.observers, o)
	h.mu.Unlock()
	return o
}

// Observers returns every observer created so far.
func (h *FakeHost) Observers() []*FakeObserver {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.observers)
}

// Observe implements host.IntersectionObserver.
func (o *FakeObserver) Observe(target host.Element) {
	o.mu.Lock()
	o.targets = append(o.targets, target)
	o.mu.Unlock()
	if hook := o.host.OnObserve; hook != nil {
		hook(o, target)
	}
}

// Disconnect implements host.IntersectionObserver.
func (o *FakeObserver) Disconnect() {
	o.mu.Lock()
	o.disconnects++
	o.targets = nil
	o.mu.Unlock()
}

// Targets returns the elements currently observed.
func (o *FakeObserver) Targets() []host.Element {
	o.mu.Lock()
	defer o.mu.Unlock()
	return slices.Clone(o.targets)
}

// Disconnects returns how many times Disconnect was called.
func (o *FakeObserver) Disconnects() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.disconnects
}

// Report delivers entries to the observer callback.
func (o *FakeObserver) Report(entries ...host.IntersectionEntry) {
	o.cb(entries, o)
}
