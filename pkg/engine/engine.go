// Package engine runs host callbacks on a single UI goroutine.
//
// An Engine owns a dispatch queue, a frame ticker, idle callbacks and
// timers whose callbacks are funnelled back onto the loop. Its Host method
// returns the capability bundle a hydration.Scheduler arms against, so every
// trigger fires on the same goroutine and no two activations interleave.
package engine

import (
	"context"
	stderrors "errors"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/go-drift/ondemand/pkg/errors"
	"github.com/go-drift/ondemand/pkg/host"
)

// DefaultFrameInterval is used when Config.FrameInterval is not positive.
const DefaultFrameInterval = 16 * time.Millisecond

// ErrAlreadyRunning is returned by Run when the loop is already running.
var ErrAlreadyRunning = stderrors.New("engine: loop is already running")

// Config configures an Engine.
type Config struct {
	// FrameInterval is the time between frames.
	FrameInterval time.Duration
	// Intersection is passed through to Host. Nil reports intersection
	// observation as unsupported.
	Intersection host.IntersectionObserverFactory
	// Logger receives loop diagnostics. Nil disables logging.
	Logger *zerolog.Logger
}

// Stats counts loop activity.
type Stats struct {
	Frames     uint64
	Dispatched uint64
	IdleRuns   uint64
}

// Engine is a single-goroutine host loop.
type Engine struct {
	cfg     Config
	log     zerolog.Logger
	wake    chan struct{}
	running atomic.Bool

	dispatchMu    sync.Mutex
	dispatchQueue []func()

	mu     sync.Mutex
	nextID int
	frames []*frameRequest
	idle   []*idleRequest

	frameCount atomic.Uint64
	dispatched atomic.Uint64
	idleRuns   atomic.Uint64
}

type frameRequest struct {
	id int
	fn func(time.Time)
}

type idleRequest struct {
	id      int
	fn      func(host.IdleDeadline)
	timeout host.Timer
}

// New creates an engine. Call Run to start the loop.
func New(cfg Config) *Engine {
	if cfg.FrameInterval <= 0 {
		cfg.FrameInterval = DefaultFrameInterval
	}
	e := &Engine{
		cfg:  cfg,
		log:  zerolog.Nop(),
		wake: make(chan struct{}, 1),
	}
	if cfg.Logger != nil {
		e.log = *cfg.Logger
	}
	return e
}

// Host returns the capabilities backed by this engine.
func (e *Engine) Host() host.Host {
	return host.Host{
		Timers:       e,
		Idle:         e,
		Frames:       e,
		Intersection: e.cfg.Intersection,
		Input:        e,
	}
}

// Stats returns a snapshot of loop counters.
func (e *Engine) Stats() Stats {
	return Stats{
		Frames:     e.frameCount.Load(),
		Dispatched: e.dispatched.Load(),
		IdleRuns:   e.idleRuns.Load(),
	}
}

// Dispatch schedules a callback to run on the loop goroutine and is safe to
// call from any goroutine. It reports whether the callback was queued.
func (e *Engine) Dispatch(callback func()) bool {
	if callback == nil {
		return false
	}
	e.dispatchMu.Lock()
	e.dispatchQueue = append(e.dispatchQueue, callback)
	e.dispatchMu.Unlock()

	select {
	case e.wake <- struct{}{}:
	default:
	}
	return true
}

func (e *Engine) drainDispatchQueue() []func() {
	e.dispatchMu.Lock()
	callbacks := e.dispatchQueue
	e.dispatchQueue = nil
	e.dispatchMu.Unlock()
	return callbacks
}

// IsInputPending implements host.InputProbe: work queued on the loop is
// treated as pending input.
func (e *Engine) IsInputPending() bool {
	e.dispatchMu.Lock()
	defer e.dispatchMu.Unlock()
	return len(e.dispatchQueue) > 0
}

// Run processes dispatched callbacks, frames and idle callbacks until ctx is
// done. It returns ctx.Err().
func (e *Engine) Run(ctx context.Context) error {
	if !e.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer e.running.Store(false)

	ticker := time.NewTicker(e.cfg.FrameInterval)
	defer ticker.Stop()

	e.log.Debug().Dur("frameInterval", e.cfg.FrameInterval).Msg("engine started")
	for {
		select {
		case <-ctx.Done():
			e.log.Debug().Msg("engine stopped")
			return ctx.Err()
		case <-e.wake:
			e.runDispatched()
		case now := <-ticker.C:
			e.stepFrame(now)
		}
	}
}

// stepFrame runs one frame: dispatch, frame callbacks, then idle callbacks
// with whatever budget remains.
func (e *Engine) stepFrame(now time.Time) {
	start := time.Now()
	e.frameCount.Add(1)
	e.runDispatched()
	e.runFrames(now)

	budget := e.cfg.FrameInterval - time.Since(start)
	if budget > 0 && !e.IsInputPending() {
		e.runIdle(budget)
	}
}

func (e *Engine) runDispatched() {
	for _, cb := range e.drainDispatchQueue() {
		e.dispatched.Add(1)
		runTask("engine.dispatch", cb)
	}
}

func (e *Engine) runFrames(now time.Time) {
	e.mu.Lock()
	reqs := e.frames
	e.frames = nil
	e.mu.Unlock()

	for _, req := range reqs {
		runTask("engine.frame", func() { req.fn(now) })
	}
}

func (e *Engine) runIdle(budget time.Duration) {
	e.mu.Lock()
	reqs := e.idle
	e.idle = nil
	e.mu.Unlock()

	deadline := time.Now().Add(budget)
	for i, req := range reqs {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			// Out of budget: requeue the rest ahead of newer requests.
			e.mu.Lock()
			e.idle = append(slices.Clone(reqs[i:]), e.idle...)
			e.mu.Unlock()
			return
		}
		if req.timeout != nil {
			req.timeout.Stop()
		}
		e.idleRuns.Add(1)
		runTask("engine.idle", func() { req.fn(host.IdleDeadline{TimeRemaining: remaining}) })
	}
}

func runTask(op string, fn func()) {
	defer errors.Recover(op)
	fn()
}

func (e *Engine) id() int {
	e.nextID++
	return e.nextID
}

// RequestAnimationFrame implements host.FrameScheduler.
func (e *Engine) RequestAnimationFrame(fn func(time.Time)) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	req := &frameRequest{id: e.id(), fn: fn}
	e.frames = append(e.frames, req)
	return req.id
}

// CancelAnimationFrame implements host.FrameScheduler.
func (e *Engine) CancelAnimationFrame(id int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.frames = slices.DeleteFunc(e.frames, func(r *frameRequest) bool { return r.id == id })
}

// RequestIdleCallback implements host.IdleScheduler.
func (e *Engine) RequestIdleCallback(fn func(host.IdleDeadline), timeout time.Duration) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	req := &idleRequest{id: e.id(), fn: fn}
	if timeout > 0 {
		// takeIdle in the timeout callback waits for mu, so req is queued
		// before it can be looked up.
		req.timeout = e.AfterFunc(timeout, func() {
			if e.takeIdle(req.id) != nil {
				fn(host.IdleDeadline{DidTimeout: true})
			}
		})
	}
	e.idle = append(e.idle, req)
	return req.id
}

// CancelIdleCallback implements host.IdleScheduler.
func (e *Engine) CancelIdleCallback(id int) {
	if req := e.takeIdle(id); req != nil && req.timeout != nil {
		req.timeout.Stop()
	}
}

func (e *Engine) takeIdle(id int) *idleRequest {
	e.mu.Lock()
	defer e.mu.Unlock()
	i := slices.IndexFunc(e.idle, func(r *idleRequest) bool { return r.id == id })
	if i < 0 {
		return nil
	}
	req := e.idle[i]
	e.idle = slices.Delete(e.idle, i, i+1)
	return req
}
