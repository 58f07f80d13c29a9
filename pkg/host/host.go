// Package host defines the platform capabilities the activation scheduler
// consumes: event subscription, timers, idle callbacks, animation frames,
// viewport intersection observation and an input-responsiveness probe.
//
// Optional capabilities are nil fields on [Host]. A nil capability is the
// normal "unsupported" case and callers fall back to a defined behavior
// rather than treating it as an error.
package host

import "time"

// MarkerAttribute is set by the static renderer on the root element of every
// component it produces inertly.
const MarkerAttribute = "data-hydration-on-demand"

// Event is delivered to event listeners.
type Event struct {
	// Type is the event name (e.g. "click").
	Type string
	// Target is the element the event was dispatched to.
	Target EventTarget
}

// ListenerOptions mirror the DOM addEventListener options.
type ListenerOptions struct {
	Once    bool
	Capture bool
	Passive bool
}

// EventTarget is anything listeners can be attached to.
type EventTarget interface {
	// AddEventListener registers fn for events of the given type and
	// returns a function that removes it. Removing twice is a no-op.
	AddEventListener(eventType string, fn func(Event), opts ListenerOptions) (remove func())
}

// Element is a rendered root the scheduler can inspect and listen on.
type Element interface {
	EventTarget
	// Attribute returns the value of the named attribute.
	Attribute(name string) (string, bool)
}

// HasMarker reports whether el was produced by the static renderer. Any
// non-empty marker value counts.
func HasMarker(el Element) bool {
	if el == nil {
		return false
	}
	v, ok := el.Attribute(MarkerAttribute)
	return ok && v != ""
}

// Timer is a scheduled callback that can be cancelled.
type Timer interface {
	// Stop prevents the timer from firing. It reports whether the call
	// stopped the timer.
	Stop() bool
}

// Timers schedules one-shot callbacks.
type Timers interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// IdleDeadline is passed to idle callbacks.
type IdleDeadline struct {
	// DidTimeout is true when the callback ran because the timeout elapsed
	// rather than because the host went idle.
	DidTimeout bool
	// TimeRemaining is the estimated idle budget left.
	TimeRemaining time.Duration
}

// IdleScheduler runs callbacks during idle periods.
type IdleScheduler interface {
	// RequestIdleCallback schedules fn for the next idle period, running it
	// no later than timeout when timeout is positive.
	RequestIdleCallback(fn func(IdleDeadline), timeout time.Duration) (id int)
	CancelIdleCallback(id int)
}

// FrameScheduler runs callbacks before the next frame is produced.
type FrameScheduler interface {
	RequestAnimationFrame(fn func(frameTime time.Time)) (id int)
	CancelAnimationFrame(id int)
}

// IntersectionOptions configure an intersection observer.
type IntersectionOptions struct {
	// RootMargin grows or shrinks the viewport box, CSS margin syntax.
	RootMargin string `yaml:"rootMargin,omitempty"`
	// Threshold lists the intersection ratios at which to report.
	Threshold []float64 `yaml:"threshold,omitempty"`
}

// IntersectionEntry is one observation reported to an observer callback.
type IntersectionEntry struct {
	Target         Element
	IsIntersecting bool
	Ratio          float64
}

// IntersectionObserver watches elements for viewport intersection.
type IntersectionObserver interface {
	Observe(target Element)
	Disconnect()
}

// IntersectionCallback receives batches of entries. It may be invoked
// synchronously from NewIntersectionObserver or Observe.
type IntersectionCallback func(entries []IntersectionEntry, observer IntersectionObserver)

// IntersectionObserverFactory creates intersection observers.
type IntersectionObserverFactory interface {
	NewIntersectionObserver(cb IntersectionCallback, opts IntersectionOptions) IntersectionObserver
}

// InputProbe reports whether user input is queued and waiting to be handled.
type InputProbe interface {
	IsInputPending() bool
}

// InputProbeFunc adapts a function to InputProbe.
type InputProbeFunc func() bool

// IsInputPending calls f.
func (f InputProbeFunc) IsInputPending() bool { return f() }

// Host bundles the capabilities available on the current platform.
type Host struct {
	// Timers is required.
	Timers Timers
	// Idle is nil when idle callbacks are unsupported.
	Idle IdleScheduler
	// Frames is nil when animation frames are unsupported.
	Frames FrameScheduler
	// Intersection is nil when intersection observation is unsupported.
	Intersection IntersectionObserverFactory
	// Input is nil when the responsiveness probe is unsupported.
	Input InputProbe
}
