package hydration

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-drift/ondemand/pkg/errors"
	"github.com/go-drift/ondemand/pkg/host"
)

// ArmContext is what a trigger arms against.
type ArmContext struct {
	Host host.Host
	// Root is the component's rendered root. It may be nil before mount.
	Root host.Element
	// Activate is called when the trigger fires.
	Activate func()
}

// Trigger is a one-shot activation source. The set of implementations is
// closed; use NewTrigger to obtain one.
type Trigger interface {
	// Kind names the trigger for logs and errors.
	Kind() string
	// Arm attaches the trigger and returns the handle that detaches it.
	Arm(ctx ArmContext) (ReleaseHandle, error)

	trigger()
}

// NewTrigger maps a spec to its trigger variant.
func NewTrigger(spec TriggerSpec) (Trigger, error) {
	switch spec.Kind {
	case "":
		return nil, &errors.HydrationError{
			Op:   "hydration.NewTrigger",
			Kind: errors.KindConfig,
			Err:  fmt.Errorf("trigger kind is empty"),
		}
	case KindDelay:
		return delayTrigger{d: spec.Duration()}, nil
	case KindIdle:
		return idleTrigger{}, nil
	case KindVisible:
		return visibilityTrigger{resolve: spec.observe}, nil
	default:
		return eventTrigger{eventType: spec.Kind, resolve: spec.target}, nil
	}
}

var listenerOptions = host.ListenerOptions{Once: true, Capture: true, Passive: true}

type eventTrigger struct {
	eventType string
	resolve   func() host.EventTarget
}

func (eventTrigger) trigger() {}
func (t eventTrigger) Kind() string { return t.eventType }

func (t eventTrigger) Arm(ctx ArmContext) (ReleaseHandle, error) {
	var target host.EventTarget
	if t.resolve != nil {
		target = t.resolve()
	} else if ctx.Root != nil {
		target = ctx.Root
	}
	if target == nil {
		return nil, errors.ErrNoTarget
	}
	remove := target.AddEventListener(t.eventType, func(host.Event) {
		ctx.Activate()
	}, listenerOptions)
	return Once(remove), nil
}

type delayTrigger struct {
	d time.Duration
}

func (delayTrigger) trigger() {}
func (delayTrigger) Kind() string { return KindDelay }

func (t delayTrigger) Arm(ctx ArmContext) (ReleaseHandle, error) {
	if t.d <= 0 {
		return noopHandle(), nil
	}
	timers := ctx.Host.Timers
	if timers == nil {
		timers = host.SystemTimers{}
	}
	timer := timers.AfterFunc(t.d, ctx.Activate)
	return Once(func() { timer.Stop() }), nil
}

type idleTrigger struct{}

func (idleTrigger) trigger() {}
func (idleTrigger) Kind() string { return KindIdle }

func (idleTrigger) Arm(ctx ArmContext) (ReleaseHandle, error) {
	idle := ctx.Host.Idle
	if idle == nil {
		return delayTrigger{d: DefaultDelay}.Arm(ctx)
	}
	frames := ctx.Host.Frames

	var (
		mu        sync.Mutex
		cancelled bool
		idleRan   bool
		frameID   int
	)
	live := func() bool {
		mu.Lock()
		defer mu.Unlock()
		return !cancelled
	}

	id := idle.RequestIdleCallback(func(host.IdleDeadline) {
		mu.Lock()
		if cancelled {
			mu.Unlock()
			return
		}
		idleRan = true
		mu.Unlock()

		// Defer one frame so activation does not compete with pending layout.
		if frames == nil {
			ctx.Activate()
			return
		}
		fid := frames.RequestAnimationFrame(func(time.Time) {
			if live() {
				ctx.Activate()
			}
		})
		mu.Lock()
		if cancelled {
			// Released while the frame was being requested.
			mu.Unlock()
			frames.CancelAnimationFrame(fid)
			return
		}
		frameID = fid
		mu.Unlock()
	}, IdleTimeout)

	return Once(func() {
		mu.Lock()
		cancelled = true
		ran, fid := idleRan, frameID
		mu.Unlock()
		if !ran {
			idle.CancelIdleCallback(id)
		} else if frames != nil && fid != 0 {
			frames.CancelAnimationFrame(fid)
		}
	}), nil
}

type visibilityTrigger struct {
	resolve func() host.IntersectionOptions
}

func (visibilityTrigger) trigger() {}
func (visibilityTrigger) Kind() string { return KindVisible }

func (t visibilityTrigger) Arm(ctx ArmContext) (ReleaseHandle, error) {
	if ctx.Root == nil {
		return nil, errors.ErrNoTarget
	}
	factory := ctx.Host.Intersection
	if factory == nil {
		ctx.Activate()
		return noopHandle(), nil
	}

	var opts host.IntersectionOptions
	if t.resolve != nil {
		opts = t.resolve()
	}

	var once sync.Once
	disconnect := func(o host.IntersectionObserver) {
		once.Do(func() {
			if o != nil {
				o.Disconnect()
			}
		})
	}

	observer := factory.NewIntersectionObserver(func(entries []host.IntersectionEntry, o host.IntersectionObserver) {
		if !anyVisible(entries) {
			return
		}
		disconnect(o)
		ctx.Activate()
	}, opts)
	observer.Observe(ctx.Root)

	return func() { disconnect(observer) }, nil
}

func anyVisible(entries []host.IntersectionEntry) bool {
	for _, e := range entries {
		if e.IsIntersecting && e.Ratio > 0 {
			return true
		}
	}
	return false
}
