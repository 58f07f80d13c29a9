package hydration

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/go-drift/ondemand/pkg/errors"
	"github.com/go-drift/ondemand/pkg/host"
)

// State is the activation state of a component.
type State int

const (
	// Pending means the component still shows its inert rendering.
	Pending State = iota
	// Active means the component has been activated. It is terminal.
	Active
)

func (s State) String() string {
	if s == Active {
		return "active"
	}
	return "pending"
}

// Options configure a Scheduler. The zero value is usable.
type Options struct {
	// DisableFallback keeps the component pending even when its root lacks
	// the static-render marker.
	DisableFallback bool
	// WhenInputPending activates on creation when the host reports no
	// pending input.
	WhenInputPending bool
	// AssumeInputIdle makes a host without an input probe count as having no
	// pending input. By default such a host is treated as busy, so
	// WhenInputPending does not activate on creation.
	AssumeInputIdle bool
	// Triggers are armed after the fallback check. First to fire wins.
	Triggers []TriggerSpec
	// BeforeActivate runs before the state is committed. A non-nil error
	// keeps the component pending.
	BeforeActivate func(ctx context.Context) error
	// OnActivate is called once after the state becomes Active.
	OnActivate func()
	// OnError receives activation errors that have no caller to return to,
	// such as a failing hook run by a trigger.
	OnError func(error)
	// Logger receives debug events. Nil disables logging.
	Logger *zerolog.Logger
}

// DefaultOptions returns options with the documented defaults. It is the
// zero value.
func DefaultOptions() Options {
	return Options{}
}

const activateKey = "activate"

// Scheduler owns the single Pending to Active transition of one component.
// All methods are safe for concurrent use.
type Scheduler struct {
	host     host.Host
	opts     Options
	gate     *InputGate
	registry Registry
	flight   singleflight.Group
	log      zerolog.Logger

	mu       sync.Mutex
	state    State
	force    bool
	root     host.Element
	baseCtx  context.Context
	armed    bool
	disposed bool
}

// New creates a scheduler and computes its initial state. The state starts
// Active when activation is forced or no input is pending (and
// WhenInputPending is set), unless a BeforeActivate hook is configured.
func New(h host.Host, opts Options, force bool) *Scheduler {
	if h.Timers == nil {
		h.Timers = host.SystemTimers{}
	}
	s := &Scheduler{
		host:    h,
		opts:    opts,
		gate:    NewInputGate(h.Input, !opts.AssumeInputIdle),
		force:   force,
		baseCtx: context.Background(),
		log:     zerolog.Nop(),
	}
	if opts.Logger != nil {
		s.log = *opts.Logger
	}

	notPending := opts.WhenInputPending && !s.gate.IsInputPending()
	if (notPending || force) && opts.BeforeActivate == nil {
		s.state = Active
	}
	return s
}

// State returns the current activation state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Armed returns the number of outstanding release handles.
func (s *Scheduler) Armed() int {
	return s.registry.Len()
}

// Disposed reports whether Dispose has been called.
func (s *Scheduler) Disposed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disposed
}

// Mount attaches the scheduler to the component's rendered root, runs the
// fallback check and arms the configured triggers. Hosts with distinct
// layout and effect phases may call CheckFallback and ArmTriggers
// separately after SetRoot instead.
func (s *Scheduler) Mount(ctx context.Context, root host.Element) error {
	if err := s.SetRoot(ctx, root); err != nil {
		return err
	}
	fallbackErr := s.CheckFallback(ctx)
	if err := s.ArmTriggers(ctx); err != nil {
		return stderrors.Join(fallbackErr, err)
	}
	return fallbackErr
}

// SetRoot records the rendered root. It must be called exactly once.
func (s *Scheduler) SetRoot(ctx context.Context, root host.Element) error {
	if root == nil {
		return &errors.HydrationError{Op: "hydration.Mount", Kind: errors.KindMisuse, Err: errors.ErrNoTarget}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.root != nil {
		return &errors.HydrationError{Op: "hydration.Mount", Kind: errors.KindMisuse, Err: fmt.Errorf("already mounted")}
	}
	s.root = root
	if ctx != nil {
		s.baseCtx = context.WithoutCancel(ctx)
	}
	return nil
}

// CheckFallback activates immediately when activation is forced or when the
// root was not produced by the static renderer and the fallback is enabled.
func (s *Scheduler) CheckFallback(ctx context.Context) error {
	s.mu.Lock()
	state, force, root, disposed := s.state, s.force, s.root, s.disposed
	s.mu.Unlock()

	if state == Active || disposed {
		return nil
	}
	if force {
		s.log.Debug().Msg("activation forced")
		return s.Activate(ctx)
	}
	if root == nil {
		return &errors.HydrationError{Op: "hydration.CheckFallback", Kind: errors.KindMisuse, Err: errors.ErrNotMounted}
	}
	if !host.HasMarker(root) && !s.opts.DisableFallback {
		s.log.Debug().Msg("no static render marker, activating")
		return s.Activate(ctx)
	}
	return nil
}

// SetForceActivation updates the per-mount override and re-runs the
// fallback check when it changed on a mounted scheduler.
func (s *Scheduler) SetForceActivation(ctx context.Context, force bool) error {
	s.mu.Lock()
	changed := s.force != force
	s.force = force
	mounted := s.root != nil
	s.mu.Unlock()

	if !changed || !mounted {
		return nil
	}
	return s.CheckFallback(ctx)
}

// ArmTriggers arms every configured trigger once. It does nothing when the
// scheduler is already active, disposed, forced, or armed. A trigger that
// cannot be armed releases the ones already armed and returns a misuse error.
func (s *Scheduler) ArmTriggers(ctx context.Context) error {
	s.mu.Lock()
	if s.state == Active || s.disposed || s.force || s.armed {
		s.mu.Unlock()
		return nil
	}
	s.armed = true
	root := s.root
	s.mu.Unlock()

	for _, spec := range s.opts.Triggers {
		trig, err := NewTrigger(spec)
		if err != nil {
			s.registry.Release()
			return err
		}
		h, err := trig.Arm(ArmContext{
			Host:     s.host,
			Root:     root,
			Activate: s.fire(trig.Kind()),
		})
		if err != nil {
			s.registry.Release()
			return &errors.HydrationError{
				Op:      "hydration.ArmTriggers",
				Kind:    errors.KindMisuse,
				Trigger: spec.String(),
				Err:     err,
			}
		}
		if !s.track(h) {
			// Activated or disposed while arming; nothing else to arm.
			return nil
		}
		s.log.Debug().Str("trigger", spec.String()).Msg("trigger armed")
	}
	return nil
}

// track registers h unless the pending phase is already over, in which case
// h is released immediately.
func (s *Scheduler) track(h ReleaseHandle) bool {
	s.mu.Lock()
	if s.state == Pending && !s.disposed {
		s.registry.Add(h)
		s.mu.Unlock()
		return true
	}
	s.mu.Unlock()
	release(h)
	return false
}

// fire returns the callback a trigger invokes when it fires.
func (s *Scheduler) fire(kind string) func() {
	return func() {
		s.mu.Lock()
		ctx := s.baseCtx
		s.mu.Unlock()

		s.log.Debug().Str("trigger", kind).Msg("trigger fired")
		err := s.Activate(ctx)
		if err == nil {
			return
		}
		var herr *errors.HydrationError
		if !stderrors.As(err, &herr) {
			herr = &errors.HydrationError{Op: "hydration.Activate", Kind: errors.KindUnknown, Err: err}
		}
		if herr.Trigger == "" {
			herr.Trigger = kind
		}
		errors.Report(herr)
		if s.opts.OnError != nil {
			s.opts.OnError(err)
		}
	}
}

// Activate releases every armed trigger and, unless the component is
// already active or disposed, runs BeforeActivate and commits the Active
// state. Concurrent callers share a single hook run. A failing hook leaves
// the state Pending and its error is returned.
func (s *Scheduler) Activate(ctx context.Context) error {
	if n := s.registry.Release(); n > 0 {
		s.log.Debug().Int("released", n).Msg("triggers released")
	}

	s.mu.Lock()
	done := s.state == Active || s.disposed
	s.mu.Unlock()
	if done {
		return nil
	}

	if s.opts.BeforeActivate == nil {
		s.commit()
		return nil
	}

	_, err, _ := s.flight.Do(activateKey, func() (any, error) {
		s.mu.Lock()
		done := s.state == Active || s.disposed
		s.mu.Unlock()
		if done {
			return nil, nil
		}
		if err := s.runHook(ctx); err != nil {
			return nil, err
		}
		s.commit()
		return nil, nil
	})
	return err
}

func (s *Scheduler) runHook(ctx context.Context) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	defer errors.RecoverWithCallback("hydration.BeforeActivate", func(r any) {
		err = &errors.HydrationError{
			Op:   "hydration.BeforeActivate",
			Kind: errors.KindHook,
			Err:  &errors.PanicError{Op: "hydration.BeforeActivate", Value: r},
		}
	})
	if hookErr := s.opts.BeforeActivate(ctx); hookErr != nil {
		return &errors.HydrationError{Op: "hydration.BeforeActivate", Kind: errors.KindHook, Err: hookErr}
	}
	return nil
}

// commit sets the Active state. It is dropped when the scheduler was
// disposed while the hook ran.
func (s *Scheduler) commit() {
	s.mu.Lock()
	if s.state == Active || s.disposed {
		s.mu.Unlock()
		return
	}
	s.state = Active
	s.mu.Unlock()

	// Handles armed while the hook ran.
	s.registry.Release()
	s.log.Debug().Msg("activated")
	if s.opts.OnActivate != nil {
		s.opts.OnActivate()
	}
}

// Dispose ends the pending phase without activating and releases every
// armed trigger. An in-flight BeforeActivate keeps running but its result
// is discarded.
func (s *Scheduler) Dispose() {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	s.disposed = true
	s.mu.Unlock()

	n := s.registry.Release()
	s.log.Debug().Int("released", n).Msg("disposed")
}
