package hydration

import (
	"context"
	stderrors "errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-drift/ondemand/pkg/dom"
	"github.com/go-drift/ondemand/pkg/errors"
	"github.com/go-drift/ondemand/pkg/host"
	odtest "github.com/go-drift/ondemand/pkg/testing"
)

func staticRoot() *dom.Node {
	root := dom.NewElement("section", dom.Attr{Name: host.MarkerAttribute, Value: "true"})
	root.AppendChild(dom.NewElement("div"))
	return root
}

func withTriggers(specs ...TriggerSpec) Options {
	opts := DefaultOptions()
	opts.Triggers = specs
	return opts
}

func mount(t *testing.T, s *Scheduler, root host.Element) {
	t.Helper()
	if err := s.Mount(context.Background(), root); err != nil {
		t.Fatalf("Mount: %v", err)
	}
}

func TestInitialState(t *testing.T) {
	hook := func(context.Context) error { return nil }
	tests := []struct {
		name    string
		opts    Options
		pending bool
		noProbe bool
		force   bool
		want    State
	}{
		{name: "defaults", opts: DefaultOptions(), want: Pending},
		{name: "forced", opts: DefaultOptions(), force: true, want: Active},
		{name: "forced with hook", opts: Options{BeforeActivate: hook}, force: true, want: Pending},
		{name: "input idle", opts: Options{WhenInputPending: true}, want: Active},
		{name: "input pending", opts: Options{WhenInputPending: true}, pending: true, want: Pending},
		{name: "input idle with hook", opts: Options{WhenInputPending: true, BeforeActivate: hook}, want: Pending},
		{name: "no input capability, zero value", opts: Options{WhenInputPending: true}, noProbe: true, want: Pending},
		{name: "no input capability, assume idle", opts: Options{WhenInputPending: true, AssumeInputIdle: true}, noProbe: true, want: Active},
		{name: "gate disabled", opts: Options{}, want: Pending},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fh := odtest.NewFakeHost()
			fh.SetInputPending(tt.pending)
			if tt.noProbe {
				fh.RemoveInputProbe()
			}
			s := New(fh.Host(), tt.opts, tt.force)
			if got := s.State(); got != tt.want {
				t.Errorf("State() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStaysPendingWithoutTriggers(t *testing.T) {
	fh := odtest.NewFakeHost()
	s := New(fh.Host(), DefaultOptions(), false)
	mount(t, s, staticRoot())

	fh.Advance(time.Hour)
	fh.RunIdle()
	fh.Pump()

	if s.State() != Pending {
		t.Errorf("State() = %v, want pending", s.State())
	}
}

func TestFallbackActivatesWithoutMarker(t *testing.T) {
	fh := odtest.NewFakeHost()
	activations := 0
	opts := withTriggers(On("click"), Delay(time.Second))
	opts.OnActivate = func() { activations++ }

	s := New(fh.Host(), opts, false)
	root := dom.NewElement("section")
	mount(t, s, root)

	if s.State() != Active {
		t.Fatalf("State() = %v, want active", s.State())
	}
	if activations != 1 {
		t.Errorf("OnActivate called %d times, want 1", activations)
	}
	if s.Armed() != 0 || fh.PendingTimers() != 0 || root.ListenerCount("click") != 0 {
		t.Errorf("expected nothing armed: handles=%d timers=%d listeners=%d",
			s.Armed(), fh.PendingTimers(), root.ListenerCount("click"))
	}
}

func TestMarkerValueIsIgnored(t *testing.T) {
	fh := odtest.NewFakeHost()
	s := New(fh.Host(), withTriggers(Delay(time.Hour)), false)
	root := dom.NewElement("section", dom.Attr{Name: host.MarkerAttribute, Value: "false"})
	mount(t, s, root)

	if s.State() != Pending {
		t.Fatalf("State() = %v, want pending", s.State())
	}
	if fh.PendingTimers() != 1 {
		t.Errorf("PendingTimers() = %d, want 1", fh.PendingTimers())
	}
}

func TestDisableFallbackKeepsPending(t *testing.T) {
	fh := odtest.NewFakeHost()
	opts := withTriggers(On("click"))
	opts.DisableFallback = true

	s := New(fh.Host(), opts, false)
	root := dom.NewElement("section")
	mount(t, s, root)

	if s.State() != Pending {
		t.Fatalf("State() = %v, want pending", s.State())
	}
	root.Dispatch("click")
	if s.State() != Active {
		t.Errorf("State() after click = %v, want active", s.State())
	}
}

func TestForceActivationIgnoresMarkerAndFallback(t *testing.T) {
	fh := odtest.NewFakeHost()
	hookCalls := 0
	opts := withTriggers(On("click"))
	opts.DisableFallback = true
	opts.BeforeActivate = func(context.Context) error {
		hookCalls++
		return nil
	}

	s := New(fh.Host(), opts, true)
	root := staticRoot()
	mount(t, s, root)

	if s.State() != Active {
		t.Fatalf("State() = %v, want active", s.State())
	}
	if hookCalls != 1 {
		t.Errorf("hook ran %d times, want 1", hookCalls)
	}
	if root.ListenerCount("click") != 0 {
		t.Error("forced mount should not arm triggers")
	}
}

func TestSetForceActivationRerunsFallback(t *testing.T) {
	fh := odtest.NewFakeHost()
	s := New(fh.Host(), withTriggers(Delay(time.Minute)), false)
	mount(t, s, staticRoot())

	if err := s.SetForceActivation(context.Background(), false); err != nil {
		t.Fatalf("SetForceActivation(false): %v", err)
	}
	if s.State() != Pending {
		t.Fatalf("unchanged override should not activate")
	}

	if err := s.SetForceActivation(context.Background(), true); err != nil {
		t.Fatalf("SetForceActivation(true): %v", err)
	}
	if s.State() != Active {
		t.Errorf("State() = %v, want active", s.State())
	}
	if fh.PendingTimers() != 0 {
		t.Errorf("PendingTimers() = %d, want 0", fh.PendingTimers())
	}
}

func TestDelayScenario(t *testing.T) {
	fh := odtest.NewFakeHost()
	s := New(fh.Host(), withTriggers(Delay(200*time.Millisecond)), false)
	mount(t, s, staticRoot())

	fh.Advance(199 * time.Millisecond)
	if s.State() != Pending {
		t.Fatalf("State() at 199ms = %v, want pending", s.State())
	}
	fh.Advance(time.Millisecond)
	if s.State() != Active {
		t.Fatalf("State() at 200ms = %v, want active", s.State())
	}
	if s.Armed() != 0 || fh.PendingTimers() != 0 {
		t.Errorf("expected nothing armed: handles=%d timers=%d", s.Armed(), fh.PendingTimers())
	}
}

func TestDefaultDelay(t *testing.T) {
	fh := odtest.NewFakeHost()
	s := New(fh.Host(), withTriggers(TriggerSpec{Kind: KindDelay}), false)
	mount(t, s, staticRoot())

	fh.Advance(DefaultDelay - time.Millisecond)
	if s.State() != Pending {
		t.Fatal("activated before the default delay")
	}
	fh.Advance(time.Millisecond)
	if s.State() != Active {
		t.Error("not activated at the default delay")
	}
}

func TestNonPositiveDelayArmsNothing(t *testing.T) {
	fh := odtest.NewFakeHost()
	s := New(fh.Host(), withTriggers(Delay(0), Delay(-time.Second)), false)
	mount(t, s, staticRoot())

	if fh.PendingTimers() != 0 {
		t.Errorf("PendingTimers() = %d, want 0", fh.PendingTimers())
	}
	fh.Advance(time.Hour)
	if s.State() != Pending {
		t.Errorf("State() = %v, want pending", s.State())
	}
}

func TestEventTriggerOnRoot(t *testing.T) {
	fh := odtest.NewFakeHost()
	s := New(fh.Host(), withTriggers(On("click")), false)
	root := staticRoot()
	mount(t, s, root)

	if root.ListenerCount("click") != 1 {
		t.Fatalf("ListenerCount = %d, want 1", root.ListenerCount("click"))
	}
	// Capture listener on the root sees clicks on descendants.
	root.Children[0].Dispatch("click")

	if s.State() != Active {
		t.Errorf("State() = %v, want active", s.State())
	}
	if root.ListenerCount("click") != 0 {
		t.Errorf("listener not removed after activation")
	}
}

func TestEventTriggerCustomTarget(t *testing.T) {
	fh := odtest.NewFakeHost()
	doc := dom.NewElement("body")
	resolved := 0
	spec := OnTarget("scroll", func() host.EventTarget {
		resolved++
		return doc
	})
	s := New(fh.Host(), withTriggers(spec), false)
	root := staticRoot()
	doc.AppendChild(root)

	if resolved != 0 {
		t.Fatal("target resolved before arming")
	}
	mount(t, s, root)
	if resolved != 1 {
		t.Errorf("target resolved %d times, want 1", resolved)
	}

	root.Dispatch("scroll")
	if s.State() != Active {
		t.Errorf("State() = %v, want active", s.State())
	}
	if doc.ListenerCount("scroll") != 0 {
		t.Error("custom target listener not removed")
	}
}

func TestMissingTargetIsMisuse(t *testing.T) {
	fh := odtest.NewFakeHost()
	s := New(fh.Host(), withTriggers(Delay(time.Second), OnTarget("scroll", func() host.EventTarget { return nil })), false)

	err := s.Mount(context.Background(), staticRoot())
	if !errors.IsKind(err, errors.KindMisuse) {
		t.Fatalf("Mount error = %v, want misuse", err)
	}
	if !stderrors.Is(err, errors.ErrNoTarget) {
		t.Errorf("expected ErrNoTarget, got %v", err)
	}
	if s.Armed() != 0 || fh.PendingTimers() != 0 {
		t.Errorf("handles armed before the failure must be released: handles=%d timers=%d", s.Armed(), fh.PendingTimers())
	}
}

func TestMountWithoutRoot(t *testing.T) {
	s := New(odtest.NewFakeHost().Host(), DefaultOptions(), false)
	if err := s.Mount(context.Background(), nil); !errors.IsKind(err, errors.KindMisuse) {
		t.Errorf("Mount(nil) error = %v, want misuse", err)
	}
}

func TestVisibleBeforeMountIsMisuse(t *testing.T) {
	s := New(odtest.NewFakeHost().Host(), withTriggers(Visible()), false)
	if err := s.ArmTriggers(context.Background()); !errors.IsKind(err, errors.KindMisuse) {
		t.Errorf("ArmTriggers() error = %v, want misuse", err)
	}
}

func TestMountTwice(t *testing.T) {
	s := New(odtest.NewFakeHost().Host(), DefaultOptions(), false)
	mount(t, s, staticRoot())
	if err := s.Mount(context.Background(), staticRoot()); !errors.IsKind(err, errors.KindMisuse) {
		t.Errorf("second Mount error = %v, want misuse", err)
	}
}

func TestIdleTrigger(t *testing.T) {
	fh := odtest.NewFakeHost()
	s := New(fh.Host(), withTriggers(Idle()), false)
	mount(t, s, staticRoot())

	if fh.PendingIdle() != 1 {
		t.Fatalf("PendingIdle() = %d, want 1", fh.PendingIdle())
	}
	fh.RunIdle()
	if s.State() != Pending {
		t.Fatal("idle trigger must wait one frame before activating")
	}
	fh.Pump()
	if s.State() != Active {
		t.Errorf("State() = %v, want active", s.State())
	}
	if fh.PendingTimers() != 0 || fh.PendingFrames() != 0 {
		t.Errorf("leftover timers=%d frames=%d", fh.PendingTimers(), fh.PendingFrames())
	}
}

func TestIdleTriggerTimeout(t *testing.T) {
	fh := odtest.NewFakeHost()
	s := New(fh.Host(), withTriggers(Idle()), false)
	mount(t, s, staticRoot())

	fh.Advance(IdleTimeout)
	fh.Pump()
	if s.State() != Active {
		t.Errorf("State() = %v, want active after idle timeout", s.State())
	}
}

func TestIdleTriggerWithoutFrames(t *testing.T) {
	fh := odtest.NewFakeHost()
	h := fh.Host()
	h.Frames = nil
	s := New(h, withTriggers(Idle()), false)
	mount(t, s, staticRoot())

	fh.RunIdle()
	if s.State() != Active {
		t.Errorf("State() = %v, want active", s.State())
	}
}

func TestIdleUnsupportedFallsBackToDefaultDelay(t *testing.T) {
	fh := odtest.NewFakeHost()
	h := fh.Host()
	h.Idle = nil
	s := New(h, withTriggers(Idle()), false)
	mount(t, s, staticRoot())

	fh.Advance(DefaultDelay - time.Millisecond)
	if s.State() != Pending {
		t.Fatal("activated before the default delay")
	}
	fh.Advance(time.Millisecond)
	if s.State() != Active {
		t.Errorf("State() = %v, want active", s.State())
	}
	if fh.PendingTimers() != 0 {
		t.Errorf("PendingTimers() = %d, want 0", fh.PendingTimers())
	}
}

func TestVisibleNotIntersecting(t *testing.T) {
	fh := odtest.NewFakeHost()
	fh.OnObserve = func(o *odtest.FakeObserver, target host.Element) {
		o.Report(host.IntersectionEntry{Target: target, IsIntersecting: false, Ratio: 0})
	}
	resolved := 0
	spec := VisibleWith(func() host.IntersectionOptions {
		resolved++
		return host.IntersectionOptions{RootMargin: "10px"}
	})
	s := New(fh.Host(), withTriggers(spec), false)
	root := staticRoot()
	mount(t, s, root)

	if s.State() != Pending {
		t.Errorf("State() = %v, want pending", s.State())
	}
	if resolved != 1 {
		t.Errorf("options resolved %d times, want 1", resolved)
	}
	obs := fh.Observers()
	if len(obs) != 1 {
		t.Fatalf("created %d observers, want 1", len(obs))
	}
	if obs[0].Options.RootMargin != "10px" {
		t.Errorf("RootMargin = %q, want 10px", obs[0].Options.RootMargin)
	}
	if targets := obs[0].Targets(); len(targets) != 1 || targets[0] != host.Element(root) {
		t.Errorf("observer targets = %v, want the root", targets)
	}
}

func TestVisibleIntersecting(t *testing.T) {
	fh := odtest.NewFakeHost()
	fh.OnObserve = func(o *odtest.FakeObserver, target host.Element) {
		o.Report(host.IntersectionEntry{Target: target, IsIntersecting: true, Ratio: 0.5})
	}
	s := New(fh.Host(), withTriggers(Visible()), false)
	mount(t, s, staticRoot())

	if s.State() != Active {
		t.Fatalf("State() = %v, want active", s.State())
	}
	if d := fh.Observers()[0].Disconnects(); d != 1 {
		t.Errorf("Disconnect called %d times, want 1", d)
	}
	if s.Armed() != 0 {
		t.Errorf("Armed() = %d, want 0", s.Armed())
	}
}

func TestVisibleZeroRatioIgnored(t *testing.T) {
	fh := odtest.NewFakeHost()
	s := New(fh.Host(), withTriggers(Visible()), false)
	mount(t, s, staticRoot())

	o := fh.Observers()[0]
	o.Report(host.IntersectionEntry{IsIntersecting: true, Ratio: 0})
	if s.State() != Pending {
		t.Fatal("zero ratio must not activate")
	}
	o.Report(host.IntersectionEntry{IsIntersecting: true, Ratio: 0.1})
	if s.State() != Active {
		t.Errorf("State() = %v, want active", s.State())
	}
	if o.Disconnects() != 1 {
		t.Errorf("Disconnect called %d times, want 1", o.Disconnects())
	}
}

func TestVisibleUnsupportedActivatesImmediately(t *testing.T) {
	fh := odtest.NewFakeHost()
	h := fh.Host()
	h.Intersection = nil
	s := New(h, withTriggers(Delay(time.Second), Visible(), On("click")), false)
	root := staticRoot()
	mount(t, s, root)

	if s.State() != Active {
		t.Fatalf("State() = %v, want active", s.State())
	}
	if fh.PendingTimers() != 0 || root.ListenerCount("click") != 0 || s.Armed() != 0 {
		t.Errorf("triggers left armed: timers=%d listeners=%d handles=%d",
			fh.PendingTimers(), root.ListenerCount("click"), s.Armed())
	}
}

func TestSimultaneousTriggersActivateOnce(t *testing.T) {
	fh := odtest.NewFakeHost()
	activations := 0
	hookCalls := 0
	opts := withTriggers(On("click"), On("mouseover"), Delay(10*time.Millisecond))
	opts.OnActivate = func() { activations++ }
	opts.BeforeActivate = func(context.Context) error {
		hookCalls++
		return nil
	}
	s := New(fh.Host(), opts, false)
	root := staticRoot()
	mount(t, s, root)

	fh.AfterFunc(10*time.Millisecond, func() { root.Dispatch("click") })
	fh.AfterFunc(10*time.Millisecond, func() { root.Dispatch("mouseover") })
	fh.Advance(10 * time.Millisecond)

	if activations != 1 || hookCalls != 1 {
		t.Errorf("activations=%d hookCalls=%d, want 1 and 1", activations, hookCalls)
	}
	if err := s.Activate(context.Background()); err != nil {
		t.Errorf("Activate() on active scheduler = %v, want nil", err)
	}
	if activations != 1 || hookCalls != 1 {
		t.Errorf("repeated Activate changed state: activations=%d hookCalls=%d", activations, hookCalls)
	}
}

func TestConcurrentActivateRunsHookOnce(t *testing.T) {
	fh := odtest.NewFakeHost()
	var hookCalls atomic.Int32
	var activations atomic.Int32
	entered := make(chan struct{})
	proceed := make(chan struct{})

	opts := DefaultOptions()
	opts.BeforeActivate = func(context.Context) error {
		if hookCalls.Add(1) == 1 {
			close(entered)
		}
		<-proceed
		return nil
	}
	opts.OnActivate = func() { activations.Add(1) }
	s := New(fh.Host(), opts, false)
	if err := s.SetRoot(context.Background(), staticRoot()); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.Activate(context.Background()); err != nil {
				t.Errorf("Activate: %v", err)
			}
		}()
	}
	<-entered
	close(proceed)
	wg.Wait()

	if hookCalls.Load() != 1 {
		t.Errorf("hook ran %d times, want 1", hookCalls.Load())
	}
	if activations.Load() != 1 {
		t.Errorf("OnActivate called %d times, want 1", activations.Load())
	}
	if s.State() != Active {
		t.Errorf("State() = %v, want active", s.State())
	}
}

func TestDisposeReleasesEverything(t *testing.T) {
	fh := odtest.NewFakeHost()
	activations := 0
	opts := withTriggers(On("click"), Delay(time.Second), Idle(), Visible())
	opts.OnActivate = func() { activations++ }
	s := New(fh.Host(), opts, false)
	root := staticRoot()
	mount(t, s, root)

	if s.Armed() != 4 {
		t.Fatalf("Armed() = %d, want 4", s.Armed())
	}
	s.Dispose()
	s.Dispose()

	if s.Armed() != 0 {
		t.Errorf("Armed() = %d, want 0", s.Armed())
	}
	if root.ListenerCount("click") != 0 || fh.PendingTimers() != 0 || fh.PendingIdle() != 0 {
		t.Errorf("leftovers: listeners=%d timers=%d idle=%d",
			root.ListenerCount("click"), fh.PendingTimers(), fh.PendingIdle())
	}
	if d := fh.Observers()[0].Disconnects(); d != 1 {
		t.Errorf("Disconnect called %d times, want 1", d)
	}

	root.Dispatch("click")
	fh.Advance(time.Hour)
	if err := s.Activate(context.Background()); err != nil {
		t.Errorf("Activate after Dispose = %v, want nil", err)
	}
	if s.State() != Pending || activations != 0 {
		t.Errorf("disposed scheduler activated: state=%v activations=%d", s.State(), activations)
	}
	if !s.Disposed() {
		t.Error("Disposed() = false")
	}
}

func TestDisposeAfterIdleRanCancelsFrame(t *testing.T) {
	fh := odtest.NewFakeHost()
	s := New(fh.Host(), withTriggers(Idle()), false)
	mount(t, s, staticRoot())

	fh.RunIdle()
	if fh.PendingFrames() != 1 {
		t.Fatalf("PendingFrames() = %d, want 1", fh.PendingFrames())
	}
	s.Dispose()
	if fh.PendingFrames() != 0 {
		t.Errorf("PendingFrames() = %d, want 0", fh.PendingFrames())
	}
	fh.Pump()
	if s.State() != Pending {
		t.Errorf("State() = %v, want pending", s.State())
	}
}

func TestHookFailureKeepsPending(t *testing.T) {
	rec := captureErrors(t)
	fh := odtest.NewFakeHost()
	hookErr := stderrors.New("chunk failed to load")
	var reported []error

	opts := withTriggers(On("click"), Delay(time.Second))
	opts.BeforeActivate = func(context.Context) error { return hookErr }
	opts.OnError = func(err error) { reported = append(reported, err) }
	s := New(fh.Host(), opts, false)
	root := staticRoot()
	mount(t, s, root)

	root.Dispatch("click")

	if s.State() != Pending {
		t.Fatalf("State() = %v, want pending", s.State())
	}
	if s.Armed() != 0 || fh.PendingTimers() != 0 {
		t.Errorf("triggers must be released before the hook: handles=%d timers=%d", s.Armed(), fh.PendingTimers())
	}
	if len(reported) != 1 || !stderrors.Is(reported[0], hookErr) {
		t.Errorf("OnError got %v, want %v", reported, hookErr)
	}
	if rec.errorCount() != 1 || rec.errs[0].Kind != errors.KindHook || rec.errs[0].Trigger != "click" {
		t.Errorf("reported errors = %+v", rec.errs)
	}

	err := s.Activate(context.Background())
	if !errors.IsKind(err, errors.KindHook) || !stderrors.Is(err, hookErr) {
		t.Errorf("Activate() error = %v, want hook error", err)
	}
}

func TestHookPanicBecomesError(t *testing.T) {
	captureErrors(t)
	opts := DefaultOptions()
	opts.BeforeActivate = func(context.Context) error { panic("bad hook") }
	s := New(odtest.NewFakeHost().Host(), opts, false)

	err := s.Activate(context.Background())
	if !errors.IsKind(err, errors.KindHook) {
		t.Fatalf("Activate() error = %v, want hook error", err)
	}
	var perr *errors.PanicError
	if !stderrors.As(err, &perr) || perr.Value != "bad hook" {
		t.Errorf("expected wrapped PanicError, got %v", err)
	}
	if s.State() != Pending {
		t.Errorf("State() = %v, want pending", s.State())
	}
}

func TestHookRetryAfterFailure(t *testing.T) {
	captureErrors(t)
	attempts := 0
	opts := DefaultOptions()
	opts.BeforeActivate = func(context.Context) error {
		attempts++
		if attempts == 1 {
			return stderrors.New("transient")
		}
		return nil
	}
	s := New(odtest.NewFakeHost().Host(), opts, false)

	if err := s.Activate(context.Background()); err == nil {
		t.Fatal("expected first activation to fail")
	}
	if err := s.Activate(context.Background()); err != nil {
		t.Fatalf("second Activate: %v", err)
	}
	if s.State() != Active {
		t.Errorf("State() = %v, want active", s.State())
	}
}

func TestDisposeDuringHookDropsCommit(t *testing.T) {
	entered := make(chan struct{})
	proceed := make(chan struct{})
	activated := false

	opts := DefaultOptions()
	opts.BeforeActivate = func(context.Context) error {
		close(entered)
		<-proceed
		return nil
	}
	opts.OnActivate = func() { activated = true }
	s := New(odtest.NewFakeHost().Host(), opts, false)

	done := make(chan error)
	go func() { done <- s.Activate(context.Background()) }()
	<-entered
	s.Dispose()
	close(proceed)

	if err := <-done; err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if s.State() != Pending || activated {
		t.Errorf("commit after dispose: state=%v activated=%v", s.State(), activated)
	}
}

func TestHookReceivesMountContextValues(t *testing.T) {
	type key struct{}
	ctx, cancel := context.WithCancel(context.WithValue(context.Background(), key{}, "mount"))

	var got any
	var ctxErr error
	fh := odtest.NewFakeHost()
	opts := withTriggers(Delay(time.Millisecond))
	opts.BeforeActivate = func(ctx context.Context) error {
		got = ctx.Value(key{})
		ctxErr = ctx.Err()
		return nil
	}
	s := New(fh.Host(), opts, false)
	if err := s.Mount(ctx, staticRoot()); err != nil {
		t.Fatal(err)
	}
	cancel()
	fh.Advance(time.Millisecond)

	if got != "mount" {
		t.Errorf("hook context value = %v, want mount", got)
	}
	if ctxErr != nil {
		t.Errorf("hook context should outlive mount cancellation, got %v", ctxErr)
	}
}

func TestStateString(t *testing.T) {
	if Pending.String() != "pending" || Active.String() != "active" {
		t.Errorf("State strings = %q, %q", Pending.String(), Active.String())
	}
}
