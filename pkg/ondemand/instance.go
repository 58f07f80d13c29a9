package ondemand

import (
	"context"
	stderrors "errors"
	"sync"

	"github.com/go-drift/ondemand/pkg/dom"
	"github.com/go-drift/ondemand/pkg/errors"
	"github.com/go-drift/ondemand/pkg/host"
	"github.com/go-drift/ondemand/pkg/hydration"
)

// Instance is one mounted component.
type Instance struct {
	comp    *Component
	root    *dom.Node
	sched   *hydration.Scheduler
	onError func(error)

	mu        sync.Mutex
	hydrated  bool
	renderErr error
	disposers []func()
	disposed  bool
}

// Root returns the wrapper element.
func (i *Instance) Root() *dom.Node {
	return i.root
}

// State returns the scheduler state.
func (i *Instance) State() hydration.State {
	return i.sched.State()
}

// Hydrated reports whether the live rendering has replaced the inert one.
func (i *Instance) Hydrated() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.hydrated
}

// RenderErr returns the error of the live render, if it failed.
func (i *Instance) RenderErr() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.renderErr
}

// Activate activates the component now, running BeforeActivate first.
func (i *Instance) Activate(ctx context.Context) error {
	return i.sched.Activate(ctx)
}

// SetForceActivation changes the force flag of a mounted instance.
func (i *Instance) SetForceActivation(ctx context.Context, force bool) error {
	return i.sched.SetForceActivation(ctx, force)
}

// OnDispose registers a cleanup function to run on Unmount. Cleanups run in
// reverse registration order, once. The returned function unregisters the
// cleanup. Registering after Unmount runs the cleanup immediately.
func (i *Instance) OnDispose(cleanup func()) func() {
	if cleanup == nil {
		return func() {}
	}

	i.mu.Lock()
	if i.disposed {
		i.mu.Unlock()
		cleanup()
		return func() {}
	}
	index := len(i.disposers)
	i.disposers = append(i.disposers, cleanup)
	i.mu.Unlock()

	return func() {
		i.mu.Lock()
		defer i.mu.Unlock()
		if index < len(i.disposers) {
			i.disposers[index] = nil
		}
	}
}

// Unmount disposes the scheduler, releasing any armed trigger, and runs the
// registered cleanups. Calling it more than once is a no-op.
func (i *Instance) Unmount() {
	i.mu.Lock()
	if i.disposed {
		i.mu.Unlock()
		return
	}
	i.disposed = true
	disposers := i.disposers
	i.disposers = nil
	i.mu.Unlock()

	for k := len(disposers) - 1; k >= 0; k-- {
		if disposers[k] != nil {
			runDisposer(disposers[k])
		}
	}
}

func runDisposer(fn func()) {
	defer errors.Recover("ondemand.Unmount")
	fn()
}

// hydrate swaps the inert content for the live rendering. The marker
// attribute is dropped so the wrapper matches a client-rendered one.
func (i *Instance) hydrate() {
	i.mu.Lock()
	if i.hydrated || i.disposed {
		i.mu.Unlock()
		return
	}
	i.hydrated = true
	i.mu.Unlock()

	i.root.ReplaceChildren()
	i.root.RemoveAttribute(host.MarkerAttribute)
	for _, a := range i.comp.WrapperAttrs {
		i.root.SetAttribute(a.Name, a.Value)
	}

	if err := i.comp.render(i.root); err != nil {
		i.mu.Lock()
		i.renderErr = err
		i.mu.Unlock()
		i.report(err)
	}
}

func (i *Instance) report(err error) {
	var he *errors.HydrationError
	if stderrors.As(err, &he) {
		errors.Report(he)
	}
	if i.onError != nil {
		i.onError(err)
	}
}
