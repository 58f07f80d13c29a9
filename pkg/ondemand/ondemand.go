// Package ondemand wraps a component so that it is shipped as inert server
// markup and only becomes live when one of its triggers fires.
//
// On the server, [Component.RenderStatic] writes the component inside a
// section carrying the host.MarkerAttribute. On the client, [Component.Mount]
// adopts that section, keeps the inert markup on screen and hands the
// activation decision to a hydration.Scheduler. When the scheduler commits,
// the inert children are replaced with the output of the live render.
//
//	comp := &ondemand.Component{
//		Name:    "Comments",
//		Options: opts,
//		Render:  renderComments,
//	}
//	inst, err := comp.Mount(ctx, eng.Host(), section, false)
//	if err != nil {
//		return err
//	}
//	defer inst.Unmount()
package ondemand

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/go-drift/ondemand/pkg/dom"
	"github.com/go-drift/ondemand/pkg/errors"
	"github.com/go-drift/ondemand/pkg/host"
	"github.com/go-drift/ondemand/pkg/hydration"
)

// WrapperTag is the element every wrapped component renders into.
const WrapperTag = "section"

// RenderFunc renders a component's content as children of parent.
type RenderFunc func(parent *dom.Node) error

// Component describes a component rendered on demand.
type Component struct {
	// Name identifies the component in logs and errors.
	Name string
	// Options configure the activation scheduler of every mount.
	Options hydration.Options
	// Render produces the component content. It is used for both the static
	// and the live rendering.
	Render RenderFunc
	// WrapperAttrs are copied onto the wrapper section.
	WrapperAttrs []dom.Attr
}

// DisplayName returns the name used for diagnostics.
func (c *Component) DisplayName() string {
	name := c.Name
	if name == "" {
		name = "Component"
	}
	return fmt.Sprintf("ondemand(%s)", name)
}

// StaticNode builds the inert server rendering: a wrapper section carrying
// the marker attribute followed by WrapperAttrs, containing the output of
// Render.
func (c *Component) StaticNode() (*dom.Node, error) {
	attrs := append([]dom.Attr{{Name: host.MarkerAttribute, Value: "true"}}, c.WrapperAttrs...)
	section := dom.NewElement(WrapperTag, attrs...)
	if err := c.render(section); err != nil {
		return nil, err
	}
	return section, nil
}

// RenderStatic writes the inert server rendering to w.
func (c *Component) RenderStatic(w io.Writer) error {
	section, err := c.StaticNode()
	if err != nil {
		return err
	}
	return dom.Render(w, section)
}

func (c *Component) render(parent *dom.Node) error {
	if c.Render == nil {
		return nil
	}
	if err := c.Render(parent); err != nil {
		return &errors.HydrationError{
			Op:        c.DisplayName() + ".Render",
			Kind:      errors.KindRender,
			Err:       err,
			Timestamp: time.Now(),
		}
	}
	return nil
}

// Mount adopts root as the wrapper of a client-side instance and starts its
// scheduler. root is either the section produced by RenderStatic or an empty
// element for client-only rendering, where the fallback activates at once
// unless disabled.
//
// A failing BeforeActivate hook during mount leaves the instance pending and
// is reported like a trigger failure. Other errors dispose the instance.
func (c *Component) Mount(ctx context.Context, h host.Host, root *dom.Node, force bool) (*Instance, error) {
	if root == nil {
		return nil, &errors.HydrationError{
			Op:        c.DisplayName() + ".Mount",
			Kind:      errors.KindMisuse,
			Err:       errors.ErrNoTarget,
			Timestamp: time.Now(),
		}
	}

	inst := &Instance{comp: c, root: root}
	opts := c.Options
	onActivate := opts.OnActivate
	opts.OnActivate = func() {
		inst.hydrate()
		if onActivate != nil {
			onActivate()
		}
	}
	inst.onError = opts.OnError

	inst.sched = hydration.New(h, opts, force)
	inst.OnDispose(inst.sched.Dispose)

	if inst.sched.State() == hydration.Active {
		// Active from creation: no transition happens, so render live now.
		inst.hydrate()
		return inst, nil
	}

	if err := inst.sched.SetRoot(ctx, root); err != nil {
		inst.Unmount()
		return nil, err
	}
	if err := inst.sched.CheckFallback(ctx); err != nil {
		inst.report(err)
	}
	if err := inst.sched.ArmTriggers(ctx); err != nil {
		inst.Unmount()
		return nil, err
	}
	return inst, nil
}
