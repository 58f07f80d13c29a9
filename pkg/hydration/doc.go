// Package hydration decides when a statically rendered component becomes
// interactive.
//
// A component is first rendered in an inert form by the static renderer,
// which marks its root element with [host.MarkerAttribute]. On the client a
// [Scheduler] owns the component's single transition from [Pending] to
// [Active]. The transition can be caused by:
//
//   - the fallback check: the root lacks the marker (the component was not
//     produced statically) or activation is forced for this mount
//   - a configured trigger firing: a DOM event, a delay, an idle period, or
//     the root becoming visible in the viewport
//   - an explicit call to [Scheduler.Activate]
//
// # Lifecycle
//
//	s := hydration.New(h, opts, force)
//	if s.State() == hydration.Active {
//	    // render live immediately
//	}
//	if err := s.Mount(ctx, root); err != nil {
//	    // misuse or a failing BeforeActivate hook
//	}
//	...
//	s.Dispose() // on unmount
//
// Every armed trigger registers exactly one release handle. Activation and
// disposal both release every handle in registration order, and handles are
// idempotent, so a trigger that fires while another is releasing is safe.
//
// # Triggers
//
// Triggers are described by [TriggerSpec] values:
//
//	opts.Triggers = []hydration.TriggerSpec{
//	    hydration.On("click"),
//	    hydration.Delay(200 * time.Millisecond),
//	    hydration.Idle(),
//	    hydration.Visible(),
//	}
//
// Capabilities missing from the [host.Host] degrade instead of failing: idle
// falls back to the default delay and visibility activates immediately.
package hydration
