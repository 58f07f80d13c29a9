// Package testing provides a deterministic host for activation tests.
//
// # Quick Start
//
// Create a fake host, hand its capabilities to a scheduler, and drive time:
//
//	func TestDelay(t *testing.T) {
//	    fh := odtest.NewFakeHost()
//	    s := hydration.New(fh.Host(), opts, false)
//	    s.Mount(ctx, root)
//
//	    fh.Advance(200 * time.Millisecond) // fires due timers
//	    fh.RunIdle()                       // runs pending idle callbacks
//	    fh.Pump()                          // runs animation frames
//	}
//
// Nil out fields of the returned [host.Host] to simulate a platform without
// a capability:
//
//	h := fh.Host()
//	h.Idle = nil
//
// # Import Alias
//
// Since this package has the same name as the standard library testing
// package, import it with an alias:
//
//	import odtest "github.com/go-drift/ondemand/pkg/testing"
package testing
