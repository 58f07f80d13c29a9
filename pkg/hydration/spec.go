package hydration

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-drift/ondemand/pkg/host"
)

// Trigger kinds with dedicated behavior. Any other kind names a DOM event.
const (
	KindDelay   = "delay"
	KindIdle    = "idle"
	KindVisible = "visible"
)

const (
	// DefaultDelay is used by delay triggers without an explicit duration
	// and by idle triggers on hosts without idle callbacks.
	DefaultDelay = 2 * time.Second
	// IdleTimeout bounds how long an idle trigger waits for an idle period.
	IdleTimeout = 500 * time.Millisecond
)

// TriggerSpec describes one trigger to arm. Build values with the
// constructors below; the zero value is invalid.
type TriggerSpec struct {
	// Kind is KindDelay, KindIdle, KindVisible or a DOM event type.
	Kind string

	delay    time.Duration
	hasDelay bool
	target   func() host.EventTarget
	observe  func() host.IntersectionOptions
}

// On activates when an event of the given type reaches the component root.
func On(eventType string) TriggerSpec {
	return TriggerSpec{Kind: eventType}
}

// OnTarget activates when an event of the given type reaches the element
// returned by resolve. resolve is called when the trigger is armed.
func OnTarget(eventType string, resolve func() host.EventTarget) TriggerSpec {
	return TriggerSpec{Kind: eventType, target: resolve}
}

// Delay activates after d. A non-positive d arms nothing.
func Delay(d time.Duration) TriggerSpec {
	return TriggerSpec{Kind: KindDelay, delay: d, hasDelay: true}
}

// Idle activates during the next idle period, one frame later.
func Idle() TriggerSpec {
	return TriggerSpec{Kind: KindIdle}
}

// Visible activates when the root intersects the viewport.
func Visible() TriggerSpec {
	return TriggerSpec{Kind: KindVisible}
}

// VisibleWith is Visible with observer options resolved at arm time.
func VisibleWith(resolve func() host.IntersectionOptions) TriggerSpec {
	return TriggerSpec{Kind: KindVisible, observe: resolve}
}

// ParseTrigger maps a bare tag to a spec with default options.
func ParseTrigger(tag string) (TriggerSpec, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return TriggerSpec{}, fmt.Errorf("empty trigger tag")
	}
	return TriggerSpec{Kind: tag}, nil
}

// Duration returns the delay for a delay spec, applying the default.
func (s TriggerSpec) Duration() time.Duration {
	if !s.hasDelay {
		return DefaultDelay
	}
	return s.delay
}

func (s TriggerSpec) String() string {
	switch {
	case s.Kind == KindDelay:
		return fmt.Sprintf("delay(%s)", s.Duration())
	case s.Kind == KindVisible && s.observe != nil:
		return "visible(custom)"
	case s.target != nil:
		return s.Kind + "(custom target)"
	default:
		return s.Kind
	}
}
