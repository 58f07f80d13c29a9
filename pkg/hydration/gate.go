package hydration

import "github.com/go-drift/ondemand/pkg/host"

// InputGate samples the host input-responsiveness probe.
type InputGate struct {
	probe    host.InputProbe
	fallback bool
}

// NewInputGate creates a gate over probe. When probe is nil the gate always
// reports fallback.
func NewInputGate(probe host.InputProbe, fallback bool) *InputGate {
	return &InputGate{probe: probe, fallback: fallback}
}

// IsInputPending reports whether user input is waiting to be handled.
func (g *InputGate) IsInputPending() bool {
	if g.probe == nil {
		return g.fallback
	}
	return g.probe.IsInputPending()
}
