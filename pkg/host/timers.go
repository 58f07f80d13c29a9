package host

import "time"

// SystemTimers schedules callbacks with the runtime timer. Callbacks run on
// their own goroutine; hosts with a UI thread should wrap them with a
// dispatcher instead (see the engine package).
type SystemTimers struct{}

// AfterFunc implements Timers.
func (SystemTimers) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
