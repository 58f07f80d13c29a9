package engine

import (
	"sync/atomic"
	"time"

	"github.com/go-drift/ondemand/pkg/host"
)

// loopTimer is a runtime timer whose callback is dispatched onto the loop.
// done is set when the timer is stopped or its callback starts, so a
// callback already sitting in the dispatch queue is dropped by Stop.
type loopTimer struct {
	t    *time.Timer
	done atomic.Bool
}

func (lt *loopTimer) Stop() bool {
	lt.t.Stop()
	return lt.done.CompareAndSwap(false, true)
}

// AfterFunc implements host.Timers. f runs on the loop goroutine.
func (e *Engine) AfterFunc(d time.Duration, f func()) host.Timer {
	lt := &loopTimer{}
	lt.t = time.AfterFunc(d, func() {
		e.Dispatch(func() {
			if lt.done.CompareAndSwap(false, true) {
				f()
			}
		})
	})
	return lt
}
