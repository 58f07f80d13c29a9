package hydration

import (
	"sync"

	"github.com/go-drift/ondemand/pkg/errors"
)

// ReleaseHandle undoes exactly one arming action.
type ReleaseHandle func()

// Once wraps f so that only the first call runs it.
func Once(f func()) ReleaseHandle {
	if f == nil {
		return func() {}
	}
	var once sync.Once
	return func() { once.Do(f) }
}

// noopHandle is registered by triggers that armed nothing.
func noopHandle() ReleaseHandle { return func() {} }

// Registry is an ordered collection of release handles.
type Registry struct {
	mu      sync.Mutex
	handles []ReleaseHandle
}

// Add appends h. Handles are made idempotent on insertion.
func (r *Registry) Add(h ReleaseHandle) {
	if h == nil {
		return
	}
	r.mu.Lock()
	r.handles = append(r.handles, Once(h))
	r.mu.Unlock()
}

// Len returns the number of outstanding handles.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handles)
}

// Release empties the registry and then invokes every handle in
// registration order. It returns the number of handles invoked.
// A panicking handle is reported and does not stop the rest.
func (r *Registry) Release() int {
	r.mu.Lock()
	handles := r.handles
	r.handles = nil
	r.mu.Unlock()

	for _, h := range handles {
		release(h)
	}
	return len(handles)
}

func release(h ReleaseHandle) {
	defer errors.Recover("hydration.Release")
	h()
}
