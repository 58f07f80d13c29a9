package errors

import (
	"fmt"
	"runtime"
	"strings"
	"sync/atomic"
	"time"
)

// handlerSlot boxes the interface so it fits an atomic.Pointer.
type handlerSlot struct{ h ErrorHandler }

var current atomic.Pointer[handlerSlot]

func init() {
	current.Store(&handlerSlot{h: NewLogHandler(nil)})
}

// Handler returns the global error handler. Until SetHandler is called it is
// a LogHandler writing to stderr.
func Handler() ErrorHandler {
	return current.Load().h
}

// SetHandler installs h as the global handler and returns the previous one.
// Nil installs a fresh LogHandler.
//
//	prev := errors.SetHandler(rec)
//	t.Cleanup(func() { errors.SetHandler(prev) })
func SetHandler(h ErrorHandler) ErrorHandler {
	if h == nil {
		h = NewLogHandler(nil)
	}
	return current.Swap(&handlerSlot{h: h}).h
}

// Report sends an error to the global handler, stamping it if needed.
func Report(err *HydrationError) {
	if err == nil {
		return
	}
	if err.Timestamp.IsZero() {
		err.Timestamp = time.Now()
	}
	Handler().HandleError(err)
}

// ReportPanic sends a panic error to the global handler.
func ReportPanic(err *PanicError) {
	if err == nil {
		return
	}
	if err.Timestamp.IsZero() {
		err.Timestamp = time.Now()
	}
	Handler().HandlePanic(err)
}

// Recover reports a panic in the calling goroutine. It must be deferred
// directly:
//
//	defer errors.Recover("engine.dispatch")
func Recover(op string) {
	if r := recover(); r != nil {
		reportRecovered(op, r)
	}
}

// RecoverWithCallback is Recover followed by callback(r) when a panic was
// caught.
func RecoverWithCallback(op string, callback func(r any)) {
	r := recover()
	if r == nil {
		return
	}
	reportRecovered(op, r)
	if callback != nil {
		callback(r)
	}
}

func reportRecovered(op string, r any) {
	// Skip reportRecovered, the deferred Recover and runtime.gopanic.
	ReportPanic(&PanicError{
		Op:         op,
		Value:      r,
		StackTrace: stackFrom(3),
		Timestamp:  time.Now(),
	})
}

// CaptureStack formats the call stack starting at its caller.
func CaptureStack() string {
	return stackFrom(1)
}

// stackFrom formats up to 32 frames of the stack of its caller, dropping the
// innermost skip frames.
func stackFrom(skip int) string {
	var pcs [32]uintptr
	n := runtime.Callers(skip+2, pcs[:])
	if n == 0 {
		return ""
	}
	var sb strings.Builder
	frames := runtime.CallersFrames(pcs[:n])
	for more := true; more; {
		var f runtime.Frame
		f, more = frames.Next()
		fmt.Fprintf(&sb, "%s\n\t%s:%d\n", f.Function, f.File, f.Line)
	}
	return sb.String()
}
