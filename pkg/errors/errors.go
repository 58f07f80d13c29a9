// Package errors provides structured error handling for on-demand activation.
package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorKind identifies the category of an error.
type ErrorKind int

const (
	// KindUnknown indicates an error of unknown type.
	KindUnknown ErrorKind = iota
	// KindMisuse indicates a lifecycle ordering bug in the caller, such as
	// arming a trigger before the component has a root element.
	KindMisuse
	// KindHook indicates a failing BeforeActivate hook.
	KindHook
	// KindPanic indicates a recovered panic.
	KindPanic
	// KindConfig indicates an invalid configuration value.
	KindConfig
	// KindRender indicates a failing live render after activation.
	KindRender
)

func (k ErrorKind) String() string {
	switch k {
	case KindMisuse:
		return "misuse"
	case KindHook:
		return "hook"
	case KindPanic:
		return "panic"
	case KindConfig:
		return "config"
	case KindRender:
		return "render"
	default:
		return "unknown"
	}
}

// ErrNoTarget is returned when a trigger needs an element to attach to and
// none is available at arm time.
var ErrNoTarget = stderrors.New("no target element to arm against")

// ErrNotMounted is returned when an operation requires a mounted root.
var ErrNotMounted = stderrors.New("scheduler is not mounted")

// HydrationError represents a structured activation error.
type HydrationError struct {
	// Op is the operation that failed (e.g., "hydration.Activate").
	Op string
	// Kind categorizes the error.
	Kind ErrorKind
	// Trigger is the trigger kind involved, if any.
	Trigger string
	// Err is the underlying error.
	Err error
	// StackTrace contains the call stack at the time of the error.
	StackTrace string
	// Timestamp is when the error occurred.
	Timestamp time.Time
}

func (e *HydrationError) Error() string {
	if e.Trigger != "" {
		return fmt.Sprintf("%s [%s] trigger=%s: %v", e.Op, e.Kind, e.Trigger, e.Err)
	}
	return fmt.Sprintf("%s [%s]: %v", e.Op, e.Kind, e.Err)
}

func (e *HydrationError) Unwrap() error {
	return e.Err
}

// PanicError represents a recovered panic.
type PanicError struct {
	// Op is the operation that panicked (e.g., "hydration.BeforeActivate").
	Op string
	// Value is the value passed to panic().
	Value any
	// StackTrace contains the call stack at the time of the panic.
	StackTrace string
	// Timestamp is when the panic occurred.
	Timestamp time.Time
}

func (e *PanicError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("panic in %s: %v", e.Op, e.Value)
	}
	return fmt.Sprintf("panic: %v", e.Value)
}

// IsKind reports whether err is a HydrationError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var he *HydrationError
	if stderrors.As(err, &he) {
		return he.Kind == kind
	}
	return false
}

// ErrorHandler receives errors reported by the activation runtime.
type ErrorHandler interface {
	// HandleError is called when an error occurs with no caller to return it to.
	HandleError(err *HydrationError)
	// HandlePanic is called when a panic is recovered.
	HandlePanic(err *PanicError)
}
