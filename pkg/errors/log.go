package errors

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// LogHandler is an ErrorHandler that writes structured log events.
type LogHandler struct {
	// Verbose enables stack traces in the output.
	Verbose bool

	logger zerolog.Logger
}

// NewLogHandler creates a LogHandler writing human-readable lines to w.
// A nil writer logs to stderr.
func NewLogHandler(w io.Writer) *LogHandler {
	if w == nil {
		w = os.Stderr
	}
	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
		NoColor:    true,
	}
	return &LogHandler{
		logger: zerolog.New(output).With().Timestamp().Str("component", "ondemand").Logger(),
	}
}

// NewLoggerHandler wraps an existing zerolog logger.
func NewLoggerHandler(logger zerolog.Logger) *LogHandler {
	return &LogHandler{logger: logger}
}

// HandleError logs a HydrationError.
func (h *LogHandler) HandleError(err *HydrationError) {
	if err == nil {
		return
	}
	ev := h.logger.Error().
		Str("op", err.Op).
		Str("kind", err.Kind.String()).
		Err(err.Err)
	if err.Trigger != "" {
		ev = ev.Str("trigger", err.Trigger)
	}
	if h.Verbose && err.StackTrace != "" {
		ev = ev.Str("stack", err.StackTrace)
	}
	ev.Msg("activation error")
}

// HandlePanic logs a PanicError.
func (h *LogHandler) HandlePanic(err *PanicError) {
	if err == nil {
		return
	}
	ev := h.logger.Error().Interface("value", err.Value)
	if err.Op != "" {
		ev = ev.Str("op", err.Op)
	}
	if h.Verbose && err.StackTrace != "" {
		ev = ev.Str("stack", err.StackTrace)
	}
	ev.Msg("recovered panic")
}
