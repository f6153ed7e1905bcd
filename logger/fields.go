package logger

import (
	"log/slog"
)

// Component tags a record with the subsystem that emitted it.
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Operation tags a record with the failing or running operation.
func Operation(op string) slog.Attr {
	return slog.String("operation", op)
}

// ErrorField renders err under the "error" key; nil renders as "<nil>".
func ErrorField(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.String("error", err.Error())
}
