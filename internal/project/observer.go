package project

import (
	"context"
	"log/slog"
	"time"
)

// Event captures execution telemetry for one session operation.
type Event struct {
	Operation string
	StartedAt time.Time
	Duration  time.Duration
	Success   bool
	Err       error
	Fields    map[string]any
}

// Observer receives session operation events.
type Observer interface {
	ObserveOperation(ctx context.Context, event Event)
}

// NoopObserver ignores all events.
type NoopObserver struct{}

func (NoopObserver) ObserveOperation(context.Context, Event) {}

type logObserver struct {
	logger *slog.Logger
}

// NewLogObserver writes one session_operation record per event to logger.
func NewLogObserver(logger *slog.Logger) Observer {
	if logger == nil {
		return NoopObserver{}
	}
	return &logObserver{logger: logger}
}

func (o *logObserver) ObserveOperation(ctx context.Context, event Event) {
	attrs := make([]any, 0, 8+len(event.Fields)*2)
	attrs = append(attrs,
		"operation", event.Operation,
		"duration_ms", event.Duration.Milliseconds(),
		"success", event.Success,
	)
	for k, v := range event.Fields {
		attrs = append(attrs, k, v)
	}
	if event.Err != nil {
		attrs = append(attrs, "error", event.Err.Error())
		o.logger.ErrorContext(ctx, "session_operation", attrs...)
		return
	}
	o.logger.InfoContext(ctx, "session_operation", attrs...)
}
