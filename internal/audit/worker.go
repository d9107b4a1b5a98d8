package audit

import (
	"context"
	"log/slog"
)

// Worker consumes audit events from the publisher's outbox channel and
// forwards them to an external sink. Delivery failures are logged and the
// event skipped: the store copy written by the publisher stays the source
// of truth, and the sink is observability fan-out only.
type Worker struct {
	sink   Sink
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(sink Sink, inbox <-chan Event, logger *slog.Logger) *Worker {
	return &Worker{sink: sink, inbox: inbox, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.sink.Publish(ctx, event); err != nil {
				if w.logger != nil {
					w.logger.ErrorContext(ctx, "audit sink publish failed",
						"error", err, "action", event.Action, "event_id", event.ID)
				}
			}
		}
	}
}
