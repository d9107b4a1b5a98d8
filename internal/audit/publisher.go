package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Publisher captures structured audit events. It is append-only and uses the
// storage layer for persistence so tests can swap sinks easily. When an
// outbox channel is configured, each event is also handed to the background
// worker for external delivery; a full channel drops the hand-off rather
// than blocking a ledger mutation (the store copy is authoritative).
type Publisher struct {
	store  Store
	outbox chan<- Event
	logger *slog.Logger
}

type PublisherOption func(p *Publisher)

func WithOutbox(outbox chan<- Event) PublisherOption {
	return func(p *Publisher) {
		p.outbox = outbox
	}
}

func WithLogger(logger *slog.Logger) PublisherOption {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func NewPublisher(store Store, opts ...PublisherOption) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if err := p.store.Append(ctx, event); err != nil {
		return err
	}
	if p.outbox != nil {
		select {
		case p.outbox <- event:
		default:
			if p.logger != nil {
				p.logger.WarnContext(ctx, "audit outbox full, event not forwarded",
					"action", event.Action, "event_id", event.ID)
			}
		}
	}
	return nil
}

func (p *Publisher) List(ctx context.Context, account string) ([]Event, error) {
	return p.store.ListByAccount(ctx, account)
}
