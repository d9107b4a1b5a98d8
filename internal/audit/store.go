package audit

import "context"

// Store persists audit events. Append-only; events are never updated or
// deleted by the ledger.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByAccount(ctx context.Context, account string) ([]Event, error)
}

// Sink receives events for delivery to an external system (Kafka). A sink
// failure never fails the ledger operation that produced the event.
type Sink interface {
	Publish(ctx context.Context, event Event) error
}
