package record

import (
	"context"
)

// Handler processes one payload delivered by a queue. Payloads are opaque to
// the queue: the ingest path publishes record IDs, the dead-letter path
// publishes serialized failure records.
type Handler func(ctx context.Context, payload string) error

// Producer publishes payloads to a queue.
type Producer interface {
	Publish(ctx context.Context, payload string) error
	Close() error
}

// Consumer consumes payloads from a queue.
type Consumer interface {
	Consume(ctx context.Context, workerCount int, handler Handler) error
	Close() error
}

// Queue combines producer and consumer capabilities.
type Queue interface {
	Producer
	Consumer
}
