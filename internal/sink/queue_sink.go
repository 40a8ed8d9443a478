package sink

import (
	"context"

	"StreamForge/internal/record"
	"StreamForge/pkg/deadletter"
)

// QueueSink publishes failure records to a message queue, typically Redis or
// RabbitMQ, so a separate consumer can persist or replay them.
type QueueSink struct {
	producer record.Producer
}

// NewQueueSink wraps an existing queue producer.
func NewQueueSink(producer record.Producer) *QueueSink {
	return &QueueSink{producer: producer}
}

// Write implements deadletter.Sink.
func (s *QueueSink) Write(ctx context.Context, rec deadletter.Record) error {
	encoded, err := Encode(rec)
	if err != nil {
		return err
	}
	return s.producer.Publish(ctx, string(encoded))
}

// Close releases the underlying producer.
func (s *QueueSink) Close() error {
	if s == nil || s.producer == nil {
		return nil
	}
	return s.producer.Close()
}

var _ deadletter.Sink = (*QueueSink)(nil)
