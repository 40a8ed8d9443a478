package sink

import (
	"context"

	"StreamForge/pkg/deadletter"
)

// EnvelopeStore persists dead-letter envelopes to durable storage.
type EnvelopeStore interface {
	Save(ctx context.Context, env Envelope) error
	Close() error
}

// StoreSink writes failed records through an EnvelopeStore so they survive
// process restarts.
type StoreSink struct {
	store EnvelopeStore
}

func NewStoreSink(store EnvelopeStore) *StoreSink {
	return &StoreSink{store: store}
}

func (s *StoreSink) Write(ctx context.Context, rec deadletter.Record) error {
	return s.store.Save(ctx, Enclose(rec))
}

func (s *StoreSink) Close() error {
	return s.store.Close()
}
