package sink

import (
	"context"
	"sync"

	"StreamForge/pkg/deadletter"
)

// MemorySink keeps the most recent failure records in memory. Used for tests
// and for the inspection API on single-node deployments.
type MemorySink struct {
	mu      sync.RWMutex
	records []deadletter.Record
	limit   int
}

// NewMemorySink creates a sink retaining at most limit records.
func NewMemorySink(limit int) *MemorySink {
	if limit <= 0 {
		limit = 512
	}
	return &MemorySink{limit: limit}
}

// Write implements deadletter.Sink.
func (s *MemorySink) Write(_ context.Context, record deadletter.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append([]deadletter.Record{record}, s.records...)
	if len(s.records) > s.limit {
		s.records = s.records[:s.limit]
	}
	return nil
}

// List returns the retained records, newest first.
func (s *MemorySink) List(limit int) []deadletter.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 || limit > len(s.records) {
		limit = len(s.records)
	}
	out := make([]deadletter.Record, limit)
	copy(out, s.records[:limit])
	return out
}

// ListLatest returns retained records as envelopes, newest first.
func (s *MemorySink) ListLatest(_ context.Context, limit int) ([]Envelope, error) {
	records := s.List(limit)
	envelopes := make([]Envelope, len(records))
	for i, rec := range records {
		envelopes[i] = Enclose(rec)
	}
	return envelopes, nil
}

var _ deadletter.Sink = (*MemorySink)(nil)
