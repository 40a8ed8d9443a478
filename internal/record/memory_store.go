package record

import (
	"context"
	"sort"
	"sync"
	"time"

	xerrors "StreamForge/internal/errors"
)

// MemoryStore keeps record state in memory. Used for tests and single-node
// deployments.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Record
}

// NewMemoryStore creates a MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*Record)}
}

// Create implements Store.
func (m *MemoryStore) Create(_ context.Context, rec *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec == nil {
		return xerrors.New(xerrors.CodeInvalidArgument, "record cannot be nil")
	}
	if rec.ID == "" {
		return xerrors.New(xerrors.CodeInvalidArgument, "record id cannot be empty")
	}
	if _, ok := m.records[rec.ID]; ok {
		return ErrRecordConflict
	}
	now := time.Now().Unix()
	if rec.CreatedAt == 0 {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	m.records[rec.ID] = cloneRecord(rec)
	return nil
}

// Get returns a copy of the record.
func (m *MemoryStore) Get(_ context.Context, id string) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return cloneRecord(rec), nil
}

// Claim transitions the record to running, consuming one attempt.
func (m *MemoryStore) Claim(_ context.Context, id string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	switch rec.Status {
	case StatusProcessed:
		return cloneRecord(rec), ErrRecordProcessed
	case StatusRunning:
		return cloneRecord(rec), ErrRecordConflict
	}
	if rec.Attempts >= rec.MaxRetries {
		return cloneRecord(rec), ErrRecordExhausted
	}
	rec.Status = StatusRunning
	rec.Attempts++
	rec.LastError = ""
	rec.ErrorCode = ""
	rec.UpdatedAt = time.Now().Unix()
	return cloneRecord(rec), nil
}

// MarkProcessed stores the coerced field values and completes the record.
func (m *MemoryStore) MarkProcessed(_ context.Context, id string, data map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return ErrRecordNotFound
	}
	rec.Status = StatusProcessed
	if data != nil {
		rec.Data = cloneData(data)
	}
	rec.LastError = ""
	rec.ErrorCode = ""
	rec.UpdatedAt = time.Now().Unix()
	return nil
}

// MarkFailed records a failure, either dead-lettering the record or
// returning it to pending for another attempt.
func (m *MemoryStore) MarkFailed(_ context.Context, id string, code string, lastError string, terminal bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return ErrRecordNotFound
	}
	if terminal {
		rec.Status = StatusDeadLettered
	} else {
		rec.Status = StatusPending
	}
	rec.LastError = lastError
	rec.ErrorCode = code
	rec.UpdatedAt = time.Now().Unix()
	return nil
}

// List returns the most recently updated records.
func (m *MemoryStore) List(_ context.Context, limit int) ([]*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	results := make([]*Record, 0, len(m.records))
	for _, rec := range m.records {
		results = append(results, cloneRecord(rec))
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].UpdatedAt == results[j].UpdatedAt {
			return results[i].ID < results[j].ID
		}
		return results[i].UpdatedAt > results[j].UpdatedAt
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Close implements Store. The memory store has nothing to release.
func (m *MemoryStore) Close() error {
	return nil
}

func cloneRecord(rec *Record) *Record {
	clone := *rec
	clone.Data = cloneData(rec.Data)
	return &clone
}

// ensure interface compliance at compile time
var _ Store = (*MemoryStore)(nil)
