package sink

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"StreamForge/internal/record"
	"StreamForge/pkg/deadletter"
)

func buildRecord(t *testing.T, pluginID string) deadletter.Record {
	t.Helper()

	rec, err := deadletter.NewBuilder().
		WithPluginID(pluginID).
		WithPluginName("mapper").
		WithPipelineName("ingest").
		WithFailedData(map[string]any{"value": "abc"}).
		WithClock(func() time.Time {
			return time.Date(2026, 8, 26, 10, 30, 15, 250_000_000, time.UTC)
		}).
		Build()
	if err != nil {
		t.Fatalf("build record failed: %v", err)
	}
	return rec
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	t.Parallel()

	rec := buildRecord(t, "plugin-1")
	encoded, err := Encode(rec)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	env, err := Decode(encoded)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if env.PluginID != "plugin-1" || env.PipelineName != "ingest" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
	if env.SchemaVersion != deadletter.SchemaVersion {
		t.Fatalf("unexpected schema version: %s", env.SchemaVersion)
	}
	if env.Timestamp != rec.Timestamp() {
		t.Fatalf("timestamp changed in transit: %s vs %s", env.Timestamp, rec.Timestamp())
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	t.Parallel()

	if _, err := Decode([]byte("{not json")); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestMemorySinkRetention(t *testing.T) {
	t.Parallel()

	s := NewMemorySink(2)
	ctx := context.Background()
	for _, id := range []string{"p1", "p2", "p3"} {
		if err := s.Write(ctx, buildRecord(t, id)); err != nil {
			t.Fatalf("write failed: %v", err)
		}
	}

	list := s.List(0)
	if len(list) != 2 {
		t.Fatalf("expected 2 retained records, got %d", len(list))
	}
	if list[0].PluginID() != "p3" || list[1].PluginID() != "p2" {
		t.Fatalf("expected newest first, got %s then %s", list[0].PluginID(), list[1].PluginID())
	}

	if got := s.List(1); len(got) != 1 || got[0].PluginID() != "p3" {
		t.Fatalf("unexpected limited list: %+v", got)
	}
}

func TestFileSinkRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "dlq", "records.jsonl")
	s, err := NewFileSink(path)
	if err != nil {
		t.Fatalf("create file sink failed: %v", err)
	}

	ctx := context.Background()
	if err := s.Write(ctx, buildRecord(t, "p1")); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := s.Write(ctx, buildRecord(t, "p2")); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	envelopes, err := s.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(envelopes) != 2 {
		t.Fatalf("expected 2 envelopes, got %d", len(envelopes))
	}
	if envelopes[0].PluginID != "p1" || envelopes[1].PluginID != "p2" {
		t.Fatalf("unexpected order: %+v", envelopes)
	}
}

func TestFileSinkLoadMissingFile(t *testing.T) {
	t.Parallel()

	s, err := NewFileSink(filepath.Join(t.TempDir(), "never-written.jsonl"))
	if err != nil {
		t.Fatalf("create file sink failed: %v", err)
	}
	envelopes, err := s.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(envelopes) != 0 {
		t.Fatalf("expected no envelopes, got %d", len(envelopes))
	}
}

func TestFileSinkRejectsEmptyPath(t *testing.T) {
	t.Parallel()

	if _, err := NewFileSink(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestQueueSinkPublishes(t *testing.T) {
	t.Parallel()

	queue := record.NewMemoryQueue(4)
	s := NewQueueSink(queue)

	if err := s.Write(context.Background(), buildRecord(t, "p1")); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	payloads := make(chan string, 1)
	go queue.Consume(ctx, 1, func(_ context.Context, payload string) error {
		payloads <- payload
		cancel()
		return nil
	})

	select {
	case payload := <-payloads:
		env, err := Decode([]byte(payload))
		if err != nil {
			t.Fatalf("decode published payload failed: %v", err)
		}
		if env.PluginID != "p1" {
			t.Fatalf("unexpected envelope: %+v", env)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for published record")
	}
}

type recordingStore struct {
	saved  []Envelope
	closed bool
}

func (s *recordingStore) Save(_ context.Context, env Envelope) error {
	s.saved = append(s.saved, env)
	return nil
}

func (s *recordingStore) Close() error {
	s.closed = true
	return nil
}

func TestStoreSinkSavesEnvelope(t *testing.T) {
	t.Parallel()

	store := &recordingStore{}
	s := NewStoreSink(store)

	if err := s.Write(context.Background(), buildRecord(t, "p1")); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if len(store.saved) != 1 || store.saved[0].PluginID != "p1" {
		t.Fatalf("unexpected saved envelopes: %+v", store.saved)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if !store.closed {
		t.Fatalf("expected store to be closed")
	}
}

func TestLogSinkWrites(t *testing.T) {
	t.Parallel()

	s := NewLogSink(nil)
	if err := s.Write(context.Background(), buildRecord(t, "p1")); err != nil {
		t.Fatalf("write failed: %v", err)
	}
}
