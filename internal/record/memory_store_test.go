package record

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	rec := &Record{
		ID:           "r1",
		PipelineName: "telemetry-main",
		Data:         map[string]any{"latency": "3.14"},
		Status:       StatusPending,
		MaxRetries:   3,
	}
	if err := store.Create(ctx, rec); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Create(ctx, rec); !errors.Is(err, ErrRecordConflict) {
		t.Fatalf("duplicate create: expected conflict, got %v", err)
	}

	claimed, err := store.Claim(ctx, "r1")
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if claimed.Status != StatusRunning || claimed.Attempts != 1 {
		t.Fatalf("unexpected claimed record: %+v", claimed)
	}

	if _, err := store.Claim(ctx, "r1"); !errors.Is(err, ErrRecordConflict) {
		t.Fatalf("claim while running: expected conflict, got %v", err)
	}

	coerced := map[string]any{"latency": 3.14}
	if err := store.MarkProcessed(ctx, "r1", coerced); err != nil {
		t.Fatalf("mark processed: %v", err)
	}
	got, err := store.Get(ctx, "r1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != StatusProcessed {
		t.Fatalf("status: got %s want %s", got.Status, StatusProcessed)
	}
	if got.Data["latency"] != 3.14 {
		t.Fatalf("coerced data not stored: %+v", got.Data)
	}

	if _, err := store.Claim(ctx, "r1"); !errors.Is(err, ErrRecordProcessed) {
		t.Fatalf("claim processed record: expected ErrRecordProcessed, got %v", err)
	}
}

func TestMemoryStoreDeadLetterTransition(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	rec := &Record{ID: "r1", PipelineName: "p", Status: StatusPending, MaxRetries: 1}
	if err := store.Create(ctx, rec); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := store.Claim(ctx, "r1"); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if err := store.MarkFailed(ctx, "r1", string(CodeRecordCoercion), "field latency: unparseable literal", true); err != nil {
		t.Fatalf("mark deadlettered: %v", err)
	}

	got, err := store.Get(ctx, "r1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != StatusDeadLettered {
		t.Fatalf("status: got %s", got.Status)
	}
	if got.ErrorCode != string(CodeRecordCoercion) || got.LastError == "" {
		t.Fatalf("failure metadata missing: %+v", got)
	}

	// Attempts are exhausted, so the record cannot be claimed again.
	if _, err := store.Claim(ctx, "r1"); !errors.Is(err, ErrRecordExhausted) {
		t.Fatalf("expected ErrRecordExhausted, got %v", err)
	}
}

func TestMemoryStoreNonTerminalFailureReopensRecord(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	rec := &Record{ID: "r1", PipelineName: "p", Status: StatusPending, MaxRetries: 3}
	if err := store.Create(ctx, rec); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := store.Claim(ctx, "r1"); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if err := store.MarkFailed(ctx, "r1", string(CodeDeadLetterWrite), "sink unavailable", false); err != nil {
		t.Fatalf("mark failed: %v", err)
	}

	got, err := store.Get(ctx, "r1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != StatusPending {
		t.Fatalf("status: got %s want %s", got.Status, StatusPending)
	}

	claimed, err := store.Claim(ctx, "r1")
	if err != nil {
		t.Fatalf("reclaim: %v", err)
	}
	if claimed.Attempts != 2 {
		t.Fatalf("attempts: got %d want 2", claimed.Attempts)
	}
}

func TestMemoryStoreGetReturnsCopy(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Create(ctx, &Record{ID: "r1", Status: StatusPending, MaxRetries: 3, Data: map[string]any{"k": "v"}}); err != nil {
		t.Fatalf("create: %v", err)
	}
	first, err := store.Get(ctx, "r1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	first.Data["k"] = "mutated"

	second, err := store.Get(ctx, "r1")
	if err != nil {
		t.Fatalf("get again: %v", err)
	}
	if second.Data["k"] != "v" {
		t.Fatal("store returned a shared data map")
	}
}

func TestMemoryStoreList(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		if err := store.Create(ctx, &Record{ID: id, Status: StatusPending, MaxRetries: 3}); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}
	all, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 records, got %d", len(all))
	}
	limited, err := store.List(ctx, 2)
	if err != nil {
		t.Fatalf("list limited: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("expected 2 records, got %d", len(limited))
	}
}
