package record

import "context"

// Store abstracts persistence of record processing state.
type Store interface {
	Create(ctx context.Context, rec *Record) error
	Get(ctx context.Context, id string) (*Record, error)
	Claim(ctx context.Context, id string) (*Record, error)
	MarkProcessed(ctx context.Context, id string, data map[string]any) error
	// MarkFailed records a processing failure. Terminal failures move the
	// record to the dead-lettered state; non-terminal ones return it to
	// pending so a requeued delivery can claim it again.
	MarkFailed(ctx context.Context, id string, code string, lastError string, terminal bool) error
	List(ctx context.Context, limit int) ([]*Record, error)
	Close() error
}
