package deadletter

import "context"

// Sink receives failure records for persistence or inspection outside the
// pipeline. The core never persists records itself; implementations decide
// whether a record lands in a queue, a file, a log, or a database.
type Sink interface {
	Write(ctx context.Context, record Record) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, record Record) error

// Write implements Sink.
func (f SinkFunc) Write(ctx context.Context, record Record) error {
	return f(ctx, record)
}
