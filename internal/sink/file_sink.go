package sink

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"StreamForge/pkg/deadletter"
)

// FileSink appends failure records as JSON lines to a local file, one
// document per record, so they can be inspected and replayed later.
type FileSink struct {
	mu   sync.Mutex
	path string
}

// NewFileSink creates a FileSink writing to path, creating parent
// directories as needed.
func NewFileSink(path string) (*FileSink, error) {
	if path == "" {
		return nil, fmt.Errorf("dead-letter file path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create dead-letter directory: %w", err)
	}
	return &FileSink{path: path}, nil
}

// Write implements deadletter.Sink.
func (s *FileSink) Write(_ context.Context, record deadletter.Record) error {
	encoded, err := Encode(record)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open dead-letter file: %w", err)
	}
	defer file.Close()

	if _, err := file.Write(append(encoded, '\n')); err != nil {
		return fmt.Errorf("write dead-letter file: %w", err)
	}
	return nil
}

// Load reads back every envelope in the file, oldest first.
func (s *FileSink) Load() ([]Envelope, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open dead-letter file: %w", err)
	}
	defer file.Close()

	var envelopes []Envelope
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		env, err := Decode(line)
		if err != nil {
			return nil, err
		}
		envelopes = append(envelopes, env)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read dead-letter file: %w", err)
	}
	return envelopes, nil
}

// ListLatest returns the most recently appended envelopes, newest first.
func (s *FileSink) ListLatest(_ context.Context, limit int) ([]Envelope, error) {
	envelopes, err := s.Load()
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(envelopes)-1; i < j; i, j = i+1, j-1 {
		envelopes[i], envelopes[j] = envelopes[j], envelopes[i]
	}
	if limit > 0 && len(envelopes) > limit {
		envelopes = envelopes[:limit]
	}
	return envelopes, nil
}

var _ deadletter.Sink = (*FileSink)(nil)
