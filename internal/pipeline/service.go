package pipeline

import (
	"context"
	stdErrors "errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	xerrors "StreamForge/internal/errors"
	"StreamForge/internal/record"
	"StreamForge/pkg/logger"
)

// SubmitRequest carries one record into the pipeline.
type SubmitRequest struct {
	ID           string         `json:"id,omitempty"`
	PipelineName string         `json:"pipeline_name"`
	Data         map[string]any `json:"data"`
}

// Service creates and queries records.
type Service struct {
	store      record.Store
	producer   record.Producer
	maxRetries int
}

// NewService constructs the record service.
func NewService(store record.Store, producer record.Producer, maxRetries int) *Service {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &Service{store: store, producer: producer, maxRetries: maxRetries}
}

// Submit stores a new record and publishes its ID to the queue. Submitting
// an ID that already exists returns the existing record, so retried requests
// are idempotent.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*record.Record, error) {
	if strings.TrimSpace(req.PipelineName) == "" {
		return nil, xerrors.New(record.CodeRecordValidation, "pipeline name cannot be empty")
	}
	if len(req.Data) == 0 {
		return nil, xerrors.New(record.CodeRecordValidation, "record data cannot be empty")
	}
	if s.store == nil || s.producer == nil {
		return nil, xerrors.New(xerrors.CodeInitializationFailure, "record service not initialized")
	}

	recordID := strings.TrimSpace(req.ID)
	if recordID != "" {
		existing, err := s.store.Get(ctx, recordID)
		if err == nil {
			return existing, nil
		}
		if !stdErrors.Is(err, record.ErrRecordNotFound) {
			return nil, err
		}
	} else {
		recordID = uuid.NewString()
	}

	rec := &record.Record{
		ID:           recordID,
		PipelineName: req.PipelineName,
		Data:         req.Data,
		Status:       record.StatusPending,
		Attempts:     0,
		MaxRetries:   s.maxRetries,
	}
	if err := s.store.Create(ctx, rec); err != nil {
		if stdErrors.Is(err, record.ErrRecordConflict) {
			existing, getErr := s.store.Get(ctx, recordID)
			if getErr == nil {
				return existing, nil
			}
			if !stdErrors.Is(getErr, record.ErrRecordNotFound) {
				return nil, getErr
			}
		}
		return nil, err
	}
	if err := s.producer.Publish(ctx, recordID); err != nil {
		logger.L().Error("failed to enqueue record", slog.Any("error", err), slog.String("record_id", recordID))
		wrapped := xerrors.Wrap(record.CodeRecordPublish, err, "failed to publish record to queue")
		_ = s.store.MarkFailed(ctx, recordID, string(record.CodeRecordPublish), wrapped.Error(), true)
		return nil, wrapped
	}
	logger.Audit().Info("record enqueued",
		slog.String("record_id", recordID),
		slog.String("pipeline", rec.PipelineName),
		slog.Int("max_retries", rec.MaxRetries),
	)
	return rec, nil
}

// Get returns the record with the given ID.
func (s *Service) Get(ctx context.Context, id string) (*record.Record, error) {
	if s.store == nil {
		return nil, xerrors.New(xerrors.CodeInitializationFailure, "record store not initialized")
	}
	return s.store.Get(ctx, id)
}

// List returns the most recent records.
func (s *Service) List(ctx context.Context, limit int) ([]*record.Record, error) {
	if s.store == nil {
		return nil, xerrors.New(xerrors.CodeInitializationFailure, "record store not initialized")
	}
	return s.store.List(ctx, limit)
}

// Replay resubmits a dead-lettered record as a fresh record with a new ID
// and a full retry budget. The dead-lettered original is left in place for
// auditing.
func (s *Service) Replay(ctx context.Context, id string) (*record.Record, error) {
	if s.store == nil || s.producer == nil {
		return nil, xerrors.New(xerrors.CodeInitializationFailure, "record service not initialized")
	}
	original, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if original.Status != record.StatusDeadLettered {
		return nil, xerrors.New(record.CodeRecordConflict, "only dead-lettered records can be replayed")
	}
	replayed, err := s.Submit(ctx, SubmitRequest{
		PipelineName: original.PipelineName,
		Data:         original.Data,
	})
	if err != nil {
		return nil, err
	}
	logger.Audit().Info("record replayed",
		slog.String("record_id", replayed.ID),
		slog.String("source_record_id", id),
		slog.String("pipeline", replayed.PipelineName),
	)
	return replayed, nil
}

// Close releases the store and producer.
func (s *Service) Close() error {
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			return err
		}
	}
	if s.producer != nil {
		return s.producer.Close()
	}
	return nil
}
