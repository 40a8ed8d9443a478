package pipeline

import (
	"context"
	stdErrors "errors"
	"fmt"
	"log/slog"
	"time"

	xerrors "StreamForge/internal/errors"
	"StreamForge/internal/observability/alerting"
	"StreamForge/internal/record"
	"StreamForge/pkg/deadletter"
	"StreamForge/pkg/logger"
)

// Processor consumes record IDs from the queue, applies field coercion and
// routes failures to the dead-letter sink.
type Processor struct {
	mapper      *FieldMapper
	store       record.Store
	consumer    record.Consumer
	producer    record.Producer
	sink        deadletter.Sink
	workerCount int
	pluginID    string
	pluginName  string
	logger      *slog.Logger
	alerter     alerting.Dispatcher
}

// ProcessorOption customizes a Processor.
type ProcessorOption func(*Processor)

// WithProcessorLogger sets the debug logger.
func WithProcessorLogger(logger *slog.Logger) ProcessorOption {
	return func(p *Processor) {
		p.logger = logger
	}
}

// WithWorkerCount sets the number of consumer goroutines.
func WithWorkerCount(workers int) ProcessorOption {
	return func(p *Processor) {
		if workers > 0 {
			p.workerCount = workers
		}
	}
}

// WithAlertDispatcher sets the alert dispatcher.
func WithAlertDispatcher(dispatcher alerting.Dispatcher) ProcessorOption {
	return func(p *Processor) {
		p.alerter = dispatcher
	}
}

// WithPluginIdentity sets the identity stamped onto dead-letter records
// produced by this processor.
func WithPluginIdentity(id, name string) ProcessorOption {
	return func(p *Processor) {
		if id != "" {
			p.pluginID = id
		}
		if name != "" {
			p.pluginName = name
		}
	}
}

// NewProcessor constructs a Processor.
func NewProcessor(mapper *FieldMapper, store record.Store, consumer record.Consumer, producer record.Producer, sink deadletter.Sink, opts ...ProcessorOption) *Processor {
	p := &Processor{
		mapper:      mapper,
		store:       store,
		consumer:    consumer,
		producer:    producer,
		sink:        sink,
		workerCount: 1,
		pluginID:    "field-mapper",
		pluginName:  "field-mapper",
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	if p.workerCount <= 0 {
		p.workerCount = 1
	}
	return p
}

// Start runs the consume loop until ctx is cancelled.
func (p *Processor) Start(ctx context.Context) error {
	if p.consumer == nil {
		return xerrors.New(xerrors.CodeInitializationFailure, "record consumer not configured")
	}
	return p.consumer.Consume(ctx, p.workerCount, p.handle)
}

func (p *Processor) handle(ctx context.Context, recordID string) error {
	if p.store == nil {
		return xerrors.New(xerrors.CodeInitializationFailure, "processor not initialized")
	}
	rec, err := p.store.Claim(ctx, recordID)
	if err != nil {
		if stdErrors.Is(err, record.ErrRecordNotFound) || stdErrors.Is(err, record.ErrRecordProcessed) || stdErrors.Is(err, record.ErrRecordExhausted) {
			p.logDebug("skipping record", slog.String("record_id", recordID), slog.String("reason", err.Error()))
			return nil
		}
		logger.L().Error("failed to claim record", slog.Any("error", err), slog.String("record_id", recordID))
		p.emitAlert(ctx, &record.Record{ID: recordID}, xerrors.CodeStorageFailure, err, "claim")
		return err
	}

	coerced, coerceErr := p.mapper.Apply(rec.Data)
	if coerceErr != nil {
		return p.handleCoercionFailure(ctx, rec, coerceErr)
	}

	if err := p.store.MarkProcessed(ctx, rec.ID, coerced); err != nil {
		logger.L().Error("failed to mark record processed", slog.Any("error", err), slog.String("record_id", rec.ID))
		return err
	}
	logger.Audit().Info("record processed",
		slog.String("record_id", rec.ID),
		slog.String("pipeline", rec.PipelineName),
	)
	return nil
}

// handleCoercionFailure dead-letters the record. Coercion failures are never
// retried: the same input produces the same failure, so the record goes
// straight to the sink with its original, uncoerced data.
func (p *Processor) handleCoercionFailure(ctx context.Context, rec *record.Record, coerceErr error) error {
	failure, buildErr := deadletter.NewBuilder().
		WithPluginID(p.pluginID).
		WithPluginName(p.pluginName).
		WithPipelineName(rec.PipelineName).
		WithFailedData(rec.Data).
		Build()
	if buildErr != nil {
		return xerrors.Wrap(record.CodeDeadLetterWrite, buildErr, fmt.Sprintf("record %s: build dead-letter record", rec.ID))
	}

	if p.sink != nil {
		if sinkErr := p.sink.Write(ctx, failure); sinkErr != nil {
			return p.handleSinkFailure(ctx, rec, sinkErr)
		}
	}

	if storeErr := p.store.MarkFailed(ctx, rec.ID, string(record.CodeRecordCoercion), coerceErr.Error(), true); storeErr != nil {
		logger.L().Error("failed to mark record dead-lettered", slog.Any("error", storeErr), slog.String("record_id", rec.ID))
		return storeErr
	}

	logger.Audit().Warn("record dead-lettered",
		slog.String("record_id", rec.ID),
		slog.String("pipeline", rec.PipelineName),
		slog.String("error", coerceErr.Error()),
		slog.String("error_code", string(record.CodeRecordCoercion)),
		slog.Int("attempts", rec.Attempts),
		slog.Int("max_retries", rec.MaxRetries),
	)
	p.emitAlert(ctx, rec, record.CodeRecordCoercion, coerceErr, "deadletter")
	return nil
}

// handleSinkFailure requeues the record so the dead-letter write is retried,
// until attempts run out.
func (p *Processor) handleSinkFailure(ctx context.Context, rec *record.Record, sinkErr error) error {
	terminal := rec.Attempts >= rec.MaxRetries

	logger.Audit().Warn("dead-letter write failed",
		slog.String("record_id", rec.ID),
		slog.String("pipeline", rec.PipelineName),
		slog.Bool("terminal", terminal),
		slog.String("error", sinkErr.Error()),
		slog.Int("attempts", rec.Attempts),
		slog.Int("max_retries", rec.MaxRetries),
	)

	if terminal {
		if storeErr := p.store.MarkFailed(ctx, rec.ID, string(record.CodeDeadLetterWrite), sinkErr.Error(), true); storeErr != nil {
			logger.L().Error("failed to mark record dead-lettered", slog.Any("error", storeErr), slog.String("record_id", rec.ID))
			return storeErr
		}
		p.emitAlert(ctx, rec, record.CodeDeadLetterWrite, sinkErr, "terminal")
		return nil
	}

	if storeErr := p.store.MarkFailed(ctx, rec.ID, string(record.CodeDeadLetterWrite), sinkErr.Error(), false); storeErr != nil {
		logger.L().Error("failed to reopen record for retry", slog.Any("error", storeErr), slog.String("record_id", rec.ID))
		return storeErr
	}
	p.emitAlert(ctx, rec, record.CodeDeadLetterWrite, sinkErr, "retry")
	if pubErr := p.producer.Publish(ctx, rec.ID); pubErr != nil {
		return xerrors.Wrap(record.CodeRecordPublish, pubErr, fmt.Sprintf("record %s: requeue after dead-letter write failure", rec.ID))
	}
	p.logDebug("record requeued", slog.String("record_id", rec.ID), slog.Int("attempts", rec.Attempts))
	return nil
}

func (p *Processor) logDebug(msg string, attrs ...slog.Attr) {
	if p.logger != nil {
		args := make([]any, len(attrs))
		for i, attr := range attrs {
			args[i] = attr
		}
		p.logger.Debug(msg, args...)
	}
}

func (p *Processor) emitAlert(ctx context.Context, rec *record.Record, code xerrors.Code, cause error, stage string) {
	if p == nil || p.alerter == nil || rec == nil {
		return
	}
	attrs := xerrors.AttributesOf(code)
	message := attrs.Message
	if cause != nil {
		message = cause.Error()
	}
	metadata := map[string]string{
		"stage": stage,
	}
	if cause != nil {
		metadata["cause"] = cause.Error()
	}
	event := alerting.Event{
		Code:         code,
		Message:      message,
		Severity:     attrs.Severity,
		PluginID:     p.pluginID,
		PluginName:   p.pluginName,
		PipelineName: rec.PipelineName,
		RecordID:     rec.ID,
		Attempts:     rec.Attempts,
		MaxRetries:   rec.MaxRetries,
		Metadata:     metadata,
		OccurredAt:   time.Now(),
	}
	if err := p.alerter.Notify(ctx, event); err != nil {
		logger.L().Error("failed to send alert",
			slog.Any("error", err),
			slog.String("record_id", rec.ID),
			slog.String("stage", stage),
		)
	}
}
