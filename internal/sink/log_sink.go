package sink

import (
	"context"
	"log/slog"

	"StreamForge/pkg/deadletter"
	"StreamForge/pkg/logger"
)

// LogSink writes every failure record to the structured audit logger.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a LogSink. A nil logger falls back to the process audit
// logger.
func NewLogSink(log *slog.Logger) *LogSink {
	if log == nil {
		log = logger.Audit()
	}
	return &LogSink{logger: log}
}

// Write implements deadletter.Sink.
func (s *LogSink) Write(_ context.Context, record deadletter.Record) error {
	s.logger.Warn("record dead-lettered",
		slog.String("plugin_id", record.PluginID()),
		slog.String("plugin_name", record.PluginName()),
		slog.String("pipeline", record.PipelineName()),
		slog.String("timestamp", record.Timestamp()),
		slog.String("schema_version", record.Schema()),
		slog.Any("failed_data", record.FailedData()),
	)
	return nil
}

var _ deadletter.Sink = (*LogSink)(nil)
