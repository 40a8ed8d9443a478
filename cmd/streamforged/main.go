package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"StreamForge/internal/api"
	"StreamForge/internal/config"
	"StreamForge/internal/observability/alerting"
	"StreamForge/internal/pipeline"
	"StreamForge/internal/record"
	"StreamForge/internal/sink"
	"StreamForge/internal/storage/mysql"
	"StreamForge/pkg/deadletter"
	"StreamForge/pkg/logger"
	"StreamForge/pkg/plugin"
)

// main is the entry point of the StreamForge daemon.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Fatalf("streamforged failed: %v", err)
	}
}

func run(ctx context.Context) error {
	configPath := os.Getenv("STREAMFORGE_CONFIG")
	if configPath == "" {
		configPath = filepath.Join("configs", "streamforge.json")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if err := logger.Init(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: cfg.Logging.OutputPaths,
		Audit:       logger.AuditConfig{Enabled: cfg.Logging.AuditPath != "", Path: cfg.Logging.AuditPath},
	}); err != nil {
		return err
	}
	defer logger.Sync()

	if err := os.MkdirAll(cfg.Runtime.DataDir, 0o755); err != nil {
		return err
	}

	store, err := buildRecordStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	queue, err := buildQueue(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := queue.Close(); err != nil {
			logger.L().Error("failed to close record queue", slog.Any("error", err))
		}
	}()

	deadLetterSink, deadLetterSource, err := buildDeadLetterSink(ctx, cfg)
	if err != nil {
		return err
	}
	if closer, ok := deadLetterSink.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	mapper, err := pipeline.NewFieldMapper(cfg.Pipeline.Mappings)
	if err != nil {
		return err
	}

	var pluginManager *plugin.Manager
	if cfg.Plugins.ManifestPath != "" {
		manifest, err := plugin.LoadManagerConfig(cfg.Plugins.ManifestPath)
		if err != nil {
			return err
		}
		pluginManager, err = plugin.NewManager(manifest)
		if err != nil {
			return err
		}
		if err := pluginManager.StartAll(ctx); err != nil {
			return err
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := pluginManager.StopAll(stopCtx); err != nil {
				logger.L().Error("failed to stop plugins", slog.Any("error", err))
			}
		}()
	}

	service := pipeline.NewService(store, queue, cfg.Storage.RecordStore.Retries)
	processor := pipeline.NewProcessor(mapper, store, queue, queue, deadLetterSink,
		pipeline.WithWorkerCount(cfg.Queue.Worker),
		pipeline.WithPluginIdentity("field-mapper", cfg.Pipeline.Name),
		pipeline.WithProcessorLogger(logger.Named("processor")),
		pipeline.WithAlertDispatcher(alerting.NewFanout(&alerting.LogNotifier{})),
	)

	processorCtx, processorCancel := context.WithCancel(ctx)
	defer processorCancel()

	go func() {
		if err := processor.Start(processorCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger.L().Error("record processor exited", slog.Any("error", err))
		}
	}()

	server := api.NewServer(cfg.Server.Address, service, pluginManager, deadLetterSource)

	logger.L().Info("streamforged started",
		slog.String("address", cfg.Server.Address),
		slog.String("store", cfg.Storage.RecordStore.Driver),
		slog.String("queue", cfg.Queue.Driver),
		slog.String("dead_letter_sink", cfg.DeadLetter.Sink),
	)

	if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func buildRecordStore(cfg *config.Config) (record.Store, error) {
	switch cfg.Storage.RecordStore.Driver {
	case "", "memory":
		return record.NewMemoryStore(), nil
	case "mysql":
		return record.NewMySQLStore(cfg.Storage.RecordStore.DSN)
	default:
		return nil, fmt.Errorf("unknown record store driver: %s", cfg.Storage.RecordStore.Driver)
	}
}

func buildQueue(cfg *config.Config) (record.Queue, error) {
	switch cfg.Queue.Driver {
	case "", "memory":
		return record.NewMemoryQueue(1024), nil
	case "redis":
		return record.NewRedisQueue(record.RedisQueueConfig{
			Address:   cfg.Queue.Redis.Address,
			Password:  cfg.Queue.Redis.Password,
			DB:        cfg.Queue.Redis.DB,
			Queue:     cfg.Queue.Redis.Queue,
			BlockWait: time.Duration(cfg.Queue.Redis.BlockWait) * time.Second,
		})
	case "rabbitmq":
		return record.NewRabbitMQQueue(record.RabbitMQConfig{
			URL:        cfg.Queue.RabbitMQ.URL,
			Queue:      cfg.Queue.RabbitMQ.Queue,
			Prefetch:   cfg.Queue.RabbitMQ.Prefetch,
			Durable:    cfg.Queue.RabbitMQ.Durable,
			AutoDelete: cfg.Queue.RabbitMQ.AutoDelete,
		})
	default:
		return nil, fmt.Errorf("unknown queue driver: %s", cfg.Queue.Driver)
	}
}

// buildDeadLetterSink returns the sink for failed records and, when the
// backend supports it, an inspection source for the API. The queue sink gets
// its own queue so envelopes never mix with record IDs.
func buildDeadLetterSink(ctx context.Context, cfg *config.Config) (deadletter.Sink, api.DeadLetterSource, error) {
	switch cfg.DeadLetter.Sink {
	case "", "log":
		return sink.NewLogSink(nil), nil, nil
	case "memory":
		memory := sink.NewMemorySink(cfg.DeadLetter.Retention)
		return memory, memory, nil
	case "file":
		file, err := sink.NewFileSink(cfg.DeadLetter.FilePath)
		if err != nil {
			return nil, nil, err
		}
		return file, file, nil
	case "queue":
		producer, err := buildDeadLetterQueue(cfg)
		if err != nil {
			return nil, nil, err
		}
		return sink.NewQueueSink(producer), nil, nil
	case "mysql":
		repo, err := mysql.NewDeadLetterRepository(ctx, mysql.Config{
			DSN:             cfg.Storage.RecordStore.DSN,
			MaxOpenConns:    cfg.Storage.RecordStore.MaxOpenConns,
			MaxIdleConns:    cfg.Storage.RecordStore.MaxIdleConns,
			ConnMaxLifetime: time.Duration(cfg.Storage.RecordStore.ConnMaxLifetimeSeconds) * time.Second,
			ConnMaxIdleTime: time.Duration(cfg.Storage.RecordStore.ConnMaxIdleTimeSeconds) * time.Second,
		})
		if err != nil {
			return nil, nil, err
		}
		return sink.NewStoreSink(repo), repo, nil
	default:
		return nil, nil, fmt.Errorf("unknown dead-letter sink: %s", cfg.DeadLetter.Sink)
	}
}

// buildDeadLetterQueue creates a producer on the configured queue backend
// using the dead-letter queue name.
func buildDeadLetterQueue(cfg *config.Config) (record.Producer, error) {
	switch cfg.Queue.Driver {
	case "", "memory":
		return record.NewMemoryQueue(1024), nil
	case "redis":
		return record.NewRedisQueue(record.RedisQueueConfig{
			Address:   cfg.Queue.Redis.Address,
			Password:  cfg.Queue.Redis.Password,
			DB:        cfg.Queue.Redis.DB,
			Queue:     cfg.DeadLetter.QueueName,
			BlockWait: time.Duration(cfg.Queue.Redis.BlockWait) * time.Second,
		})
	case "rabbitmq":
		return record.NewRabbitMQQueue(record.RabbitMQConfig{
			URL:        cfg.Queue.RabbitMQ.URL,
			Queue:      cfg.DeadLetter.QueueName,
			Prefetch:   cfg.Queue.RabbitMQ.Prefetch,
			Durable:    cfg.Queue.RabbitMQ.Durable,
			AutoDelete: cfg.Queue.RabbitMQ.AutoDelete,
		})
	default:
		return nil, fmt.Errorf("unknown queue driver: %s", cfg.Queue.Driver)
	}
}
