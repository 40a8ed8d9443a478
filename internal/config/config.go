package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"StreamForge/internal/pipeline"
)

// Config holds everything the daemon loads at startup.
type Config struct {
	Server     ServerConfig     `json:"server"`
	Storage    StorageConfig    `json:"storage"`
	Queue      QueueConfig      `json:"queue"`
	Pipeline   PipelineConfig   `json:"pipeline"`
	DeadLetter DeadLetterConfig `json:"dead_letter"`
	Logging    LoggingConfig    `json:"logging"`
	Plugins    PluginsConfig    `json:"plugins"`
	Runtime    RuntimeConfig    `json:"runtime"`
}

// ServerConfig controls the HTTP API listener.
type ServerConfig struct {
	Address string `json:"address"`
}

// StorageConfig describes the record store backend.
type StorageConfig struct {
	RecordStore RecordStoreConfig `json:"record_store"`
}

// RecordStoreConfig selects between the memory and MySQL record stores.
type RecordStoreConfig struct {
	Driver                 string `json:"driver"`
	DSN                    string `json:"dsn"`
	MaxOpenConns           int    `json:"max_open_conns"`
	MaxIdleConns           int    `json:"max_idle_conns"`
	ConnMaxLifetimeSeconds int    `json:"conn_max_lifetime_seconds"`
	ConnMaxIdleTimeSeconds int    `json:"conn_max_idle_time_seconds"`
	Retries                int    `json:"retries"`
}

// QueueConfig selects the record queue backend.
type QueueConfig struct {
	Driver   string         `json:"driver"`
	Worker   int            `json:"worker"`
	Redis    RedisConfig    `json:"redis"`
	RabbitMQ RabbitMQConfig `json:"rabbitmq"`
}

// RedisConfig carries Redis queue connection settings.
type RedisConfig struct {
	Address   string `json:"address"`
	Password  string `json:"password"`
	DB        int    `json:"db"`
	Queue     string `json:"queue"`
	BlockWait int    `json:"block_wait_seconds"`
}

// RabbitMQConfig carries RabbitMQ queue connection settings.
type RabbitMQConfig struct {
	URL        string `json:"url"`
	Queue      string `json:"queue"`
	Prefetch   int    `json:"prefetch"`
	Durable    bool   `json:"durable"`
	AutoDelete bool   `json:"auto_delete"`
}

// PipelineConfig names the pipeline and declares its field mappings.
type PipelineConfig struct {
	Name     string                  `json:"name"`
	Mappings []pipeline.FieldMapping `json:"mappings"`
}

// DeadLetterConfig selects where failed records are written.
type DeadLetterConfig struct {
	Sink      string `json:"sink"`
	FilePath  string `json:"file_path"`
	QueueName string `json:"queue_name"`
	Retention int    `json:"retention"`
}

// LoggingConfig mirrors the logger package configuration.
type LoggingConfig struct {
	Level       string   `json:"level"`
	Format      string   `json:"format"`
	OutputPaths []string `json:"output_paths"`
	AuditPath   string   `json:"audit_path"`
}

// PluginsConfig points at the plugin manager manifest.
type PluginsConfig struct {
	ManifestPath string `json:"manifest_path"`
}

// RuntimeConfig holds general runtime parameters.
type RuntimeConfig struct {
	DataDir string `json:"data_dir"`
}

// Load parses the JSON configuration file at path.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("configuration file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open configuration file: %w", err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read configuration file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(content, &cfg); err != nil {
		return nil, fmt.Errorf("parse configuration: %w", err)
	}

	cfg.applyDefaults(filepath.Dir(path))

	return &cfg, nil
}

// applyDefaults fills in sane values for fields the user left empty.
func (c *Config) applyDefaults(baseDir string) {
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}

	if c.Storage.RecordStore.Driver == "" {
		c.Storage.RecordStore.Driver = "memory"
	}
	if c.Storage.RecordStore.Retries <= 0 {
		c.Storage.RecordStore.Retries = 3
	}

	if c.Queue.Driver == "" {
		c.Queue.Driver = "memory"
	}
	if c.Queue.Worker <= 0 {
		c.Queue.Worker = 4
	}

	if c.Pipeline.Name == "" {
		c.Pipeline.Name = "default"
	}

	if c.DeadLetter.Sink == "" {
		c.DeadLetter.Sink = "log"
	}
	if c.DeadLetter.QueueName == "" {
		c.DeadLetter.QueueName = "streamforge.deadletter"
	}
	if c.DeadLetter.FilePath != "" && !filepath.IsAbs(c.DeadLetter.FilePath) {
		c.DeadLetter.FilePath = filepath.Join(baseDir, c.DeadLetter.FilePath)
	}

	if c.Plugins.ManifestPath != "" && !filepath.IsAbs(c.Plugins.ManifestPath) {
		c.Plugins.ManifestPath = filepath.Join(baseDir, c.Plugins.ManifestPath)
	}

	if c.Runtime.DataDir == "" {
		c.Runtime.DataDir = filepath.Join(baseDir, "data")
	} else if !filepath.IsAbs(c.Runtime.DataDir) {
		c.Runtime.DataDir = filepath.Join(baseDir, c.Runtime.DataDir)
	}
}
