// Package config provides centralized configuration management for the
// StreamForge daemon, loading the listener, storage, queue, pipeline and
// dead-letter settings from a single JSON file with sensible defaults.
package config
