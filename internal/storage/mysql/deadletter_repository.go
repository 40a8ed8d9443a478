// Package mysql persists dead-letter records so failed telemetry can be
// inspected and replayed after the originating process is gone.
package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"StreamForge/internal/sink"
)

// DeadLetterRepository stores dead-letter envelopes in MySQL.
type DeadLetterRepository struct {
	db *sql.DB
}

// NewDeadLetterRepository opens the connection pool and ensures the schema
// is up to date.
func NewDeadLetterRepository(ctx context.Context, cfg Config) (*DeadLetterRepository, error) {
	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return nil, err
	}
	repo := &DeadLetterRepository{db: db}
	if err := repo.runMigrations(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return repo, nil
}

// Save persists one dead-letter envelope.
func (r *DeadLetterRepository) Save(ctx context.Context, env sink.Envelope) error {
	payload, err := json.Marshal(env.FailedData)
	if err != nil {
		return fmt.Errorf("encode failed data: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `INSERT INTO dead_letter_records
        (plugin_id, plugin_name, pipeline_name, failed_data, record_timestamp, schema_version, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)`,
		env.PluginID, env.PluginName, env.PipelineName, payload, env.Timestamp, env.SchemaVersion, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("insert dead-letter record: %w", err)
	}
	return nil
}

// ListLatest returns the most recent envelopes, newest first.
func (r *DeadLetterRepository) ListLatest(ctx context.Context, limit int) ([]sink.Envelope, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, `SELECT plugin_id, plugin_name, pipeline_name, failed_data, record_timestamp, schema_version
        FROM dead_letter_records ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query dead-letter records: %w", err)
	}
	defer rows.Close()

	var envelopes []sink.Envelope
	for rows.Next() {
		var env sink.Envelope
		var payload []byte
		if err := rows.Scan(&env.PluginID, &env.PluginName, &env.PipelineName, &payload, &env.Timestamp, &env.SchemaVersion); err != nil {
			return nil, fmt.Errorf("scan dead-letter record: %w", err)
		}
		if err := json.Unmarshal(payload, &env.FailedData); err != nil {
			return nil, fmt.Errorf("decode failed data: %w", err)
		}
		envelopes = append(envelopes, env)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dead-letter records: %w", err)
	}
	return envelopes, nil
}

// Close releases the connection pool.
func (r *DeadLetterRepository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}
