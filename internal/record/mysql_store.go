package record

import (
	"context"
	"database/sql"
	"encoding/json"
	stdErrors "errors"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	xerrors "StreamForge/internal/errors"
)

// MySQLStore keeps record processing state in MySQL.
type MySQLStore struct {
	db *sql.DB
}

// NewMySQLStore opens the connection pool and ensures the schema exists.
func NewMySQLStore(dsn string) (*MySQLStore, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, xerrors.New(xerrors.CodeInvalidArgument, "MySQL DSN cannot be empty")
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "failed to open MySQL connection")
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(10 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "failed to reach MySQL")
	}

	store := &MySQLStore{db: db}
	if err := store.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *MySQLStore) initSchema() error {
	const schema = `CREATE TABLE IF NOT EXISTS record_states (
        id VARCHAR(64) PRIMARY KEY,
        pipeline_name VARCHAR(255) NOT NULL,
        data TEXT,
        status VARCHAR(32) NOT NULL,
        attempts INT NOT NULL DEFAULT 0,
        max_retries INT NOT NULL DEFAULT 3,
        last_error TEXT,
        error_code VARCHAR(64) DEFAULT '',
        created_at BIGINT NOT NULL,
        updated_at BIGINT NOT NULL,
        INDEX idx_record_status (status),
        INDEX idx_record_updated (updated_at)
)`

	if _, err := s.db.Exec(schema); err != nil {
		return xerrors.Wrap(xerrors.CodeStorageFailure, err, "failed to initialize record_states table")
	}
	return nil
}

// Create inserts a new record.
func (s *MySQLStore) Create(ctx context.Context, rec *Record) error {
	if rec == nil {
		return xerrors.New(xerrors.CodeInvalidArgument, "record cannot be nil")
	}
	if strings.TrimSpace(rec.ID) == "" {
		return xerrors.New(xerrors.CodeInvalidArgument, "record id cannot be empty")
	}

	now := time.Now().Unix()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	dataValue, err := marshalData(rec.Data)
	if err != nil {
		return xerrors.Wrap(xerrors.CodeInvalidArgument, err, "failed to encode record data")
	}

	const stmt = `INSERT INTO record_states
        (id, pipeline_name, data, status, attempts, max_retries, last_error, error_code, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, '', '', ?, ?)`

	_, err = s.db.ExecContext(ctx, stmt,
		rec.ID,
		rec.PipelineName,
		dataValue,
		rec.Status,
		rec.Attempts,
		rec.MaxRetries,
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if stdErrors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
			return ErrRecordConflict
		}
		return xerrors.Wrap(xerrors.CodeStorageFailure, err, "failed to insert record")
	}
	return nil
}

// Get returns the record with the given ID.
func (s *MySQLStore) Get(ctx context.Context, id string) (*Record, error) {
	const stmt = `SELECT id, pipeline_name, data, status, attempts, max_retries, last_error, error_code, created_at, updated_at
        FROM record_states WHERE id = ?`

	row := s.db.QueryRowContext(ctx, stmt, id)
	rec, err := scanRecord(row.Scan)
	if err != nil {
		if stdErrors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return rec, nil
}

// Claim transitions the record to running, consuming one attempt.
func (s *MySQLStore) Claim(ctx context.Context, id string) (*Record, error) {
	const updateStmt = `UPDATE record_states SET status = ?, attempts = attempts + 1, updated_at = ?, last_error = '', error_code = ''
        WHERE id = ? AND status = ? AND attempts < max_retries`

	now := time.Now().Unix()
	res, err := s.db.ExecContext(ctx, updateStmt,
		StatusRunning,
		now,
		id,
		StatusPending,
	)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "failed to update record status")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "failed to read affected rows")
	}
	if affected == 0 {
		rec, getErr := s.Get(ctx, id)
		if getErr != nil {
			return nil, getErr
		}
		switch rec.Status {
		case StatusProcessed:
			return rec, ErrRecordProcessed
		case StatusRunning:
			return rec, ErrRecordConflict
		default:
			if rec.Attempts >= rec.MaxRetries {
				return rec, ErrRecordExhausted
			}
			return rec, ErrRecordConflict
		}
	}
	return s.Get(ctx, id)
}

// MarkProcessed stores the coerced field values and completes the record.
func (s *MySQLStore) MarkProcessed(ctx context.Context, id string, data map[string]any) error {
	dataValue, err := marshalData(data)
	if err != nil {
		return xerrors.Wrap(xerrors.CodeInvalidArgument, err, "failed to encode coerced data")
	}

	const stmt = `UPDATE record_states SET status = ?, data = ?, updated_at = ?, last_error = '', error_code = '' WHERE id = ?`

	now := time.Now().Unix()
	res, err := s.db.ExecContext(ctx, stmt, StatusProcessed, dataValue, now, id)
	if err != nil {
		return xerrors.Wrap(xerrors.CodeStorageFailure, err, "failed to mark record processed")
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// MarkFailed records a failure, either dead-lettering the record or
// returning it to pending for another attempt.
func (s *MySQLStore) MarkFailed(ctx context.Context, id string, code string, lastError string, terminal bool) error {
	const stmt = `UPDATE record_states SET status = ?, last_error = ?, error_code = ?, updated_at = ? WHERE id = ?`

	status := StatusPending
	if terminal {
		status = StatusDeadLettered
	}
	now := time.Now().Unix()
	res, err := s.db.ExecContext(ctx, stmt, status, lastError, code, now, id)
	if err != nil {
		return xerrors.Wrap(xerrors.CodeStorageFailure, err, "failed to mark record failed")
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// List returns the most recently updated records.
func (s *MySQLStore) List(ctx context.Context, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = 20
	}

	const stmt = `SELECT id, pipeline_name, data, status, attempts, max_retries, last_error, error_code, created_at, updated_at
        FROM record_states ORDER BY updated_at DESC, created_at DESC, id DESC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, stmt, limit)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "failed to query records")
	}
	defer rows.Close()

	records := make([]*Record, 0, limit)
	for rows.Next() {
		rec, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "failed to iterate records")
	}
	return records, nil
}

// Close releases the connection pool.
func (s *MySQLStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func scanRecord(scan func(dest ...any) error) (*Record, error) {
	var rec Record
	var data sql.NullString
	if err := scan(
		&rec.ID,
		&rec.PipelineName,
		&data,
		&rec.Status,
		&rec.Attempts,
		&rec.MaxRetries,
		&rec.LastError,
		&rec.ErrorCode,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	); err != nil {
		if stdErrors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "failed to scan record")
	}
	decoded, err := unmarshalData(data)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "failed to decode record data")
	}
	rec.Data = decoded
	return &rec, nil
}

func marshalData(data map[string]any) (sql.NullString, error) {
	if len(data) == 0 {
		return sql.NullString{}, nil
	}
	encoded, err := json.Marshal(data)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(encoded), Valid: true}, nil
}

func unmarshalData(raw sql.NullString) (map[string]any, error) {
	if !raw.Valid || strings.TrimSpace(raw.String) == "" {
		return nil, nil
	}
	var data map[string]any
	if err := json.Unmarshal([]byte(raw.String), &data); err != nil {
		return nil, err
	}
	return data, nil
}

var _ Store = (*MySQLStore)(nil)
