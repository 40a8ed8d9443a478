// Package record defines the telemetry record model flowing through the
// pipeline, together with its store and queue abstractions.
package record

import (
	xerrors "StreamForge/internal/errors"
)

// Status marks where a record sits in its processing lifecycle.
type Status string

const (
	StatusPending      Status = "pending"
	StatusRunning      Status = "running"
	StatusProcessed    Status = "processed"
	StatusDeadLettered Status = "deadlettered"
)

// Record is a structured telemetry record queued for processing. Data holds
// the raw, untyped field values as ingested; the field-mapping stage coerces
// them in place.
type Record struct {
	ID           string         `json:"id"`
	PipelineName string         `json:"pipeline_name"`
	Data         map[string]any `json:"data"`
	Status       Status         `json:"status"`
	Attempts     int            `json:"attempts"`
	MaxRetries   int            `json:"max_retries"`
	LastError    string         `json:"last_error,omitempty"`
	ErrorCode    string         `json:"error_code,omitempty"`
	CreatedAt    int64          `json:"created_at"`
	UpdatedAt    int64          `json:"updated_at"`
}

var (
	// ErrRecordNotFound indicates the requested record does not exist.
	ErrRecordNotFound = xerrors.New(CodeRecordNotFound, "record not found")
	// ErrRecordConflict indicates the record cannot take the requested
	// transition in its current state.
	ErrRecordConflict = xerrors.New(CodeRecordConflict, "record conflict", xerrors.WithSeverity(xerrors.SeverityWarning))
	// ErrRecordProcessed indicates the record already completed processing.
	ErrRecordProcessed = xerrors.New(CodeRecordProcessed, "record already processed", xerrors.WithSeverity(xerrors.SeverityInfo))
	// ErrRecordExhausted indicates the record has no processing attempts left.
	ErrRecordExhausted = xerrors.New(CodeRecordExhausted, "record attempts exhausted", xerrors.WithSeverity(xerrors.SeverityCritical))
)

const (
	CodeRecordNotFound   xerrors.Code = "RECORD_NOT_FOUND"
	CodeRecordConflict   xerrors.Code = "RECORD_CONFLICT"
	CodeRecordProcessed  xerrors.Code = "RECORD_PROCESSED"
	CodeRecordExhausted  xerrors.Code = "RECORD_ATTEMPTS_EXHAUSTED"
	CodeRecordValidation xerrors.Code = "RECORD_VALIDATION_FAILED"
	CodeRecordPublish    xerrors.Code = "RECORD_PUBLISH_FAILED"
	CodeRecordCoercion   xerrors.Code = "RECORD_COERCION_FAILED"
	CodeDeadLetterWrite  xerrors.Code = "DEADLETTER_WRITE_FAILED"
)

func init() {
	xerrors.Register(CodeRecordNotFound, xerrors.Attributes{
		Message:   "record not found",
		Severity:  xerrors.SeverityInfo,
		Retryable: false,
		Alert:     false,
	})
	xerrors.Register(CodeRecordConflict, xerrors.Attributes{
		Message:   "record conflict",
		Severity:  xerrors.SeverityWarning,
		Retryable: false,
		Alert:     false,
	})
	xerrors.Register(CodeRecordProcessed, xerrors.Attributes{
		Message:   "record already processed",
		Severity:  xerrors.SeverityInfo,
		Retryable: false,
		Alert:     false,
	})
	xerrors.Register(CodeRecordExhausted, xerrors.Attributes{
		Message:   "record attempts exhausted",
		Severity:  xerrors.SeverityCritical,
		Retryable: false,
		Alert:     true,
	})
	xerrors.Register(CodeRecordValidation, xerrors.Attributes{
		Message:   "record validation failed",
		Severity:  xerrors.SeverityInfo,
		Retryable: false,
		Alert:     false,
	})
	xerrors.Register(CodeRecordPublish, xerrors.Attributes{
		Message:   "failed to publish record",
		Severity:  xerrors.SeverityCritical,
		Retryable: true,
		Alert:     true,
	})
	xerrors.Register(CodeRecordCoercion, xerrors.Attributes{
		Message:   "field coercion failed",
		Severity:  xerrors.SeverityWarning,
		Retryable: false,
		Alert:     true,
	})
	xerrors.Register(CodeDeadLetterWrite, xerrors.Attributes{
		Message:   "failed to write dead-letter record",
		Severity:  xerrors.SeverityCritical,
		Retryable: true,
		Alert:     true,
	})
}

func cloneData(data map[string]any) map[string]any {
	if data == nil {
		return nil
	}
	cloned := make(map[string]any, len(data))
	for key, value := range data {
		cloned[key] = value
	}
	return cloned
}

// IsValidStatus checks whether a status is one of the supported values.
func IsValidStatus(status Status) bool {
	switch status {
	case StatusPending, StatusRunning, StatusProcessed, StatusDeadLettered:
		return true
	default:
		return false
	}
}
