// Package deadletter defines the immutable failure record a pipeline stage
// produces when it cannot process a record, and the sink contract that
// receives such records for later inspection and replay.
package deadletter

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"
)

// SchemaVersion identifies the failure record layout. Fixed for every record
// this package produces.
const SchemaVersion = "1"

// timestampLayout renders millisecond precision with a literal "Z" suffix.
// The clock reading is taken in the local zone, so the "Z" is nominal rather
// than a true UTC conversion; downstream consumers depend on this exact form.
const timestampLayout = "2006-01-02T15:04:05.000Z"

// FieldReason distinguishes why a required builder field was rejected.
type FieldReason string

const (
	// ReasonMissing marks a required field that was never supplied.
	ReasonMissing FieldReason = "missing"
	// ReasonEmpty marks a required field that was supplied but blank after
	// trimming.
	ReasonEmpty FieldReason = "empty"
)

var (
	// ErrMissingField matches FieldErrors for fields that were never set.
	ErrMissingField = errors.New("required field missing")
	// ErrInvalidField matches FieldErrors for fields set to an empty value.
	ErrInvalidField = errors.New("required field empty")
)

// FieldError reports which builder field failed validation and why.
type FieldError struct {
	Field  string
	Reason FieldReason
}

// Error implements error.
func (e *FieldError) Error() string {
	switch e.Reason {
	case ReasonEmpty:
		return fmt.Sprintf("field %s must not be empty", e.Field)
	default:
		return fmt.Sprintf("field %s is required", e.Field)
	}
}

// Is maps the two reasons onto their sentinel errors so callers can use
// errors.Is without inspecting the struct.
func (e *FieldError) Is(target error) bool {
	switch target {
	case ErrMissingField:
		return e.Reason == ReasonMissing
	case ErrInvalidField:
		return e.Reason == ReasonEmpty
	default:
		return false
	}
}

// Record captures a record that a plugin could not process. Records are
// immutable after construction; ownership passes to whatever sink receives
// them.
type Record struct {
	pluginID      string
	pluginName    string
	pipelineName  string
	failedData    any
	timestamp     string
	schemaVersion string
}

// PluginID returns the identifier of the plugin that failed.
func (r Record) PluginID() string { return r.pluginID }

// PluginName returns the display name of the plugin that failed.
func (r Record) PluginName() string { return r.pluginName }

// PipelineName returns the pipeline the failure occurred in.
func (r Record) PipelineName() string { return r.pipelineName }

// FailedData returns the payload that could not be processed.
func (r Record) FailedData() any { return r.failedData }

// Timestamp returns the construction instant, formatted with millisecond
// precision and a "Z" suffix.
func (r Record) Timestamp() string { return r.timestamp }

// Schema returns the failure record schema version.
func (r Record) Schema() string { return r.schemaVersion }

// Equal reports whether every field, including the timestamp, matches. Two
// records built from identical inputs at different instants are distinct.
func (r Record) Equal(other Record) bool {
	return r.pluginID == other.pluginID &&
		r.pluginName == other.pluginName &&
		r.pipelineName == other.pipelineName &&
		r.timestamp == other.timestamp &&
		r.schemaVersion == other.schemaVersion &&
		reflect.DeepEqual(r.failedData, other.failedData)
}

// String renders the type name and every field value for debugging.
func (r Record) String() string {
	return fmt.Sprintf("deadletter.Record{pluginID: %s, pluginName: %s, pipelineName: %s, failedData: %v, timestamp: %s, schemaVersion: %s}",
		r.pluginID, r.pluginName, r.pipelineName, r.failedData, r.timestamp, r.schemaVersion)
}

// Builder accumulates the required identity fields and payload for a Record.
// A builder transitions once, from building to built; Build performs all
// validation and stamps the timestamp.
type Builder struct {
	pluginID     *string
	pluginName   *string
	pipelineName *string
	failedData   any
	hasData      bool
	now          func() time.Time
}

// NewBuilder returns an empty Builder using the wall clock.
func NewBuilder() *Builder {
	return &Builder{now: time.Now}
}

// WithPluginID sets the failing plugin's identifier.
func (b *Builder) WithPluginID(id string) *Builder {
	b.pluginID = &id
	return b
}

// WithPluginName sets the failing plugin's display name.
func (b *Builder) WithPluginName(name string) *Builder {
	b.pluginName = &name
	return b
}

// WithPipelineName sets the pipeline the failure occurred in.
func (b *Builder) WithPipelineName(name string) *Builder {
	b.pipelineName = &name
	return b
}

// WithFailedData sets the payload that could not be processed.
func (b *Builder) WithFailedData(data any) *Builder {
	b.failedData = data
	b.hasData = true
	return b
}

// WithClock overrides the timestamp source. Intended for tests.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	if now != nil {
		b.now = now
	}
	return b
}

// Build validates the accumulated fields and returns the immutable Record.
// Unset fields and blank fields are reported as distinct failure kinds; a
// validation failure here is a programmer error in the calling stage.
func (b *Builder) Build() (Record, error) {
	if err := requireText("pluginId", b.pluginID); err != nil {
		return Record{}, err
	}
	if err := requireText("pluginName", b.pluginName); err != nil {
		return Record{}, err
	}
	if err := requireText("pipelineName", b.pipelineName); err != nil {
		return Record{}, err
	}
	if !b.hasData || b.failedData == nil {
		return Record{}, &FieldError{Field: "failedData", Reason: ReasonMissing}
	}
	return Record{
		pluginID:      *b.pluginID,
		pluginName:    *b.pluginName,
		pipelineName:  *b.pipelineName,
		failedData:    b.failedData,
		timestamp:     b.now().Format(timestampLayout),
		schemaVersion: SchemaVersion,
	}, nil
}

func requireText(field string, value *string) error {
	if value == nil {
		return &FieldError{Field: field, Reason: ReasonMissing}
	}
	if strings.TrimSpace(*value) == "" {
		return &FieldError{Field: field, Reason: ReasonEmpty}
	}
	return nil
}
