// Package sink provides dead-letter sink implementations. A sink receives
// immutable failure records from the pipeline and makes them available for
// inspection or replay; which backend a deployment uses is configuration.
package sink

import (
	"encoding/json"
	"fmt"

	"StreamForge/pkg/deadletter"
)

// Envelope is the serialized form of a failure record used by the file,
// queue and database sinks.
type Envelope struct {
	PluginID      string `json:"plugin_id"`
	PluginName    string `json:"plugin_name"`
	PipelineName  string `json:"pipeline_name"`
	FailedData    any    `json:"failed_data"`
	Timestamp     string `json:"timestamp"`
	SchemaVersion string `json:"schema_version"`
}

// Enclose converts a failure record into its serializable envelope.
func Enclose(record deadletter.Record) Envelope {
	return Envelope{
		PluginID:      record.PluginID(),
		PluginName:    record.PluginName(),
		PipelineName:  record.PipelineName(),
		FailedData:    record.FailedData(),
		Timestamp:     record.Timestamp(),
		SchemaVersion: record.Schema(),
	}
}

// Encode renders a failure record as a single JSON document.
func Encode(record deadletter.Record) ([]byte, error) {
	encoded, err := json.Marshal(Enclose(record))
	if err != nil {
		return nil, fmt.Errorf("encode dead-letter record: %w", err)
	}
	return encoded, nil
}

// Decode parses a JSON document produced by Encode.
func Decode(raw []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode dead-letter record: %w", err)
	}
	return env, nil
}
