// Package pipeline wires record ingestion, field coercion and dead-letter
// handling into a processing loop driven by the record queue.
package pipeline

import (
	"fmt"

	"StreamForge/pkg/convert"
)

// FieldMapping declares the target type for one record field.
type FieldMapping struct {
	Field string       `json:"field"`
	Type  convert.Type `json:"type"`
}

// FieldMapper coerces record fields to their declared types. Converters are
// resolved once at configuration time so an unknown type fails fast instead
// of surfacing per record.
type FieldMapper struct {
	converters map[string]convert.Converter
}

// NewFieldMapper builds a mapper from the declared mappings.
func NewFieldMapper(mappings []FieldMapping) (*FieldMapper, error) {
	converters := make(map[string]convert.Converter, len(mappings))
	for _, mapping := range mappings {
		if mapping.Field == "" {
			return nil, fmt.Errorf("field mapping requires a field name")
		}
		if _, ok := converters[mapping.Field]; ok {
			return nil, fmt.Errorf("duplicate mapping for field %q", mapping.Field)
		}
		converter, err := convert.For(mapping.Type)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", mapping.Field, err)
		}
		converters[mapping.Field] = converter
	}
	return &FieldMapper{converters: converters}, nil
}

// Apply coerces every mapped field present in data, returning a new map.
// Fields without a mapping pass through untouched; a missing mapped field is
// not an error.
func (m *FieldMapper) Apply(data map[string]any) (map[string]any, error) {
	if m == nil || len(m.converters) == 0 {
		return data, nil
	}
	out := make(map[string]any, len(data))
	for key, value := range data {
		converter, ok := m.converters[key]
		if !ok {
			out[key] = value
			continue
		}
		coerced, err := converter.Convert(value)
		if err != nil {
			return nil, fmt.Errorf("coerce field %q to %s: %w", key, converter.Target(), err)
		}
		out[key] = coerced
	}
	return out, nil
}
