// Package convert supplies per-target-type converters that coerce untyped
// record field values into a concrete primitive type. A configuration-driven
// field-mapping stage resolves one converter per declared field type and
// applies it uniformly without knowing concrete types.
package convert

import (
	"errors"
	"fmt"
)

// Type names a supported coercion target.
type Type string

const (
	TypeDouble  Type = "double"
	TypeFloat   Type = "float"
	TypeInteger Type = "integer"
	TypeBoolean Type = "boolean"
	TypeString  Type = "string"
)

var (
	// ErrUnsupportedConversion reports a source value whose runtime type has
	// no coercion rule for the requested target.
	ErrUnsupportedConversion = errors.New("unsupported type conversion")
	// ErrNumberFormat reports text that cannot be parsed as a literal of the
	// target type.
	ErrNumberFormat = errors.New("unparseable literal")
	// ErrUnknownType reports a declared field type with no converter.
	ErrUnknownType = errors.New("unknown conversion target type")
)

// Converter coerces an untyped value into a single target primitive type.
// Implementations are stateless and safe for concurrent use.
type Converter interface {
	Convert(value any) (any, error)
	Target() Type
}

var converters = map[Type]Converter{
	TypeDouble:  DoubleConverter{},
	TypeFloat:   FloatConverter{},
	TypeInteger: IntegerConverter{},
	TypeBoolean: BooleanConverter{},
	TypeString:  StringConverter{},
}

// For returns the converter for a declared target type.
func For(t Type) (Converter, error) {
	c, ok := converters[t]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
	return c, nil
}

// truncate narrows any supported non-floating-target numeric source to an
// integer. Fractional parts of floating sources are discarded; this is an
// explicit rule of the converter family, not an accident.
func truncate(value any) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		return int64(v), true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		return int64(v), true
	case float32:
		return int64(v), true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}
