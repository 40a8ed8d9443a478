package convert

import (
	"fmt"
	"strconv"
)

// FloatConverter coerces values to float32 under the same rules as
// DoubleConverter: only a source that already is the target floating type
// passes through untouched, every other numeric source is truncated first.
type FloatConverter struct{}

// Target implements Converter.
func (FloatConverter) Target() Type { return TypeFloat }

// Convert implements Converter.
func (FloatConverter) Convert(value any) (any, error) {
	switch v := value.(type) {
	case string:
		parsed, err := strconv.ParseFloat(v, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a decimal number", ErrNumberFormat, v)
		}
		return float32(parsed), nil
	case float32:
		return v, nil
	case bool:
		if v {
			return float32(1), nil
		}
		return float32(0), nil
	default:
		if whole, ok := truncate(value); ok {
			return float32(whole), nil
		}
		return nil, fmt.Errorf("%w: cannot convert %T to float", ErrUnsupportedConversion, value)
	}
}
