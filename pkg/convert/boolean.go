package convert

import (
	"fmt"
	"strconv"
)

// BooleanConverter coerces values to bool. Numeric sources map to true for
// any non-zero value.
type BooleanConverter struct{}

// Target implements Converter.
func (BooleanConverter) Target() Type { return TypeBoolean }

// Convert implements Converter.
func (BooleanConverter) Convert(value any) (any, error) {
	switch v := value.(type) {
	case string:
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a boolean", ErrNumberFormat, v)
		}
		return parsed, nil
	case bool:
		return v, nil
	case float64:
		return v != 0, nil
	case float32:
		return v != 0, nil
	default:
		if whole, ok := truncate(value); ok {
			return whole != 0, nil
		}
		return nil, fmt.Errorf("%w: cannot convert %T to boolean", ErrUnsupportedConversion, value)
	}
}
