package convert

import (
	"fmt"
	"strconv"
)

// IntegerConverter coerces values to int64.
type IntegerConverter struct{}

// Target implements Converter.
func (IntegerConverter) Target() Type { return TypeInteger }

// Convert implements Converter.
func (IntegerConverter) Convert(value any) (any, error) {
	switch v := value.(type) {
	case string:
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not an integer", ErrNumberFormat, v)
		}
		return parsed, nil
	case int64:
		return v, nil
	case bool:
		if v {
			return int64(1), nil
		}
		return int64(0), nil
	default:
		if whole, ok := truncate(value); ok {
			return whole, nil
		}
		return nil, fmt.Errorf("%w: cannot convert %T to integer", ErrUnsupportedConversion, value)
	}
}
