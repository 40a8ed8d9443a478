package convert

import (
	"fmt"
	"strconv"
)

// DoubleConverter coerces values to float64.
type DoubleConverter struct{}

// Target implements Converter.
func (DoubleConverter) Target() Type { return TypeDouble }

// Convert applies the rules in order: text is parsed as a decimal number, a
// float64 passes through, any other numeric source is truncated to an integer
// and then widened, and booleans map to 1.0 / 0.0.
func (DoubleConverter) Convert(value any) (any, error) {
	switch v := value.(type) {
	case string:
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a decimal number", ErrNumberFormat, v)
		}
		return parsed, nil
	case float64:
		return v, nil
	case bool:
		if v {
			return 1.0, nil
		}
		return 0.0, nil
	default:
		if whole, ok := truncate(value); ok {
			return float64(whole), nil
		}
		return nil, fmt.Errorf("%w: cannot convert %T to double", ErrUnsupportedConversion, value)
	}
}
