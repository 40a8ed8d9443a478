package convert

import (
	"fmt"
	"strconv"
)

// StringConverter coerces values to their canonical string form.
type StringConverter struct{}

// Target implements Converter.
func (StringConverter) Target() Type { return TypeString }

// Convert implements Converter.
func (StringConverter) Convert(value any) (any, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case bool:
		return strconv.FormatBool(v), nil
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32), nil
	default:
		if whole, ok := truncate(value); ok {
			return strconv.FormatInt(whole, 10), nil
		}
		return nil, fmt.Errorf("%w: cannot convert %T to string", ErrUnsupportedConversion, value)
	}
}
