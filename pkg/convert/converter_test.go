package convert

import (
	"errors"
	"testing"
)

func TestDoubleConverter(t *testing.T) {
	cases := []struct {
		name  string
		value any
		want  float64
	}{
		{"decimal text", "3.14", 3.14},
		{"integer text", "42", 42},
		{"true", true, 1.0},
		{"false", false, 0.0},
		{"int", 5, 5.0},
		{"int64", int64(-7), -7.0},
		{"uint16", uint16(9), 9.0},
		{"float64 passthrough", 2.5, 2.5},
		{"float32 truncates", float32(2.9), 2.0},
	}
	c := DoubleConverter{}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := c.Convert(tc.value)
			if err != nil {
				t.Fatalf("convert %v: %v", tc.value, err)
			}
			if got != tc.want {
				t.Fatalf("convert %v: got %v want %v", tc.value, got, tc.want)
			}
		})
	}
}

func TestDoubleConverterErrors(t *testing.T) {
	c := DoubleConverter{}
	if _, err := c.Convert(nil); !errors.Is(err, ErrUnsupportedConversion) {
		t.Fatalf("nil: expected ErrUnsupportedConversion, got %v", err)
	}
	if _, err := c.Convert(struct{}{}); !errors.Is(err, ErrUnsupportedConversion) {
		t.Fatalf("struct: expected ErrUnsupportedConversion, got %v", err)
	}
	if _, err := c.Convert("abc"); !errors.Is(err, ErrNumberFormat) {
		t.Fatalf("abc: expected ErrNumberFormat, got %v", err)
	}
}

func TestFloatConverter(t *testing.T) {
	c := FloatConverter{}
	got, err := c.Convert("1.5")
	if err != nil || got != float32(1.5) {
		t.Fatalf("text: got %v, %v", got, err)
	}
	got, err = c.Convert(float32(2.5))
	if err != nil || got != float32(2.5) {
		t.Fatalf("passthrough: got %v, %v", got, err)
	}
	// float64 is not the target type, so it takes the truncating path.
	got, err = c.Convert(2.9)
	if err != nil || got != float32(2) {
		t.Fatalf("float64 source: got %v, %v", got, err)
	}
	got, err = c.Convert(true)
	if err != nil || got != float32(1) {
		t.Fatalf("bool: got %v, %v", got, err)
	}
}

func TestIntegerConverter(t *testing.T) {
	c := IntegerConverter{}
	got, err := c.Convert("12")
	if err != nil || got != int64(12) {
		t.Fatalf("text: got %v, %v", got, err)
	}
	if _, err := c.Convert("12.5"); !errors.Is(err, ErrNumberFormat) {
		t.Fatalf("fractional text: expected ErrNumberFormat, got %v", err)
	}
	got, err = c.Convert(3.9)
	if err != nil || got != int64(3) {
		t.Fatalf("float truncation: got %v, %v", got, err)
	}
	got, err = c.Convert(false)
	if err != nil || got != int64(0) {
		t.Fatalf("bool: got %v, %v", got, err)
	}
	if _, err := c.Convert([]byte("1")); !errors.Is(err, ErrUnsupportedConversion) {
		t.Fatalf("bytes: expected ErrUnsupportedConversion, got %v", err)
	}
}

func TestBooleanConverter(t *testing.T) {
	c := BooleanConverter{}
	got, err := c.Convert("true")
	if err != nil || got != true {
		t.Fatalf("text: got %v, %v", got, err)
	}
	got, err = c.Convert(0)
	if err != nil || got != false {
		t.Fatalf("zero: got %v, %v", got, err)
	}
	got, err = c.Convert(0.5)
	if err != nil || got != true {
		t.Fatalf("non-zero float: got %v, %v", got, err)
	}
	if _, err := c.Convert("yes"); !errors.Is(err, ErrNumberFormat) {
		t.Fatalf("bad text: expected ErrNumberFormat, got %v", err)
	}
}

func TestStringConverter(t *testing.T) {
	c := StringConverter{}
	cases := []struct {
		value any
		want  string
	}{
		{"abc", "abc"},
		{true, "true"},
		{int64(12), "12"},
		{3.5, "3.5"},
	}
	for _, tc := range cases {
		got, err := c.Convert(tc.value)
		if err != nil {
			t.Fatalf("convert %v: %v", tc.value, err)
		}
		if got != tc.want {
			t.Fatalf("convert %v: got %q want %q", tc.value, got, tc.want)
		}
	}
	if _, err := c.Convert(nil); !errors.Is(err, ErrUnsupportedConversion) {
		t.Fatalf("nil: expected ErrUnsupportedConversion, got %v", err)
	}
}

func TestFor(t *testing.T) {
	for _, target := range []Type{TypeDouble, TypeFloat, TypeInteger, TypeBoolean, TypeString} {
		c, err := For(target)
		if err != nil {
			t.Fatalf("For(%s): %v", target, err)
		}
		if c.Target() != target {
			t.Fatalf("For(%s): converter targets %s", target, c.Target())
		}
	}
	if _, err := For(Type("decimal")); !errors.Is(err, ErrUnknownType) {
		t.Fatalf("unknown type: expected ErrUnknownType, got %v", err)
	}
}
