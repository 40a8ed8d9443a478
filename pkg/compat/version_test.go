package compat

import (
	"errors"
	"testing"
)

func TestParseRoundTrip(t *testing.T) {
	for _, text := range []string{"2", "2.1", "0", "0.0", "10.42"} {
		v, err := Parse(text)
		if err != nil {
			t.Fatalf("parse %q: %v", text, err)
		}
		if got := v.String(); got != text {
			t.Fatalf("round trip %q: got %q", text, got)
		}
		again, err := Parse(v.String())
		if err != nil {
			t.Fatalf("reparse %q: %v", v.String(), err)
		}
		if !again.Equal(v) {
			t.Fatalf("reparse of %q not equal to original", text)
		}
	}
}

func TestParseMalformed(t *testing.T) {
	for _, text := range []string{"2.1.0", "-1", "", "a.b", "2.", ".1", "2.1 ", " 2.1", "2.-1"} {
		if _, err := Parse(text); !errors.Is(err, ErrMalformedVersion) {
			t.Fatalf("parse %q: expected ErrMalformedVersion, got %v", text, err)
		}
	}
}

func TestParseComponents(t *testing.T) {
	v, err := Parse("3.7")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if v.Major() != 3 {
		t.Fatalf("major: got %d want 3", v.Major())
	}
	minor, ok := v.Minor()
	if !ok || minor != 7 {
		t.Fatalf("minor: got %d,%v want 7,true", minor, ok)
	}

	shorthand := MustParse("3")
	if _, ok := shorthand.Minor(); ok {
		t.Fatal("shorthand version reported a minor component")
	}
}

func TestCompatibleWith(t *testing.T) {
	cases := []struct {
		a, b string
		want bool
	}{
		{"2.1", "2", true},
		{"2", "2.1", true},
		{"2.1", "2.1", true},
		{"2.1", "2.2", false},
		{"2", "3", false},
		{"2", "2", true},
		{"2.1", "3.1", false},
	}
	for _, tc := range cases {
		a, b := MustParse(tc.a), MustParse(tc.b)
		if got := a.CompatibleWith(b); got != tc.want {
			t.Fatalf("%s compatibleWith %s: got %v want %v", tc.a, tc.b, got, tc.want)
		}
		if got := b.CompatibleWith(a); got != tc.want {
			t.Fatalf("%s compatibleWith %s not symmetric", tc.b, tc.a)
		}
	}
}

func TestEqual(t *testing.T) {
	if !MustParse("2.1").Equal(MustParse("2.1")) {
		t.Fatal("identical full versions not equal")
	}
	if MustParse("2").Equal(MustParse("2.0")) {
		t.Fatal("shorthand must not equal full version")
	}
	if MustParse("2.1").Equal(MustParse("2.2")) {
		t.Fatal("distinct minors reported equal")
	}
}

func TestCurrent(t *testing.T) {
	v := Current()
	if v.Major() != 2 {
		t.Fatalf("current major: got %d want 2", v.Major())
	}
	minor, ok := v.Minor()
	if !ok || minor != 1 {
		t.Fatalf("current minor: got %d,%v want 1,true", minor, ok)
	}
	if !Current().Equal(v) {
		t.Fatal("current version changed between calls")
	}
}
