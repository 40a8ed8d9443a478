// Package compat implements the pipeline version model used to decide whether
// a plugin built against one pipeline version may be activated under another.
package compat

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// currentVersion is the version of the pipeline contract this process exposes.
const currentVersion = "2.1"

// versionPattern accepts "<major>" or "<major>.<minor>", both non-negative
// integers with no surrounding characters.
var versionPattern = regexp.MustCompile(`^(\d+)(\.(\d+))?$`)

// ErrMalformedVersion reports version text that does not match the required
// pattern. Callers gating plugin activation must reject the plugin.
var ErrMalformedVersion = errors.New("malformed version")

// Version identifies a pipeline contract revision. The shorthand form carries
// only a major component; the full form carries major and minor. Values are
// immutable once parsed.
type Version struct {
	major int
	minor *int
}

// current is fixed at package initialisation so concurrent first use never
// races on a lazily built singleton.
var current = MustParse(currentVersion)

// Current returns the version of the running pipeline.
func Current() Version {
	return current
}

// Parse converts version text into a Version. Text must be one or two
// dot-separated non-negative integers, e.g. "2" or "2.1".
func Parse(text string) (Version, error) {
	groups := versionPattern.FindStringSubmatch(text)
	if groups == nil {
		return Version{}, fmt.Errorf("%w: %q", ErrMalformedVersion, text)
	}
	major, err := strconv.Atoi(groups[1])
	if err != nil {
		return Version{}, fmt.Errorf("%w: %q", ErrMalformedVersion, text)
	}
	v := Version{major: major}
	if groups[3] != "" {
		minor, err := strconv.Atoi(groups[3])
		if err != nil {
			return Version{}, fmt.Errorf("%w: %q", ErrMalformedVersion, text)
		}
		v.minor = &minor
	}
	return v, nil
}

// MustParse is Parse for fixed literals; it panics on malformed text.
func MustParse(text string) Version {
	v, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return v
}

// Major returns the major component.
func (v Version) Major() int {
	return v.major
}

// Minor returns the minor component and whether one was specified.
func (v Version) Minor() (int, bool) {
	if v.minor == nil {
		return 0, false
	}
	return *v.minor, true
}

// CompatibleWith reports whether v and other may interoperate. Versions with
// different majors are never compatible. When both sides carry a minor the
// minors must match exactly; when at least one side is shorthand a shared
// major is enough. The relation is symmetric.
func (v Version) CompatibleWith(other Version) bool {
	if v.major != other.major {
		return false
	}
	if v.minor != nil && other.minor != nil {
		return *v.minor == *other.minor
	}
	return true
}

// Equal reports whether both versions carry identical major and minor
// components, treating an absent minor as distinct from any present one.
func (v Version) Equal(other Version) bool {
	if v.major != other.major {
		return false
	}
	if (v.minor == nil) != (other.minor == nil) {
		return false
	}
	return v.minor == nil || *v.minor == *other.minor
}

// String renders the shorthand form as the bare major number and the full
// form as "major.minor". Parse(v.String()) reproduces v for every valid v.
func (v Version) String() string {
	if v.minor == nil {
		return strconv.Itoa(v.major)
	}
	return fmt.Sprintf("%d.%d", v.major, *v.minor)
}
