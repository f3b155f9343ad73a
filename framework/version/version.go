// Package version compares chart and plugin versions during upgrade
// verification.
package version

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Parse parses a version string, tolerating a leading "v" as used by git
// tags.
func Parse(s string) (*semver.Version, error) {
	v, err := semver.NewVersion(strings.TrimPrefix(strings.TrimSpace(s), "v"))
	if err != nil {
		return nil, fmt.Errorf("invalid version %q: %w", s, err)
	}
	return v, nil
}

// Equal reports whether two version strings denote the same version.
func Equal(a, b string) (bool, error) {
	va, err := Parse(a)
	if err != nil {
		return false, err
	}
	vb, err := Parse(b)
	if err != nil {
		return false, err
	}
	return va.Equal(vb), nil
}

// AtLeast reports whether version s is greater than or equal to target.
func AtLeast(s, target string) (bool, error) {
	v, err := Parse(s)
	if err != nil {
		return false, err
	}
	t, err := Parse(target)
	if err != nil {
		return false, err
	}
	return !v.LessThan(t), nil
}

// IsUpgrade reports whether moving from one version to another is a
// version increase.
func IsUpgrade(from, to string) (bool, error) {
	vf, err := Parse(from)
	if err != nil {
		return false, err
	}
	vt, err := Parse(to)
	if err != nil {
		return false, err
	}
	return vt.GreaterThan(vf), nil
}
