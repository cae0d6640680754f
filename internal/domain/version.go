package domain

import (
	"fmt"

	"github.com/Masterminds/semver"
)

// ChangeClass classifies the difference between two schema versions.
type ChangeClass string

const (
	ChangeClassMajor ChangeClass = "major"
	ChangeClassMinor ChangeClass = "minor"
	ChangeClassPatch ChangeClass = "patch"
)

// InitialVersion is assigned to the first published snapshot of an archive.
const InitialVersion = "1.0.0"

// KnownChangeClass reports whether c is a valid classification.
func KnownChangeClass(c ChangeClass) bool {
	switch c {
	case ChangeClassMajor, ChangeClassMinor, ChangeClassPatch:
		return true
	}
	return false
}

// ParseVersion parses a MAJOR.MINOR.PATCH version string.
func ParseVersion(v string) (*semver.Version, error) {
	parsed, err := semver.NewVersion(v)
	if err != nil {
		return nil, fmt.Errorf("invalid version %q: %w", v, err)
	}
	return parsed, nil
}

// CompareVersions orders two version strings under semantic-version ordering.
func CompareVersions(a, b string) (int, error) {
	va, err := ParseVersion(a)
	if err != nil {
		return 0, err
	}
	vb, err := ParseVersion(b)
	if err != nil {
		return 0, err
	}
	return va.Compare(vb), nil
}

// NextVersion computes the successor of current for the given change class.
func NextVersion(current string, class ChangeClass) (string, error) {
	v, err := ParseVersion(current)
	if err != nil {
		return "", err
	}

	var next semver.Version
	switch class {
	case ChangeClassMajor:
		next = v.IncMajor()
	case ChangeClassMinor:
		next = v.IncMinor()
	case ChangeClassPatch:
		next = v.IncPatch()
	default:
		return "", fmt.Errorf("unknown change class %q", class)
	}

	return next.String(), nil
}

// BumpBetween derives the change class implied by two consecutive version
// numbers. It errors when next is not a valid direct successor of prev.
func BumpBetween(prev, next string) (ChangeClass, error) {
	vp, err := ParseVersion(prev)
	if err != nil {
		return "", err
	}
	vn, err := ParseVersion(next)
	if err != nil {
		return "", err
	}

	for _, class := range []ChangeClass{ChangeClassMajor, ChangeClassMinor, ChangeClassPatch} {
		candidate, err := NextVersion(prev, class)
		if err != nil {
			return "", err
		}
		if candidate == vn.String() {
			return class, nil
		}
	}

	if !vn.GreaterThan(vp) {
		return "", fmt.Errorf("version %s does not follow %s under semantic-version ordering", next, prev)
	}
	return "", fmt.Errorf("version %s is not a direct successor of %s", next, prev)
}
