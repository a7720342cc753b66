package versioneer

import (
	"fmt"
	"strconv"
	"strings"
)

// MalformedVersionError is returned when a manifest or tag value is not a
// 'major.minor.patch' triple of non-negative integers.
type MalformedVersionError struct {
	Raw    string
	Reason string
}

func (e *MalformedVersionError) Error() string {
	return fmt.Sprintf("malformed version %q: %s", e.Raw, e.Reason)
}

// Tag is a three-component release version (e.g. 'v1.2.3' read from git).
// The 'v' prefix is never retained.
type Tag struct {
	major, minor, patch int
}

// ParseTag parses 'v1.2.3' or '1.2.3' into a Tag.
func ParseTag(raw string) (Tag, error) {
	parts := strings.Split(strings.TrimPrefix(raw, "v"), ".")
	if len(parts) != 3 {
		return Tag{}, &MalformedVersionError{
			Raw:    raw,
			Reason: fmt.Sprintf("expected 3 components, got %d", len(parts)),
		}
	}

	var segs [3]int
	for i, part := range parts {
		n, err := parseSegment(part)
		if err != nil {
			return Tag{}, &MalformedVersionError{Raw: raw, Reason: err.Error()}
		}
		segs[i] = n
	}

	return Tag{major: segs[0], minor: segs[1], patch: segs[2]}, nil
}

// parseSegment accepts only plain decimal digits; strconv alone would let signs through.
func parseSegment(s string) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("empty component")
	}
	for _, ch := range s {
		if ch < '0' || ch > '9' {
			return 0, fmt.Errorf("component %q is not a non-negative integer", s)
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("component %q is out of range", s)
	}
	return n, nil
}

func (t Tag) Major() int { return t.major }

func (t Tag) Minor() int { return t.minor }

func (t Tag) Patch() int { return t.patch }

// String renders the tag as 'major.minor.patch' without a 'v' prefix.
func (t Tag) String() string {
	return fmt.Sprintf("%d.%d.%d", t.major, t.minor, t.patch)
}

// Bump returns a new Tag with the component selected by kind incremented.
// Lower-order components are reset to zero; BumpNone returns t unchanged.
func (t Tag) Bump(kind BumpKind) Tag {
	switch kind {
	case BumpMajor:
		return Tag{major: t.major + 1}
	case BumpMinor:
		return Tag{major: t.major, minor: t.minor + 1}
	case BumpPatch:
		return Tag{major: t.major, minor: t.minor, patch: t.patch + 1}
	}
	return t
}
