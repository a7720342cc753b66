package versioneer

import (
	"fmt"
	"strings"
)

// BumpKind selects which version component a pull request increments.
type BumpKind int

// Available bump kinds. The zero value is not a valid kind.
const (
	BumpMajor BumpKind = iota + 1
	BumpMinor
	BumpPatch
	BumpNone
)

// directives lists title markers in precedence order: the first one found wins.
var directives = []struct {
	marker string
	kind   BumpKind
}{
	{"[major]", BumpMajor},
	{"[minor]", BumpMinor},
	{"[patch]", BumpPatch},
	{"[notag]", BumpNone},
}

func (k BumpKind) String() string {
	switch k {
	case BumpMajor:
		return "major"
	case BumpMinor:
		return "minor"
	case BumpPatch:
		return "patch"
	case BumpNone:
		return "notag"
	}
	return fmt.Sprintf("BumpKind(%d)", int(k))
}

// MissingBumpDirectiveError is returned when a pull request title carries none of the markers.
// Its message is shown to pull request authors as is.
type MissingBumpDirectiveError struct {
	Title string
}

func (e *MissingBumpDirectiveError) Error() string {
	markers := make([]string, len(directives))
	for i, d := range directives {
		markers[i] = d.marker
	}
	return fmt.Sprintf("One of the following - %s - not found in PR title", strings.Join(markers, ", "))
}

// Classify maps a pull request title to a bump kind. Matching is case-insensitive
// and markers are checked in the order major, minor, patch, notag.
func Classify(title string) (BumpKind, error) {
	lower := strings.ToLower(title)
	for _, d := range directives {
		if strings.Contains(lower, d.marker) {
			return d.kind, nil
		}
	}
	return 0, &MissingBumpDirectiveError{Title: title}
}

// NextVersion returns the version a pull request titled 'title' must declare,
// given the current release tag.
func NextVersion(current Tag, title string) (Tag, error) {
	kind, err := Classify(title)
	if err != nil {
		return Tag{}, err
	}
	return current.Bump(kind), nil
}
