package guard

import (
	"regexp"
	"strconv"
)

// pullRefRgx matches pull request refs (e.g. 'refs/pull/123/merge').
var pullRefRgx = regexp.MustCompile(`^refs/pull/([0-9]+)/.*$`)

// ParsePullRequestRef extracts the pull request number from a 'refs/pull/<number>/*' ref.
func ParsePullRequestRef(ref string) (int, error) {
	m := pullRefRgx.FindStringSubmatch(ref)
	if m == nil {
		return 0, &RefParseError{Ref: ref}
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return 0, &RefParseError{Ref: ref}
	}
	return n, nil
}

// IsTrunk reports whether ref points at the trunk branch, given either as a
// bare branch name or as 'refs/heads/<trunk>'.
func IsTrunk(ref, trunk string) bool {
	return trunk != "" && (ref == trunk || ref == "refs/heads/"+trunk)
}
