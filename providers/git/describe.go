/*
Package git reads release tags from the local repository by shelling out to git.
*/
package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// DefaultTagMatch is the glob release tags have to match.
const DefaultTagMatch = "v*.*.*"

var (
	ErrNoTag = errors.New("no release tag found")
)

// Runner executes a command in dir and returns its standard output.
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run executes the command. Standard error is attached to the returned error.
func (ExecRunner) Run(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return out, nil
}

// Describer finds the most recent tag reachable from HEAD.
type Describer struct {
	// Dir is the repository working directory. Empty means the current directory.
	Dir string
	// Match is the glob passed to 'git describe --match'.
	Match  string
	runner Runner
}

// NewDescriber constructs Describer. Empty match falls back to DefaultTagMatch,
// nil runner to ExecRunner.
func NewDescriber(dir, match string, runner Runner) *Describer {
	if match == "" {
		match = DefaultTagMatch
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	return &Describer{Dir: dir, Match: match, runner: runner}
}

// LatestTag returns the raw tag name (e.g. 'v1.2.3') as reported by
// 'git describe --abbrev=0 --tags --match=<Match>'.
func (d Describer) LatestTag(ctx context.Context) (string, error) {
	out, err := d.runner.Run(ctx, d.Dir, "git", "describe", "--abbrev=0", "--tags", "--match="+d.Match)
	if err != nil {
		if noTagOutput(err.Error()) {
			return "", fmt.Errorf("%w matching %q", ErrNoTag, d.Match)
		}
		return "", fmt.Errorf("git describe failed: %w", err)
	}

	tag := strings.TrimSpace(string(out))
	if tag == "" {
		return "", fmt.Errorf("%w matching %q", ErrNoTag, d.Match)
	}
	return tag, nil
}

// noTagOutput recognises git's messages for a history without matching tags.
func noTagOutput(msg string) bool {
	return strings.Contains(msg, "No names found") ||
		strings.Contains(msg, "No tags can describe") ||
		strings.Contains(msg, "cannot describe anything")
}
