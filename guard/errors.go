package guard

import (
	"errors"
	"fmt"
	"strings"
)

// Collaborator names the external reader an error came from.
type Collaborator string

// Available collaborators.
const (
	CollaboratorManifest    = Collaborator("manifest")
	CollaboratorTag         = Collaborator("tag")
	CollaboratorPullRequest = Collaborator("pull-request")
	CollaboratorRegistry    = Collaborator("registry")
)

// CollaboratorError wraps a failure of one of the readers feeding the check
// (file, git process, GitHub API or package registry).
type CollaboratorError struct {
	Collaborator Collaborator
	Err          error
}

func (e *CollaboratorError) Error() string {
	switch e.Collaborator {
	case CollaboratorManifest:
		return fmt.Sprintf("unable to read declared version: %v", e.Err)
	case CollaboratorTag:
		return fmt.Sprintf("unable to read latest tag: %v", e.Err)
	case CollaboratorPullRequest:
		return fmt.Sprintf("unable to read pull request title: %v", e.Err)
	case CollaboratorRegistry:
		return fmt.Sprintf("unable to query package registry: %v", e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Collaborator, e.Err)
}

func (e *CollaboratorError) Unwrap() error {
	return e.Err
}

// RefParseError is returned when a ref is not a pull request ref.
type RefParseError struct {
	Ref string
}

func (e *RefParseError) Error() string {
	return fmt.Sprintf("could not extract PR number from %s %q", EnvRef, e.Ref)
}

// ConfigError lists every missing or invalid configuration value at once.
type ConfigError struct {
	// Missing holds the environment variable names of absent required values.
	Missing []string
	Invalid []string
}

func (e *ConfigError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing required configuration: "+strings.Join(e.Missing, ", "))
	}
	parts = append(parts, e.Invalid...)
	return strings.Join(parts, "; ")
}

// lines renders one message per problem, with a workflow hint for the token.
func (e *ConfigError) lines() []string {
	var out []string
	for _, m := range e.Missing {
		out = append(out, "env var not found: "+m)
		if m == EnvToken {
			out = append(out,
				"please ensure your workflow step includes",
				"    env:",
				"        GITHUB_TOKEN: ${{ secrets.GITHUB_TOKEN }}",
			)
		}
	}
	return append(out, e.Invalid...)
}

// Diagnostic turns an error returned by Checker.Run into the lines printed
// between the error banners.
func Diagnostic(err error) []string {
	if err == nil {
		return nil
	}
	var cerr *ConfigError
	if errors.As(err, &cerr) {
		return cerr.lines()
	}
	return strings.Split(err.Error(), "\n")
}
