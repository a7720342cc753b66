/*
Package guard checks that the version declared in a project manifest matches
the version a pull request is expected to release.

The expected version is the latest 'v<major>.<minor>.<patch>' git tag bumped
according to the marker found in the pull request title ('[major]', '[minor]',
'[patch]' or '[notag]'). The comparison is textual: the manifest has to declare
exactly 'major.minor.patch'.

With Config.RegistryCheck set, a matching release is also looked up on PyPI
or Packagist and the check fails when it has already been published.

Usage:

	cfg := guard.DefaultConfig()
	cfg.ApplyEnv(os.LookupEnv)

	res, err := guard.New(cfg, guard.WithLogger(logger)).Run(ctx)
	if err != nil {
		// print guard.Diagnostic(err), exit 1
	}
	os.Exit(res.ExitCode())
*/
package guard

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/dephub/versionguard/providers/api/pulls"
	"github.com/dephub/versionguard/providers/git"
	"github.com/dephub/versionguard/providers/versioneer"
)

// ManifestReader reads the version declared by the project manifest.
type ManifestReader interface {
	DeclaredVersion(ctx context.Context) (string, error)
}

// TagReader reads the most recent release tag (e.g. 'v1.2.3').
type TagReader interface {
	LatestTag(ctx context.Context) (string, error)
}

// TitleReader reads the title of a pull request.
type TitleReader interface {
	PullRequestTitle(ctx context.Context, number int) (string, error)
}

// Outcome is the terminal state of a check run.
type Outcome int

// Available outcomes
const (
	// OutcomeSkip means the check does not apply (trunk branch).
	OutcomeSkip Outcome = iota
	// OutcomeMatch means the declared and expected versions agree.
	OutcomeMatch
	// OutcomeMismatch means the declared version is not the expected one.
	OutcomeMismatch
	// OutcomePublished means the expected version is declared but already released on the package registry.
	OutcomePublished
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSkip:
		return "skip"
	case OutcomeMatch:
		return "match"
	case OutcomeMismatch:
		return "mismatch"
	case OutcomePublished:
		return "published"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Result represents the outcome of one check run.
type Result struct {
	Outcome Outcome
	// Manifest is the manifest path the declared version was read from.
	Manifest string
	// Declared is the version found in the manifest, as written.
	Declared string
	// Expected is the version the pull request has to declare.
	Expected string
	// Previous is the latest release tag without its 'v' prefix.
	Previous    string
	Title       string
	PullRequest int
	// Package and Registry are set when the registry check ran.
	Package  string
	Registry string
}

// ExitCode returns the process exit code for the result.
func (r Result) ExitCode() int {
	switch r.Outcome {
	case OutcomeMismatch, OutcomePublished:
		return 1
	}
	return 0
}

// Diagnostic returns the lines explaining a failed outcome, or nil for any other outcome.
func (r Result) Diagnostic() []string {
	switch r.Outcome {
	case OutcomeMismatch:
		return []string{
			fmt.Sprintf("Version value in %s does not match expected version", r.Manifest),
			fmt.Sprintf("Declared version      : %s", r.Declared),
			fmt.Sprintf("Next expected version : %s", r.Expected),
			"Aborting.",
		}
	case OutcomePublished:
		return []string{
			fmt.Sprintf("Version %s of %s is already published on %s", r.Declared, r.Package, r.Registry),
			"Aborting.",
		}
	}
	return nil
}

// Option configures a Checker.
type Option func(*Checker)

// WithManifestReader replaces the manifest reader built from the config.
func WithManifestReader(r ManifestReader) Option {
	return func(c *Checker) { c.manifest = r }
}

// WithTagReader replaces the git tag reader built from the config.
func WithTagReader(r TagReader) Option {
	return func(c *Checker) { c.tags = r }
}

// WithTitleReader replaces the GitHub pull request reader built from the config.
func WithTitleReader(r TitleReader) Option {
	return func(c *Checker) { c.titles = r }
}

// WithLogger sets the logger informational and debug lines are written to.
func WithLogger(l *slog.Logger) Option {
	return func(c *Checker) { c.logger = l }
}

// WithRegistry replaces the package registry built from the config.
func WithRegistry(r Registry) Option {
	return func(c *Checker) { c.registry = r }
}

// WithHTTPClient sets the http client used for GitHub API calls.
// The client must carry its own credentials; Config.Token is not applied to it.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Checker) { c.httpClient = hc }
}

// Checker runs the version consistency check for one ref.
type Checker struct {
	cfg        Config
	manifest   ManifestReader
	tags       TagReader
	titles     TitleReader
	registry   Registry
	logger     *slog.Logger
	httpClient *http.Client
}

// New constructs a Checker. Readers not supplied through options are built
// from cfg when Run needs them.
func New(cfg Config, opts ...Option) *Checker {
	c := &Checker{cfg: cfg}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c
}

// Run performs the check. Any error is terminal: the caller reports it and fails the build.
func (c *Checker) Run(ctx context.Context) (Result, error) {
	if err := c.cfg.Validate(); err != nil {
		return Result{}, err
	}

	if IsTrunk(c.cfg.Ref, c.cfg.TrunkBranch) {
		c.logger.Info(fmt.Sprintf("%s branch detected", c.cfg.TrunkBranch))
		return Result{Outcome: OutcomeSkip}, nil
	}

	if err := c.cfg.validateInputs(); err != nil {
		return Result{}, err
	}

	number, err := ParsePullRequestRef(c.cfg.Ref)
	if err != nil {
		return Result{}, err
	}

	if err := c.resolve(ctx, number); err != nil {
		return Result{}, err
	}

	res := Result{Manifest: c.cfg.ManifestPath, PullRequest: number}

	res.Declared, err = c.manifest.DeclaredVersion(ctx)
	if err != nil {
		return Result{}, &CollaboratorError{Collaborator: CollaboratorManifest, Err: err}
	}

	rawTag, err := c.tags.LatestTag(ctx)
	if err != nil {
		return Result{}, &CollaboratorError{Collaborator: CollaboratorTag, Err: err}
	}

	res.Title, err = c.titles.PullRequestTitle(ctx, number)
	if err != nil {
		return Result{}, &CollaboratorError{Collaborator: CollaboratorPullRequest, Err: err}
	}

	current, err := versioneer.ParseTag(rawTag)
	if err != nil {
		return Result{}, err
	}
	res.Previous = current.String()

	expected, err := versioneer.NextVersion(current, res.Title)
	if err != nil {
		return Result{}, err
	}
	res.Expected = expected.String()

	c.logger.Debug("")
	c.logger.Debug(fmt.Sprintf("pr title             : '%s'", res.Title))
	c.logger.Debug(fmt.Sprintf("previous tag version : %s", res.Previous))
	c.logger.Debug(fmt.Sprintf("next tag version     : %s", res.Expected))
	c.logger.Debug("")

	if res.Declared != res.Expected {
		res.Outcome = OutcomeMismatch
		return res, nil
	}

	res.Outcome = OutcomeMatch
	// A [notag] pull request keeps the released version, nothing new gets published.
	if c.cfg.RegistryCheck && res.Expected != res.Previous {
		if err := c.checkPublished(ctx, &res); err != nil {
			return Result{}, err
		}
		if res.Outcome == OutcomePublished {
			return res, nil
		}
	}

	c.logger.Info(fmt.Sprintf("NEXT VERSION MATCHES %s VERSION: %s", res.Manifest, res.Expected))
	return res, nil
}

// resolve builds the readers that were not injected.
func (c *Checker) resolve(ctx context.Context, number int) error {
	needClient := c.titles == nil || (c.manifest == nil && c.cfg.ManifestSource == SourceGitHub)

	var client *pulls.Client
	if needClient {
		var err error
		if client, err = c.pullsClient(ctx); err != nil {
			return err
		}
	}

	if c.titles == nil {
		c.titles = client
	}
	if c.tags == nil {
		c.tags = git.NewDescriber(c.cfg.WorkDir, c.cfg.TagMatch, nil)
	}
	if c.manifest == nil {
		var err error
		switch c.cfg.ManifestSource {
		case SourceGitHub:
			c.manifest, err = NewGitHubManifest(client, number, c.cfg.ManifestPath, c.cfg.ManifestType)
		default:
			c.manifest, err = NewLocalManifest(c.cfg.WorkDir, c.cfg.ManifestPath, c.cfg.ManifestType)
		}
		if err != nil {
			return &CollaboratorError{Collaborator: CollaboratorManifest, Err: err}
		}
	}
	return nil
}

func (c *Checker) pullsClient(ctx context.Context) (*pulls.Client, error) {
	owner, repo, err := ParseRepository(c.cfg.Repository)
	if err != nil {
		return nil, err
	}

	var base *url.URL
	if c.cfg.APIURL != "" {
		if base, err = url.Parse(c.cfg.APIURL); err != nil {
			return nil, fmt.Errorf("invalid GitHub API url %q: %w", c.cfg.APIURL, err)
		}
	}

	hc := c.httpClient
	if hc == nil {
		hc = pulls.NewTokenHTTPClient(ctx, c.cfg.Token)
	}
	return pulls.NewClient(hc, base, owner, repo)
}
