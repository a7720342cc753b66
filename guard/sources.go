package guard

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"strings"
	"sync"

	"github.com/dephub/versionguard/providers/api/pulls"
	"github.com/dephub/versionguard/providers/fetchers"
	"github.com/dephub/versionguard/providers/parsers"
)

// ManifestType represents manifest format flag.
type ManifestType string

// Available manifest formats
const (
	// PyProjectType represents Python's pyproject.toml.
	PyProjectType = ManifestType("pyproject")
	// ComposerType represents PHP's Composer composer.json.
	ComposerType = ManifestType("composer")
	// NpmType represents Node's package.json.
	NpmType = ManifestType("npm")
)

// manifestNames maps well known manifest file names to their format.
var manifestNames = map[string]ManifestType{
	"pyproject.toml": PyProjectType,
	"composer.json":  ComposerType,
	"package.json":   NpmType,
}

func (t ManifestType) supported() bool {
	switch t {
	case PyProjectType, ComposerType, NpmType:
		return true
	}
	return false
}

// DetectManifestType guesses the manifest format from its file name.
func DetectManifestType(manifestPath string) (ManifestType, error) {
	if typ, ok := manifestNames[path.Base(manifestPath)]; ok {
		return typ, nil
	}
	return "", fmt.Errorf("unable to detect manifest type of %q, set it explicitly", manifestPath)
}

// ManifestSource represents where the manifest is read from.
type ManifestSource string

// Available manifest sources
const (
	// SourceLocal reads the manifest from the checked out working tree.
	SourceLocal = ManifestSource("local")
	// SourceGitHub reads the manifest from the pull request head commit through the GitHub API.
	SourceGitHub = ManifestSource("github")
)

// gitRepoRgx is used to parse repository info from GIT-compatible address string.
//
// Examples matching the regexp:
//
//	'git@myhostname:vendor/reponame.git'
//	'https://myhostname/vendor/reponame.git' and so on...
//
// Groups:
//
//	6: hostname (e.g. 'github.com')
//	8: full repo name (e.g. 'vendor/reponame')
var gitRepoRgx = regexp.MustCompile(`^(((git@)|(git:|ssh:|(http[s]?:\/\/))))([\w\.@\\-~]+)(:|\/)([\w\.@\:\/\-~]+?)(\.git)?(\/)?$`)

// ParseRepository splits a repository identifier into owner and name.
// Both the '{owner}/{repo}' form of GITHUB_REPOSITORY and git remote addresses are accepted.
func ParseRepository(repository string) (owner, repo string, err error) {
	name := repository
	if m := gitRepoRgx.FindStringSubmatch(repository); m != nil {
		name = m[8]
	}

	parts := strings.Split(name, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("unsupported repository format %q, expected 'owner/repo'", repository)
	}
	return parts[0], parts[1], nil
}

// NewLocalManifest constructs a ManifestReader over the working tree at dir.
// An empty typ is detected from manifestPath.
func NewLocalManifest(dir, manifestPath string, typ ManifestType) (ManifestReader, error) {
	return solveParser(typ, fetchers.NewLocalFetcher(dir), manifestPath)
}

// NewGitHubManifest constructs a ManifestReader fetching the manifest from the
// head commit of pull request 'number'.
func NewGitHubManifest(client *pulls.Client, number int, manifestPath string, typ ManifestType) (ManifestReader, error) {
	if _, err := solveParser(typ, fetchers.ByteMapFetcher{}, manifestPath); err != nil {
		return nil, err
	}
	return &gitHubManifest{client: client, number: number, path: manifestPath, typ: typ}, nil
}

// gitHubManifest resolves the head sha only when the manifest is first read.
// The pull request and the manifest contents are each fetched once.
type gitHubManifest struct {
	client *pulls.Client
	number int
	path   string
	typ    ManifestType

	mu     sync.Mutex
	parsed parsers.ManifestParser
}

func (m *gitHubManifest) parser(ctx context.Context) (parsers.ManifestParser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.parsed != nil {
		return m.parsed, nil
	}

	sha, err := m.client.HeadSHA(ctx, m.number)
	if err != nil {
		return nil, err
	}

	fetcher := fetchers.NewGitHubFetcher(m.client.GitHub(), m.client.Owner, m.client.Repo, sha)
	parser, err := solveParser(m.typ, fetchers.NewCachingFetcher(fetcher), m.path)
	if err != nil {
		return nil, err
	}
	m.parsed = parser
	return parser, nil
}

func (m *gitHubManifest) DeclaredVersion(ctx context.Context) (string, error) {
	parser, err := m.parser(ctx)
	if err != nil {
		return "", err
	}
	return parser.DeclaredVersion(ctx)
}

func (m *gitHubManifest) PackageName(ctx context.Context) (string, error) {
	parser, err := m.parser(ctx)
	if err != nil {
		return "", err
	}
	return parser.PackageName(ctx)
}

// solveParser - helper to get configured manifest parser
func solveParser(typ ManifestType, fetcher fetchers.FileFetcher, manifestPath string) (parsers.ManifestParser, error) {
	if typ == "" {
		var err error
		if typ, err = DetectManifestType(manifestPath); err != nil {
			return nil, err
		}
	}

	switch typ {
	case PyProjectType:
		return parsers.NewPyProjectParser(fetcher, manifestPath), nil
	case ComposerType:
		return parsers.NewComposerParser(fetcher, manifestPath), nil
	case NpmType:
		return parsers.NewNpmParser(fetcher, manifestPath), nil
	}
	return nil, fmt.Errorf("unsupported manifest type %q", typ)
}
