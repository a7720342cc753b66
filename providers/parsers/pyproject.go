package parsers

import (
	"context"
	"fmt"

	"github.com/pelletier/go-toml/v2"

	"github.com/dephub/versionguard/providers/fetchers"
)

// NewPyProjectParser constructs pyproject.toml parser.
// If 'filename' parameter is an empty string - 'pyproject.toml' will be used instead.
func NewPyProjectParser(fetcher fetchers.FileFetcher, filename string) ManifestParser {
	if filename == "" {
		return &PyProjectParser{fetcher: fetcher, SourceName: "pyproject.toml"}
	}
	return &PyProjectParser{fetcher: fetcher, SourceName: filename}
}

// PyProjectParser represents concrete pyproject.toml parser implementation.
type PyProjectParser struct {
	fetcher fetchers.FileFetcher
	// SourceName is the source filename (e.g. 'pyproject.toml')
	SourceName string
}

// pyProject holds the parts of pyproject.toml that may carry the version.
type pyProject struct {
	Project struct {
		Name    string `toml:"name"`
		Version string `toml:"version"`
	} `toml:"project"`
	Tool struct {
		Poetry struct {
			Name    string `toml:"name"`
			Version string `toml:"version"`
		} `toml:"poetry"`
	} `toml:"tool"`
}

func (p PyProjectParser) load(ctx context.Context) (*pyProject, error) {
	b, err := fetchManifest(ctx, p.fetcher, p.SourceName)
	if err != nil {
		return nil, err
	}

	var doc pyProject
	if err := toml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("unable to parse %s content: %w", p.SourceName, err)
	}
	return &doc, nil
}

// DeclaredVersion returns '[project].version', falling back to '[tool.poetry].version'.
func (p PyProjectParser) DeclaredVersion(ctx context.Context) (string, error) {
	doc, err := p.load(ctx)
	if err != nil {
		return "", err
	}

	switch {
	case doc.Project.Version != "":
		return doc.Project.Version, nil
	case doc.Tool.Poetry.Version != "":
		return doc.Tool.Poetry.Version, nil
	}
	return "", fmt.Errorf("%s: %w", p.SourceName, ErrVersionNotDeclared)
}

// PackageName returns '[project].name', falling back to '[tool.poetry].name'.
func (p PyProjectParser) PackageName(ctx context.Context) (string, error) {
	doc, err := p.load(ctx)
	if err != nil {
		return "", err
	}

	switch {
	case doc.Project.Name != "":
		return doc.Project.Name, nil
	case doc.Tool.Poetry.Name != "":
		return doc.Tool.Poetry.Name, nil
	}
	return "", fmt.Errorf("%s: %w", p.SourceName, ErrNameNotDeclared)
}
