package parsers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dephub/versionguard/providers/fetchers"
)

// NewComposerParser constructs Composer files parser.
// If 'filename' parameter is an empty string - 'composer.json' will be used instead.
func NewComposerParser(fetcher fetchers.FileFetcher, filename string) ManifestParser {
	if filename == "" {
		filename = "composer.json"
	}
	return &ComposerParser{jsonManifest{fetcher: fetcher, SourceName: filename}}
}

// ComposerParser represents concrete Composer parser implementation.
type ComposerParser struct {
	jsonManifest
}

// NewNpmParser constructs package.json parser.
// If 'filename' parameter is an empty string - 'package.json' will be used instead.
func NewNpmParser(fetcher fetchers.FileFetcher, filename string) ManifestParser {
	if filename == "" {
		filename = "package.json"
	}
	return &NpmParser{jsonManifest{fetcher: fetcher, SourceName: filename}}
}

// NpmParser represents concrete npm (package.json) parser implementation.
type NpmParser struct {
	jsonManifest
}

// jsonManifest reads the top level "name" and "version" keys shared by composer.json and package.json.
type jsonManifest struct {
	fetcher fetchers.FileFetcher
	// SourceName is the source filename (e.g. 'composer.json')
	SourceName string
}

func (j jsonManifest) load(ctx context.Context) (name, version string, err error) {
	b, err := fetchManifest(ctx, j.fetcher, j.SourceName)
	if err != nil {
		return "", "", err
	}

	var doc struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	}
	if err := json.Unmarshal(b, &doc); err != nil {
		return "", "", fmt.Errorf("unable to parse %s content: %w", j.SourceName, err)
	}
	return doc.Name, doc.Version, nil
}

// DeclaredVersion returns the top level "version" value.
func (j jsonManifest) DeclaredVersion(ctx context.Context) (string, error) {
	_, version, err := j.load(ctx)
	if err != nil {
		return "", err
	}
	if version == "" {
		return "", fmt.Errorf("%s: %w", j.SourceName, ErrVersionNotDeclared)
	}
	return version, nil
}

// PackageName returns the top level "name" value ('vendor/package' for Composer).
func (j jsonManifest) PackageName(ctx context.Context) (string, error) {
	name, _, err := j.load(ctx)
	if err != nil {
		return "", err
	}
	if name == "" {
		return "", fmt.Errorf("%s: %w", j.SourceName, ErrNameNotDeclared)
	}
	return name, nil
}
