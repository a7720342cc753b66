/*
Package parsers provides readers for the version declared by every supported
project manifest file.

Goals:
  - Extract the declared version string from a manifest, untouched
  - Extract the package name the manifest is published under
*/
package parsers

import (
	"context"
	"errors"
	"fmt"

	"github.com/dephub/versionguard/providers/fetchers"
)

var (
	ErrFileNotFound       = errors.New("file not found")
	ErrVersionNotDeclared = errors.New("manifest does not declare a version")
	ErrNameNotDeclared    = errors.New("manifest does not declare a package name")
)

// ManifestParser represents basic interface for parsers in this package.
type ManifestParser interface {
	// DeclaredVersion returns the raw version string of the manifest, exactly as written.
	DeclaredVersion(context.Context) (string, error)
	// PackageName returns the name the package is published under.
	PackageName(context.Context) (string, error)
}

// fetchManifest loads the manifest through the fetcher translating the fetcher's
// not found error into the package one.
func fetchManifest(ctx context.Context, fetcher fetchers.FileFetcher, name string) ([]byte, error) {
	b, err := fetcher.FileContent(ctx, name)
	if err != nil {
		if errors.Is(err, fetchers.ErrFileNotFound) {
			return nil, fmt.Errorf("%s: %w", name, ErrFileNotFound)
		}
		return nil, fmt.Errorf("unable to fetch %s from the source: %w", name, err)
	}
	return b, nil
}
