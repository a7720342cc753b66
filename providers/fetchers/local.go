package fetchers

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// LocalFetcher reads files from a directory on disk, usually the checked out
// working tree of the pull request.
type LocalFetcher struct {
	// Root is the directory relative paths are resolved against. Empty means the current directory.
	Root string
}

// NewLocalFetcher constructs LocalFetcher rooted at dir.
func NewLocalFetcher(dir string) FileFetcher {
	return &LocalFetcher{Root: dir}
}

// FileContent reads the file at path. Absolute paths are used as is.
func (lf LocalFetcher) FileContent(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	full := path
	if !filepath.IsAbs(path) {
		full = filepath.Join(lf.Root, path)
	}

	b, err := os.ReadFile(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("unable to read '%s': %w", full, err)
	}
	return b, nil
}
