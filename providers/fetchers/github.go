/*
Package fetchers provides file fetching functions for local and remote repositories.

Manifests are read either from the checked out working tree (LocalFetcher) or
straight from GitHub at a given commit (GitHubFetcher).
*/
package fetchers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/google/go-github/v33/github"
)

var (
	ErrFileNotFound = errors.New("manifest file not found")
)

// FileFetcher interface defines fetchers methods.
type FileFetcher interface {
	FileContent(ctx context.Context, path string) ([]byte, error)
}

// NewCachingFetcher wraps next so that every path is fetched from it at most
// once. Failed fetches are not remembered.
func NewCachingFetcher(next FileFetcher) *CachingFetcher {
	return &CachingFetcher{next: next, files: make(map[string][]byte)}
}

// CachingFetcher memoizes the file contents returned by another fetcher.
type CachingFetcher struct {
	next  FileFetcher
	mu    sync.Mutex
	files map[string][]byte
}

// FileContent returns the remembered contents of path, fetching them on first use.
func (cf *CachingFetcher) FileContent(ctx context.Context, path string) ([]byte, error) {
	cf.mu.Lock()
	defer cf.mu.Unlock()

	if b, ok := cf.files[path]; ok {
		return b, nil
	}
	b, err := cf.next.FileContent(ctx, path)
	if err != nil {
		return nil, err
	}
	cf.files[path] = b
	return b, nil
}

// ByteMapFetcher is used for storing file contents in memory (useful for debugging/testing).
type ByteMapFetcher struct {
	Files map[string][]byte
}

// FileContent retrieves (if found) []byte contents from its map using path argument as a key.
func (sf ByteMapFetcher) FileContent(ctx context.Context, path string) ([]byte, error) {
	v, ok := sf.Files[path]
	if !ok {
		return nil, ErrFileNotFound
	}
	return v, nil
}

// GitHubFetcher fetches files from the specified repository at a fixed ref.
// Owner and Repo represent '{owner}/{repo}' notation.
type GitHubFetcher struct {
	Owner        string
	Repo         string
	SHA          string
	githubClient *github.Client
}

// NewGitHubFetcher constructs GitHubFetcher on top of an already authenticated client.
// SHA can both refer to commit hash/branch/tag.
func NewGitHubFetcher(client *github.Client, owner, repo, sha string) FileFetcher {
	return &GitHubFetcher{
		Owner:        owner,
		Repo:         repo,
		SHA:          sha,
		githubClient: client,
	}
}

// FileContent fetches specified file content from the configured repository.
// Path argument is the root-related file path.
func (p GitHubFetcher) FileContent(ctx context.Context, path string) ([]byte, error) {
	opts := github.RepositoryContentGetOptions{
		Ref: p.SHA,
	}

	rc, dc, resp, err := p.githubClient.Repositories.GetContents(ctx, p.Owner, p.Repo, path, &opts)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("unable to load '%s' file from github: %w", path, err)
	}

	if len(dc) != 0 || rc == nil {
		return nil, fmt.Errorf("parameter is a directory or not a valid file")
	}

	c, err := rc.GetContent()

	return []byte(c), err
}
