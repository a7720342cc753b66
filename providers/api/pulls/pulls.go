/*
Package pulls provides a client for reading pull request details from the
GitHub REST API.

Usage:

	httpClient := pulls.NewTokenHTTPClient(ctx, os.Getenv("GITHUB_TOKEN"))
	client, err := pulls.NewClient(httpClient, nil, "owner", "repo")
	title, err := client.PullRequestTitle(ctx, 123)
*/
package pulls

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/google/go-github/v33/github"
	"golang.org/x/oauth2"
)

var (
	ErrPullRequestNotFound = errors.New("pull request not found")
)

// NewTokenHTTPClient returns an http client authenticating every request with token.
// An empty token yields an unauthenticated default client.
func NewTokenHTTPClient(ctx context.Context, token string) *http.Client {
	if token == "" {
		return http.DefaultClient
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return oauth2.NewClient(ctx, ts)
}

// NewClient constructs a new Client for the '{owner}/{repo}' repository.
//
// If httpClient is nil - http.DefaultClient is used. If URL is nil the public
// api.github.com endpoint is used; pass the GitHub Enterprise API root
// (e.g. 'https://ghe.example.com/api/v3') otherwise.
func NewClient(httpClient *http.Client, URL *url.URL, owner, repo string) (*Client, error) {
	if owner == "" || repo == "" {
		return nil, fmt.Errorf("repository owner and name are required, got %q/%q", owner, repo)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	gh := github.NewClient(httpClient)
	if URL != nil {
		base := *URL
		if !strings.HasSuffix(base.Path, "/") {
			base.Path += "/"
		}
		gh.BaseURL = &base
	}

	return &Client{gh: gh, Owner: owner, Repo: repo, prs: &prCache{}}, nil
}

// Client is used to communicate with the pull requests API of one repository.
//
// A pull request is loaded at most once per Client: title and head sha are
// served from the same response.
type Client struct {
	gh    *github.Client
	Owner string
	Repo  string
	prs   *prCache
}

// prCache keeps successfully loaded pull requests by number.
type prCache struct {
	mu  sync.Mutex
	byN map[int]*github.PullRequest
}

// GitHub returns the underlying go-github client, sharing its transport and base URL.
func (c Client) GitHub() *github.Client {
	return c.gh
}

// PullRequestTitle returns the title of pull request 'number'.
func (c Client) PullRequestTitle(ctx context.Context, number int) (string, error) {
	pr, err := c.get(ctx, number)
	if err != nil {
		return "", err
	}
	return pr.GetTitle(), nil
}

// HeadSHA returns the commit sha the pull request head currently points to.
func (c Client) HeadSHA(ctx context.Context, number int) (string, error) {
	pr, err := c.get(ctx, number)
	if err != nil {
		return "", err
	}
	sha := pr.GetHead().GetSHA()
	if sha == "" {
		return "", fmt.Errorf("pull request #%d has no head commit", number)
	}
	return sha, nil
}

func (c Client) get(ctx context.Context, number int) (*github.PullRequest, error) {
	if c.prs != nil {
		c.prs.mu.Lock()
		defer c.prs.mu.Unlock()
		if pr, ok := c.prs.byN[number]; ok {
			return pr, nil
		}
	}

	pr, resp, err := c.gh.PullRequests.Get(ctx, c.Owner, c.Repo, number)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%s/%s#%d: %w", c.Owner, c.Repo, number, ErrPullRequestNotFound)
		}
		return nil, fmt.Errorf("unable to load pull request #%d from github: %w", number, err)
	}

	if c.prs != nil {
		if c.prs.byN == nil {
			c.prs.byN = make(map[int]*github.PullRequest)
		}
		c.prs.byN[number] = pr
	}
	return pr, nil
}
