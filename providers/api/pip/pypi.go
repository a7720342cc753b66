/*
Package pip provides a client for the PyPI JSON API, used to find out whether a
release of a package has already been published.

Usage:

	pypi := pip.NewPyPiClient(nil, nil)
	published, err := pypi.Published(ctx, "requests", "2.31.0")
*/
package pip

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// ErrNotFound is returned when PyPI knows no such package or release.
var ErrNotFound = errors.New("not found on PyPI")

// pyPiHostname - PyPI API hostname (used as default API).
var pyPiHostname = "https://pypi.org"

// NewPyPiClient constructs a new PyPiClient
//
// If httpClient or URL is nil - default values will be used.
// Pass URL only if you are sure that the address is compatible with PyPI JSON API
// (e.g. a devpi or Artifactory mirror).
func NewPyPiClient(httpClient *http.Client, URL *url.URL) *PyPiClient {
	if URL == nil {
		URL, _ = url.Parse(pyPiHostname)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &PyPiClient{httpClient: httpClient, baseURL: *URL}
}

// PyPiClient is used to communicate with PyPI compatible API service.
type PyPiClient struct {
	httpClient *http.Client
	baseURL    url.URL
}

// Release fetches the metadata of one release of a package.
func (pc PyPiClient) Release(ctx context.Context, name, version string) (*PipPackage, *http.Response, error) {
	if name == "" || version == "" {
		return nil, nil, fmt.Errorf("package name and version are required and can't be empty")
	}

	base := strings.TrimSuffix(pc.baseURL.String(), "/")
	path := fmt.Sprintf("%s/pypi/%s/%s/json", base, url.PathEscape(name), url.PathEscape(version))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to create a request: %w", err)
	}
	resp, err := pc.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to send the request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, resp, fmt.Errorf("%s %s: %w", name, version, ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return nil, resp, fmt.Errorf("PyPI responded with HTTP error '%d: %s'", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp, fmt.Errorf("unable to read the response body: %w", err)
	}

	pp := PipPackage{}
	if err = json.Unmarshal(body, &pp); err != nil {
		return nil, resp, fmt.Errorf("unable to parse the response body: %w", err)
	}

	return &pp, resp, nil
}

// Published reports whether 'version' of package 'name' exists on the index.
func (pc PyPiClient) Published(ctx context.Context, name, version string) (bool, error) {
	if _, _, err := pc.Release(ctx, name, version); err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// PipPackage represents the release metadata returned by PyPI.
// Only the info block is decoded.
type PipPackage struct {
	Info PipPackageInfo `json:"info"`
}

// PipPackageInfo represents release information data.
type PipPackageInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Yanked  bool   `json:"yanked"`
}
