/*
Package packagist provides a client for the Composer repository metadata API
served by Packagist (and compatible private repositories).

Usage:

	cl, err := packagist.NewClient(nil, nil)
	published, err := cl.Published(ctx, "laravel/framework", "10.0.0")
*/
package packagist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// ErrNotFound is returned when the repository knows no such package.
var ErrNotFound = errors.New("not found on Packagist")

// packagistHostname - Composer metadata hostname (used as default API).
//
// Packagist is the main Composer repository. It aggregates public PHP packages installable with Composer.
// You can get more info on Packagist and it's official API here: packagist.org/apidoc
var packagistHostname = "https://repo.packagist.org"

// PackagistClient is used to send API requests to package repository
type PackagistClient struct {
	baseURL    url.URL
	HttpClient *http.Client
}

// NewClient creates and returns a new client
//
// If a nil URL is provided, default client is configured for default composer package repository (packagist.org).
func NewClient(httpClient *http.Client, URL *url.URL) (*PackagistClient, error) {
	if URL == nil {
		var err error
		if URL, err = url.Parse(packagistHostname); err != nil {
			return nil, err
		}
	}

	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &PackagistClient{baseURL: *URL, HttpClient: httpClient}, nil
}

// PackagesMeta represents meta response object.
type PackagesMeta struct {
	Packages map[string]PackageMeta `json:"packages"`
}

// PackageMeta represents packages container (it contains slice of versions).
//
// The v2 metadata ('/p2/') lists versions in an array, the legacy v1 one ('/p/')
// returns a map keyed by version. Both decode to the same ordered slice.
type PackageMeta []VersionMeta

// UnmarshalJSON is used in unmarshalling process to keep the original versions order.
//
// We basically use custom decoder to decode and transform key=>obj values into slice values.
func (pms *PackageMeta) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) < 1 {
		return fmt.Errorf("invalid slice length %d", len(data))
	}
	if data[0] == '[' {
		var result []VersionMeta
		if err := json.Unmarshal(data, &result); err != nil {
			return fmt.Errorf("PackageMeta custom unmarshaller failed: %w", err)
		}
		*pms = result
		return nil
	}

	d := json.NewDecoder(bytes.NewReader(data))
	t, err := d.Token()
	if err != nil {
		return fmt.Errorf("PackageMeta custom unmarshaller failed: %w", err)
	}
	if t != json.Delim('{') {
		// 'null' or a scalar: no versions listed.
		return nil
	}

	var result []VersionMeta
	for d.More() {
		_, err := d.Token()
		if err != nil {
			return fmt.Errorf("PackageMeta custom unmarshaller failed: %w", err)
		}
		var v VersionMeta
		if err := d.Decode(&v); err != nil {
			return fmt.Errorf("PackageMeta custom unmarshaller failed decoding token: %w", err)
		}
		result = append(result, v)
	}

	*pms = result
	return nil
}

// VersionMeta represents one released version.
type VersionMeta struct {
	Name              string `json:"name"`
	Description       string `json:"description"`
	Time              string `json:"time"`
	Version           string `json:"version"`
	VersionNormalized string `json:"version_normalized"`
}

// Meta fetches the released versions of package 'name' ('{vendor}/{package}').
func (c PackagistClient) Meta(ctx context.Context, name string) (*PackagesMeta, *http.Response, error) {
	vendor, pkg, ok := strings.Cut(name, "/")
	if !ok || vendor == "" || pkg == "" {
		return nil, nil, fmt.Errorf("package name must be formatted as '{vendor}/{package}', got %q", name)
	}

	route := fmt.Sprintf("%s/p2/%s/%s.json", strings.TrimSuffix(c.baseURL.String(), "/"), url.PathEscape(vendor), url.PathEscape(pkg))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, route, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to create a request: %w", err)
	}

	var pl PackagesMeta
	var r *http.Response
	if r, err = parseResponse(&c, req, &pl); err != nil {
		return nil, r, err
	}

	return &pl, r, nil
}

// Published reports whether 'version' of package 'name' exists in the repository.
// A leading 'v' is ignored on both sides, Composer tags are often prefixed.
func (c PackagistClient) Published(ctx context.Context, name, version string) (bool, error) {
	if version == "" {
		return false, fmt.Errorf("version is required and can't be empty")
	}

	meta, _, err := c.Meta(ctx, name)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	want := strings.TrimPrefix(version, "v")
	for _, v := range meta.Packages[name] {
		if strings.TrimPrefix(v.Version, "v") == want {
			return true, nil
		}
	}
	return false, nil
}

// errorResponse represents packagist error response
type errorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// parseResponse is used to execute the request and unmarshall the response to dt
func parseResponse(c *PackagistClient, req *http.Request, dt interface{}) (r *http.Response, err error) {
	if r, err = c.HttpClient.Do(req); err != nil {
		return nil, fmt.Errorf("unable to send a request: %w", err)
	}
	defer r.Body.Close()

	if r.StatusCode == http.StatusNotFound {
		return r, fmt.Errorf("%s: %w", req.URL.Path, ErrNotFound)
	}
	if r.StatusCode >= 400 {
		return r, fmt.Errorf("packagist responded with HTTP error '%d: %s'", r.StatusCode, http.StatusText(r.StatusCode))
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return r, fmt.Errorf("unable to read response body: %w", err)
	}

	// Handling error responses from packagist api
	var ersp errorResponse
	if perr := json.Unmarshal(body, &ersp); perr == nil && (ersp.Message != "" && ersp.Status != "") {
		return r, fmt.Errorf("packagist api responded with error '%s'", ersp.Message)
	}

	if err = json.Unmarshal(body, &dt); err != nil {
		return r, fmt.Errorf("unable to parse response: %w", err)
	}

	return r, nil
}
