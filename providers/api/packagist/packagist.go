/*
Package packagist provides a client for the Composer repository metadata API.

Packagist is the main Composer repository. It aggregates public PHP packages installable with Composer.
You can get more info on Packagist and it's official API here: packagist.org/apidoc
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

	"github.com/gonkers/pkgtools/providers/api"
)

// packagistHostname - Composer v2 metadata mirror of packagist.org (used as default API).
var packagistHostname string = "https://repo.packagist.org"

// PackagistClient is used to send API requests to package repository
type PackagistClient struct {
	baseURL    url.URL
	HttpClient *http.Client
}

// NewClient creates and returns a new client
//
// If a nil URL isprovided, default client is configured for default composer package repository (packagist.org).
func NewClient(httpClient *http.Client, URL *url.URL) (*PackagistClient, error) {
	// Generate Packagist.org default client if no URL provided.
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
	Minified string                 `json:"minified,omitempty"`
}

// PackageMeta represents packages container (it contains slice of versions).
//
// Composer v1 metadata ('/p/') keys versions by name, v2 metadata ('/p2/') lists them in an array.
// Both are decoded into a slice keeping the original order.
type PackageMeta []VersionMeta

// UnmarshalJSON is used in unmarshalling process to keep the original versions order.
//
// We basically use custom decoder to decode and transform key=>obj values into slice values.
func (pms *PackageMeta) UnmarshalJSON(data []byte) error {
	if len(data) < 1 {
		return fmt.Errorf("invalid slice length %d", len(data))
	}

	d := json.NewDecoder(bytes.NewReader(data))
	t, err := d.Token()
	if err != nil {
		return fmt.Errorf("PackageMeta custom unmarshaller failed: %w", err)
	}
	if t != json.Delim('{') && t != json.Delim('[') {
		return fmt.Errorf("PackageMeta custom unmarshaller failed: unexpected token %v", t)
	}
	keyed := t == json.Delim('{')

	result := []VersionMeta{}
	for d.More() {
		if keyed {
			if _, err := d.Token(); err != nil {
				return fmt.Errorf("PackageMeta custom unmarshaller failed: %w", err)
			}
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

// VersionMeta represents versions container.
type VersionMeta struct {
	Name              string `json:"name"`
	Description       string `json:"description"`
	Version           string `json:"version"`
	VersionNormalized string `json:"version_normalized"`
	Time              string `json:"time"`
	Type              string `json:"type"`
}

// Meta method is used to fetch package metadata (Composer v2 '/p2/' format).
//
// Set dev to load the development branches ('~dev') file instead of tagged releases.
func (c PackagistClient) Meta(ctx context.Context, vendor, pkg string, dev bool) (*PackagesMeta, *http.Response, error) {
	if vendor == "" || pkg == "" {
		return nil, nil, fmt.Errorf("'package' and 'vendor' options are required for meta request")
	}

	suffix := ""
	if dev {
		suffix = "~dev"
	}

	route := fmt.Sprintf("%s/p2/%s/%s%s.json", &c.baseURL, url.PathEscape(vendor), url.PathEscape(pkg), suffix)
	req, err := http.NewRequestWithContext(ctx, "GET", route, nil)
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

// AllVersions returns every tagged version string of a '{vendor}/{package}' package.
// A package unknown to the repository yields an empty slice.
func (c PackagistClient) AllVersions(ctx context.Context, name string) ([]string, error) {
	name = strings.ToLower(name)
	parts := strings.Split(name, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, fmt.Errorf("package name %q is not in '{vendor}/{package}' form", name)
	}

	meta, _, err := c.Meta(ctx, parts[0], parts[1], false)
	if errors.Is(err, api.ErrNotFound) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}

	versions := []string{}
	for _, v := range meta.Packages[name] {
		versions = append(versions, v.Version)
	}
	return versions, nil
}

// errorResponse represents packagist error response
type errorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// parseResponse is used to execute the request and unmarshall the response to dt
func parseResponse(c *PackagistClient, req *http.Request, dt interface{}) (r *http.Response, err error) {
	if req.Header == nil {
		req.Header = http.Header{}
	}
	req.Header.Set("User-Agent", api.UserAgent())

	if r, err = c.HttpClient.Do(req); err != nil {
		return nil, fmt.Errorf("%w: unable to send a request: %w", api.ErrUnreachable, err)
	}
	defer r.Body.Close()

	if err = api.StatusError("packagist", r.StatusCode); err != nil {
		return r, err
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return r, fmt.Errorf("%w: unable to read response body: %w", api.ErrUnreachable, err)
	}

	// Handling error responses from packagist api
	var ersp errorResponse
	if perr := json.Unmarshal(body, &ersp); perr == nil && (ersp.Message != "" && ersp.Status != "") {
		return r, fmt.Errorf("%w: packagist api responded with error '%s'", api.ErrProtocol, ersp.Message)
	}

	if err = json.Unmarshal(body, dt); err != nil {
		return r, fmt.Errorf("%w: unable to parse response: %w", api.ErrProtocol, err)
	}

	return r, nil
}
