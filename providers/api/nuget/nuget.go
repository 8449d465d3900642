/*
Package nuget provides a client for the NuGet V3 server API.

Only the read-only resources needed to enumerate package versions are implemented:
the service index, the package base address (flat container) and the search
autocomplete service. You can get more info on the protocol here: learn.microsoft.com/nuget/api/overview
*/
package nuget

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/gonkers/pkgtools/providers/api"
	"github.com/google/go-querystring/query"
)

// nugetIndexURL - nuget.org service index (used as default API).
var nugetIndexURL string = "https://api.nuget.org/v3/index.json"

// Resource types this client understands, newest first.
var (
	PackageBaseAddressTypes = []string{"PackageBaseAddress/3.0.0"}
	AutocompleteTypes       = []string{
		"SearchAutocompleteService/3.5.0",
		"SearchAutocompleteService/3.0.0-rc",
		"SearchAutocompleteService/3.0.0-beta",
		"SearchAutocompleteService",
	}
)

// NuGetClient is used to send API requests to a NuGet V3 feed.
type NuGetClient struct {
	indexURL   url.URL
	HttpClient *http.Client
}

// NewClient creates and returns a new client.
//
// URL is the feed service index (e.g. 'https://api.nuget.org/v3/index.json').
// If a nil URL is provided, the client is configured for nuget.org.
func NewClient(httpClient *http.Client, URL *url.URL) (*NuGetClient, error) {
	if URL == nil {
		var err error
		if URL, err = url.Parse(nugetIndexURL); err != nil {
			return nil, err
		}
	}

	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &NuGetClient{indexURL: *URL, HttpClient: httpClient}, nil
}

// ServiceIndex represents the entry point document of a V3 feed.
type ServiceIndex struct {
	Version   string     `json:"version"`
	Resources []Resource `json:"resources"`
}

// Resource represents one service index resource.
type Resource struct {
	ID      string `json:"@id"`
	Type    string `json:"@type"`
	Comment string `json:"comment,omitempty"`
}

// Resource returns the first resource matching one of types, types are checked in order.
func (si ServiceIndex) Resource(types ...string) (Resource, bool) {
	for _, typ := range types {
		for _, r := range si.Resources {
			if strings.EqualFold(r.Type, typ) && r.ID != "" {
				return r, true
			}
		}
	}
	return Resource{}, false
}

// Index fetches the service index.
func (c NuGetClient) Index(ctx context.Context) (*ServiceIndex, *http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.indexURL.String(), nil)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to create a request: %w", err)
	}

	var si ServiceIndex
	var r *http.Response
	if r, err = parseResponse(&c, req, &si); err != nil {
		return nil, r, err
	}

	return &si, r, nil
}

// VersionsList represents the flat container versions document.
type VersionsList struct {
	Versions []string `json:"versions"`
}

// Versions lists every version of a package from the package base address resource.
//
// The id is lowercased as required by the flat container. An unknown package
// results in an error matching api.ErrNotFound.
func (c NuGetClient) Versions(ctx context.Context, baseAddress, id string) (*VersionsList, *http.Response, error) {
	if id == "" {
		return nil, nil, fmt.Errorf("package id is required and can't be empty")
	}

	route := fmt.Sprintf("%s/%s/index.json", strings.TrimSuffix(baseAddress, "/"), url.PathEscape(strings.ToLower(id)))
	req, err := http.NewRequestWithContext(ctx, "GET", route, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to create a request: %w", err)
	}

	var vl VersionsList
	var r *http.Response
	if r, err = parseResponse(&c, req, &vl); err != nil {
		return nil, r, err
	}

	return &vl, r, nil
}

// AutocompleteOptions specifies the parameters to Autocomplete() method.
type AutocompleteOptions struct {
	// ID switches the service into version listing mode for this package.
	ID string `url:"id"`
	// Prerelease includes pre-release versions.
	Prerelease bool `url:"prerelease"`
	// SemVerLevel opts into SemVer 2.0.0 versions.
	SemVerLevel string `url:"semVerLevel,omitempty"`
}

// AutocompleteResult represents the autocomplete response.
type AutocompleteResult struct {
	TotalHits int      `json:"totalHits"`
	Data      []string `json:"data"`
}

// Autocomplete queries the search autocomplete service in version listing mode.
func (c NuGetClient) Autocomplete(ctx context.Context, endpoint string, opts *AutocompleteOptions) (*AutocompleteResult, *http.Response, error) {
	if opts == nil || opts.ID == "" {
		return nil, nil, fmt.Errorf("'id' option is required for autocomplete request")
	}

	v, err := query.Values(opts)
	if err != nil {
		return nil, nil, fmt.Errorf("error parsing the options: %w", err)
	}

	route := fmt.Sprintf("%s?%s", endpoint, v.Encode())
	req, err := http.NewRequestWithContext(ctx, "GET", route, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to create a request: %w", err)
	}

	var ar AutocompleteResult
	var r *http.Response
	if r, err = parseResponse(&c, req, &ar); err != nil {
		return nil, r, err
	}

	return &ar, r, nil
}

// AllVersions returns every published version string of a package.
//
// The package base address resource is preferred, the autocomplete service is used
// when the feed does not expose one. A package that was never published yields an
// empty slice.
func (c NuGetClient) AllVersions(ctx context.Context, id string) ([]string, error) {
	si, _, err := c.Index(ctx)
	if errors.Is(err, api.ErrNotFound) {
		return nil, fmt.Errorf("%w: %w", api.ErrProtocol, err)
	}
	if err != nil {
		return nil, err
	}

	if res, ok := si.Resource(PackageBaseAddressTypes...); ok {
		vl, _, err := c.Versions(ctx, res.ID, id)
		if errors.Is(err, api.ErrNotFound) {
			return []string{}, nil
		}
		if err != nil {
			return nil, err
		}
		return vl.Versions, nil
	}

	if res, ok := si.Resource(AutocompleteTypes...); ok {
		ar, _, err := c.Autocomplete(ctx, res.ID, &AutocompleteOptions{ID: id, Prerelease: true, SemVerLevel: "2.0.0"})
		if err != nil {
			return nil, err
		}
		return ar.Data, nil
	}

	return nil, fmt.Errorf("%w: service index %s exposes neither %s nor %s",
		api.ErrProtocol, &c.indexURL, PackageBaseAddressTypes[0], AutocompleteTypes[0])
}

// parseResponse is used to execute the request and unmarshall the response to dt
func parseResponse(c *NuGetClient, req *http.Request, dt interface{}) (r *http.Response, err error) {
	if req.Header == nil {
		req.Header = http.Header{}
	}
	req.Header.Set("User-Agent", api.UserAgent())
	req.Header.Set("Accept", "application/json")

	if r, err = c.HttpClient.Do(req); err != nil {
		return nil, fmt.Errorf("%w: unable to send a request: %w", api.ErrUnreachable, err)
	}
	defer r.Body.Close()

	if err = api.StatusError("nuget feed", r.StatusCode); err != nil {
		return r, err
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return r, fmt.Errorf("%w: unable to read response body: %w", api.ErrUnreachable, err)
	}

	if err = json.Unmarshal(body, dt); err != nil {
		return r, fmt.Errorf("%w: unable to parse response: %w", api.ErrProtocol, err)
	}

	return r, nil
}
