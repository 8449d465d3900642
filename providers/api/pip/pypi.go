/*
Package pip provides a client for the PyPI JSON API.
*/
package pip

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/gonkers/pkgtools/providers/api"
)

// pyPiBaseURL - PyPi base API url (used as default client baseURL)
var pyPiBaseURL *url.URL

// pyPiHostname - PyPi API hostname (used as default API).
var pyPiHostname string = "https://pypi.org"

func init() {
	pyPiBaseURL, _ = url.Parse(pyPiHostname)
}

// NewPyPiClient constructs a new PyPiClient
//
// If httpClient or URL is nil - default values will be used.
// Pass URL only if you are sure that the address is compatible with PyPi public API.
func NewPyPiClient(httpClient *http.Client, URL *url.URL) *PyPiClient {
	if URL == nil {
		URL = pyPiBaseURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &PyPiClient{httpClient: httpClient, baseUrl: *URL}
}

// PyPiClient is used to communicate with PyPi compatible API service.
type PyPiClient struct {
	httpClient *http.Client
	baseUrl    url.URL
}

// Package method is used to get information about packages, their versions and metadata.
//
// This method is identical to the 'release' one, so i'm keeping it for
// resemblance with API routes and as a shortut for the Release()
func (pc PyPiClient) Package(ctx context.Context, name string) (*PipPackage, *http.Response, error) {
	return pc.Release(ctx, name, "")
}

// Release method is used to get information about packages, their versions and metadata.
//
// Version argument is optional.
func (pc PyPiClient) Release(ctx context.Context, name, version string) (*PipPackage, *http.Response, error) {
	if name == "" {
		return nil, nil, fmt.Errorf("pacakge name is required and can't be empty")
	}

	var path string
	if version == "" {
		path = fmt.Sprintf("%s/pypi/%s/json", &pc.baseUrl, url.PathEscape(name))
	} else {
		path = fmt.Sprintf("%s/pypi/%s/%s/json", &pc.baseUrl, url.PathEscape(name), url.PathEscape(version))
	}

	req, err := http.NewRequestWithContext(ctx, "GET", path, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to create a request: %w", err)
	}
	req.Header.Set("User-Agent", api.UserAgent())

	resp, err := pc.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: unable to send the request: %w", api.ErrUnreachable, err)
	}
	defer resp.Body.Close()
	if err = api.StatusError("pypi", resp.StatusCode); err != nil {
		return nil, resp, err
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp, fmt.Errorf("%w: unable to read the response body: %w", api.ErrUnreachable, err)
	}

	pp := PipPackage{}
	if err = json.Unmarshal(body, &pp); err != nil {
		return nil, resp, fmt.Errorf("%w: unable to parse the response body: %w", api.ErrProtocol, err)
	}

	return &pp, resp, nil
}

// AllVersions returns every release version of a package, yanked ones included.
// A package unknown to the index yields an empty slice.
func (pc PyPiClient) AllVersions(ctx context.Context, name string) ([]string, error) {
	pp, _, err := pc.Package(ctx, name)
	if errors.Is(err, api.ErrNotFound) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}

	versions := make([]string, 0, len(pp.Releases))
	for _, r := range pp.Releases {
		versions = append(versions, r.Version)
	}
	return versions, nil
}

// PipPackage represents package metadata from PyPi.
type PipPackage struct {
	Info       PipPackageInfo     `json:"info"`
	LastSerial int                `json:"last_serial"`
	Releases   PipPackageVersions `json:"releases"`
}

// PipPackageInfo represents package information data.
type PipPackageInfo struct {
	Author         string `json:"author"`
	Name           string `json:"name"`
	PackageURL     string `json:"package_url"`
	ReleaseURL     string `json:"release_url"`
	RequiresPython string `json:"requires_python"`
	Summary        string `json:"summary"`
	Version        string `json:"version"`
	Yanked         bool   `json:"yanked"`
}

// PipPackageVersion represents package releases list, where map key is version and value is array of releases.
type PipPackageVersion struct {
	Version  string
	Releases []PipPackageRelease
}

// PipPackageVersions represents package versions list.
type PipPackageVersions []PipPackageVersion

// UnmarshalJSON is used in unmarshalling process to keep the original versions order.
//
// We basically use custom decoder to decode and transform key=>obj values into slice values.
func (pms *PipPackageVersions) UnmarshalJSON(data []byte) error {
	if len(data) < 1 {
		return fmt.Errorf("invalid slice length %d", len(data))
	}

	d := json.NewDecoder(bytes.NewReader(data))
	t, err := d.Token()
	if err != nil {
		return fmt.Errorf("PipPackageVersions custom unmarshaller failed: %w", err)
	}
	if t != json.Delim('{') {
		return fmt.Errorf("PipPackageVersions custom unmarshaller failed: unexpected token %v", t)
	}

	var result PipPackageVersions
	for d.More() {
		t, err := d.Token()
		if err != nil {
			return fmt.Errorf("PipPackageVersions custom unmarshaller failed: %w", err)
		}

		var v PipPackageVersion
		v.Version, _ = t.(string)
		if err := d.Decode(&v.Releases); err != nil {
			return fmt.Errorf("PipPackageVersions custom unmarshaller failed decoding token: %w", err)
		}

		result = append(result, v)
	}

	*pms = result
	return nil
}

// PipPackageRelease represents one concrete release file.
type PipPackageRelease struct {
	Filename          string    `json:"filename"`
	Packagetype       string    `json:"packagetype"`
	PythonVersion     string    `json:"python_version"`
	RequiresPython    string    `json:"requires_python"`
	Size              int       `json:"size"`
	UploadTimeIso8601 time.Time `json:"upload_time_iso_8601"`
	URL               string    `json:"url"`
	Yanked            bool      `json:"yanked"`
}
