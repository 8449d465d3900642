package packagist

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"testing"

	"github.com/gonkers/pkgtools/providers/api"
)

func getTestingClient(t *testing.T, srv *httptest.Server) *PackagistClient {
	t.Helper()
	url, _ := url.Parse(srv.URL)
	cl, err := NewClient(srv.Client(), url)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	return cl
}

func TestNewClientMethod(t *testing.T) {
	cl, err := NewClient(nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cl.baseURL.String() != packagistHostname {
		t.Errorf("nil client url is incorrect, expected '%s', got '%s'", packagistHostname, cl.baseURL.String())
	}
	if cl.HttpClient != http.DefaultClient {
		t.Error("nil client is not a default one")
	}
}

func TestNewClient_IncorrectUrl(t *testing.T) {
	defer func(h string) { packagistHostname = h }(packagistHostname)
	packagistHostname = "httz://}oh no{"
	cl, err := NewClient(nil, nil)
	if err == nil {
		t.Errorf("expected incorrect url error, got nothing")
	}
	if cl != nil {
		t.Errorf("expected nil packagist client, got %+v", cl)
	}
}

func TestMetaMethod(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		expectedUrl := "/p2/monolog/monolog.json"
		if r.URL.String() != expectedUrl {
			t.Fatalf("incorrect requested url '%s', expected '%s'", r.URL.String(), expectedUrl)
		}

		rw.Header().Set("Content-Type", "application/json")
		_, _ = rw.Write([]byte(`{
			"minified": "composer/2.0",
			"packages": {
				"monolog/monolog": [
					{
						"name": "monolog/monolog",
						"description": "Sends your logs to files, sockets, inboxes, databases and various web services",
						"version": "3.5.0",
						"version_normalized": "3.5.0.0",
						"type": "library"
					},
					{
						"version": "3.4.0",
						"version_normalized": "3.4.0.0"
					}
				]
			}
		}`))
	}))
	defer srv.Close()

	res, _, err := getTestingClient(t, srv).Meta(context.Background(), "monolog", "monolog", false)
	if err != nil {
		t.Fatal(err)
	}

	if res.Minified != "composer/2.0" {
		t.Errorf("unexpected minified marker %q", res.Minified)
	}
	versions := res.Packages["monolog/monolog"]
	if len(versions) != 2 || versions[0].Version != "3.5.0" || versions[1].Version != "3.4.0" {
		t.Errorf("unexpected versions %+v", versions)
	}
}

func TestMetaMethod_DevFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/p2/acme/lib~dev.json" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		_, _ = rw.Write([]byte(`{"packages": {"acme/lib": []}}`))
	}))
	defer srv.Close()

	if _, _, err := getTestingClient(t, srv).Meta(context.Background(), "acme", "lib", true); err != nil {
		t.Fatal(err)
	}
}

func TestPackageMeta_KeyedFormat(t *testing.T) {
	var pm PackageMeta
	err := json.Unmarshal([]byte(`{
		"dev-main": {"version": "dev-main"},
		"v1.0.0": {"version": "v1.0.0"},
		"v0.9.0": {"version": "v0.9.0"}
	}`), &pm)
	if err != nil {
		t.Fatal(err)
	}

	got := []string{}
	for _, v := range pm {
		got = append(got, v.Version)
	}
	expected := []string{"dev-main", "v1.0.0", "v0.9.0"}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("expected %v, got %v", expected, got)
	}
}

func TestPackageMeta_InvalidFormat(t *testing.T) {
	var pm PackageMeta
	if err := json.Unmarshal([]byte(`"1.0.0"`), &pm); err == nil {
		t.Error("expected error, got nil")
	}
}

func TestAllVersions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/p2/acme/lib.json":
			_, _ = rw.Write([]byte(`{"packages": {"acme/lib": [{"version": "1.2.3"}, {"version": "v1.2.1"}]}}`))
		default:
			http.NotFound(rw, r)
		}
	}))
	defer srv.Close()
	cl := getTestingClient(t, srv)

	versions, err := cl.AllVersions(context.Background(), "Acme/Lib")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(versions, []string{"1.2.3", "v1.2.1"}) {
		t.Errorf("unexpected versions %v", versions)
	}

	versions, err = cl.AllVersions(context.Background(), "acme/unknown")
	if err != nil {
		t.Fatal(err)
	}
	if len(versions) != 0 {
		t.Errorf("expected no versions, got %v", versions)
	}

	if _, err = cl.AllVersions(context.Background(), "no-vendor"); err == nil {
		t.Error("expected name format error, got nil")
	}
}

func TestHttpErrorResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cl := getTestingClient(t, srv)

	req, err := http.NewRequestWithContext(context.Background(), "GET", srv.URL, nil)
	if err != nil {
		t.Errorf("failed to create a response for the test, error returned: %v", err)
	}

	var tst interface{}
	_, err = parseResponse(cl, req, &tst)

	if !errors.Is(err, api.ErrProtocol) {
		t.Errorf("expected protocol error, got %v", err)
	}
}

func TestApiErrorResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		_, _ = rw.Write([]byte(`{"status": "error", "message": "Missing vendor"}`))
	}))
	defer srv.Close()

	_, _, err := getTestingClient(t, srv).Meta(context.Background(), "a", "b", false)
	if !errors.Is(err, api.ErrProtocol) {
		t.Errorf("expected protocol error, got %v", err)
	}
}

func TestReqErrorResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) { _, _ = rw.Write([]byte("Hello world!")) }))
	defer srv.Close()
	cl := getTestingClient(t, srv)

	req := http.Request{}

	var tst interface{}
	_, err := parseResponse(cl, &req, &tst)
	if !errors.Is(err, api.ErrUnreachable) {
		t.Errorf("expected unreachable error, got %v", err)
	}
}
