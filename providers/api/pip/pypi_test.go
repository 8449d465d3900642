package pip

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"strings"
	"testing"

	"github.com/gonkers/pkgtools/providers/api"
)

func TestPyPiNewClientMethod(t *testing.T) {
	pypi := NewPyPiClient(nil, nil)
	if pypi.httpClient != http.DefaultClient {
		t.Errorf("default httpClient is not set on NewPyPiClient instance")
	}
	if pypi.baseUrl != *pyPiBaseURL {
		t.Errorf("default baseURL is not set on NewPyPiClient instance")
	}

	expClient := &http.Client{}
	expUrl, err := url.Parse("http://example.com")
	if err != nil {
		t.Fatalf("unexpected test url parse error: %v", err)
	}
	pypi = NewPyPiClient(expClient, expUrl)
	if pypi.httpClient != expClient {
		t.Errorf("httpClient is not set on NewPyPiClient instance")
	}
	if pypi.baseUrl != *expUrl {
		t.Errorf("baseURL is not set on NewPyPiClient instance")
	}
}

func TestPyPiClientPackageMethod(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		expectedPath := "/pypi/sampleproject/json"
		if r.URL.Path != expectedPath {
			t.Errorf("expected url call is %q, got %q", expectedPath, r.URL.Path)
		}
		_, _ = rw.Write([]byte(sampleProjectJson))
	}))
	defer srv.Close()

	URL, _ := url.Parse(srv.URL)
	pypi := NewPyPiClient(srv.Client(), URL)
	pkg, _, err := pypi.Package(context.Background(), "sampleproject")
	if err != nil {
		t.Fatalf("unexpected Package() error: %v", err)
	}

	if pkg.Info.Name != "sampleproject" || pkg.LastSerial != 7562906 {
		t.Errorf("unexpected package info %+v", pkg.Info)
	}
	if len(pkg.Releases) != 3 || len(pkg.Releases[2].Releases) != 1 {
		t.Fatalf("unexpected releases %+v", pkg.Releases)
	}
	if pkg.Releases[2].Releases[0].Filename != "sampleproject-2.0.0.tar.gz" {
		t.Errorf("unexpected release file %+v", pkg.Releases[2].Releases[0])
	}
}

func TestPyPiClientReleaseMethod(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		expectedPath := "/pypi/sampleproject/2.0.0/json"
		if r.URL.Path != expectedPath {
			t.Errorf("expected url call is %q, got %q", expectedPath, r.URL.Path)
		}
		_, _ = rw.Write([]byte(sampleProjectJson))
	}))
	defer srv.Close()

	URL, _ := url.Parse(srv.URL)
	pypi := NewPyPiClient(srv.Client(), URL)
	if _, _, err := pypi.Release(context.Background(), "sampleproject", "2.0.0"); err != nil {
		t.Fatalf("unexpected Release() error: %v", err)
	}
}

func TestPyPiClientAllVersions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/pypi/sampleproject/json" {
			http.NotFound(rw, r)
			return
		}
		_, _ = rw.Write([]byte(sampleProjectJson))
	}))
	defer srv.Close()

	URL, _ := url.Parse(srv.URL)
	pypi := NewPyPiClient(srv.Client(), URL)

	versions, err := pypi.AllVersions(context.Background(), "sampleproject")
	if err != nil {
		t.Fatal(err)
	}
	expected := []string{"1.2.0", "1.3.0rc1", "2.0.0"}
	if !reflect.DeepEqual(versions, expected) {
		t.Errorf("expected %v, got %v", expected, versions)
	}

	versions, err = pypi.AllVersions(context.Background(), "unknown")
	if err != nil {
		t.Fatal(err)
	}
	if len(versions) != 0 {
		t.Errorf("expected no versions, got %v", versions)
	}
}

func TestPyPiClientRelease_Errors(t *testing.T) {
	notFoundSrv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(http.StatusNotFound)
		_, _ = rw.Write([]byte("{}"))
	}))
	defer notFoundSrv.Close()
	brokenSrv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(http.StatusBadGateway)
	}))
	defer brokenSrv.Close()
	incorrectSchemaSrv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		_, _ = rw.Write([]byte("hello_world!"))
	}))
	defer incorrectSchemaSrv.Close()

	cases := []struct {
		Name     string
		Server   *httptest.Server
		PkgName  string
		Expected error
	}{
		{"empty name", notFoundSrv, "", nil},
		{"not found", notFoundSrv, "package_name", api.ErrNotFound},
		{"bad gateway", brokenSrv, "package_name", api.ErrProtocol},
		{"incorrect schema", incorrectSchemaSrv, "package_name", api.ErrProtocol},
	}

	for _, testCase := range cases {
		t.Run(testCase.Name, func(t *testing.T) {
			URL, _ := url.Parse(testCase.Server.URL)
			pypi := NewPyPiClient(testCase.Server.Client(), URL)

			pkg, _, err := pypi.Release(context.Background(), testCase.PkgName, "")
			if err == nil {
				t.Error("expected error, got none")
			}
			if testCase.Expected != nil && !errors.Is(err, testCase.Expected) {
				t.Errorf("expected %v, got %v", testCase.Expected, err)
			}
			if pkg != nil {
				t.Error("expected nil PipPackage on incorrect request")
			}
		})
	}
}

var sampleProjectJson = `{
	"info": {
		"author": "A. Random Developer",
		"name": "sampleproject",
		"package_url": "https://pypi.org/project/sampleproject/",
		"release_url": "https://pypi.org/project/sampleproject/2.0.0/",
		"requires_python": ">=3.5, <4",
		"summary": "A sample Python project",
		"version": "2.0.0",
		"yanked": false
	},
	"last_serial": 7562906,
	"releases": {
		"1.2.0": [],
		"1.3.0rc1": [],
		"2.0.0": [
			{
				"filename": "sampleproject-2.0.0.tar.gz",
				"packagetype": "sdist",
				"python_version": "source",
				"requires_python": ">=3.5, <4",
				"size": 7922,
				"upload_time_iso_8601": "2020-06-25T19:09:43.103653Z",
				"url": "https://files.pythonhosted.org/packages/sampleproject-2.0.0.tar.gz",
				"yanked": false
			}
		]
	},
	"urls": []
}`

func TestPipPackageVersions_UnexpectedToken(t *testing.T) {
	for _, in := range []string{`null`, `[]`, `"1.0.0"`} {
		var v PipPackageVersions
		err := v.UnmarshalJSON([]byte(in))
		if err == nil {
			t.Fatalf("expected error for %s", in)
		}
		if !strings.Contains(err.Error(), "unexpected token") || strings.Contains(err.Error(), "%!") {
			t.Errorf("unexpected error message for %s: %v", in, err)
		}
	}

	var v PipPackageVersions
	if err := v.UnmarshalJSON([]byte(`{"1.0":[],"0.9":[]}`)); err != nil {
		t.Fatal(err)
	}
	if len(v) != 2 || v[0].Version != "1.0" || v[1].Version != "0.9" {
		t.Errorf("unexpected versions %+v", v)
	}
}
