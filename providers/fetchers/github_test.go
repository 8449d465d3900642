package fetchers

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
)

// configureClient configures client that intercepts ALL requests and forwards them into the specified handler.
func configureClient(t *testing.T, handleFunc http.Handler) *http.Client {
	t.Helper()
	srv := httptest.NewTLSServer(handleFunc)
	t.Cleanup(srv.Close)

	// Configuring so that all the request go into our handler.
	return &http.Client{
		Transport: &http.Transport{
			DialContext: func(_ context.Context, network, _ string) (net.Conn, error) {
				return net.Dial(network, srv.Listener.Addr().String())
			},
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
	}
}

func TestFetchContentMethod(t *testing.T) {
	cl := configureClient(t, http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/test/testing/contents/Lib.csproj" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.URL.Query().Get("ref") != "main" {
			t.Errorf("expected ref 'main', got %q", r.URL.Query().Get("ref"))
		}
		_, _ = rw.Write([]byte(`{
			"type": "file",
			"content" : "<Project />"
		}`))
	}))

	expected := "<Project />"

	fetcher := NewGitHubFetcher(cl, "test", "testing", "main")
	content, err := fetcher.FileContent(context.Background(), "Lib.csproj")
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != expected {
		t.Errorf("expected content '%s', got '%s'", expected, string(content))
	}
}

func TestFetchContentMethod_HttpNotFound(t *testing.T) {
	cl := configureClient(t, http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(http.StatusNotFound)
		_, _ = rw.Write([]byte(`{
			"message": "Not Found",
			"documentation_url": "https://docs.github.com/rest/reference/repos#get-repository-content"
		  }`))
	}))

	fetcher := NewGitHubFetcher(cl, "test", "testing", "")
	_, err := fetcher.FileContent(context.Background(), "test.txt")
	if !errors.Is(err, ErrFileNotFound) {
		t.Errorf("expected ErrFileNotFound, got %v", err)
	}
}

func TestFetchContentMethod_TransportError(t *testing.T) {
	cl := &http.Client{Transport: &http.Transport{
		DialContext: func(_ context.Context, _, _ string) (net.Conn, error) {
			return nil, errors.New("connection refused")
		},
	}}

	fetcher := NewGitHubFetcher(cl, "test", "testing", "")
	_, err := fetcher.FileContent(context.Background(), "test.txt")
	if err == nil || errors.Is(err, ErrFileNotFound) {
		t.Errorf("expected transport error, got %v", err)
	}
}

const dirListing = `[
	{
	  "type": "file",
	  "name": "README.md",
	  "path": "README.md"
	},
	{
	  "type": "dir",
	  "name": "src",
	  "path": "src"
	},
	{
	  "type": "file",
	  "name": "Lib.csproj",
	  "path": "Lib.csproj"
	}
  ]`

func TestFetchContentMethod_DirectoryError(t *testing.T) {
	cl := configureClient(t, http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		_, _ = rw.Write([]byte(dirListing))
	}))

	fetcher := NewGitHubFetcher(cl, "test", "testing", "")
	_, err := fetcher.FileContent(context.Background(), "src")
	if err == nil {
		t.Error("expected directory error, got nil")
	}
}

func TestListMethod(t *testing.T) {
	cl := configureClient(t, http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		_, _ = rw.Write([]byte(dirListing))
	}))

	fetcher := NewGitHubFetcher(cl, "test", "testing", "")
	names, err := fetcher.List(context.Background(), ".")
	if err != nil {
		t.Fatal(err)
	}
	expected := []string{"Lib.csproj", "README.md"}
	if !reflect.DeepEqual(names, expected) {
		t.Errorf("expected %v, got %v", expected, names)
	}
}

func TestTokenClient(t *testing.T) {
	var auth string
	cl := configureClient(t, http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_, _ = rw.Write([]byte(`{"type": "file", "content": "x"}`))
	}))

	if got := TokenClient(context.Background(), cl, ""); got != cl {
		t.Error("expected base client for empty token")
	}

	fetcher := NewGitHubFetcher(TokenClient(context.Background(), cl, "s3cret"), "test", "testing", "")
	if _, err := fetcher.FileContent(context.Background(), "x.txt"); err != nil {
		t.Fatal(err)
	}
	if auth != "Bearer s3cret" {
		t.Errorf("expected bearer authorization, got %q", auth)
	}
}
