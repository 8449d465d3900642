package fetchers

import (
	"context"
	"fmt"
	"net/http"
	"sort"

	"github.com/google/go-github/v33/github"
	"golang.org/x/oauth2"
)

// GitHubFetcher fetches files from the specified repository.
// Owner and Repo represent '{owner}/{repo}' notation.
// httpClient can be used as OAuth2 or BasicAuth http transport.
type GitHubFetcher struct {
	Owner        string
	Repo         string
	SHA          string
	githubClient *github.Client
}

// NewGitHubFetcher constructs GitHubFetcher with specified parameters.
// httpClient can be used as OAuth2 or BasicAuth http transport.
func NewGitHubFetcher(httpClient *http.Client, owner, repo, sha string) *GitHubFetcher {
	return &GitHubFetcher{
		Owner:        owner,
		Repo:         repo,
		SHA:          sha,
		githubClient: github.NewClient(httpClient),
	}
}

// TokenClient wraps base into a client authenticating every request with a personal access token.
// An empty token returns base untouched.
func TokenClient(ctx context.Context, base *http.Client, token string) *http.Client {
	if token == "" {
		return base
	}
	if base != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	}
	return oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
}

// FileContent fetches specified file content from the configured repository.
// Path argument is the root-related file path.
func (p GitHubFetcher) FileContent(ctx context.Context, path string) ([]byte, error) {
	rc, dc, err := p.contents(ctx, path)
	if err != nil {
		return nil, err
	}

	if len(dc) != 0 || rc == nil {
		return nil, fmt.Errorf("'%s' is a directory or not a valid file", path)
	}

	c, err := rc.GetContent()
	if err != nil {
		return nil, fmt.Errorf("unable to decode '%s' content: %w", path, err)
	}

	return []byte(c), nil
}

// List returns names of the files located in a repository directory.
func (p GitHubFetcher) List(ctx context.Context, dir string) ([]string, error) {
	if dir == "." {
		dir = ""
	}
	_, dc, err := p.contents(ctx, dir)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(dc))
	for _, c := range dc {
		if c.GetType() == "file" {
			names = append(names, c.GetName())
		}
	}
	sort.Strings(names)
	return names, nil
}

func (p GitHubFetcher) contents(ctx context.Context, path string) (*github.RepositoryContent, []*github.RepositoryContent, error) {
	opts := github.RepositoryContentGetOptions{
		Ref: p.SHA,
	}

	rc, dc, resp, err := p.githubClient.Repositories.GetContents(ctx, p.Owner, p.Repo, path, &opts)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, nil, fmt.Errorf("unable to load '%s' from github: %w", path, err)
	}
	return rc, dc, nil
}
