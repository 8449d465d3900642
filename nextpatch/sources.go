package nextpatch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"regexp"
	"strings"

	"github.com/gonkers/pkgtools/providers/fetchers"
	"github.com/gonkers/pkgtools/providers/manifests"
)

var (
	ErrManifestNotFound = errors.New("unable to determine the manifest file to read package information from")
)

// Kind represents manifest format.
type Kind string

// Supported manifest formats
const (
	// ProjectKind represents MSBuild project files.
	ProjectKind = Kind("project")
	// NuspecKind represents NuGet package specifications.
	NuspecKind = Kind("nuspec")
	// ComposerKind represents composer.json.
	ComposerKind = Kind("composer")
	// PyProjectKind represents pyproject.toml.
	PyProjectKind = Kind("pyproject")
)

// Manifest designates a manifest file within a Source.
type Manifest struct {
	Kind Kind
	Path string
}

// KindFromPath guesses manifest kind from the file name, project files are the fallback.
func KindFromPath(p string) Kind {
	base := strings.ToLower(path.Base(strings.ReplaceAll(p, "\\", "/")))
	switch {
	case strings.HasSuffix(base, ".nuspec"):
		return NuspecKind
	case base == "composer.json":
		return ComposerKind
	case base == "pyproject.toml":
		return PyProjectKind
	}
	return ProjectKind
}

// DefaultFeed returns the feed packages described by this kind of manifest are published to.
func DefaultFeed(kind Kind) FeedType {
	switch kind {
	case ComposerKind:
		return PackagistType
	case PyProjectKind:
		return PyPIType
	}
	return NuGetType
}

// discoveryGroups are tried in order, the first group matching exactly one file wins.
var discoveryGroups = []struct {
	kind     Kind
	patterns []string
}{
	{ProjectKind, []string{".csproj", ".vbproj", ".fsproj"}},
	{NuspecKind, []string{".nuspec"}},
	{ComposerKind, []string{"composer.json"}},
	{PyProjectKind, []string{"pyproject.toml"}},
}

// Source represents a place manifests are read from.
type Source struct {
	fetcher fetchers.FileFetcher
	lister  fetchers.DirLister
	dir     string
}

// NewLocalSource constructs Source over a local directory.
func NewLocalSource(dir string) Source {
	f := fetchers.LocalFetcher{Root: dir}
	return Source{fetcher: f, lister: f, dir: "."}
}

// NewMemorySource constructs Source over in-memory files keyed by slash separated paths.
func NewMemorySource(files map[string][]byte) Source {
	f := fetchers.ByteMapFetcher{Files: files}
	return Source{fetcher: f, lister: f, dir: "."}
}

// gitRepoRgx is used to parse repository info from GIT-compatible address string.
//
// Examples matching the regexp:
//     'git@myhostname:vendor/reponame.git'
//     'https://myhostname/vendor/reponame.git' and so on...
// Groups:
//     1: protocol (e.g. 'https://' or 'git@')
//     6: hostname (e.g. 'github.com')
//     8: full repo name (e.g. 'vendor/reponame')
var gitRepoRgx string = `^(((git@)|(git:|ssh:|(http[s]?:\/\/))))([\w\.@\\-~]+)(:|\/)([\w\.@\:\/\-~]+?)(\.git)?(\/)?$`

// shortRepoRgx matches the 'owner/repo' shorthand.
var shortRepoRgx string = `^([\w\.\-]+)\/([\w\.\-]+)$`

var (
	gitRepoRgxCompiled   *regexp.Regexp
	shortRepoRgxCompiled *regexp.Regexp
)

func init() {
	gitRepoRgxCompiled = regexp.MustCompile(gitRepoRgx)
	shortRepoRgxCompiled = regexp.MustCompile(shortRepoRgx)
}

// gitRepo represents basic repository information.
type gitRepo struct {
	host, vendor, repo string
}

// supGitSrcs - supported git sources.
var supGitSrcs = []string{"github.com"}

// NewGitSource constructs Source reading manifests from a GitHub repository.
//
// SHA can both refer to commit hash/branch/tag, an empty one means the default branch.
// dir is the repository directory manifests are discovered in.
//
// You can pass specific signed httpClient, for example an OAuth2 one (see fetchers.TokenClient)
// for increased rate limits and private repositories.
//
// repoAddr is your repository address (e.g. 'git@github.com:vendor/reponame.git' or 'vendor/reponame')
func NewGitSource(httpClient *http.Client, repoAddr, sha, dir string) (Source, error) {
	repoData, err := parseGitAddr(repoAddr)
	if err != nil {
		return Source{}, err
	}
	f := fetchers.NewGitHubFetcher(httpClient, repoData.vendor, repoData.repo, sha)
	if dir == "" {
		dir = "."
	}
	return Source{fetcher: f, lister: f, dir: dir}, nil
}

// Discover looks for exactly one manifest among the supported kinds.
func (s Source) Discover(ctx context.Context) (Manifest, error) {
	names, err := s.lister.List(ctx, s.dir)
	if err != nil {
		if errors.Is(err, fetchers.ErrFileNotFound) {
			return Manifest{}, fmt.Errorf("%w: directory '%s' does not exist", ErrManifestNotFound, s.dir)
		}
		return Manifest{}, fmt.Errorf("unable to list manifest candidates: %w", err)
	}

	for _, g := range discoveryGroups {
		var found []string
		for _, name := range names {
			if matchesAny(strings.ToLower(name), g.patterns) {
				found = append(found, name)
			}
		}
		if len(found) == 1 {
			return Manifest{Kind: g.kind, Path: path.Join(s.dir, found[0])}, nil
		}
	}

	return Manifest{}, ErrManifestNotFound
}

// Reader returns the SettingsReader for the manifest.
func (s Source) Reader(m Manifest) manifests.SettingsReader {
	switch m.Kind {
	case NuspecKind:
		return manifests.NewNuspecReader(s.fetcher, m.Path)
	case ComposerKind:
		return manifests.NewComposerReader(s.fetcher, m.Path)
	case PyProjectKind:
		return manifests.NewPyProjectReader(s.fetcher, m.Path)
	}
	return manifests.NewProjectReader(s.fetcher, m.Path)
}

// matchesAny reports whether name has one of the extensions ('.csproj') or equals one of the file names.
func matchesAny(name string, patterns []string) bool {
	for _, p := range patterns {
		if strings.HasPrefix(p, ".") && strings.HasSuffix(name, p) || name == p {
			return true
		}
	}
	return false
}

// parserGitAddr - helper to parse information from git repository address string
func parseGitAddr(addr string) (*gitRepo, error) {
	if m := shortRepoRgxCompiled.FindStringSubmatch(addr); m != nil {
		return &gitRepo{host: "github.com", vendor: m[1], repo: m[2]}, nil
	}

	matches := gitRepoRgxCompiled.FindStringSubmatch(addr)
	if matches == nil || matches[6] == "" || matches[8] == "" {
		return nil, fmt.Errorf("unsupported git repository format %q", addr)
	}
	hostName, repoName := matches[6], matches[8]

	if !gitHostSupported(hostName) {
		return nil, fmt.Errorf("git source %q is not supported", hostName)
	}

	repoNameParts := strings.Split(repoName, "/")
	if len(repoNameParts) != 2 || repoNameParts[0] == "" || repoNameParts[1] == "" {
		return nil, fmt.Errorf("unable to parse vendor from name %q", repoName)
	}

	return &gitRepo{host: hostName, vendor: repoNameParts[0], repo: repoNameParts[1]}, nil
}

// gitHostSupported - helper to check git source support status
func gitHostSupported(host string) bool {
	for _, v := range supGitSrcs {
		if v == host {
			return true
		}
	}
	return false
}
