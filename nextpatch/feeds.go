package nextpatch

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gonkers/pkgtools/providers/api"
	"github.com/gonkers/pkgtools/providers/api/nuget"
	"github.com/gonkers/pkgtools/providers/api/packagist"
	"github.com/gonkers/pkgtools/providers/api/pip"
	"github.com/gonkers/pkgtools/providers/versioneer"
)

var (
	// ErrFeedUnreachable is returned when the feed could not be contacted.
	ErrFeedUnreachable = api.ErrUnreachable
	// ErrFeedProtocol is returned when the feed answered with something unusable.
	ErrFeedProtocol = api.ErrProtocol
)

// FeedType represents package feed flavour.
type FeedType string

// Available feeds
const (
	// NuGetType represents NuGet V3 feeds.
	NuGetType = FeedType("nuget")
	// PackagistType represents Composer repositories.
	PackagistType = FeedType("packagist")
	// PyPIType represents PyPI compatible indexes.
	PyPIType = FeedType("pypi")
)

// ParseFeedType validates a feed name.
func ParseFeedType(s string) (FeedType, error) {
	switch typ := FeedType(strings.ToLower(strings.TrimSpace(s))); typ {
	case NuGetType, PackagistType, PyPIType:
		return typ, nil
	}
	return "", fmt.Errorf("unsupported feed %q, expected one of %s, %s or %s", s, NuGetType, PackagistType, PyPIType)
}

// VersionFeed represents a package index able to list every published version of a package.
type VersionFeed interface {
	// Versions returns all published versions of the package, it may be empty.
	Versions(ctx context.Context, packageID string) ([]versioneer.Version, error)
}

// versionLister is implemented by every registry client of providers/api.
type versionLister interface {
	AllVersions(ctx context.Context, id string) ([]string, error)
}

// FeedOptions configures NewFeed.
type FeedOptions struct {
	// URL of the feed, the registry default is used when empty.
	// For NuGet it is the service index URL.
	URL string
	// HTTPClient is used for every request, http.DefaultClient when nil.
	HTTPClient *http.Client
	// Logger receives debug messages about skipped versions.
	Logger *slog.Logger
}

// NewFeed constructs VersionFeed for the given feed type.
func NewFeed(typ FeedType, opts FeedOptions) (VersionFeed, error) {
	var u *url.URL
	if opts.URL != "" {
		var err error
		if u, err = url.Parse(opts.URL); err != nil {
			return nil, fmt.Errorf("invalid feed url %q: %w", opts.URL, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return nil, fmt.Errorf("invalid feed url %q: scheme must be http or https", opts.URL)
		}
	}

	var client versionLister
	switch typ {
	case NuGetType, "":
		cl, err := nuget.NewClient(opts.HTTPClient, u)
		if err != nil {
			return nil, err
		}
		client = cl
	case PackagistType:
		cl, err := packagist.NewClient(opts.HTTPClient, u)
		if err != nil {
			return nil, err
		}
		client = cl
	case PyPIType:
		client = pip.NewPyPiClient(opts.HTTPClient, u)
	default:
		return nil, fmt.Errorf("unsupported feed %q", typ)
	}

	return newListFeed(client, opts.Logger), nil
}

// ListFeed adapts a registry client returning raw version strings into VersionFeed.
type ListFeed struct {
	client versionLister
	logger *slog.Logger
}

func newListFeed(client versionLister, logger *slog.Logger) *ListFeed {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ListFeed{client: client, logger: logger}
}

// Versions fetches the raw version list and parses it, versions that can't be parsed are skipped.
func (f ListFeed) Versions(ctx context.Context, packageID string) ([]versioneer.Version, error) {
	raw, err := f.client.AllVersions(ctx, packageID)
	if err != nil {
		return nil, err
	}

	versions := make([]versioneer.Version, 0, len(raw))
	for _, r := range raw {
		v, err := versioneer.ParseLenient(r)
		if err != nil {
			f.logger.Debug("skipping unparseable feed version", "package", packageID, "version", r)
			continue
		}
		versions = append(versions, v)
	}

	f.logger.Debug("feed versions loaded", "package", packageID, "published", len(raw), "usable", len(versions))
	return versions, nil
}
