/*
Package nextpatch computes the next unused patch version of a package.

A package manifest supplies the package id and its base 'major.minor.patch' version,
a VersionFeed supplies every version published so far. The next patch is one above
the highest published patch within the base 'major.minor' line, or 0 when the line
has never been published.

Usage:
	src := nextpatch.NewLocalSource(".")
	manifest, err := src.Discover(ctx)
	settings, err := src.Reader(manifest).PackageSettings(ctx)
	feed, err := nextpatch.NewFeed(nextpatch.DefaultFeed(manifest.Kind), nextpatch.FeedOptions{})
	next, err := nextpatch.Resolve(ctx, settings, feed)
*/
package nextpatch

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/gonkers/pkgtools/providers/manifests"
	"github.com/gonkers/pkgtools/providers/versioneer"
)

// Resolve asks the feed for every published version of the package and returns the next patch
// within the base version line. Feed errors are returned unmodified.
func Resolve(ctx context.Context, settings manifests.PackageSettings, feed VersionFeed) (versioneer.Version, error) {
	versions, err := feed.Versions(ctx, settings.PackageID)
	if err != nil {
		return versioneer.Version{}, err
	}
	return NextPatch(settings.BaseVersion, versions)
}

// ErrPatchExhausted is returned when the highest published patch of the line has no successor.
var ErrPatchExhausted = errors.New("no patch number left in the version line")

// NextPatch returns (base.Major, base.Minor, p) where p is one above the highest patch
// published in the same 'major.minor' line, or 0 when there is none.
// Pre-release and build metadata are ignored.
func NextPatch(base versioneer.Version, published []versioneer.Version) (versioneer.Version, error) {
	next := 0
	for _, v := range published {
		if !v.SameLine(base) || v.Patch < next {
			continue
		}
		if v.Patch == math.MaxInt {
			return versioneer.Version{}, fmt.Errorf("%w: %s is published", ErrPatchExhausted, v.Value())
		}
		next = v.Patch + 1
	}
	return versioneer.New(base.Major, base.Minor, next), nil
}
