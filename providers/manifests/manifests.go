/*
Package manifests provides readers extracting package settings from every supported manifest format.

Supported formats:
 - MSBuild project files (.csproj, .vbproj, .fsproj)
 - NuGet package specifications (.nuspec)
 - Composer files (composer.json)
 - Python project files (pyproject.toml)

Usage:
	reader := manifests.NewProjectReader(fetchers.LocalFetcher{Root: "."}, "Lib.csproj")
	settings, err := reader.PackageSettings(ctx)
*/
package manifests

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gonkers/pkgtools/providers/fetchers"
	"github.com/gonkers/pkgtools/providers/versioneer"
)

var (
	ErrManifestMissing  = errors.New("manifest file not found")
	ErrManifestCorrupt  = errors.New("manifest is corrupt")
	ErrMissingPackageID = errors.New("package id is missing")
)

// SettingsReader represents basic interface for readers in this package.
type SettingsReader interface {
	// PackageSettings reads the manifest and returns the package id and its base version.
	PackageSettings(context.Context) (PackageSettings, error)
}

// PackageSettings represents the package identity declared by a manifest.
type PackageSettings struct {
	PackageID   string
	BaseVersion versioneer.Version
}

// source is the manifest content origin shared by all readers.
//
// Exactly one of fetcher or stream is set. A stream belongs to the caller and is never closed.
type source struct {
	fetcher fetchers.FileFetcher
	path    string
	stream  io.Reader
}

func (s source) content(ctx context.Context) ([]byte, error) {
	if s.stream != nil {
		b, err := io.ReadAll(s.stream)
		if err != nil {
			return nil, fmt.Errorf("unable to read the manifest stream: %w", err)
		}
		return b, nil
	}

	b, err := s.fetcher.FileContent(ctx, s.path)
	if err != nil {
		if errors.Is(err, fetchers.ErrFileNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrManifestMissing, s.path)
		}
		return nil, fmt.Errorf("unable to fetch '%s' from the source: %w", s.path, err)
	}
	return b, nil
}

// name is used in error messages.
func (s source) name() string {
	if s.stream != nil {
		return "manifest stream"
	}
	return s.path
}

// newSettings validates raw id and version values found in a manifest.
func newSettings(id, version string) (PackageSettings, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return PackageSettings{}, ErrMissingPackageID
	}

	version = strings.TrimSpace(version)
	if version == "" {
		return PackageSettings{PackageID: id, BaseVersion: versioneer.New(0, 0, 0)}, nil
	}

	v, err := versioneer.Parse(version)
	if err != nil {
		return PackageSettings{}, fmt.Errorf("%w: %w", ErrManifestCorrupt, err)
	}

	return PackageSettings{PackageID: id, BaseVersion: v}, nil
}

func corrupt(s source, err error) error {
	return fmt.Errorf("%w: unable to parse %s: %w", ErrManifestCorrupt, s.name(), err)
}
