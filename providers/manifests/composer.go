package manifests

import (
	"context"
	"encoding/json"
	"io"

	"github.com/gonkers/pkgtools/providers/fetchers"
)

// NewComposerReader constructs Composer file reader.
func NewComposerReader(fetcher fetchers.FileFetcher, path string) SettingsReader {
	if path == "" {
		path = "composer.json"
	}
	return &ComposerReader{src: source{fetcher: fetcher, path: path}}
}

// NewComposerStreamReader constructs Composer reader over a caller owned stream.
func NewComposerStreamReader(r io.Reader) SettingsReader {
	return &ComposerReader{src: source{stream: r}}
}

// ComposerReader represents concrete Composer reader implementation.
type ComposerReader struct {
	src source
}

// ComposerJson represents the identity part of a Composer file (composer.json).
type ComposerJson struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// PackageSettings returns 'name' and 'version' of composer.json.
func (c ComposerReader) PackageSettings(ctx context.Context) (PackageSettings, error) {
	b, err := c.src.content(ctx)
	if err != nil {
		return PackageSettings{}, err
	}

	var composer ComposerJson
	if err = json.Unmarshal(b, &composer); err != nil {
		return PackageSettings{}, corrupt(c.src, err)
	}

	return newSettings(composer.Name, composer.Version)
}
