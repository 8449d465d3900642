package manifests

import (
	"context"
	"io"

	"github.com/BurntSushi/toml"
	"github.com/gonkers/pkgtools/providers/fetchers"
)

// NewPyProjectReader constructs pyproject.toml reader.
func NewPyProjectReader(fetcher fetchers.FileFetcher, path string) SettingsReader {
	if path == "" {
		path = "pyproject.toml"
	}
	return &PyProjectReader{src: source{fetcher: fetcher, path: path}}
}

// NewPyProjectStreamReader constructs pyproject.toml reader over a caller owned stream.
func NewPyProjectStreamReader(r io.Reader) SettingsReader {
	return &PyProjectReader{src: source{stream: r}}
}

// PyProjectReader reads the '[project]' table, Poetry's '[tool.poetry]' is used
// when the project table declares no name.
type PyProjectReader struct {
	src source
}

type pyProjectMeta struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// PyProjectToml represents the identity part of pyproject.toml.
type PyProjectToml struct {
	Project pyProjectMeta `toml:"project"`
	Tool    struct {
		Poetry pyProjectMeta `toml:"poetry"`
	} `toml:"tool"`
}

// PackageSettings returns the project name and version.
func (r PyProjectReader) PackageSettings(ctx context.Context) (PackageSettings, error) {
	b, err := r.src.content(ctx)
	if err != nil {
		return PackageSettings{}, err
	}

	var py PyProjectToml
	if _, err = toml.Decode(string(b), &py); err != nil {
		return PackageSettings{}, corrupt(r.src, err)
	}

	meta := py.Project
	if meta.Name == "" {
		meta = py.Tool.Poetry
	}
	return newSettings(meta.Name, meta.Version)
}
