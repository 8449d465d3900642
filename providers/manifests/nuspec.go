package manifests

import (
	"context"
	"io"

	"github.com/gonkers/pkgtools/providers/fetchers"
)

// NewNuspecReader constructs NuGet package specification reader.
func NewNuspecReader(fetcher fetchers.FileFetcher, path string) SettingsReader {
	return &NuspecReader{src: source{fetcher: fetcher, path: path}}
}

// NewNuspecStreamReader constructs nuspec reader over a caller owned stream.
func NewNuspecStreamReader(r io.Reader) SettingsReader {
	return &NuspecReader{src: source{stream: r}}
}

// NuspecReader reads 'package/metadata/id' and 'package/metadata/version'.
type NuspecReader struct {
	src source
}

// PackageSettings returns the package id and base version of the specification.
func (r NuspecReader) PackageSettings(ctx context.Context) (PackageSettings, error) {
	b, err := r.src.content(ctx)
	if err != nil {
		return PackageSettings{}, err
	}

	fields, err := scanXML(b, matchNuspecField)
	if err != nil {
		return PackageSettings{}, corrupt(r.src, err)
	}

	return newSettings(fields["id"], fields["version"])
}

func matchNuspecField(path []string) string {
	if len(path) != 3 || path[0] != "package" || path[1] != "metadata" {
		return ""
	}
	switch path[2] {
	case "id":
		return "id"
	case "version":
		return "version"
	}
	return ""
}
