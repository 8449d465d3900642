package manifests

import (
	"context"
	"io"

	"github.com/gonkers/pkgtools/providers/fetchers"
)

// NewProjectReader constructs MSBuild project file reader (.csproj, .vbproj, .fsproj).
func NewProjectReader(fetcher fetchers.FileFetcher, path string) SettingsReader {
	return &ProjectReader{src: source{fetcher: fetcher, path: path}}
}

// NewProjectStreamReader constructs MSBuild project reader over a caller owned stream.
func NewProjectStreamReader(r io.Reader) SettingsReader {
	return &ProjectReader{src: source{stream: r}}
}

// ProjectReader represents concrete MSBuild project reader implementation.
//
// Both 'PackageId' and 'Version' are looked up among PropertyGroup descendants,
// the first element in document order wins. Names are compared case-insensitively
// and without namespace prefixes.
type ProjectReader struct {
	src source
}

// PackageSettings returns the package id and base version of the project.
func (r ProjectReader) PackageSettings(ctx context.Context) (PackageSettings, error) {
	b, err := r.src.content(ctx)
	if err != nil {
		return PackageSettings{}, err
	}

	fields, err := scanXML(b, matchProjectField)
	if err != nil {
		return PackageSettings{}, corrupt(r.src, err)
	}

	return newSettings(fields["id"], fields["version"])
}

func matchProjectField(path []string) string {
	if len(path) < 2 || !inPropertyGroup(path[:len(path)-1]) {
		return ""
	}
	switch path[len(path)-1] {
	case "packageid":
		return "id"
	case "version":
		return "version"
	}
	return ""
}

func inPropertyGroup(ancestors []string) bool {
	for _, a := range ancestors {
		if a == "propertygroup" {
			return true
		}
	}
	return false
}
