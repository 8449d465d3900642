/*
Package versioneer provides version parsing and ordering for package manifests and feeds.

Manifest versions are parsed strictly ('1.2.3' only), feed versions leniently: anything
Masterminds/semver understands, plus legacy four-part NuGet versions and PEP 440 forms,
which are reduced to their leading 'major.minor.patch' numbers.
*/
package versioneer

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Masterminds/semver"
)

var (
	ErrInvalidVersion = errors.New("invalid version")
)

// versionConfig is used to store version parser configuration.
type versionConfig struct {
	strictRgx         string         // Manifest version regexp (e.g. 1.2.3)
	legacyRgx         string         // Leading numeric segments regexp (e.g. 1.2.3.4 or 1.2rc1)
	strictRgxCompiled *regexp.Regexp // Compiled manifest version regexp
	legacyRgxCompiled *regexp.Regexp // Compiled leading segments regexp
}

// verCfg is a global version parser configuration.
var verCfg versionConfig

func init() {
	verCfg.strictRgx = `^([0-9]+)\.([0-9]+)\.([0-9]+)$`
	verCfg.legacyRgx = `^v?([0-9]+)(\.[0-9]+)(\.[0-9]+)?(\.[0-9]+)?(.*)$`
	verCfg.strictRgxCompiled = regexp.MustCompile(verCfg.strictRgx)
	verCfg.legacyRgxCompiled = regexp.MustCompile(verCfg.legacyRgx)
}

// Version represents a fixed package version.
//
// Prerelease and Metadata are carried along but never take part in ordering.
type Version struct {
	Major      int
	Minor      int
	Patch      int
	Prerelease string
	Metadata   string
	value      string
}

// New constructs a plain 'major.minor.patch' version.
func New(major, minor, patch int) Version {
	return Version{Major: major, Minor: minor, Patch: patch}
}

// Parse parses a strict three-component numeric version such as '1.2.3'.
// Surrounding whitespace is ignored.
func Parse(value string) (Version, error) {
	trimmed := strings.TrimSpace(value)
	matches := verCfg.strictRgxCompiled.FindStringSubmatch(trimmed)
	if matches == nil {
		return Version{}, fmt.Errorf("%w: %q is not a 'major.minor.patch' version", ErrInvalidVersion, value)
	}

	segments := [3]int{}
	for i := range segments {
		n, err := strconv.Atoi(matches[i+1])
		if err != nil {
			return Version{}, fmt.Errorf("%w: segment parse error: %s", ErrInvalidVersion, err)
		}
		segments[i] = n
	}

	return Version{Major: segments[0], Minor: segments[1], Patch: segments[2], value: trimmed}, nil
}

// ParseLenient parses a version published by a package feed.
//
// Semantic versions keep their pre-release and build metadata. Versions semver rejects
// ('1.2.3.4', '2.0.0rc1', '1.0.post2') fall back to their leading numeric segments and
// the remainder is kept as pre-release.
func ParseLenient(value string) (Version, error) {
	trimmed := strings.TrimSpace(value)
	if sv, err := semver.NewVersion(trimmed); err == nil {
		return Version{
			Major:      int(sv.Major()),
			Minor:      int(sv.Minor()),
			Patch:      int(sv.Patch()),
			Prerelease: sv.Prerelease(),
			Metadata:   sv.Metadata(),
			value:      value,
		}, nil
	}

	matches := verCfg.legacyRgxCompiled.FindStringSubmatch(strings.ToLower(trimmed))
	if matches == nil {
		return Version{}, fmt.Errorf("%w: version '%s' is not supported", ErrInvalidVersion, value)
	}

	v := Version{value: value}
	segments := []*int{&v.Major, &v.Minor, &v.Patch}
	for i, seg := range segments {
		raw := strings.TrimPrefix(matches[i+1], ".")
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return Version{}, fmt.Errorf("%w: segment parse error: %s", ErrInvalidVersion, err)
		}
		*seg = n
	}
	v.Prerelease = strings.TrimLeft(matches[4]+matches[5], ".-")

	return v, nil
}

// Value returns the original unmodified text of the version, or its canonical form
// when the version was constructed rather than parsed.
func (v Version) Value() string {
	if v.value == "" {
		return v.String()
	}
	return v.value
}

// String returns the canonical 'major.minor.patch[-prerelease][+metadata]' form.
func (v Version) String() string {
	s := fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.Prerelease != "" {
		s += "-" + v.Prerelease
	}
	if v.Metadata != "" {
		s += "+" + v.Metadata
	}
	return s
}

// Compare orders versions by major, then minor, then patch.
// It returns -1, 0 or 1.
func (v Version) Compare(o Version) int {
	switch {
	case v.Major != o.Major:
		return cmpInt(v.Major, o.Major)
	case v.Minor != o.Minor:
		return cmpInt(v.Minor, o.Minor)
	case v.Patch != o.Patch:
		return cmpInt(v.Patch, o.Patch)
	}
	return 0
}

// SameLine reports whether both versions share major and minor segments.
func (v Version) SameLine(o Version) bool {
	return v.Major == o.Major && v.Minor == o.Minor
}

// MarshalJSON encodes the version as an object with its numeric segments.
func (v Version) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Major   int    `json:"major"`
		Minor   int    `json:"minor"`
		Patch   int    `json:"patch"`
		Version string `json:"version"`
	}{v.Major, v.Minor, v.Patch, v.String()})
}

func cmpInt(a, b int) int {
	if a < b {
		return -1
	}
	return 1
}
