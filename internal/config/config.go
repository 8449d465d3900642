// Package config loads command settings from the config file, the environment and flags.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/matthewmueller/jsonc"
	"github.com/spf13/pflag"
)

// Keys shared by the commands.
const (
	NuGetSourceURL = "nuget-source-url"
	Feed           = "feed"
	JSON           = "json"
	Verbose        = "verbose"
	GitHubToken    = "github-token"
	ASCII          = "ascii"
)

// EnvPrefix is the prefix of environment variables overriding config keys,
// e.g. PKGTOOLS_NUGET_SOURCE_URL for 'nuget-source-url'.
const EnvPrefix = "PKGTOOLS_"

// DefaultPath returns the config file location, PKGTOOLS_CONFIG overrides it.
func DefaultPath() string {
	if p, ok := os.LookupEnv(EnvPrefix + "CONFIG"); ok {
		return p
	}
	return filepath.Join(xdg.ConfigHome, "pkgtools", "config.jsonc")
}

var envProvider = env.ProviderWithValue(EnvPrefix, ".", func(s string, v string) (string, interface{}) {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	if key == "config" {
		return "", nil
	}
	return strings.ReplaceAll(key, "_", "-"), v
})

// Load merges the config file at path, PKGTOOLS_* variables and flags, later sources winning.
//
// A missing file is not an error. Flags left unset only provide their default value when no
// other source sets the key.
func Load(path string, flags *pflag.FlagSet) (*koanf.Koanf, error) {
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), Parser()); err != nil {
				return nil, fmt.Errorf("unable to load config file '%s': %w", path, err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("unable to stat config file: %w", err)
		}
	}

	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("unable to load environment: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, fmt.Errorf("unable to load flags: %w", err)
		}
	}

	return k, nil
}

// JSONC parses config files written as JSON with comments and trailing commas.
type JSONC struct{}

// Parser returns a JSONC koanf parser.
func Parser() *JSONC {
	return &JSONC{}
}

// Unmarshal parses the given JSONC bytes.
func (p *JSONC) Unmarshal(b []byte) (map[string]interface{}, error) {
	jsonBytes, err := jsonc.Standardize(b)
	if err != nil {
		return nil, err
	}

	var out map[string]interface{}
	if err := json.Unmarshal(jsonBytes, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Marshal marshals the given config map to JSON bytes.
func (p *JSONC) Marshal(o map[string]interface{}) ([]byte, error) {
	return json.MarshalIndent(o, "", "  ")
}
