// Package commands implements the next-patch-version command.
package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/gonkers/pkgtools/internal/build"
	"github.com/gonkers/pkgtools/internal/cli"
	"github.com/gonkers/pkgtools/internal/config"
	"github.com/gonkers/pkgtools/internal/logging"
	"github.com/gonkers/pkgtools/nextpatch"
	"github.com/gonkers/pkgtools/providers/fetchers"
	"github.com/gonkers/pkgtools/providers/manifests"
	"github.com/gonkers/pkgtools/providers/versioneer"
)

// Exit codes of next-patch-version.
const (
	ExitManifestMissing = 1
	ExitManifestCorrupt = 2
	ExitMissingID       = 3
)

// Deps holds what the command takes from its environment.
type Deps struct {
	// HTTPClient is used for feed and GitHub requests, http.DefaultClient when nil.
	HTTPClient *http.Client
	// WorkDir is where manifests are discovered, the current directory when empty.
	WorkDir string
	// ConfigPath is the config file, config.DefaultPath() when empty.
	ConfigPath string
}

type flags struct {
	projectFile string
	nuspecFile  string
	githubRepo  string
	ref         string
}

// NewCmdRoot returns the next-patch-version command.
func NewCmdRoot(deps Deps) *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:           "next-patch-version",
		Short:         "Print the next unpublished patch version of a package",
		Long:          "Reads the package id and base version from a manifest, lists the versions published\non the feed and prints the next patch within the base major.minor line.",
		Args:          cobra.NoArgs,
		Version:       build.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := config.Load(configPath(deps), cmd.Flags())
			if err != nil {
				return err
			}
			logger := logging.New(cmd.ErrOrStderr(), k.Bool(config.Verbose))

			next, err := resolve(cmd, deps, f, k.String(config.NuGetSourceURL), k.String(config.Feed), k.String(config.GitHubToken), logger)
			if err != nil {
				logger.Error(err.Error())
				return cli.Exit(exitCode(err), err)
			}

			out := cmd.OutOrStdout()
			if k.Bool(config.JSON) {
				return json.NewEncoder(out).Encode(next)
			}
			_, err = fmt.Fprintln(out, next.String())
			return err
		},
	}

	cmd.Flags().StringP(config.NuGetSourceURL, "n", "", "feed URL, for NuGet the V3 service index (default \"https://api.nuget.org/v3/index.json\")")
	cmd.Flags().StringVarP(&f.projectFile, "project-file", "p", "", "manifest to read the package id and version from, discovered in the working directory when omitted")
	cmd.Flags().StringVar(&f.nuspecFile, "nuspec-file", "", "nuspec file to read the package id and version from")
	cmd.Flags().String(config.Feed, "", "feed type: nuget, packagist or pypi (default derived from the manifest)")
	cmd.Flags().StringVar(&f.githubRepo, "github-repo", "", "read the manifest from a GitHub repository (e.g. 'owner/repo')")
	cmd.Flags().StringVar(&f.ref, "ref", "", "commit, branch or tag of --github-repo, the default branch when empty")
	cmd.Flags().BoolP(config.JSON, "j", false, "print the version as a JSON object")
	cmd.Flags().BoolP(config.Verbose, "v", false, "log debug messages")
	cmd.MarkFlagsMutuallyExclusive("project-file", "nuspec-file")

	cmd.InitDefaultVersionFlag()
	cmd.Flags().Lookup("version").Usage = "print the version of next-patch-version"

	return cmd
}

func configPath(deps Deps) string {
	if deps.ConfigPath != "" {
		return deps.ConfigPath
	}
	return config.DefaultPath()
}

func resolve(cmd *cobra.Command, deps Deps, f flags, feedURL, feedName, token string, logger *slog.Logger) (next versioneer.Version, err error) {
	ctx := cmd.Context()

	src, err := source(cmd, deps, f, token)
	if err != nil {
		return next, err
	}

	var m nextpatch.Manifest
	switch {
	case f.projectFile != "":
		m = nextpatch.Manifest{Kind: nextpatch.KindFromPath(f.projectFile), Path: f.projectFile}
	case f.nuspecFile != "":
		m = nextpatch.Manifest{Kind: nextpatch.NuspecKind, Path: f.nuspecFile}
	default:
		if m, err = src.Discover(ctx); err != nil {
			return next, err
		}
		logger.Debug("manifest discovered", "path", m.Path, "kind", m.Kind)
	}

	settings, err := src.Reader(m).PackageSettings(ctx)
	if err != nil {
		return next, err
	}
	logger.Debug("package settings read", "id", settings.PackageID, "base", settings.BaseVersion.String())

	typ := nextpatch.DefaultFeed(m.Kind)
	if feedName != "" {
		if typ, err = nextpatch.ParseFeedType(feedName); err != nil {
			return next, err
		}
	}

	feed, err := nextpatch.NewFeed(typ, nextpatch.FeedOptions{URL: feedURL, HTTPClient: deps.HTTPClient, Logger: logger})
	if err != nil {
		return next, err
	}

	return nextpatch.Resolve(ctx, settings, feed)
}

func source(cmd *cobra.Command, deps Deps, f flags, token string) (nextpatch.Source, error) {
	if f.githubRepo != "" {
		httpClient := deps.HTTPClient
		if token != "" {
			httpClient = fetchers.TokenClient(cmd.Context(), httpClient, token)
		}
		return nextpatch.NewGitSource(httpClient, f.githubRepo, f.ref, "")
	}

	dir := deps.WorkDir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nextpatch.Source{}, fmt.Errorf("unable to determine the working directory: %w", err)
		}
		dir = wd
	}
	return nextpatch.NewLocalSource(dir), nil
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, nextpatch.ErrManifestNotFound), errors.Is(err, manifests.ErrManifestMissing):
		return ExitManifestMissing
	case errors.Is(err, manifests.ErrManifestCorrupt):
		return ExitManifestCorrupt
	case errors.Is(err, manifests.ErrMissingPackageID):
		return ExitMissingID
	}
	return cli.ExitFailure
}
