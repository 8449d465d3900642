// Package commands implements the format-json command.
package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/gonkers/pkgtools/internal/build"
	"github.com/gonkers/pkgtools/internal/cli"
	"github.com/gonkers/pkgtools/internal/config"
	"github.com/gonkers/pkgtools/internal/logging"
	"github.com/gonkers/pkgtools/jsonfmt"
)

// Exit codes of format-json.
const (
	ExitInputMissing = 1
	ExitOutputExists = 2
	ExitInvalidJSON  = 3
)

// Deps holds what the command takes from its environment.
type Deps struct {
	// ConfigPath is the config file, config.DefaultPath() when empty.
	ConfigPath string
}

// NewCmdRoot returns the format-json command.
func NewCmdRoot(deps Deps) *cobra.Command {
	var opts jsonfmt.Options

	cmd := &cobra.Command{
		Use:           "format-json",
		Short:         "Rewrite a JSON file in indented canonical form",
		Args:          cobra.NoArgs,
		Version:       build.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := deps.ConfigPath
			if path == "" {
				path = config.DefaultPath()
			}
			k, err := config.Load(path, cmd.Flags())
			if err != nil {
				return err
			}

			opts.ASCII = k.Bool(config.ASCII)
			opts.Logger = logging.New(cmd.ErrOrStderr(), k.Bool(config.Verbose))

			if err := jsonfmt.Reformat(cmd.Context(), opts); err != nil {
				opts.Logger.Error(err.Error())
				return cli.Exit(exitCode(err), err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.Input, "input-file", "i", "", "JSON file to reformat")
	cmd.Flags().StringVarP(&opts.Output, "output-file", "o", "", "destination file, the input is rewritten in place when omitted")
	cmd.Flags().BoolVarP(&opts.Force, "force", "f", false, "overwrite an existing output file")
	cmd.Flags().BoolP(config.ASCII, "a", false, "escape non-ASCII and HTML-sensitive characters")
	cmd.Flags().BoolP(config.Verbose, "v", false, "log debug messages")
	_ = cmd.MarkFlagRequired("input-file")
	_ = cmd.MarkFlagFilename("input-file", "json")
	_ = cmd.MarkFlagFilename("output-file", "json")

	cmd.InitDefaultVersionFlag()
	cmd.Flags().Lookup("version").Usage = "print the version of format-json"

	return cmd
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, jsonfmt.ErrInputMissing):
		return ExitInputMissing
	case errors.Is(err, jsonfmt.ErrOutputExists):
		return ExitOutputExists
	case errors.Is(err, jsonfmt.ErrInvalidJSON):
		return ExitInvalidJSON
	}
	return cli.ExitFailure
}
