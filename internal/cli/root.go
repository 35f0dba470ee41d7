// Package cli provides the command-line interface for Paleta.
package cli

import (
	"fmt"
	"io"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/paleta/internal/config"
	"github.com/jmylchreest/paleta/internal/version"
)

// globalOptions holds state shared by every subcommand.
type globalOptions struct {
	verbose bool
	quiet   bool

	// Populated by the root PersistentPreRunE.
	logger hclog.Logger
	config config.Config
}

// NewRootCmd builds the paleta command tree.
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{
		logger: hclog.NewNullLogger(),
		config: config.Default(),
	}

	rootCmd := &cobra.Command{
		Use:   "paleta",
		Short: "Extract colour palettes from images and export them",
		Long: `Paleta reduces an image to a handful of representative colours using
seeded k-means clustering, and exports colour lists to palette formats
used by design tools: JSON, GIMP (.gpl), Adobe Swatch Exchange (.ase),
CSV, Photoshop swatches (.aco) and a PNG preview.

Extraction is deterministic: the same image and settings always produce
the same colours in the same order.`,
		Version:      version.Short(),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			opts.logger = newLogger(cmd.ErrOrStderr(), opts.verbose, opts.quiet)

			cfg, err := config.NewBuilder().WithEnvConfig().Build()
			if err != nil {
				return err
			}
			opts.config = cfg
			opts.logger.Debug("configuration loaded",
				"min_colours", cfg.MinColors,
				"max_colours", cfg.MaxColors,
				"default_colours", cfg.DefaultColors,
				"working_size", cfg.WorkingSize,
				"restarts", cfg.Restarts,
				"seed", cfg.Seed)
			return nil
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&opts.quiet, "quiet", "q", false, "suppress non-error output")
	rootCmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	rootCmd.SetVersionTemplate(version.String() + "\n")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newExtractCmd(opts))
	rootCmd.AddCommand(newExportCmd(opts))
	rootCmd.AddCommand(newFormatsCmd())

	return rootCmd
}

// newLogger creates the CLI logger. Verbose logs at debug level, quiet
// silences everything, and the default only reports errors.
func newLogger(w io.Writer, verbose, quiet bool) hclog.Logger {
	level := hclog.Error
	switch {
	case verbose:
		level = hclog.Debug
	case quiet:
		level = hclog.Off
	}

	return hclog.New(&hclog.LoggerOptions{
		Name:   "paleta",
		Output: w,
		Level:  level,
	})
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print detailed version information including build date, commit hash, and Go version.`,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
