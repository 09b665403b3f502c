// Package cli implements the sensorlog command line interface.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kbolt/sensorlog/internal/config"
	"github.com/kbolt/sensorlog/internal/logging"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string
	StorePath  string // overrides the config file when set

	cfg config.Config
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// Config returns the effective configuration after flag overrides.
func (o *RootOptions) Config() config.Config {
	cfg := o.cfg
	if o.StorePath != "" {
		cfg.Store.Path = o.StorePath
	}
	return cfg
}

// NewRootCommand creates the root command for the sensorlog CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "sensorlog",
		Short: "Embedded telemetry reading store",
		Long:  "sensorlog stores device telemetry readings with content-hash deduplication,\ntime-ordered retrieval, and age-based retention.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}

			cfg, err := config.Load(opts.ConfigPath)
			if err != nil {
				return err
			}
			opts.cfg = cfg

			level := logging.ParseLevel(cfg.Log.Level)
			if opts.Verbose {
				level = logging.ParseLevel("debug")
			}
			logging.Init(level, cfg.Log.JSON)
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "sensorlog.yaml", "config file path")
	cmd.PersistentFlags().StringVar(&opts.StorePath, "db", "", "store location (overrides config)")

	// Add subcommands
	cmd.AddCommand(NewInsertCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewPruneCommand(opts))
	cmd.AddCommand(NewRunCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
