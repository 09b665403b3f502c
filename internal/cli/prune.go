package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kbolt/sensorlog/internal/store"
)

// NewPruneCommand creates the prune command.
func NewPruneCommand(rootOpts *RootOptions) *cobra.Command {
	var maxAge time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove readings older than the retention age",
		Long: `Remove readings older than the retention age, across all devices.

Readings whose ingest time equals the threshold exactly are retained.
Defaults to store.retention_age from the config file.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := rootOpts.Config()

			age := maxAge
			if !cmd.Flags().Changed("max-age") {
				age = cfg.Store.RetentionAge.Std()
			}
			if age <= 0 {
				return fmt.Errorf("max age must be positive, got %s", age)
			}

			s, err := store.Open(cfg.Store.Path)
			if err != nil {
				return err
			}
			defer s.Close()

			removed, err := s.PruneOlderThan(cmd.Context(), age)
			if err != nil {
				return err
			}

			formatter := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return formatter.Emit(map[string]int64{"removed": removed}, func() string {
				return fmt.Sprintf("removed %d reading(s)", removed)
			})
		},
	}

	cmd.Flags().DurationVar(&maxAge, "max-age", 0, "retention age (e.g. 720h), overrides config")

	return cmd
}
