package cli

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kbolt/sensorlog/internal/ingest"
	"github.com/kbolt/sensorlog/internal/lifecycle"
	"github.com/kbolt/sensorlog/internal/logging"
)

// NewRunCommand creates the run command: the long-lived ingestion
// daemon with a periodic retention sweep.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Ingest device state from MQTT until interrupted",
		Long: `Subscribe to the configured MQTT state topics and store every
decodable reading. Prunes readings past the retention age on the
configured sweep interval. Runs until SIGINT/SIGTERM.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(rootOpts, cmd)
		},
	}

	return cmd
}

func runDaemon(opts *RootOptions, cmd *cobra.Command) error {
	cfg := opts.Config()
	log := logging.Component("run")

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	manager := lifecycle.NewManager()
	s, err := manager.Open(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer manager.CloseAll()

	client, err := ingest.Connect(cfg.MQTT.BrokerURL, cfg.MQTT.ClientID)
	if err != nil {
		return err
	}
	defer client.Close()

	ingestor := ingest.New(s, cfg.MQTT.StatePrefix, cfg.MQTT.AllowRetained)
	topic := cfg.MQTT.StatePrefix + "#"
	if err := client.Subscribe(topic, func(msg ingest.Message) {
		ingestor.HandleMessage(ctx, msg)
	}); err != nil {
		return err
	}
	log.Info("ingesting", "topic", topic, "store", cfg.Store.Path)

	sweep := time.NewTicker(cfg.Store.SweepInterval.Std())
	defer sweep.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("shutting down")
			return nil
		case <-sweep.C:
			removed, err := s.PruneOlderThan(context.WithoutCancel(ctx), cfg.Store.RetentionAge.Std())
			if err != nil {
				log.Error("retention sweep failed", "error", err)
				continue
			}
			if removed > 0 {
				log.Info("retention sweep", "removed", removed)
			}
		}
	}
}
