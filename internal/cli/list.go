package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kbolt/sensorlog/internal/record"
	"github.com/kbolt/sensorlog/internal/store"
)

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	var withTimestamps bool

	cmd := &cobra.Command{
		Use:   "list <device-id>",
		Short: "List stored readings for a device, newest first",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(rootOpts, args[0], withTimestamps, cmd)
		},
	}

	cmd.Flags().BoolVar(&withTimestamps, "timestamps", false, "include ingest timestamps")

	return cmd
}

func runList(opts *RootOptions, deviceID string, withTimestamps bool, cmd *cobra.Command) error {
	cfg := opts.Config()

	s, err := store.Open(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer s.Close()

	readings, err := s.ListByDeviceWithTime(cmd.Context(), deviceID)
	if err != nil {
		return err
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	if !withTimestamps {
		plain := make([]record.Reading, len(readings))
		for i, tr := range readings {
			plain[i] = tr.Reading
		}
		return formatter.Emit(plain, func() string { return formatReadings(readings, false) })
	}

	return formatter.Emit(readings, func() string { return formatReadings(readings, true) })
}

func formatReadings(readings []store.TimedReading, withTimestamps bool) string {
	if len(readings) == 0 {
		return "no readings"
	}

	var b strings.Builder
	for i, tr := range readings {
		if i > 0 {
			b.WriteByte('\n')
		}
		if withTimestamps {
			ts := time.UnixMilli(tr.IngestTime).UTC().Format(time.RFC3339Nano)
			b.WriteString(ts)
			b.WriteString("  ")
		}
		b.WriteString(formatReading(tr.Reading))
	}
	return b.String()
}

func formatReading(r record.Reading) string {
	var parts []string
	add := func(name, val string) { parts = append(parts, name+"="+val) }

	if r.Temperature != nil {
		add("temperature", fmt.Sprintf("%g", *r.Temperature))
	}
	if r.Humidity != nil {
		add("humidity", fmt.Sprintf("%g", *r.Humidity))
	}
	if r.Pressure != nil {
		add("pressure", fmt.Sprintf("%g", *r.Pressure))
	}
	if r.Battery != nil {
		add("battery", fmt.Sprintf("%g", *r.Battery))
	}
	if r.HeaterOn != nil {
		add("heater_on", fmt.Sprintf("%t", *r.HeaterOn))
	}
	if r.DoorOpen != nil {
		add("door_open", fmt.Sprintf("%t", *r.DoorOpen))
	}
	if r.Status != nil {
		add("status", *r.Status)
	}
	return strings.Join(parts, " ")
}
