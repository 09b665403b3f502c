package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kbolt/sensorlog/internal/record"
	"github.com/kbolt/sensorlog/internal/store"
)

// NewInsertCommand creates the insert command.
func NewInsertCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		temperature float64
		humidity    float64
		pressure    float64
		battery     float64
		heaterOn    bool
		doorOpen    bool
		status      string
		rawJSON     string
	)

	cmd := &cobra.Command{
		Use:   "insert <device-id>",
		Short: "Store one reading for a device",
		Long: `Store one reading for a device.

Fields are given as flags; only flags that are set become part of the
reading. Alternatively --json takes a complete reading payload. An
identical payload already in the store (for any device) reports
"duplicate" and changes nothing.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var r record.Reading
			if rawJSON != "" {
				decoded, err := record.DecodeCanonical([]byte(rawJSON))
				if err != nil {
					return err
				}
				r = decoded
			} else {
				flags := cmd.Flags()
				if flags.Changed("temperature") {
					r.Temperature = &temperature
				}
				if flags.Changed("humidity") {
					r.Humidity = &humidity
				}
				if flags.Changed("pressure") {
					r.Pressure = &pressure
				}
				if flags.Changed("battery") {
					r.Battery = &battery
				}
				if flags.Changed("heater-on") {
					r.HeaterOn = &heaterOn
				}
				if flags.Changed("door-open") {
					r.DoorOpen = &doorOpen
				}
				if flags.Changed("status") {
					r.Status = &status
				}
			}
			if r.IsZero() {
				return fmt.Errorf("reading is empty: set at least one field")
			}

			return runInsert(rootOpts, args[0], r, cmd)
		},
	}

	cmd.Flags().Float64Var(&temperature, "temperature", 0, "temperature reading")
	cmd.Flags().Float64Var(&humidity, "humidity", 0, "relative humidity reading")
	cmd.Flags().Float64Var(&pressure, "pressure", 0, "pressure reading")
	cmd.Flags().Float64Var(&battery, "battery", 0, "battery level reading")
	cmd.Flags().BoolVar(&heaterOn, "heater-on", false, "heater actuator state")
	cmd.Flags().BoolVar(&doorOpen, "door-open", false, "door sensor state")
	cmd.Flags().StringVar(&status, "status", "", "device status string")
	cmd.Flags().StringVar(&rawJSON, "json", "", "complete reading as a JSON payload")

	return cmd
}

func runInsert(opts *RootOptions, deviceID string, r record.Reading, cmd *cobra.Command) error {
	cfg := opts.Config()

	s, err := store.Open(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer s.Close()

	res, err := s.Insert(cmd.Context(), deviceID, r)
	if err != nil {
		return err
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return formatter.Emit(res, func() string {
		if res.Outcome == store.OutcomeDuplicate {
			return fmt.Sprintf("duplicate of row %s", res.RowID)
		}
		return fmt.Sprintf("inserted row %s at %d", res.RowID, res.IngestTime)
	})
}
