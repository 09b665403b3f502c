// Package harness runs declarative YAML scenarios against a fresh
// reading store. A scenario is a script of insert/list/prune steps
// with expected outcomes, executed on a manual clock so timestamps
// are identical on every run.
package harness

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kbolt/sensorlog/internal/record"
)

// Scenario is a named script of store operations.
type Scenario struct {
	Name  string `yaml:"name"`
	Steps []Step `yaml:"steps"`
}

// Step performs exactly one operation, optionally moving the clock
// first. A step with no operation is a scenario bug.
type Step struct {
	// AtMS moves the clock to this ms-since-epoch instant before the
	// operation runs.
	AtMS *int64 `yaml:"at_ms,omitempty"`

	Insert *InsertStep `yaml:"insert,omitempty"`
	Prune  *PruneStep  `yaml:"prune,omitempty"`
	List   *ListStep   `yaml:"list,omitempty"`
}

// InsertStep stores a reading and asserts the outcome.
type InsertStep struct {
	Device  string      `yaml:"device"`
	Reading ReadingSpec `yaml:"reading"`
	Want    string      `yaml:"want"` // "inserted" or "duplicate"
}

// PruneStep prunes by age and asserts the removed count.
type PruneStep struct {
	MaxAgeMS    int64 `yaml:"max_age_ms"`
	WantRemoved int64 `yaml:"want_removed"`
}

// ListStep lists a device and asserts the ingest timestamps returned,
// in order (newest first).
type ListStep struct {
	Device    string  `yaml:"device"`
	WantTimes []int64 `yaml:"want_times"`
}

// ReadingSpec mirrors record.Reading with YAML field names, keeping
// YAML concerns out of the record package.
type ReadingSpec struct {
	Battery     *float64 `yaml:"battery,omitempty"`
	DoorOpen    *bool    `yaml:"door_open,omitempty"`
	HeaterOn    *bool    `yaml:"heater_on,omitempty"`
	Humidity    *float64 `yaml:"humidity,omitempty"`
	Pressure    *float64 `yaml:"pressure,omitempty"`
	Status      *string  `yaml:"status,omitempty"`
	Temperature *float64 `yaml:"temperature,omitempty"`
}

// Reading converts to the stored value type.
func (rs ReadingSpec) Reading() record.Reading {
	return record.Reading{
		Battery:     rs.Battery,
		DoorOpen:    rs.DoorOpen,
		HeaterOn:    rs.HeaterOn,
		Humidity:    rs.Humidity,
		Pressure:    rs.Pressure,
		Status:      rs.Status,
		Temperature: rs.Temperature,
	}
}

// LoadScenario reads and validates a scenario file.
func LoadScenario(path string) (Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("read scenario: %w", err)
	}

	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return Scenario{}, fmt.Errorf("parse scenario %s: %w", path, err)
	}

	if sc.Name == "" {
		return Scenario{}, fmt.Errorf("scenario %s: missing name", path)
	}
	for i, step := range sc.Steps {
		ops := 0
		if step.Insert != nil {
			ops++
		}
		if step.Prune != nil {
			ops++
		}
		if step.List != nil {
			ops++
		}
		if ops != 1 {
			return Scenario{}, fmt.Errorf("scenario %s: step %d must have exactly one operation, has %d", path, i, ops)
		}
	}
	return sc, nil
}
