// Package config loads sensorlog configuration from YAML.
//
// All fields have documented defaults; a missing config file is not an
// error, it just means defaults everywhere.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults. Override via config file.
const (
	// DefaultStorePath is where the reading database lives.
	DefaultStorePath = "sensorlog.db"

	// DefaultRetentionAge is how long readings are kept before the
	// retention sweep removes them.
	DefaultRetentionAge = 30 * 24 * time.Hour

	// DefaultSweepInterval is how often the run command prunes.
	DefaultSweepInterval = time.Hour

	// DefaultBrokerURL is the MQTT broker for ingestion.
	DefaultBrokerURL = "tcp://localhost:1883"

	// DefaultStatePrefix is the topic prefix device state arrives on.
	// The device id is the remainder of the topic.
	DefaultStatePrefix = "sensorlog/device/state/"
)

// Duration wraps time.Duration so YAML configs can say "12h" or "30m".
type Duration time.Duration

// UnmarshalYAML parses a duration string via time.ParseDuration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the full sensorlog configuration.
type Config struct {
	Store StoreConfig `yaml:"store"`
	MQTT  MQTTConfig  `yaml:"mqtt"`
	Log   LogConfig   `yaml:"log"`
}

// StoreConfig configures the reading store and retention sweep.
type StoreConfig struct {
	// Path is the SQLite database location.
	Path string `yaml:"path"`

	// RetentionAge is the maximum age of a reading before pruning.
	RetentionAge Duration `yaml:"retention_age"`

	// SweepInterval is how often the run command prunes.
	SweepInterval Duration `yaml:"sweep_interval"`
}

// MQTTConfig configures the ingestion subscriber.
type MQTTConfig struct {
	BrokerURL   string `yaml:"broker_url"`
	ClientID    string `yaml:"client_id"`
	StatePrefix string `yaml:"state_prefix"`

	// AllowRetained ingests retained messages too. Off by default:
	// a retained state would be re-ingested on every reconnect.
	AllowRetained bool `yaml:"allow_retained"`
}

// LogConfig configures structured logging output.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`

	// JSON switches output from text to JSON.
	JSON bool `yaml:"json"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Store: StoreConfig{
			Path:          DefaultStorePath,
			RetentionAge:  Duration(DefaultRetentionAge),
			SweepInterval: Duration(DefaultSweepInterval),
		},
		MQTT: MQTTConfig{
			BrokerURL:   DefaultBrokerURL,
			StatePrefix: DefaultStatePrefix,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads the config file at path, overlaying it on the defaults.
// A missing file yields the defaults; a malformed or invalid file is
// an error.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations that cannot work.
func (c Config) Validate() error {
	if c.Store.Path == "" {
		return fmt.Errorf("store.path must not be empty")
	}
	if c.Store.RetentionAge <= 0 {
		return fmt.Errorf("store.retention_age must be positive")
	}
	if c.Store.SweepInterval <= 0 {
		return fmt.Errorf("store.sweep_interval must be positive")
	}
	if c.MQTT.StatePrefix == "" {
		return fmt.Errorf("mqtt.state_prefix must not be empty")
	}
	return nil
}
