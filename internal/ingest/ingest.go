// Package ingest feeds device state messages into the reading store.
//
// Ingestion is best-effort: malformed topics, payloads that do not
// decode, and duplicate readings are logged and skipped, never fatal.
// The host process must not crash because one device misbehaves.
package ingest

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/kbolt/sensorlog/internal/logging"
	"github.com/kbolt/sensorlog/internal/record"
	"github.com/kbolt/sensorlog/internal/store"
)

// ErrNotAStateTopic marks topics outside the state prefix; they are
// silently ignored.
var ErrNotAStateTopic = errors.New("not a state topic")

// Message is the transport-agnostic slice of an MQTT message the
// ingestor needs. Satisfied by mqtt.Message in this package.
type Message interface {
	Topic() string
	Payload() []byte
	Retained() bool
}

// Ingestor decodes device state messages and inserts them.
type Ingestor struct {
	Store *store.Store

	// StatePrefix is the topic prefix state messages arrive on; the
	// device id is the remainder of the topic.
	StatePrefix string

	// AllowRetained ingests retained messages too. Normally off:
	// retained state is replayed on every reconnect.
	AllowRetained bool

	log *slog.Logger
}

// New returns an ingestor writing to s.
func New(s *store.Store, statePrefix string, allowRetained bool) *Ingestor {
	return &Ingestor{
		Store:         s,
		StatePrefix:   statePrefix,
		AllowRetained: allowRetained,
		log:           logging.Component("ingest"),
	}
}

// HandleMessage processes one device state message. Never returns an
// error: every failure mode is logged and dropped.
func (i *Ingestor) HandleMessage(ctx context.Context, msg Message) {
	topic := msg.Topic()
	if msg.Retained() && !i.AllowRetained {
		i.log.Debug("ignoring retained message", "topic", topic)
		return
	}

	deviceID, err := ParseDeviceID(i.StatePrefix, topic)
	if err != nil {
		if errors.Is(err, ErrNotAStateTopic) {
			return
		}
		i.log.Warn("topic parse failed", "topic", topic, "error", err)
		return
	}

	payload := msg.Payload()
	if len(payload) == 0 {
		return
	}

	reading, err := record.DecodeCanonical(payload)
	if err != nil {
		i.log.Warn("reading decode failed", "topic", topic, "device_id", deviceID, "error", err)
		return
	}
	if reading.IsZero() {
		i.log.Debug("ignoring empty reading", "device_id", deviceID)
		return
	}

	res, err := i.Store.Insert(ctx, deviceID, reading)
	if err != nil {
		i.log.Error("insert failed", "device_id", deviceID, "error", err)
		return
	}

	switch res.Outcome {
	case store.OutcomeDuplicate:
		i.log.Debug("duplicate reading skipped", "device_id", deviceID, "row_id", res.RowID)
	default:
		i.log.Debug("reading stored", "device_id", deviceID, "row_id", res.RowID, "ingest_time", res.IngestTime)
	}
}

// ParseDeviceID extracts the device id from a state topic.
func ParseDeviceID(prefix, topic string) (string, error) {
	if !strings.HasPrefix(topic, prefix) {
		return "", ErrNotAStateTopic
	}
	id := strings.Trim(strings.TrimPrefix(topic, prefix), "/")
	if id == "" {
		return "", errors.New("empty device id")
	}
	return id, nil
}
