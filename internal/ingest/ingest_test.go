package ingest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbolt/sensorlog/internal/store"
)

type fakeMessage struct {
	topic    string
	payload  []byte
	retained bool
}

func (m fakeMessage) Topic() string   { return m.topic }
func (m fakeMessage) Payload() []byte { return m.payload }
func (m fakeMessage) Retained() bool  { return m.retained }

const prefix = "sensorlog/device/state/"

func newTestIngestor(t *testing.T) (*Ingestor, *store.Store) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "ingest.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return New(s, prefix, false), s
}

func TestParseDeviceID(t *testing.T) {
	cases := []struct {
		name    string
		topic   string
		want    string
		wantErr error
	}{
		{"plain", prefix + "kit1", "kit1", nil},
		{"trailing slash", prefix + "kit1/", "kit1", nil},
		{"wrong prefix", "other/topic", "", ErrNotAStateTopic},
		{"prefix only", prefix, "", nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseDeviceID(prefix, tc.topic)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			if tc.want == "" {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestHandleMessage_StoresReading(t *testing.T) {
	ing, s := newTestIngestor(t)

	ing.HandleMessage(context.Background(), fakeMessage{
		topic:   prefix + "kit1",
		payload: []byte(`{"temperature":21.5,"heater_on":true}`),
	})

	readings, err := s.ListByDevice(context.Background(), "kit1")
	require.NoError(t, err)
	require.Len(t, readings, 1)
	assert.Equal(t, 21.5, *readings[0].Temperature)
	assert.True(t, *readings[0].HeaterOn)
}

func TestHandleMessage_DuplicateIsNotFatal(t *testing.T) {
	ing, s := newTestIngestor(t)
	ctx := context.Background()

	msg := fakeMessage{topic: prefix + "kit1", payload: []byte(`{"temperature":21.5}`)}
	ing.HandleMessage(ctx, msg)
	ing.HandleMessage(ctx, msg)

	count, err := s.CountAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestHandleMessage_SkipsRetained(t *testing.T) {
	ing, s := newTestIngestor(t)

	ing.HandleMessage(context.Background(), fakeMessage{
		topic:    prefix + "kit1",
		payload:  []byte(`{"temperature":21.5}`),
		retained: true,
	})

	count, err := s.CountAll(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestHandleMessage_AllowRetained(t *testing.T) {
	s, err := store.Open(filepath.Join(t.TempDir(), "ingest.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	ing := New(s, prefix, true)

	ing.HandleMessage(context.Background(), fakeMessage{
		topic:    prefix + "kit1",
		payload:  []byte(`{"temperature":21.5}`),
		retained: true,
	})

	count, err := s.CountAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestHandleMessage_SkipsForeignTopics(t *testing.T) {
	ing, s := newTestIngestor(t)

	ing.HandleMessage(context.Background(), fakeMessage{
		topic:   "other/app/topic",
		payload: []byte(`{"temperature":21.5}`),
	})

	count, err := s.CountAll(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestHandleMessage_SkipsMalformedPayload(t *testing.T) {
	ing, s := newTestIngestor(t)
	ctx := context.Background()

	ing.HandleMessage(ctx, fakeMessage{topic: prefix + "kit1", payload: []byte(`not json`)})
	ing.HandleMessage(ctx, fakeMessage{topic: prefix + "kit1", payload: []byte(`{"unknown_field":1}`)})
	ing.HandleMessage(ctx, fakeMessage{topic: prefix + "kit1", payload: nil})
	ing.HandleMessage(ctx, fakeMessage{topic: prefix + "kit1", payload: []byte(`{}`)})

	count, err := s.CountAll(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}
