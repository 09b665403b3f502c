package harness

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kbolt/sensorlog/internal/store"
	"github.com/kbolt/sensorlog/internal/testutil"
)

// Run executes the scenario at path against a fresh store in a temp
// directory, failing the test on the first unmet expectation.
func Run(t *testing.T, path string) {
	t.Helper()

	sc, err := LoadScenario(path)
	require.NoError(t, err)

	s, err := store.Open(filepath.Join(t.TempDir(), "harness.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	clock := testutil.NewClock(time.UnixMilli(0).UTC())
	s.SetNowFunc(clock.Now)

	ctx := context.Background()
	for i, step := range sc.Steps {
		if step.AtMS != nil {
			clock.Set(time.UnixMilli(*step.AtMS).UTC())
		}

		switch {
		case step.Insert != nil:
			res, err := s.Insert(ctx, step.Insert.Device, step.Insert.Reading.Reading())
			require.NoError(t, err, "%s step %d: insert", sc.Name, i)
			require.Equal(t, store.Outcome(step.Insert.Want), res.Outcome,
				"%s step %d: insert outcome", sc.Name, i)

		case step.Prune != nil:
			removed, err := s.PruneOlderThan(ctx, time.Duration(step.Prune.MaxAgeMS)*time.Millisecond)
			require.NoError(t, err, "%s step %d: prune", sc.Name, i)
			require.Equal(t, step.Prune.WantRemoved, removed,
				"%s step %d: prune removed count", sc.Name, i)

		case step.List != nil:
			readings, err := s.ListByDeviceWithTime(ctx, step.List.Device)
			require.NoError(t, err, "%s step %d: list", sc.Name, i)

			gotTimes := make([]int64, len(readings))
			for j, tr := range readings {
				gotTimes[j] = tr.IngestTime
			}
			want := step.List.WantTimes
			if want == nil {
				want = []int64{}
			}
			require.Equal(t, want, gotTimes,
				"%s step %d: list timestamps for %s", sc.Name, i, step.List.Device)
		}
	}
}
