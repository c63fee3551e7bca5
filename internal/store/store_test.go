package store

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/location.report/internal/frames"
	"github.com/banshee-data/location.report/internal/grid"
	"github.com/banshee-data/location.report/internal/monitoring"
	"github.com/banshee-data/location.report/internal/timeutil"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	t.Cleanup(monitoring.Redirect(nil))
	s, err := Open(filepath.Join(t.TempDir(), "runs", "location.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenMigrates(t *testing.T) {
	s := openTestStore(t)

	v, dirty, err := s.MigrateVersion()
	require.NoError(t, err)
	assert.EqualValues(t, 1, v)
	assert.False(t, dirty)

	for _, table := range []string{"runs", "grid_cells", "frames"} {
		var n int
		require.NoError(t, s.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&n))
		assert.Equal(t, 1, n, table)
	}

	require.NoError(t, s.MigrateUp(), "second migration is a no-op")
}

func TestRunLifecycle(t *testing.T) {
	s := openTestStore(t)
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := timeutil.NewMockClock(start)
	s.Clock = clock

	run, err := s.BeginRun(KindHeatmap, map[string]any{"place": "berlin", "scale": 1000})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, run.ID)

	got, err := s.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, KindHeatmap, got.Kind)
	assert.Equal(t, start, got.StartedAt)
	assert.True(t, got.FinishedAt.IsZero())

	var params map[string]any
	require.NoError(t, json.Unmarshal(got.Params, &params))
	assert.Equal(t, "berlin", params["place"])

	clock.Advance(90 * time.Second)
	require.NoError(t, s.FinishRun(run.ID))
	got, err = s.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, start.Add(90*time.Second), got.FinishedAt)
}

func TestUnknownRun(t *testing.T) {
	s := openTestStore(t)
	id := uuid.New()

	_, err := s.GetRun(id)
	assert.ErrorIs(t, err, ErrRunNotFound)
	assert.ErrorIs(t, s.FinishRun(id), ErrRunNotFound)
}

func TestInsertCells(t *testing.T) {
	s := openTestStore(t)
	run, err := s.BeginRun(KindGrid, nil)
	require.NoError(t, err)

	totals := grid.NewTotals()
	totals.Add(map[string]grid.Counts{
		"WALKING": {{Lat: 52.52, Lng: 13.405}: 2, {Lat: 52.521, Lng: 13.405}: 1},
		"IN_BUS":  {{Lat: 52.52, Lng: 13.405}: 4},
	})

	n, err := s.InsertCells(run.ID, totals)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	all, err := s.CellCounts(run.ID, grid.AllActivities)
	require.NoError(t, err)
	if diff := cmp.Diff(totals[grid.AllActivities], all); diff != "" {
		t.Errorf("ALL counts mismatch (-want +got):\n%s", diff)
	}

	none, err := s.CellCounts(run.ID, "FLYING")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestInsertCellsUnknownRun(t *testing.T) {
	s := openTestStore(t)
	totals := grid.NewTotals()
	totals.Add(map[string]grid.Counts{"WALKING": {{Lat: 1, Lng: 1}: 1}})

	_, err := s.InsertCells(uuid.New(), totals)
	assert.Error(t, err, "foreign key must reject cells of an unknown run")

	var n int
	require.NoError(t, s.QueryRow(`SELECT COUNT(*) FROM grid_cells`).Scan(&n))
	assert.Zero(t, n, "failed batch is rolled back")
}

func TestFrames(t *testing.T) {
	s := openTestStore(t)
	run, err := s.BeginRun(KindHeatmap, nil)
	require.NoError(t, err)

	sums := []frames.Summary{
		{Index: 0, Label: "all", Baseline: true, Processed: 12, Min: 0, Mean: 0.4, Max: 1},
		{Index: 1, Label: "00:00", Processed: 12, Skipped: 12, Empty: true},
		{Index: 2, Label: "00:15", Processed: 12, Skipped: 9, Mean: 0.1, Max: 0.75},
	}
	for i := len(sums) - 1; i >= 0; i-- {
		require.NoError(t, s.InsertFrame(run.ID, sums[i], "frame.png"))
	}

	got, err := s.Frames(run.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(sums, got); diff != "" {
		t.Errorf("frames mismatch (-want +got):\n%s", diff)
	}

	assert.Error(t, s.InsertFrame(run.ID, sums[0], ""), "duplicate frame index")
}
