package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/location.report/internal/config"
	"github.com/banshee-data/location.report/internal/fsutil"
	"github.com/banshee-data/location.report/internal/monitoring"
	"github.com/banshee-data/location.report/internal/store"
	"github.com/banshee-data/location.report/internal/testutil"
)

func testOptions(dir, out string) options {
	cfg := config.MustLoadDefaultConfig()
	return options{
		Dir:       dir,
		OutDir:    out,
		Precision: cfg.GetPrecision(),
		Steps:     cfg.GetInterpolationSteps(),
		Paths:     cfg.GetPathActivities(),
		Workers:   2,
	}
}

// captureLogs collects monitoring output for the rest of the test.
func captureLogs(t *testing.T) func() []string {
	t.Helper()
	var (
		mu    sync.Mutex
		lines []string
	)
	t.Cleanup(monitoring.Redirect(func(format string, v ...interface{}) {
		mu.Lock()
		defer mu.Unlock()
		lines = append(lines, fmt.Sprintf(format, v...))
	}))
	return func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), lines...)
	}
}

func readCollection(t *testing.T, fsys fsutil.FileSystem, path string) *geojson.FeatureCollection {
	t.Helper()
	data, err := fsys.ReadFile(path)
	require.NoError(t, err)
	fc, err := geojson.UnmarshalFeatureCollection(data)
	require.NoError(t, err)
	return fc
}

func TestRun(t *testing.T) {
	logs := captureLogs(t)

	mem := fsutil.NewMemoryFileSystem()
	require.NoError(t, mem.WriteFile("takeout/2021/2021_JANUARY.json", testutil.SemanticJSON(t,
		testutil.Segment{ActivityType: "STILL", Form: testutil.WaypointPath, Waypoints: []testutil.Waypoint{{Lat: 52.5201, Lng: 13.4051}}},
		testutil.Segment{ActivityType: "WALKING", Form: testutil.SimplifiedRawPath, Waypoints: []testutil.Waypoint{
			{Lat: 52.5201, Lng: 13.4051}, {Lat: 52.5201, Lng: 13.4081},
		}},
		testutil.Segment{Form: testutil.WaypointPath, Waypoints: []testutil.Waypoint{{Lat: 1, Lng: 1}}},
	), 0o644))
	// A waypoint without coordinates makes the whole month unusable,
	// including the STILL segment read before it.
	require.NoError(t, mem.WriteFile("takeout/2021/2021_FEBRUARY.json", []byte(`{"timelineObjects":[
		{"activitySegment":{"activityType":"STILL","waypointPath":{"waypoints":[{"latE7":525201000,"lngE7":134051000},{"latE7":525201000,"lngE7":134051000}]}}},
		{"activitySegment":{"activityType":"WALKING","waypointPath":{"waypoints":[{"lat":1,"lng":2}]}}}]}`), 0o644))
	require.NoError(t, mem.WriteFile("takeout/2021/notes.txt", []byte("ignored"), 0o644))

	opts := testOptions("takeout", "grids")
	opts.DBPath = filepath.Join(t.TempDir(), "runs.db")
	opts.SummaryPath = filepath.Join("grids", "summary.html")
	require.NoError(t, run(context.Background(), mem, opts))

	files, err := mem.Files("grids")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join("grids", "history_ALL.geojson"),
		filepath.Join("grids", "history_STILL.geojson"),
		filepath.Join("grids", "history_WALKING.geojson"),
		filepath.Join("grids", "summary.html"),
	}, files)

	still := readCollection(t, mem, filepath.Join("grids", "history_STILL.geojson"))
	require.Len(t, still.Features, 1)
	assert.Equal(t, "STILL", still.Features[0].Properties["type"])
	assert.EqualValues(t, 1, still.Features[0].Properties["count"])

	// Two waypoints interpolated over three cells along the longitude.
	walking := readCollection(t, mem, filepath.Join("grids", "history_WALKING.geojson"))
	assert.Len(t, walking.Features, 3)

	all := readCollection(t, mem, filepath.Join("grids", "history_ALL.geojson"))
	var visits float64
	for _, f := range all.Features {
		visits += f.Properties.MustFloat64("count")
	}
	assert.Equal(t, 4.0, visits)

	html, err := mem.ReadFile(opts.SummaryPath)
	require.NoError(t, err)
	assert.Contains(t, string(html), "WALKING")

	got := logs()
	assert.Contains(t, got, "activity STILL had 1 waypoints")
	assert.Contains(t, got, "activity WALKING had 2 waypoints")
	assert.Contains(t, got, "segments: 2 accepted, 3 skipped")

	db, err := store.Open(opts.DBPath)
	require.NoError(t, err)
	defer db.Close()
	var runs int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM runs WHERE kind = ?`, store.KindGrid).Scan(&runs))
	assert.Equal(t, 1, runs)
}

func TestRunOnDisk(t *testing.T) {
	t.Cleanup(monitoring.Redirect(nil))

	in := t.TempDir()
	out := filepath.Join(t.TempDir(), "grids")
	testutil.WriteFile(t, in, "2022/2022_MAY.json", testutil.SemanticJSON(t,
		testutil.Segment{ActivityType: "CYCLING", Form: testutil.SimplifiedRawPath, Waypoints: []testutil.Waypoint{
			{Lat: 48.8566, Lng: 2.3522}, {Lat: 48.8596, Lng: 2.3522},
		}},
	))

	require.NoError(t, run(context.Background(), fsutil.OSFileSystem{}, testOptions(in, out)))

	data, err := os.ReadFile(filepath.Join(out, "history_CYCLING.geojson"))
	require.NoError(t, err)
	fc, err := geojson.UnmarshalFeatureCollection(data)
	require.NoError(t, err)
	assert.Len(t, fc.Features, 3)
	assert.FileExists(t, filepath.Join(out, "history_ALL.geojson"))
}

func TestRunErrors(t *testing.T) {
	t.Cleanup(monitoring.Redirect(nil))

	t.Run("missing directory", func(t *testing.T) {
		opts := testOptions(filepath.Join(t.TempDir(), "absent"), t.TempDir())
		assert.Error(t, run(context.Background(), fsutil.OSFileSystem{}, opts))
	})

	t.Run("no json files", func(t *testing.T) {
		in := t.TempDir()
		testutil.WriteFile(t, in, "readme.txt", []byte("x"))
		err := run(context.Background(), fsutil.OSFileSystem{}, testOptions(in, t.TempDir()))
		assert.ErrorContains(t, err, "no .json files")
	})

	t.Run("malformed json", func(t *testing.T) {
		in := t.TempDir()
		testutil.WriteFile(t, in, "broken.json", []byte("{"))
		assert.Error(t, run(context.Background(), fsutil.OSFileSystem{}, testOptions(in, t.TempDir())))
	})
}
