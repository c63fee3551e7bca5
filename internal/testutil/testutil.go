// Package testutil provides shared test helpers and Takeout fixtures.
package testutil

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// WriteFile writes body to dir/name, creating parents, and returns the path.
func WriteFile(t testing.TB, dir, name string, body []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, body, 0o644))
	return path
}

// PathForm selects how a fixture segment encodes its path.
type PathForm int

const (
	SimplifiedRawPath PathForm = iota
	WaypointPath
	NoPath
)

// Waypoint is a fixture coordinate in degrees.
type Waypoint struct {
	Lat, Lng float64
}

func (w Waypoint) e7() (int64, int64) {
	return int64(math.Round(w.Lat * 1e7)), int64(math.Round(w.Lng * 1e7))
}

// Segment is one activitySegment of a Semantic Location History fixture.
type Segment struct {
	ActivityType string // empty omits the key
	Form         PathForm
	Waypoints    []Waypoint
}

// SemanticJSON renders a Semantic Location History month file. A place
// visit is added first so decoders have something to skip.
func SemanticJSON(t testing.TB, segments ...Segment) []byte {
	t.Helper()
	objects := []map[string]any{{
		"placeVisit": map[string]any{
			"location": map[string]any{"latitudeE7": 525200000, "longitudeE7": 134050000, "name": "Home"},
		},
	}}
	for _, s := range segments {
		seg := map[string]any{}
		if s.ActivityType != "" {
			seg["activityType"] = s.ActivityType
		}
		switch s.Form {
		case SimplifiedRawPath:
			points := make([]map[string]any, 0, len(s.Waypoints))
			for _, w := range s.Waypoints {
				lat, lng := w.e7()
				points = append(points, map[string]any{"latE7": lat, "lngE7": lng, "accuracyMeters": 10})
			}
			seg["simplifiedRawPath"] = map[string]any{"points": points}
		case WaypointPath:
			points := make([]map[string]any, 0, len(s.Waypoints))
			for _, w := range s.Waypoints {
				lat, lng := w.e7()
				points = append(points, map[string]any{"latE7": lat, "lngE7": lng})
			}
			seg["waypointPath"] = map[string]any{"waypoints": points}
		}
		objects = append(objects, map[string]any{"activitySegment": seg})
	}
	data, err := json.Marshal(map[string]any{"timelineObjects": objects})
	require.NoError(t, err)
	return data
}

// Record is one element of a Records.json fixture.
type Record struct {
	LatE7, LngE7 int64
	At           time.Time
	Millis       bool // encode as timestampMs instead of ISO-8601
}

// RecordsJSON renders a Records.json export with the given records.
func RecordsJSON(t testing.TB, records ...Record) []byte {
	t.Helper()
	locs := make([]map[string]any, 0, len(records))
	for _, r := range records {
		loc := map[string]any{"latitudeE7": r.LatE7, "longitudeE7": r.LngE7, "accuracy": 20}
		if r.Millis {
			loc["timestampMs"] = strconv.FormatInt(r.At.UnixMilli(), 10)
		} else {
			loc["timestamp"] = r.At.UTC().Format("2006-01-02T15:04:05.000Z")
		}
		locs = append(locs, loc)
	}
	data, err := json.Marshal(map[string]any{"locations": locs})
	require.NoError(t, err)
	return data
}
