package location

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func path(coords ...int64) []RawSample {
	out := make([]RawSample, 0, len(coords)/2)
	for i := 0; i+1 < len(coords); i += 2 {
		out = append(out, RawSample{LatE7: i64(coords[i]), LngE7: i64(coords[i+1])})
	}
	return out
}

func TestBuildCollection(t *testing.T) {
	segments := []Segment{
		{ActivityType: "WALKING", Path: path(0, 0, 30000, 0), HasPath: true},
		{ActivityType: "", Path: path(1, 1), HasPath: true},
		{ActivityType: "IN_BUS", HasPath: false},
		{ActivityType: "WALKING", Path: path(10, 10), HasPath: true},
		{ActivityType: "STILL", Path: path(5, 5, 5, 5, 5, 5), HasPath: true},
	}

	col, rep, err := BuildCollection(segments)
	require.NoError(t, err)

	assert.Equal(t, []string{"STILL", "WALKING"}, col.Types())
	assert.Len(t, col["WALKING"], 2)
	assert.Equal(t, 3, col.PointCount("WALKING"))
	assert.Equal(t, 3, col.PointCount("STILL"))

	assert.Equal(t, 5, rep.Segments)
	assert.Equal(t, 3, rep.Accepted)
	assert.Equal(t, 2, rep.Skipped())
	assert.Len(t, rep.Notes, 2)
	if diff := cmp.Diff(map[string]int{"WALKING": 3, "STILL": 3}, rep.PointsByActivity); diff != "" {
		t.Errorf("PointsByActivity mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildCollectionMalformedWaypoint(t *testing.T) {
	segments := []Segment{
		{ActivityType: "WALKING", Path: path(0, 0), HasPath: true},
		{ActivityType: "CYCLING", Path: []RawSample{{LatE7: i64(1), LngE7: i64(1)}, {}}, HasPath: true},
	}

	col, rep, err := BuildCollection(segments)
	require.ErrorIs(t, err, ErrUnrecognizedFormat)
	assert.Nil(t, col)
	assert.Contains(t, err.Error(), "CYCLING")
	assert.NotEmpty(t, rep.Notes)

	// The WALKING segment read before the bad waypoint is discarded too.
	assert.Equal(t, 2, rep.Segments)
	assert.Zero(t, rep.Accepted)
	assert.Equal(t, 2, rep.Skipped())
	assert.Empty(t, rep.PointsByActivity)
}

func TestCollectionMerge(t *testing.T) {
	a := Collection{"WALKING": {{Type: "WALKING", Points: []GeoPoint{{Lat: 1}}}}}
	b := Collection{
		"WALKING": {{Type: "WALKING", Points: []GeoPoint{{Lat: 2}}}},
		"STILL":   {{Type: "STILL", Points: []GeoPoint{{Lat: 3}}}},
	}
	a.Merge(b)

	assert.Len(t, a["WALKING"], 2)
	assert.Equal(t, 1.0, a["WALKING"][0].Points[0].Lat)
	assert.Equal(t, 2.0, a["WALKING"][1].Points[0].Lat)
	assert.Len(t, a["STILL"], 1)
}

func TestReportMerge(t *testing.T) {
	var total Report
	total.Merge(Report{Segments: 2, Accepted: 1, Notes: []string{"x"}, PointsByActivity: map[string]int{"A": 4}})
	total.Merge(Report{Segments: 1, Accepted: 1, PointsByActivity: map[string]int{"A": 1, "B": 2}})

	assert.Equal(t, 3, total.Segments)
	assert.Equal(t, 1, total.Skipped())
	assert.Equal(t, map[string]int{"A": 5, "B": 2}, total.PointsByActivity)
}
