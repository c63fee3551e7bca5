package grid

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/location.report/internal/location"
)

func pts(coords ...float64) []location.GeoPoint {
	out := make([]location.GeoPoint, 0, len(coords)/2)
	for i := 0; i+1 < len(coords); i += 2 {
		out = append(out, location.GeoPoint{Lat: coords[i], Lng: coords[i+1]})
	}
	return out
}

func TestAggregateStationaryPointsShareCell(t *testing.T) {
	col := location.Collection{}
	col.Add(location.Activity{Type: "STILL", Points: pts(1.0000001, 2.0000004, 1.0000006, 2.0000009)})

	got := DefaultAggregator().Aggregate(col)

	want := map[string]Counts{"STILL": {{Lat: 1.0, Lng: 2.0}: 2}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Aggregate mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregateStationaryCountsEveryPoint(t *testing.T) {
	col := location.Collection{}
	col.Add(location.Activity{Type: "IN_VEHICLE", Points: pts(1, 1, 1, 1, 1, 1, 2, 2)})
	col.Add(location.Activity{Type: "IN_VEHICLE", Points: pts(1, 1, 3, 3.0004)})

	got := DefaultAggregator().Aggregate(col)["IN_VEHICLE"]

	assert.Equal(t, col.PointCount("IN_VEHICLE"), got.Total())
	assert.Equal(t, 4, got[Cell{Lat: 1, Lng: 1}])
	assert.Equal(t, 1, got[Cell{Lat: 3, Lng: 3}])
}

func TestAggregateWalkingInterpolatesThreeCells(t *testing.T) {
	col := location.Collection{}
	col.Add(location.Activity{Type: "WALKING", Points: pts(0, 0, 0.003, 0)})

	got := DefaultAggregator().Aggregate(col)["WALKING"]

	want := Counts{
		{Lat: 0.000, Lng: 0}: 1,
		{Lat: 0.001, Lng: 0}: 1,
		{Lat: 0.002, Lng: 0}: 1,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("walking cells mismatch (-want +got):\n%s", diff)
	}
}

// The end point of a path is never sampled on its own. This pins the
// current behaviour so a change to it is deliberate.
func TestAggregatePathEndPointNotCovered(t *testing.T) {
	col := location.Collection{}
	col.Add(location.Activity{Type: "RUNNING", Points: pts(0, 0, 0.003, 0)})

	got := DefaultAggregator().Aggregate(col)["RUNNING"]
	_, covered := got[Cell{Lat: 0.003, Lng: 0}]
	assert.False(t, covered, "final point cell should not be covered")

	single := location.Collection{}
	single.Add(location.Activity{Type: "RUNNING", Points: pts(5, 5)})
	assert.Empty(t, DefaultAggregator().Aggregate(single)["RUNNING"])
}

func TestAggregatePathDeduplicatesPerTraversal(t *testing.T) {
	// Many pings inside one cell, retraced back and forth.
	dense := pts(0.0001, 0.0001, 0.0002, 0.0001, 0.0001, 0.0001, 0.0002, 0.0002, 0.0001, 0.0001)

	t.Run("single traversal counts once", func(t *testing.T) {
		col := location.Collection{}
		col.Add(location.Activity{Type: "CYCLING", Points: dense})
		got := DefaultAggregator().Aggregate(col)["CYCLING"]
		assert.Equal(t, Counts{{Lat: 0, Lng: 0}: 1}, got)
	})

	t.Run("separate traversals count independently", func(t *testing.T) {
		col := location.Collection{}
		col.Add(location.Activity{Type: "CYCLING", Points: dense})
		col.Add(location.Activity{Type: "CYCLING", Points: dense})
		got := DefaultAggregator().Aggregate(col)["CYCLING"]
		assert.Equal(t, 2, got[Cell{Lat: 0, Lng: 0}])
	})
}

func TestAggregateCommutesWithUnion(t *testing.T) {
	a := location.Collection{}
	a.Add(location.Activity{Type: "WALKING", Points: pts(0, 0, 0.003, 0.003, 0.004, 0.001)})
	a.Add(location.Activity{Type: "STILL", Points: pts(1, 1, 1, 1)})

	b := location.Collection{}
	b.Add(location.Activity{Type: "WALKING", Points: pts(0, 0, 0.002, 0)})
	b.Add(location.Activity{Type: "IN_BUS", Points: pts(1, 1, 2, 2)})

	agg := DefaultAggregator()

	separate := NewTotals()
	separate.Add(agg.Aggregate(a))
	separate.Add(agg.Aggregate(b))

	merged := location.Collection{}
	merged.Merge(a)
	merged.Merge(b)
	direct := NewTotals()
	direct.Add(agg.Aggregate(merged))

	if diff := cmp.Diff(direct, separate); diff != "" {
		t.Errorf("union mismatch (-direct +separate):\n%s", diff)
	}
}

func TestTotalsAllCombinesTypes(t *testing.T) {
	totals := NewTotals()
	totals.Add(map[string]Counts{
		"WALKING": {{Lat: 1, Lng: 1}: 2},
		"STILL":   {{Lat: 1, Lng: 1}: 3, {Lat: 2, Lng: 2}: 1},
	})
	totals.Add(map[string]Counts{"WALKING": {{Lat: 1, Lng: 1}: 1}})

	assert.Equal(t, []string{AllActivities, "STILL", "WALKING"}, totals.Types())
	assert.Equal(t, 3, totals["WALKING"][Cell{Lat: 1, Lng: 1}])
	assert.Equal(t, 6, totals[AllActivities][Cell{Lat: 1, Lng: 1}])
	assert.Equal(t, 1, totals[AllActivities][Cell{Lat: 2, Lng: 2}])
}

func TestAggregateInputs(t *testing.T) {
	inputs := []location.Collection{
		{"WALKING": {{Type: "WALKING", Points: pts(0, 0, 0.003, 0)}}},
		nil,
		{"STILL": {{Type: "STILL", Points: pts(0.0001, 0, 5, 5)}}},
		{"WALKING": {{Type: "WALKING", Points: pts(0, 0, 0.001, 0)}}},
	}
	load := func(_ context.Context, i int) (location.Collection, error) {
		return inputs[i], nil
	}
	agg := DefaultAggregator()

	sequential, err := agg.AggregateInputs(context.Background(), len(inputs), 1, load)
	require.NoError(t, err)
	parallel, err := agg.AggregateInputs(context.Background(), len(inputs), 4, load)
	require.NoError(t, err)

	if diff := cmp.Diff(sequential, parallel); diff != "" {
		t.Errorf("worker count changed totals (-seq +par):\n%s", diff)
	}
	assert.Equal(t, 2, sequential["WALKING"][Cell{Lat: 0, Lng: 0}])
	assert.Equal(t, 3, sequential[AllActivities][Cell{Lat: 0, Lng: 0}])
}

func TestAggregateInputsPropagatesError(t *testing.T) {
	boom := errors.New("boom")
	_, err := DefaultAggregator().AggregateInputs(context.Background(), 3, 2, func(_ context.Context, i int) (location.Collection, error) {
		if i == 1 {
			return nil, boom
		}
		return location.Collection{}, nil
	})
	assert.ErrorIs(t, err, boom)
}
