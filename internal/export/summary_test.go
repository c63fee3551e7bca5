package export

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/location.report/internal/frames"
	"github.com/banshee-data/location.report/internal/grid"
)

func TestActivityStats(t *testing.T) {
	totals := grid.NewTotals()
	totals.Add(map[string]grid.Counts{
		"WALKING": {{Lat: 0, Lng: 0}: 2, {Lat: 1, Lng: 1}: 1},
		"IN_BUS":  {{Lat: 2, Lng: 2}: 3},
		"FLYING":  {{Lat: 3, Lng: 3}: 3},
	})

	want := []ActivityStat{
		{Type: "ALL", Cells: 4, Visits: 9},
		{Type: "FLYING", Cells: 1, Visits: 3},
		{Type: "IN_BUS", Cells: 1, Visits: 3},
		{Type: "WALKING", Cells: 2, Visits: 3},
	}
	if diff := cmp.Diff(want, ActivityStats(totals)); diff != "" {
		t.Errorf("ActivityStats mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderGridSummary(t *testing.T) {
	var buf bytes.Buffer
	err := RenderGridSummary(&buf, "Semantic location history", []ActivityStat{{Type: "WALKING", Cells: 2, Visits: 3}})
	require.NoError(t, err)

	html := buf.String()
	assert.Contains(t, html, "<html")
	assert.Contains(t, html, "Semantic location history")
	assert.Contains(t, html, "WALKING")
}

func TestRenderFrameSummary(t *testing.T) {
	sums := []frames.Summary{
		{Index: 0, Label: "all", Baseline: true, Processed: 10, Max: 1},
		{Index: 1, Label: "00:00", Processed: 10, Skipped: 4, Mean: 0.25, Max: 0.5},
		{Index: 2, Label: "12:00", Processed: 10, Skipped: 10, Empty: true},
	}
	var buf bytes.Buffer
	require.NoError(t, RenderFrameSummary(&buf, "berlin", sums))

	html := buf.String()
	assert.Contains(t, html, "berlin")
	assert.Contains(t, html, "12:00")
}
