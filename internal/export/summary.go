package export

import (
	"fmt"
	"io"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/location.report/internal/frames"
	"github.com/banshee-data/location.report/internal/grid"
)

// ActivityStat summarises the grid of one activity type.
type ActivityStat struct {
	Type   string
	Cells  int
	Visits int
}

// ActivityStats returns one stat per type of totals, busiest first, with
// ties broken by name.
func ActivityStats(totals grid.Totals) []ActivityStat {
	stats := make([]ActivityStat, 0, len(totals))
	for typ, counts := range totals {
		stats = append(stats, ActivityStat{Type: typ, Cells: len(counts), Visits: counts.Total()})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Visits != stats[j].Visits {
			return stats[i].Visits > stats[j].Visits
		}
		return stats[i].Type < stats[j].Type
	})
	return stats
}

// RenderGridSummary writes an HTML page charting cells and visits per
// activity type.
func RenderGridSummary(w io.Writer, title string, stats []ActivityStat) error {
	x := make([]string, 0, len(stats))
	cells := make([]opts.BarData, 0, len(stats))
	visits := make([]opts.BarData, 0, len(stats))
	for _, s := range stats {
		x = append(x, s.Type)
		cells = append(cells, opts.BarData{Value: s.Cells})
		visits = append(visits, opts.BarData{Value: s.Visits})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "100%", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("%d activity types", len(stats))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(x).
		AddSeries("cells", cells).
		AddSeries("visits", visits, charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}))

	page := components.NewPage()
	page.PageTitle = title
	page.AddCharts(bar)
	return page.Render(w)
}

// RenderFrameSummary writes an HTML page charting the intensity of every
// timed frame and the sample counts per bin.
func RenderFrameSummary(w io.Writer, place string, sums []frames.Summary) error {
	var (
		labels                 []string
		minData, mean, maxData []opts.LineData
		samples                []opts.BarData
	)
	for _, s := range sums {
		if s.Baseline {
			continue
		}
		labels = append(labels, s.Label)
		minData = append(minData, opts.LineData{Value: s.Min})
		mean = append(mean, opts.LineData{Value: s.Mean})
		maxData = append(maxData, opts.LineData{Value: s.Max})
		samples = append(samples, opts.BarData{Value: s.Processed - s.Skipped})
	}

	title := fmt.Sprintf("Location history for zone: %s", place)
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "100%", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: "moving average intensity per time of day (UTC)"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: 1}),
	)
	line.SetXAxis(labels).
		AddSeries("min", minData).
		AddSeries("mean", mean).
		AddSeries("max", maxData).
		SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "360px"}),
		charts.WithTitleOpts(opts.Title{Title: "Samples per bin"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(labels).AddSeries("samples", samples)

	page := components.NewPage()
	page.PageTitle = title
	page.AddCharts(line, bar)
	return page.Render(w)
}
