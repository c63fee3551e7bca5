// Command geogrid aggregates a Semantic Location History export into
// per-activity grid GeoJSON files.
//
// Usage:
//
//	geogrid -dir "Takeout/Location History/Semantic Location History" -out grids
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"path/filepath"
	"sort"

	"github.com/banshee-data/location.report/internal/config"
	"github.com/banshee-data/location.report/internal/export"
	"github.com/banshee-data/location.report/internal/fsutil"
	"github.com/banshee-data/location.report/internal/grid"
	"github.com/banshee-data/location.report/internal/location"
	"github.com/banshee-data/location.report/internal/monitoring"
	"github.com/banshee-data/location.report/internal/store"
	"github.com/banshee-data/location.report/internal/takeout"
	"github.com/banshee-data/location.report/internal/version"
)

// options is the resolved command line.
type options struct {
	Dir         string   `json:"dir"`
	OutDir      string   `json:"out"`
	Precision   int      `json:"precision"`
	Steps       int      `json:"steps"`
	Paths       []string `json:"path_activities"`
	Workers     int      `json:"workers"`
	DBPath      string   `json:"-"`
	SummaryPath string   `json:"-"`
}

func main() {
	var (
		dir         = flag.String("dir", "", "Semantic Location History directory (searched recursively for .json)")
		outDir      = flag.String("out", ".", "output directory for history_<TYPE>.geojson files")
		precision   = flag.Int("precision", 0, "decimal digits kept in grid coordinates (default from config)")
		steps       = flag.Int("steps", 0, "interpolation samples per path segment (default from config)")
		workers     = flag.Int("workers", 0, "files aggregated concurrently (default from config)")
		dbPath      = flag.String("db", "", "optional sqlite file recording the run")
		summaryPath = flag.String("summary", "", "optional HTML summary chart")
		configPath  = flag.String("config", "", "optional JSON run configuration")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println("geogrid", version.String())
		return
	}
	if *dir == "" && flag.NArg() > 0 {
		*dir = flag.Arg(0)
	}
	if *dir == "" {
		log.Fatalf("usage: geogrid -dir <Semantic Location History directory>")
	}

	cfg := config.DefaultRunConfig()
	if *configPath != "" {
		loaded, err := config.LoadRunConfig(*configPath)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
		cfg = loaded
	}

	opts := options{
		Dir:         *dir,
		OutDir:      *outDir,
		Precision:   cfg.GetPrecision(),
		Steps:       cfg.GetInterpolationSteps(),
		Paths:       cfg.GetPathActivities(),
		Workers:     cfg.GetWorkers(),
		DBPath:      *dbPath,
		SummaryPath: *summaryPath,
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "precision":
			opts.Precision = *precision
		case "steps":
			opts.Steps = *steps
		case "workers":
			opts.Workers = *workers
		}
	})

	if err := run(context.Background(), fsutil.OSFileSystem{}, opts); err != nil {
		log.Fatalf("geogrid: %v", err)
	}
}

// run aggregates every file below opts.Dir. A file holding a sample in an
// unknown format is reported and skipped; any other failure aborts.
func run(ctx context.Context, fsys fsutil.FileSystem, opts options) error {
	files, err := fsutil.FindJSON(fsys, opts.Dir)
	if err != nil {
		return fmt.Errorf("list %s: %w", opts.Dir, err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no .json files below %s", opts.Dir)
	}

	agg := grid.NewAggregator(opts.Precision, opts.Steps, opts.Paths)
	reports := make([]location.Report, len(files))
	progress := &monitoring.Progress{Label: "processed", Total: len(files)}

	totals, err := agg.AggregateInputs(ctx, len(files), opts.Workers, func(ctx context.Context, i int) (location.Collection, error) {
		col, rep, err := takeout.ReadSemanticFile(fsys, files[i])
		reports[i] = rep
		if errors.Is(err, location.ErrUnrecognizedFormat) {
			monitoring.Warnf("skipping %s: %v", files[i], err)
			progress.Step(files[i])
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		progress.Step(files[i])
		return col, nil
	})
	if err != nil {
		return err
	}

	var report location.Report
	for _, r := range reports {
		report.Merge(r)
	}
	for _, note := range report.Notes {
		monitoring.Logf("%s", note)
	}
	monitoring.Logf("segments: %d accepted, %d skipped", report.Accepted, report.Skipped())
	for _, typ := range sortedKeys(report.PointsByActivity) {
		monitoring.Logf("activity %s had %d waypoints", typ, report.PointsByActivity[typ])
	}

	if _, err := export.WriteGeoJSON(fsys, opts.OutDir, totals, opts.Precision); err != nil {
		return err
	}
	if opts.SummaryPath != "" {
		if err := writeSummary(fsys, opts.SummaryPath, totals); err != nil {
			return err
		}
	}
	if opts.DBPath != "" {
		if err := record(opts, totals); err != nil {
			return err
		}
	}
	return nil
}

func writeSummary(fsys fsutil.FileSystem, path string, totals grid.Totals) error {
	if err := fsys.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := fsys.Create(path)
	if err != nil {
		return err
	}
	if err := export.RenderGridSummary(f, "Semantic location history grid", export.ActivityStats(totals)); err != nil {
		f.Close()
		return fmt.Errorf("render summary: %w", err)
	}
	return f.Close()
}

func record(opts options, totals grid.Totals) error {
	db, err := store.Open(opts.DBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	run, err := db.BeginRun(store.KindGrid, opts)
	if err != nil {
		return err
	}
	n, err := db.InsertCells(run.ID, totals)
	if err != nil {
		return err
	}
	monitoring.Logf("recorded run %s: %d cells", run.ID, n)
	return db.FinishRun(run.ID)
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
