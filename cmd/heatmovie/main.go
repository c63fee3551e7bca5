// Command heatmovie renders a Records.json location history as a sequence
// of time-of-day heat map frames over an optional base map, then stitches
// the frames into an animated GIF.
//
// Usage:
//
//	heatmovie -place home -x0 134000000 -x1 134400000 -y0 525000000 -y1 525300000 \
//	    -scale 1000 -input Records.json -base map.png -out frames
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"log"
	"path/filepath"
	"time"

	"github.com/banshee-data/location.report/internal/config"
	"github.com/banshee-data/location.report/internal/density"
	"github.com/banshee-data/location.report/internal/export"
	"github.com/banshee-data/location.report/internal/frames"
	"github.com/banshee-data/location.report/internal/fsutil"
	"github.com/banshee-data/location.report/internal/monitoring"
	"github.com/banshee-data/location.report/internal/render"
	"github.com/banshee-data/location.report/internal/security"
	"github.com/banshee-data/location.report/internal/store"
	"github.com/banshee-data/location.report/internal/takeout"
	"github.com/banshee-data/location.report/internal/timeutil"
	"github.com/banshee-data/location.report/internal/version"
)

// framesPerSecond of the ffconcat list.
const framesPerSecond = 4

var clock timeutil.Clock = timeutil.RealClock{}

type options struct {
	Place       string            `json:"place"`
	Bounds      density.BBox      `json:"bounds"`
	Scale       int64             `json:"scale"`
	Input       string            `json:"input"`
	BaseMap     string            `json:"base_map,omitempty"`
	OutDir      string            `json:"out"`
	MinuteStep  int               `json:"minute_step"`
	Persistence float64           `json:"persistence"`
	Sigma       float64           `json:"smoothing_sigma"`
	Truncate    float64           `json:"smoothing_truncate"`
	Percentiles int               `json:"percentiles"`
	Alpha       float64           `json:"overlay_alpha"`
	BaseAlpha   float64           `json:"base_alpha"`
	DPI         float64           `json:"frame_dpi"`
	GIF         bool              `json:"gif"`
	GIFOptions  render.GIFOptions `json:"-"`
	DBPath      string            `json:"-"`
	SummaryPath string            `json:"-"`
}

func main() {
	var (
		place       = flag.String("place", "", "name of the zone, used in titles and file names")
		x0          = flag.Int64("x0", 0, "west edge, longitude E7")
		x1          = flag.Int64("x1", 0, "east edge, longitude E7")
		y0          = flag.Int64("y0", 0, "south edge, latitude E7")
		y1          = flag.Int64("y1", 0, "north edge, latitude E7")
		scale       = flag.Int64("scale", 1000, "E7 units per matrix cell")
		input       = flag.String("input", "Records.json", "raw location history file")
		baseMap     = flag.String("base", "", "optional base map image (png, jpeg or tiff) covering the box")
		outDir      = flag.String("out", ".", "output directory for frames and the animation")
		step        = flag.Int("step", 0, "time bin width in minutes (default from config)")
		dbPath      = flag.String("db", "", "optional sqlite file recording the run")
		summaryPath = flag.String("summary", "", "optional HTML chart of per-frame statistics")
		configPath  = flag.String("config", "", "optional JSON run configuration")
		makeGIF     = flag.Bool("gif", true, "assemble the timed frames into <place>.gif")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println("heatmovie", version.String())
		return
	}
	if *place == "" {
		log.Fatalf("usage: heatmovie -place <name> -x0 .. -x1 .. -y0 .. -y1 .. [-scale N] [-input Records.json]")
	}

	cfg := config.DefaultRunConfig()
	if *configPath != "" {
		loaded, err := config.LoadRunConfig(*configPath)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
		cfg = loaded
	}

	opts := optionsFromConfig(cfg)
	opts.Place = *place
	opts.Bounds = density.BBox{X0: *x0, X1: *x1, Y0: *y0, Y1: *y1}
	opts.Scale = *scale
	opts.Input = *input
	opts.BaseMap = *baseMap
	opts.OutDir = *outDir
	opts.GIF = *makeGIF
	opts.DBPath = *dbPath
	opts.SummaryPath = *summaryPath
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "step" {
			opts.MinuteStep = *step
		}
	})

	if err := run(context.Background(), fsutil.OSFileSystem{}, opts); err != nil {
		log.Fatalf("heatmovie: %v", err)
	}
}

func optionsFromConfig(cfg *config.RunConfig) options {
	return options{
		MinuteStep:  cfg.GetMinuteStep(),
		Persistence: cfg.GetPersistence(),
		Sigma:       cfg.GetSmoothingSigma(),
		Truncate:    cfg.GetSmoothingTruncate(),
		Percentiles: cfg.GetPercentiles(),
		Alpha:       cfg.GetOverlayAlpha(),
		BaseAlpha:   cfg.GetBaseAlpha(),
		DPI:         cfg.GetFrameDPI(),
		GIF:         true,
		GIFOptions: render.GIFOptions{
			MaxHeight: cfg.GetGIFMaxHeight(),
			Delay:     cfg.GetGIFDelay(),
		},
	}
}

func run(ctx context.Context, fsys fsutil.FileSystem, opts options) error {
	agg, err := density.NewAggregator(opts.Bounds, opts.Scale)
	if err != nil {
		return err
	}
	bins, err := frames.Bins(opts.MinuteStep)
	if err != nil {
		return err
	}

	start := clock.Now()
	samples, err := takeout.LoadSamplesFile(ctx, fsys, opts.Input)
	if err != nil {
		return err
	}
	monitoring.Logf("loaded %d samples from %s in %s", len(samples), opts.Input, clock.Since(start).Round(time.Millisecond))

	var base image.Image
	if opts.BaseMap != "" {
		if base, err = render.LoadBaseMap(fsys, opts.BaseMap); err != nil {
			return err
		}
	}

	rows, cols := agg.Dims()
	renderer, err := render.NewPNGRenderer(fsys, render.Options{
		Place:     opts.Place,
		OutDir:    opts.OutDir,
		Bounds:    opts.Bounds,
		Step:      opts.MinuteStep,
		Alpha:     opts.Alpha,
		BaseAlpha: opts.BaseAlpha,
		DPI:       opts.DPI,
	}, base, rows, cols)
	if err != nil {
		return err
	}

	seq := &frames.Sequencer{
		Aggregator:  agg,
		Smoother:    density.NewSmoother(opts.Sigma, opts.Truncate),
		Percentiles: opts.Percentiles,
		Persistence: opts.Persistence,
	}
	_, sums, err := seq.Run(samples, bins, renderer)
	if err != nil {
		return err
	}

	name := security.SanitizeName(opts.Place)
	if opts.GIF {
		gifPath, err := security.OutputPath(opts.OutDir, name+".gif")
		if err != nil {
			return err
		}
		if err := render.EncodeGIF(fsys, renderer.Files, gifPath, opts.GIFOptions); err != nil {
			return fmt.Errorf("encode gif: %w", err)
		}
	}
	listPath, err := security.OutputPath(opts.OutDir, name+"_frames.txt")
	if err != nil {
		return err
	}
	if err := render.WriteFrameList(fsys, renderer.Files, listPath, framesPerSecond); err != nil {
		return fmt.Errorf("write frame list: %w", err)
	}

	if opts.SummaryPath != "" {
		if err := writeSummary(fsys, opts.SummaryPath, opts.Place, sums); err != nil {
			return err
		}
	}
	if opts.DBPath != "" {
		if err := record(opts, sums, renderer); err != nil {
			return err
		}
	}
	return nil
}

func writeSummary(fsys fsutil.FileSystem, path, place string, sums []frames.Summary) error {
	if err := fsys.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := fsys.Create(path)
	if err != nil {
		return err
	}
	if err := export.RenderFrameSummary(f, place, sums); err != nil {
		f.Close()
		return fmt.Errorf("render summary: %w", err)
	}
	return f.Close()
}

func record(opts options, sums []frames.Summary, r *render.PNGRenderer) error {
	db, err := store.Open(opts.DBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	run, err := db.BeginRun(store.KindHeatmap, opts)
	if err != nil {
		return err
	}
	for _, sum := range sums {
		file := r.BaselineFile
		if !sum.Baseline && sum.Index-1 < len(r.Files) {
			file = r.Files[sum.Index-1]
		}
		if err := db.InsertFrame(run.ID, sum, file); err != nil {
			return err
		}
	}
	monitoring.Logf("recorded run %s: %d frames", run.ID, len(sums))
	return db.FinishRun(run.ID)
}
