package render

import (
	"fmt"
	"image"
	"image/color"
	"path/filepath"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/brewer"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/banshee-data/location.report/internal/density"
	"github.com/banshee-data/location.report/internal/frames"
	"github.com/banshee-data/location.report/internal/fsutil"
	"github.com/banshee-data/location.report/internal/monitoring"
	"github.com/banshee-data/location.report/internal/security"
)

const (
	// DefaultDPI maps one matrix cell to one output pixel at this DPI.
	DefaultDPI = 90
	// minFramePixels keeps axes and title legible on small boxes.
	minFramePixels = 320
)

// Options configures a PNGRenderer.
type Options struct {
	Place     string // used in titles and, sanitised, in file names
	OutDir    string
	Bounds    density.BBox
	Step      int // bin width in minutes, for titles
	Alpha     float64
	BaseAlpha float64
	DPI       float64
}

// PNGRenderer writes one PNG per frame. The baseline goes to the all-time
// image and is left out of Files, which lists the timed frames in order.
type PNGRenderer struct {
	Files        []string
	BaselineFile string

	opts    Options
	fsys    fsutil.FileSystem
	base    image.Image
	palette palette.Palette
	rows    int
	cols    int
}

// NewPNGRenderer prepares a renderer for rows x cols frames. base may be
// nil to plot the heat map alone.
func NewPNGRenderer(fsys fsutil.FileSystem, opts Options, base image.Image, rows, cols int) (*PNGRenderer, error) {
	if rows < 1 || cols < 1 {
		return nil, fmt.Errorf("invalid frame shape %dx%d", rows, cols)
	}
	if opts.DPI <= 0 {
		opts.DPI = DefaultDPI
	}
	spectral, err := brewer.GetPalette(brewer.TypeAny, "Spectral", 11)
	if err != nil {
		return nil, fmt.Errorf("spectral palette: %w", err)
	}
	if err := fsys.MkdirAll(opts.OutDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	r := &PNGRenderer{
		opts:    opts,
		fsys:    fsys,
		palette: withAlpha(spectral, opts.Alpha),
		rows:    rows,
		cols:    cols,
	}
	if base != nil {
		r.base = PrepareBaseMap(base, rows, cols, opts.BaseAlpha)
	}
	return r, nil
}

// FrameFileName names the PNG of a frame.
func FrameFileName(place string, f frames.Frame) string {
	place = security.SanitizeName(place)
	if f.Baseline() {
		return fmt.Sprintf("locations_in_%s_all_time_weighted.png", place)
	}
	return fmt.Sprintf("locations_in_%s_time_%04d.png", place, f.Index)
}

// Title returns the plot title of a frame.
func Title(place string, bin frames.TimeBin) string {
	if bin.Unfiltered {
		return fmt.Sprintf("Location history for zone: %s at any moment of the day", place)
	}
	return fmt.Sprintf("Location history for zone: %s and hour %d:%02d + %d minutes (UTC)",
		place, bin.Start/60, bin.Start%60, bin.Step)
}

// RenderFrame plots f.Draw and saves it.
func (r *PNGRenderer) RenderFrame(f frames.Frame) error {
	rows, cols := f.Draw.Dims()
	if rows != r.rows || cols != r.cols {
		return fmt.Errorf("frame %d is %dx%d, renderer expects %dx%d", f.Index, rows, cols, r.rows, r.cols)
	}

	p, err := r.plot(f)
	if err != nil {
		return err
	}
	path, err := security.OutputPath(r.opts.OutDir, FrameFileName(r.opts.Place, f))
	if err != nil {
		return err
	}
	if err := r.save(p, path); err != nil {
		return fmt.Errorf("save frame %d: %w", f.Index, err)
	}

	if f.Baseline() {
		r.BaselineFile = path
	} else {
		r.Files = append(r.Files, path)
	}
	monitoring.Logf("wrote %s", filepath.Base(path))
	return nil
}

func (r *PNGRenderer) plot(f frames.Frame) (*plot.Plot, error) {
	x0, x1, y0, y1 := r.opts.Bounds.Degrees()

	p := plot.New()
	p.Title.Text = Title(r.opts.Place, f.Bin)
	p.X.Label.Text = "Longitude"
	p.Y.Label.Text = "Latitude"
	p.X.Min, p.X.Max = x0, x1
	p.Y.Min, p.Y.Max = y0, y1

	if r.base != nil {
		p.Add(plotter.NewImage(r.base, x0, y0, x1, y1))
	}

	hm := plotter.NewHeatMap(matrixGrid{
		m:  f.Draw,
		x0: x0,
		y0: y0,
		dx: (x1 - x0) / float64(r.cols),
		dy: (y1 - y0) / float64(r.rows),
	}, r.palette)
	hm.Min, hm.Max = 0, 1
	hm.Rasterized = true
	p.Add(hm)
	return p, nil
}

func (r *PNGRenderer) save(p *plot.Plot, path string) error {
	dpi := r.opts.DPI
	w := vg.Length(max(r.cols, minFramePixels)) / vg.Length(dpi) * vg.Inch
	h := vg.Length(max(r.rows, minFramePixels)) / vg.Length(dpi) * vg.Inch

	c := vgimg.NewWith(vgimg.UseWH(w, h), vgimg.UseDPI(int(dpi)))
	p.Draw(draw.New(c))

	out, err := r.fsys.Create(path)
	if err != nil {
		return err
	}
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(out); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// matrixGrid exposes a matrix as a plotter.GridXYZ with cell centres in
// degrees. Column c is longitude, row r is latitude.
type matrixGrid struct {
	m      mat.Matrix
	x0, y0 float64
	dx, dy float64
}

func (g matrixGrid) Dims() (c, r int) {
	r, c = g.m.Dims()
	return c, r
}

func (g matrixGrid) Z(c, r int) float64 { return g.m.At(r, c) }
func (g matrixGrid) X(c int) float64    { return g.x0 + (float64(c)+0.5)*g.dx }
func (g matrixGrid) Y(r int) float64    { return g.y0 + (float64(r)+0.5)*g.dy }

type fixedPalette []color.Color

func (p fixedPalette) Colors() []color.Color { return p }

// withAlpha returns p with every colour's opacity set to alpha.
func withAlpha(p palette.Palette, alpha float64) palette.Palette {
	a := uint8(clamp01(alpha)*255 + 0.5)
	src := p.Colors()
	out := make(fixedPalette, len(src))
	for i, c := range src {
		n := color.NRGBAModel.Convert(c).(color.NRGBA)
		n.A = a
		out[i] = n
	}
	return out
}
