package frames

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/location.report/internal/density"
	"github.com/banshee-data/location.report/internal/location"
	"github.com/banshee-data/location.report/internal/monitoring"
)

// Frame is one bin ready for drawing.
type Frame struct {
	Index  int // 0 is the baseline
	Bin    TimeBin
	Matrix *mat.Dense // normalised density of this bin alone
	Draw   *mat.Dense // moving average to draw
	Report density.Report
	Empty  bool // no sample landed in the bin; Matrix is the raw zero matrix
}

// Baseline reports whether f is the unfiltered frame.
func (f Frame) Baseline() bool {
	return f.Bin.Unfiltered
}

// Renderer draws frames. It must not modify the matrices it receives.
type Renderer interface {
	RenderFrame(f Frame) error
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(f Frame) error

// RenderFrame calls fn(f).
func (fn RendererFunc) RenderFrame(f Frame) error {
	return fn(f)
}

// Summary describes one emitted frame.
type Summary struct {
	Index     int
	Label     string
	Baseline  bool
	Processed int
	Skipped   int
	Empty     bool
	Min       float64
	Mean      float64
	Max       float64
}

// Sequencer turns a sample list into a sequence of smoothed, normalised
// frames.
type Sequencer struct {
	Aggregator  *density.Aggregator
	Smoother    *density.Smoother
	Percentiles int
	Persistence float64
}

// NewSequencer returns a sequencer with the default smoothing (sigma 1),
// 99 percentiles and persistence 4.
func NewSequencer(agg *density.Aggregator) *Sequencer {
	return &Sequencer{
		Aggregator:  agg,
		Smoother:    density.NewSmoother(1, 4),
		Percentiles: density.DefaultPercentiles,
		Persistence: DefaultPersistence,
	}
}

// Run processes bins in order and hands every frame to r. bins must start
// with the unfiltered baseline followed by timed bins in chronological
// order. The final state is returned with one summary per frame.
func (s *Sequencer) Run(samples []location.Sample, bins []TimeBin, r Renderer) (*State, []Summary, error) {
	if err := validate(bins); err != nil {
		return nil, nil, err
	}
	state := NewState(s.Persistence, len(bins)-1)
	summaries := make([]Summary, 0, len(bins))

	for i, bin := range bins {
		f := s.frame(state, samples, bin)
		f.Index = i
		f.Draw = state.Blend(f.Matrix)

		sum := summarize(f)
		monitoring.Logf("frame %d of %d (%s): processed=%d skipped=%d min/avg/max=%.3f/%.3f/%.3f",
			i, len(bins)-1, sum.Label, sum.Processed, sum.Skipped, sum.Min, sum.Mean, sum.Max)

		if r != nil {
			if err := r.RenderFrame(f); err != nil {
				return state, summaries, fmt.Errorf("render frame %d (%s): %w", i, bin.Label(), err)
			}
		}
		summaries = append(summaries, sum)

		if bin.Unfiltered {
			state.CloseBaseline()
		}
	}
	return state, summaries, nil
}

// frame builds the normalised matrix of one bin, seeding the breakpoints
// when bin is the baseline.
func (s *Sequencer) frame(state *State, samples []location.Sample, bin TimeBin) Frame {
	raw, rep := s.Aggregator.Accumulate(samples, bin.Range())
	if rep.Effective() == 0 {
		return Frame{Bin: bin, Matrix: raw, Report: rep, Empty: true}
	}

	smoothed := s.Smoother.Smooth(raw)
	if bin.Unfiltered {
		state.Breakpoints = density.Breakpoints(smoothed, s.Percentiles)
	}
	return Frame{Bin: bin, Matrix: density.Normalize(smoothed, state.Breakpoints), Report: rep}
}

func summarize(f Frame) Summary {
	return Summary{
		Index:     f.Index,
		Label:     f.Bin.Label(),
		Baseline:  f.Baseline(),
		Processed: f.Report.Processed,
		Skipped:   f.Report.Skipped,
		Empty:     f.Empty,
		Min:       mat.Min(f.Draw),
		Mean:      stat.Mean(mat.DenseCopyOf(f.Draw).RawMatrix().Data, nil),
		Max:       mat.Max(f.Draw),
	}
}
