package frames

import (
	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/location.report/internal/density"
)

// DefaultPersistence is the weight of a new frame against the running
// average.
const DefaultPersistence = 4.0

// State carries what one bin leaves for the next: the percentile
// breakpoints and the moving-average frame. It is owned by one sequence.
type State struct {
	Breakpoints []float64
	Average     *mat.Dense // nil until the first frame is blended

	persistence float64
	binCount    int
}

// NewState returns an empty state for a sequence of binCount timed bins.
func NewState(persistence float64, binCount int) *State {
	return &State{persistence: persistence, binCount: binCount}
}

// Blend folds frame into the moving average as
// (avg + frame*W) / (1+W) and returns the new average. The first frame
// after a reset becomes the average as is. Averages are never modified in
// place, so a matrix handed to a renderer stays valid.
func (s *State) Blend(frame *mat.Dense) *mat.Dense {
	next := mat.DenseCopyOf(frame)
	if s.Average != nil {
		next.Scale(s.persistence, next)
		next.Add(next, s.Average)
		next.Scale(1/(1+s.persistence), next)
	}
	s.Average = next
	return next
}

// CloseBaseline ends the baseline: the average is dropped so it does not
// bleed into the first timed frame, and the breakpoints are scaled by the
// number of timed bins since each bin holds only a slice of the day.
func (s *State) CloseBaseline() {
	s.Average = nil
	s.Breakpoints = density.Rescale(s.Breakpoints, float64(s.binCount))
}
