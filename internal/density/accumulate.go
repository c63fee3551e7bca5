package density

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/location.report/internal/location"
)

// Report counts the samples seen by one Accumulate call. Skipped covers
// both time-filtered and out-of-bounds samples.
type Report struct {
	Processed   int
	Skipped     int
	Filtered    int
	OutOfBounds int
}

// Effective returns the number of samples that landed in the matrix.
func (r Report) Effective() int {
	return r.Processed - r.Skipped
}

// Aggregator maps samples onto the pixel grid of a bounding box.
type Aggregator struct {
	Bounds BBox
	Scale  int64
	rows   int
	cols   int
}

// NewAggregator validates the box and scale.
func NewAggregator(bounds BBox, scale int64) (*Aggregator, error) {
	if err := bounds.Validate(scale); err != nil {
		return nil, err
	}
	rows, cols := bounds.Dims(scale)
	return &Aggregator{Bounds: bounds, Scale: scale, rows: rows, cols: cols}, nil
}

// Dims returns the matrix shape.
func (a *Aggregator) Dims() (rows, cols int) {
	return a.rows, a.cols
}

// Pixel returns the column and row of a sample. Halves round to even.
func (a *Aggregator) Pixel(s location.Sample) (x, y int) {
	scale := float64(a.Scale)
	x = int(math.RoundToEven(float64(s.LngE7-a.Bounds.X0) / scale))
	y = int(math.RoundToEven(float64(s.LatE7-a.Bounds.Y0) / scale))
	return x, y
}

// Accumulate builds the raw weighted matrix for samples, which must be in
// chronological order. With a non-nil filter only samples whose minute of
// day falls in the range are added; the rest are counted as skipped.
//
// A sample's weight is the number of minutes until the following sample in
// the full list, or 1 for the last sample or when either timestamp is
// missing.
func (a *Aggregator) Accumulate(samples []location.Sample, filter *MinuteRange) (*mat.Dense, Report) {
	m := mat.NewDense(a.rows, a.cols, nil)
	var rep Report

	for i, s := range samples {
		rep.Processed++
		if filter != nil && (!s.HasTime || !filter.Contains(s.MinuteOfDay())) {
			rep.Skipped++
			rep.Filtered++
			continue
		}
		x, y := a.Pixel(s)
		if x < 0 || y < 0 || x >= a.cols || y >= a.rows {
			rep.Skipped++
			rep.OutOfBounds++
			continue
		}
		m.Set(y, x, m.At(y, x)+weight(samples, i))
	}
	return m, rep
}

func weight(samples []location.Sample, i int) float64 {
	if i+1 >= len(samples) {
		return 1
	}
	cur, next := samples[i], samples[i+1]
	if !cur.HasTime || !next.HasTime {
		return 1
	}
	// Older exports list samples newest first; elapsed time is the gap
	// either way.
	return math.Abs(float64(next.Unix-cur.Unix)) / 60
}
