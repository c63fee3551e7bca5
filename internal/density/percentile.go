package density

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// DefaultPercentiles is the number of breakpoints, the 1st to 99th
// percentile.
const DefaultPercentiles = 99

// Breakpoints returns n percentile thresholds of the non-zero cells of m,
// at p = i/(n+1) for i in 1..n. Each threshold interpolates linearly between
// the sorted values at position (len-1)*p, so p=0 is the minimum and p=1
// the maximum. It returns nil when m has no non-zero cell.
func Breakpoints(m *mat.Dense, n int) []float64 {
	if n < 1 {
		return nil
	}
	rows, cols := m.Dims()
	values := make([]float64, 0, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if v := m.At(r, c); v != 0 {
				values = append(values, v)
			}
		}
	}
	if len(values) == 0 {
		return nil
	}
	sort.Float64s(values)

	bps := make([]float64, n)
	for i := range bps {
		bps[i] = quantile(values, float64(i+1)/float64(n+1))
	}
	return bps
}

// quantile interpolates sorted at fraction p of its index range.
func quantile(sorted []float64, p float64) float64 {
	h := float64(len(sorted)-1) * p
	lo := int(h)
	hi := min(lo+1, len(sorted)-1)
	return sorted[lo] + (h-float64(lo))*(sorted[hi]-sorted[lo])
}

// Rescale returns breakpoints multiplied by factor.
func Rescale(breakpoints []float64, factor float64) []float64 {
	if breakpoints == nil {
		return nil
	}
	out := append([]float64(nil), breakpoints...)
	floats.Scale(factor, out)
	return out
}

// Normalize maps every cell of m to the fraction of breakpoints less than
// or equal to it. The result lies in [0,1]. With no breakpoints every cell
// is 0.
func Normalize(m *mat.Dense, breakpoints []float64) *mat.Dense {
	rows, cols := m.Dims()
	out := mat.NewDense(rows, cols, nil)
	n := len(breakpoints)
	if n == 0 {
		return out
	}
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			v := m.At(r, c)
			rank := sort.Search(n, func(i int) bool { return breakpoints[i] > v })
			out.Set(r, c, float64(rank)/float64(n))
		}
	}
	return out
}
