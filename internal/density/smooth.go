package density

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Smoother applies a separable Gaussian blur with mirrored edges.
type Smoother struct {
	Sigma    float64
	Truncate float64
	kernel   []float64
	radius   int
}

// NewSmoother builds the kernel for sigma, cut off at truncate standard
// deviations. sigma 1 with truncate 4 gives a 9-tap kernel.
func NewSmoother(sigma, truncate float64) *Smoother {
	if sigma <= 0 {
		return &Smoother{Sigma: sigma, Truncate: truncate, kernel: []float64{1}}
	}
	radius := int(truncate*sigma + 0.5)
	if radius < 0 {
		radius = 0
	}
	kernel := make([]float64, 2*radius+1)
	n := distuv.Normal{Mu: 0, Sigma: sigma}
	for i := -radius; i <= radius; i++ {
		kernel[i+radius] = n.Prob(float64(i))
	}
	floats.Scale(1/floats.Sum(kernel), kernel)
	return &Smoother{Sigma: sigma, Truncate: truncate, kernel: kernel, radius: radius}
}

// Kernel returns a copy of the normalised 1-D kernel.
func (s *Smoother) Kernel() []float64 {
	return append([]float64(nil), s.kernel...)
}

// Smooth returns a blurred copy of m.
func (s *Smoother) Smooth(m *mat.Dense) *mat.Dense {
	rows, cols := m.Dims()
	tmp := mat.NewDense(rows, cols, nil)
	out := mat.NewDense(rows, cols, nil)

	// Along rows, then along columns.
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			var v float64
			for k, w := range s.kernel {
				v += w * m.At(r, mirror(c+k-s.radius, cols))
			}
			tmp.Set(r, c, v)
		}
	}
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			var v float64
			for k, w := range s.kernel {
				v += w * tmp.At(mirror(r+k-s.radius, rows), c)
			}
			out.Set(r, c, v)
		}
	}
	return out
}

// mirror folds i into [0, n) reflecting about the outer cell edges, so
// d c b a | a b c d | d c b a.
func mirror(i, n int) int {
	period := 2 * n
	i %= period
	if i < 0 {
		i += period
	}
	if i >= n {
		i = period - 1 - i
	}
	return i
}
