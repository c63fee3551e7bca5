package grid

import (
	"github.com/banshee-data/location.report/internal/location"
)

// DefaultSteps is the number of interpolated samples per path segment.
const DefaultSteps = 3

// DefaultPathActivities are the activity types treated as continuous paths.
var DefaultPathActivities = []string{"WALKING", "CYCLING", "RUNNING"}

// Counts holds visit counts per cell. Iteration order is unspecified.
type Counts map[Cell]int

// Add sums other into c.
func (c Counts) Add(other Counts) {
	for cell, n := range other {
		c[cell] += n
	}
}

// Total returns the sum of all counts.
func (c Counts) Total() int {
	n := 0
	for _, v := range c {
		n += v
	}
	return n
}

// Aggregator turns activity collections into per-type cell counts.
type Aggregator struct {
	Precision int
	Steps     int
	paths     map[string]bool
}

// NewAggregator returns an aggregator interpolating the given path
// activity types with steps samples per segment.
func NewAggregator(precision, steps int, pathActivities []string) *Aggregator {
	if steps < 1 {
		steps = 1
	}
	paths := make(map[string]bool, len(pathActivities))
	for _, typ := range pathActivities {
		paths[typ] = true
	}
	return &Aggregator{Precision: precision, Steps: steps, paths: paths}
}

// DefaultAggregator uses precision 3, three steps and the default path types.
func DefaultAggregator() *Aggregator {
	return NewAggregator(DefaultPrecision, DefaultSteps, DefaultPathActivities)
}

// IsPath reports whether typ is aggregated as an interpolated path.
func (a *Aggregator) IsPath(typ string) bool {
	return a.paths[typ]
}

// Aggregate counts the cells of every activity in col, per activity type.
func (a *Aggregator) Aggregate(col location.Collection) map[string]Counts {
	out := make(map[string]Counts, len(col))
	for typ, acts := range col {
		counts := make(Counts)
		for _, act := range acts {
			if a.IsPath(typ) {
				for cell := range a.PathCells(act.Points) {
					counts[cell]++
				}
				continue
			}
			for _, p := range act.Points {
				counts[PointCell(p, a.Precision)]++
			}
		}
		out[typ] = counts
	}
	return out
}

// PathCells returns the distinct cells one traversal of points passes
// through. Each consecutive pair contributes Steps samples at fractions
// s/Steps for s in [0, Steps). The final point of the path is never
// sampled itself, so it is only covered if an earlier sample shares its
// cell.
func (a *Aggregator) PathCells(points []location.GeoPoint) map[Cell]struct{} {
	visited := make(map[Cell]struct{})
	k := float64(a.Steps)
	for i := 0; i+1 < len(points); i++ {
		p1, p2 := points[i], points[i+1]
		dLat, dLng := p2.Lat-p1.Lat, p2.Lng-p1.Lng
		for s := 0; s < a.Steps; s++ {
			lat := p1.Lat + dLat*float64(s)/k
			lng := p1.Lng + dLng*float64(s)/k
			visited[CellOf(lat, lng, a.Precision)] = struct{}{}
		}
	}
	return visited
}
