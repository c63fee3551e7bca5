package grid

import (
	"math"

	"github.com/banshee-data/location.report/internal/location"
)

// DefaultPrecision is three decimals, roughly 111m of latitude.
const DefaultPrecision = 3

// Cell is a grid cell keyed by its rounded coordinates only. Accuracy is
// dropped during quantisation.
type Cell struct {
	Lat float64
	Lng float64
}

// Quantize rounds v to precision decimals. Halves round to even, so the
// result is stable for values already on the grid.
func Quantize(v float64, precision int) float64 {
	scale := math.Pow10(precision)
	return math.RoundToEven(v*scale) / scale
}

// CellOf returns the cell containing lat/lng at precision.
func CellOf(lat, lng float64, precision int) Cell {
	return Cell{Lat: Quantize(lat, precision), Lng: Quantize(lng, precision)}
}

// PointCell returns the cell containing p.
func PointCell(p location.GeoPoint, precision int) Cell {
	return CellOf(p.Lat, p.Lng, precision)
}

// Size returns the edge length of a cell in degrees.
func Size(precision int) float64 {
	return 1 / math.Pow10(precision)
}
