package density

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidBounds is returned when a bounding box yields no cells.
	ErrInvalidBounds = errors.New("bounding box has no cells at this scale")
	// ErrInvalidScale is returned for a non-positive scaling factor.
	ErrInvalidScale = errors.New("scaling factor must be positive")
)

// BBox is a bounding box in E7 units: X is longitude, Y is latitude.
type BBox struct {
	X0, X1 int64 // longitude min, max
	Y0, Y1 int64 // latitude min, max
}

// Dims returns the matrix shape for scale.
func (b BBox) Dims(scale int64) (rows, cols int) {
	if scale <= 0 {
		return 0, 0
	}
	return int((b.Y1 - b.Y0) / scale), int((b.X1 - b.X0) / scale)
}

// Validate checks that b produces at least one cell at scale.
func (b BBox) Validate(scale int64) error {
	if scale <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidScale, scale)
	}
	rows, cols := b.Dims(scale)
	if rows < 1 || cols < 1 {
		return fmt.Errorf("%w: %+v scale %d gives %dx%d", ErrInvalidBounds, b, scale, rows, cols)
	}
	return nil
}

// Degrees returns the box edges in decimal degrees as lonMin, lonMax,
// latMin, latMax.
func (b BBox) Degrees() (x0, x1, y0, y1 float64) {
	const e7 = 1e7
	return float64(b.X0) / e7, float64(b.X1) / e7, float64(b.Y0) / e7, float64(b.Y1) / e7
}

// MinuteRange selects samples whose UTC minute of day lies in [Lo, Hi].
type MinuteRange struct {
	Lo, Hi int
}

// Contains reports whether minute is inside the range, bounds included.
func (r MinuteRange) Contains(minute int) bool {
	return minute >= r.Lo && minute <= r.Hi
}
