package frames

import (
	"errors"
	"fmt"

	"github.com/banshee-data/location.report/internal/density"
)

// MinutesPerDay is the length of the binned day.
const MinutesPerDay = 24 * 60

// DefaultStep is the default bin width in minutes.
const DefaultStep = 15

var (
	// ErrNoBins is returned when a sequence has nothing to process.
	ErrNoBins = errors.New("no time bins")
	// ErrNoBaseline is returned when a sequence does not start with the
	// unfiltered bin, or carries it more than once.
	ErrNoBaseline = errors.New("sequence must start with exactly one unfiltered bin")
)

// TimeBin is the minute-of-day interval [Start, Start+Step). The
// unfiltered bin stands for the whole dataset.
type TimeBin struct {
	Start      int
	Step       int
	Unfiltered bool
}

// Baseline is the unfiltered bin.
func Baseline() TimeBin {
	return TimeBin{Unfiltered: true}
}

// Range returns the sample filter of the bin, or nil for the unfiltered
// bin. The upper bound is Start+Step-1 so consecutive bins are disjoint.
func (b TimeBin) Range() *density.MinuteRange {
	if b.Unfiltered {
		return nil
	}
	return &density.MinuteRange{Lo: b.Start, Hi: b.Start + b.Step - 1}
}

// Label returns "HH:MM" for the bin start, or "all" for the baseline.
func (b TimeBin) Label() string {
	if b.Unfiltered {
		return "all"
	}
	return fmt.Sprintf("%02d:%02d", b.Start/60, b.Start%60)
}

// Bins returns the baseline followed by every step-minute bin of the day.
func Bins(step int) ([]TimeBin, error) {
	if step < 1 || step > MinutesPerDay {
		return nil, fmt.Errorf("invalid bin step %d: must be in 1..%d", step, MinutesPerDay)
	}
	bins := []TimeBin{Baseline()}
	for start := 0; start < MinutesPerDay; start += step {
		bins = append(bins, TimeBin{Start: start, Step: step})
	}
	return bins, nil
}

func validate(bins []TimeBin) error {
	if len(bins) == 0 {
		return ErrNoBins
	}
	if !bins[0].Unfiltered {
		return ErrNoBaseline
	}
	for i, b := range bins[1:] {
		if b.Unfiltered {
			return fmt.Errorf("%w: bin %d", ErrNoBaseline, i+1)
		}
		if i > 0 && b.Start <= bins[i].Start {
			return fmt.Errorf("bins out of order: %s after %s", b.Label(), bins[i].Label())
		}
	}
	return nil
}
