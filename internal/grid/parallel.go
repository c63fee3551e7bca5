package grid

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/location.report/internal/location"
)

// Loader produces the collection of the i-th input. A nil collection with
// a nil error means the input was skipped.
type Loader func(ctx context.Context, i int) (location.Collection, error)

// AggregateInputs loads and aggregates n independent inputs with up to
// workers goroutines and sums the results in input order. Because
// aggregation commutes with union the totals do not depend on workers.
func (a *Aggregator) AggregateInputs(ctx context.Context, n, workers int, load Loader) (Totals, error) {
	if workers < 1 {
		workers = 1
	}
	results := make([]map[string]Counts, n)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			col, err := load(ctx, i)
			if err != nil {
				return err
			}
			if col != nil {
				results[i] = a.Aggregate(col)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	totals := NewTotals()
	for _, r := range results {
		if r != nil {
			totals.Add(r)
		}
	}
	return totals, nil
}
