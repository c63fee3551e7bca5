package grid

import "sort"

// AllActivities is the pseudo-type accumulating every activity type.
const AllActivities = "ALL"

// Totals accumulates per-type counts across files, plus the combined
// AllActivities mapping.
type Totals map[string]Counts

// NewTotals returns an empty Totals holding an empty AllActivities entry.
func NewTotals() Totals {
	return Totals{AllActivities: make(Counts)}
}

// Add sums one aggregation result into t, per type and into AllActivities.
func (t Totals) Add(byType map[string]Counts) {
	all, ok := t[AllActivities]
	if !ok {
		all = make(Counts)
		t[AllActivities] = all
	}
	for typ, counts := range byType {
		dst, ok := t[typ]
		if !ok {
			dst = make(Counts, len(counts))
			t[typ] = dst
		}
		dst.Add(counts)
		all.Add(counts)
	}
}

// Types returns the accumulated types in lexical order, AllActivities
// included.
func (t Totals) Types() []string {
	types := make([]string, 0, len(t))
	for typ := range t {
		types = append(types, typ)
	}
	sort.Strings(types)
	return types
}
