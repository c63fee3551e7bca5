// Package export writes aggregation results for people: GeoJSON grids for
// map viewers and a static HTML summary page.
package export
