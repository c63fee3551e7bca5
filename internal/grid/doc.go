// Package grid aggregates activities onto a fixed-precision lat/lng grid.
//
// A cell is identified by its coordinates rounded to Precision decimals.
// Path activities (walking, cycling, running by default) are interpolated
// between consecutive points and each traversal counts a cell at most once.
// Every other activity counts each point, so repeated pings at one spot
// accumulate dwell.
package grid
