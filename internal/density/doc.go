// Package density builds time-weighted density matrices of location samples
// over a fixed bounding box.
//
// Coordinates are handled in E7 fixed-point units. A matrix has
// floor((Y1-Y0)/Scale) rows and floor((X1-X0)/Scale) columns; cell (0,0)
// is the (X0, Y0) corner. Each sample adds the minutes elapsed until the
// next sample to its cell, so the matrix approximates time spent rather
// than visits.
//
// Matrices are *mat.Dense from gonum. Normalisation maps smoothed values
// onto [0,1] using percentile breakpoints computed once and shared by every
// later matrix of a run.
package density
