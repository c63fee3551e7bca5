// Package render draws density frames over a base map and assembles the
// rendered frames into an animated GIF.
//
// Frames are plotted with gonum/plot: the base map is resampled to the
// matrix shape, converted to grey and faded, then overlaid with a Spectral
// heat map of the moving-average matrix. Matrix row 0 is the southern edge
// of the bounding box.
package render
