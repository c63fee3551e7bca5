// Package frames sequences time-of-day density frames.
//
// A run starts with an unfiltered baseline bin covering the whole dataset,
// followed by one bin per step minutes of the UTC day in chronological
// order. The baseline seeds the percentile breakpoints shared by every
// later frame; its moving average is then discarded.
//
// State lifecycle: created before the baseline, updated by the sequencer
// after each bin, read but never modified by the Renderer.
package frames
