// Package location normalises raw location-history samples into canonical
// points and groups them into per-activity collections.
//
// Two fixed-point encodings are accepted for a sample: (latE7, lngE7) and
// (latitudeE7, longitudeE7). Both hold decimal degrees multiplied by 10^7.
// Anything else is rejected with ErrUnrecognizedFormat.
//
// Dependency rule: this package has no knowledge of file formats or I/O.
// JSON decoding lives in internal/takeout.
package location
