// Package takeout decodes the two Google Takeout location-history exports.
//
// Semantic Location History files (one per month) hold timelineObjects
// whose activitySegment entries carry an activity type and a path, either
// as simplifiedRawPath.points or waypointPath.waypoints. Records.json holds
// a single, often very large, "locations" array of timestamped samples and
// is streamed element by element.
package takeout
