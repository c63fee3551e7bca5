package location

import (
	"fmt"
	"sort"
)

// Activity is one recorded movement of a single type. Points are in
// chronological order.
type Activity struct {
	Type   string
	Points []GeoPoint
}

// Collection maps an activity type to its activities, in the order they
// were read.
type Collection map[string][]Activity

// Add appends an activity under its own type.
func (c Collection) Add(a Activity) {
	c[a.Type] = append(c[a.Type], a)
}

// Merge appends every activity of other to c, per type.
func (c Collection) Merge(other Collection) {
	for typ, acts := range other {
		c[typ] = append(c[typ], acts...)
	}
}

// Types returns the activity types in lexical order.
func (c Collection) Types() []string {
	types := make([]string, 0, len(c))
	for typ := range c {
		types = append(types, typ)
	}
	sort.Strings(types)
	return types
}

// PointCount returns the total number of points recorded for typ.
func (c Collection) PointCount(typ string) int {
	n := 0
	for _, a := range c[typ] {
		n += len(a.Points)
	}
	return n
}

// Segment is a decoded activity segment before normalisation. HasPath is
// false when the record carried neither path representation.
type Segment struct {
	ActivityType string
	Path         []RawSample
	HasPath      bool
}

// Report collects the informational diagnostics of a normalisation pass.
type Report struct {
	Segments         int            // segments seen
	Accepted         int            // segments turned into activities
	Notes            []string       // one line per skipped segment
	PointsByActivity map[string]int // points kept per activity type
}

// Skipped returns the number of segments that were not kept.
func (r *Report) Skipped() int {
	return r.Segments - r.Accepted
}

func (r *Report) note(format string, args ...interface{}) {
	r.Notes = append(r.Notes, fmt.Sprintf(format, args...))
}

// Merge folds other into r.
func (r *Report) Merge(other Report) {
	r.Segments += other.Segments
	r.Accepted += other.Accepted
	r.Notes = append(r.Notes, other.Notes...)
	if len(other.PointsByActivity) > 0 && r.PointsByActivity == nil {
		r.PointsByActivity = make(map[string]int, len(other.PointsByActivity))
	}
	for typ, n := range other.PointsByActivity {
		r.PointsByActivity[typ] += n
	}
}

// BuildCollection normalises decoded segments into a Collection.
//
// Segments without an activity type or without any path are skipped and
// noted in the report. A sample in an unrecognised format aborts the whole
// batch: the returned error wraps ErrUnrecognizedFormat, the collection
// is nil and the report keeps its notes but accepts nothing.
func BuildCollection(segments []Segment) (Collection, Report, error) {
	rep := Report{PointsByActivity: make(map[string]int)}
	col := make(Collection)

	for i, seg := range segments {
		rep.Segments++
		if seg.ActivityType == "" {
			rep.note("segment %d: ignoring a segment without an activity type", i)
			continue
		}
		if !seg.HasPath {
			rep.note("segment %d: no waypoints found for %s, skipping", i, seg.ActivityType)
			continue
		}

		points := make([]GeoPoint, 0, len(seg.Path))
		for j, raw := range seg.Path {
			p, err := raw.Normalize()
			if err != nil {
				rep.note("segment %d: %s waypoint %d: %v", i, seg.ActivityType, j, err)
				rep.Accepted, rep.PointsByActivity = 0, nil
				return nil, rep, fmt.Errorf("segment %d (%s) waypoint %d: %w", i, seg.ActivityType, j, err)
			}
			points = append(points, p)
		}

		col.Add(Activity{Type: seg.ActivityType, Points: points})
		rep.Accepted++
		rep.PointsByActivity[seg.ActivityType] += len(points)
	}
	return col, rep, nil
}
