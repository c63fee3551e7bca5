package takeout

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/banshee-data/location.report/internal/fsutil"
	"github.com/banshee-data/location.report/internal/location"
)

type semanticFile struct {
	TimelineObjects []struct {
		ActivitySegment *activitySegment `json:"activitySegment"`
	} `json:"timelineObjects"`
}

type activitySegment struct {
	ActivityType      string `json:"activityType"`
	SimplifiedRawPath *struct {
		Points []location.RawSample `json:"points"`
	} `json:"simplifiedRawPath"`
	WaypointPath *struct {
		Waypoints []location.RawSample `json:"waypoints"`
	} `json:"waypointPath"`
}

// DecodeSemantic reads one Semantic Location History file and returns its
// activity segments in file order. Place visits are ignored. When both
// path forms are present simplifiedRawPath wins.
func DecodeSemantic(r io.Reader) ([]location.Segment, error) {
	var f semanticFile
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decoding semantic location history: %w", err)
	}

	var segments []location.Segment
	for _, obj := range f.TimelineObjects {
		as := obj.ActivitySegment
		if as == nil {
			continue
		}
		seg := location.Segment{ActivityType: as.ActivityType}
		switch {
		case as.SimplifiedRawPath != nil:
			seg.Path, seg.HasPath = as.SimplifiedRawPath.Points, true
		case as.WaypointPath != nil:
			seg.Path, seg.HasPath = as.WaypointPath.Waypoints, true
		}
		segments = append(segments, seg)
	}
	return segments, nil
}

// ReadSemanticFile decodes name and builds its activity collection.
func ReadSemanticFile(fsys fsutil.FileSystem, name string) (location.Collection, location.Report, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, location.Report{}, err
	}
	defer f.Close()

	segments, err := DecodeSemantic(f)
	if err != nil {
		return nil, location.Report{}, fmt.Errorf("%s: %w", name, err)
	}
	col, rep, err := location.BuildCollection(segments)
	if err != nil {
		return nil, rep, fmt.Errorf("%s: %w", name, err)
	}
	return col, rep, nil
}
