package location

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// E7 is the scale factor of the fixed-point coordinate encoding.
const E7 = 1e7

// ErrUnrecognizedFormat is returned when a sample carries neither known
// coordinate key pair.
var ErrUnrecognizedFormat = errors.New("unrecognized sample format")

// ErrInvalidTimestamp is returned when a sample timestamp cannot be parsed.
var ErrInvalidTimestamp = errors.New("invalid sample timestamp")

// GeoPoint is a canonical location. It is comparable, so two points with
// identical coordinates and accuracy are interchangeable as map keys.
type GeoPoint struct {
	Lat            float64
	Lng            float64
	AccuracyMeters int
	HasAccuracy    bool
}

// Sample is a canonical point that also keeps its original fixed-point
// coordinates and its timestamp, as needed by time-weighted aggregation.
type Sample struct {
	GeoPoint
	LatE7   int64
	LngE7   int64
	Unix    int64 // seconds since epoch, UTC
	HasTime bool
}

// MinuteOfDay returns the number of minutes after UTC midnight.
func (s Sample) MinuteOfDay() int {
	t := time.Unix(s.Unix, 0).UTC()
	return t.Hour()*60 + t.Minute()
}

// RawSample is one sample record as found in a location export. Exactly one
// of the two coordinate pairs is expected to be present.
type RawSample struct {
	LatE7          *int64 `json:"latE7,omitempty"`
	LngE7          *int64 `json:"lngE7,omitempty"`
	LatitudeE7     *int64 `json:"latitudeE7,omitempty"`
	LongitudeE7    *int64 `json:"longitudeE7,omitempty"`
	AccuracyMeters *int   `json:"accuracyMeters,omitempty"`
	Timestamp      string `json:"timestamp,omitempty"`
	TimestampMs    string `json:"timestampMs,omitempty"`
}

// coordinatesE7 picks whichever key pair is present.
func (r RawSample) coordinatesE7() (lat, lng int64, err error) {
	switch {
	case r.LatE7 != nil && r.LngE7 != nil:
		return *r.LatE7, *r.LngE7, nil
	case r.LatitudeE7 != nil && r.LongitudeE7 != nil:
		return *r.LatitudeE7, *r.LongitudeE7, nil
	default:
		return 0, 0, ErrUnrecognizedFormat
	}
}

// Normalize converts the record to a GeoPoint. Accuracy is carried through
// unchanged when present.
func (r RawSample) Normalize() (GeoPoint, error) {
	lat, lng, err := r.coordinatesE7()
	if err != nil {
		return GeoPoint{}, err
	}
	p := GeoPoint{
		Lat: float64(lat) / E7,
		Lng: float64(lng) / E7,
	}
	if r.AccuracyMeters != nil {
		p.AccuracyMeters = *r.AccuracyMeters
		p.HasAccuracy = true
	}
	return p, nil
}

// Sample converts the record to a Sample, parsing its timestamp if any.
func (r RawSample) Sample() (Sample, error) {
	p, err := r.Normalize()
	if err != nil {
		return Sample{}, err
	}
	lat, lng, _ := r.coordinatesE7()
	s := Sample{GeoPoint: p, LatE7: lat, LngE7: lng}

	switch {
	case r.Timestamp != "":
		unix, err := ParseTimestamp(r.Timestamp)
		if err != nil {
			return Sample{}, err
		}
		s.Unix, s.HasTime = unix, true
	case r.TimestampMs != "":
		ms, err := strconv.ParseInt(r.TimestampMs, 10, 64)
		if err != nil {
			return Sample{}, fmt.Errorf("%w: timestampMs %q", ErrInvalidTimestamp, r.TimestampMs)
		}
		s.Unix, s.HasTime = ms/1000, true
	}
	return s, nil
}

// isoSecondsLayout is an ISO-8601 date-time truncated to whole seconds.
const isoSecondsLayout = "2006-01-02T15:04:05"

// ParseTimestamp parses an ISO-8601 timestamp, ignoring fractional seconds
// and any zone suffix, and returns seconds since epoch interpreting the
// wall clock as UTC.
func ParseTimestamp(iso string) (int64, error) {
	if len(iso) < len(isoSecondsLayout) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimestamp, iso)
	}
	t, err := time.ParseInLocation(isoSecondsLayout, iso[:len(isoSecondsLayout)], time.UTC)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrInvalidTimestamp, iso, err)
	}
	return t.Unix(), nil
}

// NormalizeAll converts a batch of samples. The first malformed record
// aborts the batch; the error names its index.
func NormalizeAll(raw []RawSample) ([]Sample, error) {
	out := make([]Sample, 0, len(raw))
	for i, r := range raw {
		s, err := r.Sample()
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}
		out = append(out, s)
	}
	return out, nil
}
