package export

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/banshee-data/location.report/internal/fsutil"
	"github.com/banshee-data/location.report/internal/grid"
	"github.com/banshee-data/location.report/internal/monitoring"
	"github.com/banshee-data/location.report/internal/security"
)

// FileName is the GeoJSON file of one activity type.
func FileName(activityType string) string {
	return fmt.Sprintf("history_%s.geojson", security.SanitizeName(activityType))
}

// CellBound is the square covered by c: its south-west corner is the cell
// coordinate and its side is 10^-precision degrees.
func CellBound(c grid.Cell, precision int) orb.Bound {
	size := grid.Size(precision)
	return orb.Bound{
		Min: orb.Point{c.Lng, c.Lat},
		Max: orb.Point{c.Lng + size, c.Lat + size},
	}
}

// FeatureCollection draws every cell of counts as a polygon carrying the
// activity type and visit count. Features are ordered by latitude then
// longitude so output is stable.
func FeatureCollection(activityType string, counts grid.Counts, precision int) *geojson.FeatureCollection {
	cells := make([]grid.Cell, 0, len(counts))
	for c := range counts {
		cells = append(cells, c)
	}
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].Lat != cells[j].Lat {
			return cells[i].Lat < cells[j].Lat
		}
		return cells[i].Lng < cells[j].Lng
	})

	fc := geojson.NewFeatureCollection()
	var extent orb.Bound
	for i, c := range cells {
		b := CellBound(c, precision)
		f := geojson.NewFeature(b.ToPolygon())
		f.Properties["type"] = activityType
		f.Properties["count"] = counts[c]
		fc.Append(f)

		if i == 0 {
			extent = b
		} else {
			extent = extent.Union(b)
		}
	}
	if len(cells) > 0 {
		fc.BBox = geojson.NewBBox(extent)
	}
	return fc
}

// WriteGeoJSON writes one indented GeoJSON file per activity type of
// totals into dir and returns the written paths in type order.
func WriteGeoJSON(fsys fsutil.FileSystem, dir string, totals grid.Totals, precision int) ([]string, error) {
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	var written []string
	for _, typ := range totals.Types() {
		path, err := security.OutputPath(dir, FileName(typ))
		if err != nil {
			return written, err
		}
		data, err := json.MarshalIndent(FeatureCollection(typ, totals[typ], precision), "", "  ")
		if err != nil {
			return written, fmt.Errorf("marshal %s: %w", typ, err)
		}
		if err := fsys.WriteFile(path, data, 0o644); err != nil {
			return written, err
		}
		monitoring.Logf("wrote %s: %d cells", path, len(totals[typ]))
		written = append(written, path)
	}
	return written, nil
}
