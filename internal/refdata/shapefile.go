package refdata

import (
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/ecobuild/internal/model"
)

// ZonesFromShapefile reads sensitive zones from a shapefile whose DBF has
// NAME and CATEGORY attributes. Point shapes give the zone location
// directly; areal shapes are reduced to the centre of their bounding box.
func ZonesFromShapefile(path string) ([]model.SensitiveZone, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "refdata: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	fieldIdx := make(map[string]int)
	for i, f := range reader.Fields() {
		name := strings.TrimRight(f.String(), "\x00")
		fieldIdx[strings.ToLower(strings.TrimSpace(name))] = i
	}
	nameIdx, ok := fieldIdx["name"]
	if !ok {
		return nil, eris.Errorf("refdata: shapefile %s has no NAME attribute", path)
	}
	catIdx, hasCategory := fieldIdx["category"]

	attr := func(i int) string {
		return strings.TrimSpace(strings.TrimRight(reader.Attribute(i), "\x00"))
	}

	var zones []model.SensitiveZone
	var skipped int
	for reader.Next() {
		_, shape := reader.Shape()

		var lat, lng float64
		switch s := shape.(type) {
		case nil, *shp.Null:
			skipped++
			continue
		case *shp.Point:
			lng, lat = s.X, s.Y
		default:
			b := s.BBox()
			lng, lat = (b.MinX+b.MaxX)/2, (b.MinY+b.MaxY)/2
		}

		z := model.SensitiveZone{Name: attr(nameIdx), Latitude: lat, Longitude: lng}
		if hasCategory {
			z.Category = attr(catIdx)
		}
		zones = append(zones, z)
	}
	if err := reader.Err(); err != nil {
		return nil, eris.Wrapf(err, "refdata: read shapefile %s", path)
	}

	if skipped > 0 {
		zap.L().Debug("refdata: skipped null shapes", zap.String("path", path), zap.Int("skipped", skipped))
	}
	return zones, nil
}
