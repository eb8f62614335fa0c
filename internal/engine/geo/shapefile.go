package geo

import (
	"fmt"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// LoadShapefile reads the polygon records of an ESRI shapefile, such as
// Natural Earth admin-1 states, into a feature collection.
func LoadShapefile(path string) (*geojson.FeatureCollection, error) {
	shape, err := shp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening shapefile: %w", err)
	}
	defer shape.Close()

	nameIdx := -1
	idIdx := -1
	for i, field := range shape.Fields() {
		// Field names are fixed-size byte arrays padded with NULs.
		switch strings.TrimRight(string(field.Name[:]), "\x00 ") {
		case "name", "NAME", "NAME_EN":
			if nameIdx < 0 {
				nameIdx = i
			}
		case "postal", "STUSPS", "adm1_code":
			if idIdx < 0 {
				idIdx = i
			}
		}
	}

	fc := geojson.NewFeatureCollection()
	for shape.Next() {
		n, p := shape.Shape()
		poly, ok := p.(*shp.Polygon)
		if !ok {
			continue
		}

		f := geojson.NewFeature(polygonFromParts(poly.Parts, poly.Points))
		if idIdx >= 0 {
			if id := strings.TrimSpace(shape.ReadAttribute(n, idIdx)); id != "" {
				f.ID = id
			}
		}
		if nameIdx >= 0 {
			f.Properties["name"] = strings.TrimSpace(shape.ReadAttribute(n, nameIdx))
		}
		fc.Append(f)
	}
	return fc, nil
}

// polygonFromParts splits a shapefile polygon into rings. Shapefiles do not
// group holes with their shells, so every ring becomes its own polygon.
func polygonFromParts(parts []int32, points []shp.Point) orb.MultiPolygon {
	mp := make(orb.MultiPolygon, 0, len(parts))
	for i, start := range parts {
		end := int32(len(points))
		if i+1 < len(parts) {
			end = parts[i+1]
		}
		if start < 0 || end > int32(len(points)) || end-start < 4 {
			continue
		}
		ring := make(orb.Ring, 0, end-start)
		for _, pt := range points[start:end] {
			ring = append(ring, orb.Point{pt.X, pt.Y})
		}
		mp = append(mp, orb.Polygon{ring})
	}
	return mp
}
