package backend

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/paulmach/orb/geojson"

	"github.com/rendis/routeview/internal/engine/geo"
)

// DefaultTopologyURL is the us-atlas states topology.
const DefaultTopologyURL = "https://cdn.jsdelivr.net/npm/us-atlas@3/states-10m.json"

// BaseMap loads the boundary polygons from src, which is either an http(s)
// URL or a local TopoJSON, GeoJSON or .shp path.
func (c *Client) BaseMap(ctx context.Context, src, object string) (*geo.PolygonSet, error) {
	if src == "" {
		src = DefaultTopologyURL
	}

	var fc *geojson.FeatureCollection
	switch {
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		data, err := c.Get(ctx, src)
		if err != nil {
			return nil, fmt.Errorf("downloading base map: %w", err)
		}
		if fc, err = geo.ParseBaseMap(data, object); err != nil {
			return nil, err
		}
	case strings.EqualFold(filepath.Ext(src), ".shp"):
		var err error
		if fc, err = geo.LoadShapefile(src); err != nil {
			return nil, err
		}
	default:
		data, err := os.ReadFile(src)
		if err != nil {
			return nil, fmt.Errorf("reading base map: %w", err)
		}
		if fc, err = geo.ParseBaseMap(data, object); err != nil {
			return nil, err
		}
	}

	return geo.NewPolygonSet(fc)
}
