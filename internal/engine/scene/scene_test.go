package scene

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/rendis/routeview/internal/engine/geo"
	"github.com/rendis/routeview/internal/model"
)

func ptr(v float64) *float64 { return &v }

func testCatalog() []model.City {
	return []model.City{
		{ID: "A", Name: "New York", State: "NY", Lat: ptr(40.71), Lon: ptr(-74.01)},
		{ID: "B", Name: "Chicago", State: "IL", Lat: ptr(41.88), Lon: ptr(-87.63)},
		{ID: "C", Name: "Los Angeles", State: "CA", Lat: ptr(34.05), Lon: ptr(-118.24)},
		{ID: "D", Name: "Denver", State: "CO", Lat: ptr(39.74), Lon: ptr(-104.99)},
	}
}

func newTestMap(t *testing.T) *Map {
	t.Helper()
	cities := testCatalog()
	m := NewMap(geo.Viewport{Width: 960, Height: 600}, DefaultPadding)
	m.SetCatalog(cities, geo.NewResolver(nil).Resolve(cities))
	m.FitDefault()
	return m
}

func testPolygons(t *testing.T) *geo.PolygonSet {
	t.Helper()
	fc := geojson.NewFeatureCollection()
	square := func(lon, lat float64) orb.Polygon {
		return orb.Polygon{orb.Ring{
			{lon, lat}, {lon + 4, lat}, {lon + 4, lat + 4}, {lon, lat + 4}, {lon, lat},
		}}
	}
	for _, sq := range []struct {
		id, name string
		lon, lat float64
	}{
		{"08", "Colorado", -109, 37},
		{"17", "Illinois", -91, 37},
	} {
		f := geojson.NewFeature(square(sq.lon, sq.lat))
		f.ID = sq.id
		f.Properties["name"] = sq.name
		fc.Append(f)
	}
	ps, err := geo.NewPolygonSet(fc)
	if err != nil {
		t.Fatalf("NewPolygonSet: %v", err)
	}
	return ps
}

func near(a, b geo.Point) bool {
	return math.Abs(a.X-b.X) < 1e-6 && math.Abs(a.Y-b.Y) < 1e-6
}

func countKind(l *Layer, k Kind) int {
	n := 0
	for _, s := range l.Shapes() {
		if s.Kind == k {
			n++
		}
	}
	return n
}

func mustProject(t *testing.T, m *Map, id string) geo.Point {
	t.Helper()
	p, ok := m.project(id)
	if !ok {
		t.Fatalf("city %s does not project", id)
	}
	return p
}
