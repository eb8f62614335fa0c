package geo

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

func squares(t *testing.T) *PolygonSet {
	t.Helper()
	fc := geojson.NewFeatureCollection()
	for _, sq := range []struct {
		id, name string
		x0, y0   float64
	}{
		{"01", "West", -110, 35},
		{"02", "East", -90, 35},
	} {
		ring := orb.Ring{{sq.x0, sq.y0}, {sq.x0 + 10, sq.y0}, {sq.x0 + 10, sq.y0 + 10}, {sq.x0, sq.y0 + 10}, {sq.x0, sq.y0}}
		f := geojson.NewFeature(orb.Polygon{ring})
		f.ID = sq.id
		f.Properties["name"] = sq.name
		fc.Append(f)
	}
	set, err := NewPolygonSet(fc)
	if err != nil {
		t.Fatal(err)
	}
	return set
}

func TestContaining(t *testing.T) {
	set := squares(t)
	tests := []struct {
		p    orb.Point
		want string
	}{
		{orb.Point{-105, 40}, "West"},
		{orb.Point{-85, 36}, "East"},
		{orb.Point{-95, 40}, ""},
		{orb.Point{-105, 60}, ""},
	}
	for _, tt := range tests {
		f, ok := set.Containing(tt.p)
		if ok != (tt.want != "") || f.Name != tt.want {
			t.Errorf("Containing(%v) = %q, %v; want %q", tt.p, f.Name, ok, tt.want)
		}
	}

	var empty *PolygonSet
	if _, ok := empty.Containing(orb.Point{-105, 40}); ok {
		t.Error("nil set contains a point")
	}
}

func TestOutside(t *testing.T) {
	set := squares(t)
	ix := NewCoordinateIndex()
	ix.Set("IN", orb.Point{-105, 40}, SourceServer)
	ix.Set("OUT", orb.Point{-95, 40}, SourceFallback)
	ix.Set("FAKE", orb.Point{-95, 41}, SourceSynthetic)

	got := set.Outside(ix, []string{"IN", "OUT", "FAKE", "NONE"})
	if len(got) != 1 || got[0] != "OUT" {
		t.Errorf("Outside = %v, want [OUT]", got)
	}
}
