package geo

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Containing returns the first feature whose area holds p (orb.Point is
// [lon, lat]). Bounds are checked before the ring test.
func (ps *PolygonSet) Containing(p orb.Point) (Polygon, bool) {
	for _, f := range ps.Features() {
		if !f.Geometry.Bound().Contains(p) {
			continue
		}
		if planar.MultiPolygonContains(f.Geometry, p) {
			return f, true
		}
	}
	return Polygon{}, false
}

// Outside returns the ids whose resolved coordinate falls outside every
// feature of ps. Placeholder coordinates are skipped.
func (ps *PolygonSet) Outside(ix *CoordinateIndex, ids []string) []string {
	if ps.Len() == 0 {
		return nil
	}
	var out []string
	for _, id := range ids {
		p, ok := ix.Lookup(id)
		if !ok || ix.Source(id) == SourceSynthetic {
			continue
		}
		if _, in := ps.Containing(p); !in {
			out = append(out, id)
		}
	}
	return out
}
