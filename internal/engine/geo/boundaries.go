package geo

import (
	"fmt"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Polygon is one base map feature, usually a state.
type Polygon struct {
	ID       string
	Name     string
	Geometry orb.MultiPolygon
}

// PolygonSet holds the base map features in document order. It is
// immutable once built.
type PolygonSet struct {
	features []Polygon
	byKey    map[string]int // key: feature id or lowercase name
}

// NewPolygonSet keeps the polygonal features of fc. Features without an id
// are keyed by their position.
func NewPolygonSet(fc *geojson.FeatureCollection) (*PolygonSet, error) {
	if fc == nil {
		return nil, fmt.Errorf("nil feature collection")
	}

	set := &PolygonSet{byKey: make(map[string]int)}
	for i, f := range fc.Features {
		var mp orb.MultiPolygon
		switch g := f.Geometry.(type) {
		case orb.MultiPolygon:
			mp = g
		case orb.Polygon:
			mp = orb.MultiPolygon{g}
		default:
			continue
		}

		id := formatID(f.ID)
		if id == "" {
			id = fmt.Sprintf("feature-%d", i)
		}
		if _, dup := set.byKey[id]; dup {
			id = fmt.Sprintf("%s-%d", id, i)
		}
		name := f.Properties.MustString("name", "")
		if name == "" {
			name = f.Properties.MustString("NAME", "")
		}

		set.byKey[id] = len(set.features)
		if name != "" {
			set.byKey[strings.ToLower(name)] = len(set.features)
		}
		set.features = append(set.features, Polygon{ID: id, Name: name, Geometry: mp})
	}

	if len(set.features) == 0 {
		return nil, fmt.Errorf("map document has no polygon features")
	}
	return set, nil
}

// Features returns the polygons in document order.
func (ps *PolygonSet) Features() []Polygon {
	if ps == nil {
		return nil
	}
	return ps.features
}

func (ps *PolygonSet) Len() int {
	if ps == nil {
		return 0
	}
	return len(ps.features)
}

// Lookup finds a feature by id or case-insensitive name.
func (ps *PolygonSet) Lookup(key string) (Polygon, bool) {
	if ps == nil {
		return Polygon{}, false
	}
	i, ok := ps.byKey[key]
	if !ok {
		i, ok = ps.byKey[strings.ToLower(strings.TrimSpace(key))]
	}
	if !ok {
		return Polygon{}, false
	}
	return ps.features[i], true
}

// Bound returns the geographic extent of all features.
func (ps *PolygonSet) Bound() orb.Bound {
	if ps.Len() == 0 {
		return DefaultRegion
	}
	b := ps.features[0].Geometry.Bound()
	for _, f := range ps.features[1:] {
		b = b.Union(f.Geometry.Bound())
	}
	return b
}
