package geo

import (
	"math"

	"github.com/paulmach/orb"

	"github.com/rendis/routeview/internal/model"
)

// Source records where a resolved coordinate came from.
type Source int

const (
	SourceNone Source = iota
	SourceServer
	SourceFallback
	SourceSynthetic
)

func (s Source) String() string {
	switch s {
	case SourceServer:
		return "server"
	case SourceFallback:
		return "fallback"
	case SourceSynthetic:
		return "synthetic"
	default:
		return "none"
	}
}

type entry struct {
	point  orb.Point
	source Source
}

// CoordinateIndex maps city ids to geographic points. Entries are never
// removed or overwritten once set.
type CoordinateIndex struct {
	entries map[string]entry
}

func NewCoordinateIndex() *CoordinateIndex {
	return &CoordinateIndex{entries: make(map[string]entry)}
}

// Set stores p for id unless id already has a coordinate. Reports whether
// the value was stored.
func (ix *CoordinateIndex) Set(id string, p orb.Point, src Source) bool {
	if _, ok := ix.entries[id]; ok {
		return false
	}
	ix.entries[id] = entry{point: p, source: src}
	return true
}

// Lookup returns the point for id. orb.Point is [lon, lat].
func (ix *CoordinateIndex) Lookup(id string) (orb.Point, bool) {
	if ix == nil {
		return orb.Point{}, false
	}
	e, ok := ix.entries[id]
	return e.point, ok
}

func (ix *CoordinateIndex) Source(id string) Source {
	if ix == nil {
		return SourceNone
	}
	return ix.entries[id].source
}

func (ix *CoordinateIndex) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.entries)
}

// Synthetic placeholder grid.
const (
	syntheticOriginLat = 30.0
	syntheticOriginLon = -120.0
	syntheticLatStep   = 2.0
	syntheticLonStep   = 3.0
	syntheticRows      = 5
)

// Resolver assigns a coordinate to every catalog city.
type Resolver struct {
	Fallback map[string]orb.Point
}

// NewResolver returns a resolver over the embedded fallback table merged with
// any extra entries. Extra entries win over embedded ones with the same id.
func NewResolver(extra map[string]orb.Point) Resolver {
	table := make(map[string]orb.Point, len(embeddedFallback)+len(extra))
	for id, p := range embeddedFallback {
		table[id] = p
	}
	for id, p := range extra {
		table[id] = p
	}
	return Resolver{Fallback: table}
}

// Resolve builds the index: server coordinates first, then the fallback
// table, then a compact placeholder grid. It never fails.
func (r Resolver) Resolve(cities []model.City) *CoordinateIndex {
	ix := NewCoordinateIndex()
	synthesized := 0
	for _, c := range cities {
		if _, done := ix.Lookup(c.ID); done {
			continue
		}
		if p, ok := serverPoint(c); ok {
			ix.Set(c.ID, p, SourceServer)
			continue
		}
		if p, ok := r.Fallback[c.ID]; ok {
			ix.Set(c.ID, p, SourceFallback)
			continue
		}
		ix.Set(c.ID, SyntheticPoint(synthesized), SourceSynthetic)
		synthesized++
	}
	return ix
}

// SyntheticPoint returns the n-th placeholder coordinate.
func SyntheticPoint(n int) orb.Point {
	lat := syntheticOriginLat + float64(n%syntheticRows)*syntheticLatStep
	lon := syntheticOriginLon + float64(n/syntheticRows)*syntheticLonStep
	return orb.Point{lon, lat}
}

// serverPoint treats a zero latitude or longitude as absent; no US city sits
// on the equator or the prime meridian.
func serverPoint(c model.City) (orb.Point, bool) {
	if c.Lat == nil || c.Lon == nil || *c.Lat == 0 || *c.Lon == 0 {
		return orb.Point{}, false
	}
	if !ValidCoordinate(*c.Lat, *c.Lon) {
		return orb.Point{}, false
	}
	return orb.Point{*c.Lon, *c.Lat}, true
}

// ValidCoordinate reports whether lat/lon are finite and in range.
func ValidCoordinate(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
