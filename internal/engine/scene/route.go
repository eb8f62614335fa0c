package scene

import (
	"fmt"
	"math"

	"github.com/rendis/routeview/internal/engine/geo"
	"github.com/rendis/routeview/internal/model"
)

// labelOffset is how far a distance label sits from its segment.
const labelOffset = 10.0

// Keys of the route markers.
const (
	OriginKey      = "origin"
	DestinationKey = "destination"
)

// DrawRoute replaces the route layer with segments, in travel order. An
// empty list clears the layer and forgets the current route. Segments with
// an endpoint that is unresolved or off the projection are skipped. The new
// layer content is built completely before it is swapped in. Returns how
// many segments were drawn.
func (m *Map) DrawRoute(segments []model.RouteSegment) int {
	cities := m.layers[LayerCities]
	cities.ClearHighlights()

	if len(segments) == 0 {
		m.route = nil
		m.layers[LayerRoute].Clear()
		return 0
	}

	var lines, labels []Shape
	for i, seg := range segments {
		a, okA := m.project(seg.SrcID)
		b, okB := m.project(seg.DstID)
		if !okA || !okB {
			continue
		}
		lines = append(lines, Shape{
			Key:   fmt.Sprintf("segment:%d", i),
			Kind:  KindLine,
			Class: ClassSegment,
			From:  a,
			To:    b,
		})
		labels = append(labels, Shape{
			Key:   fmt.Sprintf("distance:%d", i),
			Kind:  KindLabel,
			Class: ClassDistance,
			At:    labelPoint(a, b),
			Text:  fmt.Sprintf("%.1f mi", seg.RealDist),
			Halo:  true,
		})
		cities.SetHighlight(seg.SrcID, true)
		cities.SetHighlight(seg.DstID, true)
	}

	// Labels go above every line so no segment covers another's distance.
	shapes := append(lines, labels...)
	if p, ok := m.project(segments[0].SrcID); ok {
		shapes = append(shapes, Shape{Key: OriginKey, Kind: KindMarker, Class: ClassOrigin, At: p, Radius: markerSize})
	}
	if p, ok := m.project(segments[len(segments)-1].DstID); ok {
		shapes = append(shapes, Shape{Key: DestinationKey, Kind: KindMarker, Class: ClassDestination, At: p, Radius: markerSize})
	}

	m.route = append([]model.RouteSegment(nil), segments...)
	m.layers[LayerRoute].Replace(shapes)
	return len(lines)
}

func (m *Map) project(id string) (geo.Point, bool) {
	p, ok := m.coords.Lookup(id)
	if !ok {
		return geo.Point{}, false
	}
	return m.proj.Project(p)
}

// labelPoint is the midpoint of a-b pushed labelOffset along the normal
// that points up the screen.
func labelPoint(a, b geo.Point) geo.Point {
	mid := geo.Point{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
	dx, dy := b.X-a.X, b.Y-a.Y
	length := math.Hypot(dx, dy)
	if length == 0 {
		return geo.Point{X: mid.X, Y: mid.Y - labelOffset}
	}
	nx, ny := -dy/length, dx/length
	if ny > 0 {
		nx, ny = -nx, -ny
	}
	return geo.Point{X: mid.X + nx*labelOffset, Y: mid.Y + ny*labelOffset}
}
