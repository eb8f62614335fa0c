// Package scene turns catalog, boundary and route data into four keyed
// layers of projected shapes, and owns the projection and pan/zoom state
// that every encoder draws with.
//
// A Map is not safe for concurrent use. One goroutine owns it: the TUI
// update loop, or the caller in headless mode.
package scene

import (
	"github.com/paulmach/orb"

	"github.com/rendis/routeview/internal/engine/geo"
	"github.com/rendis/routeview/internal/model"
)

// DefaultPadding is the fit margin in screen units.
const DefaultPadding = 40.0

// Map is the rendering context: projection, view transform, current route
// and the layers built from them.
type Map struct {
	vp      geo.Viewport
	padding float64

	proj geo.Projection
	view ViewTransform
	anim *ZoomAnimation

	cities    []model.City
	coords    *geo.CoordinateIndex
	polygons  *geo.PolygonSet
	graticule []geo.GraticuleLine

	route []model.RouteSegment

	layers [layerCount]*Layer
}

// NewMap returns an empty scene with the default projection for vp.
func NewMap(vp geo.Viewport, padding float64) *Map {
	if padding < 0 {
		padding = 0
	}
	m := &Map{
		vp:        vp,
		padding:   padding,
		proj:      geo.DefaultProjection(vp),
		view:      Identity,
		graticule: geo.GenerateGraticule(geo.GraticuleRegion, 5, 1),
	}
	for i := range m.layers {
		m.layers[i] = newLayer(LayerID(i))
	}
	return m
}

// SetCatalog installs the city catalog and its resolved coordinates.
func (m *Map) SetCatalog(cities []model.City, ix *geo.CoordinateIndex) {
	m.cities = cities
	m.coords = ix
}

// SetPolygons installs the base map.
func (m *Map) SetPolygons(ps *geo.PolygonSet) {
	m.polygons = ps
}

func (m *Map) Viewport() geo.Viewport { return m.vp }
func (m *Map) Projection() geo.Projection { return m.proj }
func (m *Map) View() ViewTransform { return m.view }
func (m *Map) Coordinates() *geo.CoordinateIndex { return m.coords }
func (m *Map) Cities() []model.City { return m.cities }

// Layer returns one layer of the scene.
func (m *Map) Layer(id LayerID) *Layer {
	return m.layers[id]
}

// Layers returns all layers in drawing order.
func (m *Map) Layers() []*Layer {
	return m.layers[:]
}

// CurrentRoute returns the last non-empty segment list drawn, or nil.
func (m *Map) CurrentRoute() []model.RouteSegment {
	return m.route
}

// Resize changes the viewport and refits: to the current route when there
// is one, else to the default region.
func (m *Map) Resize(vp geo.Viewport) {
	m.vp = vp
	if len(m.route) > 0 {
		m.FitToRoute()
		return
	}
	m.FitDefault()
}

// FitDefault fits the base map, or the contiguous US when no base map is
// loaded, resets the view and redraws.
func (m *Map) FitDefault() {
	if m.polygons.Len() == 0 {
		m.setProjection(geo.FitBound(geo.DefaultRegion, m.vp, m.padding))
		return
	}
	var pts []orb.Point
	for _, f := range m.polygons.Features() {
		for _, poly := range f.Geometry {
			for _, ring := range poly {
				pts = append(pts, ring...)
			}
		}
	}
	m.setProjection(geo.Fit(pts, m.vp, m.padding))
}

// FitTo fits the given points, resets the view and redraws. No points gives
// the default projection.
func (m *Map) FitTo(points []orb.Point) {
	m.setProjection(geo.Fit(points, m.vp, m.padding))
}

// FitToRoute fits every resolvable city of the current route. Without one
// it falls back to the default region.
func (m *Map) FitToRoute() {
	pts := m.routePoints()
	if len(pts) == 0 {
		m.FitDefault()
		return
	}
	m.FitTo(pts)
}

func (m *Map) routePoints() []orb.Point {
	var pts []orb.Point
	seen := make(map[string]bool)
	for _, seg := range m.route {
		for _, id := range [2]string{seg.SrcID, seg.DstID} {
			if seen[id] {
				continue
			}
			seen[id] = true
			if p, ok := m.coords.Lookup(id); ok {
				pts = append(pts, p)
			}
		}
	}
	return pts
}

// setProjection installs a fitted projection. A refit resets pan/zoom rather
// than composing with it.
func (m *Map) setProjection(p geo.Projection) {
	if !p.Valid() {
		p = geo.DefaultProjection(m.vp)
	}
	m.proj = p
	m.view = Identity
	m.anim = nil
	m.Redraw()
}

// Redraw rebuilds every layer at the current projection.
func (m *Map) Redraw() {
	m.RenderBaseMap()
	m.RenderGrid()
	m.RenderCities()
	if len(m.route) > 0 {
		m.DrawRoute(m.route)
	}
}

// Pan moves the view by (dx, dy) screen units.
func (m *Map) Pan(dx, dy float64) {
	m.anim = nil
	m.view = m.view.Pan(dx, dy)
}

// ZoomAt zooms by factor about the screen point (cx, cy).
func (m *Map) ZoomAt(factor, cx, cy float64) {
	m.anim = nil
	m.view = m.view.ZoomAt(factor, geo.Point{X: cx, Y: cy})
}

// ZoomIn starts an animated zoom by ZoomStep about the viewport center.
func (m *Map) ZoomIn() { m.animateZoom(ZoomStep) }

// ZoomOut starts an animated zoom by 1/ZoomStep about the viewport center.
func (m *Map) ZoomOut() { m.animateZoom(1 / ZoomStep) }

func (m *Map) animateZoom(factor float64) {
	from := m.view
	base := from
	if m.anim != nil {
		// Chained presses build on where the running animation is heading.
		base = m.anim.Target()
	}
	to := base.ZoomAt(factor, m.vp.Center())
	m.anim = newZoomAnimation(from, to)
}

// ResetView animates back to the identity transform.
func (m *Map) ResetView() {
	m.anim = newZoomAnimation(m.view, Identity)
}

// Animating reports whether a zoom animation is running.
func (m *Map) Animating() bool {
	return m.anim != nil
}

// Tick advances the running animation by one frame. It reports whether
// more frames follow.
func (m *Map) Tick() bool {
	if m.anim == nil {
		return false
	}
	t, done := m.anim.Step()
	m.view = t
	if done {
		m.anim = nil
	}
	return !done
}

// Settle jumps a running animation to its end.
func (m *Map) Settle() {
	if m.anim != nil {
		m.view = m.anim.Target()
		m.anim = nil
	}
}

// Screen maps a projected point through the view transform.
func (m *Map) Screen(p geo.Point) geo.Point {
	return m.view.Apply(p)
}
