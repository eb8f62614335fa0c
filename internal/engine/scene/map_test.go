package scene

import (
	"testing"

	"github.com/paulmach/orb"

	"github.com/rendis/routeview/internal/engine/geo"
	"github.com/rendis/routeview/internal/model"
)

func TestRenderBeforeDataIsNoop(t *testing.T) {
	m := NewMap(geo.Viewport{Width: 800, Height: 500}, DefaultPadding)
	m.RenderBaseMap()
	m.RenderCities()
	if m.Layer(LayerMap).Len() != 0 || m.Layer(LayerCities).Len() != 0 {
		t.Error("layers filled without data")
	}
	if m.DrawRoute([]model.RouteSegment{{SrcID: "A", DstID: "B"}}) != 0 {
		t.Error("route drawn without coordinates")
	}
	// The grid needs no input.
	m.RenderGrid()
	if m.Layer(LayerGrid).Len() == 0 {
		t.Error("grid layer empty")
	}
}

func TestRenderIsKeyedAndRepeatable(t *testing.T) {
	m := newTestMap(t)
	m.SetPolygons(testPolygons(t))
	m.FitDefault()

	counts := func() [4]int {
		var c [4]int
		for i, l := range m.Layers() {
			c[i] = l.Len()
		}
		return c
	}
	first := counts()
	m.Redraw()
	m.Redraw()
	if got := counts(); got != first {
		t.Errorf("layer sizes changed on redraw: %v -> %v", first, got)
	}
	if first[LayerMap] != 2 {
		t.Errorf("map shapes = %d, want 2", first[LayerMap])
	}
	if first[LayerCities] != 4 {
		t.Errorf("city shapes = %d, want 4", first[LayerCities])
	}
	if _, ok := m.Layer(LayerMap).Lookup("08"); !ok {
		t.Error("state 08 not keyed by feature id")
	}
}

func TestRenderCitiesRemovesMissing(t *testing.T) {
	m := newTestMap(t)
	m.HighlightCity("A", true)

	cities := testCatalog()[:2]
	m.SetCatalog(cities, m.Coordinates())
	m.RenderCities()

	l := m.Layer(LayerCities)
	if l.Len() != 2 {
		t.Fatalf("cities = %d, want 2", l.Len())
	}
	if s, _ := l.Lookup("A"); !s.Highlight {
		t.Error("highlight of A lost across re-render")
	}
}

func TestFitToRouteKeepsPointsInside(t *testing.T) {
	m := newTestMap(t)
	m.DrawRoute([]model.RouteSegment{
		{SrcID: "A", DstID: "B", RealDist: 1},
		{SrcID: "B", DstID: "C", RealDist: 2},
	})
	m.Pan(50, 50)
	m.FitToRoute()

	if m.View() != Identity {
		t.Errorf("view not reset by refit: %+v", m.View())
	}
	vp := m.Viewport()
	for _, id := range []string{"A", "B", "C"} {
		p := mustProject(t, m, id)
		if !vp.Contains(p, DefaultPadding-1e-6) {
			t.Errorf("%s projects to %+v outside padded viewport", id, p)
		}
	}
	// The route is redrawn at the new projection.
	origin, _ := m.Layer(LayerRoute).Lookup(OriginKey)
	if !near(origin.At, mustProject(t, m, "A")) {
		t.Errorf("origin %+v not moved with the projection", origin.At)
	}
}

func TestFitToEmptyGivesDefault(t *testing.T) {
	m := newTestMap(t)
	m.FitTo(nil)
	want := geo.DefaultProjection(m.Viewport())
	if m.Projection() != want {
		t.Errorf("FitTo(nil) = %+v, want %+v", m.Projection(), want)
	}
	m.FitTo([]orb.Point{})
	if m.Projection() != want {
		t.Error("second empty fit changed the projection")
	}
}

func TestFitToEmptyRouteKeepsDefaultRegion(t *testing.T) {
	cities := testCatalog()
	m := NewMap(geo.Viewport{Width: 300, Height: 100}, DefaultPadding)
	m.SetCatalog(cities, geo.NewResolver(nil).Resolve(cities))
	m.SetPolygons(testPolygons(t))
	m.FitDefault()
	want := m.Projection()

	m.DrawRoute(nil)
	m.FitToRoute()
	if m.Projection() != want {
		t.Errorf("empty route refit = %+v, want default region %+v", m.Projection(), want)
	}

	// Segments whose cities cannot be resolved leave nothing to fit either.
	m.DrawRoute([]model.RouteSegment{{SrcID: "X", DstID: "Y", RealDist: 1}})
	m.FitToRoute()
	if m.Projection() != want {
		t.Error("unresolvable route moved the view off the default region")
	}
}

func TestResizeRefitsRoute(t *testing.T) {
	m := newTestMap(t)
	m.DrawRoute([]model.RouteSegment{{SrcID: "B", DstID: "D", RealDist: 1}})
	m.Resize(geo.Viewport{Width: 400, Height: 300})

	for _, id := range []string{"B", "D"} {
		p := mustProject(t, m, id)
		if !m.Viewport().Contains(p, DefaultPadding-1e-6) {
			t.Errorf("%s at %+v outside resized viewport", id, p)
		}
	}
}
