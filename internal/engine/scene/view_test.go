package scene

import (
	"math"
	"testing"

	"github.com/rendis/routeview/internal/engine/geo"
)

func TestViewTransformZoomAt(t *testing.T) {
	c := geo.Point{X: 300, Y: 200}
	tests := []struct {
		name   string
		start  ViewTransform
		factor float64
		wantK  float64
	}{
		{"zoom in", Identity, 2, 2},
		{"clamped max", ViewTransform{K: 6}, 2, MaxZoom},
		{"clamped min", Identity, 0.5, MinZoom},
		{"invalid factor", ViewTransform{K: 3}, 0, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.start.ZoomAt(tt.factor, c)
			if got.K != tt.wantK {
				t.Fatalf("K = %v, want %v", got.K, tt.wantK)
			}
			// The zoom center stays put on screen.
			before := tt.start.Invert(c)
			if after := got.Apply(before); math.Abs(after.X-c.X) > 1e-9 || math.Abs(after.Y-c.Y) > 1e-9 {
				t.Errorf("center moved to %+v", after)
			}
		})
	}
}

func TestViewTransformPanAndInvert(t *testing.T) {
	v := ViewTransform{K: 2, X: 10, Y: -5}.Pan(5, 5)
	if v.X != 15 || v.Y != 0 || v.K != 2 {
		t.Fatalf("Pan = %+v", v)
	}
	p := geo.Point{X: 7, Y: 9}
	if back := v.Invert(v.Apply(p)); math.Abs(back.X-p.X) > 1e-9 || math.Abs(back.Y-p.Y) > 1e-9 {
		t.Errorf("Invert(Apply(p)) = %+v, want %+v", back, p)
	}
}

func TestZoomAnimationConverges(t *testing.T) {
	target := ViewTransform{K: 1.5, X: -240, Y: -150}
	a := newZoomAnimation(Identity, target)

	var (
		cur  ViewTransform
		done bool
	)
	for i := 0; i < animMaxFrames && !done; i++ {
		cur, done = a.Step()
		if cur.K < MinZoom || cur.K > MaxZoom {
			t.Fatalf("frame %d K = %v out of range", i, cur.K)
		}
	}
	if !done {
		t.Fatal("animation did not settle")
	}
	if cur != target {
		t.Errorf("final = %+v, want %+v", cur, target)
	}
}

func TestMapZoomInOut(t *testing.T) {
	m := newTestMap(t)

	m.ZoomIn()
	if !m.Animating() {
		t.Fatal("ZoomIn did not start an animation")
	}
	frames := 0
	for m.Tick() {
		frames++
	}
	if frames == 0 {
		t.Error("animation finished without intermediate frames")
	}
	if got := m.View().K; math.Abs(got-ZoomStep) > 1e-9 {
		t.Fatalf("K after ZoomIn = %v, want %v", got, ZoomStep)
	}

	m.ZoomOut()
	m.Settle()
	if got := m.View().K; math.Abs(got-1) > 1e-9 {
		t.Errorf("K after ZoomOut = %v, want 1", got)
	}

	m.ZoomOut()
	m.Settle()
	if got := m.View().K; got != MinZoom {
		t.Errorf("K below min: %v", got)
	}

	for range 10 {
		m.ZoomIn()
	}
	m.Settle()
	if got := m.View().K; got != MaxZoom {
		t.Errorf("K after repeated ZoomIn = %v, want %v", got, MaxZoom)
	}
}

func TestPanDoesNotTouchProjection(t *testing.T) {
	m := newTestMap(t)
	before := m.Projection()
	shapes := len(m.Layer(LayerCities).Shapes())

	m.Pan(25, -10)
	m.ZoomAt(2, 100, 100)

	if m.Projection() != before {
		t.Error("pan/zoom changed the projection")
	}
	if len(m.Layer(LayerCities).Shapes()) != shapes {
		t.Error("pan/zoom changed the layers")
	}
	if m.View() == Identity {
		t.Error("view unchanged after pan/zoom")
	}
}
