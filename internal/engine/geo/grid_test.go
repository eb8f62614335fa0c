package geo

import (
	"testing"

	"github.com/paulmach/orb"
)

func TestGenerateGraticule(t *testing.T) {
	lines := GenerateGraticule(GraticuleRegion, 5, 1)
	if len(lines) != 13+6 {
		t.Fatalf("lines = %d, want 19", len(lines))
	}
	if lines[0].Key != "lon:-125" {
		t.Errorf("first key = %q", lines[0].Key)
	}
	if last := lines[len(lines)-1].Key; last != "lat:50" {
		t.Errorf("last key = %q", last)
	}
	if n := len(lines[0].Points); n != 26 {
		t.Errorf("meridian samples = %d, want 26", n)
	}

	keys := make(map[string]bool)
	for _, l := range lines {
		if keys[l.Key] {
			t.Errorf("duplicate key %q", l.Key)
		}
		keys[l.Key] = true
	}

	if GenerateGraticule(GraticuleRegion, 0, 1) != nil {
		t.Error("zero step should give no lines")
	}
}

func TestProjectPathSplits(t *testing.T) {
	proj := DefaultProjection(Viewport{Width: 960, Height: 600})
	pts := []orb.Point{
		{-100, 40}, {-100, 41},
		{2.35, 48.86}, // off the projection
		{-99, 40}, {-98, 40},
		{2.35, 48.86},
		{-97, 40}, // single point run is dropped
	}
	runs := proj.ProjectPath(pts)
	if len(runs) != 2 {
		t.Fatalf("runs = %d, want 2", len(runs))
	}
	for i, r := range runs {
		if len(r) != 2 {
			t.Errorf("run %d has %d points, want 2", i, len(r))
		}
	}
}
