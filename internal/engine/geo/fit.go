package geo

import (
	"math"

	"github.com/paulmach/orb"
)

// DefaultRegion is the contiguous United States.
var DefaultRegion = orb.Bound{
	Min: orb.Point{-124.8, 24.5},
	Max: orb.Point{-66.9, 49.4},
}

// Fit solves scale and translation so the projected extent of points fills
// vp minus padding on every side, preserving aspect. Points that cannot be
// projected are ignored. With nothing to fit it returns DefaultProjection.
func Fit(points []orb.Point, vp Viewport, padding float64) Projection {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	n := 0
	for _, p := range points {
		u, ok := UnitProject(p)
		if !ok {
			continue
		}
		minX = math.Min(minX, u.X)
		minY = math.Min(minY, u.Y)
		maxX = math.Max(maxX, u.X)
		maxY = math.Max(maxY, u.Y)
		n++
	}

	def := DefaultProjection(vp)
	if n == 0 || vp.Width <= 0 || vp.Height <= 0 {
		return def
	}

	x0, y0 := padding, padding
	w := vp.Width - 2*padding
	h := vp.Height - 2*padding
	if w <= 0 || h <= 0 {
		x0, y0, w, h = 0, 0, vp.Width, vp.Height
	}

	dx, dy := maxX-minX, maxY-minY
	var k float64
	switch {
	case dx == 0 && dy == 0:
		k = def.Scale
	case dx == 0:
		k = h / dy
	case dy == 0:
		k = w / dx
	default:
		k = math.Min(w/dx, h/dy)
	}

	return Projection{
		Scale: k,
		Translate: Point{
			X: x0 + (w-k*(maxX+minX))/2,
			Y: y0 + (h-k*(maxY+minY))/2,
		},
	}
}

// FitBound fits the outline of b, sampled every degree so the curved edges
// of the conic are covered.
func FitBound(b orb.Bound, vp Viewport, padding float64) Projection {
	return Fit(BoundOutline(b, 1), vp, padding)
}

// BoundOutline samples the edges of b every step degrees.
func BoundOutline(b orb.Bound, step float64) []orb.Point {
	if step <= 0 {
		step = 1
	}
	var pts []orb.Point
	for lon := b.Min.Lon(); lon < b.Max.Lon(); lon += step {
		pts = append(pts, orb.Point{lon, b.Min.Lat()}, orb.Point{lon, b.Max.Lat()})
	}
	for lat := b.Min.Lat(); lat < b.Max.Lat(); lat += step {
		pts = append(pts, orb.Point{b.Min.Lon(), lat}, orb.Point{b.Max.Lon(), lat})
	}
	return append(pts, b.Max, orb.Point{b.Max.Lon(), b.Min.Lat()}, orb.Point{b.Min.Lon(), b.Max.Lat()})
}
