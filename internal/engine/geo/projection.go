package geo

import (
	"math"

	"github.com/paulmach/orb"
)

// Point represents a screen coordinate. Y grows downward.
type Point struct {
	X float64
	Y float64
}

// Viewport is the drawing area in screen units.
type Viewport struct {
	Width  float64
	Height float64
}

// Center returns the middle of the viewport.
func (v Viewport) Center() Point {
	return Point{X: v.Width / 2, Y: v.Height / 2}
}

// Contains reports whether p lies inside the viewport shrunk by pad on each side.
func (v Viewport) Contains(p Point, pad float64) bool {
	return p.X >= pad && p.X <= v.Width-pad && p.Y >= pad && p.Y <= v.Height-pad
}

const (
	degToRad = math.Pi / 180.0

	// referenceScale is the Albers USA scale that fits the US into a
	// 960px wide drawing.
	referenceScale = 1070.0
	referenceWidth = 960.0
)

// conic is an equal-area conic with its own rotation and center.
type conic struct {
	n, c, r0 float64
	rotate   float64 // radians added to longitude
	cx, cy   float64 // raw coordinates of the center
}

func newConic(parallel0, parallel1, rotateDeg, centerLon, centerLat float64) conic {
	sy0 := math.Sin(parallel0 * degToRad)
	n := (sy0 + math.Sin(parallel1*degToRad)) / 2
	c := 1 + sy0*(2*n-sy0)
	k := conic{
		n:      n,
		c:      c,
		r0:     math.Sqrt(c) / n,
		rotate: rotateDeg * degToRad,
	}
	// The center is expressed in the rotated frame.
	k.cx, k.cy = k.raw(centerLon*degToRad, centerLat*degToRad)
	return k
}

func (k conic) raw(lambda, phi float64) (float64, float64) {
	r := math.Sqrt(k.c-2*k.n*math.Sin(phi)) / k.n
	return r * math.Sin(lambda*k.n), k.r0 - r*math.Cos(lambda*k.n)
}

// unit projects lon/lat in degrees to unit-scale screen space centered on
// the conic center, with Y pointing down.
func (k conic) unit(lon, lat float64) (Point, bool) {
	lambda := lon*degToRad + k.rotate
	if lambda > math.Pi {
		lambda -= 2 * math.Pi
	} else if lambda < -math.Pi {
		lambda += 2 * math.Pi
	}
	x, y := k.raw(lambda, lat*degToRad)
	if math.IsNaN(x) || math.IsNaN(y) {
		return Point{}, false
	}
	return Point{X: x - k.cx, Y: k.cy - y}, true
}

// inset places one conic on the composite map and clips it to an extent.
type inset struct {
	proj       conic
	scale      float64
	offX, offY float64
	minX, minY float64
	maxX, maxY float64
}

func (in inset) project(lon, lat float64) (Point, bool) {
	u, ok := in.proj.unit(lon, lat)
	if !ok {
		return Point{}, false
	}
	p := Point{X: u.X*in.scale + in.offX, Y: u.Y*in.scale + in.offY}
	if p.X < in.minX || p.X > in.maxX || p.Y < in.minY || p.Y > in.maxY {
		return Point{}, false
	}
	return p, true
}

// Albers USA: the lower 48 plus scaled Alaska and Hawaii insets. Extents
// are in units of the projection scale.
var albersUSA = []inset{
	{proj: newConic(29.5, 45.5, 96, -0.6, 38.7), scale: 1,
		minX: -0.455, minY: -0.238, maxX: 0.455, maxY: 0.238},
	{proj: newConic(55, 65, 154, -2, 58.5), scale: 0.35, offX: -0.307, offY: 0.201,
		minX: -0.425, minY: 0.120, maxX: -0.214, maxY: 0.234},
	{proj: newConic(8, 18, 157, -3, 19.9), scale: 1, offX: -0.205, offY: 0.212,
		minX: -0.214, minY: 0.166, maxX: -0.115, maxY: 0.234},
}

// UnitProject maps a [lon, lat] point into Albers USA space at scale 1 and
// zero translation. Points outside every inset fail.
func UnitProject(p orb.Point) (Point, bool) {
	if !ValidCoordinate(p.Lat(), p.Lon()) {
		return Point{}, false
	}
	for _, in := range albersUSA {
		if u, ok := in.project(p.Lon(), p.Lat()); ok {
			return u, true
		}
	}
	return Point{}, false
}

// Projection is the scale and translation applied to Albers USA space.
type Projection struct {
	Scale     float64
	Translate Point
}

// DefaultProjection shows the whole US centered in vp.
func DefaultProjection(vp Viewport) Projection {
	scale := referenceScale
	if vp.Width > 0 {
		scale = referenceScale * vp.Width / referenceWidth
	}
	return Projection{Scale: scale, Translate: vp.Center()}
}

// Project converts a [lon, lat] point to screen coordinates.
func (p Projection) Project(pt orb.Point) (Point, bool) {
	u, ok := UnitProject(pt)
	if !ok {
		return Point{}, false
	}
	return Point{X: p.Translate.X + p.Scale*u.X, Y: p.Translate.Y + p.Scale*u.Y}, true
}

// Valid reports whether the projection can place anything on screen.
func (p Projection) Valid() bool {
	return p.Scale > 0 && !math.IsInf(p.Scale, 0) && !math.IsNaN(p.Scale) &&
		!math.IsNaN(p.Translate.X) && !math.IsNaN(p.Translate.Y)
}
