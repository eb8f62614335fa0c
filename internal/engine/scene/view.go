package scene

import (
	"math"

	"github.com/charmbracelet/harmonica"

	"github.com/rendis/routeview/internal/engine/geo"
)

// Zoom limits and the step used by ZoomIn and ZoomOut.
const (
	MinZoom  = 1.0
	MaxZoom  = 8.0
	ZoomStep = 1.5
)

// ViewTransform is the pan/zoom applied on top of the projected scene:
// screen = world*K + (X, Y).
type ViewTransform struct {
	K float64
	X float64
	Y float64
}

// Identity is the transform after every refit.
var Identity = ViewTransform{K: 1}

// Apply maps a projected point to the screen.
func (t ViewTransform) Apply(p geo.Point) geo.Point {
	return geo.Point{X: p.X*t.K + t.X, Y: p.Y*t.K + t.Y}
}

// Invert maps a screen point back to projected coordinates.
func (t ViewTransform) Invert(p geo.Point) geo.Point {
	return geo.Point{X: (p.X - t.X) / t.K, Y: (p.Y - t.Y) / t.K}
}

// ZoomAt scales by factor keeping the screen point c fixed. The resulting
// scale is clamped to [MinZoom, MaxZoom].
func (t ViewTransform) ZoomAt(factor float64, c geo.Point) ViewTransform {
	if factor <= 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return t
	}
	k := clampZoom(t.K * factor)
	w := t.Invert(c)
	return ViewTransform{K: k, X: c.X - w.X*k, Y: c.Y - w.Y*k}
}

// Pan translates by (dx, dy) screen units.
func (t ViewTransform) Pan(dx, dy float64) ViewTransform {
	return ViewTransform{K: t.K, X: t.X + dx, Y: t.Y + dy}
}

func clampZoom(k float64) float64 {
	return math.Max(MinZoom, math.Min(MaxZoom, k))
}

const (
	animFPS       = 60
	animFrequency = 6.0
	animDamping   = 1.0 // critically damped
	animEpsilon   = 1e-3
	animMaxFrames = 4 * animFPS
)

// ZoomAnimation eases a ViewTransform towards a target with a spring.
type ZoomAnimation struct {
	spring harmonica.Spring
	cur    ViewTransform
	vel    ViewTransform
	target ViewTransform
	frames int
}

func newZoomAnimation(from, to ViewTransform) *ZoomAnimation {
	return &ZoomAnimation{
		spring: harmonica.NewSpring(harmonica.FPS(animFPS), animFrequency, animDamping),
		cur:    from,
		target: to,
	}
}

// FrameInterval is the time between animation steps, in seconds.
func FrameInterval() float64 { return 1.0 / animFPS }

// Target is where the animation ends.
func (a *ZoomAnimation) Target() ViewTransform { return a.target }

// Step advances one frame. It returns the intermediate transform and
// whether the animation has settled; the settled transform is the target.
func (a *ZoomAnimation) Step() (ViewTransform, bool) {
	a.cur.K, a.vel.K = a.spring.Update(a.cur.K, a.vel.K, a.target.K)
	a.cur.X, a.vel.X = a.spring.Update(a.cur.X, a.vel.X, a.target.X)
	a.cur.Y, a.vel.Y = a.spring.Update(a.cur.Y, a.vel.Y, a.target.Y)
	a.frames++

	if a.settled() || a.frames >= animMaxFrames {
		a.cur, a.vel = a.target, ViewTransform{}
		return a.cur, true
	}
	// Intermediate frames stay within the zoom range.
	a.cur.K = clampZoom(a.cur.K)
	return a.cur, false
}

func (a *ZoomAnimation) settled() bool {
	near := func(v, t, vel float64) bool {
		return math.Abs(v-t) < animEpsilon && math.Abs(vel) < animEpsilon
	}
	return near(a.cur.K, a.target.K, a.vel.K) &&
		near(a.cur.X, a.target.X, a.vel.X) &&
		near(a.cur.Y, a.target.Y, a.vel.Y)
}
