package components

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rendis/routeview/internal/engine/geo"
	"github.com/rendis/routeview/internal/engine/scene"
	"github.com/rendis/routeview/internal/tui/styles"
)

// ink ranks what a dot shows. When shapes overlap the higher ink wins, and a
// cell takes the color of its highest ink.
type ink uint8

const (
	inkNone ink = iota
	inkGrid
	inkState
	inkRoute
	inkCity
	inkActive
	inkOrigin
	inkDestination
)

var inkStyles = map[ink]lipgloss.Style{
	inkGrid:        styles.GridLine,
	inkState:       styles.StateLine,
	inkRoute:       styles.RouteLine,
	inkCity:        styles.CityDot,
	inkActive:      styles.CityActive,
	inkOrigin:      styles.Origin,
	inkDestination: styles.Destination,
}

// MapView draws a scene.Map with Braille characters. Every cell is a 2x4
// dot grid, so the scene viewport is measured in dots.
type MapView struct {
	width  int
	height int
}

func NewMapView(width, height int) MapView {
	return MapView{width: width, height: height}
}

func (v *MapView) SetSize(width, height int) {
	v.width = width
	v.height = height
}

// Viewport returns the dot viewport a scene.Map needs to fill the view.
func (v MapView) Viewport() geo.Viewport {
	return geo.Viewport{Width: float64(v.width * 2), Height: float64(v.height * 4)}
}

// Braille character encoding:
// Each braille char is a 2x4 dot grid.
// Dot positions:  0 3
//
//	1 4
//	2 5
//	6 7
//
// Unicode: 0x2800 + sum of raised dot bits
var brailleDots = [8]rune{0x01, 0x02, 0x04, 0x08, 0x10, 0x20, 0x40, 0x80}

var dotPositions = [8][2]int{
	{0, 0}, {1, 0}, {2, 0}, {0, 1},
	{1, 1}, {2, 1}, {3, 0}, {3, 1},
}

type canvas struct {
	w, h   int
	dots   [][]ink
	labels map[int]map[int]rune
	view   scene.ViewTransform
}

func newCanvas(cols, rows int, view scene.ViewTransform) *canvas {
	c := &canvas{w: cols * 2, h: rows * 4, labels: make(map[int]map[int]rune), view: view}
	c.dots = make([][]ink, c.h)
	for i := range c.dots {
		c.dots[i] = make([]ink, c.w)
	}
	return c
}

func (c *canvas) toDot(p geo.Point) (int, int, bool) {
	s := c.view.Apply(p)
	if math.IsNaN(s.X) || math.IsNaN(s.Y) || math.IsInf(s.X, 0) || math.IsInf(s.Y, 0) {
		return 0, 0, false
	}
	return int(math.Round(s.X)), int(math.Round(s.Y)), true
}

func (c *canvas) set(x, y int, k ink) {
	if x < 0 || x >= c.w || y < 0 || y >= c.h {
		return
	}
	if c.dots[y][x] < k {
		c.dots[y][x] = k
	}
}

func (c *canvas) line(a, b geo.Point, k ink) {
	x0, y0, ok0 := c.toDot(a)
	x1, y1, ok1 := c.toDot(b)
	if !ok0 || !ok1 {
		return
	}
	// Both ends beyond the same edge.
	if (x0 < 0 && x1 < 0) || (y0 < 0 && y1 < 0) || (x0 >= c.w && x1 >= c.w) || (y0 >= c.h && y1 >= c.h) {
		return
	}
	drawLine(c, x0, y0, x1, y1, k)
}

func (c *canvas) blob(p geo.Point, r int, k ink) {
	x, y, ok := c.toDot(p)
	if !ok {
		return
	}
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if dx*dx+dy*dy <= r*r {
				c.set(x+dx, y+dy, k)
			}
		}
	}
}

// text writes s into the label overlay. anchor is the cell of the first
// rune; runes outside the view are dropped.
func (c *canvas) text(s string, col, row int) {
	if row < 0 || row >= c.h/4 {
		return
	}
	line := c.labels[row]
	if line == nil {
		line = make(map[int]rune)
		c.labels[row] = line
	}
	for i, r := range []rune(s) {
		if x := col + i; x >= 0 && x < c.w/2 {
			line[x] = r
		}
	}
}

func (c *canvas) shape(s scene.Shape) {
	switch s.Kind {
	case scene.KindPath:
		k := inkState
		if s.Class == scene.ClassGraticule {
			k = inkGrid
		}
		for _, run := range s.Paths {
			for i := 1; i < len(run); i++ {
				c.line(run[i-1], run[i], k)
			}
			if s.Closed && len(run) > 2 {
				c.line(run[len(run)-1], run[0], k)
			}
		}
	case scene.KindLine:
		k := inkRoute
		if s.Highlight {
			k = inkActive
		}
		c.line(s.From, s.To, k)
	case scene.KindCircle:
		if s.Highlight {
			c.blob(s.At, 1, inkActive)
			if x, y, ok := c.toDot(s.At); ok && s.Text != "" {
				c.text(s.Text, x/2+2, y/4)
			}
			return
		}
		c.blob(s.At, 0, inkCity)
	case scene.KindMarker:
		k := inkOrigin
		if s.Class == scene.ClassDestination {
			k = inkDestination
		}
		c.blob(s.At, 2, k)
	case scene.KindLabel:
		if x, y, ok := c.toDot(s.At); ok {
			n := len([]rune(s.Text))
			c.text(s.Text, x/2-n/2, y/4)
		}
	}
}

// View renders m into width x height cells. The map must use Viewport() so
// that one scene unit is one dot.
func (v MapView) View(m *scene.Map) string {
	if v.width <= 0 || v.height <= 0 {
		return ""
	}
	if m == nil {
		return strings.Repeat(strings.Repeat(" ", v.width)+"\n", v.height-1) + strings.Repeat(" ", v.width)
	}

	c := newCanvas(v.width, v.height, m.View())
	for _, layer := range m.Layers() {
		for _, s := range layer.Shapes() {
			c.shape(s)
		}
	}

	var sb strings.Builder
	for row := 0; row < v.height; row++ {
		var run strings.Builder
		runStyle := ink(255)
		flush := func() {
			if run.Len() == 0 {
				return
			}
			switch runStyle {
			case inkNone:
				sb.WriteString(run.String())
			case 255:
				sb.WriteString(styles.MapLabel.Render(run.String()))
			default:
				sb.WriteString(inkStyles[runStyle].Render(run.String()))
			}
			run.Reset()
		}

		for col := 0; col < v.width; col++ {
			if r, ok := c.labels[row][col]; ok {
				if runStyle != 255 {
					flush()
					runStyle = 255
				}
				run.WriteRune(r)
				continue
			}

			var val rune = 0x2800
			top := inkNone
			for dot := 0; dot < 8; dot++ {
				k := c.dots[row*4+dotPositions[dot][0]][col*2+dotPositions[dot][1]]
				if k == inkNone {
					continue
				}
				val |= brailleDots[dot]
				if k > top {
					top = k
				}
			}
			if top != runStyle {
				flush()
				runStyle = top
			}
			if top == inkNone {
				run.WriteRune(' ')
			} else {
				run.WriteRune(val)
			}
		}
		flush()
		if row < v.height-1 {
			sb.WriteRune('\n')
		}
	}
	return sb.String()
}

// drawLine draws a line between two points using Bresenham's algorithm.
func drawLine(c *canvas, x0, y0, x1, y1 int, k ink) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx := 1
	if x0 >= x1 {
		sx = -1
	}
	sy := 1
	if y0 >= y1 {
		sy = -1
	}
	err := dx + dy

	for {
		c.set(x0, y0, k)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
