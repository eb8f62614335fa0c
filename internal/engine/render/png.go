package render

import (
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/rendis/routeview/internal/engine/geo"
	"github.com/rendis/routeview/internal/engine/scene"
)

var (
	fontOnce sync.Once
	ttf      *truetype.Font
	fontErr  error
)

func loadFont() (*truetype.Font, error) {
	fontOnce.Do(func() {
		ttf, fontErr = truetype.Parse(goregular.TTF)
	})
	return ttf, fontErr
}

// WritePNG rasterizes the map at its viewport size. Geometry goes through
// the view transform point by point so line widths stay constant on screen.
func WritePNG(w io.Writer, m *scene.Map) error {
	vp := m.Viewport()
	width, height := int(math.Round(vp.Width)), int(math.Round(vp.Height))
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid image size %dx%d", width, height)
	}

	f, err := loadFont()
	if err != nil {
		return fmt.Errorf("loading font: %w", err)
	}
	labelFace := truetype.NewFace(f, &truetype.Options{Size: labelSize})
	cityFace := truetype.NewFace(f, &truetype.Options{Size: cityLabelSize})

	dc := gg.NewContext(width, height)
	dc.SetHexColor(background)
	dc.Clear()

	view := m.View()
	for _, layer := range m.Layers() {
		for _, s := range layer.Shapes() {
			drawShape(dc, s, view, labelFace, cityFace)
		}
	}
	return dc.EncodePNG(w)
}

func drawShape(dc *gg.Context, s scene.Shape, view scene.ViewTransform, labelFace, cityFace font.Face) {
	st := styleFor(s)
	dc.SetLineWidth(st.StrokeWidth)

	switch s.Kind {
	case scene.KindPath:
		for _, run := range s.Paths {
			if len(run) < 2 {
				continue
			}
			for i, p := range run {
				q := view.Apply(p)
				if i == 0 {
					dc.MoveTo(q.X, q.Y)
				} else {
					dc.LineTo(q.X, q.Y)
				}
			}
			if s.Closed {
				dc.ClosePath()
			}
		}
		if s.Closed && st.Fill != "none" {
			dc.SetHexColor(st.Fill)
			dc.FillPreserve()
		}
		dc.SetHexColor(st.Stroke)
		dc.Stroke()
	case scene.KindLine:
		a, b := view.Apply(s.From), view.Apply(s.To)
		dc.SetLineCapRound()
		dc.DrawLine(a.X, a.Y, b.X, b.Y)
		dc.SetHexColor(st.Stroke)
		dc.Stroke()
	case scene.KindCircle, scene.KindMarker:
		c := view.Apply(s.At)
		dc.DrawCircle(c.X, c.Y, s.Radius)
		dc.SetHexColor(st.Fill)
		dc.FillPreserve()
		dc.SetHexColor(st.Stroke)
		dc.Stroke()
		if showLabel(s) {
			dc.SetFontFace(cityFace)
			drawText(dc, s.Text, geo.Point{X: c.X + s.Radius + 3, Y: c.Y}, 0, true)
		}
	case scene.KindLabel:
		dc.SetFontFace(labelFace)
		drawText(dc, s.Text, view.Apply(s.At), 0.5, s.Halo)
	}
}

// drawText draws text vertically centered on at. ax is the horizontal
// anchor: 0 left, 0.5 center.
func drawText(dc *gg.Context, text string, at geo.Point, ax float64, halo bool) {
	if halo {
		dc.SetHexColor(haloColor)
		for dy := -2; dy <= 2; dy++ {
			for dx := -2; dx <= 2; dx++ {
				if dx != 0 || dy != 0 {
					dc.DrawStringAnchored(text, at.X+float64(dx), at.Y+float64(dy), ax, 0.35)
				}
			}
		}
	}
	dc.SetHexColor(textColor)
	dc.DrawStringAnchored(text, at.X, at.Y, ax, 0.35)
}
