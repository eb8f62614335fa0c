package render

import (
	"bufio"
	"bytes"
	"fmt"
	"html"
	"io"
	"math"
	"strings"

	svg "github.com/ajstarks/svgo"

	"github.com/rendis/routeview/internal/engine/geo"
	"github.com/rendis/routeview/internal/engine/scene"
)

// SVG returns the map as an SVG document.
func SVG(m *scene.Map) []byte {
	var buf bytes.Buffer
	// Writes to a bytes.Buffer do not fail.
	_ = WriteSVG(&buf, m)
	return buf.Bytes()
}

// WriteSVG writes the map as an SVG document. Every layer is a group that
// carries the same view transform.
func WriteSVG(w io.Writer, m *scene.Map) error {
	bw := bufio.NewWriter(w)
	vp := m.Viewport()
	view := m.View()
	width, height := int(math.Round(vp.Width)), int(math.Round(vp.Height))

	canvas := svg.New(bw)
	canvas.Start(width, height, fmt.Sprintf(`viewBox="0 0 %d %d"`, width, height))
	canvas.Rect(0, 0, width, height, attr("fill", background))

	transform := attr("transform", Transform(view))
	for _, layer := range m.Layers() {
		canvas.Group(attr("id", "layer-"+layer.ID().String()), transform)
		for _, s := range layer.Shapes() {
			writeShape(canvas, s, view.K)
		}
		canvas.Gend()
	}
	canvas.End()
	return bw.Flush()
}

// Transform formats v as an SVG transform attribute value.
func Transform(v scene.ViewTransform) string {
	return fmt.Sprintf("translate(%.2f,%.2f) scale(%.4f)", v.X, v.Y, v.K)
}

// attr formats one XML attribute; svgo copies arguments containing '='
// verbatim into the element.
func attr(name, value string) string {
	return fmt.Sprintf(`%s="%s"`, name, html.EscapeString(value))
}

func num(name string, v float64) string {
	return fmt.Sprintf(`%s="%.3f"`, name, v)
}

// writeShape draws one shape. Geometry stays in float path data because
// svgo's element helpers take integer coordinates, which would shift shapes
// visibly once zoomed. Stroke widths and radii are divided by k so they keep
// their on-screen size.
func writeShape(canvas *svg.SVG, s scene.Shape, k float64) {
	st := styleFor(s)
	sw := st.StrokeWidth / k
	key := attr("data-key", s.Key)
	class := attr("class", s.Class)

	switch s.Kind {
	case scene.KindPath:
		d := pathData(s.Paths, s.Closed)
		if d == "" {
			return
		}
		fill := st.Fill
		if !s.Closed {
			fill = "none"
		}
		canvas.Path(d, key, class, attr("fill", fill), attr("stroke", st.Stroke), num("stroke-width", sw))
	case scene.KindLine:
		d := pathData([][]geo.Point{{s.From, s.To}}, false)
		canvas.Path(d, key, class, `fill="none"`, attr("stroke", st.Stroke), num("stroke-width", sw), `stroke-linecap="round"`)
	case scene.KindCircle, scene.KindMarker:
		canvas.Path(circleData(s.At, s.Radius/k), key, class,
			attr("fill", st.Fill), attr("stroke", st.Stroke), num("stroke-width", sw))
		if showLabel(s) {
			writeText(canvas, s.Key, s.Text, geo.Point{X: s.At.X + (s.Radius+3)/k, Y: s.At.Y}, cityLabelSize/k, "start", true)
		}
	case scene.KindLabel:
		writeText(canvas, s.Key, s.Text, s.At, labelSize/k, "middle", s.Halo)
	}
}

// writeText places the text through a translated group so the anchor keeps
// its fractional position. svgo escapes the text itself.
func writeText(canvas *svg.SVG, key, text string, at geo.Point, size float64, anchor string, halo bool) {
	attrs := []string{
		attr("data-key", key),
		`font-family="sans-serif"`,
		num("font-size", size),
		attr("text-anchor", anchor),
		`dominant-baseline="middle"`,
		attr("fill", textColor),
	}
	if halo {
		// The halo is a stroke painted under the fill.
		attrs = append(attrs, attr("stroke", haloColor), num("stroke-width", size/4),
			`paint-order="stroke"`, `stroke-linejoin="round"`)
	}
	canvas.Gtransform(fmt.Sprintf("translate(%.2f,%.2f)", at.X, at.Y))
	canvas.Text(0, 0, text, attrs...)
	canvas.Gend()
}

func pathData(paths [][]geo.Point, closed bool) string {
	var sb strings.Builder
	for _, run := range paths {
		if len(run) < 2 {
			continue
		}
		for i, p := range run {
			if i == 0 {
				fmt.Fprintf(&sb, "M%.2f,%.2f", p.X, p.Y)
			} else {
				fmt.Fprintf(&sb, "L%.2f,%.2f", p.X, p.Y)
			}
		}
		if closed {
			sb.WriteByte('Z')
		}
	}
	return sb.String()
}

// circleData draws a circle as two half arcs.
func circleData(c geo.Point, r float64) string {
	return fmt.Sprintf("M%.3f,%.3f a%.3f,%.3f 0 1,0 %.3f,0 a%.3f,%.3f 0 1,0 %.3f,0 Z",
		c.X-r, c.Y, r, r, 2*r, r, r, -2*r)
}
