// Package render encodes a scene.Map as SVG or PNG. Both encoders draw the
// layers bottom to top and apply the map's view transform to all of them.
package render

import "github.com/rendis/routeview/internal/engine/scene"

type style struct {
	Fill        string
	Stroke      string
	StrokeWidth float64
}

const (
	background     = "#f4f1ea"
	textColor      = "#1f2933"
	haloColor      = "#ffffff"
	highlightColor = "#d9480f"
	labelSize      = 12.0
	cityLabelSize  = 11.0
)

var styles = map[string]style{
	scene.ClassState:       {Fill: "#e3ddd0", Stroke: "#ffffff", StrokeWidth: 0.8},
	scene.ClassGraticule:   {Fill: "none", Stroke: "#c8c2b4", StrokeWidth: 0.5},
	scene.ClassSegment:     {Fill: "none", Stroke: "#1c7ed6", StrokeWidth: 3},
	scene.ClassDistance:    {Fill: textColor, Stroke: haloColor, StrokeWidth: 3},
	scene.ClassOrigin:      {Fill: "#2b8a3e", Stroke: "#ffffff", StrokeWidth: 2},
	scene.ClassDestination: {Fill: "#c92a2a", Stroke: "#ffffff", StrokeWidth: 2},
	scene.ClassCity:        {Fill: "#495057", Stroke: "#ffffff", StrokeWidth: 0.8},
}

func styleFor(s scene.Shape) style {
	st, ok := styles[s.Class]
	if !ok {
		st = style{Fill: "none", Stroke: textColor, StrokeWidth: 1}
	}
	if s.Highlight {
		st.Fill = highlightColor
	}
	return st
}

// showLabel reports whether a city name is drawn next to its dot. Only
// highlighted cities are named to keep the map readable.
func showLabel(s scene.Shape) bool {
	return s.Kind == scene.KindCircle && s.Highlight && s.Text != ""
}
