package geo

import (
	"fmt"

	"github.com/paulmach/orb"
)

// GraticuleLine is a meridian or parallel sampled along its length.
type GraticuleLine struct {
	Key    string // "lon:-100" or "lat:40"
	Points orb.LineString
}

// GraticuleRegion is where the grid layer is drawn: the lower 48 only, the
// insets would get meaningless lines.
var GraticuleRegion = orb.Bound{
	Min: orb.Point{-125, 25},
	Max: orb.Point{-65, 50},
}

// GenerateGraticule creates meridians and parallels every step degrees
// across b, each sampled every sample degrees.
func GenerateGraticule(b orb.Bound, step, sample float64) []GraticuleLine {
	if step <= 0 || sample <= 0 {
		return nil
	}

	var lines []GraticuleLine
	for lon := b.Min.Lon(); lon <= b.Max.Lon(); lon += step {
		var ls orb.LineString
		for lat := b.Min.Lat(); lat < b.Max.Lat(); lat += sample {
			ls = append(ls, orb.Point{lon, lat})
		}
		ls = append(ls, orb.Point{lon, b.Max.Lat()})
		lines = append(lines, GraticuleLine{Key: fmt.Sprintf("lon:%g", lon), Points: ls})
	}
	for lat := b.Min.Lat(); lat <= b.Max.Lat(); lat += step {
		var ls orb.LineString
		for lon := b.Min.Lon(); lon < b.Max.Lon(); lon += sample {
			ls = append(ls, orb.Point{lon, lat})
		}
		ls = append(ls, orb.Point{b.Max.Lon(), lat})
		lines = append(lines, GraticuleLine{Key: fmt.Sprintf("lat:%g", lat), Points: ls})
	}
	return lines
}

// ProjectPath projects a sequence of points, starting a new run wherever a
// point fails to project.
func (p Projection) ProjectPath(pts []orb.Point) [][]Point {
	var runs [][]Point
	var cur []Point
	for _, pt := range pts {
		sp, ok := p.Project(pt)
		if !ok {
			if len(cur) > 1 {
				runs = append(runs, cur)
			}
			cur = nil
			continue
		}
		cur = append(cur, sp)
	}
	if len(cur) > 1 {
		runs = append(runs, cur)
	}
	return runs
}
