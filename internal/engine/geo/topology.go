package geo

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// DefaultTopologyObject is the object holding state outlines in us-atlas.
const DefaultTopologyObject = "states"

type topology struct {
	Type      string                     `json:"type"`
	Transform *topoTransform             `json:"transform"`
	Objects   map[string]json.RawMessage `json:"objects"`
	Arcs      [][][]float64              `json:"arcs"`
}

type topoTransform struct {
	Scale     [2]float64 `json:"scale"`
	Translate [2]float64 `json:"translate"`
}

type topoGeometry struct {
	Type       string          `json:"type"`
	ID         any             `json:"id"`
	Properties map[string]any  `json:"properties"`
	Arcs       json.RawMessage `json:"arcs"`
	Geometries []topoGeometry  `json:"geometries"`
}

// ParseTopology converts the polygons of one TopoJSON object into a GeoJSON
// feature collection. An empty object name selects the only object, or
// "states" when there are several.
func ParseTopology(data []byte, object string) (*geojson.FeatureCollection, error) {
	var topo topology
	if err := json.Unmarshal(data, &topo); err != nil {
		return nil, fmt.Errorf("parsing topology: %w", err)
	}
	if topo.Type != "Topology" {
		return nil, fmt.Errorf("unexpected document type %q", topo.Type)
	}

	raw, name, err := pickObject(topo.Objects, object)
	if err != nil {
		return nil, err
	}

	var root topoGeometry
	if err := json.Unmarshal(raw, &root); err != nil {
		return nil, fmt.Errorf("parsing object %q: %w", name, err)
	}

	arcs := decodeArcs(topo.Arcs, topo.Transform)
	fc := geojson.NewFeatureCollection()
	if err := collectFeatures(fc, root, arcs); err != nil {
		return nil, fmt.Errorf("object %q: %w", name, err)
	}
	return fc, nil
}

func pickObject(objects map[string]json.RawMessage, object string) (json.RawMessage, string, error) {
	if object != "" {
		raw, ok := objects[object]
		if !ok {
			return nil, "", fmt.Errorf("topology has no object %q", object)
		}
		return raw, object, nil
	}
	if len(objects) == 1 {
		for name, raw := range objects {
			return raw, name, nil
		}
	}
	if raw, ok := objects[DefaultTopologyObject]; ok {
		return raw, DefaultTopologyObject, nil
	}
	names := make([]string, 0, len(objects))
	for name := range objects {
		names = append(names, name)
	}
	sort.Strings(names)
	return nil, "", fmt.Errorf("topology object must be chosen from %v", names)
}

// decodeArcs applies the quantization transform. Quantized arcs store
// deltas from the previous position.
func decodeArcs(raw [][][]float64, t *topoTransform) [][]orb.Point {
	arcs := make([][]orb.Point, len(raw))
	for i, arc := range raw {
		pts := make([]orb.Point, 0, len(arc))
		var x, y float64
		for _, pos := range arc {
			if len(pos) < 2 {
				continue
			}
			if t == nil {
				pts = append(pts, orb.Point{pos[0], pos[1]})
				continue
			}
			x += pos[0]
			y += pos[1]
			pts = append(pts, orb.Point{
				x*t.Scale[0] + t.Translate[0],
				y*t.Scale[1] + t.Translate[1],
			})
		}
		arcs[i] = pts
	}
	return arcs
}

func collectFeatures(fc *geojson.FeatureCollection, g topoGeometry, arcs [][]orb.Point) error {
	var geom orb.Geometry
	switch g.Type {
	case "GeometryCollection":
		for _, child := range g.Geometries {
			if err := collectFeatures(fc, child, arcs); err != nil {
				return err
			}
		}
		return nil
	case "Polygon":
		var idx [][]int
		if err := json.Unmarshal(g.Arcs, &idx); err != nil {
			return fmt.Errorf("polygon arcs: %w", err)
		}
		poly, err := buildPolygon(idx, arcs)
		if err != nil {
			return err
		}
		geom = poly
	case "MultiPolygon":
		var idx [][][]int
		if err := json.Unmarshal(g.Arcs, &idx); err != nil {
			return fmt.Errorf("multipolygon arcs: %w", err)
		}
		mp := make(orb.MultiPolygon, 0, len(idx))
		for _, p := range idx {
			poly, err := buildPolygon(p, arcs)
			if err != nil {
				return err
			}
			mp = append(mp, poly)
		}
		geom = mp
	default:
		// Points and lines carry nothing for a boundary map.
		return nil
	}

	f := geojson.NewFeature(geom)
	if id := formatID(g.ID); id != "" {
		f.ID = id
	}
	for k, v := range g.Properties {
		f.Properties[k] = v
	}
	fc.Append(f)
	return nil
}

func buildPolygon(rings [][]int, arcs [][]orb.Point) (orb.Polygon, error) {
	poly := make(orb.Polygon, 0, len(rings))
	for _, r := range rings {
		ring, err := stitchRing(r, arcs)
		if err != nil {
			return nil, err
		}
		if len(ring) >= 4 {
			poly = append(poly, ring)
		}
	}
	return poly, nil
}

// stitchRing joins arcs end to start. A negative index ~i walks arc i
// backwards.
func stitchRing(indices []int, arcs [][]orb.Point) (orb.Ring, error) {
	var ring orb.Ring
	for _, i := range indices {
		reverse := i < 0
		if reverse {
			i = ^i
		}
		if i >= len(arcs) {
			return nil, fmt.Errorf("arc index %d out of range (%d arcs)", i, len(arcs))
		}
		arc := arcs[i]
		for j := range arc {
			k := j
			if reverse {
				k = len(arc) - 1 - j
			}
			if j == 0 && len(ring) > 0 {
				continue
			}
			ring = append(ring, arc[k])
		}
	}
	if len(ring) > 0 && !ring.Closed() {
		ring = append(ring, ring[0])
	}
	return ring, nil
}

func formatID(id any) string {
	switch v := id.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// ParseBaseMap accepts either a TopoJSON topology or a GeoJSON feature
// collection.
func ParseBaseMap(data []byte, object string) (*geojson.FeatureCollection, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("parsing map document: %w", err)
	}
	switch head.Type {
	case "Topology":
		return ParseTopology(data, object)
	case "FeatureCollection":
		fc, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			return nil, fmt.Errorf("parsing geojson: %w", err)
		}
		return fc, nil
	default:
		return nil, fmt.Errorf("unsupported map document type %q", head.Type)
	}
}
