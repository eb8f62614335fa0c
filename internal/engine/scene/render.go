package scene

// City dot sizes in screen units.
const (
	cityRadius = 3.0
	markerSize = 7.0
)

// RenderBaseMap projects every boundary feature into the map layer, one
// shape per feature keyed by feature id. No-op until polygons are set.
func (m *Map) RenderBaseMap() {
	if m.polygons == nil {
		return
	}
	features := m.polygons.Features()
	shapes := make([]Shape, 0, len(features))
	for _, f := range features {
		s := Shape{Key: f.ID, Kind: KindPath, Class: ClassState, Closed: true, Text: f.Name}
		for _, poly := range f.Geometry {
			for _, ring := range poly {
				s.Paths = append(s.Paths, m.proj.ProjectPath(ring)...)
			}
		}
		if len(s.Paths) == 0 {
			continue
		}
		shapes = append(shapes, s)
	}
	m.layers[LayerMap].Reconcile(shapes)
}

// RenderGrid projects the graticule into the grid layer.
func (m *Map) RenderGrid() {
	shapes := make([]Shape, 0, len(m.graticule))
	for _, line := range m.graticule {
		runs := m.proj.ProjectPath(line.Points)
		if len(runs) == 0 {
			continue
		}
		shapes = append(shapes, Shape{Key: line.Key, Kind: KindPath, Class: ClassGraticule, Paths: runs})
	}
	m.layers[LayerGrid].Reconcile(shapes)
}

// RenderCities places a dot per catalog city keyed by id. Cities that do not
// project are left out. No-op until the catalog is set.
func (m *Map) RenderCities() {
	if m.cities == nil || m.coords == nil {
		return
	}
	shapes := make([]Shape, 0, len(m.cities))
	for _, c := range m.cities {
		p, ok := m.coords.Lookup(c.ID)
		if !ok {
			continue
		}
		sp, ok := m.proj.Project(p)
		if !ok {
			continue
		}
		shapes = append(shapes, Shape{
			Key:    c.ID,
			Kind:   KindCircle,
			Class:  ClassCity,
			At:     sp,
			Radius: cityRadius,
			Text:   c.Name,
		})
	}
	m.layers[LayerCities].Reconcile(shapes)
}

// HighlightCity toggles the emphasis of a city dot. Reports whether the city
// is on the map.
func (m *Map) HighlightCity(id string, on bool) bool {
	return m.layers[LayerCities].SetHighlight(id, on)
}
