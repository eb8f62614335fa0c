package scene

import "github.com/rendis/routeview/internal/engine/geo"

// LayerID names one of the four scene layers. The numeric order is the
// drawing order, bottom first.
type LayerID int

const (
	LayerMap LayerID = iota
	LayerGrid
	LayerRoute
	LayerCities
	layerCount
)

func (id LayerID) String() string {
	switch id {
	case LayerMap:
		return "map"
	case LayerGrid:
		return "grid"
	case LayerRoute:
		return "route"
	case LayerCities:
		return "cities"
	default:
		return "unknown"
	}
}

// Kind is the geometry of a shape.
type Kind int

const (
	KindPath   Kind = iota // Paths, closed when Closed is set
	KindLine               // From -> To
	KindCircle             // At with Radius
	KindLabel              // Text at At, drawn with a halo when Halo is set
	KindMarker             // origin or destination pin at At
)

// Shape classes used by the encoders for styling.
const (
	ClassState       = "state"
	ClassGraticule   = "graticule"
	ClassSegment     = "segment"
	ClassDistance    = "distance"
	ClassOrigin      = "origin"
	ClassDestination = "destination"
	ClassCity        = "city"
)

// Shape is one keyed element of a layer, in projected screen coordinates
// before the view transform.
type Shape struct {
	Key    string
	Kind   Kind
	Class  string
	Paths  [][]geo.Point
	Closed bool
	From   geo.Point
	To     geo.Point
	At     geo.Point
	Radius float64
	Text   string
	Halo   bool

	// Highlight is interaction state. Reconcile keeps it across updates.
	Highlight bool
}

// Layer is an ordered, keyed collection of shapes.
type Layer struct {
	id     LayerID
	shapes []Shape
	index  map[string]int
}

func newLayer(id LayerID) *Layer {
	return &Layer{id: id, index: make(map[string]int)}
}

func (l *Layer) ID() LayerID { return l.id }

// Shapes returns the shapes in drawing order. The slice must not be modified.
func (l *Layer) Shapes() []Shape { return l.shapes }

func (l *Layer) Len() int { return len(l.shapes) }

// Lookup returns the shape stored under key.
func (l *Layer) Lookup(key string) (Shape, bool) {
	i, ok := l.index[key]
	if !ok {
		return Shape{}, false
	}
	return l.shapes[i], true
}

// Reconcile makes the layer hold exactly next, in next's order. Keys already
// present are updated in place and keep their interaction state; keys not in
// next are removed. With duplicate keys in next the last one wins.
func (l *Layer) Reconcile(next []Shape) (added, updated, removed int) {
	shapes := make([]Shape, 0, len(next))
	index := make(map[string]int, len(next))

	for _, s := range next {
		if i, dup := index[s.Key]; dup {
			s.Highlight = shapes[i].Highlight
			shapes[i] = s
			continue
		}
		if i, ok := l.index[s.Key]; ok {
			s.Highlight = l.shapes[i].Highlight
			updated++
		} else {
			added++
		}
		index[s.Key] = len(shapes)
		shapes = append(shapes, s)
	}
	for key := range l.index {
		if _, ok := index[key]; !ok {
			removed++
		}
	}

	l.shapes, l.index = shapes, index
	return added, updated, removed
}

// Replace swaps the whole content for shapes, dropping all previous state.
func (l *Layer) Replace(shapes []Shape) {
	index := make(map[string]int, len(shapes))
	kept := make([]Shape, 0, len(shapes))
	for _, s := range shapes {
		if i, dup := index[s.Key]; dup {
			kept[i] = s
			continue
		}
		index[s.Key] = len(kept)
		kept = append(kept, s)
	}
	l.shapes, l.index = kept, index
}

// Clear removes every shape.
func (l *Layer) Clear() {
	l.Replace(nil)
}

// SetHighlight toggles the highlight of key. Reports whether key exists.
func (l *Layer) SetHighlight(key string, on bool) bool {
	i, ok := l.index[key]
	if !ok {
		return false
	}
	l.shapes[i].Highlight = on
	return true
}

// ClearHighlights turns off every highlight in the layer.
func (l *Layer) ClearHighlights() {
	for i := range l.shapes {
		l.shapes[i].Highlight = false
	}
}
