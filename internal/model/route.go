package model

import (
	"fmt"
	"strings"
)

// City is one entry of the backend city catalog.
type City struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	State string   `json:"state"`
	Lat   *float64 `json:"lat,omitempty"`
	Lon   *float64 `json:"lon,omitempty"`
}

// Label returns "Name, ST" or just the name when the state is unknown.
func (c City) Label() string {
	if c.State == "" {
		return c.Name
	}
	return c.Name + ", " + c.State
}

// CatalogResponse is the body of GET /cities.
type CatalogResponse struct {
	Cities []City `json:"cities"`
}

// RouteSegment is one leg of a route, in travel order.
type RouteSegment struct {
	SrcID    string  `json:"src_id"`
	DstID    string  `json:"dst_id"`
	RealDist float64 `json:"real_dist"`
	SrcName  string  `json:"src_name,omitempty"`
	DstName  string  `json:"dst_name,omitempty"`
}

// RouteResult is the body of GET /route.
type RouteResult struct {
	OK             bool           `json:"ok"`
	SrcID          string         `json:"src_id"`
	DstID          string         `json:"dst_id"`
	SrcName        string         `json:"src_name,omitempty"`
	DstName        string         `json:"dst_name,omitempty"`
	Algorithm      string         `json:"algorithm,omitempty"`
	AlgorithmLabel string         `json:"algorithm_label,omitempty"`
	TotalDistance  float64        `json:"total_distance"`
	GasUsed        float64        `json:"gas_used"`
	TotalRisk      float64        `json:"total_risk"`
	BestTravelDate string         `json:"best_travel_date,omitempty"`
	Score          float64        `json:"score,omitempty"`
	RouteIDs       []string       `json:"route_ids,omitempty"`
	RouteNames     []string       `json:"route_names,omitempty"`
	Message        string         `json:"message,omitempty"`
	Segments       []RouteSegment `json:"segments"`
}

// Title returns the "Src → Dst" header for the result.
func (r *RouteResult) Title() string {
	src, dst := r.SrcName, r.DstName
	if src == "" {
		src = r.SrcID
	}
	if dst == "" {
		dst = r.DstID
	}
	return src + " → " + dst
}

// Algorithm tokens understood by the routing backend.
const (
	AlgBest     = "BEST"
	AlgBFS      = "BFS"
	AlgDFS      = "DFS"
	AlgPrim     = "PRIM"
	AlgKruskal  = "KRUSKAL"
	AlgBellman  = "BELLMAN"
	DefaultAlgo = AlgBest
)

// Algorithms lists the selectable tokens in menu order.
var Algorithms = []string{AlgBest, AlgBFS, AlgDFS, AlgPrim, AlgKruskal, AlgBellman}

// NormalizeAlgorithm upper-cases alg and maps the empty string to the default.
func NormalizeAlgorithm(alg string) (string, error) {
	alg = strings.ToUpper(strings.TrimSpace(alg))
	if alg == "" {
		return DefaultAlgo, nil
	}
	for _, a := range Algorithms {
		if a == alg {
			return alg, nil
		}
	}
	return "", fmt.Errorf("unknown algorithm %q", alg)
}

// RouteQuery holds the parameters of one route request.
type RouteQuery struct {
	Src string
	Dst string
	Alg string
}

func (q RouteQuery) Validate() error {
	if strings.TrimSpace(q.Src) == "" || strings.TrimSpace(q.Dst) == "" {
		return fmt.Errorf("source and destination are required")
	}
	return nil
}
