package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/paulmach/orb"
)

// DefaultNominatimURL is the public OSM search endpoint.
const DefaultNominatimURL = "https://nominatim.openstreetmap.org/search"

// ErrNotFound is returned when the geocoder has no match for a query.
var ErrNotFound = errors.New("place not found")

type nominatimResult struct {
	BoundingBox []string `json:"boundingbox"` // [minLat, maxLat, minLng, maxLng]
	DisplayName string   `json:"display_name"`
}

// Geocoder resolves place names with the OSM Nominatim API.
type Geocoder struct {
	http      *http.Client
	endpoint  string
	userAgent string
}

// NewGeocoder uses hc for requests; nil gets a client with a 10s timeout.
// An empty endpoint selects DefaultNominatimURL.
func NewGeocoder(hc *http.Client, endpoint string) *Geocoder {
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	if endpoint == "" {
		endpoint = DefaultNominatimURL
	}
	return &Geocoder{
		http:      hc,
		endpoint:  endpoint,
		userAgent: "routeview/0.1 (fallback coordinate table)",
	}
}

// Locate returns the center of the bounding box of the first US match for
// query, such as "Boise, ID".
func (g *Geocoder) Locate(ctx context.Context, query string) (orb.Point, error) {
	b, err := g.Bound(ctx, query)
	if err != nil {
		return orb.Point{}, err
	}
	return b.Center(), nil
}

// Bound returns the bounding box of the first US match for query.
func (g *Geocoder) Bound(ctx context.Context, query string) (orb.Bound, error) {
	u := g.endpoint + "?" + url.Values{
		"q":            {query},
		"format":       {"json"},
		"limit":        {"1"},
		"countrycodes": {"us"},
	}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return orb.Bound{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.http.Do(req)
	if err != nil {
		return orb.Bound{}, fmt.Errorf("geocoding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return orb.Bound{}, fmt.Errorf("geocoding returned status %d", resp.StatusCode)
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return orb.Bound{}, fmt.Errorf("decoding geocoding response: %w", err)
	}
	if len(results) == 0 {
		return orb.Bound{}, fmt.Errorf("%q: %w", query, ErrNotFound)
	}

	bb := results[0].BoundingBox
	if len(bb) < 4 {
		return orb.Bound{}, fmt.Errorf("invalid bounding box from geocoder")
	}

	var vals [4]float64
	for i := range vals {
		v, err := strconv.ParseFloat(bb[i], 64)
		if err != nil {
			return orb.Bound{}, fmt.Errorf("bounding box value %q: %w", bb[i], err)
		}
		vals[i] = v
	}
	minLat, maxLat, minLng, maxLng := vals[0], vals[1], vals[2], vals[3]
	if !ValidCoordinate(minLat, minLng) || !ValidCoordinate(maxLat, maxLng) {
		return orb.Bound{}, fmt.Errorf("bounding box out of range for %q", query)
	}

	return orb.Bound{Min: orb.Point{minLng, minLat}, Max: orb.Point{maxLng, maxLat}}, nil
}
