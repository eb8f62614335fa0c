package geocode

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/paulmach/orb"

	"github.com/rendis/routeview/internal/engine/geo"
	"github.com/rendis/routeview/internal/model"
)

type fakeLocator struct {
	points  map[string]orb.Point
	fail    bool
	queries []string
}

func (f *fakeLocator) Locate(_ context.Context, q string) (orb.Point, error) {
	f.queries = append(f.queries, q)
	if f.fail {
		return orb.Point{}, fmt.Errorf("connection refused")
	}
	p, ok := f.points[q]
	if !ok {
		return orb.Point{}, fmt.Errorf("%q: %w", q, geo.ErrNotFound)
	}
	return p, nil
}

func fp(v float64) *float64 { return &v }

func TestMissing(t *testing.T) {
	cities := []model.City{
		{ID: "NYC", Name: "New York", State: "NY"},
		{ID: "FAR", Name: "Fargo", State: "ND"},
		{ID: "SRV", Name: "Server", Lat: fp(40), Lon: fp(-100)},
		{ID: "FAR", Name: "Fargo", State: "ND"},
		{ID: "XYZ", Name: "Nowhere"},
	}
	got := Missing(cities, geo.NewResolver(nil))
	if len(got) != 2 || got[0].ID != "FAR" || got[1].ID != "XYZ" {
		t.Errorf("Missing = %+v, want FAR and XYZ", got)
	}
}

func TestRun(t *testing.T) {
	loc := &fakeLocator{points: map[string]orb.Point{
		"Fargo, ND": {-96.8, 46.9},
		"Nowhere":   {-100, 40},
	}}
	cities := []model.City{
		{ID: "FAR", Name: "Fargo", State: "ND"},
		{ID: "UNK", Name: "Atlantis", State: "ZZ"},
		{ID: "XYZ", Name: "Nowhere"},
	}

	var streamed []string
	rows, stats, err := Run(context.Background(), cities, loc, &Options{
		OnRow: func(r geo.FallbackRow) { streamed = append(streamed, r.ID) },
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(rows) != 2 || rows[0].ID != "FAR" || rows[1].Point != (orb.Point{-100, 40}) {
		t.Errorf("rows = %+v", rows)
	}
	if len(streamed) != 2 {
		t.Errorf("OnRow called %d times, want 2", len(streamed))
	}
	if stats.Total != 3 || stats.Done.Load() != 3 || stats.Found.Load() != 2 || stats.NotFound.Load() != 1 {
		t.Errorf("stats total=%d done=%d found=%d not_found=%d",
			stats.Total, stats.Done.Load(), stats.Found.Load(), stats.NotFound.Load())
	}
	if loc.queries[0] != "Fargo, ND" || loc.queries[2] != "Nowhere" {
		t.Errorf("queries = %v", loc.queries)
	}
}

func TestRunAbortsOnRepeatedFailures(t *testing.T) {
	loc := &fakeLocator{fail: true}
	var cities []model.City
	for i := range 10 {
		cities = append(cities, model.City{ID: fmt.Sprint(i), Name: "C"})
	}

	_, stats, err := Run(context.Background(), cities, loc, &Options{MaxErrors: 3})
	if !errors.Is(err, ErrTooManyFailures) {
		t.Fatalf("err = %v, want ErrTooManyFailures", err)
	}
	if stats.Errors.Load() != 3 {
		t.Errorf("errors = %d, want 3", stats.Errors.Load())
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	loc := &fakeLocator{}
	_, _, err := Run(ctx, []model.City{{ID: "A", Name: "A"}}, loc, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if len(loc.queries) != 0 {
		t.Error("locator called after cancellation")
	}
}
