package geo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/paulmach/orb"
)

func TestGeocoderLocate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "" {
			t.Error("request without User-Agent")
		}
		switch r.URL.Query().Get("q") {
		case "Boise, ID":
			w.Write([]byte(`[{"boundingbox":["43","44","-117","-116"],"display_name":"Boise"}]`))
		case "Nowhere":
			w.Write([]byte(`[]`))
		case "Broken":
			w.Write([]byte(`[{"boundingbox":["43"]}]`))
		default:
			http.Error(w, "busy", http.StatusServiceUnavailable)
		}
	}))
	defer srv.Close()

	g := NewGeocoder(srv.Client(), srv.URL)
	ctx := context.Background()

	p, err := g.Locate(ctx, "Boise, ID")
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if p != (orb.Point{-116.5, 43.5}) {
		t.Errorf("Locate = %v, want [-116.5 43.5]", p)
	}

	if _, err := g.Locate(ctx, "Nowhere"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if _, err := g.Locate(ctx, "Broken"); err == nil {
		t.Error("expected error for short bounding box")
	}
	if _, err := g.Locate(ctx, "Other"); err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want status error", err)
	}
}
