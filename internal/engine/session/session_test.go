package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rendis/routeview/internal/engine/backend"
	"github.com/rendis/routeview/internal/engine/geo"
	"github.com/rendis/routeview/internal/engine/scene"
	"github.com/rendis/routeview/internal/model"
)

const (
	catalogJSON = `{"cities":[
		{"id":"NYC","name":"New York","state":"NY"},
		{"id":"CHI","name":"Chicago","state":"IL","lat":41.88,"lon":-87.63},
		{"id":"LAX","name":"Los Angeles","state":"CA"},
		{"id":"QQQ","name":"Placeholder","state":"ZZ"}]}`

	topologyJSON = `{"type":"Topology","objects":{"states":{"type":"GeometryCollection","geometries":[
		{"type":"Polygon","id":"08","properties":{"name":"Colorado"},"arcs":[[0]]}]}},
		"arcs":[[[-109,37],[-102,37],[-102,41],[-109,41],[-109,37]]]}`

	routeJSON = `{"ok":true,"src_id":"NYC","dst_id":"LAX","total_distance":2789.5,"segments":[
		{"src_id":"NYC","dst_id":"CHI","real_dist":790.1},
		{"src_id":"CHI","dst_id":"LAX","real_dist":1999.4}]}`
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func testServer(t *testing.T, citiesStatus int) *backend.Client {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/cities", func(w http.ResponseWriter, r *http.Request) {
		if citiesStatus != http.StatusOK {
			http.Error(w, "catalog down", citiesStatus)
			return
		}
		io.WriteString(w, catalogJSON)
	})
	mux.HandleFunc("/states.json", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, topologyJSON)
	})
	mux.HandleFunc("/route", func(w http.ResponseWriter, r *http.Request) {
		if q := r.URL.Query(); q.Get("src") == q.Get("dst") {
			io.WriteString(w, `{"ok":true,"src_id":"`+q.Get("src")+`","dst_id":"`+q.Get("dst")+`","total_distance":0,"segments":[]}`)
			return
		}
		if r.URL.Query().Get("dst") == "NOPE" {
			io.WriteString(w, `{"ok":false,"message":"no path"}`)
			return
		}
		io.WriteString(w, routeJSON)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c, err := backend.NewClient(srv.URL, time.Second,
		backend.WithHTTPClient(srv.Client()),
		backend.WithRetry(1, time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func newSession(t *testing.T, c *backend.Client, opts Options) *Session {
	t.Helper()
	opts.Topology = c.URL("states.json")
	opts.Logger = quiet
	return New(c, scene.NewMap(geo.Viewport{Width: 960, Height: 600}, scene.DefaultPadding), opts)
}

func loadAndInstall(t *testing.T, s *Session) {
	t.Helper()
	d, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	s.Install(d)
}

func TestLoadAndInstall(t *testing.T) {
	s := newSession(t, testServer(t, http.StatusOK), Options{})
	if s.Ready() {
		t.Fatal("ready before install")
	}
	loadAndInstall(t, s)
	if !s.Ready() {
		t.Fatal("not ready after install")
	}

	m := s.Map()
	if m.Layer(scene.LayerMap).Len() != 1 {
		t.Errorf("map shapes = %d, want 1", m.Layer(scene.LayerMap).Len())
	}
	if m.Layer(scene.LayerCities).Len() != 4 {
		t.Errorf("city shapes = %d, want 4", m.Layer(scene.LayerCities).Len())
	}
	ix := s.Dataset().Coords
	if ix.Source("NYC") != geo.SourceFallback || ix.Source("CHI") != geo.SourceServer || ix.Source("QQQ") != geo.SourceSynthetic {
		t.Errorf("sources NYC=%v CHI=%v QQQ=%v", ix.Source("NYC"), ix.Source("CHI"), ix.Source("QQQ"))
	}
}

func TestLoadFailsWhenCatalogFails(t *testing.T) {
	s := newSession(t, testServer(t, http.StatusInternalServerError), Options{})
	d, err := s.Load(context.Background())
	if err == nil {
		t.Fatal("Load succeeded with catalog down")
	}
	var se *backend.StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusInternalServerError {
		t.Errorf("err = %v, want wrapped StatusError", err)
	}
	if d != nil || s.Ready() {
		t.Error("partial data installed")
	}
}

func TestEarlyRequestIsDeferred(t *testing.T) {
	c := testServer(t, http.StatusOK)
	s := newSession(t, c, Options{RetryDelay: time.Millisecond, RetryAttempts: 5})

	plan := s.Schedule(0)
	if plan.Decision != Defer || plan.Delay != time.Millisecond {
		t.Fatalf("plan before ready = %+v, want defer", plan)
	}

	loadAndInstall(t, s)
	mapShapes := s.Map().Layer(scene.LayerMap).Len()

	plan = s.Schedule(1)
	if plan.Decision != Fetch {
		t.Fatalf("plan after ready = %+v, want fetch", plan)
	}
	q := model.RouteQuery{Src: "NYC", Dst: "LAX"}
	res, err := s.Fetch(context.Background(), q)
	if err := s.Apply(plan.Ticket, res, err); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	m := s.Map()
	if got := m.Layer(scene.LayerMap).Len(); got != mapShapes {
		t.Errorf("map shapes %d -> %d after route", mapShapes, got)
	}
	if len(m.CurrentRoute()) != 2 {
		t.Errorf("current route = %d segments", len(m.CurrentRoute()))
	}
	if _, ok := m.Layer(scene.LayerRoute).Lookup(scene.DestinationKey); !ok {
		t.Error("destination marker missing")
	}
}

func TestScheduleGivesUp(t *testing.T) {
	s := newSession(t, testServer(t, http.StatusOK), Options{RetryDelay: time.Millisecond, RetryAttempts: 2})
	_, err := s.Route(context.Background(), model.RouteQuery{Src: "NYC", Dst: "LAX"})
	if !errors.Is(err, ErrNotReady) {
		t.Errorf("err = %v, want ErrNotReady", err)
	}
}

func TestStaleResponseIsDiscarded(t *testing.T) {
	s := newSession(t, testServer(t, http.StatusOK), Options{})
	loadAndInstall(t, s)

	first := s.Schedule(0)
	second := s.Schedule(0)
	if second.Ticket <= first.Ticket {
		t.Fatalf("tickets not increasing: %d, %d", first.Ticket, second.Ticket)
	}

	newer := &model.RouteResult{OK: true, SrcID: "CHI", DstID: "LAX",
		Segments: []model.RouteSegment{{SrcID: "CHI", DstID: "LAX", RealDist: 1999.4}}}
	older := &model.RouteResult{OK: true, SrcID: "NYC", DstID: "CHI",
		Segments: []model.RouteSegment{{SrcID: "NYC", DstID: "CHI", RealDist: 790.1}}}

	if err := s.Apply(second.Ticket, newer, nil); err != nil {
		t.Fatalf("Apply newer: %v", err)
	}
	if err := s.Apply(first.Ticket, older, nil); !errors.Is(err, ErrStale) {
		t.Fatalf("Apply older = %v, want ErrStale", err)
	}
	if s.Last() != newer {
		t.Error("stale response replaced the newer result")
	}
	if got := s.Map().CurrentRoute()[0].SrcID; got != "CHI" {
		t.Errorf("route starts at %s, want CHI", got)
	}
}

func TestFailedRequestLeavesMapUntouched(t *testing.T) {
	s := newSession(t, testServer(t, http.StatusOK), Options{})
	loadAndInstall(t, s)
	ctx := context.Background()

	if _, err := s.Route(ctx, model.RouteQuery{Src: "NYC", Dst: "LAX"}); err != nil {
		t.Fatalf("Route: %v", err)
	}
	m := s.Map()
	before := append([]scene.Shape(nil), m.Layer(scene.LayerRoute).Shapes()...)
	proj := m.Projection()
	last := s.Last()

	_, err := s.Route(ctx, model.RouteQuery{Src: "NYC", Dst: "NOPE"})
	var re *RouteError
	if !errors.As(err, &re) || re.Message != "no path" {
		t.Fatalf("err = %v, want RouteError(no path)", err)
	}

	plan := s.Schedule(0)
	if err := s.Apply(plan.Ticket, nil, errors.New("connection reset")); err == nil {
		t.Fatal("Apply swallowed a fetch error")
	}

	after := m.Layer(scene.LayerRoute).Shapes()
	if len(after) != len(before) {
		t.Fatalf("route layer %d -> %d shapes", len(before), len(after))
	}
	for i := range before {
		if before[i].Key != after[i].Key || before[i].At != after[i].At {
			t.Errorf("shape %d changed: %+v -> %+v", i, before[i], after[i])
		}
	}
	if m.Projection() != proj {
		t.Error("projection changed by failed request")
	}
	if s.Last() != last {
		t.Error("last result replaced by failed request")
	}
}

func TestEmptyRouteKeepsDefaultView(t *testing.T) {
	c := testServer(t, http.StatusOK)
	s := New(c, scene.NewMap(geo.Viewport{Width: 300, Height: 100}, scene.DefaultPadding),
		Options{Topology: c.URL("states.json"), Logger: quiet})
	loadAndInstall(t, s)
	ctx := context.Background()
	def := s.Map().Projection()

	if _, err := s.Route(ctx, model.RouteQuery{Src: "NYC", Dst: "LAX"}); err != nil {
		t.Fatalf("Route: %v", err)
	}
	res, err := s.Route(ctx, model.RouteQuery{Src: "CHI", Dst: "CHI"})
	if err != nil {
		t.Fatalf("Route CHI->CHI: %v", err)
	}
	if !res.OK || len(res.Segments) != 0 {
		t.Fatalf("result = %+v, want ok with no segments", res)
	}
	m := s.Map()
	if m.Layer(scene.LayerRoute).Len() != 0 {
		t.Error("previous route still drawn")
	}
	if m.Projection() != def {
		t.Errorf("projection = %+v, want the default region %+v", m.Projection(), def)
	}
}
