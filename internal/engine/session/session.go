// Package session drives a scene.Map from backend data: the concurrent
// initial load, the readiness gate for early route requests, and request
// sequencing so a slow response cannot replace a newer one.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rendis/routeview/internal/engine/geo"
	"github.com/rendis/routeview/internal/engine/scene"
	"github.com/rendis/routeview/internal/model"
)

// Defaults for the readiness retry.
const (
	DefaultRetryDelay    = 300 * time.Millisecond
	DefaultRetryAttempts = 20
)

var (
	// ErrNotReady is returned when a route request gives up waiting for the
	// catalog.
	ErrNotReady = errors.New("city catalog not loaded")
	// ErrStale is returned by Apply for a response older than the one on
	// screen. The caller should drop it silently.
	ErrStale = errors.New("stale route response")
)

// RouteError is a well-formed backend answer with ok:false.
type RouteError struct {
	Message string
}

func (e *RouteError) Error() string {
	if e.Message == "" {
		return "no route found"
	}
	return "no route found: " + e.Message
}

// Backend is the subset of the backend client the session needs.
type Backend interface {
	Cities(ctx context.Context) ([]model.City, error)
	Route(ctx context.Context, q model.RouteQuery) (*model.RouteResult, error)
	BaseMap(ctx context.Context, src, object string) (*geo.PolygonSet, error)
}

// Options configures loading and the readiness retry.
type Options struct {
	Topology       string
	TopologyObject string
	Resolver       geo.Resolver
	RetryDelay     time.Duration
	RetryAttempts  int
	Logger         *slog.Logger
}

func (o *Options) defaults() {
	if o.RetryDelay <= 0 {
		o.RetryDelay = DefaultRetryDelay
	}
	if o.RetryAttempts <= 0 {
		o.RetryAttempts = DefaultRetryAttempts
	}
	if o.Resolver.Fallback == nil {
		o.Resolver = geo.NewResolver(nil)
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// Dataset is everything loaded at start-up. It is immutable and can back
// any number of maps.
type Dataset struct {
	Cities   []model.City
	Polygons *geo.PolygonSet
	Coords   *geo.CoordinateIndex
}

// Load fetches the catalog and the base map concurrently and resolves city
// coordinates. Either fetch failing fails the load.
func Load(ctx context.Context, b Backend, opts Options) (*Dataset, error) {
	opts.defaults()
	start := time.Now()

	var (
		cities   []model.City
		polygons *geo.PolygonSet
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		cities, err = b.Cities(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		polygons, err = b.BaseMap(gctx, opts.Topology, opts.TopologyObject)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("loading map data: %w", err)
	}

	ix := opts.Resolver.Resolve(cities)
	var synthetic int
	ids := make([]string, 0, len(cities))
	for _, c := range cities {
		ids = append(ids, c.ID)
		if ix.Source(c.ID) == geo.SourceSynthetic {
			synthetic++
		}
	}
	if outside := polygons.Outside(ix, ids); len(outside) > 0 {
		opts.Logger.Warn("cities_outside_base_map", "count", len(outside), "ids", outside)
	}
	opts.Logger.Info("dataset_loaded",
		"cities", len(cities),
		"polygons", polygons.Len(),
		"synthetic", synthetic,
		"elapsed", time.Since(start).Round(time.Millisecond))

	return &Dataset{Cities: cities, Polygons: polygons, Coords: ix}, nil
}

// Session owns one Map and the route state shown on it. Like the Map it is
// confined to one goroutine; only Load and Fetch may run elsewhere.
type Session struct {
	backend Backend
	opts    Options
	m       *scene.Map

	ready  bool
	data   *Dataset
	ticket uint64 // last ticket handed out
	shown  uint64 // ticket of the result on screen
	last   *model.RouteResult
}

func New(b Backend, m *scene.Map, opts Options) *Session {
	opts.defaults()
	return &Session{backend: b, opts: opts, m: m}
}

func (s *Session) Map() *scene.Map { return s.m }

func (s *Session) Ready() bool { return s.ready }

func (s *Session) Dataset() *Dataset { return s.data }

// Last returns the route result on screen, or nil.
func (s *Session) Last() *model.RouteResult { return s.last }

// Load runs the package Load with the session's backend and options.
func (s *Session) Load(ctx context.Context) (*Dataset, error) {
	return Load(ctx, s.backend, s.opts)
}

// Install puts d on the map, fits the default region and marks the session
// ready for route requests.
func (s *Session) Install(d *Dataset) {
	s.data = d
	s.m.SetCatalog(d.Cities, d.Coords)
	s.m.SetPolygons(d.Polygons)
	s.m.FitDefault()
	s.ready = true
}

// Decision tells the caller what to do with a route request.
type Decision int

const (
	// Defer means wait Plan.Delay and call Schedule again.
	Defer Decision = iota
	// GiveUp means the catalog did not load in time.
	GiveUp
	// Fetch means issue the request and hand the result to Apply with
	// Plan.Ticket.
	Fetch
)

func (d Decision) String() string {
	switch d {
	case Defer:
		return "defer"
	case GiveUp:
		return "give-up"
	case Fetch:
		return "fetch"
	default:
		return "unknown"
	}
}

type Plan struct {
	Decision Decision
	Ticket   uint64
	Delay    time.Duration
}

// Schedule decides what to do with a route request on its attempt-th try,
// counting from zero.
func (s *Session) Schedule(attempt int) Plan {
	if !s.ready {
		if attempt >= s.opts.RetryAttempts {
			s.opts.Logger.Warn("route_give_up", "attempts", attempt)
			return Plan{Decision: GiveUp}
		}
		s.opts.Logger.Debug("route_deferred", "attempt", attempt)
		return Plan{Decision: Defer, Delay: s.opts.RetryDelay}
	}
	s.ticket++
	return Plan{Decision: Fetch, Ticket: s.ticket}
}

// Fetch performs the network part of a route request. It does not touch
// the session and may run on any goroutine.
func (s *Session) Fetch(ctx context.Context, q model.RouteQuery) (*model.RouteResult, error) {
	return s.backend.Route(ctx, q)
}

// Apply shows the outcome of the request with the given ticket. A response
// older than the one on screen returns ErrStale. A failed request or an
// ok:false answer returns an error and leaves the map untouched. Otherwise
// the route is drawn and the view refitted to it.
func (s *Session) Apply(ticket uint64, res *model.RouteResult, err error) error {
	log := s.opts.Logger
	if ticket <= s.shown {
		log.Debug("route_stale", "ticket", ticket, "shown", s.shown)
		return ErrStale
	}
	if err != nil {
		log.Error("route_failed", "ticket", ticket, "error", err)
		return err
	}
	if res == nil || !res.OK {
		var msg string
		if res != nil {
			msg = res.Message
		}
		log.Warn("route_not_found", "ticket", ticket, "message", msg)
		return &RouteError{Message: msg}
	}

	s.shown = ticket
	s.last = res
	drawn := s.m.DrawRoute(res.Segments)
	s.m.FitToRoute()
	log.Info("route_applied",
		"ticket", ticket,
		"src", res.SrcID,
		"dst", res.DstID,
		"segments", len(res.Segments),
		"drawn", drawn,
		"total_distance", res.TotalDistance)
	return nil
}

// Route runs a request to completion on the calling goroutine, waiting for
// readiness as Schedule directs.
func (s *Session) Route(ctx context.Context, q model.RouteQuery) (*model.RouteResult, error) {
	for attempt := 0; ; attempt++ {
		plan := s.Schedule(attempt)
		switch plan.Decision {
		case GiveUp:
			return nil, ErrNotReady
		case Defer:
			timer := time.NewTimer(plan.Delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
		case Fetch:
			res, err := s.Fetch(ctx, q)
			if err := s.Apply(plan.Ticket, res, err); err != nil {
				return res, err
			}
			return res, nil
		}
	}
}
