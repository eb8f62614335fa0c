// Package server exposes the map as images over HTTP. Every request draws
// on a fresh scene.Map built from the shared, read-only dataset.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/rendis/routeview/internal/engine/backend"
	"github.com/rendis/routeview/internal/engine/geo"
	"github.com/rendis/routeview/internal/engine/render"
	"github.com/rendis/routeview/internal/engine/scene"
	"github.com/rendis/routeview/internal/engine/session"
	"github.com/rendis/routeview/internal/model"
)

const (
	maxImageSide = 4096
	routeTimeout = 30 * time.Second
)

// Options configures the image defaults of the server.
type Options struct {
	Viewport       geo.Viewport
	Padding        float64
	Algorithm      string
	AllowedOrigins []string
	Session        session.Options
	Logger         *slog.Logger
}

type Server struct {
	backend session.Backend
	data    *session.Dataset
	opts    Options
	log     *slog.Logger
}

func New(b session.Backend, data *session.Dataset, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	return &Server{backend: b, data: data, opts: opts, log: opts.Logger}
}

// Routes returns the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Get("/cities", s.cities)
	r.Get("/map.svg", s.mapImage(formatSVG))
	r.Get("/map.png", s.mapImage(formatPNG))
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Info("http_request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"request_id", middleware.GetReqID(r.Context()),
			"elapsed", time.Since(start).Round(time.Millisecond))
	})
}

type cityJSON struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	State  string  `json:"state,omitempty"`
	Region string  `json:"region,omitempty"`
	Lon    float64 `json:"lon"`
	Lat    float64 `json:"lat"`
	Source string  `json:"source"`
}

// cities lists the catalog with the coordinate each city is drawn at and
// the base map feature holding it.
func (s *Server) cities(w http.ResponseWriter, r *http.Request) {
	out := make([]cityJSON, 0, len(s.data.Cities))
	for _, c := range s.data.Cities {
		p, ok := s.data.Coords.Lookup(c.ID)
		if !ok {
			continue
		}
		cj := cityJSON{
			ID: c.ID, Name: c.Name, State: c.State,
			Lon: p.Lon(), Lat: p.Lat(),
			Source: s.data.Coords.Source(c.ID).String(),
		}
		if f, ok := s.data.Polygons.Containing(p); ok {
			cj.Region = f.Name
		}
		out = append(out, cj)
	}
	writeJSON(w, http.StatusOK, map[string]any{"cities": out})
}

type format int

const (
	formatSVG format = iota
	formatPNG
)

// mapImage draws the map, with a route when src and dst are given.
// Query parameters: src, dst, alg, width, height, zoom.
func (s *Server) mapImage(f format) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		vp, err := s.viewport(q.Get("width"), q.Get("height"))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		zoom := 1.0
		if v := q.Get("zoom"); v != "" {
			if zoom, err = strconv.ParseFloat(v, 64); err != nil || zoom <= 0 {
				writeError(w, http.StatusBadRequest, "invalid zoom")
				return
			}
		}

		m := scene.NewMap(vp, s.opts.Padding)
		sess := session.New(s.backend, m, s.opts.Session)
		sess.Install(s.data)

		src, dst := q.Get("src"), q.Get("dst")
		if src != "" || dst != "" {
			alg := q.Get("alg")
			if alg == "" {
				alg = s.opts.Algorithm
			}
			alg, err := model.NormalizeAlgorithm(alg)
			if err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			rq := model.RouteQuery{Src: src, Dst: dst, Alg: alg}
			if err := rq.Validate(); err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			ctx, cancel := context.WithTimeout(r.Context(), routeTimeout)
			defer cancel()
			if _, err := sess.Route(ctx, rq); err != nil {
				s.routeError(w, err)
				return
			}
		}
		if zoom != 1 {
			c := vp.Center()
			m.ZoomAt(zoom, c.X, c.Y)
		}

		switch f {
		case formatPNG:
			w.Header().Set("Content-Type", "image/png")
			if err := render.WritePNG(w, m); err != nil {
				s.log.Error("png_encode_failed", "error", err)
			}
		default:
			w.Header().Set("Content-Type", "image/svg+xml")
			if err := render.WriteSVG(w, m); err != nil {
				s.log.Error("svg_encode_failed", "error", err)
			}
		}
	}
}

func (s *Server) viewport(width, height string) (geo.Viewport, error) {
	vp := s.opts.Viewport
	for _, p := range []struct {
		raw string
		dst *float64
	}{{width, &vp.Width}, {height, &vp.Height}} {
		if p.raw == "" {
			continue
		}
		v, err := strconv.Atoi(p.raw)
		if err != nil || v <= 0 || v > maxImageSide {
			return geo.Viewport{}, fmt.Errorf("image size must be 1..%d", maxImageSide)
		}
		*p.dst = float64(v)
	}
	if 2*s.opts.Padding >= vp.Width || 2*s.opts.Padding >= vp.Height {
		return geo.Viewport{}, fmt.Errorf("image too small for padding %g", s.opts.Padding)
	}
	return vp, nil
}

func (s *Server) routeError(w http.ResponseWriter, err error) {
	var re *session.RouteError
	var se *backend.StatusError
	switch {
	case errors.As(err, &re):
		writeError(w, http.StatusNotFound, re.Error())
	case errors.As(err, &se) && se.StatusCode >= 400 && se.StatusCode < 500:
		writeError(w, http.StatusBadRequest, se.Error())
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "routing backend timed out")
	default:
		writeError(w, http.StatusBadGateway, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
