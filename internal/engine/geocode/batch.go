// Package geocode fills gaps in the fallback coordinate table by looking up
// catalog cities that would otherwise get placeholder coordinates.
package geocode

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/paulmach/orb"

	"github.com/rendis/routeview/internal/engine/geo"
	"github.com/rendis/routeview/internal/model"
)

// Locator resolves a free-text place query to a point.
type Locator interface {
	Locate(ctx context.Context, query string) (orb.Point, error)
}

// Stats counts a batch. Total is fixed before the batch starts; the counters
// may be read while it runs.
type Stats struct {
	Total    int
	Done     atomic.Int64
	Found    atomic.Int64
	NotFound atomic.Int64
	Errors   atomic.Int64
}

// Options provides optional knobs for Run.
type Options struct {
	// Delay between requests. Nominatim allows one request per second.
	Delay time.Duration
	// OnRow is called for every city that was located.
	OnRow func(geo.FallbackRow)
	// Stats allows the caller to watch progress. If nil, Run creates its own.
	Stats *Stats
	// MaxErrors aborts the batch after that many consecutive failures. Zero
	// means 5.
	MaxErrors int
	Logger    *slog.Logger
}

// ErrTooManyFailures is returned when the geocoder keeps failing.
var ErrTooManyFailures = errors.New("too many consecutive geocoding failures")

// Missing returns the cities that resolve only to placeholders with the
// given resolver.
func Missing(cities []model.City, r geo.Resolver) []model.City {
	ix := r.Resolve(cities)
	var out []model.City
	seen := make(map[string]bool)
	for _, c := range cities {
		if seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		if ix.Source(c.ID) == geo.SourceSynthetic {
			out = append(out, c)
		}
	}
	return out
}

// Run geocodes cities one at a time, sleeping opts.Delay between requests.
// Rows found before a cancellation or abort are still returned.
func Run(ctx context.Context, cities []model.City, loc Locator, opts *Options) ([]geo.FallbackRow, *Stats, error) {
	if opts == nil {
		opts = &Options{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxErrors := opts.MaxErrors
	if maxErrors <= 0 {
		maxErrors = 5
	}

	stats := opts.Stats
	if stats == nil {
		stats = &Stats{}
	}
	if stats.Total == 0 {
		stats.Total = len(cities)
	}

	var rows []geo.FallbackRow
	consecutive := 0
	startTime := time.Now()

	for i, c := range cities {
		if i > 0 && opts.Delay > 0 {
			timer := time.NewTimer(opts.Delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return rows, stats, ctx.Err()
			case <-timer.C:
			}
		}
		if err := ctx.Err(); err != nil {
			return rows, stats, err
		}

		p, err := loc.Locate(ctx, c.Label())
		stats.Done.Add(1)
		switch {
		case errors.Is(err, geo.ErrNotFound):
			stats.NotFound.Add(1)
			consecutive = 0
			logger.Warn("geocode_not_found", "id", c.ID, "name", c.Label())
			continue
		case err != nil:
			stats.Errors.Add(1)
			consecutive++
			logger.Error("geocode_failed", "id", c.ID, "error", err)
			if consecutive >= maxErrors {
				return rows, stats, ErrTooManyFailures
			}
			continue
		}
		consecutive = 0

		row := geo.FallbackRow{ID: c.ID, Name: c.Name, State: c.State, Point: p}
		rows = append(rows, row)
		stats.Found.Add(1)
		if opts.OnRow != nil {
			opts.OnRow(row)
		}
		logger.Debug("geocode_found", "id", c.ID, "lat", p.Lat(), "lon", p.Lon())
	}

	logger.Info("geocode_done",
		"total", stats.Total,
		"found", stats.Found.Load(),
		"not_found", stats.NotFound.Load(),
		"errors", stats.Errors.Load(),
		"elapsed", time.Since(startTime).Truncate(time.Second))
	return rows, stats, nil
}
