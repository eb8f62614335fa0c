package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"

	"github.com/rendis/routeview/internal/config"
	"github.com/rendis/routeview/internal/engine/geo"
	"github.com/rendis/routeview/internal/engine/geocode"
	"github.com/rendis/routeview/internal/logger"
	"github.com/rendis/routeview/internal/tui/views"
)

func runCoords(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	var out, endpoint string
	var delay time.Duration
	var plain bool

	fs := flag.NewFlagSet("coords", flag.ExitOnError)
	cfg.RegisterFlags(fs)
	fs.StringVar(&out, "out", "fallback_extra.csv", "Output CSV (use with -fallback later)")
	fs.StringVar(&endpoint, "nominatim", geo.DefaultNominatimURL, "Nominatim search endpoint")
	fs.DurationVar(&delay, "delay", time.Second, "Delay between geocoding requests")
	fs.BoolVar(&plain, "plain", false, "Print log lines instead of the progress screen")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: routeview coords [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Looks up catalog cities that have neither server nor fallback\ncoordinates and writes them as a fallback CSV.\n\nFlags:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  routeview coords -out extra.csv\n")
		fmt.Fprintf(os.Stderr, "  routeview -fallback extra.csv\n")
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if delay < 0 {
		return fmt.Errorf("-delay must not be negative")
	}

	interactive := !plain && isatty.IsTerminal(os.Stdout.Fd())
	logOut := os.Stderr
	if interactive {
		f, err := logger.OpenFile(cfg.LogFile)
		if err != nil {
			return err
		}
		defer f.Close()
		logOut = f
	}
	log := logger.Setup(logOut)

	client, err := cfg.Client()
	if err != nil {
		return err
	}
	opts, err := cfg.SessionOptions()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	start := time.Now()
	cities, err := client.Cities(ctx)
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}
	missing := geocode.Missing(cities, opts.Resolver)
	if len(missing) == 0 {
		fmt.Fprintf(os.Stderr, "All %d cities already have coordinates.\n", len(cities))
		return nil
	}
	fmt.Fprintf(os.Stderr, "Geocoding %d of %d cities\n", len(missing), len(cities))

	gc := geo.NewGeocoder(client.HTTPClient(), endpoint)

	// The job may outlive the progress screen after ctrl+c, so rows are
	// collected under a lock.
	var mu sync.Mutex
	var found []geo.FallbackRow
	stats := &geocode.Stats{Total: len(missing)}
	job := func(ctx context.Context, s *geocode.Stats) error {
		_, _, err := geocode.Run(ctx, missing, gc, &geocode.Options{
			Delay:  delay,
			Stats:  s,
			Logger: log,
			OnRow: func(r geo.FallbackRow) {
				mu.Lock()
				found = append(found, r)
				mu.Unlock()
			},
		})
		return err
	}

	if interactive {
		pm := views.NewProgressModel("Geocoding missing cities", len(missing), job)
		stats = pm.Stats()
		final, err := tea.NewProgram(pm, tea.WithContext(ctx)).Run()
		if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			return err
		}
		if done, ok := final.(views.ProgressModel); ok {
			if err := done.Err(); err != nil && !errors.Is(err, context.Canceled) {
				fmt.Fprintf(os.Stderr, "warning: %v\n", err)
			}
		}
	} else if err := job(ctx, stats); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}

	mu.Lock()
	rows := append([]geo.FallbackRow(nil), found...)
	mu.Unlock()

	if len(rows) > 0 {
		sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("creating output: %w", err)
		}
		if err := geo.WriteFallbackCSV(f, rows); err != nil {
			f.Close()
			return fmt.Errorf("writing %s: %w", out, err)
		}
		if err := f.Close(); err != nil {
			return err
		}
	}

	// Print final summary
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "══════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Geocoding complete\n")
	fmt.Fprintf(os.Stderr, "══════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Missing:    %d\n", len(missing))
	fmt.Fprintf(os.Stderr, "  Found:      %d\n", len(rows))
	fmt.Fprintf(os.Stderr, "  Not found:  %d\n", stats.NotFound.Load())
	fmt.Fprintf(os.Stderr, "  Errors:     %d\n", stats.Errors.Load())
	if len(rows) > 0 {
		fmt.Fprintf(os.Stderr, "  Output:     %s\n", out)
	} else {
		fmt.Fprintf(os.Stderr, "  Output:     (nothing written)\n")
	}
	fmt.Fprintf(os.Stderr, "  Duration:   %s\n", time.Since(start).Truncate(time.Second))
	fmt.Fprintf(os.Stderr, "══════════════════════════════\n")
	return nil
}
