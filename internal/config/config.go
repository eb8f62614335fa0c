// Package config gathers settings from defaults, a .env file, environment
// variables and command-line flags, in increasing priority.
package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/paulmach/orb"

	"github.com/rendis/routeview/internal/engine/backend"
	"github.com/rendis/routeview/internal/engine/geo"
	"github.com/rendis/routeview/internal/engine/scene"
	"github.com/rendis/routeview/internal/engine/session"
	"github.com/rendis/routeview/internal/model"
)

type Config struct {
	API            string
	Topology       string
	TopologyObject string
	Fallback       string // extra id,lat,lon CSV
	Algorithm      string
	Width          float64
	Height         float64
	Padding        float64
	RetryDelay     time.Duration
	RetryAttempts  int
	Timeout        time.Duration
	Addr           string
	LogFile        string
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		API:            "http://localhost:8000",
		Topology:       backend.DefaultTopologyURL,
		TopologyObject: geo.DefaultTopologyObject,
		Algorithm:      model.DefaultAlgo,
		Width:          960,
		Height:         600,
		Padding:        scene.DefaultPadding,
		RetryDelay:     session.DefaultRetryDelay,
		RetryAttempts:  session.DefaultRetryAttempts,
		Timeout:        15 * time.Second,
		Addr:           ":8080",
	}
}

// Load reads .env files, when present, then the environment over the
// defaults. Variables already set in the process win over .env values.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return Config{}, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	c := Default()
	var err error
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *float64) {
		if v, ok := os.LookupEnv(key); ok && v != "" && err == nil {
			*dst, err = strconv.ParseFloat(v, 64)
			if err != nil {
				err = fmt.Errorf("%s: %w", key, err)
			}
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, ok := os.LookupEnv(key); ok && v != "" && err == nil {
			*dst, err = time.ParseDuration(v)
			if err != nil {
				err = fmt.Errorf("%s: %w", key, err)
			}
		}
	}

	str("ROUTEVIEW_API", &c.API)
	str("ROUTEVIEW_TOPOLOGY", &c.Topology)
	str("ROUTEVIEW_TOPOLOGY_OBJECT", &c.TopologyObject)
	str("ROUTEVIEW_FALLBACK", &c.Fallback)
	str("ROUTEVIEW_ALG", &c.Algorithm)
	str("ROUTEVIEW_ADDR", &c.Addr)
	str("LOG_FILE", &c.LogFile)
	num("ROUTEVIEW_WIDTH", &c.Width)
	num("ROUTEVIEW_HEIGHT", &c.Height)
	num("ROUTEVIEW_PADDING", &c.Padding)
	dur("ROUTEVIEW_RETRY_DELAY", &c.RetryDelay)
	dur("ROUTEVIEW_TIMEOUT", &c.Timeout)
	if v, ok := os.LookupEnv("ROUTEVIEW_RETRY_ATTEMPTS"); ok && v != "" && err == nil {
		c.RetryAttempts, err = strconv.Atoi(v)
		if err != nil {
			err = fmt.Errorf("ROUTEVIEW_RETRY_ATTEMPTS: %w", err)
		}
	}
	if err != nil {
		return Config{}, err
	}
	return c, c.Validate()
}

// RegisterFlags binds the shared flags to fs. Call Validate after parsing.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.API, "api", c.API, "Routing backend base URL")
	fs.StringVar(&c.Topology, "topology", c.Topology, "Base map URL or local TopoJSON/GeoJSON/.shp path")
	fs.StringVar(&c.TopologyObject, "object", c.TopologyObject, "TopoJSON object holding the boundaries")
	fs.StringVar(&c.Fallback, "fallback", c.Fallback, "Extra fallback coordinate CSV (id,lat,lon)")
	fs.DurationVar(&c.Timeout, "timeout", c.Timeout, "HTTP request timeout")
}

// RegisterViewFlags binds the image size flags used by the headless
// encoders.
func (c *Config) RegisterViewFlags(fs *flag.FlagSet) {
	fs.Float64Var(&c.Width, "width", c.Width, "Image width")
	fs.Float64Var(&c.Height, "height", c.Height, "Image height")
	fs.Float64Var(&c.Padding, "padding", c.Padding, "Fit padding")
}

func (c Config) Validate() error {
	if c.API == "" {
		return fmt.Errorf("API url is required")
	}
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("invalid size %gx%g", c.Width, c.Height)
	}
	if c.Padding < 0 || 2*c.Padding >= c.Width || 2*c.Padding >= c.Height {
		return fmt.Errorf("padding %g does not fit %gx%g", c.Padding, c.Width, c.Height)
	}
	if c.RetryAttempts < 1 {
		return fmt.Errorf("retry attempts must be at least 1, got %d", c.RetryAttempts)
	}
	if c.RetryDelay <= 0 {
		return fmt.Errorf("retry delay must be positive, got %v", c.RetryDelay)
	}
	if _, err := model.NormalizeAlgorithm(c.Algorithm); err != nil {
		return err
	}
	return nil
}

// Viewport returns the configured image size.
func (c Config) Viewport() geo.Viewport {
	return geo.Viewport{Width: c.Width, Height: c.Height}
}

// SessionOptions turns the config into session options, loading the extra
// fallback table when one is set.
func (c Config) SessionOptions() (session.Options, error) {
	var extra map[string]orb.Point
	if c.Fallback != "" {
		var err error
		if extra, err = geo.LoadFallbackFile(c.Fallback); err != nil {
			return session.Options{}, err
		}
	}
	return session.Options{
		Topology:       c.Topology,
		TopologyObject: c.TopologyObject,
		Resolver:       geo.NewResolver(extra),
		RetryDelay:     c.RetryDelay,
		RetryAttempts:  c.RetryAttempts,
	}, nil
}

// Client builds the backend client.
func (c Config) Client() (*backend.Client, error) {
	return backend.NewClient(c.API, c.Timeout)
}
