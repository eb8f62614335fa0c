package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rendis/routeview/internal/config"
	"github.com/rendis/routeview/internal/engine/render"
	"github.com/rendis/routeview/internal/engine/scene"
	"github.com/rendis/routeview/internal/engine/session"
	"github.com/rendis/routeview/internal/logger"
	"github.com/rendis/routeview/internal/model"
)

func runRender(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	var src, dst, out string
	var zoom float64

	fs := flag.NewFlagSet("render", flag.ExitOnError)
	cfg.RegisterFlags(fs)
	cfg.RegisterViewFlags(fs)
	fs.StringVar(&src, "src", "", "Origin city id")
	fs.StringVar(&dst, "dst", "", "Destination city id")
	fs.StringVar(&cfg.Algorithm, "alg", cfg.Algorithm, "Routing algorithm ("+strings.Join(model.Algorithms, ", ")+")")
	fs.StringVar(&out, "out", "map.svg", "Output file, .svg or .png ('-' writes SVG to stdout)")
	fs.Float64Var(&zoom, "zoom", 1, "Zoom about the image center (1-8)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: routeview render [flags]\n\nFlags:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  routeview render -out us.png -width 1920 -height 1200\n")
		fmt.Fprintf(os.Stderr, "  routeview render -src NYC -dst DEN -alg prim -out route.svg\n")
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	// Validation
	if err := cfg.Validate(); err != nil {
		return err
	}
	if (src == "") != (dst == "") {
		return fmt.Errorf("-src and -dst go together")
	}
	alg, err := model.NormalizeAlgorithm(cfg.Algorithm)
	if err != nil {
		return err
	}
	ext := strings.ToLower(filepath.Ext(out))
	if out != "-" && ext != ".svg" && ext != ".png" {
		return fmt.Errorf("-out must end in .svg or .png")
	}

	log := logger.Setup(os.Stderr)
	client, err := cfg.Client()
	if err != nil {
		return err
	}
	opts, err := cfg.SessionOptions()
	if err != nil {
		return err
	}
	opts.Logger = log

	ctx, cancel := signalContext()
	defer cancel()

	start := time.Now()
	data, err := session.Load(ctx, client, opts)
	if err != nil {
		return err
	}
	m := scene.NewMap(cfg.Viewport(), cfg.Padding)
	sess := session.New(client, m, opts)
	sess.Install(data)

	var res *model.RouteResult
	if src != "" {
		res, err = sess.Route(ctx, model.RouteQuery{Src: src, Dst: dst, Alg: alg})
		if err != nil {
			return err
		}
	}
	if zoom != 1 {
		c := cfg.Viewport().Center()
		m.ZoomAt(zoom, c.X, c.Y)
	}

	var w io.Writer = os.Stdout
	if out != "-" {
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("creating output: %w", err)
		}
		defer f.Close()
		w = f
	}
	if ext == ".png" {
		err = render.WritePNG(w, m)
	} else {
		err = render.WriteSVG(w, m)
	}
	if err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}

	// Print final summary
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "══════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Map rendered\n")
	fmt.Fprintf(os.Stderr, "══════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Cities:     %d\n", len(data.Cities))
	fmt.Fprintf(os.Stderr, "  States:     %d\n", data.Polygons.Len())
	if res != nil {
		fmt.Fprintf(os.Stderr, "  Route:      %s\n", res.Title())
		fmt.Fprintf(os.Stderr, "  Segments:   %d\n", len(res.Segments))
		fmt.Fprintf(os.Stderr, "  Distance:   %.1f mi\n", res.TotalDistance)
	}
	fmt.Fprintf(os.Stderr, "  Size:       %gx%g\n", cfg.Width, cfg.Height)
	fmt.Fprintf(os.Stderr, "  Output:     %s\n", out)
	fmt.Fprintf(os.Stderr, "  Duration:   %s\n", time.Since(start).Round(time.Millisecond))
	fmt.Fprintf(os.Stderr, "══════════════════════════════\n")
	return nil
}
