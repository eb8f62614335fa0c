package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rendis/routeview/internal/config"
	"github.com/rendis/routeview/internal/logger"
	"github.com/rendis/routeview/internal/tui"
	"github.com/rendis/routeview/internal/tui/views"
)

func main() {
	var args []string
	if len(os.Args) > 1 {
		args = os.Args[1:]
	}
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		var run func([]string) error
		switch args[0] {
		case "render":
			run = runRender
		case "serve":
			run = runServe
		case "coords":
			run = runCoords
		case "version":
			fmt.Println("routeview " + views.Version)
			return
		case "help", "--help", "-h":
			printUsage()
			return
		default:
			fmt.Fprintf(os.Stderr, "unknown command %q\n\n", args[0])
			printUsage()
			os.Exit(2)
		}
		if err := run(args[1:]); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// No subcommand → launch TUI
	if err := runTUI(args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `routeview - US route map viewer

Usage:
  routeview [flags]         Launch interactive TUI
  routeview render [flags]  Draw the map (and a route) to SVG or PNG
  routeview serve [flags]   Serve map images over HTTP
  routeview coords [flags]  Geocode catalog cities missing coordinates
  routeview version         Show version

Run 'routeview <command> --help' for flags.
`)
}

func runTUI(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	fs := flag.NewFlagSet("routeview", flag.ExitOnError)
	cfg.RegisterFlags(fs)
	fs.StringVar(&cfg.Algorithm, "alg", cfg.Algorithm, "Default routing algorithm")
	fs.StringVar(&cfg.LogFile, "log", cfg.LogFile, "Log file (default: user cache dir)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// The TUI owns the terminal, so logs go to a file.
	f, err := logger.OpenFile(cfg.LogFile)
	if err != nil {
		return err
	}
	defer f.Close()
	log := logger.Setup(f)

	client, err := cfg.Client()
	if err != nil {
		return err
	}
	opts, err := cfg.SessionOptions()
	if err != nil {
		return err
	}
	opts.Logger = log
	log.Info("tui_start", "api", cfg.API, "topology", cfg.Topology, "alg", cfg.Algorithm)

	ctx, cancel := signalContext()
	defer cancel()
	return tui.Run(ctx, client, opts, cfg.Algorithm)
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			fmt.Fprintln(os.Stderr, "\nShutting down gracefully...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}
