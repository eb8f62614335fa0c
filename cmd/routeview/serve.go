package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rendis/routeview/internal/config"
	"github.com/rendis/routeview/internal/engine/session"
	"github.com/rendis/routeview/internal/logger"
	"github.com/rendis/routeview/internal/server"
)

func runServe(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	var origins string

	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cfg.RegisterFlags(fs)
	cfg.RegisterViewFlags(fs)
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "Listen address")
	fs.StringVar(&cfg.Algorithm, "alg", cfg.Algorithm, "Default routing algorithm")
	fs.StringVar(&origins, "origins", os.Getenv("ROUTEVIEW_ORIGINS"), "Comma-separated CORS origins (default: *)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: routeview serve [flags]\n\nFlags:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEndpoints:\n")
		fmt.Fprintf(os.Stderr, "  GET /healthz\n  GET /cities\n  GET /map.svg?src=NYC&dst=DEN&alg=BEST&width=960&height=600&zoom=1\n  GET /map.png?...\n")
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
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

	data, err := session.Load(ctx, client, opts)
	if err != nil {
		return err
	}

	var allowed []string
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			allowed = append(allowed, o)
		}
	}
	srv := server.New(client, data, server.Options{
		Viewport:       cfg.Viewport(),
		Padding:        cfg.Padding,
		Algorithm:      cfg.Algorithm,
		AllowedOrigins: allowed,
		Session:        opts,
		Logger:         log,
	})

	hs := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("server_listening", "addr", cfg.Addr)
		errCh <- hs.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := hs.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	log.Info("server_stopped")
	return nil
}
