package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/caarlos0/pilotdash/vehicle"
	"github.com/cenkalti/backoff/v4"
	logp "github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var log = logp.NewWithOptions(os.Stderr, logp.Options{
	ReportTimestamp: true,
	TimeFormat:      time.Kitchen,
	Prefix:          "pilotd",
})

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	log.Info(
		"pilotd",
		"version", version,
		"commit", commit,
		"date", date,
		"info", "Vehicle daemon serving status, position and the real-time channel",
	)

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		log.Fatal(
			"could not parse env",
			"err",
			strings.TrimPrefix(strings.ReplaceAll(err.Error(), "; ", "\n"), "env: ")+"\n",
		)
	}
	log.SetLevel(cfg.level())
	vehicle.SetLogLevel(cfg.level())

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	signal.Notify(c, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-c
		log.Info("stopping server")
		signal.Stop(c)
		cancel()
	}()

	track, err := openTrack(ctx, cfg)
	if err != nil {
		log.Fatal("could not open track history", "err", err)
	}
	defer func() {
		if err := track.Close(); err != nil {
			log.Error("could not close track history", "err", err)
		}
	}()

	bridge := vehicle.NewBridge(cfg.bridge())
	defer func() {
		if err := bridge.Close(); err != nil {
			log.Error("could not close bridge", "err", err)
		}
	}()

	hub := vehicle.NewHub()
	defer hub.Close()
	registerClientsGauge(hub)

	srv := vehicle.NewServer(&vehicle.State{}, hub, instrumentedController{bridge}, track)

	go runBridge(ctx, bridge, instrumentedSink{srv})

	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	r.Mount("/", srv.Routes())

	server := &http.Server{
		Addr:              cfg.Address,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("could not shutdown server", "err", err)
		}
	}()

	log.Info("starting server", "addr", server.Addr, "brokers", cfg.Brokers)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("failed to close server", "err", err)
	}
}

func openTrack(ctx context.Context, cfg Config) (vehicle.TrackStore, error) {
	if cfg.DatabaseURL == "" {
		log.Info("keeping track history in memory", "size", cfg.TrackSize)
		return vehicle.NewMemoryTrack(cfg.TrackSize), nil
	}
	log.Info("keeping track history in postgres")
	return vehicle.NewPostgresTrack(ctx, cfg.DatabaseURL)
}

// runBridge keeps consuming the flight controller topics until ctx is done.
func runBridge(ctx context.Context, bridge *vehicle.Bridge, sink vehicle.Sink) {
	bo := backoff.NewExponentialBackOff()
	bo.MaxInterval = 30 * time.Second
	bo.MaxElapsedTime = 0
	if err := backoff.RetryNotify(
		func() error {
			err := bridge.Run(ctx, sink)
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return err
		},
		backoff.WithContext(bo, ctx),
		func(err error, d time.Duration) {
			log.Warn("bridge failed, retrying", "err", err, "in", d)
		},
	); err != nil && ctx.Err() == nil {
		log.Error("bridge stopped", "err", err)
	}
}
