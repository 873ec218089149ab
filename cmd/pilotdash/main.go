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

	"github.com/brutella/hap"
	"github.com/brutella/hap/accessory"
	"github.com/caarlos0/env/v11"
	"github.com/caarlos0/pilotdash"
	logp "github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var log = logp.NewWithOptions(os.Stderr, logp.Options{
	ReportTimestamp: true,
	TimeFormat:      time.Kitchen,
	Prefix:          "dashboard",
})

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const manufacturer = "pilotdash"

func main() {
	log.Info(
		"pilotdash",
		"version", version,
		"commit", commit,
		"date", date,
		"info", "Ground station dashboard for arming and tracking a vehicle",
	)

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		log.Fatal(
			"could not parse env",
			"err",
			strings.TrimPrefix(strings.ReplaceAll(err.Error(), "; ", "\n"), "env: ")+"\n",
		)
	}
	if err := cfg.validate(); err != nil {
		log.Fatal("invalid config", "err", err.Error()+"\n")
	}
	log.SetLevel(cfg.level())
	pilotdash.SetLogLevel(cfg.level())

	cli, err := pilotdash.New(cfg.VehicleURL)
	if err != nil {
		log.Fatal("could not init vehicle client", "err", err)
	}
	res := instrumented{status: cli, position: cli}

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

	scope := pilotdash.NewScope()
	sdk := &pageSDK{}
	dash := &dashboard{
		scope:    scope,
		status:   pilotdash.NewStatusView(scope, res, cfg.poller("status")),
		position: pilotdash.NewPositionView(scope, res, cfg.poller("position"), sdk, pilotdash.MapType(cfg.MapType)),
		sdk:      sdk,
	}

	if cfg.Channel {
		dialCtx, dialCancel := context.WithTimeout(ctx, 10*time.Second)
		ch, err := pilotdash.Dial(dialCtx, cli.SocketURL(), scope)
		dialCancel()
		if err != nil {
			log.Warn("running without channel", "err", err)
		} else {
			dash.subscribe(ch)
			defer func() {
				if err := ch.Close(); err != nil {
					log.Error("could not close channel", "err", err)
				}
			}()
			go func() {
				<-ch.Done()
				if ctx.Err() == nil {
					log.Error("channel disconnected", "err", ch.Err())
				}
			}()
		}
	}

	macAddr, err := pilotdash.MacAddress(cli.Host())
	if err != nil {
		log.Warn(
			"could not get the mac address, needs 'cap_net_raw+ep' capabilities",
			"err", err,
		)
	}
	log.Info("vehicle", "url", cfg.VehicleURL, "mac", macAddr)

	bridge := accessory.NewBridge(accessory.Info{
		Name:         "Pilot Bridge",
		Manufacturer: manufacturer,
		Firmware:     version,
	})
	armSwitch := newArmSwitch(accessory.Info{
		Name:         "Armed",
		SerialNumber: macAddr,
		Manufacturer: manufacturer,
		Firmware:     version,
	}, dash.status)
	armSwitch.Id = 2

	scope.Watch(func() {
		digestCounter.Inc()
		armSwitch.Update()
		if status, known := dash.status.Status(); known {
			armedGauge.Set(boolAs[float64](status.Armed))
		}
		if pos, ok := dash.position.Position(); ok {
			latitudeGauge.Set(pos.Latitude)
			longitudeGauge.Set(pos.Longitude)
		}
	})

	go runView(ctx, "status", dash.status.Run)
	go runView(ctx, "position", dash.position.Run)

	fs := hap.NewFsStore(cfg.DBPath)
	server, err := hap.NewServer(fs, bridge.A, armSwitch.A)
	if err != nil {
		log.Fatal("fail to create server", "error", err)
	}
	server.Addr = cfg.Address
	server.ServeMux().Handle("/metrics", promhttp.Handler())
	dash.routes(server.ServeMux())

	log.Info("starting server", "addr", server.Addr)
	if err := server.ListenAndServe(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("failed to close server", "err", err)
	}
}

// runView runs a poll loop. When it gives up the view keeps showing the last
// known state.
func runView(ctx context.Context, name string, run func(ctx context.Context) error) {
	log.Info("polling", "view", name)
	if err := run(ctx); err != nil && ctx.Err() == nil {
		log.Error("stopped polling", "view", name, "err", err)
	}
}

func boolAs[T int | float64](b bool) T {
	if b {
		return 1
	}
	return 0
}
