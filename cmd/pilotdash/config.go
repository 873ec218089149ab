package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/pilotdash"
	logp "github.com/charmbracelet/log"
	"golang.org/x/exp/slices"
)

type Config struct {
	VehicleURL   string        `env:"VEHICLE_URL,notEmpty"`
	Address      string        `env:"LISTEN"               envDefault:":8089"`
	PollInterval time.Duration `env:"POLL_INTERVAL"        envDefault:"1s"`
	Retries      uint64        `env:"RETRIES"              envDefault:"5"`
	MapType      string        `env:"MAP_TYPE"             envDefault:"satellite"`
	DBPath       string        `env:"DB_PATH"              envDefault:"./db"`
	LogLevel     string        `env:"LOG_LEVEL"            envDefault:"info"`
	Channel      bool          `env:"CHANNEL"              envDefault:"true"`
}

func (c Config) validate() error {
	var errs []string
	if !slices.Contains(pilotdash.MapTypes, pilotdash.MapType(c.MapType)) {
		errs = append(errs, fmt.Sprintf("invalid MAP_TYPE %q, must be one of %v", c.MapType, pilotdash.MapTypes))
	}
	if c.PollInterval <= 0 {
		errs = append(errs, fmt.Sprintf("invalid POLL_INTERVAL %s, must be positive", c.PollInterval))
	}
	if _, err := logp.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Sprintf("invalid LOG_LEVEL %q", c.LogLevel))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "\n"))
	}
	return nil
}

func (c Config) level() logp.Level {
	level, err := logp.ParseLevel(c.LogLevel)
	if err != nil {
		return logp.InfoLevel
	}
	return level
}

func (c Config) poller(name string) pilotdash.Poller {
	p := pilotdash.NewPoller(name)
	p.Interval = c.PollInterval
	p.Retry = pilotdash.BoundedRetry(c.Retries)
	p.OnError = func(error) {
		pollErrorCounter.WithLabelValues(name).Inc()
	}
	return p
}
