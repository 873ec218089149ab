package main

import (
	"testing"

	"github.com/caarlos0/env/v11"
	"github.com/caarlos0/pilotdash/vehicle"
	logp "github.com/charmbracelet/log"
	"github.com/stretchr/testify/require"
)

func TestConfig(t *testing.T) {
	var cfg Config
	require.NoError(t, env.ParseWithOptions(&cfg, env.Options{
		Environment: map[string]string{
			"KAFKA_BROKERS": "k1:9092,k2:9092",
			"LOG_LEVEL":     "debug",
		},
	}))

	require.Equal(t, ":8080", cfg.Address)
	require.Equal(t, 1000, cfg.TrackSize)
	require.Empty(t, cfg.DatabaseURL)
	require.Equal(t, logp.DebugLevel, cfg.level())
	require.Equal(t, vehicle.BridgeConfig{
		Brokers:     []string{"k1:9092", "k2:9092"},
		GroupID:     "pilotd",
		StatusTopic: "basic_status",
		GPSTopic:    "gpsraw",
		ModeTopic:   "set_mode",
	}, cfg.bridge())

	cfg.LogLevel = "loud"
	require.Equal(t, logp.InfoLevel, cfg.level())
}
