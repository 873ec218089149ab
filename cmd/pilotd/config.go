package main

import (
	"github.com/caarlos0/pilotdash/vehicle"
	logp "github.com/charmbracelet/log"
)

type Config struct {
	Address     string   `env:"LISTEN"        envDefault:":8080"`
	Brokers     []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092"`
	GroupID     string   `env:"KAFKA_GROUP"   envDefault:"pilotd"`
	StatusTopic string   `env:"STATUS_TOPIC"  envDefault:"basic_status"`
	GPSTopic    string   `env:"GPS_TOPIC"     envDefault:"gpsraw"`
	ModeTopic   string   `env:"MODE_TOPIC"    envDefault:"set_mode"`
	DatabaseURL string   `env:"DATABASE_URL"`
	TrackSize   int      `env:"TRACK_SIZE"    envDefault:"1000"`
	LogLevel    string   `env:"LOG_LEVEL"     envDefault:"info"`
}

func (c Config) bridge() vehicle.BridgeConfig {
	return vehicle.BridgeConfig{
		Brokers:     c.Brokers,
		GroupID:     c.GroupID,
		StatusTopic: c.StatusTopic,
		GPSTopic:    c.GPSTopic,
		ModeTopic:   c.ModeTopic,
	}
}

func (c Config) level() logp.Level {
	level, err := logp.ParseLevel(c.LogLevel)
	if err != nil {
		log.Warn("invalid log level, using info", "level", c.LogLevel)
		return logp.InfoLevel
	}
	return level
}
