package main

import (
	"context"

	"github.com/caarlos0/pilotdash"
	"github.com/caarlos0/pilotdash/vehicle"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var messageCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace:   "pilotd",
	Subsystem:   "bus",
	Name:        "messages_total",
	Help:        "",
	ConstLabels: map[string]string{},
}, []string{"kind"})

var commandCounter = promauto.NewCounter(prometheus.CounterOpts{
	Namespace:   "pilotd",
	Subsystem:   "bus",
	Name:        "commands_total",
	Help:        "",
	ConstLabels: map[string]string{},
})

var commandErrorCounter = promauto.NewCounter(prometheus.CounterOpts{
	Namespace:   "pilotd",
	Subsystem:   "bus",
	Name:        "command_errors_total",
	Help:        "",
	ConstLabels: map[string]string{},
})

var armedGauge = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace:   "pilotd",
	Subsystem:   "vehicle",
	Name:        "armed",
	Help:        "",
	ConstLabels: map[string]string{},
})

func registerClientsGauge(hub *vehicle.Hub) {
	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace:   "pilotd",
		Subsystem:   "socket",
		Name:        "clients",
		Help:        "",
		ConstLabels: map[string]string{},
	}, func() float64 {
		return float64(hub.Len())
	})
}

type instrumentedController struct {
	vehicle.FlightController
}

func (c instrumentedController) SetMode(ctx context.Context, armed bool) error {
	commandCounter.Inc()
	err := c.FlightController.SetMode(ctx, armed)
	if err != nil {
		commandErrorCounter.Inc()
	}
	return err
}

type instrumentedSink struct {
	vehicle.Sink
}

func (s instrumentedSink) UpdateStatus(ctx context.Context, status pilotdash.Status) {
	messageCounter.WithLabelValues("status").Inc()
	armedGauge.Set(boolAs[float64](status.Armed))
	s.Sink.UpdateStatus(ctx, status)
}

func (s instrumentedSink) UpdatePosition(ctx context.Context, pos pilotdash.Position) {
	messageCounter.WithLabelValues("gps").Inc()
	s.Sink.UpdatePosition(ctx, pos)
}

func boolAs[T int | float64](b bool) T {
	if b {
		return 1
	}
	return 0
}
