package main

import (
	"context"

	"github.com/caarlos0/pilotdash"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var armedGauge = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace:   "pilotdash",
	Subsystem:   "vehicle",
	Name:        "armed",
	Help:        "",
	ConstLabels: map[string]string{},
})

var latitudeGauge = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace:   "pilotdash",
	Subsystem:   "vehicle",
	Name:        "latitude",
	Help:        "",
	ConstLabels: map[string]string{},
})

var longitudeGauge = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace:   "pilotdash",
	Subsystem:   "vehicle",
	Name:        "longitude",
	Help:        "",
	ConstLabels: map[string]string{},
})

var requestCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace:   "pilotdash",
	Subsystem:   "client",
	Name:        "requests_total",
	Help:        "",
	ConstLabels: map[string]string{},
}, []string{"resource"})

var requestErrorCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace:   "pilotdash",
	Subsystem:   "client",
	Name:        "request_errors_total",
	Help:        "",
	ConstLabels: map[string]string{},
}, []string{"resource"})

var pollErrorCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace:   "pilotdash",
	Subsystem:   "poll",
	Name:        "errors_total",
	Help:        "",
	ConstLabels: map[string]string{},
}, []string{"poller"})

var digestCounter = promauto.NewCounter(prometheus.CounterOpts{
	Namespace:   "pilotdash",
	Subsystem:   "scope",
	Name:        "digests_total",
	Help:        "",
	ConstLabels: map[string]string{},
})

var channelEventCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace:   "pilotdash",
	Subsystem:   "channel",
	Name:        "events_total",
	Help:        "",
	ConstLabels: map[string]string{},
}, []string{"event"})

// instrumented counts requests made to the vehicle resources.
type instrumented struct {
	status   pilotdash.StatusResource
	position pilotdash.PositionResource
}

func (i instrumented) GetStatus(ctx context.Context) (pilotdash.Status, error) {
	requestCounter.WithLabelValues("status").Inc()
	status, err := i.status.GetStatus(ctx)
	if err != nil {
		requestErrorCounter.WithLabelValues("status").Inc()
	}
	return status, err
}

func (i instrumented) SaveStatus(ctx context.Context, status pilotdash.Status) error {
	requestCounter.WithLabelValues("status").Inc()
	err := i.status.SaveStatus(ctx, status)
	if err != nil {
		requestErrorCounter.WithLabelValues("status").Inc()
	}
	return err
}

func (i instrumented) GetPosition(ctx context.Context) (pilotdash.Position, error) {
	requestCounter.WithLabelValues("position").Inc()
	pos, err := i.position.GetPosition(ctx)
	if err != nil {
		requestErrorCounter.WithLabelValues("position").Inc()
	}
	return pos, err
}
