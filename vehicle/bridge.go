package vehicle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/pilotdash"
	"github.com/segmentio/kafka-go"
)

// FlightController receives mode changes.
type FlightController interface {
	SetMode(ctx context.Context, armed bool) error
}

// Sink receives what the flight controller reports.
type Sink interface {
	UpdateStatus(ctx context.Context, status pilotdash.Status)
	UpdatePosition(ctx context.Context, pos pilotdash.Position)
}

type BridgeConfig struct {
	Brokers     []string
	GroupID     string
	StatusTopic string
	GPSTopic    string
	ModeTopic   string
}

// Bridge connects to the flight controller through kafka: it consumes the
// status and GPS topics and produces mode changes.
type Bridge struct {
	status *kafka.Reader
	gps    *kafka.Reader
	mode   *kafka.Writer
}

func NewBridge(cfg BridgeConfig) *Bridge {
	reader := func(topic string) *kafka.Reader {
		return kafka.NewReader(kafka.ReaderConfig{
			Brokers:        cfg.Brokers,
			Topic:          topic,
			GroupID:        cfg.GroupID,
			MinBytes:       1,
			MaxBytes:       1e6,
			MaxWait:        500 * time.Millisecond,
			CommitInterval: time.Second,
			StartOffset:    kafka.LastOffset,
		})
	}
	return &Bridge{
		status: reader(cfg.StatusTopic),
		gps:    reader(cfg.GPSTopic),
		mode: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.ModeTopic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 10 * time.Millisecond,
			RequiredAcks: kafka.RequireOne,
		},
	}
}

func (b *Bridge) SetMode(ctx context.Context, armed bool) error {
	msg, err := modeMessage(armed)
	if err != nil {
		return err
	}
	if err := b.mode.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("could not send set mode armed=%v: %w", armed, err)
	}
	return nil
}

// Run consumes both topics into sink until ctx is done.
func (b *Bridge) Run(ctx context.Context, sink Sink) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	errs := make(chan error, 2)
	go func() { errs <- consume(ctx, b.status, func(msg kafka.Message) error { return handleStatus(ctx, sink, msg) }) }()
	go func() { errs <- consume(ctx, b.gps, func(msg kafka.Message) error { return handleGPS(ctx, sink, msg) }) }()
	err := <-errs
	cancel()
	<-errs
	return err
}

func (b *Bridge) Close() error {
	return errors.Join(b.status.Close(), b.gps.Close(), b.mode.Close())
}

func consume(ctx context.Context, r *kafka.Reader, handle func(kafka.Message) error) error {
	log.Info("consuming", "topic", r.Config().Topic, "group", r.Config().GroupID)
	for {
		msg, err := r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("could not fetch from %s: %w", r.Config().Topic, err)
		}
		if err := handle(msg); err != nil {
			log.Warn("invalid message", "topic", msg.Topic, "offset", msg.Offset, "err", err)
		}
		if r.Config().GroupID == "" {
			continue
		}
		if err := r.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			log.Error("could not commit", "topic", msg.Topic, "offset", msg.Offset, "err", err)
		}
	}
}

func modeMessage(armed bool) (kafka.Message, error) {
	value, err := json.Marshal(pilotdash.Status{Armed: armed})
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{Value: value}, nil
}

func handleStatus(ctx context.Context, sink Sink, msg kafka.Message) error {
	var status pilotdash.Status
	if err := json.Unmarshal(msg.Value, &status); err != nil {
		return fmt.Errorf("invalid status: %w", err)
	}
	sink.UpdateStatus(ctx, status)
	return nil
}

func handleGPS(ctx context.Context, sink Sink, msg kafka.Message) error {
	var pos pilotdash.Position
	if err := json.Unmarshal(msg.Value, &pos); err != nil {
		return fmt.Errorf("invalid gps fix: %w", err)
	}
	sink.UpdatePosition(ctx, pos)
	return nil
}
