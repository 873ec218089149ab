package pilotdash

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	DefaultInterval = time.Second
	DefaultRetries  = 5
)

// RetryPolicy builds the backoff used when a poll fetch fails.
// A policy that returns backoff.Stop right away ends the loop on the first
// error.
type RetryPolicy func() backoff.BackOff

// StopOnError gives up on the first failed fetch.
func StopOnError() RetryPolicy {
	return func() backoff.BackOff {
		return &backoff.StopBackOff{}
	}
}

// BoundedRetry retries a failed fetch up to n times with exponential
// backoff before giving up.
func BoundedRetry(n uint64) RetryPolicy {
	if n == 0 {
		return StopOnError()
	}
	return func() backoff.BackOff {
		bo := backoff.NewExponentialBackOff()
		bo.MaxInterval = time.Second * 5
		bo.MaxElapsedTime = time.Minute
		return backoff.WithMaxRetries(bo, n)
	}
}

// Poller runs a fetch, waits Interval after it resolves, and repeats.
type Poller struct {
	Name     string
	Interval time.Duration
	Retry    RetryPolicy

	// OnError, if set, is called for every failed fetch attempt.
	OnError func(err error)
}

func NewPoller(name string) Poller {
	return Poller{
		Name:     name,
		Interval: DefaultInterval,
		Retry:    BoundedRetry(DefaultRetries),
	}
}

// Run polls until ctx is done or the retry policy gives up on a failing
// fetch. It returns ctx.Err() or the last fetch error.
func (p Poller) Run(ctx context.Context, fetch func(ctx context.Context) error) error {
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	policy := p.Retry
	if policy == nil {
		policy = StopOnError()
	}

	timer := time.NewTimer(0)
	defer timer.Stop()
	<-timer.C

	for {
		if err := backoff.RetryNotify(func() error {
			return fetch(ctx)
		}, backoff.WithContext(policy(), ctx), func(err error, d time.Duration) {
			log.Warn("poll failed, retrying", "poller", p.Name, "err", err, "in", d)
			if p.OnError != nil {
				p.OnError(err)
			}
		}); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Error("poll stopped", "poller", p.Name, "err", err)
			if p.OnError != nil {
				p.OnError(err)
			}
			return err
		}

		timer.Reset(interval)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
}
