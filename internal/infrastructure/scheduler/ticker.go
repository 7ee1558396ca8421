package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/parcel-tracker/internal/api/metrics"
	"github.com/99minutos/parcel-tracker/internal/core/domain"
	"github.com/99minutos/parcel-tracker/internal/core/ports"
)

const defaultInterval = time.Minute

// Ticker runs a reconciliation pass immediately and then once per interval.
type Ticker struct {
	engine   ports.ProgressEngine
	interval time.Duration
	timeout  time.Duration
	now      func() time.Time
	log      zerolog.Logger
}

// NewTicker bounds each pass by passTimeout, which should be the pass lock
// TTL: a pass must not outlive the lock that keeps other instances out.
// A passTimeout that is zero or longer than interval is capped at interval.
func NewTicker(engine ports.ProgressEngine, interval, passTimeout time.Duration, log zerolog.Logger) *Ticker {
	if interval <= 0 {
		interval = defaultInterval
	}
	if passTimeout <= 0 || passTimeout > interval {
		passTimeout = interval
	}
	return &Ticker{engine: engine, interval: interval, timeout: passTimeout, now: time.Now, log: log}
}

// Run blocks until ctx is cancelled.
func (t *Ticker) Run(ctx context.Context) {
	t.log.Info().Dur("interval", t.interval).Dur("pass_timeout", t.timeout).Msg("progress scheduler started")

	tick := time.NewTicker(t.interval)
	defer tick.Stop()

	t.RunOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			t.log.Info().Msg("progress scheduler stopped")
			return
		case <-tick.C:
			t.RunOnce(ctx)
		}
	}
}

// RunOnce executes a single pass and records its outcome.
func (t *Ticker) RunOnce(ctx context.Context) {
	passCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	res, err := t.engine.ReconcileAll(passCtx, t.now())
	switch {
	case errors.Is(err, domain.ErrPassInProgress):
		metrics.ReconcilePassesTotal.WithLabelValues("skipped").Inc()
		t.log.Debug().Msg("previous pass still running, skipping tick")
	case err != nil:
		metrics.ReconcilePassesTotal.WithLabelValues("error").Inc()
		t.log.Error().Err(err).Msg("reconciliation pass failed")
	default:
		metrics.ObservePass(res.Updated, res.Skipped, res.Errors, res.Duration)
	}
}
