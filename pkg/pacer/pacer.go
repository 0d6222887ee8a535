// Package pacer spaces consecutive steps of a collection run by a fixed delay.
// Pacing is not adaptive: every step after the first waits the same
// interval, regardless of how the previous step went.
package pacer

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Default delays used by the ingestion pipeline.
const (
	// ListingPageDelay separates listing page requests in the generic fetch path.
	ListingPageDelay = 100 * time.Millisecond

	// SavedPageDelay separates pages whose records were saved by a collection run.
	SavedPageDelay = 500 * time.Millisecond

	// RegionDelay separates regions in a multi-region sweep.
	RegionDelay = 2 * time.Second
)

var pacingWaitSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "shelter_pacing_wait_seconds",
	Help:    "Time spent in fixed pacing delays by step",
	Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
}, []string{"step"})

// Pacer waits a fixed interval between steps. The first Wait returns immediately.
// A Pacer is not safe for concurrent use.
type Pacer struct {
	step     string
	interval time.Duration
	started  bool
	logger   zerolog.Logger
}

// New creates a pacer for the named step. A non-positive interval disables waiting.
func New(step string, interval time.Duration, logger zerolog.Logger) *Pacer {
	return &Pacer{
		step:     step,
		interval: interval,
		logger:   logger,
	}
}

// Wait blocks for the configured interval unless this is the first step.
// It returns early with an error when ctx is cancelled.
func (p *Pacer) Wait(ctx context.Context) error {
	if !p.started {
		p.started = true
		return nil
	}
	if p.interval <= 0 {
		return nil
	}

	start := time.Now()
	timer := time.NewTimer(p.interval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		p.logger.Warn().
			Str("step", p.step).
			Dur("interval", p.interval).
			Msg("Pacing interrupted")
		return fmt.Errorf("pacing %s: %w", p.step, ctx.Err())
	case <-timer.C:
	}

	pacingWaitSeconds.WithLabelValues(p.step).Observe(time.Since(start).Seconds())
	return nil
}
