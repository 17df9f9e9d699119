package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonesrussell/north-cloud/restock/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/restock/internal/metrics"
	"github.com/jonesrussell/north-cloud/restock/internal/store"
)

// DefaultMaxAge is how long availability records are kept.
const DefaultMaxAge = 30 * 24 * time.Hour

// ErrInvalidMaxAge is returned for a non-positive retention window.
var ErrInvalidMaxAge = errors.New("retention max age must be positive")

// Prune deletes availability records older than the retention window.
type Prune struct {
	store   store.Store
	maxAge  time.Duration
	clock   func() time.Time
	metrics *metrics.Metrics
	logger  logger.Logger
}

// NewPrune creates the retention job.
func NewPrune(s store.Store, maxAge time.Duration, clock func() time.Time, m *metrics.Metrics, log logger.Logger) *Prune {
	if clock == nil {
		clock = time.Now
	}
	return &Prune{store: s, maxAge: maxAge, clock: clock, metrics: m, logger: log}
}

// Run deletes every record with a timestamp at or before now - maxAge.
func (p *Prune) Run(ctx context.Context) (Report, error) {
	rn := startRun(JobPrune, p.metrics, p.logger)
	if p.maxAge <= 0 {
		return rn.done(ErrInvalidMaxAge), ErrInvalidMaxAge
	}

	cutoff := p.clock().Add(-p.maxAge)
	deleted, err := p.store.DeleteAvailabilityBefore(ctx, cutoff)
	if err != nil {
		err = fmt.Errorf("delete availability before %s: %w", cutoff.Format(time.RFC3339), err)
		return rn.done(err), err
	}

	rn.report.Pruned = deleted
	p.metrics.RecordPruned(deleted)
	rn.logger.Info("Availability records pruned",
		logger.Int64("deleted", deleted),
		logger.Time("cutoff", cutoff),
	)
	return rn.done(nil), nil
}
