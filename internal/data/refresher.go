package data

import (
	"context"
	"time"

	"github.com/lvstream/eventguide/internal/metrics"
	"github.com/sirupsen/logrus"
)

// Refresher manages periodic guide rebuilds in the background.
type Refresher struct {
	store    *Store
	fetcher  *Fetcher
	builder  *Builder
	interval time.Duration
	logger   *logrus.Logger
	metrics  *metrics.Metrics
}

// NewRefresher creates a new refresh manager.
func NewRefresher(store *Store, fetcher *Fetcher, builder *Builder, interval time.Duration, logger *logrus.Logger, m *metrics.Metrics) *Refresher {
	return &Refresher{
		store:    store,
		fetcher:  fetcher,
		builder:  builder,
		interval: interval,
		logger:   logger,
		metrics:  m,
	}
}

// Start begins the refresh cycle, stopping when the context is cancelled.
func (r *Refresher) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Refresh manager shutting down")
			return
		case <-ticker.C:
			err := r.refresh()
			nextInterval := r.scheduleNextRefresh(err)
			if nextInterval != r.interval {
				// Reset ticker with new interval for backoff
				ticker.Reset(nextInterval)
			}
		}
	}
}

func (r *Refresher) refresh() error {
	r.logger.Info("Starting guide refresh")

	result, err := r.fetcher.FetchAll()
	if err != nil {
		r.logger.WithError(err).Error("Failed to fetch inputs, keeping previous guide")
		r.metrics.IncRefresh(true)
		return err
	}

	artifacts, err := r.builder.Build(result)
	if err != nil {
		r.logger.WithError(err).Error("Failed to rebuild guide, keeping previous guide")
		r.metrics.IncRefresh(true)
		return err
	}

	// Update store only on a successful rebuild.
	r.store.SetGuide(artifacts.GuideXML, artifacts.GuideGzip)
	r.store.SetPlaylist(artifacts.Playlist)
	r.metrics.IncRefresh(false)

	r.logger.Info("Guide refresh completed successfully")
	return nil
}

func (r *Refresher) scheduleNextRefresh(lastError error) time.Duration {
	if lastError == nil {
		// Success - use normal interval
		return r.interval
	}

	// Error - retry sooner, at half the interval capped at 5 minutes
	backoffDuration := r.interval / 2
	if backoffDuration > 5*time.Minute {
		backoffDuration = 5 * time.Minute
	}

	r.logger.WithField("interval", backoffDuration).Warn("Using backoff interval due to refresh error")
	return backoffDuration
}
