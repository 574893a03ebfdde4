// Package janitor implements background cleanup of expired download sessions.
// It operates independently from the app Service to keep lifecycle concerns
// (periodic expiry) isolated from request path logic. Abandoned batches that
// were never downloaded are reclaimed here instead of leaking until restart.
package janitor

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Store abstracts the minimal store operation the Janitor requires.
type Store interface {
	// ExpireBefore removes sessions whose expiry is before t and returns the
	// number removed.
	ExpireBefore(ctx context.Context, t time.Time) (int, error)
}

// Config holds tunables for the Janitor.
type Config struct {
	Interval time.Duration // how often a cycle begins
	Logger   *slog.Logger  // optional logger (defaults to slog.Default())
	// OnExpired, if set, is invoked after each cycle with the number of
	// sessions removed. Used to feed the metrics manager.
	OnExpired func(n int)
}

// Janitor encapsulates the background sweep loop.
type Janitor struct {
	store Store
	cfg   Config

	ticker *time.Ticker
	stopCh chan struct{}
	doneCh chan struct{}
	once   sync.Once
}

// New constructs but does not start a Janitor.
func New(store Store, cfg Config) *Janitor {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Janitor{
		store:  store,
		cfg:    cfg,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Start launches the janitor loop in a new goroutine.
func (j *Janitor) Start(ctx context.Context) {
	if j.ticker != nil {
		return
	} // already started
	j.ticker = time.NewTicker(j.cfg.Interval)
	go j.loop(ctx)
}

// Stop signals the loop to exit and waits for completion.
func (j *Janitor) Stop() {
	j.once.Do(func() { close(j.stopCh) })
	<-j.doneCh
}

func (j *Janitor) loop(ctx context.Context) {
	log := j.cfg.Logger.With("domain", "janitor")
	defer func() {
		if j.ticker != nil {
			j.ticker.Stop()
		}
		close(j.doneCh)
	}()
	for {
		select {
		case <-ctx.Done():
			log.Info("janitor stop", "reason", "context_cancel")
			return
		case <-j.stopCh:
			log.Info("janitor stop", "reason", "stop_signal")
			return
		case <-j.ticker.C:
			j.runCycle(ctx)
		}
	}
}

// runCycle performs one expiry sweep.
func (j *Janitor) runCycle(ctx context.Context) {
	start := time.Now()
	log := j.cfg.Logger.With("domain", "janitor", "action", "cycle")
	now := time.Now().UTC()
	count, err := j.store.ExpireBefore(ctx, now)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error("expire", "error", err)
	}
	if j.cfg.OnExpired != nil && count > 0 {
		j.cfg.OnExpired(count)
	}
	log.Info("cycle complete", "expired", count, "ms", time.Since(start).Milliseconds())
}
