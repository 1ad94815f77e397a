package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// sweeper is what the worker needs from a question store: only the in-memory
// store implements it, the Redis store expires entries via TTL.
type sweeper interface {
	Sweep(maxAge time.Duration) int
}

// StoreSweepWorker periodically drops abandoned question sets from the
// in-memory question store.
type StoreSweepWorker struct {
	store    sweeper
	maxAge   time.Duration
	interval time.Duration
	log      zerolog.Logger
}

// NewStoreSweepWorker creates a new StoreSweepWorker.
func NewStoreSweepWorker(store sweeper, maxAge time.Duration, log zerolog.Logger) *StoreSweepWorker {
	return &StoreSweepWorker{
		store:    store,
		maxAge:   maxAge,
		interval: 10 * time.Minute,
		log:      log.With().Str("component", "store_sweep_worker").Logger(),
	}
}

// Start begins the sweep loop. Call in a goroutine.
func (w *StoreSweepWorker) Start(ctx context.Context) {
	w.log.Info().Dur("max_age", w.maxAge).Msg("Worker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopped")
			return
		case <-ticker.C:
			if removed := w.store.Sweep(w.maxAge); removed > 0 {
				w.log.Info().Int("removed", removed).Msg("Swept abandoned question sets")
			}
		}
	}
}
