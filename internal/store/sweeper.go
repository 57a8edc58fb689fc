package store

import (
	"time"

	"github.com/gottmail/toneguard/internal/metrics"
	"go.uber.org/zap"
)

// Sweeper periodically evicts expired entries from the ephemeral store.
// It is the enforcement mechanism for the purge guarantee: even if a
// processing flow dies without removing its entry, content is gone within
// ttl + interval. It runs for the lifetime of the service, independent of
// any request.
type Sweeper struct {
	store     *EphemeralStore
	interval  time.Duration
	logger    *zap.Logger
	collector *metrics.Collector
	stopCh    chan struct{}
	doneCh    chan struct{}
}

// NewSweeper creates a new sweeper
func NewSweeper(store *EphemeralStore, interval time.Duration, logger *zap.Logger, collector *metrics.Collector) *Sweeper {
	return &Sweeper{
		store:     store,
		interval:  interval,
		logger:    logger,
		collector: collector,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Start launches the background sweep loop.
func (s *Sweeper) Start() {
	go s.run()
}

func (s *Sweeper) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopCh:
			return
		}
	}
}

// sweep runs one sweep pass. A failing pass must never take down the
// loop, since the sweeper is the last line of defense for the purge
// guarantee; the next tick retries.
func (s *Sweeper) sweep() {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Sweep panicked", zap.Any("panic", r))
		}
	}()

	swept := s.store.SweepExpired()
	if len(swept) == 0 {
		return
	}

	if s.collector != nil {
		s.collector.RecordSweep(len(swept))
	}

	// Identifiers and counts only, never content
	s.logger.Info("Swept expired messages",
		zap.Int("count", len(swept)),
		zap.Strings("message_ids", swept),
		zap.Int("remaining", s.store.Size()))
}

// Stop stops the sweep loop and waits for it to exit.
func (s *Sweeper) Stop() {
	close(s.stopCh)
	<-s.doneCh
}
