package cache

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tracklab/internal/shared"
)

// Sweeper periodically purges expired entries from a [Store].
//
// The sweep interval is an operational knob controlling how often stale rows
// are physically removed; it is independent of the TTL that governs logical
// expiry on reads.
type Sweeper struct {
	store    *Store
	interval time.Duration
	logger   *log.Logger
	stop     chan struct{}
	done     chan struct{}
}

// NewSweeper creates a Sweeper for the given store.
func NewSweeper(store *Store, interval time.Duration, logger *log.Logger) *Sweeper {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Sweeper{
		store:    store,
		interval: interval,
		logger:   logger.With("component", "sweeper"),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the background sweep loop. It runs until [Sweeper.Stop].
func (s *Sweeper) Start() {
	go s.run()
}

// Stop terminates the sweep loop and waits for it to exit.
func (s *Sweeper) Stop() {
	close(s.stop)
	<-s.done
}

func (s *Sweeper) run() {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			removed, err := s.store.Sweep()
			if err != nil {
				s.logger.Error("sweep failed", "error", err)
				continue
			}
			if removed > 0 {
				s.logger.Info("swept expired cache entries", "removed", removed)
			}
		case <-s.stop:
			return
		}
	}
}
