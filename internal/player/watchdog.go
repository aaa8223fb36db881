package player

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mmcdole/playloop/internal/domain"
)

// DefaultWatchInterval is how often a blurred player is checked
const DefaultWatchInterval = time.Second

// Watchdog keeps a player going while the view is blurred by resuming it
// whenever it is found paused.
type Watchdog struct {
	interval time.Duration
	logger   *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewWatchdog creates a stopped watchdog
func NewWatchdog(interval time.Duration, logger *slog.Logger) *Watchdog {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = DefaultWatchInterval
	}
	return &Watchdog{interval: interval, logger: logger}
}

// Start begins watching p, replacing any previous watch
func (w *Watchdog) Start(p domain.Player) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.stopLocked()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	w.cancel = cancel
	w.done = done

	go w.run(ctx, p, done)
}

func (w *Watchdog) run(ctx context.Context, p domain.Player, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if p.State() != domain.PlaybackPaused {
				continue
			}
			w.logger.Debug("watchdog resuming paused player")
			if err := p.Play(); err != nil {
				w.logger.Warn("watchdog failed to resume player", "error", err)
			}
		}
	}
}

// Stop cancels the watch and waits for it to exit. Safe to call when stopped.
func (w *Watchdog) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopLocked()
}

func (w *Watchdog) stopLocked() {
	if w.cancel == nil {
		return
	}
	w.cancel()
	<-w.done
	w.cancel = nil
	w.done = nil
}

// Running reports whether a watch is active
func (w *Watchdog) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cancel != nil
}
