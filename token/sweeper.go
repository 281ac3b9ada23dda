package token

import (
	"context"
	"time"

	"github.com/quizcraft/authcore/internal/logging"
)

// revokedRetention is how long revoked refresh rows are kept before the
// sweep removes them. Revoked rows are dead for verification either way;
// the retention only bounds how long they remain inspectable.
const revokedRetention = 7 * 24 * time.Hour

// Sweeper periodically deletes expired and long-revoked refresh rows from
// the durable store. Sweeping is housekeeping, never request-triggered.
type Sweeper struct {
	store    RefreshStore
	interval time.Duration
	log      logging.Logger
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewSweeper(store RefreshStore, interval time.Duration, log logging.Logger) *Sweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	if log == nil {
		log = logging.Nop{}
	}
	return &Sweeper{
		store:    store,
		interval: interval,
		log:      log,
	}
}

// Start launches the sweep loop. Calling Start twice is a no-op.
func (s *Sweeper) Start(ctx context.Context) {
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweep(ctx)
			}
		}
	}()
}

// Stop cancels the loop and waits for the in-flight sweep to finish.
func (s *Sweeper) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.cancel = nil
}

func (s *Sweeper) sweep(ctx context.Context) {
	now := time.Now()
	n, err := s.store.DeleteExpired(ctx, now, now.Add(-revokedRetention))
	if err != nil {
		s.log.Warn(ctx, "refresh token sweep failed", "error", err)
		return
	}
	if n > 0 {
		s.log.Debug(ctx, "swept expired refresh tokens", "deleted", n)
	}
}
