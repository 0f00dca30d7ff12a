package waitlist

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

const defaultSweepInterval = 30 * time.Second

// Sweeper periodically expires offers whose response window closed and
// hands their slots to the next entry in line. One instance per process is
// enough; the expiry itself is idempotent.
type Sweeper struct {
	app      *App
	clock    clockwork.Clock
	interval time.Duration
}

// NewSweeper creates a sweeper for the given waitlist app
func NewSweeper(app *App, clock clockwork.Clock, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	return &Sweeper{
		app:      app,
		clock:    clock,
		interval: interval,
	}
}

// Run blocks until ctx is cancelled, sweeping on every tick
func (s *Sweeper) Run(ctx context.Context) error {
	log.Info().Dur("interval", s.interval).Msg("waitlist sweeper started")

	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("waitlist sweeper shutting down")
			return ctx.Err()
		case <-ticker.Chan():
			expired, err := s.app.ExpireDue(ctx)
			if err != nil {
				log.Error().Err(err).Msg("waitlist sweep failed")
				continue
			}
			if expired > 0 {
				log.Info().Int("expired", expired).Msg("waitlist sweep expired offers")
			}
		}
	}
}
