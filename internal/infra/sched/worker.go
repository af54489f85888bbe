package sched

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"swapscribe/internal/infra/metrics"
	red "swapscribe/internal/infra/redis"
)

// periodic runs task on every tick until ctx is done. When a locker is set each
// tick first takes lock:sweep:<name>; a held lock skips the tick.
type periodic struct {
	name     string
	interval time.Duration
	locker   red.Locker
	lockTTL  time.Duration
	log      *zerolog.Logger
	task     func(ctx context.Context) error
}

func (p *periodic) run(ctx context.Context) error {
	p.log.Info().Dur("interval", p.interval).Msg("starting worker")
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.Info().Msg("stopping worker")
			return ctx.Err()
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *periodic) tick(ctx context.Context) {
	start := time.Now()
	if p.locker != nil {
		key := red.SweepLockKey(p.name)
		token, err := p.locker.TryLock(ctx, key, p.lockTTL)
		if errors.Is(err, red.ErrLockHeld) {
			p.log.Debug().Msg("another instance holds the sweep lock, skipping")
			metrics.ObserveSweep(p.name, "skipped", 0)
			return
		}
		if err != nil {
			// sweeps are safe to overlap; a lock outage must not stop them
			p.log.Warn().Err(err).Msg("sweep lock unavailable, running unlocked")
		} else {
			defer func() {
				if err := p.locker.Unlock(context.WithoutCancel(ctx), key, token); err != nil {
					p.log.Warn().Err(err).Msg("sweep unlock failed")
				}
			}()
		}
	}

	if err := p.task(ctx); err != nil {
		p.log.Error().Err(err).Msg("sweep failed")
		metrics.ObserveSweep(p.name, "error", time.Since(start))
		return
	}
	metrics.ObserveSweep(p.name, "ok", time.Since(start))
}
