package app

import (
	"time"

	"github.com/futurepaul/popow/internal/adapters/repository"
	"github.com/futurepaul/popow/internal/domain/scoring"
	"github.com/futurepaul/popow/pkg/logger"
)

// Option applies a configuration option to the Coordinator.
type Option func(*Coordinator)

// WithWorkerCount sets the number of goroutines applying live events.
func WithWorkerCount(count int) Option {
	return func(c *Coordinator) {
		if count > 0 {
			c.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the live event queue.
func WithQueueSize(size int) Option {
	return func(c *Coordinator) {
		if size > 0 {
			c.queueSize = size
		}
	}
}

// WithPolicy sets the scoring policy.
func WithPolicy(p *scoring.Policy) Option {
	return func(c *Coordinator) {
		if p != nil {
			c.policy = p
		}
	}
}

// WithStore sets the ordered store behind the ranked set.
func WithStore(s repository.Store) Option {
	return func(c *Coordinator) {
		if s != nil {
			c.store = s
		}
	}
}

// WithEventKinds restricts fetched and streamed events to kinds.
func WithEventKinds(kinds ...int) Option {
	return func(c *Coordinator) {
		if len(kinds) > 0 {
			c.kinds = append([]int(nil), kinds...)
		}
	}
}

// WithFetchLimit bounds the historical query.
func WithFetchLimit(limit int) Option {
	return func(c *Coordinator) {
		if limit > 0 {
			c.fetchLimit = limit
		}
	}
}

// WithLookback sets how far back the historical query reaches.
func WithLookback(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.lookback = d
		}
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger sets a custom logger for the coordinator.
func WithLogger(l logger.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}
