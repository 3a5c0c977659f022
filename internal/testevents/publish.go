package testevents

import (
	"context"
	"fmt"

	"github.com/nbd-wtf/go-nostr"

	"github.com/futurepaul/popow/pkg/logger"
)

// publishEvents sends events to the relay one by one. Individual failures
// are counted, not fatal.
func publishEvents(ctx context.Context, cfg *Config, events []*nostr.Event, stats *Stats) error {
	log := logger.Get()

	cctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	relay, err := nostr.RelayConnect(cctx, cfg.RelayURL)
	cancel()
	if err != nil {
		return fmt.Errorf("connect %s: %w", cfg.RelayURL, err)
	}
	defer func() { _ = relay.Close() }()

	for _, ev := range events {
		pctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
		err := relay.Publish(pctx, *ev)
		cancel()
		if err != nil {
			stats.PublishFailed++
			log.Warn(ctx, "publish failed", logger.String("id", ev.ID), logger.Error(err))
			continue
		}
		stats.Published++
	}

	log.Info(ctx, "published events",
		logger.Int("published", stats.Published),
		logger.Int("failed", stats.PublishFailed),
	)
	if stats.Published == 0 {
		return fmt.Errorf("no event was accepted by %s", cfg.RelayURL)
	}
	return nil
}
