package testevents

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/nbd-wtf/go-nostr"
	"golang.org/x/sync/errgroup"

	"github.com/futurepaul/popow/internal/domain/scoring"
	"github.com/futurepaul/popow/pkg/logger"
)

// checkEvery is how often a miner looks at ctx between hashes.
const checkEvery = 1 << 12

// Mine searches for a nonce tag that gives ev an id of at least target
// leading zero bits, then signs it with sk. It returns the number of ids
// tried. ev.Kind, Content and CreatedAt must be set by the caller.
func Mine(ctx context.Context, ev *nostr.Event, sk string, target int) (uint64, error) {
	pk, err := nostr.GetPublicKey(sk)
	if err != nil {
		return 0, fmt.Errorf("derive public key: %w", err)
	}
	ev.PubKey = pk

	// The nonce tag is appended once and its counter rewritten in place.
	tag := nostr.Tag{nonceTag, "0", strconv.Itoa(target)}
	ev.Tags = append(ev.Tags, tag)

	var tries uint64
	for nonce := uint64(0); ; nonce++ {
		if nonce%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return tries, err
			}
		}
		tag[1] = strconv.FormatUint(nonce, 10)
		tries++

		d, err := scoring.Difficulty(ev.GetID())
		if err != nil {
			return tries, err
		}
		if d >= target {
			break
		}
	}

	if err := ev.Sign(sk); err != nil {
		return tries, fmt.Errorf("sign event: %w", err)
	}
	return tries, nil
}

// mineEvents mines cfg.NumEvents notes with cfg.Workers goroutines.
func mineEvents(ctx context.Context, cfg *Config, stats *Stats) ([]*nostr.Event, error) {
	log := logger.Get()
	log.Info(ctx, "mining events",
		logger.Int("events", cfg.NumEvents),
		logger.Int("difficulty", cfg.Difficulty),
		logger.Int("workers", cfg.Workers),
	)

	sk := nostr.GeneratePrivateKey()
	events := make([]*nostr.Event, cfg.NumEvents)
	var attempts atomic.Uint64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.Workers, 1))
	for i := range events {
		i := i
		g.Go(func() error {
			ev := &nostr.Event{
				Kind:      noteKind,
				CreatedAt: nostr.Now(),
				Content:   fmt.Sprintf("%s #%d (run %s)", cfg.Content, i, stats.RunID),
				Tags:      nostr.Tags{},
			}
			tries, err := Mine(gctx, ev, sk, cfg.Difficulty)
			attempts.Add(tries)
			if err != nil {
				return fmt.Errorf("mine event %d: %w", i, err)
			}
			events[i] = ev
			if cfg.Verbose {
				log.Info(gctx, "mined event",
					logger.String("id", ev.ID),
					logger.Int64("tries", int64(tries)),
				)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats.Mined = len(events)
	stats.Attempts = attempts.Load()
	return events, nil
}
