package testevents

import (
	"context"
	"fmt"
	"time"

	"github.com/nbd-wtf/go-nostr"

	"github.com/futurepaul/popow/internal/domain/scoring"
	"github.com/futurepaul/popow/internal/domain/types"
	"github.com/futurepaul/popow/pkg/logger"
)

// checkView reports which mined events are missing from v and returns an
// error when v itself is inconsistent.
func checkView(v types.View, events []*nostr.Event) (missing []string, err error) {
	for i := 1; i < len(v.Ranked); i++ {
		if v.Ranked[i-1].Difficulty < v.Ranked[i].Difficulty {
			return nil, fmt.Errorf("ranked view out of order at %d: %d < %d",
				i, v.Ranked[i-1].Difficulty, v.Ranked[i].Difficulty)
		}
	}

	byID := make(map[string]types.Entry, len(v.Ranked))
	for _, e := range v.Ranked {
		byID[e.EventID] = e
	}
	for _, ev := range events {
		e, ok := byID[ev.ID]
		if !ok {
			missing = append(missing, ev.ID)
			continue
		}
		want, derr := scoring.Difficulty(ev.ID)
		if derr != nil {
			return nil, derr
		}
		if e.Difficulty != want {
			return nil, fmt.Errorf("event %s ranked with difficulty %d, want %d", ev.ID, e.Difficulty, want)
		}
	}
	return missing, nil
}

// waitForRanked polls GET /view until every mined event is ranked or
// cfg.WaitTimeout passes.
func waitForRanked(ctx context.Context, cfg *Config, events []*nostr.Event, stats *Stats) error {
	log := logger.Get()
	client := newHTTPClient(cfg.Timeout)

	ctx, cancel := context.WithTimeout(ctx, cfg.WaitTimeout)
	defer cancel()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	var missing []string
	for {
		v, err := client.fetchView(ctx, cfg.BaseURL)
		if err == nil {
			missing, err = checkView(v, events)
			if err != nil {
				return err
			}
			stats.Verified = len(events) - len(missing)
			stats.Missing = len(missing)
			if len(missing) == 0 {
				log.Info(ctx, "all mined events are ranked", logger.Int("ranked", len(v.Ranked)))
				return nil
			}
		} else if cfg.Verbose {
			log.Warn(ctx, "view poll failed", logger.Error(err))
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%d of %d events not ranked before timeout: %v", len(missing), len(events), missing)
		case <-ticker.C:
		}
	}
}
