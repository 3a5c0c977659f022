package testevents

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/nbd-wtf/go-nostr"

	"github.com/futurepaul/popow/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
	filePermission      = 0600
)

// Run mines events, publishes them to the relay and checks that the ranking
// service picked them up.
func Run(ctx context.Context, cfg *Config) error {
	stats := &Stats{RunID: uuid.NewString(), StartTime: time.Now()}
	log := logger.Get()

	log.Info(ctx, "starting popow mining run",
		logger.String("run", stats.RunID),
		logger.String("relay", cfg.RelayURL),
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("events", cfg.NumEvents),
		logger.Int("difficulty", cfg.Difficulty),
	)

	if err := checkServiceHealth(ctx, cfg); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	events, err := mineEvents(ctx, cfg, stats)
	if err != nil {
		return fmt.Errorf("mining failed: %w", err)
	}

	if err := publishEvents(ctx, cfg, events, stats); err != nil {
		return fmt.Errorf("publishing failed: %w", err)
	}

	verifyErr := waitForRanked(ctx, cfg, events, stats)

	if err := saveEventsToFile(ctx, cfg, stats.RunID, events); err != nil {
		log.Warn(ctx, "failed to save events to file", logger.Error(err))
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(stats)

	if verifyErr != nil {
		return fmt.Errorf("verification failed: %w", verifyErr)
	}
	log.Info(ctx, "run completed successfully")
	return nil
}

// checkServiceHealth requires the service to be connected to its relay.
func checkServiceHealth(ctx context.Context, cfg *Config) error {
	client := newHTTPClient(cfg.Timeout)
	resp, err := client.Get(ctx, cfg.BaseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("service not connected to its relay: status %d", resp.StatusCode)
	}
	return nil
}

// saveEventsToFile writes the mined events as a JSON array.
func saveEventsToFile(ctx context.Context, cfg *Config, runID string, events []*nostr.Event) error {
	if len(events) == 0 {
		return fmt.Errorf("no events to save")
	}

	filename := cfg.OutputFile
	if filename == "" {
		filename = "mined_events_" + runID + ".json"
	}
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal events: %w", err)
	}
	if err := os.WriteFile(filename, data, filePermission); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	logger.Get().Info(ctx, "events saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(stats *Stats) {
	var hashRate float64
	if stats.Duration > 0 {
		hashRate = float64(stats.Attempts) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.String("run", stats.RunID),
		logger.Int("mined", stats.Mined),
		logger.Int64("attempts", int64(stats.Attempts)),
		logger.Int("published", stats.Published),
		logger.Int("publishFailed", stats.PublishFailed),
		logger.Int("verified", stats.Verified),
		logger.Int("missing", stats.Missing),
		logger.Duration("duration", stats.Duration),
		logger.Float64("hashesPerSecond", hashRate),
	)
}
