// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - New() returns defaults; Load(ctx) layers file and env on top.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects text or json log output.
	LogFormat string `koanf:"log_format"`
	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`
	// RelayURL is the websocket URL of the Nostr relay to read from.
	RelayURL string `koanf:"relay_url"`
	// EventKind restricts fetched events; 1 is a plain text note.
	EventKind int `koanf:"event_kind"`
	// FetchLimit bounds the historical bulk query.
	FetchLimit int `koanf:"fetch_limit"`
	// LookbackHours sets the historical time window.
	LookbackHours int `koanf:"lookback_hours"`
	// EventQueueSize bounds the live event queue.
	EventQueueSize int `koanf:"queue_size"`
	// WorkerCount sets the number of scoring workers.
	WorkerCount int `koanf:"worker_count"`
	// SubscriptionBuffer sizes the relay subscription's delivery channel.
	SubscriptionBuffer int `koanf:"subscription_buffer"`
	// NonceTag is the tag name that declares mining intent.
	NonceTag string `koanf:"nonce_tag"`
	// TierHigh and TierMedium are the minimum difficulties of those tiers.
	TierHigh   int `koanf:"tier_high"`
	TierMedium int `koanf:"tier_medium"`
	// ConnectTimeoutMS bounds the relay dial.
	ConnectTimeoutMS int `koanf:"connect_timeout_ms"`
	// MaxRankedLimit caps GET /ranked?limit.
	MaxRankedLimit int `koanf:"max_ranked_limit"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		LogFormat:          "text",
		Addr:               ":9080",
		RelayURL:           "wss://relay.damus.io",
		EventKind:          1,
		FetchLimit:         500,
		LookbackHours:      24,
		EventQueueSize:     10_000,
		WorkerCount:        1,
		SubscriptionBuffer: 256,
		NonceTag:           "nonce",
		TierHigh:           20,
		TierMedium:         10,
		ConnectTimeoutMS:   10_000,
		MaxRankedLimit:     500,
	}
}

// Lookback returns the historical window as a duration.
func (c *Config) Lookback() time.Duration {
	return time.Duration(c.LookbackHours) * time.Hour
}

// ConnectTimeout returns the relay dial timeout.
func (c *Config) ConnectTimeout() time.Duration {
	return time.Duration(c.ConnectTimeoutMS) * time.Millisecond
}

// Validate checks values that would otherwise break the service at runtime.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.RelayURL == "":
		return fmt.Errorf("%w: relay_url must not be empty", ErrInvalidConfig)
	case c.FetchLimit < 1:
		return fmt.Errorf("%w: fetch_limit must be positive", ErrInvalidConfig)
	case c.SubscriptionBuffer < 1:
		return fmt.Errorf("%w: subscription_buffer must be positive", ErrInvalidConfig)
	case c.LookbackHours < 1:
		return fmt.Errorf("%w: lookback_hours must be positive", ErrInvalidConfig)
	case c.TierMedium < 1 || c.TierHigh < c.TierMedium:
		return fmt.Errorf("%w: tiers must satisfy 0 < tier_medium <= tier_high", ErrInvalidConfig)
	}
	return nil
}
