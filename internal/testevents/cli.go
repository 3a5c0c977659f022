package testevents

import (
	"fmt"
	"io"
	"os"

	"github.com/futurepaul/popow/pkg/logger"
)

// File permission constants.
const logFilePermission = 0600

// SetupLogging sends log output to stdout and, when logFile is set, to that
// file too.
func SetupLogging(logFile string, verbose bool) error {
	var out io.Writer = os.Stdout
	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		out = io.MultiWriter(os.Stdout, file)
	}

	if err := logger.Init(logger.WithWriter(out)); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		_ = logger.SetLevelString("debug")
	}
	return nil
}

// ShowHelp prints usage information for the miner.
func ShowHelp() {
	os.Stdout.WriteString(`popow event miner
=================

Mines kind-1 notes carrying a nonce tag until their ids reach a target
difficulty, publishes them to a relay, then checks that the ranking service
lists them.

Usage:
  go run ./cmd/mine-events [options]

Options:
  -relay string
        Relay websocket URL to publish to (default "ws://localhost:7777")
  -url string
        Base URL of the ranking service (default "http://localhost:9080")
  -events int
        Number of events to mine (default 5)
  -difficulty int
        Target difficulty in leading zero bits (default 16)
  -workers int
        Concurrent miners (default CPU cores)
  -content string
        Note text prefix (default "popow test note")
  -timeout duration
        Relay and HTTP request timeout (default 10s)
  -wait duration
        How long to wait for events to be ranked (default 30s)
  -output string
        Output file for mined events (default: mined_events_RUNID.json)
  -log string
        Also write logs to this file
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  go run ./cmd/mine-events -difficulty 20 -events 3
  go run ./cmd/mine-events -relay wss://relay.example.com -url http://localhost:8080
`)
}
