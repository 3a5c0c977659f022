package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/futurepaul/popow/internal/testevents"
)

const (
	defaultTimeout    = 10 * time.Second
	defaultRunTimeout = 30 * time.Minute
)

func main() {
	var (
		relayURL   = flag.String("relay", "ws://localhost:7777", "Relay websocket URL to publish to")
		baseURL    = flag.String("url", "http://localhost:9080", "Base URL of the ranking service")
		numEvents  = flag.Int("events", testevents.DefaultNumEvents, "Number of events to mine")
		difficulty = flag.Int("difficulty", testevents.DefaultDifficulty, "Target difficulty in leading zero bits")
		workers    = flag.Int("workers", runtime.NumCPU(), "Concurrent miners")
		content    = flag.String("content", "popow test note", "Note text prefix")
		timeout    = flag.Duration("timeout", defaultTimeout, "Relay and HTTP request timeout")
		wait       = flag.Duration("wait", testevents.DefaultWaitTimeout, "How long to wait for events to be ranked")
		outputFile = flag.String("output", "", "Output file for mined events")
		logFile    = flag.String("log", "", "Also write logs to this file")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		testevents.ShowHelp()
		return
	}

	if err := testevents.SetupLogging(*logFile, *verbose); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultRunTimeout)
	defer cancel()

	cfg := &testevents.Config{
		RelayURL:    *relayURL,
		BaseURL:     *baseURL,
		NumEvents:   *numEvents,
		Difficulty:  *difficulty,
		Workers:     *workers,
		Content:     *content,
		Timeout:     *timeout,
		WaitTimeout: *wait,
		OutputFile:  *outputFile,
		Verbose:     *verbose,
	}

	if err := testevents.Run(ctx, cfg); err != nil {
		os.Stderr.WriteString("Run failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
