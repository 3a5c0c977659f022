package testevents

import "time"

// Config holds configuration for a mining run.
type Config struct {
	RelayURL    string        // Relay to publish mined events to
	BaseURL     string        // Base URL of the ranking service
	NumEvents   int           // Number of events to mine
	Difficulty  int           // Target difficulty in bits
	Workers     int           // Concurrent miners
	Content     string        // Note text prefix
	Timeout     time.Duration // HTTP and relay request timeout
	WaitTimeout time.Duration // How long to wait for events to appear ranked
	OutputFile  string        // Output file for mined events
	Verbose     bool          // Enable verbose logging
}

// Stats holds run statistics.
type Stats struct {
	RunID         string
	Mined         int
	Attempts      uint64
	Published     int
	PublishFailed int
	Verified      int
	Missing       int
	StartTime     time.Time
	EndTime       time.Time
	Duration      time.Duration
}
