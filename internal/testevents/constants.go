package testevents

import "time"

// Defaults for a mining run.
const (
	DefaultDifficulty  = 16
	DefaultNumEvents   = 5
	DefaultWaitTimeout = 30 * time.Second
	pollInterval       = 500 * time.Millisecond
	nonceTag           = "nonce"
	noteKind           = 1
)
