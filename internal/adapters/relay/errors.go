package relay

import "errors"

// Connectivity failures. Each is wrapped with the relay URL and the cause.
var (
	ErrConnect            = errors.New("relay connect failed")
	ErrNotConnected       = errors.New("relay not connected")
	ErrFetch              = errors.New("relay historical fetch failed")
	ErrSubscribe          = errors.New("relay subscribe failed")
	ErrSubscriptionClosed = errors.New("relay subscription closed")
)
