package relay

import (
	"time"

	"github.com/futurepaul/popow/pkg/logger"
)

// Option configures a NostrSource.
type Option func(*NostrSource)

// WithConnectTimeout bounds how long Connect waits for the handshake.
func WithConnectTimeout(d time.Duration) Option {
	return func(s *NostrSource) {
		if d > 0 {
			s.connectTimeout = d
		}
	}
}

// WithBufferSize sets the per-subscription delivery buffer.
func WithBufferSize(n int) Option {
	return func(s *NostrSource) {
		if n > 0 {
			s.bufferSize = n
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *NostrSource) {
		if l != nil {
			s.logger = l
		}
	}
}
