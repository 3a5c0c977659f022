// Package relay connects the ingestion core to Nostr relays.
//
// The core only sees Source and Subscription; NostrSource implements them
// over go-nostr.
package relay

import (
	"context"
	"time"

	"github.com/futurepaul/popow/internal/domain/model"
)

// Filter narrows which events a relay returns.
type Filter struct {
	Kinds []int
	// Limit bounds the historical result count; 0 means relay default.
	Limit int
	// Since is the earliest created_at to return; zero means unbounded.
	Since time.Time
}

// Source is a connectivity provider for one relay.
type Source interface {
	// Connect establishes the connection. It is safe to call again after Close.
	Connect(ctx context.Context) error
	// FetchHistorical returns stored events matching f and completes at
	// end-of-stored-events.
	FetchHistorical(ctx context.Context, f Filter) ([]model.EventRecord, error)
	// Subscribe opens a live subscription. With keepOpen the subscription
	// keeps delivering after the stored backlog; otherwise it ends there.
	Subscribe(ctx context.Context, f Filter, keepOpen bool) (Subscription, error)
	// Close drops the connection and ends every open subscription.
	Close() error
	// URL names the relay for logs and errors.
	URL() string
}

// Subscription is a live stream of events.
type Subscription interface {
	// Events is closed when the subscription ends for any reason.
	Events() <-chan model.EventRecord
	// Err reports why Events was closed. It is nil after Close or a
	// keepOpen=false subscription reaching its end.
	Err() error
	// Close ends the subscription and releases its handle.
	Close()
}
