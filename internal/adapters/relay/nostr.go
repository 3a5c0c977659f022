package relay

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nbd-wtf/go-nostr"

	"github.com/futurepaul/popow/internal/domain/model"
	"github.com/futurepaul/popow/pkg/logger"
)

const (
	defaultConnectTimeout = 10 * time.Second
	defaultBufferSize     = 256
)

// NostrSource is a Source backed by a single go-nostr relay connection.
type NostrSource struct {
	url            string
	connectTimeout time.Duration
	bufferSize     int
	logger         logger.Logger

	mu    sync.Mutex
	relay *nostr.Relay
}

var _ Source = (*NostrSource)(nil)

// NewNostrSource returns a source for the relay at url. It does not dial.
func NewNostrSource(url string, opts ...Option) *NostrSource {
	s := &NostrSource{
		url:            url,
		connectTimeout: defaultConnectTimeout,
		bufferSize:     defaultBufferSize,
		logger:         logger.Get().Named("relay"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// URL implements Source.
func (s *NostrSource) URL() string { return s.url }

// Connect implements Source. An existing connection is replaced.
func (s *NostrSource) Connect(ctx context.Context) error {
	cctx, cancel := context.WithTimeout(ctx, s.connectTimeout)
	defer cancel()

	r, err := nostr.RelayConnect(cctx, s.url)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrConnect, s.url, err)
	}

	s.mu.Lock()
	old := s.relay
	s.relay = r
	s.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}
	s.logger.Info(ctx, "connected to relay", logger.String("url", s.url))
	return nil
}

func (s *NostrSource) current() (*nostr.Relay, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.relay == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotConnected, s.url)
	}
	return s.relay, nil
}

// FetchHistorical implements Source.
func (s *NostrSource) FetchHistorical(ctx context.Context, f Filter) ([]model.EventRecord, error) {
	r, err := s.current()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}

	evs, err := r.QuerySync(ctx, toNostrFilter(f))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFetch, s.url, err)
	}

	out := make([]model.EventRecord, 0, len(evs))
	for _, ev := range evs {
		if ev != nil {
			out = append(out, toRecord(ev))
		}
	}
	s.logger.Debug(ctx, "historical fetch complete",
		logger.String("url", s.url),
		logger.Int("count", len(out)),
	)
	return out, nil
}

// Subscribe implements Source.
func (s *NostrSource) Subscribe(ctx context.Context, f Filter, keepOpen bool) (Subscription, error) {
	r, err := s.current()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSubscribe, err)
	}

	nf := toNostrFilter(f)
	nf.Limit = 0
	sub, err := r.Subscribe(ctx, nostr.Filters{nf})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSubscribe, s.url, err)
	}

	ns := &nostrSubscription{
		sub:      sub,
		relayCtx: r.Context(),
		url:      s.url,
		keepOpen: keepOpen,
		events:   make(chan model.EventRecord, s.bufferSize),
		done:     make(chan struct{}),
	}
	go ns.forward()
	return ns, nil
}

// Close implements Source.
func (s *NostrSource) Close() error {
	s.mu.Lock()
	r := s.relay
	s.relay = nil
	s.mu.Unlock()

	if r == nil {
		return nil
	}
	return r.Close()
}

type nostrSubscription struct {
	sub      *nostr.Subscription
	relayCtx context.Context
	url      string
	keepOpen bool

	events chan model.EventRecord
	done   chan struct{}

	closeOnce sync.Once
	mu        sync.Mutex
	err       error
}

func (n *nostrSubscription) Events() <-chan model.EventRecord { return n.events }

func (n *nostrSubscription) Err() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.err
}

func (n *nostrSubscription) Close() {
	n.closeOnce.Do(func() {
		close(n.done)
		n.sub.Unsub()
	})
}

func (n *nostrSubscription) fail(err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err == nil {
		n.err = err
	}
}

// forward copies relay events into n.events until the subscription ends.
func (n *nostrSubscription) forward() {
	defer close(n.events)

	eose := n.sub.EndOfStoredEvents
	for {
		select {
		case <-n.done:
			return
		case <-n.relayCtx.Done():
			n.fail(fmt.Errorf("%w: %s: connection lost", ErrSubscriptionClosed, n.url))
			return
		case reason := <-n.sub.ClosedReason:
			n.fail(fmt.Errorf("%w: %s: %s", ErrSubscriptionClosed, n.url, reason))
			return
		case <-eose:
			eose = nil
			if !n.keepOpen {
				n.Close()
				return
			}
		case ev, ok := <-n.sub.Events:
			if !ok {
				select {
				case <-n.done:
				default:
					n.fail(fmt.Errorf("%w: %s", ErrSubscriptionClosed, n.url))
				}
				return
			}
			if ev == nil {
				continue
			}
			select {
			case n.events <- toRecord(ev):
			case <-n.done:
				return
			}
		}
	}
}

func toNostrFilter(f Filter) nostr.Filter {
	nf := nostr.Filter{
		Kinds: append([]int(nil), f.Kinds...),
		Limit: f.Limit,
	}
	if !f.Since.IsZero() {
		ts := nostr.Timestamp(f.Since.Unix())
		nf.Since = &ts
	}
	return nf
}

func toRecord(ev *nostr.Event) model.EventRecord {
	tags := make([][]string, 0, len(ev.Tags))
	for _, t := range ev.Tags {
		tags = append(tags, append([]string(nil), t...))
	}
	return model.EventRecord{
		ID:        ev.ID,
		PubKey:    ev.PubKey,
		CreatedAt: int64(ev.CreatedAt),
		Kind:      ev.Kind,
		Content:   ev.Content,
		Tags:      tags,
	}.Normalized()
}
