// Package app wires the ingestion pipeline: relay source, ranked set,
// statistics and the published view.
package app

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/futurepaul/popow/internal/adapters/mq/queue"
	"github.com/futurepaul/popow/internal/adapters/mq/worker"
	"github.com/futurepaul/popow/internal/adapters/relay"
	"github.com/futurepaul/popow/internal/adapters/repository"
	"github.com/futurepaul/popow/internal/domain/dedupe"
	"github.com/futurepaul/popow/internal/domain/model"
	"github.com/futurepaul/popow/internal/domain/ranking"
	"github.com/futurepaul/popow/internal/domain/scoring"
	"github.com/futurepaul/popow/internal/domain/stats"
	"github.com/futurepaul/popow/pkg/logger"
	"github.com/futurepaul/popow/pkg/metrics"
)

// Default coordinator configuration.
const (
	defaultWorkerCount = 1
	defaultQueueSize   = 10_000
	defaultFetchLimit  = 500
	defaultLookback    = 24 * time.Hour
	defaultEventKind   = 1
)

// Failure stages, used as the metrics label and in logs.
const (
	stageConnect   = "connect"
	stageFetch     = "fetch"
	stageSubscribe = "subscribe"
)

// run is one ingestion attempt: connect, bulk load, then live stream.
type run struct {
	session string
	cancel  context.CancelFunc
	sub     relay.Subscription
	pool    *worker.Pool
	forward chan struct{} // closed when the forwarder returns
}

// Coordinator drives two-phase ingestion and owns the published view.
//
// mu is the single boundary around the ranked set, the aggregator, the
// dedupe set and the view fields, so a reader never sees one updated
// without the others.
type Coordinator struct {
	source relay.Source
	logger logger.Logger

	policy      *scoring.Policy
	store       repository.Store
	kinds       []int
	fetchLimit  int
	lookback    time.Duration
	workerCount int
	queueSize   int
	now         func() time.Time

	// lifecycle serializes Start, Stop and Restart.
	lifecycle sync.Mutex

	mu        sync.Mutex
	set       *ranking.Set
	agg       *stats.Aggregator
	seen      dedupe.Deduper
	state     model.State
	lastError string
	updatedAt time.Time
	run       *run

	watchMu  sync.Mutex
	watchers map[*watcher]struct{}
}

// New constructs a Coordinator reading from source.
func New(source relay.Source, opts ...Option) *Coordinator {
	c := &Coordinator{
		source:      source,
		kinds:       []int{defaultEventKind},
		fetchLimit:  defaultFetchLimit,
		lookback:    defaultLookback,
		workerCount: defaultWorkerCount,
		queueSize:   defaultQueueSize,
		now:         time.Now,
		state:       model.StateIdle,
		watchers:    make(map[*watcher]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logger.Get().Named("coordinator")
	}
	if c.store == nil {
		c.store = repository.NewTreapStore()
	}
	c.set = ranking.New(c.policy, c.store)
	c.agg = stats.New()
	c.seen = dedupe.NewInMemoryDeduper()
	c.updatedAt = c.now()
	metrics.UpdateConnectivityState(string(c.state))
	return c
}

func (c *Coordinator) filter() relay.Filter {
	return relay.Filter{
		Kinds: append([]int(nil), c.kinds...),
		Since: c.now().Add(-c.lookback),
	}
}

// Start runs a fresh ingestion: it resets the ranked set, statistics and
// dedupe set together, connects, loads the historical snapshot, then opens
// the live subscription. It returns once streaming has begun. A failure
// leaves the coordinator Disconnected with LastError set; there is no retry.
// Start is a no-op while a run is streaming.
func (c *Coordinator) Start(ctx context.Context) error {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	if c.source == nil {
		return ErrNoSource
	}

	c.mu.Lock()
	if c.run != nil && c.state == model.StateConnected {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()
	c.stopLocked(ctx)

	// The run outlives the caller's ctx; Stop ends it.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	r := &run{session: uuid.NewString(), cancel: cancel, forward: make(chan struct{})}

	c.mu.Lock()
	c.set.Reset(ctx)
	c.agg.Reset()
	c.seen.Reset(ctx)
	c.lastError = ""
	c.run = r
	c.setStateLocked(model.StateConnecting)
	c.mu.Unlock()
	c.notify()

	log := c.logger
	log.Info(ctx, "connecting to relay",
		logger.String("url", c.source.URL()),
		logger.String("session", r.session),
	)

	if err := c.source.Connect(ctx); err != nil {
		c.fail(ctx, r, stageConnect, err)
		return err
	}
	c.transition(r, model.StateConnected)

	f := c.filter()
	hist := f
	hist.Limit = c.fetchLimit
	records, err := c.source.FetchHistorical(ctx, hist)
	if err != nil {
		c.fail(ctx, r, stageFetch, err)
		return err
	}
	c.loadSnapshot(ctx, r, records)

	sub, err := c.source.Subscribe(runCtx, f, true)
	if err != nil {
		c.fail(ctx, r, stageSubscribe, err)
		return err
	}

	q := queue.NewInMemoryQueue(queue.WithCapacity(c.queueSize))
	pool := worker.NewPool(c.workerCount, q, c)
	pool.Start(runCtx)

	c.mu.Lock()
	r.sub = sub
	r.pool = pool
	c.mu.Unlock()

	go c.forwardLive(runCtx, r, sub, q)

	log.Info(ctx, "streaming live events",
		logger.String("session", r.session),
		logger.Int("snapshot", len(records)),
		logger.Int("workers", pool.Size()),
	)
	return nil
}

// loadSnapshot applies the historical batch in one pass under mu.
func (c *Coordinator) loadSnapshot(ctx context.Context, r *run, records []model.EventRecord) {
	c.mu.Lock()
	if c.run != r {
		c.mu.Unlock()
		return
	}

	unique := make([]model.EventRecord, 0, len(records))
	for _, rec := range records {
		rec = rec.Normalized()
		if c.seen.SeenAndRecord(ctx, rec.ID) {
			metrics.RecordEventDuplicate()
			continue
		}
		unique = append(unique, rec)
	}

	verdicts, err := c.set.LoadSnapshot(ctx, unique)
	if err != nil {
		c.mu.Unlock()
		c.logger.Error(ctx, "snapshot load failed", logger.Error(err))
		return
	}
	for _, v := range verdicts {
		c.observeLocked(v, v.Qualifies)
	}
	c.updatedAt = c.now()
	ranked := c.set.Len(ctx)
	c.mu.Unlock()

	metrics.RecordSnapshotLoad(len(unique))
	c.notify()
	c.logger.Info(ctx, "historical snapshot loaded",
		logger.Int("records", len(records)),
		logger.Int("unique", len(unique)),
		logger.Int("ranked", ranked),
	)
}

// forwardLive moves subscription events into the queue until the
// subscription ends or the run is cancelled.
func (c *Coordinator) forwardLive(ctx context.Context, r *run, sub relay.Subscription, q *queue.InMemoryQueue) {
	defer close(r.forward)

	for ev := range sub.Events() {
		if err := q.Enqueue(ctx, ev); err != nil {
			return
		}
	}
	if ctx.Err() != nil {
		return
	}
	if err := sub.Err(); err != nil {
		c.fail(ctx, r, stageSubscribe, err)
	}
}

// Apply scores one live event and admits it. It implements worker.Handler.
func (c *Coordinator) Apply(ctx context.Context, rec model.EventRecord) error { //nolint:gocritic // hugeParam: records travel by value
	rec = rec.Normalized()
	c.mu.Lock()
	if c.seen.SeenAndRecord(ctx, rec.ID) {
		c.mu.Unlock()
		metrics.RecordEventDuplicate()
		return nil
	}

	v, admitted, err := c.set.Insert(ctx, rec)
	if err != nil {
		c.seen.Unrecord(ctx, rec.ID)
		c.mu.Unlock()
		return err
	}
	if v.Qualifies && !admitted {
		// Already ranked under this id.
		c.mu.Unlock()
		metrics.RecordEventDuplicate()
		return nil
	}
	c.observeLocked(v, admitted)
	c.updatedAt = c.now()
	c.mu.Unlock()

	if v.Malformed {
		c.logger.Debug(ctx, "skipping malformed event id", logger.String("id", rec.ID))
	}
	c.notify()
	return nil
}

func (c *Coordinator) observeLocked(v scoring.Verdict, qualifies bool) {
	metrics.RecordEventSeen()
	if v.Malformed {
		c.agg.ObserveMalformed()
		metrics.RecordEventMalformed()
		return
	}
	c.agg.Observe(v.Difficulty, qualifies)
	if qualifies {
		metrics.RecordEventQualifying(v.Difficulty)
		metrics.UpdateMaxDifficulty(c.agg.Snapshot().MaxDifficulty)
	}
}

// fail moves r to Disconnected and stops it from processing further events.
// Failures of a run that is no longer current are ignored.
func (c *Coordinator) fail(ctx context.Context, r *run, stage string, err error) {
	c.mu.Lock()
	if c.run != r {
		c.mu.Unlock()
		return
	}
	c.lastError = err.Error()
	c.setStateLocked(model.StateDisconnected)
	c.mu.Unlock()

	r.cancel()
	metrics.RecordConnectivityFailure(stage)
	c.logger.Error(ctx, "relay connectivity failure",
		logger.String("stage", stage),
		logger.String("session", r.session),
		logger.Error(err),
	)
	c.notify()
}

func (c *Coordinator) transition(r *run, s model.State) {
	c.mu.Lock()
	if c.run != r {
		c.mu.Unlock()
		return
	}
	c.setStateLocked(s)
	c.mu.Unlock()
	c.notify()
}

func (c *Coordinator) setStateLocked(s model.State) {
	c.state = s
	c.updatedAt = c.now()
	metrics.UpdateConnectivityState(string(s))
}

// Stop halts forwarding, releases the subscription and waits for the event
// being applied to finish. Events still waiting in the queue are discarded,
// not drained. The ranked set and statistics are kept.
func (c *Coordinator) Stop(ctx context.Context) {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()
	c.stopLocked(ctx)
}

func (c *Coordinator) stopLocked(ctx context.Context) {
	c.mu.Lock()
	r := c.run
	c.run = nil
	if r != nil && c.state != model.StateDisconnected {
		c.setStateLocked(model.StateIdle)
	}
	c.mu.Unlock()
	if r == nil {
		return
	}

	if r.sub != nil {
		r.sub.Close()
		<-r.forward
	}
	if r.pool != nil {
		if err := r.pool.Shutdown(ctx); err != nil {
			c.logger.Warn(ctx, "worker pool shutdown", logger.Error(err))
		}
	}
	r.cancel()
	if err := c.source.Close(); err != nil {
		c.logger.Warn(ctx, "closing relay source", logger.Error(err))
	}
	c.logger.Info(ctx, "ingestion stopped", logger.String("session", r.session))
	c.notify()
}

// Restart stops the current run and starts a fresh one, resetting the ranked
// set and statistics together. It is the external re-initiation hook after a
// failure.
func (c *Coordinator) Restart(ctx context.Context) error {
	c.Stop(ctx)
	return c.Start(ctx)
}

// View returns a consistent copy of the published view.
func (c *Coordinator) View(ctx context.Context) model.View {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := model.View{
		State:     c.state,
		Ranked:    c.set.Snapshot(ctx),
		Stats:     c.agg.Snapshot(),
		LastError: c.lastError,
		UpdatedAt: c.updatedAt,
	}
	if c.run != nil {
		v.Session = c.run.session
	}
	return v
}

// State returns the connectivity state.
func (c *Coordinator) State() model.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Stats returns the summary counters.
func (c *Coordinator) Stats() model.Statistics {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.agg.Snapshot()
}

// TopN returns at most n leading ranked events.
func (c *Coordinator) TopN(ctx context.Context, n int) ([]model.ScoredEvent, error) {
	return c.set.TopN(ctx, n)
}

// Rank returns the 1-based position of a ranked event id. Hex case is ignored.
func (c *Coordinator) Rank(ctx context.Context, id string) (int, model.ScoredEvent, error) {
	return c.set.Rank(ctx, strings.ToLower(id))
}
