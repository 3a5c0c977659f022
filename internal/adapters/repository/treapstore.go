package repository

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/futurepaul/popow/internal/domain/model"
	"github.com/futurepaul/popow/pkg/metrics"
)

// Treap-based, in-memory Store implementation.
//
// Ordering: difficulty DESC, then admission sequence DESC, so among equal
// difficulties the most recently admitted event ranks first. "less" means
// ranks earlier; in-order traversal yields the ranked view.

// treap node
type node struct {
	key   key
	ev    model.ScoredEvent
	prio  uint64
	left  *node
	right *node
	size  int
}

type key struct {
	difficulty int
	seq        uint64
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less returns true if a should appear before b in the ranked view.
func less(a, b key) bool {
	if a.difficulty != b.difficulty {
		return a.difficulty > b.difficulty
	}
	return a.seq > b.seq
}

func rotateRight(y *node) *node {
	x := y.left
	t2 := x.right
	x.right = y
	y.left = t2
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	t2 := y.left
	y.left = x
	x.right = t2
	fix(x)
	fix(y)
	return y
}

func insert(n, nn *node) *node {
	if n == nil {
		return nn
	}
	if less(nn.key, n.key) {
		n.left = insert(n.left, nn)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, nn)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

// rankOf returns the 1-based in-order position of k.
func rankOf(n *node, k key) int {
	rank := 0
	for n != nil {
		switch {
		case n.key == k:
			return rank + nsize(n.left) + 1
		case less(k, n.key):
			n = n.left
		default:
			rank += nsize(n.left) + 1
			n = n.right
		}
	}
	return 0
}

// collect appends up to limit events in rank order.
func collect(n *node, limit int, out *[]model.ScoredEvent) {
	if n == nil || len(*out) >= limit {
		return
	}
	collect(n.left, limit, out)
	if len(*out) < limit {
		*out = append(*out, n.ev)
	}
	if len(*out) < limit {
		collect(n.right, limit, out)
	}
}

// TreapStore implements Store.
type TreapStore struct {
	mu   sync.RWMutex
	root *node
	byID map[string]key
	seq  uint64
	seed int64
	rng  *rand.Rand
}

// NewTreapStore constructs a treap store with configuration options.
func NewTreapStore(opts ...Option) *TreapStore {
	s := &TreapStore{
		byID: make(map[string]key),
		seed: time.Now().UnixNano(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.rng = rand.New(rand.NewSource(s.seed)) //nolint:gosec // treap priorities, not security
	return s
}

// Insert implements Store.Insert in O(log n) expected time.
func (s *TreapStore) Insert(_ context.Context, ev model.ScoredEvent) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.insertLocked(ev) {
		return false, nil
	}
	metrics.UpdateRankedSize(len(s.byID))
	return true, nil
}

func (s *TreapStore) insertLocked(ev model.ScoredEvent) bool {
	if _, ok := s.byID[ev.Event.ID]; ok {
		return false
	}
	s.seq++
	k := key{difficulty: ev.Difficulty, seq: s.seq}
	s.byID[ev.Event.ID] = k
	s.root = insert(s.root, &node{key: k, ev: ev, prio: s.rng.Uint64(), size: 1})
	return true
}

// Replace implements Store.Replace. Equal difficulties keep their input
// order and duplicate ids within evs keep the first occurrence.
func (s *TreapStore) Replace(_ context.Context, evs []model.ScoredEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.resetLocked()
	first := make(map[string]int, len(evs))
	for i, ev := range evs {
		if _, ok := first[ev.Event.ID]; !ok {
			first[ev.Event.ID] = i
		}
	}
	// Later admissions rank first among ties, so walk the input backwards.
	for i := len(evs) - 1; i >= 0; i-- {
		if first[evs[i].Event.ID] == i {
			s.insertLocked(evs[i])
		}
	}
	metrics.UpdateRankedSize(len(s.byID))
	return nil
}

// Rank implements Store.Rank in O(log n).
func (s *TreapStore) Rank(_ context.Context, id string) (int, model.ScoredEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	k, ok := s.byID[id]
	if !ok {
		return 0, model.ScoredEvent{}, ErrNotFound
	}
	n := s.root
	for n != nil && n.key != k {
		if less(k, n.key) {
			n = n.left
		} else {
			n = n.right
		}
	}
	if n == nil {
		return 0, model.ScoredEvent{}, ErrNotFound
	}
	return rankOf(s.root, k), n.ev, nil
}

// TopN implements Store.TopN.
func (s *TreapStore) TopN(_ context.Context, n int) ([]model.ScoredEvent, error) {
	if n < 1 {
		return nil, ErrInvalidLimit
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.ScoredEvent, 0, min(n, len(s.byID)))
	collect(s.root, n, &out)
	return out, nil
}

// All implements Store.All.
func (s *TreapStore) All(_ context.Context) []model.ScoredEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.ScoredEvent, 0, len(s.byID))
	collect(s.root, len(s.byID), &out)
	return out
}

// Count returns the number of stored events.
func (s *TreapStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// Reset implements Store.Reset.
func (s *TreapStore) Reset(_ context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
	metrics.UpdateRankedSize(0)
}

func (s *TreapStore) resetLocked() {
	s.root = nil
	s.byID = make(map[string]key)
}
