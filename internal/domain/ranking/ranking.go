// Package ranking maintains the live, difficulty-ordered set of PoW-bearing
// events.
package ranking

import (
	"context"

	"github.com/futurepaul/popow/internal/adapters/repository"
	"github.com/futurepaul/popow/internal/domain/model"
	"github.com/futurepaul/popow/internal/domain/scoring"
)

// Set scores incoming records and keeps the qualifying ones ranked by
// difficulty descending. Its methods are goroutine-safe individually; callers
// that must keep the set in step with other state (statistics, dedupe) hold
// their own lock around the pair.
type Set struct {
	policy *scoring.Policy
	store  repository.Store
}

// New returns a Set ranking with policy on top of store.
// A nil policy uses the default one; a nil store uses a fresh TreapStore.
func New(policy *scoring.Policy, store repository.Store) *Set {
	if policy == nil {
		policy = scoring.NewPolicy()
	}
	if store == nil {
		store = repository.NewTreapStore()
	}
	return &Set{policy: policy, store: store}
}

// Policy returns the policy used to score records.
func (s *Set) Policy() *scoring.Policy {
	return s.policy
}

// LoadSnapshot replaces the whole set with the qualifying records of batch.
// It returns one verdict per record, in batch order, so callers can derive
// statistics from the same pass.
func (s *Set) LoadSnapshot(ctx context.Context, batch []model.EventRecord) ([]scoring.Verdict, error) {
	verdicts := make([]scoring.Verdict, len(batch))
	admitted := make([]model.ScoredEvent, 0, len(batch))
	for i, rec := range batch {
		v := s.policy.Evaluate(rec)
		verdicts[i] = v
		if v.Qualifies {
			admitted = append(admitted, model.ScoredEvent{Event: rec, Difficulty: v.Difficulty, Tier: v.Tier})
		}
	}
	if err := s.store.Replace(ctx, admitted); err != nil {
		return nil, err
	}
	return verdicts, nil
}

// Insert scores rec and admits it when it qualifies. The returned bool is
// false for non-qualifying records and for ids already in the set.
func (s *Set) Insert(ctx context.Context, rec model.EventRecord) (scoring.Verdict, bool, error) {
	v := s.policy.Evaluate(rec)
	if !v.Qualifies {
		return v, false, nil
	}
	ok, err := s.store.Insert(ctx, model.ScoredEvent{Event: rec, Difficulty: v.Difficulty, Tier: v.Tier})
	if err != nil {
		return v, false, err
	}
	return v, ok, nil
}

// Snapshot returns the ranked view. The slice is owned by the caller.
func (s *Set) Snapshot(ctx context.Context) []model.ScoredEvent {
	return s.store.All(ctx)
}

// TopN returns at most n leading entries.
func (s *Set) TopN(ctx context.Context, n int) ([]model.ScoredEvent, error) {
	return s.store.TopN(ctx, n)
}

// Rank returns the 1-based position of id.
func (s *Set) Rank(ctx context.Context, id string) (int, model.ScoredEvent, error) {
	return s.store.Rank(ctx, id)
}

// Len returns the number of ranked events.
func (s *Set) Len(ctx context.Context) int {
	return s.store.Count(ctx)
}

// Reset empties the set.
func (s *Set) Reset(ctx context.Context) {
	s.store.Reset(ctx)
}
