// Package stats aggregates summary counters over the observed event flow.
package stats

import "github.com/futurepaul/popow/internal/domain/model"

// Aggregator derives summary statistics from the same verdicts that feed the
// ranked set. It is not safe for concurrent use; callers guard it with the
// lock that guards the ranked set so the two never diverge.
type Aggregator struct {
	s model.Statistics
}

// New returns a zeroed aggregator.
func New() *Aggregator {
	return &Aggregator{}
}

// Observe records one distinct event.
func (a *Aggregator) Observe(difficulty int, qualifies bool) {
	a.s.TotalSeen++
	if !qualifies {
		return
	}
	a.s.QualifyingCount++
	a.s.SumDifficulty += int64(difficulty)
	if difficulty > a.s.MaxDifficulty {
		a.s.MaxDifficulty = difficulty
	}
}

// ObserveMalformed records an event whose identifier could not be scored.
func (a *Aggregator) ObserveMalformed() {
	a.s.TotalSeen++
	a.s.Malformed++
}

// Reset zeroes all counters.
func (a *Aggregator) Reset() {
	a.s = model.Statistics{}
}

// Snapshot returns a copy of the counters.
func (a *Aggregator) Snapshot() model.Statistics {
	return a.s
}
