// Package repository holds the ordered storage behind the ranked event set.
package repository

import (
	"context"

	"github.com/futurepaul/popow/internal/domain/model"
)

// Store keeps scored events ordered by difficulty descending.
type Store interface {
	// Insert adds ev. Returns false if an event with the same id is stored.
	Insert(ctx context.Context, ev model.ScoredEvent) (bool, error)
	// Replace drops every stored event and loads evs.
	Replace(ctx context.Context, evs []model.ScoredEvent) error
	// Rank returns the 1-based position of an event id.
	// Returns ErrNotFound if the id is unknown.
	Rank(ctx context.Context, id string) (int, model.ScoredEvent, error)
	// TopN returns the first n events in rank order.
	TopN(ctx context.Context, n int) ([]model.ScoredEvent, error)
	// All returns every event in rank order.
	All(ctx context.Context) []model.ScoredEvent
	// Count returns the number of stored events.
	Count(ctx context.Context) int
	// Reset drops every stored event.
	Reset(ctx context.Context)
}
