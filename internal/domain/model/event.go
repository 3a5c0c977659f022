// Package model contains domain models passed between layers.
package model

import "strings"

// EventRecord is a single Nostr event as delivered by a relay.
// It is read-only to the ranking core.
type EventRecord struct {
	ID        string     // hex, content-derived identifier
	PubKey    string     // hex author key
	CreatedAt int64      // unix seconds
	Kind      int        // nostr event kind
	Content   string     // note text
	Tags      [][]string // tag name is the first element
}

// Normalized returns e with ID and PubKey lower-cased. Hex is case-insensitive,
// so ids are deduped, stored and looked up in this form.
func (e EventRecord) Normalized() EventRecord {
	e.ID = strings.ToLower(e.ID)
	e.PubKey = strings.ToLower(e.PubKey)
	return e
}

// Tier buckets a difficulty for presentation.
type Tier string

// Known tiers.
const (
	TierLow    Tier = "low"
	TierMedium Tier = "medium"
	TierHigh   Tier = "high"
)

// ScoredEvent pairs a record with its PoW difficulty.
type ScoredEvent struct {
	Event      EventRecord
	Difficulty int
	Tier       Tier
}
