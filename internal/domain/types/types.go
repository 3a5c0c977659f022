// Package types contains common types used across the application
package types

// Entry is one row of the ranked view as served over HTTP.
type Entry struct {
	Rank       int        `json:"rank"`
	EventID    string     `json:"id"`
	PubKey     string     `json:"pubkey"`
	CreatedAt  int64      `json:"created_at"`
	Content    string     `json:"content"`
	Tags       [][]string `json:"tags"`
	Difficulty int        `json:"difficulty"`
	Tier       string     `json:"tier"`
}

// Stats is the wire shape of the summary counters.
type Stats struct {
	TotalSeen         int64   `json:"total_seen"`
	QualifyingCount   int64   `json:"qualifying_count"`
	Malformed         int64   `json:"malformed"`
	AverageDifficulty float64 `json:"average_difficulty"`
	MaxDifficulty     int     `json:"max_difficulty"`
}

// View is the wire shape of the published view.
type View struct {
	State     string  `json:"state"`
	Session   string  `json:"session,omitempty"`
	LastError string  `json:"last_error,omitempty"`
	UpdatedAt string  `json:"updated_at,omitempty"`
	Stats     Stats   `json:"stats"`
	Ranked    []Entry `json:"ranked"`
}
