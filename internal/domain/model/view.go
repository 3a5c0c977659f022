package model

import "time"

// State is the connectivity state of an ingestion run.
type State string

// Connectivity states.
const (
	StateIdle         State = "idle"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateDisconnected State = "disconnected"
)

// Statistics summarizes everything observed in the current run.
type Statistics struct {
	TotalSeen       int64
	QualifyingCount int64
	Malformed       int64
	SumDifficulty   int64
	MaxDifficulty   int
}

// AverageDifficulty is SumDifficulty/QualifyingCount, or 0 when nothing qualified.
func (s Statistics) AverageDifficulty() float64 {
	if s.QualifyingCount == 0 {
		return 0
	}
	return float64(s.SumDifficulty) / float64(s.QualifyingCount)
}

// View is the read model published to consumers. Ranked is owned by the
// receiver; publishers always hand out a fresh copy.
type View struct {
	State     State
	Ranked    []ScoredEvent
	Stats     Statistics
	LastError string
	Session   string
	UpdatedAt time.Time
}
