package api

import (
	"time"

	"github.com/futurepaul/popow/internal/domain/model"
	"github.com/futurepaul/popow/internal/domain/types"
)

// toEntries converts ranked events; first is the rank of evs[0].
func toEntries(evs []model.ScoredEvent, first int) []types.Entry {
	out := make([]types.Entry, len(evs))
	for i, ev := range evs {
		out[i] = toEntry(ev, first+i)
	}
	return out
}

func toEntry(ev model.ScoredEvent, rank int) types.Entry { //nolint:gocritic // hugeParam
	tags := ev.Event.Tags
	if tags == nil {
		tags = [][]string{}
	}
	return types.Entry{
		Rank:       rank,
		EventID:    ev.Event.ID,
		PubKey:     ev.Event.PubKey,
		CreatedAt:  ev.Event.CreatedAt,
		Content:    ev.Event.Content,
		Tags:       tags,
		Difficulty: ev.Difficulty,
		Tier:       string(ev.Tier),
	}
}

func toStats(s model.Statistics) types.Stats {
	return types.Stats{
		TotalSeen:         s.TotalSeen,
		QualifyingCount:   s.QualifyingCount,
		Malformed:         s.Malformed,
		AverageDifficulty: s.AverageDifficulty(),
		MaxDifficulty:     s.MaxDifficulty,
	}
}

// toView converts v, keeping at most limit ranked rows when limit > 0.
func toView(v model.View, limit int) types.View { //nolint:gocritic // hugeParam
	ranked := v.Ranked
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	out := types.View{
		State:     string(v.State),
		Session:   v.Session,
		LastError: v.LastError,
		Stats:     toStats(v.Stats),
		Ranked:    toEntries(ranked, 1),
	}
	if !v.UpdatedAt.IsZero() {
		out.UpdatedAt = v.UpdatedAt.UTC().Format(time.RFC3339Nano)
	}
	return out
}
