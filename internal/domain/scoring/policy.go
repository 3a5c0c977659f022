package scoring

import "github.com/futurepaul/popow/internal/domain/model"

// Default policy constants.
const (
	DefaultNonceTag   = "nonce"
	DefaultTierHigh   = 20
	DefaultTierMedium = 10
)

// Verdict is the outcome of evaluating one record.
type Verdict struct {
	Difficulty int
	Qualifies  bool
	Tier       model.Tier
	// Malformed is set when the identifier is not hex; such records never qualify.
	Malformed bool
}

// Qualifies reports whether an event is PoW-bearing: a positive difficulty or
// an explicit "nonce" tag.
func Qualifies(difficulty int, tags [][]string) bool {
	return difficulty > 0 || hasTag(tags, DefaultNonceTag)
}

// TierOf classifies difficulty with the default thresholds.
func TierOf(difficulty int) model.Tier {
	return tierOf(difficulty, DefaultTierHigh, DefaultTierMedium)
}

func tierOf(difficulty, high, medium int) model.Tier {
	switch {
	case difficulty >= high:
		return model.TierHigh
	case difficulty >= medium:
		return model.TierMedium
	default:
		return model.TierLow
	}
}

func hasTag(tags [][]string, name string) bool {
	for _, t := range tags {
		if len(t) > 0 && t[0] == name {
			return true
		}
	}
	return false
}

// Policy bundles the scorer with the qualification rule and tier thresholds.
type Policy struct {
	nonceTag   string
	tierHigh   int
	tierMedium int
}

// NewPolicy builds a Policy with the default marker tag and thresholds.
func NewPolicy(opts ...Option) *Policy {
	p := &Policy{
		nonceTag:   DefaultNonceTag,
		tierHigh:   DefaultTierHigh,
		tierMedium: DefaultTierMedium,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Evaluate scores and qualifies a record.
func (p *Policy) Evaluate(ev model.EventRecord) Verdict {
	d, err := Difficulty(ev.ID)
	if err != nil {
		return Verdict{Malformed: true, Tier: model.TierLow}
	}
	return Verdict{
		Difficulty: d,
		Qualifies:  d > 0 || hasTag(ev.Tags, p.nonceTag),
		Tier:       tierOf(d, p.tierHigh, p.tierMedium),
	}
}

// Tier classifies difficulty using this policy's thresholds.
func (p *Policy) Tier(difficulty int) model.Tier {
	return tierOf(difficulty, p.tierHigh, p.tierMedium)
}
