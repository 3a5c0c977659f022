package scoring

// Option applies a configuration option to the Policy.
type Option func(*Policy)

// WithNonceTag sets the tag name that declares mining intent.
func WithNonceTag(name string) Option {
	return func(p *Policy) {
		if name != "" {
			p.nonceTag = name
		}
	}
}

// WithTierThresholds sets the minimum difficulty for the high and medium tiers.
// Ignored unless 0 < medium <= high.
func WithTierThresholds(high, medium int) Option {
	return func(p *Policy) {
		if medium > 0 && high >= medium {
			p.tierHigh = high
			p.tierMedium = medium
		}
	}
}
