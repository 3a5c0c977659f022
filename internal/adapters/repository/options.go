package repository

// Option applies a configuration option to the TreapStore.
type Option func(*TreapStore)

// WithSeed fixes the treap priority seed, for reproducible shapes in tests.
func WithSeed(seed int64) Option {
	return func(s *TreapStore) {
		s.seed = seed
	}
}
