package repository

// Option applies a configuration option to the MemStore.
type Option func(*MemStore)

// WithMaxPerTenant bounds the decisions kept per tenant; older rows are dropped.
func WithMaxPerTenant(n int) Option {
	return func(s *MemStore) {
		if n > 0 {
			s.maxPerTenant = n
		}
	}
}
