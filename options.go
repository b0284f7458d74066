package mindquantum

// StateOption is a function type for configuring states at construction.
type StateOption func(*State)

// WithSeed fixes the seed of the state's random source. Measurement and
// trajectory sampling become reproducible for a given seed.
func WithSeed(seed uint64) StateOption {
	return func(s *State) {
		s.seed = seed
	}
}

// WithMetrics shares an external collector instead of the state's own, so
// several independent states report into one place.
func WithMetrics(m *Metrics) StateOption {
	return func(s *State) {
		if m != nil {
			s.metrics = m
		}
	}
}
