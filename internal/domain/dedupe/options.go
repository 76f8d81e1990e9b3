package dedupe

// Option configures a Ring.
type Option func(size *int)

// WithMaxSize sets how many keys are kept. A non-positive size keeps every
// key without eviction.
func WithMaxSize(n int) Option {
	return func(size *int) {
		*size = n
	}
}
