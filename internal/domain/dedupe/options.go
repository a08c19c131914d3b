package dedupe

// Option configures a Deduper.
type Option func(*window)

// WithMaxSize sets how many IDs are remembered. A value <= 0 keeps every
// ID forever.
func WithMaxSize(maxSize int) Option {
	return func(w *window) {
		w.maxSize = maxSize
	}
}
