package codec

import "go.uber.org/zap"

// Option configures reads and writes of snapshots
type Option func(*options)

type options struct {
	l           *zap.Logger
	legacyUUIDs bool
	metrics     bool
}

func defaultOptions(opts []Option) *options {
	o := &options{l: zap.NewNop()}
	for _, apply := range opts {
		apply(o)
	}
	return o
}

// Logger for codec operations
func Logger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.l = l
		}
	}
}

// WithLegacyUUIDs writes spot records in the legacy format, which carries a
// UUID per spot. Reads accept both formats regardless of this option.
func WithLegacyUUIDs(enabled bool) Option {
	return func(o *options) {
		o.legacyUUIDs = enabled
	}
}

// WithMetrics toggles the collection of table metrics
func WithMetrics(enabled bool) Option {
	return func(o *options) {
		o.metrics = enabled
	}
}
