package octree

import "log/slog"

// Defaults used when the corresponding option is not given.
const (
	DefaultCapacity = 64
	DefaultMaxDepth = 2
)

type options struct {
	capacity  int
	maxDepth  int
	scheduler Scheduler
	observer  Observer
	metrics   MetricsCollector
	logger    *slog.Logger
}

// Option configures an Index.
type Option func(*options)

// WithCapacity sets how many entries a leaf holds before it becomes a split candidate.
// Values below 1 select DefaultCapacity.
func WithCapacity(n int) Option {
	return func(o *options) {
		if n < 1 {
			n = DefaultCapacity
		}
		o.capacity = n
	}
}

// WithMaxDepth sets the deepest level a block may be split to. The blocks created by
// Initialize are depth 1, so a max depth of 1 disables splitting entirely.
// Values below 1 select DefaultMaxDepth.
func WithMaxDepth(d int) Option {
	return func(o *options) {
		if d < 1 {
			d = DefaultMaxDepth
		}
		o.maxDepth = d
	}
}

// WithScheduler routes deferred rebalance passes through s, typically the host's frame or
// tick queue. Without it the index queues passes internally and runs them on Flush.
func WithScheduler(s Scheduler) Option {
	return func(o *options) {
		o.scheduler = s
	}
}

// WithObserver attaches a structural change observer, such as a debug renderer.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		o.observer = obs
	}
}

// WithMetrics sets the metrics collector. A nil collector disables metrics.
func WithMetrics(m MetricsCollector) Option {
	return func(o *options) {
		if m == nil {
			m = NoopMetricsCollector{}
		}
		o.metrics = m
	}
}

// WithLogger sets the logger used for rebalance and observer diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}
