package vecsim

import (
	"log/slog"

	"github.com/hupe1980/vecsim/codec"
)

// Defaults applied by Open when the corresponding option is not set.
const (
	// DefaultDimension is the embedding dimensionality used when
	// WithDimension is not supplied.
	DefaultDimension = 768

	// DefaultMaxCollections caps how many collections a directory may
	// hold open at once.
	DefaultMaxCollections = 5

	// DefaultPlanes is the number of random hyperplanes backing the
	// approximate index of each collection.
	DefaultPlanes = 10
)

type options struct {
	dimension          int
	maxCollections     int
	memoryCeilingBytes int64
	planes             int
	randomSeed         *int64
	codec              codec.Codec
	metricsCollector   MetricsCollector
	logger             *Logger
	writeBytesPerSec   int64
}

// Option configures Open behavior.
//
// Today options primarily exist to avoid exploding the API surface
// (e.g. codec-specific constructor variants).
type Option func(*options)

// WithDimension sets the embedding dimensionality every collection in
// the directory enforces. All vectors added to or searched against a
// collection must have exactly this many components.
//
// If dim <= 0, the default of DefaultDimension is kept.
func WithDimension(dim int) Option {
	return func(o *options) {
		if dim > 0 {
			o.dimension = dim
		}
	}
}

// WithMaxCollections caps the number of collections the directory may
// hold open simultaneously. Creating a collection beyond the cap fails
// with ErrCollectionLimitExceeded; collections already on disk are
// always loaded at startup regardless of the cap.
//
// If limit <= 0, the default of DefaultMaxCollections is kept.
func WithMaxCollections(limit int) Option {
	return func(o *options) {
		if limit > 0 {
			o.maxCollections = limit
		}
	}
}

// WithMemoryCeiling bounds the embedding bytes each collection may
// hold. An Add that would push a collection past the ceiling fails
// with ErrCapacityExceeded before any state changes. Zero means
// unlimited.
func WithMemoryCeiling(bytes int64) Option {
	return func(o *options) {
		o.memoryCeilingBytes = bytes
	}
}

// WithPlanes sets the number of random hyperplanes used by the
// approximate index of newly created collections. More planes make
// buckets smaller: queries get faster but recall drops.
//
// Collections restored from disk keep their persisted planes; this
// option only shapes collections created fresh.
//
// If planes <= 0, the default of DefaultPlanes is kept.
func WithPlanes(planes int) Option {
	return func(o *options) {
		if planes > 0 {
			o.planes = planes
		}
	}
}

// WithRandomSeed pins the hyperplane generator to a fixed seed so
// approximate search becomes reproducible across runs. Without it,
// every fresh collection draws its own random planes.
//
// Mostly useful in tests and benchmarks.
func WithRandomSeed(seed int64) Option {
	return func(o *options) {
		o.randomSeed = &seed
	}
}

// WithCodec configures the codec used for encoding and decoding
// persisted records.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &vecsim.BasicMetricsCollector{}
//	dir, _ := vecsim.Open(ctx, path, vecsim.WithMetricsCollector(metrics))
//	// ... use dir ...
//	stats := metrics.GetStats()
//	fmt.Printf("Adds: %d, Avg latency: %dns\n", stats.AddCount, stats.AddAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := vecsim.NewJSONLogger(slog.LevelInfo)
//	dir, _ := vecsim.Open(ctx, path, vecsim.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithWriteThrottle limits persistence writes to bytesPerSec. Saves
// run synchronously inside mutating operations, so throttling trades
// write latency for less disk pressure. Zero disables throttling.
func WithWriteThrottle(bytesPerSec int64) Option {
	return func(o *options) {
		o.writeBytesPerSec = bytesPerSec
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		dimension:        DefaultDimension,
		maxCollections:   DefaultMaxCollections,
		planes:           DefaultPlanes,
		codec:            nil,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
