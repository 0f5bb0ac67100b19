// Package vecsim provides functionalities for an embedded vector similarity store.
//
// This file implements a fluent builder API for opening directories.
// The builder is immutable - each method returns a new builder with the updated configuration.
package vecsim

import (
	"context"

	"github.com/hupe1980/vecsim/codec"
)

// NewDirectory creates a builder for opening the data directory at
// path.
//
// The builder is immutable - each method returns a new builder with the updated configuration.
// This ensures thread-safety and prevents accidental state sharing.
//
// Example:
//
//	dir, err := vecsim.NewDirectory("./data").
//	    Dimension(768).
//	    MaxCollections(5).
//	    MemoryCeiling(1 << 30).
//	    Open(ctx)
func NewDirectory(path string) DirectoryBuilder {
	return DirectoryBuilder{
		path: path,
	}
}

// DirectoryBuilder is an immutable fluent builder for opening a
// Directory. Each method returns a new builder with the updated
// configuration.
type DirectoryBuilder struct {
	path               string
	dimension          int
	maxCollections     int
	memoryCeilingBytes int64
	planes             int
	randomSeed         *int64
	codec              codec.Codec
	logger             *Logger
	metrics            MetricsCollector
	writeBytesPerSec   int64
}

// Dimension sets the embedding dimensionality every collection
// enforces. Default: DefaultDimension.
func (b DirectoryBuilder) Dimension(dim int) DirectoryBuilder {
	b.dimension = dim
	return b
}

// MaxCollections caps how many collections the directory may hold
// open. Default: DefaultMaxCollections.
func (b DirectoryBuilder) MaxCollections(limit int) DirectoryBuilder {
	b.maxCollections = limit
	return b
}

// MemoryCeiling bounds the embedding bytes each collection may hold.
// Default: unlimited.
func (b DirectoryBuilder) MemoryCeiling(bytes int64) DirectoryBuilder {
	b.memoryCeilingBytes = bytes
	return b
}

// Planes sets the number of random hyperplanes backing approximate
// search in fresh collections. Default: DefaultPlanes.
func (b DirectoryBuilder) Planes(planes int) DirectoryBuilder {
	b.planes = planes
	return b
}

// RandomSeed pins the hyperplane generator for reproducible
// approximate search. If not set, planes are drawn randomly.
func (b DirectoryBuilder) RandomSeed(seed int64) DirectoryBuilder {
	b.randomSeed = &seed
	return b
}

// Codec sets the codec used to encode persisted records.
func (b DirectoryBuilder) Codec(c codec.Codec) DirectoryBuilder {
	b.codec = c
	return b
}

// Logger sets the structured logger for operation tracing.
func (b DirectoryBuilder) Logger(l *Logger) DirectoryBuilder {
	b.logger = l
	return b
}

// Metrics sets the metrics collector for monitoring.
func (b DirectoryBuilder) Metrics(mc MetricsCollector) DirectoryBuilder {
	b.metrics = mc
	return b
}

// WriteThrottle limits persistence writes to bytesPerSec.
// Default: unthrottled.
func (b DirectoryBuilder) WriteThrottle(bytesPerSec int64) DirectoryBuilder {
	b.writeBytesPerSec = bytesPerSec
	return b
}

// Open opens the directory with the accumulated configuration.
func (b DirectoryBuilder) Open(ctx context.Context) (*Directory, error) {
	var opts []Option
	if b.dimension > 0 {
		opts = append(opts, WithDimension(b.dimension))
	}
	if b.maxCollections > 0 {
		opts = append(opts, WithMaxCollections(b.maxCollections))
	}
	if b.memoryCeilingBytes > 0 {
		opts = append(opts, WithMemoryCeiling(b.memoryCeilingBytes))
	}
	if b.planes > 0 {
		opts = append(opts, WithPlanes(b.planes))
	}
	if b.randomSeed != nil {
		opts = append(opts, WithRandomSeed(*b.randomSeed))
	}
	if b.codec != nil {
		opts = append(opts, WithCodec(b.codec))
	}
	if b.logger != nil {
		opts = append(opts, WithLogger(b.logger))
	}
	if b.metrics != nil {
		opts = append(opts, WithMetricsCollector(b.metrics))
	}
	if b.writeBytesPerSec > 0 {
		opts = append(opts, WithWriteThrottle(b.writeBytesPerSec))
	}

	return Open(ctx, b.path, opts...)
}

// MustOpen opens the directory, panicking on error.
func (b DirectoryBuilder) MustOpen(ctx context.Context) *Directory {
	d, err := b.Open(ctx)
	if err != nil {
		panic(err)
	}
	return d
}
