// Package lsh implements the random-hyperplane bucketing index.
//
// Each record is hashed to the sign pattern of its dot products against a
// fixed set of random planes. Similar vectors collide into the same bucket
// with higher probability than dissimilar ones, so a search only has to
// rank one bucket's candidates instead of the full collection. Single-table
// bucketing trades recall for O(1) candidate selection: a query near a
// plane boundary can miss true neighbors that landed in an adjacent
// bucket. That gap is part of the contract, not widened here by
// multi-probe.
package lsh

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/hupe1980/vecsim/distance"
	"github.com/hupe1980/vecsim/index"
)

// Compile-time checks to ensure Index satisfies the strategy interfaces.
var _ index.Index = (*Index)(nil)
var _ index.Restorable = (*Index)(nil)

// Options contains configuration options for the random-hyperplane index.
type Options struct {
	// Dimension is the fixed vector dimensionality for this index.
	// It must be > 0 and match every inserted and queried vector.
	Dimension int

	// Planes is the number of random hyperplanes. The key space has
	// 2^Planes buckets; more planes mean smaller, purer buckets and a
	// larger recall gap.
	Planes int

	// RandomSeed fixes the plane RNG for deterministic construction.
	// If not set, a random seed (time-based) is used.
	RandomSeed *int64
}

// DefaultOptions contains the default configuration options for the index.
var DefaultOptions = Options{
	Dimension: 768,
	Planes:    10,
}

// Index buckets ids by the sign pattern of their embedding's dot product
// against each plane.
//
// Not safe for concurrent use; the owning engine serializes access.
type Index struct {
	dimension int
	planes    [][]float32
	buckets   map[string][]uint64
}

// New creates a new random-hyperplane index, drawing each plane component
// uniformly from [-1, 1).
func New(optFns ...func(o *Options)) (*Index, error) {
	opts := DefaultOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Dimension <= 0 {
		return nil, fmt.Errorf("lsh: dimension must be > 0, got %d", opts.Dimension)
	}
	if opts.Planes <= 0 {
		return nil, fmt.Errorf("lsh: planes must be > 0, got %d", opts.Planes)
	}

	var rng *rand.Rand
	if opts.RandomSeed != nil {
		rng = rand.New(rand.NewSource(*opts.RandomSeed)) // nolint gosec
	} else {
		rng = rand.New(rand.NewSource(time.Now().UnixNano())) // nolint gosec
	}

	planes := make([][]float32, opts.Planes)
	for p := range planes {
		plane := make([]float32, opts.Dimension)
		for i := range plane {
			plane[i] = 2*rng.Float32() - 1
		}
		planes[p] = plane
	}

	return &Index{
		dimension: opts.Dimension,
		planes:    planes,
		buckets:   make(map[string][]uint64),
	}, nil
}

// Restore rebuilds an index over a previously exported plane set, so
// bucket keys match the run that persisted the planes. The buckets start
// empty; the caller re-inserts records.
func Restore(planes [][]float32) (*Index, error) {
	if len(planes) == 0 {
		return nil, errors.New("lsh: no planes to restore")
	}

	dim := len(planes[0])
	if dim == 0 {
		return nil, errors.New("lsh: restored planes have zero dimension")
	}

	cloned := make([][]float32, len(planes))
	for p, plane := range planes {
		if len(plane) != dim {
			return nil, fmt.Errorf("lsh: plane %d has dimension %d, want %d", p, len(plane), dim)
		}
		cloned[p] = append([]float32(nil), plane...)
	}

	return &Index{
		dimension: dim,
		planes:    cloned,
		buckets:   make(map[string][]uint64),
	}, nil
}

// BucketKeyOf returns the bucket key for vec: one character per plane in
// plane order, '1' when the dot product is >= 0, '0' otherwise.
func (idx *Index) BucketKeyOf(vec []float32) string {
	key := make([]byte, len(idx.planes))
	for p, plane := range idx.planes {
		if distance.Dot(plane, vec) >= 0 {
			key[p] = '1'
		} else {
			key[p] = '0'
		}
	}
	return string(key)
}

// Insert places id into the bucket derived from vec, creating the bucket
// on first use. O(Dimension * Planes).
func (idx *Index) Insert(id uint64, vec []float32) {
	key := idx.BucketKeyOf(vec)
	idx.buckets[key] = append(idx.buckets[key], id)
}

// Candidates returns the ids sharing vec's bucket in insertion order, or
// nil when the bucket was never created. The slice aliases internal
// memory; callers must not mutate it.
func (idx *Index) Candidates(vec []float32) []uint64 {
	return idx.buckets[idx.BucketKeyOf(vec)]
}

// BucketCount reports the number of existing buckets.
func (idx *Index) BucketCount() int {
	return len(idx.buckets)
}

// Dimension returns the fixed vector dimensionality of the index.
func (idx *Index) Dimension() int {
	return idx.dimension
}

// Planes returns a deep copy of the hyperplane set for persistence.
func (idx *Index) Planes() [][]float32 {
	out := make([][]float32, len(idx.planes))
	for p, plane := range idx.planes {
		out[p] = append([]float32(nil), plane...)
	}
	return out
}
