// Package index defines the approximate-index strategy used by collection
// engines. The store's exact search path never goes through an Index; only
// candidate preselection for approximate search does, which keeps the
// algorithm replaceable without touching engine semantics.
package index

// Index maps embeddings to candidate buckets.
//
// Implementations are not safe for concurrent use. The owning engine
// serializes access and validates vector dimensions before calling in.
type Index interface {
	// Insert places id into the bucket derived from vec.
	// Ids arrive in ascending order and are never re-inserted.
	Insert(id uint64, vec []float32)

	// Candidates returns the ids sharing vec's bucket, in insertion
	// order. A vector whose bucket was never created yields nil.
	// The returned slice aliases index-internal memory and must not be
	// mutated by the caller.
	Candidates(vec []float32) []uint64

	// BucketCount reports the number of existing buckets.
	BucketCount() int
}

// Restorable is implemented by indexes that can export the state needed to
// rebuild an identical key space, so bucket assignments survive a restart.
type Restorable interface {
	// Planes returns a deep copy of the hyperplane set.
	Planes() [][]float32
}
