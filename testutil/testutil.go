package testutil

import (
	"math"
	"math/rand"
	"sort"
	"sync"
)

// Result is one ranked entry of a ground-truth search, identified by
// the vector's position in the candidate slice.
type Result struct {
	Index int
	Score float32
}

// RNG is a seeded, thread-safe random source for test vectors.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float32 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float32() float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float32()
}

// UniformVectors generates random vectors with components in [0, 1).
// A single backing array keeps allocation cheap for large test sets.
func (r *RNG) UniformVectors(num, dimensions int) [][]float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float32, num*dimensions)
	vectors := make([][]float32, num)

	for i := range num {
		vec := data[i*dimensions : (i+1)*dimensions]
		for j := range vec {
			vec[j] = r.rand.Float32()
		}
		vectors[i] = vec
	}

	return vectors
}

// UniformRangeVectors generates random vectors with components in
// [-1, 1), matching the distribution the hyperplane index draws its
// planes from.
func (r *RNG) UniformRangeVectors(num, dimensions int) [][]float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float32, num*dimensions)
	vectors := make([][]float32, num)

	for i := range num {
		vec := data[i*dimensions : (i+1)*dimensions]
		for j := range vec {
			vec[j] = r.rand.Float32()*2 - 1
		}
		vectors[i] = vec
	}

	return vectors
}

// UnitVector returns a basis vector of the given dimension with a 1 at
// axis and 0 elsewhere.
func UnitVector(dimensions, axis int) []float32 {
	vec := make([]float32, dimensions)
	vec[axis] = 1

	return vec
}

// CosineSimilarity computes the cosine similarity of two equal-length
// vectors in float64 precision. A zero-norm input scores 0.
func CosineSimilarity(a, b []float32) float32 {
	var dot, na, nb float64

	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}

	if na == 0 || nb == 0 {
		return 0
	}

	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}

// BruteForceSearch ranks every candidate against the query by cosine
// similarity and returns the top k, ties broken by ascending index.
// It is the ground truth approximate search is measured against.
func BruteForceSearch(query []float32, candidates [][]float32, k int) []Result {
	results := make([]Result, 0, len(candidates))

	for i, candidate := range candidates {
		results = append(results, Result{
			Index: i,
			Score: CosineSimilarity(query, candidate),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Index < results[j].Index
	})

	if k < len(results) {
		results = results[:k]
	}

	return results
}

// ComputeRecall returns the fraction of expected identifiers present
// in the retrieved set.
func ComputeRecall[T comparable](retrieved, expected []T) float64 {
	if len(expected) == 0 {
		return 1
	}

	set := make(map[T]struct{}, len(retrieved))
	for _, id := range retrieved {
		set[id] = struct{}{}
	}

	hits := 0
	for _, id := range expected {
		if _, ok := set[id]; ok {
			hits++
		}
	}

	return float64(hits) / float64(len(expected))
}
