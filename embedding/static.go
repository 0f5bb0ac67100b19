package embedding

import (
	"context"
	"errors"
	"hash/fnv"
	"math"
	"strings"
)

// Static is a deterministic in-process Source for tests and examples.
// It hashes words into a fixed number of buckets and L2-normalizes the
// result, so equal texts map to equal vectors and texts sharing words
// score high under cosine similarity. It is not a semantic model.
type Static struct {
	dimensions int
}

// NewStatic creates a Static source producing vectors of the given
// length.
func NewStatic(dimensions int) (*Static, error) {
	if dimensions <= 0 {
		return nil, errors.New("embedding: dimensions must be positive")
	}

	return &Static{dimensions: dimensions}, nil
}

// Embed implements Source.
func (s *Static) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, s.dimensions)

	for _, word := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New64a()
		_, _ = h.Write([]byte(word))
		vec[h.Sum64()%uint64(s.dimensions)]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}

	if norm > 0 {
		inv := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= inv
		}
	}

	return vec, nil
}

// EmbedBatch implements Source.
func (s *Static) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ErrNoInput
	}

	vectors := make([][]float32, len(texts))

	for i, text := range texts {
		vec, err := s.Embed(ctx, text)
		if err != nil {
			return nil, err
		}

		vectors[i] = vec
	}

	return vectors, nil
}

// Dimensions implements Source.
func (s *Static) Dimensions() int {
	return s.dimensions
}
