package distance

import (
	"slices"

	"github.com/hupe1980/vecsim/internal/math32"
)

// Dot calculates the dot product of two vectors.
// Assumes vectors are the same length (caller's responsibility).
func Dot(a, b []float32) float32 {
	return math32.Dot(a, b)
}

// Norm returns the L2 norm of v.
func Norm(v []float32) float32 {
	return math32.Norm(v)
}

// Cosine returns the cosine similarity of a and b, dot(a,b)/(|a|*|b|),
// in the range [-1, 1] up to floating point error. If either operand has
// zero norm the similarity is defined as 0.
func Cosine(a, b []float32) float32 {
	return CosineWithNorms(math32.Dot(a, b), math32.Norm(a), math32.Norm(b))
}

// CosineWithNorms computes cosine similarity from a precomputed dot
// product and operand norms. Search paths cache record norms at insert
// time and the query norm once per query, leaving one Dot per candidate.
func CosineWithNorms(dot, normA, normB float32) float32 {
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (normA * normB)
}

// NormalizeL2InPlace L2-normalizes v in place.
// Returns false if v has zero L2 norm.
func NormalizeL2InPlace(v []float32) bool {
	if len(v) == 0 {
		return false
	}
	norm := math32.Norm(v)
	if norm == 0 {
		return false
	}
	math32.ScaleInPlace(v, 1/norm)
	return true
}

// NormalizeL2Copy returns a normalized copy of src.
// Returns false if src has zero L2 norm.
func NormalizeL2Copy(src []float32) ([]float32, bool) {
	dst := slices.Clone(src)
	if !NormalizeL2InPlace(dst) {
		return nil, false
	}
	return dst, true
}
