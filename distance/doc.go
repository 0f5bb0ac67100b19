// Package distance provides the similarity primitives used for ranking.
//
// Cosine similarity is the only ranking metric of the store. Dot and Norm
// are exposed for index construction and for callers that cache norms.
//
// # Zero-norm convention
//
// Cosine similarity against a zero-norm vector is mathematically
// undefined; this package defines it as 0 rather than propagating NaN,
// so all-zero embeddings rank last instead of poisoning result order.
//
// # Usage
//
//	sim := distance.Cosine(a, b)
//	sim := distance.CosineWithNorms(distance.Dot(a, b), normA, normB)
package distance
