// Package engine implements the per-collection similarity store: record
// ownership, id assignment, memory accounting, bucket indexing and both
// search paths.
//
// Records are embedding-only. The engine never interprets document
// contents; callers bring their own embeddings and get back internal
// ids that stay stable for the life of the collection, including across
// restarts.
package engine
