// Package model defines the core value types shared across vecsim.
//
// # Identity
//
//   - Internal id: engine-assigned decimal counter starting at 1, unique
//     within a collection, never reused. Carried as a string at API and
//     file boundaries, as uint64 inside the engine.
//   - Document id: caller-supplied, intentionally non-unique (one source
//     document usually yields several chunk records).
//
// # Values
//
//   - VectorRecord: id + document id + fixed-dimension embedding; its JSON
//     tags are the on-disk record contract.
//   - SearchResult: id + document id + cosine similarity score.
//   - CollectionStats / DirectoryStats: observability snapshots.
package model
