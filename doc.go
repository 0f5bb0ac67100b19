// Package vecsim provides an embedded vector similarity store for Go.
//
// Vecsim manages named collections of embeddings inside a single data
// directory, with:
//
//   - Exact cosine search: full scan, deterministic ranking
//   - Approximate cosine search: random hyperplane LSH, single-bucket lookup
//   - Stable internal IDs that survive removals and restarts
//   - Per-collection memory ceilings enforced before any state changes
//   - Whole-file JSON persistence, written atomically after every mutation
//   - Checksummed sidecar metadata with skip-and-warn recovery on load
//   - Structured logging (log/slog) and pluggable metrics collection
//
// # Quick Start
//
// Open a directory and add embeddings:
//
//	ctx := context.Background()
//	dir, err := vecsim.Open(ctx, "./data",
//	    vecsim.WithDimension(768),
//	    vecsim.WithMaxCollections(5),
//	)
//	if err != nil {
//	    panic(err)
//	}
//	defer dir.Close()
//
//	coll, err := dir.Collection("articles")
//	if err != nil {
//	    panic(err)
//	}
//
//	rec, err := coll.Add(ctx, "doc-42", embedding)
//
// Search with the fluent API:
//
//	results, err := coll.Search(query).
//	    K(10).
//	    Approximate().
//	    Execute(ctx)
//
// Or call the search modes directly:
//
//	results, err := coll.ExactSearch(ctx, query, 10)
//	results, err := coll.ApproximateSearch(ctx, query, 10)
//
// # Search Modes
//
// Exact search scans every live record and is the ground truth:
// results come back ordered by descending cosine similarity, ties
// broken by ascending internal ID. Approximate search hashes the query
// onto the collection's random hyperplanes and ranks only the single
// bucket the query lands in. It is much faster on large collections
// but can miss neighbors that hash into adjacent buckets; a query
// landing in an empty bucket returns no results.
//
// # Persistence
//
// Each collection persists as a file pair in the data directory:
// <name>.json holds the records as a plain JSON array readable by any
// JSON tooling, and <name>.meta.json carries format metadata, the
// hyperplanes and a CRC32 checksum. Both are replaced wholesale via
// temp-file-and-rename after every mutation. On load, unreadable
// records are skipped with a warning instead of failing the
// collection, and a damaged collection never blocks its siblings.
//
// For configuration in builder style, see NewDirectory.
package vecsim
