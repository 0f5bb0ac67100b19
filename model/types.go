package model

import (
	"fmt"
	"strconv"
)

// BytesPerComponent is the storage cost of a single embedding component.
const BytesPerComponent = 4

// EmbeddingBytes returns the number of bytes a stored embedding of the
// given dimension occupies for budget accounting.
func EmbeddingBytes(dimension int) int64 {
	return int64(dimension) * BytesPerComponent
}

// FormatID renders an engine-assigned internal id in its external decimal
// string form.
func FormatID(id uint64) string {
	return strconv.FormatUint(id, 10)
}

// ParseID parses the external decimal string form of an internal id.
func ParseID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid internal id %q: %w", s, err)
	}
	return id, nil
}

// VectorRecord is the immutable persisted form of one stored embedding.
// The field names double as the on-disk JSON contract.
type VectorRecord struct {
	// ID is the engine-assigned internal id, a decimal counter starting
	// at 1. Ids are unique within a collection and never reused, even
	// after removal.
	ID string `json:"id"`

	// DocumentID is the caller-supplied identifier. It is not unique;
	// several records may carry the same DocumentID, one per chunk of
	// the source document.
	DocumentID string `json:"docId"`

	// Embedding has the collection's fixed dimension.
	Embedding []float32 `json:"embedding"`
}

// SearchResult is one ranked entry returned by a search.
type SearchResult struct {
	ID         string  `json:"id"`
	DocumentID string  `json:"docId"`
	Score      float32 `json:"score"`
}

// CollectionStats is a point-in-time snapshot of one collection.
type CollectionStats struct {
	Name         string
	Dimension    int
	Count        int
	UsedBytes    int64
	CeilingBytes int64
	Buckets      int
	IDsIssued    uint64
}

// DirectoryStats aggregates the stats of every open collection.
type DirectoryStats struct {
	MaxCollections int
	Collections    []CollectionStats
}
