package vecsim

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/hupe1980/vecsim/engine"
	"github.com/hupe1980/vecsim/model"
	"github.com/hupe1980/vecsim/persistence"
)

// SearchOptions narrows a search to a subset of the collection.
type SearchOptions = engine.SearchOptions

// BatchError reports which batch item stopped an AddBatch call.
type BatchError = engine.BatchError

// Collection is a named store of embeddings inside a Directory. Every
// mutation is persisted to the collection's file pair before the call
// returns; persistence failures are logged and the in-memory state is
// kept, so a full disk degrades durability but never availability.
//
// A Collection is safe for concurrent use.
type Collection struct {
	name   string
	dir    *Directory
	engine *engine.Engine
	saveMu sync.Mutex // Serializes snapshot+save pairs
}

func newCollection(name string, dir *Directory, eng *engine.Engine) *Collection {
	return &Collection{
		name:   name,
		dir:    dir,
		engine: eng,
	}
}

// Name returns the collection name.
func (c *Collection) Name() string {
	return c.name
}

// Dimension returns the embedding dimensionality this collection
// enforces.
func (c *Collection) Dimension() int {
	return c.engine.Dimension()
}

// Add stores one embedding under the given document ID and returns the
// stored record with its newly assigned internal ID. Internal IDs are
// assigned sequentially and never reused, even after removals or
// restarts.
//
// The returned record's embedding references collection-owned memory
// and must not be mutated.
func (c *Collection) Add(ctx context.Context, documentID string, embedding []float32) (model.VectorRecord, error) {
	start := time.Now()
	if c.dir.isClosed() {
		return model.VectorRecord{}, ErrClosed
	}
	rec, err := c.engine.Add(documentID, embedding)
	duration := time.Since(start)
	err = translateError(err)
	c.dir.metrics.RecordAdd(duration, err)
	c.dir.logger.LogAdd(ctx, c.name, rec.ID, len(embedding), err)
	if err != nil {
		return model.VectorRecord{}, err
	}

	_ = c.flush(ctx)

	return rec, nil
}

// AddBatch stores multiple embeddings under the same document ID,
// validating and inserting them in order. The first failing item stops
// the batch: records stored before it stay (their IDs remain issued)
// and a *BatchError names the failing position. One save covers
// whatever was stored.
func (c *Collection) AddBatch(ctx context.Context, documentID string, embeddings [][]float32) ([]model.VectorRecord, error) {
	start := time.Now()
	if c.dir.isClosed() {
		return nil, ErrClosed
	}

	records, err := c.engine.AddBatch(documentID, embeddings)

	var be *engine.BatchError
	if errors.As(err, &be) {
		err = &BatchError{Index: be.Index, Err: translateError(be.Err)}
	}

	duration := time.Since(start)
	failed := len(embeddings) - len(records)
	c.dir.metrics.RecordBatchAdd(len(embeddings), failed, duration)
	c.dir.logger.LogBatchAdd(ctx, c.name, len(embeddings), failed)

	if len(records) > 0 {
		_ = c.flush(ctx)
	}

	return records, err
}

// Remove deletes every record stored under the given document ID and
// returns how many were deleted. Removing an unknown document ID is a
// no-op returning zero. The error is non-nil only when the directory
// has been closed.
func (c *Collection) Remove(ctx context.Context, documentID string) (int, error) {
	start := time.Now()
	if c.dir.isClosed() {
		return 0, ErrClosed
	}
	removed := c.engine.Remove(documentID)
	duration := time.Since(start)
	c.dir.metrics.RecordRemove(removed, duration)
	c.dir.logger.LogRemove(ctx, c.name, documentID, removed)

	if removed > 0 {
		_ = c.flush(ctx)
	}

	return removed, nil
}

// ExactSearch scans every live record and returns the k records whose
// embeddings have the highest cosine similarity to query, ordered by
// descending score. Ties break on ascending internal ID. Fewer than k
// results are returned when the collection holds fewer matches.
func (c *Collection) ExactSearch(ctx context.Context, query []float32, k int, optFns ...func(o *SearchOptions)) ([]model.SearchResult, error) {
	start := time.Now()
	results, err := c.engine.ExactSearch(query, k, optFns...)
	duration := time.Since(start)
	err = translateError(err)
	c.dir.metrics.RecordSearch(k, duration, err)
	c.dir.logger.LogSearch(ctx, c.name, "exact", k, len(results), err)

	return results, err
}

// ApproximateSearch answers from the single hyperplane bucket the
// query hashes to, trading recall for speed. A query that lands in an
// empty bucket returns no results even when close vectors exist in
// neighboring buckets.
func (c *Collection) ApproximateSearch(ctx context.Context, query []float32, k int, optFns ...func(o *SearchOptions)) ([]model.SearchResult, error) {
	start := time.Now()
	results, err := c.engine.ApproximateSearch(query, k, optFns...)
	duration := time.Since(start)
	err = translateError(err)
	c.dir.metrics.RecordSearch(k, duration, err)
	c.dir.logger.LogSearch(ctx, c.name, "approximate", k, len(results), err)

	return results, err
}

// Stats returns a point-in-time snapshot of the collection's counters.
func (c *Collection) Stats() model.CollectionStats {
	return c.engine.Stats()
}

// Flush persists the collection to disk and surfaces any error.
// Mutations already flush on their own, so Flush is only needed to
// retry after a logged save failure or to force a write before backup.
func (c *Collection) Flush(ctx context.Context) error {
	if c.dir.isClosed() {
		return ErrClosed
	}
	return c.flush(ctx)
}

// flush snapshots the collection and writes it out wholesale. The
// error is logged here and also returned so Flush can surface it while
// mutation paths drop it.
func (c *Collection) flush(ctx context.Context) error {
	c.saveMu.Lock()
	defer c.saveMu.Unlock()

	start := time.Now()
	records, planes := c.engine.Snapshot()
	err := c.dir.adapter.Save(ctx, c.name, persistence.Snapshot{
		Dimension: c.engine.Dimension(),
		Records:   records,
		Planes:    planes,
		LastID:    c.engine.Stats().IDsIssued,
	})
	duration := time.Since(start)
	c.dir.metrics.RecordSave(duration, err)
	c.dir.logger.LogSave(ctx, c.name, len(records), err)

	return err
}
