package engine

import (
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/vecsim/distance"
	"github.com/hupe1980/vecsim/index"
	"github.com/hupe1980/vecsim/index/lsh"
	"github.com/hupe1980/vecsim/model"
	"github.com/hupe1980/vecsim/queue"
	"github.com/hupe1980/vecsim/resource"
)

// Options configures an Engine.
type Options struct {
	// Dimension is the required embedding length for every record.
	Dimension int

	// MemoryCeilingBytes caps the embedding bytes the collection may
	// hold. Zero means unlimited.
	MemoryCeilingBytes int64

	// Planes is the number of hashing planes for the bucket index.
	Planes int

	// RandomSeed seeds plane generation. Nil uses a time-based seed.
	RandomSeed *int64

	// IDFloor is the highest id issued by a previous run. The engine
	// never issues an id at or below the floor, so ids stay unique
	// even when the records they were issued for are gone.
	IDFloor uint64

	// Logger receives operational warnings. Nil discards them.
	Logger Logger
}

// DefaultOptions holds the options for a new Engine.
var DefaultOptions = Options{
	Dimension: 768,
	Planes:    10,
}

type storedRecord struct {
	id    uint64
	docID string
	vec   []float32 // nil once removed
	norm  float32
}

// Engine is one collection's in-memory similarity store. Records get a
// strictly increasing internal id on insert; removal tombstones them in
// place so insertion order and id history survive. All mutating calls
// take the write lock, searches share the read lock.
type Engine struct {
	mu sync.RWMutex

	name      string
	dimension int

	records []storedRecord // insertion order, tombstones included
	byID    map[uint64]int // live id -> slot in records
	byDoc   map[string]*IDSet
	live    *IDSet

	idx    index.Index
	budget *resource.Budget
	logger Logger

	// lastID is the highest id ever issued, never reused.
	lastID atomic.Uint64
}

// New creates an empty Engine for one collection.
func New(name string, optFns ...func(o *Options)) (*Engine, error) {
	opts := DefaultOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Dimension <= 0 {
		return nil, fmt.Errorf("dimension must be positive, got %d", opts.Dimension)
	}

	if opts.Logger == nil {
		opts.Logger = NoopLogger()
	}

	idx, err := lsh.New(func(o *lsh.Options) {
		o.Dimension = opts.Dimension
		o.Planes = opts.Planes
		o.RandomSeed = opts.RandomSeed
	})
	if err != nil {
		return nil, err
	}

	e := &Engine{
		name:      name,
		dimension: opts.Dimension,
		byID:      make(map[uint64]int),
		byDoc:     make(map[string]*IDSet),
		live:      NewIDSet(),
		idx:       idx,
		budget:    resource.NewBudget(opts.MemoryCeilingBytes),
		logger:    opts.Logger,
	}
	e.lastID.Store(opts.IDFloor)

	return e, nil
}

// RestoreReport summarizes a Restore.
type RestoreReport struct {
	Restored int
	Dropped  int
}

// Restore rebuilds an Engine from previously persisted records, keeping
// their ids verbatim. The id counter resumes above the highest restored
// id, so ids stay unique across restarts. Records that no longer fit
// the memory ceiling or fail validation are dropped with a warning.
// When planes match the configured dimension the bucket index is
// rebuilt from them, so bucket keys reproduce exactly; otherwise fresh
// planes are drawn.
func Restore(name string, records []model.VectorRecord, planes [][]float32, optFns ...func(o *Options)) (*Engine, RestoreReport, error) {
	e, err := New(name, optFns...)
	if err != nil {
		return nil, RestoreReport{}, err
	}

	if len(planes) > 0 {
		if len(planes[0]) == e.dimension {
			idx, err := lsh.Restore(planes)
			if err != nil {
				e.logger.Warnf("collection %s: stored planes unusable, drawing fresh ones: %v", name, err)
			} else {
				e.idx = idx
			}
		} else {
			e.logger.Warnf("collection %s: stored planes have dimension %d, drawing fresh ones for dimension %d", name, len(planes[0]), e.dimension)
		}
	}

	var report RestoreReport

	for _, rec := range records {
		id, err := model.ParseID(rec.ID)
		if err != nil {
			report.Dropped++
			e.logger.Warnf("collection %s: dropping record: %v", name, err)

			continue
		}

		if err := e.addWithID(id, rec.DocumentID, rec.Embedding); err != nil {
			report.Dropped++
			e.logger.Warnf("collection %s: dropping record %s: %v", name, rec.ID, err)

			continue
		}

		report.Restored++
	}

	return e, report, nil
}

// Name returns the collection name.
func (e *Engine) Name() string {
	return e.name
}

// Dimension returns the required embedding length.
func (e *Engine) Dimension() int {
	return e.dimension
}

// Add validates the embedding, reserves its memory and appends one
// record. The returned record's embedding aliases engine-owned memory
// and must not be mutated by the caller.
func (e *Engine) Add(docID string, embedding []float32) (model.VectorRecord, error) {
	if len(embedding) != e.dimension {
		return model.VectorRecord{}, &ErrDimensionMismatch{Expected: e.dimension, Actual: len(embedding)}
	}

	need := model.EmbeddingBytes(len(embedding))
	if !e.budget.TryReserve(need) {
		return model.VectorRecord{}, &ErrCapacityExceeded{
			RequestedBytes: need,
			UsedBytes:      e.budget.Used(),
			CeilingBytes:   e.budget.Ceiling(),
		}
	}

	vec := slices.Clone(embedding)

	e.mu.Lock()
	defer e.mu.Unlock()

	id := e.lastID.Add(1)
	e.insertLocked(id, docID, vec)

	return model.VectorRecord{
		ID:         model.FormatID(id),
		DocumentID: docID,
		Embedding:  vec,
	}, nil
}

// addWithID is the replay path: it inserts a record under an explicit
// id and bumps the counter past it.
func (e *Engine) addWithID(id uint64, docID string, embedding []float32) error {
	if id == 0 {
		return fmt.Errorf("internal id must be positive")
	}

	if len(embedding) != e.dimension {
		return &ErrDimensionMismatch{Expected: e.dimension, Actual: len(embedding)}
	}

	need := model.EmbeddingBytes(len(embedding))
	if !e.budget.TryReserve(need) {
		return &ErrCapacityExceeded{
			RequestedBytes: need,
			UsedBytes:      e.budget.Used(),
			CeilingBytes:   e.budget.Ceiling(),
		}
	}

	vec := slices.Clone(embedding)

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.byID[id]; exists {
		e.budget.Release(need)
		return fmt.Errorf("duplicate internal id %d", id)
	}

	if last := e.lastID.Load(); id > last {
		e.lastID.Store(id)
	}

	e.insertLocked(id, docID, vec)

	return nil
}

// insertLocked appends a record. Caller holds the write lock and has
// already reserved the memory; vec must be engine-owned.
func (e *Engine) insertLocked(id uint64, docID string, vec []float32) {
	e.byID[id] = len(e.records)
	e.records = append(e.records, storedRecord{
		id:    id,
		docID: docID,
		vec:   vec,
		norm:  distance.Norm(vec),
	})
	e.live.Add(id)
	e.docSet(docID).Add(id)
	e.idx.Insert(id, vec)
}

// AddBatch validates and inserts the embeddings in order, stopping at
// the first failure. The returned records are the items stored before
// the stop; their ids stay issued even when the batch does not finish.
// The error is a *BatchError naming the failing position.
func (e *Engine) AddBatch(docID string, embeddings [][]float32) ([]model.VectorRecord, error) {
	records := make([]model.VectorRecord, 0, len(embeddings))

	for i, embedding := range embeddings {
		rec, err := e.Add(docID, embedding)
		if err != nil {
			return records, &BatchError{Index: i, Err: err}
		}

		records = append(records, rec)
	}

	return records, nil
}

// Remove deletes every record whose document id matches and releases
// their memory. Bucket references stay behind; searches filter them
// against the live set. Returns the number of records removed.
func (e *Engine) Remove(docID string) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	set, ok := e.byDoc[docID]
	if !ok || set.IsEmpty() {
		return 0
	}

	removed := 0

	var freed int64

	for id := range set.Iterator() {
		slot, ok := e.byID[id]
		if !ok {
			continue
		}

		rec := &e.records[slot]
		freed += model.EmbeddingBytes(len(rec.vec))
		rec.vec = nil
		e.live.Remove(id)
		delete(e.byID, id)
		removed++
	}

	delete(e.byDoc, docID)
	e.budget.Release(freed)

	return removed
}

// SearchOptions narrows a search.
type SearchOptions struct {
	// WithinDocuments restricts results to records belonging to the
	// given document ids. Empty means no restriction.
	WithinDocuments []string
}

// ExactSearch scores every live record against the query by cosine
// similarity and returns the top k, highest score first, ties broken by
// ascending internal id. A k larger than the live count clamps; a
// non-positive k returns no results.
func (e *Engine) ExactSearch(query []float32, k int, optFns ...func(o *SearchOptions)) ([]model.SearchResult, error) {
	var opts SearchOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	if len(query) != e.dimension {
		return nil, &ErrDimensionMismatch{Expected: e.dimension, Actual: len(query)}
	}

	if k <= 0 {
		return nil, nil
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	allowed := e.allowedSet(opts.WithinDocuments)
	queryNorm := distance.Norm(query)
	top := queue.NewTopK(k)

	for i := range e.records {
		rec := &e.records[i]
		if rec.vec == nil {
			continue
		}

		if allowed != nil && !allowed.Contains(rec.id) {
			continue
		}

		score := distance.CosineWithNorms(distance.Dot(query, rec.vec), queryNorm, rec.norm)
		top.Consider(rec.id, score)
	}

	return e.materializeLocked(top.Results()), nil
}

// ApproximateSearch scores only the records sharing the query's bucket.
// A query hashing to a bucket no insert ever touched returns empty;
// that recall gap is the contract of single-bucket lookup. A
// non-positive k returns no results.
func (e *Engine) ApproximateSearch(query []float32, k int, optFns ...func(o *SearchOptions)) ([]model.SearchResult, error) {
	var opts SearchOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	if len(query) != e.dimension {
		return nil, &ErrDimensionMismatch{Expected: e.dimension, Actual: len(query)}
	}

	if k <= 0 {
		return nil, nil
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	allowed := e.allowedSet(opts.WithinDocuments)
	queryNorm := distance.Norm(query)
	top := queue.NewTopK(k)

	for _, id := range e.idx.Candidates(query) {
		if !e.live.Contains(id) {
			continue
		}

		if allowed != nil && !allowed.Contains(id) {
			continue
		}

		rec := &e.records[e.byID[id]]
		score := distance.CosineWithNorms(distance.Dot(query, rec.vec), queryNorm, rec.norm)
		top.Consider(id, score)
	}

	return e.materializeLocked(top.Results()), nil
}

// Snapshot returns the live records in insertion order plus the hashing
// planes. Embeddings are copied, so the snapshot may outlive the lock.
func (e *Engine) Snapshot() ([]model.VectorRecord, [][]float32) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	records := make([]model.VectorRecord, 0, e.live.Cardinality())

	for i := range e.records {
		rec := &e.records[i]
		if rec.vec == nil {
			continue
		}

		records = append(records, model.VectorRecord{
			ID:         model.FormatID(rec.id),
			DocumentID: rec.docID,
			Embedding:  slices.Clone(rec.vec),
		})
	}

	var planes [][]float32
	if r, ok := e.idx.(index.Restorable); ok {
		planes = r.Planes()
	}

	return records, planes
}

// Stats returns a point-in-time view of the collection.
func (e *Engine) Stats() model.CollectionStats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return model.CollectionStats{
		Name:         e.name,
		Dimension:    e.dimension,
		Count:        int(e.live.Cardinality()),
		UsedBytes:    e.budget.Used(),
		CeilingBytes: e.budget.Ceiling(),
		Buckets:      e.idx.BucketCount(),
		IDsIssued:    e.lastID.Load(),
	}
}

// materializeLocked turns queue items into results. Caller holds at
// least the read lock.
func (e *Engine) materializeLocked(items []queue.Item) []model.SearchResult {
	results := make([]model.SearchResult, 0, len(items))

	for _, it := range items {
		slot, ok := e.byID[it.ID]
		if !ok {
			continue
		}

		results = append(results, model.SearchResult{
			ID:         model.FormatID(it.ID),
			DocumentID: e.records[slot].docID,
			Score:      it.Score,
		})
	}

	return results
}

// allowedSet unions the posting lists of the requested documents.
// Caller holds at least the read lock. Nil means no restriction.
func (e *Engine) allowedSet(docs []string) *IDSet {
	if len(docs) == 0 {
		return nil
	}

	allowed := NewIDSet()

	for _, docID := range docs {
		if set, ok := e.byDoc[docID]; ok {
			allowed.Or(set)
		}
	}

	return allowed
}

// docSet returns the posting list for a document, creating it if
// needed. Caller holds the write lock.
func (e *Engine) docSet(docID string) *IDSet {
	set, ok := e.byDoc[docID]
	if !ok {
		set = NewIDSet()
		e.byDoc[docID] = set
	}

	return set
}
