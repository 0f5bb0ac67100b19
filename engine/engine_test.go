package engine

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vecsim/model"
)

type recordingLogger struct {
	mu       sync.Mutex
	warnings []string
}

func (l *recordingLogger) Infof(string, ...any) {}

func (l *recordingLogger) Warnf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warnings = append(l.warnings, fmt.Sprintf(format, args...))
}

func (l *recordingLogger) Errorf(string, ...any) {}

func (l *recordingLogger) Warnings() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]string(nil), l.warnings...)
}

func newTestEngine(t *testing.T, optFns ...func(o *Options)) *Engine {
	t.Helper()

	base := []func(o *Options){
		func(o *Options) {
			o.Dimension = 4
			o.Planes = 6
		},
	}

	e, err := New("test", append(base, optFns...)...)
	require.NoError(t, err)

	return e
}

func TestNew(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		e, err := New("docs")
		require.NoError(t, err)
		assert.Equal(t, "docs", e.Name())
		assert.Equal(t, 768, e.Dimension())
	})

	t.Run("InvalidDimension", func(t *testing.T) {
		_, err := New("docs", func(o *Options) {
			o.Dimension = 0
		})
		require.Error(t, err)
	})

	t.Run("InvalidPlanes", func(t *testing.T) {
		_, err := New("docs", func(o *Options) {
			o.Dimension = 4
			o.Planes = -1
		})
		require.Error(t, err)
	})
}

func TestAdd(t *testing.T) {
	t.Run("AssignsSequentialIDs", func(t *testing.T) {
		e := newTestEngine(t)

		for i, want := range []string{"1", "2", "3"} {
			rec, err := e.Add(fmt.Sprintf("doc-%d", i), []float32{1, 0, 0, 0})
			require.NoError(t, err)
			assert.Equal(t, want, rec.ID)
			assert.Equal(t, fmt.Sprintf("doc-%d", i), rec.DocumentID)
		}
	})

	t.Run("DimensionMismatch", func(t *testing.T) {
		e := newTestEngine(t)

		before := e.Stats().UsedBytes

		_, err := e.Add("doc-a", []float32{1, 0})
		require.Error(t, err)

		var dm *ErrDimensionMismatch
		require.ErrorAs(t, err, &dm)
		assert.Equal(t, 4, dm.Expected)
		assert.Equal(t, 2, dm.Actual)

		assert.Equal(t, before, e.Stats().UsedBytes, "rejected add must not touch the budget")
	})

	t.Run("CountsBytes", func(t *testing.T) {
		e := newTestEngine(t)

		_, err := e.Add("doc-a", []float32{1, 0, 0, 0})
		require.NoError(t, err)
		_, err = e.Add("doc-b", []float32{0, 1, 0, 0})
		require.NoError(t, err)

		assert.Equal(t, int64(2*4*model.BytesPerComponent), e.Stats().UsedBytes)
	})
}

func TestCapacity(t *testing.T) {
	perRecord := int64(4 * model.BytesPerComponent)

	e := newTestEngine(t, func(o *Options) {
		o.MemoryCeilingBytes = 3 * perRecord
	})

	for i := range 3 {
		_, err := e.Add(fmt.Sprintf("doc-%d", i), []float32{1, 0, 0, 0})
		require.NoError(t, err)
	}

	_, err := e.Add("doc-overflow", []float32{1, 0, 0, 0})
	require.Error(t, err)

	var ce *ErrCapacityExceeded
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, perRecord, ce.RequestedBytes)
	assert.Equal(t, 3*perRecord, ce.UsedBytes)
	assert.Equal(t, 3*perRecord, ce.CeilingBytes)

	assert.Equal(t, 3*perRecord, e.Stats().UsedBytes, "failed add must leave usage unchanged")

	// Freeing one record makes room for exactly one more.
	require.Equal(t, 1, e.Remove("doc-0"))

	_, err = e.Add("doc-fits", []float32{0, 1, 0, 0})
	require.NoError(t, err)

	_, err = e.Add("doc-overflow", []float32{0, 0, 1, 0})
	require.Error(t, err)
}

func TestExactSearch(t *testing.T) {
	t.Run("SelfMatch", func(t *testing.T) {
		e := newTestEngine(t)

		v := []float32{0.3, -1.2, 0.05, 2.4}
		_, err := e.Add("doc-a", v)
		require.NoError(t, err)

		results, err := e.ExactSearch(v, 1)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "1", results[0].ID)
		assert.InDelta(t, 1.0, results[0].Score, 1e-6)
	})

	t.Run("OrdersByDescendingScore", func(t *testing.T) {
		e := newTestEngine(t)

		_, err := e.Add("doc-a", []float32{1, 0, 0, 0})
		require.NoError(t, err)
		_, err = e.Add("doc-b", []float32{0, 1, 0, 0})
		require.NoError(t, err)
		_, err = e.Add("doc-c", []float32{0.999, 0.001, 0, 0})
		require.NoError(t, err)

		results, err := e.ExactSearch([]float32{1, 0, 0, 0}, 3)
		require.NoError(t, err)
		require.Len(t, results, 3)

		assert.Equal(t, []string{"1", "3", "2"}, []string{results[0].ID, results[1].ID, results[2].ID})
		assert.InDelta(t, 1.0, results[0].Score, 1e-6)
		assert.Greater(t, results[1].Score, float32(0.999))
		assert.InDelta(t, 0.0, results[2].Score, 1e-6)
	})

	t.Run("TiesBreakOnAscendingID", func(t *testing.T) {
		e := newTestEngine(t)

		v := []float32{1, 1, 0, 0}
		_, err := e.Add("doc-a", v)
		require.NoError(t, err)
		_, err = e.Add("doc-b", v)
		require.NoError(t, err)

		results, err := e.ExactSearch(v, 2)
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "1", results[0].ID)
		assert.Equal(t, "2", results[1].ID)
	})

	t.Run("ClampsK", func(t *testing.T) {
		e := newTestEngine(t)

		_, err := e.Add("doc-a", []float32{1, 0, 0, 0})
		require.NoError(t, err)

		results, err := e.ExactSearch([]float32{1, 0, 0, 0}, 10)
		require.NoError(t, err)
		assert.Len(t, results, 1)
	})

	t.Run("NonPositiveKReturnsEmpty", func(t *testing.T) {
		e := newTestEngine(t)

		_, err := e.Add("doc-a", []float32{1, 0, 0, 0})
		require.NoError(t, err)

		results, err := e.ExactSearch([]float32{1, 0, 0, 0}, 0)
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("DimensionMismatch", func(t *testing.T) {
		e := newTestEngine(t)

		_, err := e.ExactSearch([]float32{1, 0}, 1)
		require.Error(t, err)

		var dm *ErrDimensionMismatch
		require.ErrorAs(t, err, &dm)
	})

	t.Run("SkipsRemovedRecords", func(t *testing.T) {
		e := newTestEngine(t)

		v := []float32{1, 0, 0, 0}
		_, err := e.Add("doc-a", v)
		require.NoError(t, err)
		_, err = e.Add("doc-b", v)
		require.NoError(t, err)

		require.Equal(t, 1, e.Remove("doc-a"))

		results, err := e.ExactSearch(v, 10)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "doc-b", results[0].DocumentID)
	})

	t.Run("WithinDocuments", func(t *testing.T) {
		e := newTestEngine(t)

		v := []float32{1, 0, 0, 0}
		_, err := e.Add("doc-a", v)
		require.NoError(t, err)
		_, err = e.Add("doc-a", v)
		require.NoError(t, err)
		_, err = e.Add("doc-b", v)
		require.NoError(t, err)

		results, err := e.ExactSearch(v, 10, func(o *SearchOptions) {
			o.WithinDocuments = []string{"doc-b"}
		})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "doc-b", results[0].DocumentID)
	})

	t.Run("ZeroVectorScoresZero", func(t *testing.T) {
		e := newTestEngine(t)

		_, err := e.Add("doc-a", []float32{0, 0, 0, 0})
		require.NoError(t, err)
		_, err = e.Add("doc-b", []float32{1, 0, 0, 0})
		require.NoError(t, err)

		results, err := e.ExactSearch([]float32{1, 0, 0, 0}, 2)
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "doc-b", results[0].DocumentID)
		assert.Equal(t, float32(0), results[1].Score, "all-zero embeddings rank last, not NaN")
	})
}

func TestApproximateSearch(t *testing.T) {
	// Fixed planes make bucket keys predictable: the first component
	// decides bit one, the second decides bit two.
	planes := [][]float32{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
	}

	setup := func(t *testing.T) *Engine {
		t.Helper()

		e, report, err := Restore("test", nil, planes, func(o *Options) {
			o.Dimension = 4
		})
		require.NoError(t, err)
		require.Zero(t, report.Dropped)

		_, err = e.Add("doc-a", []float32{1, 1, 0, 0})
		require.NoError(t, err)
		_, err = e.Add("doc-b", []float32{2, 1, 0, 0})
		require.NoError(t, err)
		_, err = e.Add("doc-c", []float32{-1, -1, 0, 0})
		require.NoError(t, err)

		return e
	}

	t.Run("SearchesOneBucket", func(t *testing.T) {
		e := setup(t)

		results, err := e.ApproximateSearch([]float32{1, 2, 0, 0}, 10)
		require.NoError(t, err)
		require.Len(t, results, 2)

		for _, r := range results {
			assert.NotEqual(t, "doc-c", r.DocumentID, "other buckets stay untouched")
		}
	})

	t.Run("MissingBucketIsEmpty", func(t *testing.T) {
		e := setup(t)

		results, err := e.ApproximateSearch([]float32{1, -1, 0, 0}, 10)
		require.NoError(t, err, "an unpopulated bucket is a miss, not a failure")
		assert.Empty(t, results)
	})

	t.Run("FiltersStaleBucketEntries", func(t *testing.T) {
		e := setup(t)

		require.Equal(t, 1, e.Remove("doc-b"))

		results, err := e.ApproximateSearch([]float32{1, 2, 0, 0}, 10)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "doc-a", results[0].DocumentID)
	})

	t.Run("WithinDocuments", func(t *testing.T) {
		e := setup(t)

		results, err := e.ApproximateSearch([]float32{1, 2, 0, 0}, 10, func(o *SearchOptions) {
			o.WithinDocuments = []string{"doc-b"}
		})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "doc-b", results[0].DocumentID)
	})

	t.Run("NonPositiveKReturnsEmpty", func(t *testing.T) {
		e := setup(t)

		results, err := e.ApproximateSearch([]float32{1, 1, 0, 0}, -1)
		require.NoError(t, err)
		assert.Empty(t, results)
	})
}

func TestRemove(t *testing.T) {
	t.Run("RemovesAllRecordsOfDocument", func(t *testing.T) {
		e := newTestEngine(t)

		_, err := e.Add("doc-a", []float32{1, 0, 0, 0})
		require.NoError(t, err)
		_, err = e.Add("doc-a", []float32{0, 1, 0, 0})
		require.NoError(t, err)
		_, err = e.Add("doc-b", []float32{0, 0, 1, 0})
		require.NoError(t, err)

		assert.Equal(t, 2, e.Remove("doc-a"))
		assert.Equal(t, 1, e.Stats().Count)
		assert.Equal(t, int64(4*model.BytesPerComponent), e.Stats().UsedBytes)

		assert.Equal(t, 0, e.Remove("doc-a"), "removal is exact, second call finds nothing")
		assert.Equal(t, 0, e.Remove("doc-unknown"))
	})

	t.Run("IDsAreNeverReused", func(t *testing.T) {
		e := newTestEngine(t)

		_, err := e.Add("doc-a", []float32{1, 0, 0, 0})
		require.NoError(t, err)
		_, err = e.Add("doc-a", []float32{0, 1, 0, 0})
		require.NoError(t, err)

		require.Equal(t, 2, e.Remove("doc-a"))

		rec, err := e.Add("doc-b", []float32{0, 0, 1, 0})
		require.NoError(t, err)
		assert.Equal(t, "3", rec.ID)
	})
}

func TestAddBatch(t *testing.T) {
	t.Run("AddsAllValidItems", func(t *testing.T) {
		e := newTestEngine(t)

		records, err := e.AddBatch("doc-a", [][]float32{
			{1, 0, 0, 0},
			{0, 1, 0, 0},
		})
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "1", records[0].ID)
		assert.Equal(t, "2", records[1].ID)
	})

	t.Run("StopsAtFirstFailure", func(t *testing.T) {
		e := newTestEngine(t)

		records, err := e.AddBatch("doc-a", [][]float32{
			{1, 0, 0, 0},
			{1, 0},
			{0, 1, 0, 0},
		})

		var be *BatchError
		require.ErrorAs(t, err, &be)
		assert.Equal(t, 1, be.Index)

		var dm *ErrDimensionMismatch
		require.ErrorAs(t, err, &dm)

		// Items after the failing one are never stored.
		require.Len(t, records, 1)
		assert.Equal(t, "1", records[0].ID)
		assert.Equal(t, 1, e.Stats().Count)

		rec, err := e.Add("doc-b", []float32{0, 0, 1, 0})
		require.NoError(t, err)
		assert.Equal(t, "2", rec.ID, "the aborted slots consumed no ids")
	})
}

func TestRestore(t *testing.T) {
	t.Run("PreservesIDsAndResumesCounter", func(t *testing.T) {
		records := []model.VectorRecord{
			{ID: "1", DocumentID: "doc-a", Embedding: []float32{1, 0, 0, 0}},
			{ID: "2", DocumentID: "doc-b", Embedding: []float32{0, 1, 0, 0}},
			{ID: "5", DocumentID: "doc-c", Embedding: []float32{0, 0, 1, 0}},
		}

		e, report, err := Restore("test", records, nil, func(o *Options) {
			o.Dimension = 4
		})
		require.NoError(t, err)
		assert.Equal(t, 3, report.Restored)
		assert.Zero(t, report.Dropped)

		results, err := e.ExactSearch([]float32{0, 0, 1, 0}, 1)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "5", results[0].ID)

		rec, err := e.Add("doc-d", []float32{1, 1, 0, 0})
		require.NoError(t, err)
		assert.Equal(t, "6", rec.ID, "counter resumes past the highest persisted id")
	})

	t.Run("RoundTripThroughSnapshot", func(t *testing.T) {
		seed := int64(42)

		orig := newTestEngine(t, func(o *Options) {
			o.RandomSeed = &seed
		})

		_, err := orig.Add("doc-a", []float32{1, 1, 0, 0})
		require.NoError(t, err)
		_, err = orig.Add("doc-b", []float32{-1, 0, 1, 0})
		require.NoError(t, err)
		_, err = orig.Add("doc-c", []float32{0.2, -0.4, 0.6, -0.8})
		require.NoError(t, err)
		require.Equal(t, 1, orig.Remove("doc-b"))

		records, planes := orig.Snapshot()

		restored, report, err := Restore("test", records, planes, func(o *Options) {
			o.Dimension = 4
		})
		require.NoError(t, err)
		assert.Equal(t, 2, report.Restored)

		gotRecords, gotPlanes := restored.Snapshot()
		assert.Equal(t, records, gotRecords)
		assert.Equal(t, planes, gotPlanes)

		query := []float32{0.5, 0.5, 0.1, -0.2}

		wantExact, err := orig.ExactSearch(query, 5)
		require.NoError(t, err)
		gotExact, err := restored.ExactSearch(query, 5)
		require.NoError(t, err)
		assert.Equal(t, wantExact, gotExact)

		wantApprox, err := orig.ApproximateSearch(query, 5)
		require.NoError(t, err)
		gotApprox, err := restored.ApproximateSearch(query, 5)
		require.NoError(t, err)
		assert.Equal(t, wantApprox, gotApprox, "restored planes reproduce bucket assignment")
	})

	t.Run("DropsWhatNoLongerFits", func(t *testing.T) {
		logger := &recordingLogger{}

		records := []model.VectorRecord{
			{ID: "1", DocumentID: "doc-a", Embedding: []float32{1, 0, 0, 0}},
			{ID: "2", DocumentID: "doc-b", Embedding: []float32{0, 1, 0, 0}},
			{ID: "3", DocumentID: "doc-c", Embedding: []float32{0, 0, 1, 0}},
		}

		e, report, err := Restore("test", records, nil, func(o *Options) {
			o.Dimension = 4
			o.MemoryCeilingBytes = 2 * 4 * model.BytesPerComponent
			o.Logger = logger
		})
		require.NoError(t, err)
		assert.Equal(t, 2, report.Restored)
		assert.Equal(t, 1, report.Dropped)
		assert.Equal(t, 2, e.Stats().Count)
		assert.NotEmpty(t, logger.Warnings())
	})

	t.Run("DropsBadEntries", func(t *testing.T) {
		records := []model.VectorRecord{
			{ID: "zero", DocumentID: "doc-a", Embedding: []float32{1, 0, 0, 0}},
			{ID: "1", DocumentID: "doc-b", Embedding: []float32{1, 0}},
			{ID: "2", DocumentID: "doc-c", Embedding: []float32{0, 1, 0, 0}},
			{ID: "2", DocumentID: "doc-d", Embedding: []float32{0, 0, 1, 0}},
		}

		e, report, err := Restore("test", records, nil, func(o *Options) {
			o.Dimension = 4
		})
		require.NoError(t, err)
		assert.Equal(t, 1, report.Restored)
		assert.Equal(t, 3, report.Dropped)
		assert.Equal(t, 1, e.Stats().Count)
	})

	t.Run("MismatchedPlanesAreReplaced", func(t *testing.T) {
		logger := &recordingLogger{}

		_, _, err := Restore("test", nil, [][]float32{{1, 0}}, func(o *Options) {
			o.Dimension = 4
			o.Logger = logger
		})
		require.NoError(t, err)
		assert.NotEmpty(t, logger.Warnings())
	})

	t.Run("IDFloorHoldsWithoutRecords", func(t *testing.T) {
		// All records were removed before the save, but the counter
		// still must not fall back.
		e, report, err := Restore("test", nil, nil, func(o *Options) {
			o.Dimension = 4
			o.IDFloor = 7
		})
		require.NoError(t, err)
		assert.Equal(t, 0, report.Restored)

		rec, err := e.Add("doc-a", []float32{1, 0, 0, 0})
		require.NoError(t, err)
		assert.Equal(t, "8", rec.ID)
	})

	t.Run("IDFloorYieldsToHigherRestoredID", func(t *testing.T) {
		records := []model.VectorRecord{
			{ID: "12", DocumentID: "doc-a", Embedding: []float32{1, 0, 0, 0}},
		}

		e, _, err := Restore("test", records, nil, func(o *Options) {
			o.Dimension = 4
			o.IDFloor = 7
		})
		require.NoError(t, err)

		rec, err := e.Add("doc-a", []float32{0, 1, 0, 0})
		require.NoError(t, err)
		assert.Equal(t, "13", rec.ID)
	})
}

func TestSnapshot(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.Add("doc-a", []float32{1, 0, 0, 0})
	require.NoError(t, err)
	_, err = e.Add("doc-b", []float32{0, 1, 0, 0})
	require.NoError(t, err)
	_, err = e.Add("doc-c", []float32{0, 0, 1, 0})
	require.NoError(t, err)
	require.Equal(t, 1, e.Remove("doc-b"))

	records, planes := e.Snapshot()

	require.Len(t, records, 2)
	assert.Equal(t, "1", records[0].ID)
	assert.Equal(t, "3", records[1].ID)
	assert.Len(t, planes, 6)

	// The snapshot owns its embeddings.
	records[0].Embedding[0] = 99

	results, err := e.ExactSearch([]float32{1, 0, 0, 0}, 1)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)
}

func TestStats(t *testing.T) {
	e := newTestEngine(t, func(o *Options) {
		o.MemoryCeilingBytes = 1024
	})

	_, err := e.Add("doc-a", []float32{1, 0, 0, 0})
	require.NoError(t, err)
	_, err = e.Add("doc-b", []float32{0, 1, 0, 0})
	require.NoError(t, err)
	require.Equal(t, 1, e.Remove("doc-a"))

	stats := e.Stats()
	assert.Equal(t, "test", stats.Name)
	assert.Equal(t, 4, stats.Dimension)
	assert.Equal(t, 1, stats.Count)
	assert.Equal(t, int64(4*model.BytesPerComponent), stats.UsedBytes)
	assert.Equal(t, int64(1024), stats.CeilingBytes)
	assert.Equal(t, uint64(2), stats.IDsIssued)
	assert.GreaterOrEqual(t, stats.Buckets, 1)
}

func TestConcurrentAccess(t *testing.T) {
	e := newTestEngine(t)

	const (
		workers = 4
		perWorker = 50
	)

	var wg sync.WaitGroup

	for w := range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for i := range perWorker {
				_, err := e.Add(fmt.Sprintf("doc-%d", w), []float32{float32(i), 1, 0, 0})
				assert.NoError(t, err)

				_, err = e.ExactSearch([]float32{1, 0, 0, 0}, 3)
				assert.NoError(t, err)
			}
		}()
	}

	wg.Wait()

	stats := e.Stats()
	assert.Equal(t, workers*perWorker, stats.Count)
	assert.Equal(t, uint64(workers*perWorker), stats.IDsIssued)
}
