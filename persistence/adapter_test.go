package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vecsim/model"
)

func testSnapshot() Snapshot {
	return Snapshot{
		Dimension: 3,
		Records: []model.VectorRecord{
			{ID: "1", DocumentID: "doc-a", Embedding: []float32{1, 0, 0}},
			{ID: "2", DocumentID: "doc-b", Embedding: []float32{0, 1, 0}},
			{ID: "5", DocumentID: "doc-a", Embedding: []float32{0, 0, 1}},
		},
		Planes: [][]float32{
			{0.5, -0.25, 0.75},
			{-0.1, 0.9, -0.4},
		},
		LastID: 5,
	}
}

func TestSaveLoad(t *testing.T) {
	ctx := context.Background()

	t.Run("RoundTrip", func(t *testing.T) {
		adapter, err := New(t.TempDir())
		require.NoError(t, err)

		snap := testSnapshot()
		require.NoError(t, adapter.Save(ctx, "docs", snap))

		loaded, report, err := adapter.Load(ctx, "docs", 3)
		require.NoError(t, err)

		assert.Equal(t, snap.Records, loaded.Records)
		assert.Equal(t, snap.Planes, loaded.Planes)
		assert.Equal(t, snap.LastID, loaded.LastID)
		assert.Equal(t, 3, report.Loaded)
		assert.Empty(t, report.Skipped)
		assert.Nil(t, report.ChecksumMismatch)
		assert.False(t, report.SidecarMissing)
	})

	t.Run("EmptyCollection", func(t *testing.T) {
		adapter, err := New(t.TempDir())
		require.NoError(t, err)

		snap := testSnapshot()
		snap.Records = nil
		require.NoError(t, adapter.Save(ctx, "docs", snap))

		b, err := os.ReadFile(adapter.RecordsPath("docs"))
		require.NoError(t, err)
		assert.Equal(t, "[]\n", string(b))

		loaded, report, err := adapter.Load(ctx, "docs", 3)
		require.NoError(t, err)
		assert.Empty(t, loaded.Records)
		assert.Equal(t, snap.Planes, loaded.Planes, "planes survive even without records")
		assert.Equal(t, 0, report.Loaded)
	})

	t.Run("MissingFile", func(t *testing.T) {
		adapter, err := New(t.TempDir())
		require.NoError(t, err)

		loaded, report, err := adapter.Load(ctx, "never-saved", 3)
		require.NoError(t, err, "an absent records file is an empty collection, not a failure")
		assert.Empty(t, loaded.Records)
		assert.Nil(t, loaded.Planes)
		assert.Equal(t, 0, report.Loaded)
	})

	t.Run("RecordsFileIsPlainJSON", func(t *testing.T) {
		adapter, err := New(t.TempDir())
		require.NoError(t, err)

		snap := testSnapshot()
		require.NoError(t, adapter.Save(ctx, "docs", snap))

		// The records file must stay readable by stock JSON tooling,
		// with no headers or framing around the array.
		b, err := os.ReadFile(adapter.RecordsPath("docs"))
		require.NoError(t, err)

		var records []model.VectorRecord
		require.NoError(t, json.Unmarshal(b, &records))
		assert.Equal(t, snap.Records, records)
	})

	t.Run("SidecarMetadata", func(t *testing.T) {
		adapter, err := New(t.TempDir())
		require.NoError(t, err)

		require.NoError(t, adapter.Save(ctx, "docs", testSnapshot()))

		b, err := os.ReadFile(adapter.MetaPath("docs"))
		require.NoError(t, err)

		var meta Meta
		require.NoError(t, json.Unmarshal(b, &meta))

		assert.Equal(t, FormatVersion, meta.Version)
		assert.Equal(t, 3, meta.Dimension)
		assert.Equal(t, 3, meta.Count)
		assert.Equal(t, uint64(5), meta.LastID)
		assert.NotZero(t, meta.Checksum)
		assert.Len(t, meta.Planes, 2)
		assert.False(t, meta.SavedAt.IsZero())
	})

	t.Run("OverwriteReplacesWholesale", func(t *testing.T) {
		adapter, err := New(t.TempDir())
		require.NoError(t, err)

		require.NoError(t, adapter.Save(ctx, "docs", testSnapshot()))

		smaller := testSnapshot()
		smaller.Records = smaller.Records[:1]
		require.NoError(t, adapter.Save(ctx, "docs", smaller))

		loaded, report, err := adapter.Load(ctx, "docs", 3)
		require.NoError(t, err)
		assert.Equal(t, smaller.Records, loaded.Records)
		assert.Equal(t, 1, report.Loaded)
	})

	t.Run("CanceledContext", func(t *testing.T) {
		adapter, err := New(t.TempDir())
		require.NoError(t, err)

		canceled, cancel := context.WithCancel(context.Background())
		cancel()

		require.Error(t, adapter.Save(canceled, "docs", testSnapshot()))

		_, _, err = adapter.Load(canceled, "docs", 3)
		require.Error(t, err)
	})
}

func TestLoadSkipsBadEntries(t *testing.T) {
	ctx := context.Background()

	adapter, err := New(t.TempDir())
	require.NoError(t, err)

	content := `[
  {"id":"1","docId":"a","embedding":[1,0,0]},
  {"id":"2","docId":"b","embedding":[1,0]},
  {"id":"x","docId":"c","embedding":[0,1,0]},
  "not an object",
  {"id":"3","docId":"d","embedding":[0,0,1]}
]`
	require.NoError(t, os.WriteFile(adapter.RecordsPath("docs"), []byte(content), 0o644))

	loaded, report, err := adapter.Load(ctx, "docs", 3)
	require.NoError(t, err, "bad entries are skipped, never fatal")

	require.Len(t, loaded.Records, 2)
	assert.Equal(t, "1", loaded.Records[0].ID)
	assert.Equal(t, "3", loaded.Records[1].ID)

	assert.Equal(t, 2, report.Loaded)
	require.Len(t, report.Skipped, 3)
	assert.Equal(t, 1, report.Skipped[0].Index)
	assert.Contains(t, report.Skipped[0].Reason, "dimension mismatch")
	assert.Equal(t, 2, report.Skipped[1].Index)
	assert.Contains(t, report.Skipped[1].Reason, "invalid internal id")
	assert.Equal(t, 3, report.Skipped[2].Index)
	assert.Contains(t, report.Skipped[2].Reason, "malformed record")

	assert.True(t, report.SidecarMissing, "hand-written file has no sidecar")
}

func TestLoadStructuralFailure(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name    string
		content string
	}{
		{name: "NotAnArray", content: `{"records":[]}`},
		{name: "TruncatedArray", content: `[{"id":"1","docId":"a","embedding":[1,0,0]},`},
		{name: "Garbage", content: "this is not json"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			adapter, err := New(t.TempDir())
			require.NoError(t, err)

			require.NoError(t, os.WriteFile(adapter.RecordsPath("docs"), []byte(tc.content), 0o644))

			_, _, err = adapter.Load(ctx, "docs", 3)
			require.Error(t, err)

			var perr *Error
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, "load", perr.Op)
			assert.Equal(t, adapter.RecordsPath("docs"), perr.Path)
		})
	}
}

func TestLoadChecksumMismatch(t *testing.T) {
	ctx := context.Background()

	adapter, err := New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, adapter.Save(ctx, "docs", testSnapshot()))

	// Trailing whitespace keeps the JSON valid but changes the bytes
	// the sidecar checksum was computed over.
	f, err := os.OpenFile(adapter.RecordsPath("docs"), os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("   \n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	loaded, report, err := adapter.Load(ctx, "docs", 3)
	require.NoError(t, err, "a checksum mismatch is reported, not fatal")

	assert.Len(t, loaded.Records, 3)
	require.NotNil(t, report.ChecksumMismatch)
	assert.NotEqual(t, report.ChecksumMismatch.Expected, report.ChecksumMismatch.Actual)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()

	adapter, err := New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, adapter.Save(ctx, "docs", testSnapshot()))

	existed, err := adapter.Delete("docs")
	require.NoError(t, err)
	assert.True(t, existed)

	_, err = os.Stat(adapter.RecordsPath("docs"))
	assert.True(t, errors.Is(err, os.ErrNotExist))

	_, err = os.Stat(adapter.MetaPath("docs"))
	assert.True(t, errors.Is(err, os.ErrNotExist))

	existed, err = adapter.Delete("docs")
	require.NoError(t, err)
	assert.False(t, existed)
}

func TestDiscoverCollections(t *testing.T) {
	ctx := context.Background()

	adapter, err := New(t.TempDir())
	require.NoError(t, err)

	t.Run("Empty", func(t *testing.T) {
		names, err := adapter.DiscoverCollections()
		require.NoError(t, err)
		assert.Empty(t, names)
	})

	t.Run("FindsRecordsFiles", func(t *testing.T) {
		require.NoError(t, adapter.Save(ctx, "beta", testSnapshot()))
		require.NoError(t, adapter.Save(ctx, "alpha", testSnapshot()))

		require.NoError(t, os.WriteFile(adapter.Dir()+"/notes.txt", []byte("stray"), 0o644))
		require.NoError(t, os.Mkdir(adapter.Dir()+"/subdir", 0o755))

		names, err := adapter.DiscoverCollections()
		require.NoError(t, err)
		assert.Equal(t, []string{"alpha", "beta"}, names, "sidecars and strays are not collections")
	})
}

func TestValidateName(t *testing.T) {
	ctx := context.Background()

	adapter, err := New(t.TempDir())
	require.NoError(t, err)

	for _, name := range []string{"", "a/b", `a\b`, "../escape", "foo.meta"} {
		require.Error(t, adapter.Save(ctx, name, testSnapshot()), "name %q", name)

		_, _, err := adapter.Load(ctx, name, 3)
		require.Error(t, err, "name %q", name)
	}
}
