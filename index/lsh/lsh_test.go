package lsh

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSeeded(t *testing.T, dim, planes int, seed int64) *Index {
	t.Helper()

	idx, err := New(func(o *Options) {
		o.Dimension = dim
		o.Planes = planes
		o.RandomSeed = &seed
	})
	require.NoError(t, err)

	return idx
}

func TestNew(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		idx, err := New()
		require.NoError(t, err)
		assert.Equal(t, 768, idx.Dimension())
		assert.Len(t, idx.Planes(), 10)
	})

	t.Run("InvalidDimension", func(t *testing.T) {
		_, err := New(func(o *Options) { o.Dimension = 0 })
		assert.Error(t, err)
	})

	t.Run("InvalidPlanes", func(t *testing.T) {
		_, err := New(func(o *Options) {
			o.Dimension = 4
			o.Planes = -1
		})
		assert.Error(t, err)
	})

	t.Run("PlaneComponentsInRange", func(t *testing.T) {
		idx := newSeeded(t, 16, 8, 1)
		for _, plane := range idx.Planes() {
			require.Len(t, plane, 16)
			for _, c := range plane {
				assert.GreaterOrEqual(t, c, float32(-1))
				assert.Less(t, c, float32(1))
			}
		}
	})
}

func TestBucketKeyOf(t *testing.T) {
	idx := newSeeded(t, 8, 10, 42)

	t.Run("KeyShape", func(t *testing.T) {
		key := idx.BucketKeyOf([]float32{1, 0, 0, 0, 0, 0, 0, 0})
		require.Len(t, key, 10)
		for _, c := range key {
			assert.Contains(t, []rune{'0', '1'}, c)
		}
	})

	t.Run("Deterministic", func(t *testing.T) {
		v := []float32{0.3, -0.2, 0.7, 0, 0.1, -0.9, 0.4, 0.5}
		assert.Equal(t, idx.BucketKeyOf(v), idx.BucketKeyOf(v))
	})

	t.Run("ScaleInvariant", func(t *testing.T) {
		v := []float32{0.3, -0.2, 0.7, 0, 0.1, -0.9, 0.4, 0.5}
		scaled := make([]float32, len(v))
		for i := range v {
			scaled[i] = v[i] * 3
		}
		// Dot product signs do not change under positive scaling.
		assert.Equal(t, idx.BucketKeyOf(v), idx.BucketKeyOf(scaled))
	})

	t.Run("SameSeedSameKeys", func(t *testing.T) {
		other := newSeeded(t, 8, 10, 42)
		v := []float32{1, 2, 3, 4, -1, -2, -3, -4}
		assert.Equal(t, idx.BucketKeyOf(v), other.BucketKeyOf(v))
	})
}

func TestInsertAndCandidates(t *testing.T) {
	idx := newSeeded(t, 4, 6, 7)

	v := []float32{1, 2, 3, 4}
	idx.Insert(1, v)
	idx.Insert(2, v)

	t.Run("InsertionOrder", func(t *testing.T) {
		assert.Equal(t, []uint64{1, 2}, idx.Candidates(v))
	})

	t.Run("ScaledVectorSharesBucket", func(t *testing.T) {
		assert.Equal(t, []uint64{1, 2}, idx.Candidates([]float32{2, 4, 6, 8}))
	})

	t.Run("MissingBucket", func(t *testing.T) {
		// The opposite vector flips every non-zero dot sign, so it
		// cannot share v's bucket unless some dot is exactly zero.
		opposite := []float32{-1, -2, -3, -4}
		if idx.BucketKeyOf(opposite) != idx.BucketKeyOf(v) {
			assert.Nil(t, idx.Candidates(opposite))
		}
	})

	t.Run("BucketCount", func(t *testing.T) {
		assert.Equal(t, 1, idx.BucketCount())

		idx.Insert(3, []float32{-1, -2, -3, -4})
		assert.Equal(t, 2, idx.BucketCount())
	})
}

func TestRestore(t *testing.T) {
	t.Run("ReproducesKeys", func(t *testing.T) {
		original := newSeeded(t, 8, 10, 99)

		restored, err := Restore(original.Planes())
		require.NoError(t, err)
		assert.Equal(t, 8, restored.Dimension())

		vectors := [][]float32{
			{1, 0, 0, 0, 0, 0, 0, 0},
			{0.5, -0.5, 0.25, 0, 1, -1, 0.1, 0.9},
			{-3, 2, -1, 0.5, 0, 0, 7, -2},
		}
		for _, v := range vectors {
			assert.Equal(t, original.BucketKeyOf(v), restored.BucketKeyOf(v))
		}
	})

	t.Run("StartsEmpty", func(t *testing.T) {
		original := newSeeded(t, 4, 4, 5)
		original.Insert(1, []float32{1, 2, 3, 4})

		restored, err := Restore(original.Planes())
		require.NoError(t, err)
		assert.Equal(t, 0, restored.BucketCount())
	})

	t.Run("Validates", func(t *testing.T) {
		_, err := Restore(nil)
		assert.Error(t, err)

		_, err = Restore([][]float32{{}})
		assert.Error(t, err)

		_, err = Restore([][]float32{{1, 2}, {1}})
		assert.Error(t, err)
	})
}

func TestPlanesIsCopy(t *testing.T) {
	idx := newSeeded(t, 4, 4, 11)

	v := []float32{1, -2, 3, -4}
	before := idx.BucketKeyOf(v)

	planes := idx.Planes()
	for _, plane := range planes {
		for i := range plane {
			plane[i] = 0
		}
	}

	assert.Equal(t, before, idx.BucketKeyOf(v))
}
