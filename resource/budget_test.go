package resource

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBudget(t *testing.T) {
	// Test with ceiling
	b := NewBudget(100)
	assert.Equal(t, int64(100), b.Ceiling())

	// Reserve 50
	ok := b.TryReserve(50)
	require.True(t, ok)
	assert.Equal(t, int64(50), b.Used())

	// Reserve 40
	ok = b.TryReserve(40)
	require.True(t, ok)
	assert.Equal(t, int64(90), b.Used())

	// Reserve 20 (should fail, budget untouched)
	ok = b.TryReserve(20)
	assert.False(t, ok)
	assert.Equal(t, int64(90), b.Used())

	// Exact fit
	ok = b.TryReserve(10)
	require.True(t, ok)
	assert.Equal(t, int64(100), b.Used())

	// Release 50, then 20 fits again
	b.Release(50)
	assert.Equal(t, int64(50), b.Used())

	ok = b.TryReserve(20)
	require.True(t, ok)
	assert.Equal(t, int64(70), b.Used())
}

func TestBudget_Unlimited(t *testing.T) {
	b := NewBudget(0)
	assert.Equal(t, int64(0), b.Ceiling())

	ok := b.TryReserve(1000)
	require.True(t, ok)
	assert.Equal(t, int64(1000), b.Used())

	b.Release(500)
	assert.Equal(t, int64(500), b.Used())
}

func TestBudget_Nil(t *testing.T) {
	var b *Budget

	assert.True(t, b.TryReserve(10))
	b.Release(10)
	assert.Equal(t, int64(0), b.Used())
	assert.Equal(t, int64(0), b.Ceiling())
}

func TestIOThrottle(t *testing.T) {
	t.Run("Unlimited", func(t *testing.T) {
		th := NewIOThrottle(0)
		require.NoError(t, th.Wait(context.Background(), 1<<20))
	})

	t.Run("NilSafe", func(t *testing.T) {
		var th *IOThrottle
		require.NoError(t, th.Wait(context.Background(), 1024))
	})

	t.Run("RateLimitedWriter", func(t *testing.T) {
		var buf bytes.Buffer
		w := NewRateLimitedWriter(&buf, NewIOThrottle(1<<20), context.Background())

		n, err := w.Write([]byte("hello"))
		require.NoError(t, err)
		assert.Equal(t, 5, n)
		assert.Equal(t, "hello", buf.String())
	})
}
