package resource

import (
	"context"
	"io"

	"golang.org/x/time/rate"
)

// IOThrottle caps the byte throughput of persistence and backup writes.
type IOThrottle struct {
	limiter *rate.Limiter
}

// NewIOThrottle creates a throttle allowing bytesPerSec of throughput.
// If bytesPerSec is 0, the throttle is unlimited.
func NewIOThrottle(bytesPerSec int64) *IOThrottle {
	t := &IOThrottle{}

	if bytesPerSec > 0 {
		t.limiter = rate.NewLimiter(rate.Limit(bytesPerSec), int(bytesPerSec))
	}

	return t
}

// Wait blocks until the throttle allows the specified number of bytes.
func (t *IOThrottle) Wait(ctx context.Context, bytes int) error {
	if t == nil || t.limiter == nil {
		return nil
	}
	return t.limiter.WaitN(ctx, bytes)
}

// RateLimitedWriter wraps an io.Writer with rate limiting.
type RateLimitedWriter struct {
	w   io.Writer
	t   *IOThrottle
	ctx context.Context
}

// NewRateLimitedWriter creates a new RateLimitedWriter.
func NewRateLimitedWriter(w io.Writer, t *IOThrottle, ctx context.Context) *RateLimitedWriter {
	return &RateLimitedWriter{
		w:   w,
		t:   t,
		ctx: ctx,
	}
}

func (w *RateLimitedWriter) Write(p []byte) (n int, err error) {
	if err := w.t.Wait(w.ctx, len(p)); err != nil {
		return 0, err
	}
	return w.w.Write(p)
}
