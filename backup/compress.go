package backup

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the algorithm applied to backup payloads on
// their way into the blob store.
type Compression string

const (
	// CompressionNone stores payloads verbatim.
	CompressionNone Compression = "none"

	// CompressionZSTD favors ratio; the right default for backups that
	// travel over a network.
	CompressionZSTD Compression = "zstd"

	// CompressionLZ4 favors speed over ratio.
	CompressionLZ4 Compression = "lz4"
)

// Validate reports whether c names a known algorithm.
func (c Compression) Validate() error {
	switch c {
	case CompressionNone, CompressionZSTD, CompressionLZ4:
		return nil
	default:
		return fmt.Errorf("unknown compression %q", string(c))
	}
}

// ext returns the object name suffix for the algorithm.
func (c Compression) ext() string {
	switch c {
	case CompressionZSTD:
		return ".zst"
	case CompressionLZ4:
		return ".lz4"
	default:
		return ""
	}
}

// NewWriter wraps w so that everything written is compressed with c.
// The returned writer must be closed to flush the final frame; closing
// it does not close w.
func (c Compression) NewWriter(w io.Writer) (io.WriteCloser, error) {
	switch c {
	case CompressionNone:
		return nopWriteCloser{w}, nil
	case CompressionZSTD:
		return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	case CompressionLZ4:
		return lz4.NewWriter(w), nil
	default:
		return nil, fmt.Errorf("unknown compression %q", string(c))
	}
}

// NewReader wraps r so that reads yield the decompressed payload.
func (c Compression) NewReader(r io.Reader) (io.ReadCloser, error) {
	switch c {
	case CompressionNone:
		return io.NopCloser(r), nil
	case CompressionZSTD:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}

		return dec.IOReadCloser(), nil
	case CompressionLZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	default:
		return nil, fmt.Errorf("unknown compression %q", string(c))
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
