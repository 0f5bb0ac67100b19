package embedding

import (
	"context"
	"errors"
)

// ErrNoInput is returned when an embed call receives no text.
var ErrNoInput = errors.New("no text provided for embedding")

// Source turns text into fixed-length embeddings. A Source is the
// upstream collaborator of a collection: whatever it returns goes
// straight into Add, where a wrong-length vector fails as an ordinary
// dimension mismatch.
type Source interface {
	// Embed generates the vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates vectors for multiple texts, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the vector length the source produces.
	Dimensions() int
}
