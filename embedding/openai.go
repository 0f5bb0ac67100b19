package embedding

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// OpenAIOptions configures an OpenAI-compatible source.
type OpenAIOptions struct {
	// BaseURL overrides the API endpoint. Any OpenAI-compatible
	// provider works: Ollama, vLLM, SiliconFlow and friends all speak
	// this protocol.
	BaseURL string

	// Model is the embedding model name.
	Model string

	// Dimensions asks the model for vectors of this length. Models
	// that support shortening honor it; the collection rejects
	// whatever does not match its own dimension either way.
	Dimensions int
}

// DefaultOpenAIOptions holds the options for a new OpenAI source.
var DefaultOpenAIOptions = OpenAIOptions{
	Model:      string(openai.SmallEmbedding3),
	Dimensions: 768,
}

// OpenAI is a Source backed by an OpenAI-compatible embeddings API.
type OpenAI struct {
	client     *openai.Client
	model      string
	dimensions int
}

// NewOpenAI creates an OpenAI-compatible source.
func NewOpenAI(apiKey string, optFns ...func(o *OpenAIOptions)) (*OpenAI, error) {
	opts := DefaultOpenAIOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Model == "" {
		return nil, errors.New("embedding: model must not be empty")
	}

	if opts.Dimensions <= 0 {
		return nil, errors.New("embedding: dimensions must be positive")
	}

	clientConfig := openai.DefaultConfig(apiKey)
	if opts.BaseURL != "" {
		clientConfig.BaseURL = opts.BaseURL
	}

	return &OpenAI{
		client:     openai.NewClientWithConfig(clientConfig),
		model:      opts.Model,
		dimensions: opts.Dimensions,
	}, nil
}

// Embed implements Source.
func (o *OpenAI) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := o.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}

	return vectors[0], nil
}

// EmbedBatch implements Source.
func (o *OpenAI) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ErrNoInput
	}

	resp, err := o.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:      texts,
		Model:      openai.EmbeddingModel(o.model),
		Dimensions: o.dimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding: request failed: %w", err)
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding: expected %d vectors, got %d", len(texts), len(resp.Data))
	}

	vectors := make([][]float32, len(resp.Data))
	for i, data := range resp.Data {
		vectors[i] = data.Embedding
	}

	return vectors, nil
}

// Dimensions implements Source.
func (o *OpenAI) Dimensions() int {
	return o.dimensions
}
