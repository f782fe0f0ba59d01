package rag

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Common errors for embedding operations
var (
	ErrEmptyTexts      = errors.New("no texts provided for embedding")
	ErrMissingAPIKey   = errors.New("missing API key (set OPENAI_API_KEY or provide in config)")
	ErrEmbeddingFailed = errors.New("embedding generation failed")
)

// EmbeddingRecord pairs one input text with its vector. Records come back in
// input order regardless of how the provider orders its response.
type EmbeddingRecord struct {
	Text      string
	Embedding []float32
	Index     int
}

// Embedder turns corpus and query text into vectors for the chunk store.
type Embedder interface {
	// Embed generates embeddings for the provided texts, one vector per
	// input in input order
	Embed(ctx context.Context, texts []string) ([]EmbeddingRecord, error)
}

// EmbedderConfig configures the OpenAI embedder. Model and Dimension must
// match the chunk store collection the vectors are written to.
type EmbedderConfig struct {
	Model     string
	Dimension int

	// APIKey falls back to the OPENAI_API_KEY environment variable.
	APIKey string
}

// OpenAIEmbedder implements Embedder using OpenAI's embeddings API.
type OpenAIEmbedder struct {
	client    openai.Client
	model     string
	dimension int
}

// NewOpenAIEmbedder creates an OpenAI-backed embedder.
func NewOpenAIEmbedder(cfg EmbedderConfig) (*OpenAIEmbedder, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.Model == "" {
		return nil, errors.New("embedding model cannot be empty")
	}
	if cfg.Dimension <= 0 {
		return nil, ErrInvalidDimension
	}

	return &OpenAIEmbedder{
		client:    openai.NewClient(option.WithAPIKey(apiKey)),
		model:     cfg.Model,
		dimension: cfg.Dimension,
	}, nil
}

// Embed generates embeddings for the provided texts in a single API call,
// restoring input order from the provider's per-datum index.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([]EmbeddingRecord, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyTexts
	}

	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: texts,
		},
		Model:          e.model,
		Dimensions:     openai.Int(int64(e.dimension)),
		EncodingFormat: openai.EmbeddingNewParamsEncodingFormatFloat,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: %d vectors for %d texts", ErrEmbeddingFailed, len(resp.Data), len(texts))
	}

	records := make([]EmbeddingRecord, len(texts))
	for _, data := range resp.Data {
		idx := int(data.Index)
		if idx < 0 || idx >= len(texts) {
			return nil, fmt.Errorf("%w: out-of-range index %d", ErrEmbeddingFailed, idx)
		}

		vector := make([]float32, len(data.Embedding))
		for i, v := range data.Embedding {
			vector[i] = float32(v)
		}

		records[idx] = EmbeddingRecord{
			Text:      texts[idx],
			Embedding: vector,
			Index:     idx,
		}
	}

	return records, nil
}
