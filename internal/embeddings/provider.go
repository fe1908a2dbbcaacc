package embeddings

import (
	"context"
	"errors"
)

// ErrEmbeddingFailed wraps every failure to obtain an embedding from a provider
var ErrEmbeddingFailed = errors.New("failed to generate embedding")

// Provider generates embedding vectors from text
type Provider interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
	ModelName() string
}
