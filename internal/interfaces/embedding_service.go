package interfaces

import "context"

// Embedder turns text into a fixed-length vector
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)

	// Model identifies the embedding model, part of every cache key
	Model() string
}
