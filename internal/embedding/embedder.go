// Package embedding provides text embedding via a remote provider, with caching.
package embedding

import "context"

// Embedder produces vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}

// ZeroVector returns the documented degraded embedding: a zero vector of the
// given dimension, substituted when the provider fails so one bad record
// never blocks the rest of a batch.
func ZeroVector(dim int) []float32 {
	return make([]float32, dim)
}
