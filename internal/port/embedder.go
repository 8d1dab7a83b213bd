package port

import "context"

// Embedder generates vector embeddings for text.
type Embedder interface {
	// Embed generates embeddings for the given texts.
	// Returns a slice of vectors, one per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// ModelName returns the name of the embedding model.
	ModelName() string
}

// EmbeddingCache keeps title vectors between runs, keyed by model and text.
type EmbeddingCache interface {
	// Lookup returns the cached vector for text under model, if any.
	Lookup(model, text string) ([]float32, bool)

	// Store saves vectors for texts under model.
	Store(model string, texts []string, vectors [][]float32) error
}
