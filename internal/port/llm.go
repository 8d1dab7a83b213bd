package port

import "context"

// CompletionRequest is a single chat exchange sent to a hosted model.
type CompletionRequest struct {
	System      string
	User        string
	Temperature float64
	MaxTokens   int
}

// LLM represents a language model for text generation.
type LLM interface {
	// Complete sends the request and returns the model's free-text reply.
	Complete(ctx context.Context, req CompletionRequest) (string, error)

	// ModelName returns the name of the model.
	ModelName() string
}
