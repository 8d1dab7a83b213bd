package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrCatalogEmpty indicates a search against a catalog with no entries.
	ErrCatalogEmpty = errors.New("catalog is empty")

	// ErrEmbedding is matched by every *EmbeddingError.
	ErrEmbedding = errors.New("embedding failed")

	// ErrRemoteModel is matched by every *RemoteModelError.
	ErrRemoteModel = errors.New("remote model failed")

	// ErrParse is matched by every *ParseError.
	ErrParse = errors.New("malformed model response line")
)

// EmbeddingError reports that a text could not be turned into a vector.
type EmbeddingError struct {
	Text string
	Err  error
}

func (e *EmbeddingError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("embedding %q failed", e.Text)
	}
	return fmt.Sprintf("embedding %q: %v", e.Text, e.Err)
}

func (e *EmbeddingError) Unwrap() error { return e.Err }

func (e *EmbeddingError) Is(target error) bool { return target == ErrEmbedding }

// RemoteModelError wraps a failed call to a hosted language model.
type RemoteModelError struct {
	Model string
	Err   error
}

func (e *RemoteModelError) Error() string {
	return fmt.Sprintf("remote model %s: %v", e.Model, e.Err)
}

func (e *RemoteModelError) Unwrap() error { return e.Err }

func (e *RemoteModelError) Is(target error) bool { return target == ErrRemoteModel }

// ParseError describes a single response line that was skipped.
type ParseError struct {
	Line   int
	Text   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s: %q", e.Line, e.Reason, e.Text)
}

func (e *ParseError) Is(target error) bool { return target == ErrParse }
