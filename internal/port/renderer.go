package port

import (
	"io"

	"coursesearch/internal/domain"
)

// Renderer formats ranked results for display.
type Renderer interface {
	Render(w io.Writer, query string, results []domain.RankedResult) error
}
