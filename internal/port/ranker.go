package port

import (
	"context"

	"coursesearch/internal/domain"
)

// Ranker scores the catalog against a query.
type Ranker interface {
	// Rank returns at most k results, highest score first, unique by title.
	Rank(ctx context.Context, query string, k int) ([]domain.RankedResult, error)

	// Name identifies the ranking strategy.
	Name() string
}
