package ranker

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"coursesearch/internal/adapter/memstore"
	"coursesearch/internal/domain"
	"coursesearch/internal/logging"
	"coursesearch/internal/port"
)

// VectorRanker scores every catalog entry by cosine similarity between the
// query embedding and the title embedding.
type VectorRanker struct {
	catalog  *memstore.Catalog
	embedder port.Embedder
	logger   *log.Logger
}

func NewVectorRanker(catalog *memstore.Catalog, embedder port.Embedder, logger *log.Logger) *VectorRanker {
	return &VectorRanker{
		catalog:  catalog,
		embedder: embedder,
		logger:   logging.Component(logger, "vector"),
	}
}

func (r *VectorRanker) Name() string { return "vector" }

func (r *VectorRanker) Rank(ctx context.Context, query string, k int) ([]domain.RankedResult, error) {
	if r.catalog.Len() == 0 {
		return nil, domain.ErrCatalogEmpty
	}

	embeddings, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, &domain.EmbeddingError{Text: query, Err: err}
	}
	if len(embeddings) != 1 {
		return nil, &domain.EmbeddingError{Text: query, Err: fmt.Errorf("expected 1 vector, got %d", len(embeddings))}
	}
	queryVec := embeddings[0]
	if len(queryVec) != r.catalog.Dimension() {
		return nil, &domain.EmbeddingError{
			Text: query,
			Err:  fmt.Errorf("query dimension mismatch: expected %d, got %d", r.catalog.Dimension(), len(queryVec)),
		}
	}

	courses := r.catalog.Courses()
	scored := make([]domain.RankedResult, 0, len(courses))
	for _, course := range courses {
		scored = append(scored, domain.NewRankedResult(course.CourseRecord, CosineSimilarity(queryVec, course.Embedding)))
	}

	results := Finalize(scored, k)
	r.logger.Debug("ranked", "query", query, "candidates", len(scored), "returned", len(results))
	return results, nil
}
