package ranker

import (
	"context"
	"math"

	"github.com/charmbracelet/log"

	"coursesearch/internal/adapter/analyzer"
	"coursesearch/internal/adapter/memstore"
	"coursesearch/internal/domain"
	"coursesearch/internal/logging"
	"coursesearch/internal/port"
)

const (
	bm25K1 = 1.2
	bm25B  = 0.75
)

// LexicalRanker scores titles with BM25 over word tokens. It needs no model,
// so it works offline and as a sanity check for the vector strategy. Scores
// are divided by the best score the query could reach, which keeps them in
// [0,1]. Courses sharing no term with the query are left out.
type LexicalRanker struct {
	catalog   *memstore.Catalog
	tokenizer port.Tokenizer
	postings  map[string]map[int]int // term -> course index -> tf
	lengths   []int
	avgLen    float64
	logger    *log.Logger
}

func NewLexicalRanker(catalog *memstore.Catalog, logger *log.Logger) *LexicalRanker {
	r := &LexicalRanker{
		catalog:   catalog,
		tokenizer: analyzer.NewTokenizer(),
		postings:  make(map[string]map[int]int),
		logger:    logging.Component(logger, "lexical"),
	}

	courses := catalog.Courses()
	r.lengths = make([]int, len(courses))
	total := 0
	for i, course := range courses {
		tokens := r.tokenizer.Tokenize(course.Title)
		r.lengths[i] = len(tokens)
		total += len(tokens)
		for _, t := range tokens {
			if r.postings[t] == nil {
				r.postings[t] = make(map[int]int)
			}
			r.postings[t][i]++
		}
	}
	if len(courses) > 0 {
		r.avgLen = float64(total) / float64(len(courses))
	}
	return r
}

func (r *LexicalRanker) Name() string { return "lexical" }

func (r *LexicalRanker) Rank(ctx context.Context, query string, k int) ([]domain.RankedResult, error) {
	courses := r.catalog.Courses()
	if len(courses) == 0 {
		return nil, domain.ErrCatalogEmpty
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	scores := make(map[int]float64)
	maxScore := 0.0
	N := float64(len(courses))

	for _, term := range r.tokenizer.Tokenize(query) {
		if _, dup := seen[term]; dup {
			continue
		}
		seen[term] = struct{}{}

		postings := r.postings[term]
		n := float64(len(postings))
		idf := math.Log((N-n+0.5)/(n+0.5) + 1)
		maxScore += idf * (bm25K1 + 1)

		for idx, tf := range postings {
			dl := float64(r.lengths[idx])
			f := float64(tf)
			scores[idx] += idf * (f * (bm25K1 + 1)) / (f + bm25K1*(1-bm25B+bm25B*dl/r.avgLen))
		}
	}

	if len(scores) == 0 || maxScore == 0 {
		return []domain.RankedResult{}, nil
	}

	// Catalog order first so ties stay stable after sorting.
	results := make([]domain.RankedResult, 0, len(scores))
	for idx, course := range courses {
		score, ok := scores[idx]
		if !ok {
			continue
		}
		results = append(results, domain.NewRankedResult(course.CourseRecord, math.Min(1, score/maxScore)))
	}

	final := Finalize(results, k)
	r.logger.Debug("ranked", "query", query, "matched", len(results), "returned", len(final))
	return final, nil
}
