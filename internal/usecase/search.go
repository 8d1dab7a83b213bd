package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"coursesearch/internal/adapter/memstore"
	"coursesearch/internal/domain"
	"coursesearch/internal/logging"
	"coursesearch/internal/port"
)

// DefaultTopK is used when neither the caller nor the config asks for a size.
const DefaultTopK = 5

// SearchOptions tunes query handling.
type SearchOptions struct {
	TopK    int
	Timeout time.Duration // 0 = wait as long as ctx allows
	Logger  *log.Logger
}

// SearchUseCase answers queries against one catalog with one ranking strategy.
// It never fails: every ranking error is logged and becomes an empty list.
type SearchUseCase struct {
	catalog *memstore.Catalog
	ranker  port.Ranker
	opts    SearchOptions
	logger  *log.Logger
}

func NewSearchUseCase(catalog *memstore.Catalog, ranker port.Ranker, opts SearchOptions) *SearchUseCase {
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	return &SearchUseCase{
		catalog: catalog,
		ranker:  ranker,
		opts:    opts,
		logger:  logging.Component(opts.Logger, "search"),
	}
}

// Search returns at most k courses for query, best first. k <= 0 falls back
// to the configured top K.
func (u *SearchUseCase) Search(ctx context.Context, query string, k int) []domain.RankedResult {
	empty := []domain.RankedResult{}

	if k <= 0 {
		k = u.opts.TopK
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return empty
	}
	if u.catalog.Len() == 0 {
		u.logger.Debug("search on empty catalog", "query", query)
		return empty
	}

	if u.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	results, err := u.ranker.Rank(ctx, query, k)
	if err != nil {
		u.logError(query, err)
		return empty
	}
	if results == nil {
		results = empty
	}

	u.logger.Info("search", "query", query, "strategy", u.ranker.Name(), "results", len(results), "elapsed", time.Since(start))
	return results
}

func (u *SearchUseCase) logError(query string, err error) {
	var (
		embErr    *domain.EmbeddingError
		remoteErr *domain.RemoteModelError
	)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		u.logger.Warn("search timed out", "query", query, "timeout", u.opts.Timeout)
	case errors.As(err, &remoteErr):
		u.logger.Error("remote model failed", "query", query, "model", remoteErr.Model, "err", remoteErr.Err)
	case errors.As(err, &embErr):
		u.logger.Error("query embedding failed", "query", query, "err", embErr.Err)
	case errors.Is(err, domain.ErrCatalogEmpty):
		u.logger.Warn("catalog is empty", "query", query)
	default:
		u.logger.Error("search failed", "query", query, "err", err)
	}
}

// Suggest offers up to n catalog titles containing text, for autocomplete.
func (u *SearchUseCase) Suggest(text string, n int) []string {
	return u.catalog.Suggest(text, n)
}

// Strategy names the ranking strategy in use.
func (u *SearchUseCase) Strategy() string {
	return u.ranker.Name()
}

// CatalogSize reports how many courses can be found.
func (u *SearchUseCase) CatalogSize() int {
	return u.catalog.Len()
}
