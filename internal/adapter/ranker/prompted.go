package ranker

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/charmbracelet/log"

	"coursesearch/internal/adapter/memstore"
	"coursesearch/internal/domain"
	"coursesearch/internal/logging"
	"coursesearch/internal/port"
)

var (
	//go:embed prompts/system.txt
	systemPrompt string

	//go:embed prompts/rank.tmpl
	rankPromptText string

	rankPrompt = template.Must(template.New("rank").Parse(rankPromptText))
)

// DefaultMinRelevance is the cut-off both requested from the model and
// enforced on its answer.
const DefaultMinRelevance = 0.5

// PromptOptions tunes the completion request and the relevance cut-off.
type PromptOptions struct {
	Temperature  float64
	MaxTokens    int
	MinRelevance float64
}

// PromptRanker asks a hosted model to score the whole catalog in one call and
// keeps the entries whose titles exist in the catalog.
type PromptRanker struct {
	catalog *memstore.Catalog
	llm     port.LLM
	opts    PromptOptions
	logger  *log.Logger
}

func NewPromptRanker(catalog *memstore.Catalog, llm port.LLM, opts PromptOptions, logger *log.Logger) *PromptRanker {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 1000
	}
	if opts.MinRelevance <= 0 || opts.MinRelevance > 1 {
		opts.MinRelevance = DefaultMinRelevance
	}
	return &PromptRanker{
		catalog: catalog,
		llm:     llm,
		opts:    opts,
		logger:  logging.Component(logger, "prompt"),
	}
}

func (r *PromptRanker) Name() string { return "prompt" }

// BuildPrompt renders the user message for query.
func (r *PromptRanker) BuildPrompt(query string) (string, error) {
	var buf bytes.Buffer
	err := rankPrompt.Execute(&buf, struct {
		Query        string
		MinRelevance float64
		Titles       []string
	}{
		Query:        query,
		MinRelevance: r.opts.MinRelevance,
		Titles:       r.catalog.Titles(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}
	return buf.String(), nil
}

func (r *PromptRanker) Rank(ctx context.Context, query string, k int) ([]domain.RankedResult, error) {
	if r.catalog.Len() == 0 {
		return nil, domain.ErrCatalogEmpty
	}

	userPrompt, err := r.BuildPrompt(query)
	if err != nil {
		return nil, err
	}

	reply, err := r.llm.Complete(ctx, port.CompletionRequest{
		System:      strings.TrimSpace(systemPrompt),
		User:        userPrompt,
		Temperature: r.opts.Temperature,
		MaxTokens:   r.opts.MaxTokens,
	})
	if err != nil {
		var remote *domain.RemoteModelError
		if errors.As(err, &remote) {
			return nil, err
		}
		return nil, &domain.RemoteModelError{Model: r.llm.ModelName(), Err: err}
	}
	if strings.TrimSpace(reply) == "" {
		return nil, &domain.RemoteModelError{Model: r.llm.ModelName(), Err: errors.New("empty response")}
	}

	entries, parseErrs := ParseResponse(reply)
	for _, perr := range parseErrs {
		r.logger.Warn("skipped response line", "line", perr.Line, "reason", perr.Reason, "text", perr.Text)
	}

	results := make([]domain.RankedResult, 0, len(entries))
	for _, entry := range entries {
		rec, ok := r.catalog.Lookup(entry.Title)
		if !ok {
			r.logger.Warn("model returned unknown title", "title", entry.Title)
			continue
		}
		if entry.Relevance < r.opts.MinRelevance {
			r.logger.Debug("below relevance cut-off", "title", entry.Title, "relevance", entry.Relevance)
			continue
		}
		results = append(results, domain.NewRankedResult(rec, entry.Relevance))
	}

	final := Finalize(results, k)
	r.logger.Debug("ranked", "query", query, "parsed", len(entries), "returned", len(final))
	return final, nil
}
