package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/schollz/progressbar/v3"

	"coursesearch/config"
	"coursesearch/internal/adapter/cache"
	"coursesearch/internal/adapter/catalog"
	"coursesearch/internal/adapter/embedding"
	"coursesearch/internal/adapter/llm"
	"coursesearch/internal/adapter/memstore"
	"coursesearch/internal/adapter/ranker"
	"coursesearch/internal/adapter/store"
	"coursesearch/internal/logging"
	"coursesearch/internal/port"
	"coursesearch/internal/usecase"
)

// app holds what one command invocation builds from the config.
type app struct {
	cfg     *config.Config
	root    string
	logger  *log.Logger
	cache   *store.EmbeddingCache
	closers []func() error
}

// openApp creates the logger. The TUI owns the terminal, so its log goes to a
// file under the state directory unless one is configured.
func openApp(forTUI bool) (*app, error) {
	c := GetConfig()
	root := GetRootDir()

	logCfg := c.Logging
	if forTUI && logCfg.File == "" {
		if err := config.EnsureStateDir(root); err != nil {
			return nil, fmt.Errorf("failed to create state directory: %w", err)
		}
		logCfg.File = filepath.Join(config.StateDir(root), "coursesearch.log")
	}

	logger, closeLog, err := logging.Open(logCfg, os.Stderr)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:     c,
		root:    root,
		logger:  logger,
		closers: []func() error{closeLog},
	}, nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("close failed", "err", err)
		}
	}
}

func (a *app) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(a.root, path)
}

func (a *app) provider() (port.CatalogProvider, error) {
	switch a.cfg.Catalog.Source {
	case "scrape":
		return catalog.NewScraper(a.cfg.Catalog, a.logger)
	case "file":
		return catalog.NewFileProvider(a.root, a.cfg.Catalog.Files, a.logger), nil
	default:
		return nil, fmt.Errorf("unsupported catalog source: %s", a.cfg.Catalog.Source)
	}
}

func (a *app) embedder() (port.Embedder, error) {
	ec := a.cfg.Embedding
	opts := embedding.Options{
		BatchSize:         ec.BatchSize,
		RequestsPerSecond: ec.RequestsPerSecond,
		Timeout:           ec.Timeout,
		Logger:            a.logger,
	}

	switch ec.Provider {
	case "hash":
		return embedding.NewHashEmbedder(ec.Dimension), nil
	case "openai":
		if ec.BaseURL != "" {
			return embedding.NewOpenAICompatibleEmbedder(ec.APIKeyEnv, ec.Model, ec.BaseURL, opts)
		}
		return embedding.NewOpenAIEmbedder(ec.APIKeyEnv, ec.Model, opts)
	case "ollama":
		return embedding.NewOllamaEmbedder(ec.Model, ec.BaseURL, opts)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", ec.Provider)
	}
}

// embeddingCache opens the on-disk vector cache at path, or returns nil when
// path is empty. The file stays open until Close.
func (a *app) embeddingCache(path string) (*store.EmbeddingCache, error) {
	if path == "" {
		return nil, nil
	}
	if a.cache != nil {
		return a.cache, nil
	}
	path = a.resolve(path)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	c, err := store.OpenEmbeddingCache(path)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, c.Close)

	result, err := c.Migrate(store.ComputeConfigHash(a.cfg.Embedding))
	if err != nil {
		return nil, err
	}
	if result.Cleared {
		a.logger.Info("Embedding cache cleared", "reason", result.Reason, "path", path)
	}
	a.cache = c
	return c, nil
}

type buildOpts struct {
	cachePath string
	progress  bool
	reset     bool // drop cached vectors for the current model first
}

// buildCatalog fetches the records and embeds them. Any failure here is fatal
// for the command.
func (a *app) buildCatalog(ctx context.Context, opts buildOpts) (*memstore.Catalog, port.Embedder, *usecase.BuildReport, error) {
	provider, err := a.provider()
	if err != nil {
		return nil, nil, nil, err
	}

	fetchCtx := ctx
	if a.cfg.Catalog.Timeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, a.cfg.Catalog.Timeout)
		defer cancel()
	}
	records, err := provider.Courses(fetchCtx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	embedder, err := a.embedder()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	buildOptions := usecase.BuildOptions{
		BatchSize:    a.cfg.Embedding.BatchSize,
		Workers:      a.cfg.Embedding.Workers,
		BatchTimeout: a.cfg.Embedding.Timeout,
		Logger:       a.logger,
	}

	embCache, err := a.embeddingCache(opts.cachePath)
	if err != nil {
		return nil, nil, nil, err
	}
	if embCache != nil {
		if opts.reset {
			if err := embCache.Purge(embedder.ModelName()); err != nil {
				return nil, nil, nil, fmt.Errorf("failed to reset embedding cache: %w", err)
			}
			a.logger.Info("Embedding cache reset", "model", embedder.ModelName())
		}
		buildOptions.Cache = embCache
	}
	if opts.progress {
		buildOptions.Progress = newProgressBar("Embedding")
	}

	cat, report, err := usecase.NewBuilder(embedder, buildOptions).BuildWithReport(ctx, records)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to build catalog: %w", err)
	}
	return cat, embedder, report, nil
}

// newRanker picks the ranking strategy and wraps it in the query cache when
// one is configured.
func (a *app) newRanker(strategy string, cat *memstore.Catalog, embedder port.Embedder) (port.Ranker, error) {
	if err := a.cfg.ValidateStrategy(strategy); err != nil {
		return nil, err
	}

	var rk port.Ranker
	switch strategy {
	case "vector":
		rk = ranker.NewVectorRanker(cat, embedder, a.logger)
	case "lexical":
		rk = ranker.NewLexicalRanker(cat, a.logger)
	case "prompt":
		client, err := llm.New(a.cfg.LLM, a.cfg.Ranking.Timeout, a.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create llm client: %w", err)
		}
		rk = ranker.NewPromptRanker(cat, client, ranker.PromptOptions{
			Temperature:  a.cfg.LLM.Temperature,
			MaxTokens:    a.cfg.LLM.MaxTokens,
			MinRelevance: a.cfg.LLM.MinRelevance,
		}, a.logger)
	default:
		return nil, fmt.Errorf("unknown ranking strategy: %s", strategy)
	}

	if a.cfg.Ranking.CacheSize > 0 {
		rk = cache.NewCachedRanker(rk, cache.NewQueryCache(a.cfg.Ranking.CacheSize, a.cfg.Ranking.CacheTTL))
	}
	return rk, nil
}

// searchUseCase builds the catalog and returns a ready search entry point.
func (a *app) searchUseCase(ctx context.Context, strategy string, progress bool) (*usecase.SearchUseCase, error) {
	if strategy == "" {
		strategy = a.cfg.Ranking.Strategy
	}

	cat, embedder, _, err := a.buildCatalog(ctx, buildOpts{cachePath: a.cfg.Embedding.CachePath, progress: progress})
	if err != nil {
		return nil, err
	}

	rk, err := a.newRanker(strategy, cat, embedder)
	if err != nil {
		return nil, err
	}

	return usecase.NewSearchUseCase(cat, rk, usecase.SearchOptions{
		TopK:    a.cfg.Ranking.TopK,
		Timeout: a.cfg.Ranking.Timeout,
		Logger:  a.logger,
	}), nil
}

// newProgressBar returns a build progress callback drawing on stderr. The bar
// is created on the first call, once the total is known.
func newProgressBar(description string) func(done, total int) {
	var (
		bar       *progressbar.ProgressBar
		barMu     sync.Mutex
		startTime time.Time
	)

	return func(done, total int) {
		barMu.Lock()
		defer barMu.Unlock()

		if bar == nil {
			startTime = time.Now()
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowBytes(false),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("[cyan]"+description+"[reset]"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() {
					fmt.Fprintln(os.Stderr)
				}),
			)
		}

		bar.Set(done)
		if done > 0 && done < total {
			elapsed := time.Since(startTime)
			rate := float64(done) / elapsed.Seconds()
			remaining := time.Duration(float64(total-done)/rate) * time.Second
			bar.Describe(fmt.Sprintf("[cyan]%s[reset] (ETA %s)", description, remaining.Round(time.Second)))
		}
	}
}
