package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"coursesearch/config"
	"coursesearch/internal/adapter/catalog"
	"coursesearch/internal/adapter/embedding"
	"coursesearch/internal/adapter/ranker"
	"coursesearch/internal/logging"
	"coursesearch/internal/port"
	"coursesearch/internal/usecase"
)

func main() {
	dir := flag.String("dir", ".", "Directory holding coursesearch.yaml")
	query := flag.String("q", "", "Query to test")
	topK := flag.Int("k", 10, "Number of results")
	flag.Parse()

	if *query == "" {
		fmt.Println("Usage: go run cmd/benchmark/main.go -dir . -q \"query\"")
		fmt.Println("\nTests:")
		fmt.Println("  1. Catalog and embedding setup (source, model, dimension)")
		fmt.Println("  2. Vector similarity of the top matches")
		fmt.Println("  3. Self-retrieval: each top title used as a query should rank itself first")
		os.Exit(1)
	}

	if err := loadEnv(*dir); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading .env: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.LoadFromDir(*dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	logger := logging.Discard()

	var provider port.CatalogProvider
	switch cfg.Catalog.Source {
	case "file":
		provider = catalog.NewFileProvider(*dir, cfg.Catalog.Files, logger)
	default:
		provider, err = catalog.NewScraper(cfg.Catalog, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating scraper: %v\n", err)
			os.Exit(1)
		}
	}

	records, err := provider.Courses(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading catalog: %v\n", err)
		os.Exit(1)
	}

	embedder, err := setupEmbedding(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Embedder init failed: %v\n", err)
		os.Exit(1)
	}

	start := time.Now()
	cat, err := usecase.NewBuilder(embedder, usecase.BuildOptions{
		BatchSize: cfg.Embedding.BatchSize,
		Workers:   cfg.Embedding.Workers,
		Logger:    logger,
	}).Build(ctx, records)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Build failed: %v\n", err)
		os.Exit(1)
	}
	buildTime := time.Since(start)

	fmt.Println("COURSE SEARCH BENCHMARK")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Courses embedded: %d of %d (%s)\n", cat.Len(), len(records), buildTime.Round(time.Millisecond))
	fmt.Printf("Model: %s (%s)\n", cat.Model(), cfg.Embedding.Provider)
	fmt.Printf("Dimension: %d\n", cat.Dimension())
	fmt.Println()

	fmt.Printf("Query: \"%s\"\n", *query)
	fmt.Println(strings.Repeat("-", 70))

	vr := ranker.NewVectorRanker(cat, embedder, logger)
	results, err := vr.Rank(ctx, *query, *topK)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search error: %v\n", err)
		os.Exit(1)
	}
	if len(results) == 0 {
		fmt.Println("No results.")
		return
	}

	fmt.Printf("Top %d matches:\n\n", len(results))

	totalScore := 0.0
	selfHits := 0
	for i, r := range results {
		similarity := r.Score
		totalScore += similarity

		rating := "LOW"
		if similarity > 0.7 {
			rating = "HIGH"
		} else if similarity > 0.5 {
			rating = "GOOD"
		} else if similarity > 0.3 {
			rating = "OK"
		}

		self, err := vr.Rank(ctx, r.Title, 1)
		if err == nil && len(self) == 1 && self[0].Title == r.Title {
			selfHits++
		}

		fmt.Printf("%d. [%s %.3f] %s\n", i+1, rating, similarity, r.Title)
		fmt.Printf("   %s\n\n", r.CourseLink)
	}

	avgScore := totalScore / float64(len(results))
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("QUALITY METRICS:\n")
	fmt.Printf("  Average similarity: %.3f\n", avgScore)
	fmt.Printf("  Top-1 similarity:   %.3f\n", results[0].Score)
	fmt.Printf("  Self-retrieval:     %d/%d\n", selfHits, len(results))

	if avgScore > 0.5 {
		fmt.Println("  Status: GOOD - vector ranking working well")
	} else if avgScore > 0.3 {
		fmt.Println("  Status: OK - results are somewhat related")
	} else {
		fmt.Println("  Status: POOR - consider a hosted embedding model")
	}
}

// loadEnv reads dir/.env so api_key_env variables resolve as they do for the
// coursesearch command. A missing file is fine.
func loadEnv(dir string) error {
	if err := godotenv.Load(filepath.Join(dir, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func setupEmbedding(cfg *config.Config) (port.Embedder, error) {
	opts := embedding.Options{
		BatchSize:         cfg.Embedding.BatchSize,
		RequestsPerSecond: cfg.Embedding.RequestsPerSecond,
		Timeout:           cfg.Embedding.Timeout,
	}

	switch cfg.Embedding.Provider {
	case "hash":
		return embedding.NewHashEmbedder(cfg.Embedding.Dimension), nil
	case "ollama":
		return embedding.NewOllamaEmbedder(cfg.Embedding.Model, cfg.Embedding.BaseURL, opts)
	case "openai":
		if cfg.Embedding.BaseURL != "" {
			return embedding.NewOpenAICompatibleEmbedder(cfg.Embedding.APIKeyEnv, cfg.Embedding.Model, cfg.Embedding.BaseURL, opts)
		}
		return embedding.NewOpenAIEmbedder(cfg.Embedding.APIKeyEnv, cfg.Embedding.Model, opts)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Embedding.Provider)
	}
}
