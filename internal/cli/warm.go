package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"coursesearch/config"
)

var warmCmd = &cobra.Command{
	Use:   "warm",
	Short: "Embed the catalog and fill the embedding cache",
	Long: `Fetch the catalog and embed every title, storing the vectors in the embedding
cache so later searches start without calling the embedding model.
Uses embedding.cache_path, or .coursesearch/embeddings.db when unset.

Examples:
  coursesearch warm           # embed only titles missing from the cache
  coursesearch warm --reset   # re-embed everything for the current model`,
	RunE: runWarm,
}

var warmReset bool

func init() {
	rootCmd.AddCommand(warmCmd)
	warmCmd.Flags().BoolVar(&warmReset, "reset", false, "drop cached vectors for the current model before embedding")
}

func runWarm(cmd *cobra.Command, args []string) error {
	a, err := openApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	cachePath := a.cfg.Embedding.CachePath
	if cachePath == "" {
		if err := config.EnsureStateDir(a.root); err != nil {
			return fmt.Errorf("failed to create state directory: %w", err)
		}
		cachePath = filepath.Join(config.StateDir(a.root), "embeddings.db")
	}

	cat, _, report, err := a.buildCatalog(cmd.Context(), buildOpts{cachePath: cachePath, progress: true, reset: warmReset})
	if err != nil {
		return err
	}

	cached, err := a.cache.Count(cat.Model())
	if err != nil {
		return fmt.Errorf("failed to count cached vectors: %w", err)
	}

	fmt.Printf("Catalog: %d courses (model %s, dimension %d)\n", cat.Len(), cat.Model(), cat.Dimension())
	fmt.Printf("Embedded: %d, from cache: %d, excluded: %d\n", report.Embedded, report.Cached, len(report.Excluded))
	for _, e := range report.Excluded {
		fmt.Printf("  - %v\n", e)
	}
	fmt.Printf("Cache: %s (%d vectors for %s)\n", a.resolve(cachePath), cached, cat.Model())
	return nil
}
