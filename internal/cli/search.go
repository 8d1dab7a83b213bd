package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"coursesearch/internal/adapter/render"
	"coursesearch/internal/port"
)

var (
	searchQuery    string
	searchTopK     int
	searchStrategy string
	searchJSON     bool
	searchProgress bool
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Rank courses against a query",
	Long: `Build the catalog, rank it against one query and print the results.

Examples:
  coursesearch search -q "python programming"
  coursesearch search -q "deep learning" -k 10 --strategy prompt --json`,
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().StringVarP(&searchQuery, "query", "q", "", "search query (required)")
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "k", 0, "number of results (default from config)")
	searchCmd.Flags().StringVar(&searchStrategy, "strategy", "", "ranking strategy: vector, prompt or lexical (default from config)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output as JSON")
	searchCmd.Flags().BoolVar(&searchProgress, "progress", false, "show embedding progress")
	searchCmd.MarkFlagRequired("query")
}

func runSearch(cmd *cobra.Command, args []string) error {
	if strings.TrimSpace(searchQuery) == "" {
		return fmt.Errorf("query must not be blank")
	}

	a, err := openApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	search, err := a.searchUseCase(cmd.Context(), searchStrategy, searchProgress)
	if err != nil {
		return err
	}

	results := search.Search(cmd.Context(), searchQuery, searchTopK)

	var renderer port.Renderer = render.Text{}
	if searchJSON {
		renderer = render.JSON{}
	}
	return renderer.Render(os.Stdout, searchQuery, results)
}
