// Package render formats ranked courses for the terminal or for scripts.
package render

import (
	"fmt"
	"io"

	"coursesearch/internal/domain"
)

// Text prints one block per course with its relevance as a percentage.
type Text struct{}

func (Text) Render(w io.Writer, query string, results []domain.RankedResult) error {
	if len(results) == 0 {
		_, err := fmt.Fprintln(w, "No results found.")
		return err
	}

	if _, err := fmt.Fprintf(w, "Found %d results for: %s\n\n", len(results), query); err != nil {
		return err
	}
	for i, r := range results {
		_, err := fmt.Fprintf(w, "--- [%d] %s ---\nRelevance: %s\nLink: %s\nImage: %s\n\n",
			i+1, r.Title, Percent(r.Score), r.CourseLink, r.ImageURL)
		if err != nil {
			return err
		}
	}
	return nil
}

// Percent formats a score in [0,1] as a percentage with two decimals.
func Percent(score float64) string {
	return fmt.Sprintf("%.2f%%", score*100)
}
