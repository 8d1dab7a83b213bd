package render

import (
	"encoding/json"
	"io"

	"coursesearch/internal/domain"
)

// JSON writes the query and results as one indented document.
type JSON struct{}

type jsonOutput struct {
	Query   string                `json:"query"`
	Results []domain.RankedResult `json:"results"`
}

func (JSON) Render(w io.Writer, query string, results []domain.RankedResult) error {
	if results == nil {
		results = []domain.RankedResult{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonOutput{Query: query, Results: results})
}
