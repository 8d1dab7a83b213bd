package ranker

import (
	"sort"

	"coursesearch/internal/domain"
)

// Finalize orders results by score, highest first, keeping input order among
// ties. Only the first occurrence of each title survives, and at most k
// results are returned. The input slice is not modified.
func Finalize(results []domain.RankedResult, k int) []domain.RankedResult {
	if k <= 0 || len(results) == 0 {
		return []domain.RankedResult{}
	}

	sorted := make([]domain.RankedResult, len(results))
	copy(sorted, results)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})

	out := make([]domain.RankedResult, 0, min(k, len(sorted)))
	seen := make(map[string]struct{}, len(sorted))
	for _, r := range sorted {
		if _, dup := seen[r.Title]; dup {
			continue
		}
		seen[r.Title] = struct{}{}
		out = append(out, r)
		if len(out) == k {
			break
		}
	}
	return out
}
