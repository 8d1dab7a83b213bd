package tui

import (
	"time"

	"coursesearch/internal/domain"
)

// searchDone is sent when a background search finishes.
type searchDone struct {
	Query   string
	Seq     int // drops answers to queries that were superseded
	Results []domain.RankedResult
	Elapsed time.Duration
}
