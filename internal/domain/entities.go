package domain

// CourseRecord is one entry of the course catalog.
type CourseRecord struct {
	Title      string `json:"title" yaml:"title"`
	ImageURL   string `json:"image_url" yaml:"image_url"`
	CourseLink string `json:"course_link" yaml:"course_link"`
}

// EmbeddedCourse is a catalog record with its precomputed title embedding.
type EmbeddedCourse struct {
	CourseRecord
	Embedding []float32
}

// RankedResult is a course scored against a query.
type RankedResult struct {
	Title      string  `json:"title"`
	ImageURL   string  `json:"image_url"`
	CourseLink string  `json:"course_link"`
	Score      float64 `json:"score"`
}

// NewRankedResult copies the record fields into a result with the given score.
func NewRankedResult(rec CourseRecord, score float64) RankedResult {
	return RankedResult{
		Title:      rec.Title,
		ImageURL:   rec.ImageURL,
		CourseLink: rec.CourseLink,
		Score:      score,
	}
}
