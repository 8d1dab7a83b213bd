package port

import (
	"context"

	"coursesearch/internal/domain"
)

// CatalogProvider yields the ordered list of courses to search.
type CatalogProvider interface {
	Courses(ctx context.Context) ([]domain.CourseRecord, error)
}
