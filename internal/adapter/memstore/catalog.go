package memstore

import (
	"fmt"
	"strings"

	"coursesearch/internal/domain"
)

// Catalog is the in-memory, read-only set of embedded courses. It is built
// once and shared by reference; nothing mutates it afterwards, so concurrent
// readers need no locking.
type Catalog struct {
	courses   []domain.EmbeddedCourse
	byTitle   map[string]int
	dimension int
	model     string
}

// NewCatalog validates that every embedding has the same length and indexes
// titles. When a title appears more than once the first entry is used for
// lookups.
func NewCatalog(model string, courses []domain.EmbeddedCourse) (*Catalog, error) {
	c := &Catalog{
		courses: make([]domain.EmbeddedCourse, len(courses)),
		byTitle: make(map[string]int, len(courses)),
		model:   model,
	}
	copy(c.courses, courses)

	for i, course := range c.courses {
		if i == 0 {
			c.dimension = len(course.Embedding)
		} else if len(course.Embedding) != c.dimension {
			return nil, fmt.Errorf("embedding dimension mismatch for %q: expected %d, got %d",
				course.Title, c.dimension, len(course.Embedding))
		}
		if _, seen := c.byTitle[course.Title]; !seen {
			c.byTitle[course.Title] = i
		}
	}

	return c, nil
}

// Len returns the number of courses.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.courses)
}

// Courses returns the embedded courses in catalog order. Callers must not
// modify the returned slice or its vectors.
func (c *Catalog) Courses() []domain.EmbeddedCourse {
	if c == nil {
		return nil
	}
	return c.courses
}

// Titles returns every title in catalog order.
func (c *Catalog) Titles() []string {
	titles := make([]string, 0, c.Len())
	for _, course := range c.Courses() {
		titles = append(titles, course.Title)
	}
	return titles
}

// Lookup finds a course by exact, case-sensitive title.
func (c *Catalog) Lookup(title string) (domain.CourseRecord, bool) {
	if c == nil {
		return domain.CourseRecord{}, false
	}
	i, ok := c.byTitle[title]
	if !ok {
		return domain.CourseRecord{}, false
	}
	return c.courses[i].CourseRecord, true
}

// Suggest returns up to n titles containing text, ignoring case, in catalog
// order and without repeats.
func (c *Catalog) Suggest(text string, n int) []string {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" || n <= 0 {
		return nil
	}

	var matches []string
	seen := make(map[string]struct{})
	for _, course := range c.Courses() {
		if _, dup := seen[course.Title]; dup {
			continue
		}
		if strings.Contains(strings.ToLower(course.Title), text) {
			matches = append(matches, course.Title)
			seen[course.Title] = struct{}{}
			if len(matches) == n {
				break
			}
		}
	}
	return matches
}

// Dimension returns the shared embedding length, or 0 for an empty catalog.
func (c *Catalog) Dimension() int {
	if c == nil {
		return 0
	}
	return c.dimension
}

// Model names the embedding model the vectors came from.
func (c *Catalog) Model() string {
	if c == nil {
		return ""
	}
	return c.model
}
