package memstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursesearch/internal/domain"
)

func course(title string, vec ...float32) domain.EmbeddedCourse {
	return domain.EmbeddedCourse{
		CourseRecord: domain.CourseRecord{
			Title:      title,
			ImageURL:   "https://img.example.com/" + title + ".png",
			CourseLink: "https://courses.example.com/" + title,
		},
		Embedding: vec,
	}
}

func TestNewCatalog(t *testing.T) {
	c, err := NewCatalog("hash-2", []domain.EmbeddedCourse{
		course("Intro to Python", 1, 0),
		course("Advanced Python", 0.8, 0.2),
		course("Cooking Basics", 0, 1),
	})
	require.NoError(t, err)

	assert.Equal(t, 3, c.Len())
	assert.Equal(t, 2, c.Dimension())
	assert.Equal(t, "hash-2", c.Model())
	assert.Equal(t, []string{"Intro to Python", "Advanced Python", "Cooking Basics"}, c.Titles())
}

func TestNewCatalog_DimensionMismatch(t *testing.T) {
	_, err := NewCatalog("m", []domain.EmbeddedCourse{
		course("A", 1, 0),
		course("B", 1, 0, 0),
	})
	assert.Error(t, err)
}

func TestCatalog_Lookup(t *testing.T) {
	c, err := NewCatalog("m", []domain.EmbeddedCourse{
		course("Excel", 1),
		course("Excel", 2),
	})
	require.NoError(t, err)

	rec, ok := c.Lookup("Excel")
	require.True(t, ok)
	assert.Equal(t, "https://courses.example.com/Excel", rec.CourseLink)

	_, ok = c.Lookup("excel")
	assert.False(t, ok, "lookup is case-sensitive")
}

func TestCatalog_Suggest(t *testing.T) {
	c, err := NewCatalog("m", []domain.EmbeddedCourse{
		course("Intro to Python", 1),
		course("Cooking Basics", 1),
		course("Advanced Python", 1),
		course("Intro to Python", 1),
		course("Python for Finance", 1),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Intro to Python", "Advanced Python"}, c.Suggest("PYTHON", 2))
	assert.Equal(t, []string{"Intro to Python", "Advanced Python", "Python for Finance"}, c.Suggest("python", 5))
	assert.Nil(t, c.Suggest("  ", 3))
	assert.Nil(t, c.Suggest("rust", 3))
}

func TestCatalog_Nil(t *testing.T) {
	var c *Catalog

	assert.Zero(t, c.Len())
	assert.Nil(t, c.Courses())
	assert.Empty(t, c.Titles())
	_, ok := c.Lookup("x")
	assert.False(t, ok)
}
