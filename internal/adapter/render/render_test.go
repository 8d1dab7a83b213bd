package render

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursesearch/internal/domain"
	"coursesearch/internal/port"
)

var (
	_ port.Renderer = Text{}
	_ port.Renderer = JSON{}
)

var rendered = []domain.RankedResult{
	{Title: "Intro to Python", ImageURL: "https://img/a.png", CourseLink: "https://courses/a", Score: 0.87654},
	{Title: "Advanced Python", ImageURL: "https://img/b.png", CourseLink: "https://courses/b", Score: 0.5},
}

func TestPercent(t *testing.T) {
	assert.Equal(t, "87.65%", Percent(0.87654))
	assert.Equal(t, "100.00%", Percent(1))
	assert.Equal(t, "0.00%", Percent(0))
}

func TestText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Text{}.Render(&buf, "python", rendered))

	out := buf.String()
	assert.Contains(t, out, "Found 2 results for: python")
	assert.Contains(t, out, "--- [1] Intro to Python ---\nRelevance: 87.65%\nLink: https://courses/a\n")
	assert.Contains(t, out, "--- [2] Advanced Python ---\nRelevance: 50.00%")
}

func TestText_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Text{}.Render(&buf, "python", nil))
	assert.Equal(t, "No results found.\n", buf.String())
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSON{}.Render(&buf, "python", rendered))

	var got jsonOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "python", got.Query)
	assert.Equal(t, rendered, got.Results)

	buf.Reset()
	require.NoError(t, JSON{}.Render(&buf, "x", nil))
	assert.Contains(t, buf.String(), `"results": []`)
}
