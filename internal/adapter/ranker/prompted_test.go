package ranker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursesearch/internal/domain"
	"coursesearch/internal/port"
)

type stubLLM struct {
	reply   string
	err     error
	lastReq port.CompletionRequest
}

func (l *stubLLM) Complete(_ context.Context, req port.CompletionRequest) (string, error) {
	l.lastReq = req
	return l.reply, l.err
}

func (l *stubLLM) ModelName() string { return "stub-llm" }

func newPromptRanker(t *testing.T, llm port.LLM) *PromptRanker {
	t.Helper()
	embedder := &stubEmbedder{vectors: map[string][]float32{}}
	catalog := buildCatalog(t, embedder, sampleCourses)
	return NewPromptRanker(catalog, llm, PromptOptions{Temperature: 0.2, MaxTokens: 1000, MinRelevance: DefaultMinRelevance}, nil)
}

func TestPromptRanker_BuildPrompt(t *testing.T) {
	ranker := newPromptRanker(t, &stubLLM{})

	prompt, err := ranker.BuildPrompt("python")
	require.NoError(t, err)
	assert.Contains(t, prompt, `Given the following query: "python"`)
	assert.Contains(t, prompt, "relevance score of 0.5 or higher")
	for _, c := range sampleCourses {
		assert.Contains(t, prompt, c.Title+"\n")
	}
}

func TestPromptRanker_Rank(t *testing.T) {
	llm := &stubLLM{reply: `Title: Advanced Python
Relevance: 0.8
Title: Intro to Python
Relevance: 0.95
Title: Cooking Basics
Relevance: 0.2
Title: Python for Astronauts
Relevance: 0.99
Title: Intro to Python
Relevance: 0.6`}
	ranker := newPromptRanker(t, llm)

	results, err := ranker.Rank(context.Background(), "python", 5)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "Intro to Python", results[0].Title)
	assert.Equal(t, 0.95, results[0].Score)
	assert.Equal(t, "https://courses/a", results[0].CourseLink)
	assert.Equal(t, "Advanced Python", results[1].Title)

	assert.Equal(t, "You are an AI assistant specialized in course recommendations.", llm.lastReq.System)
	assert.Equal(t, 0.2, llm.lastReq.Temperature)
	assert.Equal(t, 1000, llm.lastReq.MaxTokens)
}

func TestPromptRanker_MalformedRelevanceDoesNotAbort(t *testing.T) {
	llm := &stubLLM{reply: "Title: Intro to Python\nRelevance: high\nTitle: Advanced Python\nRelevance: 0.7"}
	ranker := newPromptRanker(t, llm)

	results, err := ranker.Rank(context.Background(), "python", 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Advanced Python", results[0].Title)
}

func TestPromptRanker_TruncatesToK(t *testing.T) {
	llm := &stubLLM{reply: "Title: Intro to Python\nRelevance: 0.9\nTitle: Advanced Python\nRelevance: 0.8"}
	ranker := newPromptRanker(t, llm)

	results, err := ranker.Rank(context.Background(), "python", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Intro to Python", results[0].Title)
}

func TestPromptRanker_Errors(t *testing.T) {
	ranker := newPromptRanker(t, &stubLLM{err: errors.New("503 service unavailable")})
	_, err := ranker.Rank(context.Background(), "python", 5)
	assert.ErrorIs(t, err, domain.ErrRemoteModel)

	ranker = newPromptRanker(t, &stubLLM{reply: "  \n"})
	_, err = ranker.Rank(context.Background(), "python", 5)
	assert.ErrorIs(t, err, domain.ErrRemoteModel)

	ranker = newPromptRanker(t, &stubLLM{reply: "I cannot help with that."})
	results, err := ranker.Rank(context.Background(), "python", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestPromptRanker_ZeroOptionsUseDefaultCutoff(t *testing.T) {
	embedder := &stubEmbedder{vectors: map[string][]float32{}}
	catalog := buildCatalog(t, embedder, sampleCourses)
	llm := &stubLLM{reply: "Title: Cooking Basics\nRelevance: 0.2\nTitle: Intro to Python\nRelevance: 0.7"}
	ranker := NewPromptRanker(catalog, llm, PromptOptions{}, nil)

	prompt, err := ranker.BuildPrompt("python")
	require.NoError(t, err)
	assert.Contains(t, prompt, "relevance score of 0.5 or higher")

	results, err := ranker.Rank(context.Background(), "python", 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Intro to Python", results[0].Title)
	assert.Equal(t, 1000, llm.lastReq.MaxTokens)
}
