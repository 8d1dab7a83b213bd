package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursesearch/internal/domain"
)

func results(titles ...string) []domain.RankedResult {
	out := make([]domain.RankedResult, len(titles))
	for i, t := range titles {
		out[i] = domain.RankedResult{Title: t, Score: 1 - float64(i)*0.1}
	}
	return out
}

func TestQueryCache_GetPut(t *testing.T) {
	c := NewQueryCache(10, time.Minute)

	_, ok := c.Get("vector", "python", 5)
	assert.False(t, ok)

	c.Put("vector", "python", 5, results("Intro to Python"))

	got, ok := c.Get("vector", "python", 5)
	require.True(t, ok)
	assert.Equal(t, "Intro to Python", got[0].Title)

	_, ok = c.Get("vector", "python", 3)
	assert.False(t, ok, "k is part of the key")

	_, ok = c.Get("prompt", "python", 5)
	assert.False(t, ok, "strategy is part of the key")
}

func TestQueryCache_ReturnsCopy(t *testing.T) {
	c := NewQueryCache(10, time.Minute)
	c.Put("vector", "sql", 5, results("SQL Basics"))

	got, _ := c.Get("vector", "sql", 5)
	got[0].Title = "mutated"

	again, _ := c.Get("vector", "sql", 5)
	assert.Equal(t, "SQL Basics", again[0].Title)
}

func TestQueryCache_Expires(t *testing.T) {
	c := NewQueryCache(10, time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Put("vector", "python", 5, results("a"))
	now = now.Add(2 * time.Minute)

	_, ok := c.Get("vector", "python", 5)
	assert.False(t, ok)
	assert.Empty(t, c.entries)
}

func TestQueryCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewQueryCache(2, time.Minute)
	c.Put("vector", "a", 5, results("a"))
	c.Put("vector", "b", 5, results("b"))

	_, ok := c.Get("vector", "a", 5)
	require.True(t, ok)

	c.Put("vector", "c", 5, results("c"))

	_, ok = c.Get("vector", "b", 5)
	assert.False(t, ok)
	_, ok = c.Get("vector", "a", 5)
	assert.True(t, ok)
	assert.Len(t, c.entries, 2)
}

func TestQueryCacheKey(t *testing.T) {
	assert.NotEqual(t, cacheKey("vector", "python", 5), cacheKey("vector", "python", 65541))
	assert.NotEqual(t, cacheKey("prompt", "python", 5), cacheKey("prompt", " python ", 5))
	assert.NotEqual(t, cacheKey("vector", "python", 15), cacheKey("vector", "python1", 5))
	assert.Equal(t, cacheKey("vector", "python", 5), cacheKey("vector", "python", 5))
}

type countingRanker struct {
	calls int
	err   error
}

func (r *countingRanker) Rank(_ context.Context, query string, k int) ([]domain.RankedResult, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return results(query), nil
}

func (r *countingRanker) Name() string { return "counting" }

func TestCachedRanker(t *testing.T) {
	inner := &countingRanker{}
	ranker := NewCachedRanker(inner, NewQueryCache(10, time.Minute))

	for i := 0; i < 3; i++ {
		got, err := ranker.Rank(context.Background(), "python", 5)
		require.NoError(t, err)
		assert.Equal(t, "python", got[0].Title)
	}
	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, "counting", ranker.Name())
}

func TestCachedRanker_DoesNotCacheErrors(t *testing.T) {
	inner := &countingRanker{err: errors.New("boom")}
	ranker := NewCachedRanker(inner, NewQueryCache(10, time.Minute))

	_, err := ranker.Rank(context.Background(), "python", 5)
	assert.Error(t, err)
	_, err = ranker.Rank(context.Background(), "python", 5)
	assert.Error(t, err)
	assert.Equal(t, 2, inner.calls)
}
