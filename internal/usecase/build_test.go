package usecase

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursesearch/internal/adapter/embedding"
	"coursesearch/internal/adapter/store"
	"coursesearch/internal/domain"
)

// flakyEmbedder fails any call that includes a title containing "FAIL".
type flakyEmbedder struct {
	mu    sync.Mutex
	calls [][]string
	dims  map[string]int
}

func (e *flakyEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.calls = append(e.calls, append([]string(nil), texts...))
	e.mu.Unlock()

	out := make([][]float32, len(texts))
	for i, t := range texts {
		if strings.Contains(t, "FAIL") {
			return nil, errors.New("model rejected input")
		}
		dim := 3
		if d, ok := e.dims[t]; ok {
			dim = d
		}
		vec := make([]float32, dim)
		vec[0] = float32(len(t))
		out[i] = vec
	}
	return out, nil
}

func (e *flakyEmbedder) ModelName() string { return "flaky" }

func (e *flakyEmbedder) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.calls)
}

func courseRecords(titles ...string) []domain.CourseRecord {
	out := make([]domain.CourseRecord, len(titles))
	for i, t := range titles {
		out[i] = domain.CourseRecord{Title: t, CourseLink: "https://courses/" + t}
	}
	return out
}

func TestBuild_EmptyInput(t *testing.T) {
	builder := NewBuilder(&flakyEmbedder{}, BuildOptions{})
	catalog, err := builder.Build(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, catalog.Len())
}

func TestBuild_KeepsOrderAndExcludesFailures(t *testing.T) {
	embedder := &flakyEmbedder{}
	builder := NewBuilder(embedder, BuildOptions{BatchSize: 2, Workers: 3})

	records := courseRecords("Intro to Python", "FAIL me", "", "SQL Basics", "Deep Learning")
	catalog, report, err := builder.BuildWithReport(context.Background(), records)
	require.NoError(t, err)

	assert.Equal(t, []string{"Intro to Python", "SQL Basics", "Deep Learning"}, catalog.Titles())
	assert.Equal(t, 3, catalog.Dimension())
	assert.Equal(t, "flaky", catalog.Model())

	require.Len(t, report.Excluded, 2)
	for _, err := range report.Excluded {
		assert.ErrorIs(t, err, domain.ErrEmbedding)
	}
	assert.Equal(t, 3, report.Embedded)
}

func TestBuild_RetriesFailedBatchPerItem(t *testing.T) {
	embedder := &flakyEmbedder{}
	builder := NewBuilder(embedder, BuildOptions{BatchSize: 10, Workers: 1})

	catalog, err := builder.Build(context.Background(), courseRecords("A course", "FAIL", "B course"))
	require.NoError(t, err)
	assert.Equal(t, []string{"A course", "B course"}, catalog.Titles())
	// One failed batch of three, then three single calls.
	assert.Equal(t, 4, embedder.callCount())
}

func TestBuild_AllFail(t *testing.T) {
	builder := NewBuilder(&flakyEmbedder{}, BuildOptions{})
	_, err := builder.Build(context.Background(), courseRecords("FAIL one", "FAIL two"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmbedding)

	_, err = builder.Build(context.Background(), courseRecords("", "  "))
	assert.Error(t, err)
}

func TestBuild_DimensionMismatchExcluded(t *testing.T) {
	embedder := &flakyEmbedder{dims: map[string]int{"odd one": 5}}
	builder := NewBuilder(embedder, BuildOptions{BatchSize: 1})

	catalog, report, err := builder.BuildWithReport(context.Background(), courseRecords("first", "odd one", "third"))
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "third"}, catalog.Titles())
	require.Len(t, report.Excluded, 1)

	var embErr *domain.EmbeddingError
	require.ErrorAs(t, report.Excluded[0], &embErr)
	assert.Equal(t, "odd one", embErr.Text)
}

func TestBuild_OddFirstVectorDoesNotSetDimension(t *testing.T) {
	embedder := &flakyEmbedder{dims: map[string]int{"Odd": 2}}
	builder := NewBuilder(embedder, BuildOptions{})

	catalog, report, err := builder.BuildWithReport(context.Background(), courseRecords("Odd", "Python", "SQL", "Statistics"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Python", "SQL", "Statistics"}, catalog.Titles())
	assert.Equal(t, 3, catalog.Dimension())
	require.Len(t, report.Excluded, 1)

	var embErr *domain.EmbeddingError
	require.ErrorAs(t, report.Excluded[0], &embErr)
	assert.Equal(t, "Odd", embErr.Text)
}

func TestBuild_DuplicateTitlesEmbeddedOnce(t *testing.T) {
	embedder := &flakyEmbedder{}
	builder := NewBuilder(embedder, BuildOptions{BatchSize: 10})

	catalog, err := builder.Build(context.Background(), courseRecords("Python", "Python", "SQL"))
	require.NoError(t, err)
	assert.Equal(t, 3, catalog.Len())
	require.Equal(t, 1, embedder.callCount())
	assert.Equal(t, []string{"Python", "SQL"}, embedder.calls[0])
}

func TestBuild_Progress(t *testing.T) {
	var (
		mu    sync.Mutex
		last  int
		total int
	)
	builder := NewBuilder(&flakyEmbedder{}, BuildOptions{
		BatchSize: 1,
		Workers:   4,
		Progress: func(done, n int) {
			mu.Lock()
			defer mu.Unlock()
			assert.GreaterOrEqual(t, done, last)
			last, total = done, n
		},
	})

	_, err := builder.Build(context.Background(), courseRecords("a1", "b2", "c3", "d4", "e5"))
	require.NoError(t, err)
	assert.Equal(t, 5, last)
	assert.Equal(t, 5, total)
}

func TestBuild_UsesCache(t *testing.T) {
	cache, err := store.OpenEmbeddingCache(filepath.Join(t.TempDir(), "embeddings.db"))
	require.NoError(t, err)
	defer cache.Close()

	embedder := &flakyEmbedder{}
	builder := NewBuilder(embedder, BuildOptions{Cache: cache})

	records := courseRecords("Intro to Python", "SQL Basics")
	first, err := builder.Build(context.Background(), records)
	require.NoError(t, err)
	assert.Equal(t, 1, embedder.callCount())

	count, err := cache.Count("flaky")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	second, report, err := builder.BuildWithReport(context.Background(), records)
	require.NoError(t, err)
	assert.Equal(t, 1, embedder.callCount(), "everything came from the cache")
	assert.Equal(t, 2, report.Cached)
	assert.Equal(t, first.Courses(), second.Courses())
}

func TestBuild_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	builder := NewBuilder(embedding.NewHashEmbedder(16), BuildOptions{})
	_, err := builder.Build(ctx, courseRecords("Intro to Python"))
	assert.ErrorIs(t, err, context.Canceled)
}
