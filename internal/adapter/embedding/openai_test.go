package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmbeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

func newEmbeddingServer(t *testing.T, status int) (*httptest.Server, *[]fakeEmbeddingRequest) {
	t.Helper()
	var requests []fakeEmbeddingRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req fakeEmbeddingRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		requests = append(requests, req)

		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{"message": "model overloaded"},
			})
			return
		}

		data := make([]map[string]any, len(req.Input))
		for i, text := range req.Input {
			data[i] = map[string]any{
				"object":    "embedding",
				"index":     i,
				"embedding": []float32{float32(len(text)), 1, 0},
			}
		}
		json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"model":  req.Model,
			"data":   data,
		})
	}))
	t.Cleanup(server.Close)
	return server, &requests
}

func TestOpenAIEmbedder_Embed(t *testing.T) {
	server, requests := newEmbeddingServer(t, http.StatusOK)
	t.Setenv("TEST_EMBED_KEY", "test-key")

	e, err := NewOpenAICompatibleEmbedder("TEST_EMBED_KEY", "all-minilm", server.URL, Options{BatchSize: 2})
	require.NoError(t, err)

	texts := []string{"Intro to Python", "SQL\nBasics", "Excel"}
	vectors, err := e.Embed(context.Background(), texts)
	require.NoError(t, err)

	require.Len(t, vectors, 3)
	assert.Equal(t, []float32{15, 1, 0}, vectors[0])
	assert.Equal(t, []float32{5, 1, 0}, vectors[2])

	// Two batches of at most two texts, newlines stripped, input untouched.
	require.Len(t, *requests, 2)
	assert.Equal(t, []string{"Intro to Python", "SQL Basics"}, (*requests)[0].Input)
	assert.Equal(t, "all-minilm", (*requests)[0].Model)
	assert.Equal(t, "SQL\nBasics", texts[1])
	assert.Equal(t, "all-minilm", e.ModelName())
}

func TestOpenAIEmbedder_Empty(t *testing.T) {
	server, requests := newEmbeddingServer(t, http.StatusOK)
	t.Setenv("TEST_EMBED_KEY", "test-key")

	e, err := NewOpenAICompatibleEmbedder("TEST_EMBED_KEY", "all-minilm", server.URL, Options{})
	require.NoError(t, err)

	vectors, err := e.Embed(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vectors)
	assert.Empty(t, *requests)
}

func TestOpenAIEmbedder_ServerError(t *testing.T) {
	server, _ := newEmbeddingServer(t, http.StatusServiceUnavailable)
	t.Setenv("TEST_EMBED_KEY", "test-key")

	e, err := NewOpenAICompatibleEmbedder("TEST_EMBED_KEY", "all-minilm", server.URL, Options{})
	require.NoError(t, err)

	_, err = e.Embed(context.Background(), []string{"Intro to Python"})
	assert.Error(t, err)
}

func TestOpenAIEmbedder_MissingKey(t *testing.T) {
	t.Setenv("TEST_EMBED_KEY", "")

	_, err := NewOpenAICompatibleEmbedder("TEST_EMBED_KEY", "all-minilm", "http://localhost", Options{})
	assert.Error(t, err)
}
