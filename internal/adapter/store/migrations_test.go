package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursesearch/config"
)

func TestComputeConfigHash(t *testing.T) {
	base := config.DefaultConfig().Embedding

	same := base
	same.BatchSize = 1
	same.Workers = 9
	assert.Equal(t, ComputeConfigHash(base), ComputeConfigHash(same), "throughput settings do not matter")

	dim := base
	dim.Dimension = 64
	assert.NotEqual(t, ComputeConfigHash(base), ComputeConfigHash(dim))

	remote := base
	remote.Provider = "openai"
	other := remote
	other.BaseURL = "http://localhost:8080/v1"
	assert.NotEqual(t, ComputeConfigHash(remote), ComputeConfigHash(other))
}

func TestMigrate_FreshCache(t *testing.T) {
	cache, _ := openTestCache(t)
	defer cache.Close()

	result, err := cache.Migrate("abc")
	require.NoError(t, err)
	assert.False(t, result.Cleared)
	assert.Equal(t, 0, result.OldVersion)

	info, err := cache.GetSchemaInfo()
	require.NoError(t, err)
	assert.Equal(t, CurrentSchemaVersion, info.Version)
	assert.Equal(t, "abc", info.ConfigHash)
}

func TestMigrate_KeepsVectorsForSameConfig(t *testing.T) {
	cache, _ := openTestCache(t)
	defer cache.Close()

	_, err := cache.Migrate("abc")
	require.NoError(t, err)
	require.NoError(t, cache.Store("m", []string{"SQL"}, [][]float32{{1}}))

	result, err := cache.Migrate("abc")
	require.NoError(t, err)
	assert.False(t, result.Cleared)

	_, ok := cache.Lookup("m", "SQL")
	assert.True(t, ok)
}

func TestMigrate_ClearsOnConfigChange(t *testing.T) {
	cache, _ := openTestCache(t)
	defer cache.Close()

	_, err := cache.Migrate("abc")
	require.NoError(t, err)
	require.NoError(t, cache.Store("m", []string{"SQL"}, [][]float32{{1}}))

	result, err := cache.Migrate("def")
	require.NoError(t, err)
	assert.True(t, result.Cleared)
	assert.Equal(t, "embedding configuration changed", result.Reason)

	_, ok := cache.Lookup("m", "SQL")
	assert.False(t, ok)

	// The cache stays usable after clearing.
	require.NoError(t, cache.Store("m", []string{"SQL"}, [][]float32{{2}}))
	vec, ok := cache.Lookup("m", "SQL")
	require.True(t, ok)
	assert.Equal(t, []float32{2}, vec)
}
