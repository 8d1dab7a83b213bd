package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

var (
	bucketEmbeddings = []byte("embeddings")
)

const keySep = 0x00

// EmbeddingCache persists title vectors in BoltDB so a restart does not have
// to call the embedding model again. Keys are "<model>\x00<text>", so vectors
// from different models never mix.
type EmbeddingCache struct {
	db *bbolt.DB
}

type storedVector struct {
	Vector []float32 `json:"v"`
}

// OpenEmbeddingCache opens or creates the cache file at path.
func OpenEmbeddingCache(path string) (*EmbeddingCache, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketEmbeddings)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create embeddings bucket: %w", err)
	}

	return &EmbeddingCache{db: db}, nil
}

func cacheKey(model, text string) []byte {
	key := make([]byte, 0, len(model)+1+len(text))
	key = append(key, model...)
	key = append(key, keySep)
	key = append(key, text...)
	return key
}

// Lookup returns the cached vector for text under model.
func (c *EmbeddingCache) Lookup(model, text string) ([]float32, bool) {
	var vec []float32
	err := c.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketEmbeddings).Get(cacheKey(model, text))
		if data == nil {
			return nil
		}
		var stored storedVector
		if err := json.Unmarshal(data, &stored); err != nil {
			return nil // Treat corrupted entries as misses
		}
		vec = stored.Vector
		return nil
	})
	if err != nil || vec == nil {
		return nil, false
	}
	return vec, true
}

// Store saves vectors for texts under model in a single transaction.
func (c *EmbeddingCache) Store(model string, texts []string, vectors [][]float32) error {
	if len(texts) != len(vectors) {
		return fmt.Errorf("text/vector count mismatch: %d texts, %d vectors", len(texts), len(vectors))
	}

	return c.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketEmbeddings)
		for i, text := range texts {
			data, err := json.Marshal(storedVector{Vector: vectors[i]})
			if err != nil {
				return err
			}
			if err := b.Put(cacheKey(model, text), data); err != nil {
				return err
			}
		}
		return nil
	})
}

// Count returns the number of vectors cached for model.
func (c *EmbeddingCache) Count(model string) (int, error) {
	prefix := cacheKey(model, "")
	count := 0
	err := c.db.View(func(tx *bbolt.Tx) error {
		cur := tx.Bucket(bucketEmbeddings).Cursor()
		for k, _ := cur.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = cur.Next() {
			count++
		}
		return nil
	})
	return count, err
}

// Purge drops every vector cached for model, e.g. after a model upgrade
// changed its output under the same name.
func (c *EmbeddingCache) Purge(model string) error {
	prefix := cacheKey(model, "")
	return c.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketEmbeddings)
		var keys [][]byte
		cur := b.Cursor()
		for k, _ := cur.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = cur.Next() {
			keys = append(keys, append([]byte(nil), k...))
		}
		for _, k := range keys {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

func (c *EmbeddingCache) Close() error {
	return c.db.Close()
}
