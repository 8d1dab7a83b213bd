package embedding

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"

	"coursesearch/internal/adapter/analyzer"
	"coursesearch/internal/port"
)

const (
	wordWeight  = 1.0
	gramWeight  = 0.5
	gramLength  = 3
	minGramWord = 4
)

// HashEmbedder is a local, deterministic embedder. Each word token and each
// character trigram of longer words is hashed into one signed bucket of a
// fixed-size vector, which is then L2 normalised. Related titles share words
// or word fragments and so point in similar directions.
type HashEmbedder struct {
	dimension int
	tokenizer port.Tokenizer
}

func NewHashEmbedder(dimension int) *HashEmbedder {
	return &HashEmbedder{
		dimension: dimension,
		tokenizer: analyzer.NewTokenizer(),
	}
}

// Embed never fails for non-empty dimensions. A text without tokens maps to
// the zero vector, which scores 0 against everything.
func (e *HashEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if e.dimension <= 0 {
		return nil, fmt.Errorf("hash embedder: invalid dimension %d", e.dimension)
	}

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vectors[i] = e.embedOne(text)
	}
	return vectors, nil
}

func (e *HashEmbedder) embedOne(text string) []float32 {
	acc := make([]float64, e.dimension)

	for _, token := range e.tokenizer.Tokenize(text) {
		e.add(acc, "w:"+token, wordWeight)
		if len([]rune(token)) >= minGramWord {
			for _, gram := range analyzer.CharNGrams(token, gramLength) {
				e.add(acc, "g:"+gram, gramWeight)
			}
		}
	}

	var norm float64
	for _, v := range acc {
		norm += v * v
	}

	vec := make([]float32, e.dimension)
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for i, v := range acc {
		vec[i] = float32(v / norm)
	}
	return vec
}

func (e *HashEmbedder) add(acc []float64, feature string, weight float64) {
	h := fnv.New64a()
	h.Write([]byte(feature))
	sum := h.Sum64()

	idx := int(sum % uint64(e.dimension))
	if sum>>63 == 1 {
		weight = -weight
	}
	acc[idx] += weight
}

func (e *HashEmbedder) ModelName() string {
	return fmt.Sprintf("hash-%d", e.dimension)
}
