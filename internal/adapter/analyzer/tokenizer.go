package analyzer

import (
	"strings"
	"unicode"
)

// Tokenizer splits short texts such as course titles into lowercase words,
// dropping stopwords and single characters.
type Tokenizer struct {
	stopwords map[string]struct{}
}

// NewTokenizer creates a new Tokenizer with the default English stopwords.
func NewTokenizer() *Tokenizer {
	return &Tokenizer{stopwords: defaultStopwords()}
}

// Tokenize splits text into tokens.
func (t *Tokenizer) Tokenize(text string) []string {
	words := splitWords(text)
	tokens := make([]string, 0, len(words))

	for _, word := range words {
		word = strings.ToLower(word)
		if len([]rune(word)) < 2 && !isNumber(word) {
			continue
		}
		if _, isStop := t.stopwords[word]; isStop {
			continue
		}
		tokens = append(tokens, word)
	}

	return tokens
}

// CharNGrams returns the overlapping rune n-grams of word. Words shorter than
// n yield the word itself.
func CharNGrams(word string, n int) []string {
	runes := []rune(word)
	if n <= 0 {
		return nil
	}
	if len(runes) <= n {
		return []string{word}
	}

	grams := make([]string, 0, len(runes)-n+1)
	for i := 0; i+n <= len(runes); i++ {
		grams = append(grams, string(runes[i:i+n]))
	}
	return grams
}

// splitWords splits text into words using unicode word boundaries.
// "C++" and "C#" survive as words since they are common course subjects.
func splitWords(text string) []string {
	var words []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			words = append(words, current.String())
			current.Reset()
		}
	}

	for _, r := range text {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			current.WriteRune(r)
		case (r == '+' || r == '#') && current.Len() > 0:
			current.WriteRune(r)
		default:
			flush()
		}
	}
	flush()

	return words
}

func isNumber(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}

// defaultStopwords returns a set of common English stopwords plus words that
// carry no signal in course titles.
func defaultStopwords() map[string]struct{} {
	stops := []string{
		"a", "an", "and", "are", "as", "at", "be", "by", "for",
		"from", "has", "in", "is", "it", "its", "of", "on",
		"that", "the", "to", "was", "were", "will", "with", "this",
		"have", "had", "but", "not", "you", "your", "we", "our",
		"if", "or", "so", "no", "can", "do", "does", "how", "what",
		"into", "using", "course", "courses", "free",
	}
	m := make(map[string]struct{}, len(stops))
	for _, s := range stops {
		m[s] = struct{}{}
	}
	return m
}
