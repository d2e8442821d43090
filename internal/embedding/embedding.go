// Package embedding provides the deterministic TF-IDF fallback embedder and
// the text primitives (tokenize, cosine, keyword extraction) used across the
// ingestion and query paths.
package embedding

import (
	"context"
	"math"
	"sort"
	"strings"
	"unicode"
)

// Embedder turns text into a fixed-dimension embedding.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
	Dimension() int
}

// Tokenize lowercases, splits on non-alphanumerics and drops tokens of
// length <= 2.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if len(f) > 2 {
			out = append(out, f)
		}
	}
	return out
}

// Cosine computes cosine similarity. Unequal lengths are compared as if the
// shorter vector were zero-padded; zero magnitude on either side yields 0.
func Cosine(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, magA, magB float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
	}
	for _, v := range a {
		magA += v * v
	}
	for _, v := range b {
		magB += v * v
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}

// Keywords returns the top-k tokens by frequency. Ties resolve
// alphabetically so results are stable.
func Keywords(text string, k int) []string {
	if k < 1 {
		return nil
	}
	freq := make(map[string]int)
	for _, tok := range Tokenize(text) {
		freq[tok]++
	}
	terms := make([]string, 0, len(freq))
	for t := range freq {
		terms = append(terms, t)
	}
	sort.Slice(terms, func(i, j int) bool {
		if freq[terms[i]] != freq[terms[j]] {
			return freq[terms[i]] > freq[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > k {
		terms = terms[:k]
	}
	return terms
}
