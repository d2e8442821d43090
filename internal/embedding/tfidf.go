package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mnemograph/mnemograph-backend/internal/kgerr"
)

// DefaultDimension matches the common sentence-embedding width so stores can
// hold model-produced and fallback vectors in the same collection.
const DefaultDimension = 768

// Vocabulary maps domain terms to precomputed IDF weights. Terms outside
// the vocabulary fall back to DefaultIDF.
type Vocabulary map[string]float64

const DefaultIDF = 1.0

// LoadVocabulary reads a term->idf YAML mapping.
func LoadVocabulary(path string) (Vocabulary, error) {
	const op = "embedding.LoadVocabulary"
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, kgerr.Wrap(kgerr.KindValidation, op, "read vocabulary file", err)
	}
	var vocab Vocabulary
	if err := yaml.Unmarshal(raw, &vocab); err != nil {
		return nil, kgerr.Wrap(kgerr.KindValidation, op, "parse vocabulary yaml", err)
	}
	return vocab, nil
}

// DefaultVocabulary covers frequent ML and systems terms. Weights grow with
// specificity; common glue words are deliberately absent so they score the
// fallback IDF.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		"algorithm":      2.1,
		"gradient":       2.8,
		"descent":        2.6,
		"backpropagation": 3.2,
		"attention":      2.9,
		"transformer":    3.0,
		"embedding":      2.7,
		"neural":         2.3,
		"network":        1.8,
		"optimization":   2.4,
		"regularization": 3.1,
		"dropout":        3.0,
		"batch":          2.0,
		"normalization":  2.8,
		"convolution":    3.0,
		"recurrent":      2.9,
		"inference":      2.5,
		"training":       1.9,
		"loss":           2.2,
		"entropy":        2.7,
		"softmax":        3.1,
		"tensor":         2.6,
		"matrix":         2.2,
		"vector":         2.0,
		"distributed":    2.4,
		"latency":        2.5,
		"throughput":     2.6,
		"cache":          2.3,
		"index":          2.1,
		"shard":          2.8,
		"consensus":      2.9,
		"replication":    2.7,
		"quantization":   3.2,
		"pruning":        3.0,
		"distillation":   3.1,
	}
}

// TFIDF is the dependency-free fallback embedder: term frequencies are
// projected onto hash(term) mod D with tf*idf weight, then L2-normalized.
// Deterministic for a given vocabulary and dimension.
type TFIDF struct {
	dim   int
	vocab Vocabulary
}

func NewTFIDF(dim int, vocab Vocabulary) *TFIDF {
	if dim < 1 {
		dim = DefaultDimension
	}
	if vocab == nil {
		vocab = DefaultVocabulary()
	}
	return &TFIDF{dim: dim, vocab: vocab}
}

func (e *TFIDF) Dimension() int { return e.dim }

func (e *TFIDF) Embed(ctx context.Context, text string) ([]float64, error) {
	if ctx != nil {
		select {
		case <-ctx.Done():
			return nil, kgerr.Wrap(kgerr.KindTimeout, "embedding.TFIDF.Embed", "context done", ctx.Err())
		default:
		}
	}
	vec := make([]float64, e.dim)
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return vec, nil
	}

	tf := make(map[string]float64, len(tokens))
	for _, tok := range tokens {
		tf[tok]++
	}
	for term, count := range tf {
		idf, ok := e.vocab[term]
		if !ok {
			idf = DefaultIDF
		}
		vec[termIndex(term, e.dim)] += (count / float64(len(tokens))) * idf
	}

	var mag float64
	for _, v := range vec {
		mag += v * v
	}
	if mag > 0 {
		mag = math.Sqrt(mag)
		for i := range vec {
			vec[i] /= mag
		}
	}
	return vec, nil
}

func termIndex(term string, dim int) int {
	h := fnv.New64a()
	h.Write([]byte(term))
	return int(h.Sum64() % uint64(dim))
}
