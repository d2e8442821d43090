package ingestion

import (
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mnemograph/mnemograph-backend/internal/kgerr"
)

// ConceptVocabulary is the list of known domain concepts matched against
// chunk content by case-insensitive substring.
type ConceptVocabulary []string

// LoadConceptVocabulary reads a YAML string list.
func LoadConceptVocabulary(path string) (ConceptVocabulary, error) {
	const op = "ingestion.LoadConceptVocabulary"
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, kgerr.Wrap(kgerr.KindValidation, op, "read concept vocabulary", err)
	}
	var vocab ConceptVocabulary
	if err := yaml.Unmarshal(raw, &vocab); err != nil {
		return nil, kgerr.Wrap(kgerr.KindValidation, op, "parse concept vocabulary yaml", err)
	}
	return vocab, nil
}

func DefaultConceptVocabulary() ConceptVocabulary {
	return ConceptVocabulary{
		"gradient descent",
		"backpropagation",
		"attention",
		"transformer",
		"neural network",
		"convolution",
		"regularization",
		"dropout",
		"batch normalization",
		"embedding",
		"quantization",
		"distillation",
		"reinforcement learning",
		"overfitting",
		"cross entropy",
		"softmax",
		"fine tuning",
		"tokenization",
		"beam search",
		"self supervision",
	}
}

// ExtractConcepts returns the vocabulary entries appearing literally
// (case-insensitively) in the content, sorted for stable output. Every
// returned concept is guaranteed to be a substring of the content.
func ExtractConcepts(content string, vocab ConceptVocabulary) []string {
	lower := strings.ToLower(content)
	var out []string
	for _, concept := range vocab {
		if strings.Contains(lower, strings.ToLower(concept)) {
			out = append(out, concept)
		}
	}
	sort.Strings(out)
	return out
}
