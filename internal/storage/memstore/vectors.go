package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/mnemograph/mnemograph-backend/internal/domain"
	"github.com/mnemograph/mnemograph-backend/internal/embedding"
	"github.com/mnemograph/mnemograph-backend/internal/kgerr"
	"github.com/mnemograph/mnemograph-backend/internal/storage"
)

func (s *Store) StoreVector(ctx context.Context, v *domain.VectorPayload) (*domain.VectorPayload, error) {
	const op = "memstore.StoreVector"
	if v == nil {
		return nil, kgerr.New(kgerr.KindValidation, op, "vector is nil")
	}
	if err := v.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.vectors[v.ID]; ok {
		return nil, kgerr.Newf(kgerr.KindConflict, op, "vector %s already exists", v.ID)
	}
	if dim, ok := s.collectionDims[v.Collection]; ok {
		if len(v.Embedding) != dim {
			return nil, kgerr.Newf(kgerr.KindValidation, op,
				"collection %q holds %d-dimensional vectors, got %d", v.Collection, dim, len(v.Embedding))
		}
	} else {
		s.collectionDims[v.Collection] = len(v.Embedding)
	}
	s.vectors[v.ID] = v.Clone()
	return v.Clone(), nil
}

func (s *Store) GetVector(ctx context.Context, id string) (*domain.VectorPayload, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vectors[id]
	if !ok {
		return nil, kgerr.Newf(kgerr.KindNotFound, "memstore.GetVector", "vector %s not found", id)
	}
	return v.Clone(), nil
}

// SearchVectors computes cosine against every stored embedding, applies the
// payload filter, drops results under the similarity floor and returns the
// top k ranked descending.
func (s *Store) SearchVectors(ctx context.Context, query []float64, k int, filter storage.VectorFilter) ([]storage.SearchResult, error) {
	if len(query) == 0 {
		return nil, kgerr.New(kgerr.KindValidation, "memstore.SearchVectors", "query embedding is empty")
	}
	if k < 1 {
		k = 10
	}
	s.mu.RLock()
	var results []storage.SearchResult
	for _, v := range s.vectors {
		if !matchesFilter(v, filter) {
			continue
		}
		sim := embedding.Cosine(query, v.Embedding)
		if sim < s.floor {
			continue
		}
		results = append(results, storage.SearchResult{Vector: v.Clone(), Similarity: sim})
	}
	s.mu.RUnlock()

	sort.Slice(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].Vector.ID < results[j].Vector.ID
	})
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

func matchesFilter(v *domain.VectorPayload, filter storage.VectorFilter) bool {
	for key, want := range filter {
		switch key {
		case "collection":
			if !valueMatches(v.Collection, want) {
				return false
			}
		case "source_tier":
			if !valueMatches(string(v.SourceTier), want) {
				return false
			}
		case "abstraction_level":
			if !valueMatches(string(v.AbstractionLevel), want) {
				return false
			}
		case "embedding_type":
			if !valueMatches(string(v.EmbeddingType), want) {
				return false
			}
		case "entity_refs":
			if !anyRefMatches(v.EntityRefs, want) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// valueMatches treats scalars as equality and slices as set membership.
func valueMatches(have string, want any) bool {
	switch w := want.(type) {
	case string:
		return have == w
	case []string:
		for _, c := range w {
			if have == c {
				return true
			}
		}
		return false
	case []any:
		for _, c := range w {
			if s, ok := c.(string); ok && have == s {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func anyRefMatches(refs []string, want any) bool {
	for _, r := range refs {
		if valueMatches(r, want) {
			return true
		}
	}
	return false
}

func (s *Store) DeleteVector(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.vectors[id]; !ok {
		return false, nil
	}
	delete(s.vectors, id)
	return true, nil
}

func (s *Store) UpdateVectorDecay(ctx context.Context, id string, score float64) error {
	const op = "memstore.UpdateVectorDecay"
	if score < 0 || score > 1 {
		return kgerr.Newf(kgerr.KindValidation, op, "decay score must be in [0,1], got %v", score)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vectors[id]
	if !ok {
		return kgerr.Newf(kgerr.KindNotFound, op, "vector %s not found", id)
	}
	v.DecayScore = &score
	v.UpdatedAt = time.Now().UTC()
	return nil
}
