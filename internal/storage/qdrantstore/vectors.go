package qdrantstore

import (
	"context"
	"sort"
	"time"

	"github.com/mnemograph/mnemograph-backend/internal/domain"
	"github.com/mnemograph/mnemograph-backend/internal/kgerr"
	"github.com/mnemograph/mnemograph-backend/internal/platform/qdranthttp"
	"github.com/mnemograph/mnemograph-backend/internal/storage"
)

func (s *Store) StoreVector(ctx context.Context, v *domain.VectorPayload) (*domain.VectorPayload, error) {
	const op = "qdrantstore.StoreVector"
	if err := v.Validate(); err != nil {
		return nil, err
	}

	dim, known := s.collectionDim(v.Collection)
	if known && dim != len(v.Embedding) {
		return nil, kgerr.Newf(kgerr.KindValidation, op,
			"collection %q holds %d-dimensional vectors, got %d", v.Collection, dim, len(v.Embedding))
	}
	if !known {
		if err := s.client.EnsureCollection(ctx, s.physical(v.Collection), len(v.Embedding)); err != nil {
			return nil, wrapQdrant(op, err)
		}
		s.rememberDim(v.Collection, len(v.Embedding))
	}

	stored := v.Clone()
	stored.UpdatedAt = time.Now().UTC()
	point := qdranthttp.Point{
		ID:      stored.ID,
		Vector:  stored.Embedding,
		Payload: vectorPayloadProps(stored),
	}
	if err := s.client.UpsertPoints(ctx, s.physical(stored.Collection), []qdranthttp.Point{point}); err != nil {
		return nil, wrapQdrant(op, err)
	}
	s.rememberHome(stored.ID, stored.Collection)
	return stored.Clone(), nil
}

func (s *Store) GetVector(ctx context.Context, id string) (*domain.VectorPayload, error) {
	const op = "qdrantstore.GetVector"
	collection, point, err := s.locate(ctx, id)
	if err != nil {
		return nil, kgerr.Newf(kgerr.KindNotFound, op, "vector %s not found", id)
	}
	return vectorFromPoint(point.ID, point.Vector, collection, point.Payload), nil
}

func (s *Store) SearchVectors(ctx context.Context, embedding []float64, k int, filter storage.VectorFilter) ([]storage.SearchResult, error) {
	const op = "qdrantstore.SearchVectors"
	if len(embedding) == 0 {
		return nil, kgerr.New(kgerr.KindValidation, op, "query embedding is required")
	}
	if k < 1 {
		k = 10
	}

	targets := s.targetCollections(filter)
	qdrantFilter, err := qdranthttp.BuildFilter(filterWithoutCollection(filter))
	if err != nil {
		return nil, wrapQdrant(op, err)
	}

	var merged []storage.SearchResult
	for _, logical := range targets {
		if dim, known := s.collectionDim(logical); known && dim != len(embedding) {
			continue
		}
		hits, err := s.client.SearchPoints(ctx, s.physical(logical), embedding, k, qdrantFilter)
		if err != nil {
			return nil, wrapQdrant(op, err)
		}
		for _, hit := range hits {
			if hit.Score < s.cfg.SimilarityFloor {
				continue
			}
			merged = append(merged, storage.SearchResult{
				Vector:     vectorFromPoint(hit.ID, hit.Vector, logical, hit.Payload),
				Similarity: hit.Score,
			})
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].Similarity == merged[j].Similarity {
			return merged[i].Vector.ID < merged[j].Vector.ID
		}
		return merged[i].Similarity > merged[j].Similarity
	})
	if len(merged) > k {
		merged = merged[:k]
	}
	return merged, nil
}

func (s *Store) DeleteVector(ctx context.Context, id string) (bool, error) {
	const op = "qdrantstore.DeleteVector"
	collection, _, err := s.locate(ctx, id)
	if err != nil {
		return false, nil
	}
	if err := s.client.DeletePoints(ctx, s.physical(collection), []string{id}); err != nil {
		return false, wrapQdrant(op, err)
	}
	s.forgetHome(id)
	return true, nil
}

func (s *Store) UpdateVectorDecay(ctx context.Context, id string, score float64) error {
	const op = "qdrantstore.UpdateVectorDecay"
	if score < 0 || score > 1 {
		return kgerr.Newf(kgerr.KindValidation, op, "decay score %v outside [0,1]", score)
	}
	collection, _, err := s.locate(ctx, id)
	if err != nil {
		return kgerr.Newf(kgerr.KindNotFound, op, "vector %s not found", id)
	}
	patch := map[string]any{
		"decay_score": score,
		"updated_at":  time.Now().UTC().Format(time.RFC3339Nano),
	}
	if err := s.client.SetPayload(ctx, s.physical(collection), []string{id}, patch); err != nil {
		return wrapQdrant(op, err)
	}
	return nil
}

// locate finds the logical collection holding a vector id, trying the cached
// home first and scanning known collections otherwise.
func (s *Store) locate(ctx context.Context, id string) (string, *qdranthttp.Point, error) {
	s.mu.Lock()
	cached, ok := s.home[id]
	s.mu.Unlock()
	if ok {
		point, err := s.client.RetrievePoint(ctx, s.physical(cached), id)
		if err == nil {
			return cached, point, nil
		}
		s.forgetHome(id)
	}
	for _, logical := range s.knownCollections() {
		point, err := s.client.RetrievePoint(ctx, s.physical(logical), id)
		if err != nil {
			continue
		}
		s.rememberHome(id, logical)
		return logical, point, nil
	}
	return "", nil, kgerr.Newf(kgerr.KindNotFound, "qdrantstore.locate", "vector %s not found", id)
}

func (s *Store) collectionDim(collection string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dim, ok := s.dims[collection]
	return dim, ok
}

func (s *Store) rememberDim(collection string, dim int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dims[collection] = dim
}

func (s *Store) rememberHome(id, collection string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.home[id] = collection
}

func (s *Store) forgetHome(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.home, id)
}

// targetCollections narrows the search to the collections named by the
// filter, falling back to every known collection.
func (s *Store) targetCollections(filter storage.VectorFilter) []string {
	raw, ok := filter["collection"]
	if !ok {
		return s.knownCollections()
	}
	switch typed := raw.(type) {
	case string:
		return []string{typed}
	case []string:
		return typed
	case []any:
		out := make([]string, 0, len(typed))
		for _, item := range typed {
			if name, ok := item.(string); ok {
				out = append(out, name)
			}
		}
		return out
	default:
		return nil
	}
}

func filterWithoutCollection(filter storage.VectorFilter) map[string]any {
	if len(filter) == 0 {
		return nil
	}
	out := make(map[string]any, len(filter))
	for key, value := range filter {
		if key == "collection" {
			continue
		}
		out[key] = value
	}
	return out
}
