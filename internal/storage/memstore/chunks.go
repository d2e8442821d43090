package memstore

import (
	"context"
	"sort"
	"strings"

	"github.com/mnemograph/mnemograph-backend/internal/domain"
	"github.com/mnemograph/mnemograph-backend/internal/kgerr"
)

func (s *Store) StoreChunk(ctx context.Context, c *domain.DocumentChunk) (*domain.DocumentChunk, error) {
	const op = "memstore.StoreChunk"
	if c == nil {
		return nil, kgerr.New(kgerr.KindValidation, op, "chunk is nil")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.chunks[c.ID]; ok {
		return nil, kgerr.Newf(kgerr.KindConflict, op, "chunk %s already exists", c.ID)
	}
	s.chunks[c.ID] = c.Clone()
	return c.Clone(), nil
}

func (s *Store) ChunksBySource(ctx context.Context, sourceID string) ([]*domain.DocumentChunk, error) {
	return s.filterChunks(func(c *domain.DocumentChunk) bool { return c.SourceID == sourceID }), nil
}

func (s *Store) ChunksByConcept(ctx context.Context, concept string) ([]*domain.DocumentChunk, error) {
	want := strings.ToLower(concept)
	return s.filterChunks(func(c *domain.DocumentChunk) bool {
		for _, got := range c.Concepts {
			if strings.ToLower(got) == want {
				return true
			}
		}
		return false
	}), nil
}

func (s *Store) DeleteChunksBySource(ctx context.Context, sourceID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for id, c := range s.chunks {
		if c.SourceID == sourceID {
			delete(s.chunks, id)
			count++
		}
	}
	return count, nil
}

func (s *Store) filterChunks(keep func(*domain.DocumentChunk) bool) []*domain.DocumentChunk {
	s.mu.RLock()
	var out []*domain.DocumentChunk
	for _, c := range s.chunks {
		if keep(c) {
			out = append(out, c.Clone())
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
