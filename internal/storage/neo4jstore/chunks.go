package neo4jstore

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/mnemograph/mnemograph-backend/internal/domain"
	"github.com/mnemograph/mnemograph-backend/internal/platform/ctxutil"
)

func (s *Store) StoreChunk(ctx context.Context, c *domain.DocumentChunk) (*domain.DocumentChunk, error) {
	const op = "neo4jstore.StoreChunk"
	if err := c.Validate(); err != nil {
		return nil, err
	}
	ctx = ctxutil.Default(ctx)

	_, err := s.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `CREATE (c:KGChunk) SET c = $props`, map[string]any{"props": chunkProps(c)})
		if err != nil {
			return nil, err
		}
		_, err = res.Consume(ctx)
		return nil, err
	})
	if err != nil {
		return nil, mapNeo4jError(op, err)
	}
	return c.Clone(), nil
}

func (s *Store) ChunksBySource(ctx context.Context, sourceID string) ([]*domain.DocumentChunk, error) {
	return s.queryChunks(ctx, "neo4jstore.ChunksBySource", `
MATCH (c:KGChunk {source_id: $source})
RETURN c
ORDER BY c.created_at ASC, c.id ASC
`, map[string]any{"source": sourceID})
}

func (s *Store) ChunksByConcept(ctx context.Context, concept string) ([]*domain.DocumentChunk, error) {
	return s.queryChunks(ctx, "neo4jstore.ChunksByConcept", `
MATCH (c:KGChunk)
WHERE any(item IN c.concepts WHERE toLower(item) = $concept)
RETURN c
ORDER BY c.created_at ASC, c.id ASC
`, map[string]any{"concept": lower(concept)})
}

func (s *Store) DeleteChunksBySource(ctx context.Context, sourceID string) (int, error) {
	const op = "neo4jstore.DeleteChunksBySource"
	ctx = ctxutil.Default(ctx)

	result, err := s.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `MATCH (c:KGChunk {source_id: $source}) DETACH DELETE c`,
			map[string]any{"source": sourceID})
		if err != nil {
			return nil, err
		}
		summary, err := res.Consume(ctx)
		if err != nil {
			return nil, err
		}
		return summary.Counters().NodesDeleted(), nil
	})
	if err != nil {
		return 0, mapNeo4jError(op, err)
	}
	return result.(int), nil
}

func (s *Store) queryChunks(ctx context.Context, op, query string, params map[string]any) ([]*domain.DocumentChunk, error) {
	ctx = ctxutil.Default(ctx)
	result, err := s.client.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]*domain.DocumentChunk, 0, len(records))
		for _, record := range records {
			raw, _ := record.Get("c")
			vertex, ok := raw.(neo4j.Node)
			if !ok {
				return nil, fmt.Errorf("unexpected record shape %T", raw)
			}
			out = append(out, chunkFromProps(vertex.Props))
		}
		return out, nil
	})
	if err != nil {
		return nil, mapNeo4jError(op, err)
	}
	return result.([]*domain.DocumentChunk), nil
}
