package neo4jstore

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/mnemograph/mnemograph-backend/internal/domain"
	"github.com/mnemograph/mnemograph-backend/internal/kgerr"
	"github.com/mnemograph/mnemograph-backend/internal/platform/ctxutil"
	"github.com/mnemograph/mnemograph-backend/internal/storage"
)

func (s *Store) CreateNode(ctx context.Context, n *domain.Node) (*domain.Node, error) {
	const op = "neo4jstore.CreateNode"
	if err := n.Validate(); err != nil {
		return nil, err
	}
	ctx = ctxutil.Default(ctx)

	_, err := s.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `CREATE (n:KGNode) SET n = $props`, map[string]any{"props": nodeProps(n)})
		if err != nil {
			return nil, err
		}
		_, err = res.Consume(ctx)
		return nil, err
	})
	if err != nil {
		return nil, mapNeo4jError(op, err)
	}
	return n.Clone(), nil
}

func (s *Store) GetNode(ctx context.Context, id string) (*domain.Node, error) {
	const op = "neo4jstore.GetNode"
	ctx = ctxutil.Default(ctx)

	result, err := s.client.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `MATCH (n:KGNode {id: $id}) RETURN n`, map[string]any{"id": id})
		if err != nil {
			return nil, err
		}
		record, err := res.Single(ctx)
		if err != nil {
			return nil, err
		}
		raw, _ := record.Get("n")
		vertex, ok := raw.(neo4j.Node)
		if !ok {
			return nil, fmt.Errorf("unexpected record shape %T", raw)
		}
		return nodeFromProps(vertex.Props), nil
	})
	if err != nil {
		if isZeroRows(err) {
			return nil, kgerr.Newf(kgerr.KindNotFound, op, "node %s not found", id)
		}
		return nil, mapNeo4jError(op, err)
	}
	return result.(*domain.Node), nil
}

func (s *Store) UpdateNode(ctx context.Context, id string, patch domain.NodePatch) (*domain.Node, error) {
	const op = "neo4jstore.UpdateNode"
	ctx = ctxutil.Default(ctx)

	result, err := s.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `MATCH (n:KGNode {id: $id}) RETURN n`, map[string]any{"id": id})
		if err != nil {
			return nil, err
		}
		record, err := res.Single(ctx)
		if err != nil {
			return nil, err
		}
		raw, _ := record.Get("n")
		vertex, ok := raw.(neo4j.Node)
		if !ok {
			return nil, fmt.Errorf("unexpected record shape %T", raw)
		}

		updated := nodeFromProps(vertex.Props)
		patch.Apply(updated)
		if err := updated.Validate(); err != nil {
			return nil, err
		}

		write, err := tx.Run(ctx, `MATCH (n:KGNode {id: $id}) SET n = $props`,
			map[string]any{"id": id, "props": nodeProps(updated)})
		if err != nil {
			return nil, err
		}
		if _, err := write.Consume(ctx); err != nil {
			return nil, err
		}
		return updated, nil
	})
	if err != nil {
		if isZeroRows(err) {
			return nil, kgerr.Newf(kgerr.KindNotFound, op, "node %s not found", id)
		}
		if kgerr.Is(err, kgerr.KindValidation) {
			return nil, err
		}
		return nil, mapNeo4jError(op, err)
	}
	return result.(*domain.Node), nil
}

// DeleteNode removes the node and every incident edge with it.
func (s *Store) DeleteNode(ctx context.Context, id string) (bool, error) {
	const op = "neo4jstore.DeleteNode"
	ctx = ctxutil.Default(ctx)

	result, err := s.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `MATCH (n:KGNode {id: $id}) DETACH DELETE n`, map[string]any{"id": id})
		if err != nil {
			return nil, err
		}
		summary, err := res.Consume(ctx)
		if err != nil {
			return nil, err
		}
		return summary.Counters().NodesDeleted() > 0, nil
	})
	if err != nil {
		return false, mapNeo4jError(op, err)
	}
	return result.(bool), nil
}

func (s *Store) ListNodes(ctx context.Context, page, limit int) (*storage.NodePage, error) {
	const op = "neo4jstore.ListNodes"
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	ctx = ctxutil.Default(ctx)

	result, err := s.client.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		countRes, err := tx.Run(ctx, `MATCH (n:KGNode) RETURN count(n) AS total`, nil)
		if err != nil {
			return nil, err
		}
		countRecord, err := countRes.Single(ctx)
		if err != nil {
			return nil, err
		}
		totalRaw, _ := countRecord.Get("total")
		total := int(totalRaw.(int64))

		res, err := tx.Run(ctx, `
MATCH (n:KGNode)
RETURN n
ORDER BY n.created_at DESC, n.id ASC
SKIP $skip LIMIT $limit
`, map[string]any{"skip": (page - 1) * limit, "limit": limit})
		if err != nil {
			return nil, err
		}
		items, err := collectNodes(ctx, res)
		if err != nil {
			return nil, err
		}
		return &storage.NodePage{
			Items:   items,
			Total:   total,
			Page:    page,
			Limit:   limit,
			HasMore: page*limit < total,
		}, nil
	})
	if err != nil {
		return nil, mapNeo4jError(op, err)
	}
	return result.(*storage.NodePage), nil
}

// SearchNodesByText ranks exact name matches above name and canonical-name
// substrings, which rank above description substrings.
func (s *Store) SearchNodesByText(ctx context.Context, query string, limit int) ([]*domain.Node, error) {
	const op = "neo4jstore.SearchNodesByText"
	q := lower(query)
	if q == "" {
		return nil, nil
	}
	if limit < 1 {
		limit = 20
	}
	ctx = ctxutil.Default(ctx)

	result, err := s.client.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MATCH (n:KGNode)
WITH n, toLower(n.name) AS name, toLower(n.canonical_name) AS canonical, toLower(n.description) AS description
WITH n, name, CASE
  WHEN name = $q THEN 0
  WHEN name CONTAINS $q OR canonical CONTAINS $q THEN 1
  WHEN description CONTAINS $q THEN 2
  ELSE 3
END AS rank
WHERE rank < 3
RETURN n
ORDER BY rank ASC, name ASC
LIMIT $limit
`, map[string]any{"q": q, "limit": limit})
		if err != nil {
			return nil, err
		}
		return collectNodes(ctx, res)
	})
	if err != nil {
		return nil, mapNeo4jError(op, err)
	}
	return result.([]*domain.Node), nil
}

func (s *Store) NodesByType(ctx context.Context, kind domain.NodeKind, limit int) ([]*domain.Node, error) {
	const op = "neo4jstore.NodesByType"
	if !domain.IsNodeKind(kind) {
		return nil, kgerr.Newf(kgerr.KindValidation, op, "unknown node kind %q", kind)
	}
	if limit < 1 {
		limit = 20
	}
	ctx = ctxutil.Default(ctx)

	result, err := s.client.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MATCH (n:KGNode {kind: $kind})
RETURN n
ORDER BY n.created_at DESC, n.id ASC
LIMIT $limit
`, map[string]any{"kind": string(kind), "limit": limit})
		if err != nil {
			return nil, err
		}
		return collectNodes(ctx, res)
	})
	if err != nil {
		return nil, mapNeo4jError(op, err)
	}
	return result.([]*domain.Node), nil
}

// BulkCreateNodes writes the whole batch in one UNWIND when every item
// validates. A failure falls back to item-by-item creation so the caller
// learns exactly which prefix made it in.
func (s *Store) BulkCreateNodes(ctx context.Context, nodes []*domain.Node) (*storage.BulkResult, error) {
	const op = "neo4jstore.BulkCreateNodes"
	ctx = ctxutil.Default(ctx)

	allValid := true
	for _, n := range nodes {
		if n == nil || n.Validate() != nil {
			allValid = false
			break
		}
	}

	if allValid {
		props := make([]map[string]any, 0, len(nodes))
		ids := make([]string, 0, len(nodes))
		for _, n := range nodes {
			props = append(props, nodeProps(n))
			ids = append(ids, n.ID)
		}
		_, err := s.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			res, err := tx.Run(ctx, `
UNWIND $nodes AS props
CREATE (n:KGNode)
SET n = props
`, map[string]any{"nodes": props})
			if err != nil {
				return nil, err
			}
			_, err = res.Consume(ctx)
			return nil, err
		})
		if err == nil {
			return &storage.BulkResult{CreatedIDs: ids}, nil
		}
		// The batch transaction rolled back whole; retry sequentially to
		// report the failing position.
	}

	created := make([]string, 0, len(nodes))
	for i, n := range nodes {
		if n == nil {
			return &storage.BulkResult{
				CreatedIDs: created,
				Err: kgerr.Newf(kgerr.KindValidation, op,
					"item %d failed, %d remaining not attempted", i, len(nodes)-i-1),
			}, nil
		}
		if _, err := s.CreateNode(ctx, n); err != nil {
			return &storage.BulkResult{
				CreatedIDs: created,
				Err: kgerr.Wrap(kgerr.KindOf(err), op,
					fmt.Sprintf("item %d failed, %d remaining not attempted", i, len(nodes)-i-1), err),
			}, nil
		}
		created = append(created, n.ID)
	}
	return &storage.BulkResult{CreatedIDs: created}, nil
}

func collectNodes(ctx context.Context, res neo4j.ResultWithContext) ([]*domain.Node, error) {
	records, err := res.Collect(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Node, 0, len(records))
	for _, record := range records {
		raw, _ := record.Get("n")
		vertex, ok := raw.(neo4j.Node)
		if !ok {
			return nil, fmt.Errorf("unexpected record shape %T", raw)
		}
		out = append(out, nodeFromProps(vertex.Props))
	}
	return out, nil
}
