package neo4jstore

import (
	"context"
	"fmt"
	"strconv"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/mnemograph/mnemograph-backend/internal/domain"
	"github.com/mnemograph/mnemograph-backend/internal/kgerr"
	"github.com/mnemograph/mnemograph-backend/internal/platform/ctxutil"
	"github.com/mnemograph/mnemograph-backend/internal/storage"
)

const defaultPathDepth = 5

func (s *Store) CreateEdge(ctx context.Context, e *domain.Edge) (*domain.Edge, error) {
	const op = "neo4jstore.CreateEdge"
	if err := e.Validate(); err != nil {
		return nil, err
	}
	ctx = ctxutil.Default(ctx)

	// The relation is enum-validated above, so splicing its relationship
	// type into the query is safe.
	query := `
MATCH (a:KGNode {id: $from})
MATCH (b:KGNode {id: $to})
CREATE (a)-[e:` + relationshipType(e.Relation) + `]->(b)
SET e = $props
RETURN e.id AS id
`
	result, err := s.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, map[string]any{
			"from":  e.FromNode,
			"to":    e.ToNode,
			"props": edgeProps(e),
		})
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		return len(records) > 0, nil
	})
	if err != nil {
		return nil, mapNeo4jError(op, err)
	}
	if !result.(bool) {
		return nil, kgerr.Newf(kgerr.KindNotFound, op, "edge endpoints %s -> %s must exist", e.FromNode, e.ToNode)
	}
	return e.Clone(), nil
}

func (s *Store) GetEdge(ctx context.Context, id string) (*domain.Edge, error) {
	const op = "neo4jstore.GetEdge"
	ctx = ctxutil.Default(ctx)

	result, err := s.client.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return findEdge(ctx, tx, id)
	})
	if err != nil {
		if isZeroRows(err) {
			return nil, kgerr.Newf(kgerr.KindNotFound, op, "edge %s not found", id)
		}
		return nil, mapNeo4jError(op, err)
	}
	return result.(*domain.Edge), nil
}

func (s *Store) UpdateEdge(ctx context.Context, id string, patch domain.EdgePatch) (*domain.Edge, error) {
	const op = "neo4jstore.UpdateEdge"
	ctx = ctxutil.Default(ctx)

	result, err := s.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		current, err := findEdge(ctx, tx, id)
		if err != nil {
			return nil, err
		}

		updated := current.Clone()
		patch.Apply(updated)
		if err := updated.Validate(); err != nil {
			return nil, err
		}

		if updated.Relation == current.Relation {
			res, err := tx.Run(ctx, `MATCH ()-[e {id: $id}]->() SET e = $props`,
				map[string]any{"id": id, "props": edgeProps(updated)})
			if err != nil {
				return nil, err
			}
			if _, err := res.Consume(ctx); err != nil {
				return nil, err
			}
			return updated, nil
		}

		// A relation change moves the edge to another relationship type:
		// drop and recreate inside the same transaction.
		res, err := tx.Run(ctx, `MATCH ()-[e {id: $id}]->() DELETE e`, map[string]any{"id": id})
		if err != nil {
			return nil, err
		}
		if _, err := res.Consume(ctx); err != nil {
			return nil, err
		}
		res, err = tx.Run(ctx, `
MATCH (a:KGNode {id: $from})
MATCH (b:KGNode {id: $to})
CREATE (a)-[e:`+relationshipType(updated.Relation)+`]->(b)
SET e = $props
`, map[string]any{"from": updated.FromNode, "to": updated.ToNode, "props": edgeProps(updated)})
		if err != nil {
			return nil, err
		}
		if _, err := res.Consume(ctx); err != nil {
			return nil, err
		}
		return updated, nil
	})
	if err != nil {
		if isZeroRows(err) {
			return nil, kgerr.Newf(kgerr.KindNotFound, op, "edge %s not found", id)
		}
		if kgerr.Is(err, kgerr.KindValidation) {
			return nil, err
		}
		return nil, mapNeo4jError(op, err)
	}
	return result.(*domain.Edge), nil
}

func (s *Store) DeleteEdge(ctx context.Context, id string) (bool, error) {
	const op = "neo4jstore.DeleteEdge"
	ctx = ctxutil.Default(ctx)

	result, err := s.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `MATCH ()-[e {id: $id}]->() DELETE e`, map[string]any{"id": id})
		if err != nil {
			return nil, err
		}
		summary, err := res.Consume(ctx)
		if err != nil {
			return nil, err
		}
		return summary.Counters().RelationshipsDeleted() > 0, nil
	})
	if err != nil {
		return false, mapNeo4jError(op, err)
	}
	return result.(bool), nil
}

func (s *Store) EdgesFrom(ctx context.Context, nodeID string) ([]*domain.Edge, error) {
	return s.queryEdges(ctx, "neo4jstore.EdgesFrom", `
MATCH (a:KGNode {id: $id})-[e]->(b:KGNode)
RETURN e, a.id AS from, b.id AS to
ORDER BY e.created_at ASC, e.id ASC
`, map[string]any{"id": nodeID})
}

func (s *Store) EdgesTo(ctx context.Context, nodeID string) ([]*domain.Edge, error) {
	return s.queryEdges(ctx, "neo4jstore.EdgesTo", `
MATCH (a:KGNode)-[e]->(b:KGNode {id: $id})
RETURN e, a.id AS from, b.id AS to
ORDER BY e.created_at ASC, e.id ASC
`, map[string]any{"id": nodeID})
}

func (s *Store) EdgesBetween(ctx context.Context, a, b string) ([]*domain.Edge, error) {
	return s.queryEdges(ctx, "neo4jstore.EdgesBetween", `
MATCH (a:KGNode {id: $a})-[e]->(b:KGNode {id: $b})
RETURN e, a.id AS from, b.id AS to
UNION
MATCH (a:KGNode {id: $b})-[e]->(b:KGNode {id: $a})
RETURN e, a.id AS from, b.id AS to
`, map[string]any{"a": a, "b": b})
}

func (s *Store) EdgesByRelation(ctx context.Context, r domain.Relation) ([]*domain.Edge, error) {
	const op = "neo4jstore.EdgesByRelation"
	if !domain.IsRelation(r) {
		return nil, kgerr.Newf(kgerr.KindValidation, op, "unknown relation %q", r)
	}
	return s.queryEdges(ctx, op, `
MATCH (a:KGNode)-[e:`+relationshipType(r)+`]->(b:KGNode)
RETURN e, a.id AS from, b.id AS to
ORDER BY e.created_at ASC, e.id ASC
`, nil)
}

// FindPath returns the shortest edge path between two nodes. A directed
// search runs first; when it finds nothing, an undirected search runs and
// the result is kept only if every directional edge is traversed forward.
func (s *Store) FindPath(ctx context.Context, from, to string, maxDepth int) ([]*domain.Edge, error) {
	const op = "neo4jstore.FindPath"
	if maxDepth < 1 {
		maxDepth = defaultPathDepth
	}
	ctx = ctxutil.Default(ctx)

	if _, err := s.GetNode(ctx, from); err != nil {
		return nil, err
	}
	if from == to {
		return nil, nil
	}
	if _, err := s.GetNode(ctx, to); err != nil {
		return nil, err
	}

	depth := strconv.Itoa(maxDepth)
	union := relationshipUnion()

	directed := `
MATCH (a:KGNode {id: $from}), (b:KGNode {id: $to})
MATCH p = shortestPath((a)-[:` + union + `*..` + depth + `]->(b))
RETURN p
LIMIT 1
`
	edges, err := s.queryPath(ctx, op, directed, from, to)
	if err != nil {
		return nil, err
	}
	if edges != nil {
		return edges, nil
	}

	undirected := `
MATCH (a:KGNode {id: $from}), (b:KGNode {id: $to})
MATCH p = shortestPath((a)-[:` + union + `*..` + depth + `]-(b))
RETURN p
LIMIT 1
`
	edges, err = s.queryPath(ctx, op, undirected, from, to)
	if err != nil {
		return nil, err
	}
	if edges != nil && pathRespectsDirection(edges, from) {
		return edges, nil
	}
	return nil, kgerr.Newf(kgerr.KindNotFound, op, "no path from %s to %s within %d hops", from, to, maxDepth)
}

// BulkCreateEdges creates sequentially: each relation carries its own
// relationship type, so the batch cannot ride a single UNWIND.
func (s *Store) BulkCreateEdges(ctx context.Context, edges []*domain.Edge) (*storage.BulkResult, error) {
	const op = "neo4jstore.BulkCreateEdges"
	created := make([]string, 0, len(edges))
	for i, e := range edges {
		if e == nil {
			return &storage.BulkResult{
				CreatedIDs: created,
				Err: kgerr.Newf(kgerr.KindValidation, op,
					"item %d failed, %d remaining not attempted", i, len(edges)-i-1),
			}, nil
		}
		if _, err := s.CreateEdge(ctx, e); err != nil {
			return &storage.BulkResult{
				CreatedIDs: created,
				Err: kgerr.Wrap(kgerr.KindOf(err), op,
					fmt.Sprintf("item %d failed, %d remaining not attempted", i, len(edges)-i-1), err),
			}, nil
		}
		created = append(created, e.ID)
	}
	return &storage.BulkResult{CreatedIDs: created}, nil
}

// findEdge loads one edge by id inside an open transaction. Zero rows
// surface as the driver's usage error, which callers map to not found.
func findEdge(ctx context.Context, tx neo4j.ManagedTransaction, id string) (*domain.Edge, error) {
	res, err := tx.Run(ctx, `
MATCH (a:KGNode)-[e {id: $id}]->(b:KGNode)
RETURN e, a.id AS from, b.id AS to
`, map[string]any{"id": id})
	if err != nil {
		return nil, err
	}
	record, err := res.Single(ctx)
	if err != nil {
		return nil, err
	}
	raw, _ := record.Get("e")
	rel, ok := raw.(neo4j.Relationship)
	if !ok {
		return nil, fmt.Errorf("unexpected record shape %T", raw)
	}
	fromRaw, _ := record.Get("from")
	toRaw, _ := record.Get("to")
	return edgeFromProps(rel.Props, asString(fromRaw), asString(toRaw)), nil
}

func (s *Store) queryEdges(ctx context.Context, op, query string, params map[string]any) ([]*domain.Edge, error) {
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
		out := make([]*domain.Edge, 0, len(records))
		for _, record := range records {
			raw, _ := record.Get("e")
			rel, ok := raw.(neo4j.Relationship)
			if !ok {
				return nil, fmt.Errorf("unexpected record shape %T", raw)
			}
			fromRaw, _ := record.Get("from")
			toRaw, _ := record.Get("to")
			out = append(out, edgeFromProps(rel.Props, asString(fromRaw), asString(toRaw)))
		}
		return out, nil
	})
	if err != nil {
		return nil, mapNeo4jError(op, err)
	}
	return result.([]*domain.Edge), nil
}

// queryPath returns nil, nil when the pattern matched nothing.
func (s *Store) queryPath(ctx context.Context, op, query, from, to string) ([]*domain.Edge, error) {
	result, err := s.client.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, map[string]any{"from": from, "to": to})
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		if len(records) == 0 {
			return []*domain.Edge(nil), nil
		}
		raw, _ := records[0].Get("p")
		path, ok := raw.(neo4j.Path)
		if !ok {
			return nil, fmt.Errorf("unexpected record shape %T", raw)
		}
		return pathEdges(path), nil
	})
	if err != nil {
		return nil, mapNeo4jError(op, err)
	}
	return result.([]*domain.Edge), nil
}

func pathEdges(path neo4j.Path) []*domain.Edge {
	idByElement := make(map[string]string, len(path.Nodes))
	for _, vertex := range path.Nodes {
		idByElement[vertex.ElementId] = asString(vertex.Props["id"])
	}
	out := make([]*domain.Edge, 0, len(path.Relationships))
	for _, rel := range path.Relationships {
		out = append(out, edgeFromProps(rel.Props,
			idByElement[rel.StartElementId], idByElement[rel.EndElementId]))
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// pathRespectsDirection walks the hop sequence from the start node and
// rejects any directional edge traversed against its direction.
func pathRespectsDirection(edges []*domain.Edge, start string) bool {
	at := start
	for _, e := range edges {
		switch {
		case e.FromNode == at:
			at = e.ToNode
		case e.ToNode == at && !e.Dynamics.Directional:
			at = e.FromNode
		default:
			return false
		}
	}
	return true
}
