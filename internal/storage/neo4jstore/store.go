// Package neo4jstore is the graph persistence backend. Nodes and chunks are
// labeled vertices, edges are typed relationships named after their relation,
// and path finding delegates to Cypher shortestPath.
package neo4jstore

import (
	"context"
	"errors"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/mnemograph/mnemograph-backend/internal/domain"
	"github.com/mnemograph/mnemograph-backend/internal/kgerr"
	"github.com/mnemograph/mnemograph-backend/internal/platform/ctxutil"
	"github.com/mnemograph/mnemograph-backend/internal/platform/logger"
	"github.com/mnemograph/mnemograph-backend/internal/platform/neo4jdb"
	"github.com/mnemograph/mnemograph-backend/internal/storage"
)

type Store struct {
	client *neo4jdb.Client
	log    *logger.Logger
}

var _ storage.Adapter = (*Store)(nil)

func New(client *neo4jdb.Client, log *logger.Logger) (*Store, error) {
	if client == nil || client.Driver == nil {
		return nil, kgerr.New(kgerr.KindUnavailable, "neo4jstore.New", "neo4j client not connected")
	}
	return &Store{
		client: client,
		log:    log.With("service", "Neo4jStore"),
	}, nil
}

// Initialize creates the uniqueness constraints and lookup indexes. Schema
// statements are best-effort; restricted users can still read and write.
func (s *Store) Initialize(ctx context.Context) error {
	ctx = ctxutil.Default(ctx)
	session := s.client.Session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	statements := []string{
		`CREATE CONSTRAINT kg_node_id_unique IF NOT EXISTS FOR (n:KGNode) REQUIRE n.id IS UNIQUE`,
		`CREATE CONSTRAINT kg_chunk_id_unique IF NOT EXISTS FOR (c:KGChunk) REQUIRE c.id IS UNIQUE`,
		`CREATE INDEX kg_node_kind_idx IF NOT EXISTS FOR (n:KGNode) ON (n.kind)`,
		`CREATE INDEX kg_node_name_idx IF NOT EXISTS FOR (n:KGNode) ON (n.name)`,
		`CREATE INDEX kg_chunk_source_idx IF NOT EXISTS FOR (c:KGChunk) ON (c.source_id)`,
	}
	for _, r := range domain.Relations() {
		statements = append(statements,
			`CREATE CONSTRAINT kg_edge_id_`+strings.ToLower(string(r))+` IF NOT EXISTS `+
				`FOR ()-[e:`+relationshipType(r)+`]-() REQUIRE e.id IS UNIQUE`)
	}

	for _, stmt := range statements {
		res, err := session.Run(ctx, stmt, nil)
		if err != nil {
			s.log.Warn("schema init statement failed (continuing)", "error", err)
			continue
		}
		_, _ = res.Consume(ctx)
	}
	return nil
}

func (s *Store) HealthCheck(ctx context.Context) bool {
	if s == nil || s.client == nil || s.client.Driver == nil {
		return false
	}
	return s.client.Driver.VerifyConnectivity(ctxutil.Default(ctx)) == nil
}

func (s *Store) Disconnect(ctx context.Context) error {
	return s.client.Close(ctx)
}

func (s *Store) Type() string { return "neo4j" }

// Every operation runs in its own managed transaction, so begin/commit are
// documented no-ops. Rollback cannot undo already-committed writes and says
// so; callers that need all-or-nothing semantics compensate with explicit
// deletes.
func (s *Store) BeginTx(ctx context.Context) error  { return nil }
func (s *Store) CommitTx(ctx context.Context) error { return nil }
func (s *Store) RollbackTx(ctx context.Context) error {
	return notSupported("neo4jstore.RollbackTx")
}

// Vector similarity lives in the vector backend; the graph side has no
// embedding index to serve these from.
func (s *Store) StoreVector(ctx context.Context, v *domain.VectorPayload) (*domain.VectorPayload, error) {
	return nil, notSupported("neo4jstore.StoreVector")
}

func (s *Store) GetVector(ctx context.Context, id string) (*domain.VectorPayload, error) {
	return nil, notSupported("neo4jstore.GetVector")
}

func (s *Store) SearchVectors(ctx context.Context, embedding []float64, k int, filter storage.VectorFilter) ([]storage.SearchResult, error) {
	return nil, notSupported("neo4jstore.SearchVectors")
}

func (s *Store) DeleteVector(ctx context.Context, id string) (bool, error) {
	return false, notSupported("neo4jstore.DeleteVector")
}

func (s *Store) UpdateVectorDecay(ctx context.Context, id string, score float64) error {
	return notSupported("neo4jstore.UpdateVectorDecay")
}

func notSupported(op string) error {
	return kgerr.New(kgerr.KindNotSupported, op, "vector operations require the vector or hybrid backend")
}

// relationshipType maps a relation to its Cypher relationship type. The
// relation is always validated against the enum before it reaches a query.
func relationshipType(r domain.Relation) string {
	return strings.ToUpper(string(r))
}

func relationshipUnion() string {
	types := make([]string, 0, len(domain.Relations()))
	for _, r := range domain.Relations() {
		types = append(types, relationshipType(r))
	}
	return strings.Join(types, "|")
}

func lower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// isZeroRows detects a Single() call that found no record.
func isZeroRows(err error) bool {
	if err == nil {
		return false
	}
	var usage *neo4j.UsageError
	if errors.As(err, &usage) {
		return strings.Contains(usage.Message, "no more records")
	}
	return strings.Contains(err.Error(), "no more records")
}

func mapNeo4jError(op string, err error) error {
	if err == nil {
		return nil
	}
	if neo4j.IsNeo4jError(err) {
		ne := err.(*neo4j.Neo4jError)
		switch {
		case strings.Contains(ne.Code, "ConstraintValidationFailed"),
			strings.Contains(ne.Code, "ConstraintViolation"):
			return kgerr.Wrap(kgerr.KindConflict, op, "constraint violation", err)
		case strings.Contains(ne.Code, "ServiceUnavailable"),
			strings.Contains(ne.Code, "DatabaseUnavailable"):
			return kgerr.Wrap(kgerr.KindUnavailable, op, "neo4j unavailable", err)
		}
	}
	if err == context.DeadlineExceeded {
		return kgerr.Wrap(kgerr.KindTimeout, op, "neo4j query timed out", err)
	}
	return kgerr.Wrap(kgerr.KindUnavailable, op, "neo4j query failed", err)
}
