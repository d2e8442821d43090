package ingestion

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/mnemograph/mnemograph-backend/internal/domain"
	"github.com/mnemograph/mnemograph-backend/internal/embedding"
	"github.com/mnemograph/mnemograph-backend/internal/kgerr"
	"github.com/mnemograph/mnemograph-backend/internal/platform/logger"
	"github.com/mnemograph/mnemograph-backend/internal/storage"
)

type Config struct {
	ChunkSize           int
	Overlap             int
	AutoExtractConcepts bool
}

func DefaultConfig() Config {
	return Config{ChunkSize: 512, Overlap: 100, AutoExtractConcepts: true}
}

// Result is the output of a single-document run: the document record, its
// chunks, the chunk embeddings keyed by position, and the distinct concepts.
type Result struct {
	Document   *domain.Document
	Chunks     []*domain.DocumentChunk
	Embeddings []*domain.VectorPayload
	Concepts   []string
}

// Pipeline chunks, classifies, tags and embeds documents. Process is pure
// over storage; Ingest persists a Result all-or-nothing.
type Pipeline struct {
	cfg      Config
	embedder embedding.Embedder
	vocab    ConceptVocabulary
	log      *logger.Logger
}

func NewPipeline(cfg Config, embedder embedding.Embedder, vocab ConceptVocabulary, log *logger.Logger) *Pipeline {
	if cfg.ChunkSize < 1 {
		cfg.ChunkSize = 512
	}
	if cfg.Overlap < 0 || cfg.Overlap >= cfg.ChunkSize {
		cfg.Overlap = 100
	}
	if vocab == nil {
		vocab = DefaultConceptVocabulary()
	}
	return &Pipeline{
		cfg:      cfg,
		embedder: embedder,
		vocab:    vocab,
		log:      log.With("service", "IngestionPipeline"),
	}
}

// Process runs parse, chunk, section detection, claim classification,
// concept extraction and embedding over one raw document.
func (p *Pipeline) Process(ctx context.Context, title, raw string) (*Result, error) {
	const op = "ingestion.Pipeline.Process"
	sourceID := uuid.NewString()

	text, format := Parse(raw)
	spans := ChunkText(text, p.cfg.ChunkSize, p.cfg.Overlap)

	conceptSet := make(map[string]bool)
	chunks := make([]*domain.DocumentChunk, 0, len(spans))
	vectors := make([]*domain.VectorPayload, 0, len(spans))
	for _, span := range spans {
		chunk := domain.NewDocumentChunk(sourceID, span.Content)
		chunk.Section = SectionAt(text, span.Start)
		chunk.ClaimType = ClassifyClaim(span.Content)
		if p.cfg.AutoExtractConcepts {
			chunk.Concepts = ExtractConcepts(span.Content, p.vocab)
			for _, c := range chunk.Concepts {
				conceptSet[c] = true
			}
		}

		vec, err := p.embedder.Embed(ctx, span.Content)
		if err != nil {
			return nil, kgerr.Wrap(kgerr.KindExecution, op, "embed chunk", err)
		}
		payload := domain.NewVectorPayload("chunks", vec, domain.EmbMethod)
		payload.EntityRefs = []string{chunk.ID}
		chunk.EmbeddingID = payload.ID

		chunks = append(chunks, chunk)
		vectors = append(vectors, payload)
	}

	concepts := make([]string, 0, len(conceptSet))
	for c := range conceptSet {
		concepts = append(concepts, c)
	}
	sort.Strings(concepts)

	doc := &domain.Document{
		ID:         uuid.NewString(),
		SourceID:   sourceID,
		Title:      title,
		Format:     string(format),
		RawLength:  len(raw),
		ChunkCount: len(chunks),
		Concepts:   concepts,
		CreatedAt:  chunks[0].CreatedAt,
	}
	p.log.Debug("document processed",
		"source_id", sourceID, "format", format, "chunks", len(chunks), "concepts", len(concepts))
	return &Result{Document: doc, Chunks: chunks, Embeddings: vectors, Concepts: concepts}, nil
}

// Ingest processes the document and persists its chunks and embeddings
// inside one transaction: either the whole document lands or none of it.
func (p *Pipeline) Ingest(ctx context.Context, store storage.Adapter, title, raw string) (*Result, error) {
	res, err := p.Process(ctx, title, raw)
	if err != nil {
		return nil, err
	}
	if err := store.BeginTx(ctx); err != nil {
		return nil, err
	}
	for i, chunk := range res.Chunks {
		if _, err := store.StoreChunk(ctx, chunk); err != nil {
			p.rollback(ctx, store, res)
			return nil, err
		}
		if _, err := store.StoreVector(ctx, res.Embeddings[i]); err != nil {
			p.rollback(ctx, store, res)
			return nil, err
		}
	}
	if err := store.CommitTx(ctx); err != nil {
		p.rollback(ctx, store, res)
		return nil, err
	}
	return res, nil
}

// rollback undoes a failed ingest. Backends with real transaction support
// restore their snapshot; when RollbackTx reports NotSupported the partial
// writes are compensated with explicit deletes keyed by the document's
// source id.
func (p *Pipeline) rollback(ctx context.Context, store storage.Adapter, res *Result) {
	err := store.RollbackTx(ctx)
	if err == nil {
		return
	}
	if kgerr.KindOf(err) != kgerr.KindNotSupported {
		p.log.Warn("rollback after failed ingest", "error", err)
	}
	if _, err := store.DeleteChunksBySource(ctx, res.Document.SourceID); err != nil {
		p.log.Warn("compensating chunk delete failed",
			"source_id", res.Document.SourceID, "error", err)
	}
	for _, v := range res.Embeddings {
		if _, err := store.DeleteVector(ctx, v.ID); err != nil &&
			kgerr.KindOf(err) != kgerr.KindNotFound {
			p.log.Warn("compensating vector delete failed", "vector_id", v.ID, "error", err)
		}
	}
}
