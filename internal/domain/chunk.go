package domain

import (
	"time"

	"github.com/google/uuid"
)

// DocumentChunk is one window of an ingested document.
type DocumentChunk struct {
	ID          string    `json:"id"`
	Content     string    `json:"content"`
	SourceID    string    `json:"source_id"`
	Section     string    `json:"section"`
	ClaimType   ClaimType `json:"claim_type"`
	Concepts    []string  `json:"concepts"`
	EmbeddingID string    `json:"embedding_id,omitempty"`
	Confidence  float64   `json:"confidence"`
	CreatedAt   time.Time `json:"created_at"`
}

func NewDocumentChunk(sourceID, content string) *DocumentChunk {
	return &DocumentChunk{
		ID:         uuid.NewString(),
		Content:    content,
		SourceID:   sourceID,
		Section:    "introduction",
		ClaimType:  ClaimUnknown,
		Confidence: 0.5,
		CreatedAt:  time.Now().UTC(),
	}
}

func (c *DocumentChunk) Clone() *DocumentChunk {
	if c == nil {
		return nil
	}
	out := *c
	out.Concepts = append([]string(nil), c.Concepts...)
	return &out
}

// Document is the record produced by a full ingestion run.
type Document struct {
	ID         string    `json:"id"`
	SourceID   string    `json:"source_id"`
	Title      string    `json:"title"`
	Format     string    `json:"format"`
	RawLength  int       `json:"raw_length"`
	ChunkCount int       `json:"chunk_count"`
	Concepts   []string  `json:"concepts"`
	CreatedAt  time.Time `json:"created_at"`
}

// BatchJob tracks one batch ingestion run.
type BatchJob struct {
	ID         string     `json:"id"`
	Total      int        `json:"total"`
	Processed  int        `json:"processed"`
	Failed     int        `json:"failed"`
	Status     string     `json:"status"`
	Errors     []string   `json:"errors,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

const (
	BatchRunning   = "running"
	BatchCompleted = "completed"
	BatchFailed    = "failed"
	BatchCancelled = "cancelled"
)
