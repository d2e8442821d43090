// Package audit persists a relational trail of what the engine did:
// ingested documents, batch runs and decided proposals. The graph itself
// lives in the storage backends; this is the queryable history.
package audit

import (
	"time"

	"gorm.io/datatypes"
)

type DocumentRecord struct {
	ID         string `gorm:"type:uuid;primaryKey"`
	SourceID   string `gorm:"type:uuid;index"`
	Title      string
	Format     string
	RawLength  int
	ChunkCount int
	Concepts   datatypes.JSON
	CreatedAt  time.Time
}

func (DocumentRecord) TableName() string { return "audit_documents" }

type BatchJobRun struct {
	ID         string `gorm:"type:uuid;primaryKey"`
	Total      int
	Processed  int
	Failed     int
	Status     string `gorm:"index"`
	Errors     datatypes.JSON
	StartedAt  time.Time
	FinishedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (BatchJobRun) TableName() string { return "audit_batch_job_runs" }

type ProposalRecord struct {
	ID         string `gorm:"type:uuid;primaryKey"`
	AgentType  string `gorm:"index"`
	Action     string
	Status     string `gorm:"index"`
	Confidence float64
	Reasoning  string
	Target     datatypes.JSON
	CreatedAt  time.Time
	DecidedAt  *time.Time
}

func (ProposalRecord) TableName() string { return "audit_proposals" }
