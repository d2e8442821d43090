package audit

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mnemograph/mnemograph-backend/internal/domain"
	"github.com/mnemograph/mnemograph-backend/internal/platform/logger"
)

type Recorder interface {
	RecordDocument(ctx context.Context, doc *domain.Document) error
	RecordBatchJob(ctx context.Context, job *domain.BatchJob) error
	RecordProposal(ctx context.Context, p *domain.AgentProposal) error
	RecentDocuments(ctx context.Context, limit int) ([]*DocumentRecord, error)
	ProposalsByStatus(ctx context.Context, status string, limit int) ([]*ProposalRecord, error)
}

type gormRecorder struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRecorder(db *gorm.DB, log *logger.Logger) Recorder {
	return &gormRecorder{
		db:  db,
		log: log.With("repo", "AuditRecorder"),
	}
}

func (r *gormRecorder) RecordDocument(ctx context.Context, doc *domain.Document) error {
	concepts, err := json.Marshal(doc.Concepts)
	if err != nil {
		return err
	}
	rec := &DocumentRecord{
		ID:         doc.ID,
		SourceID:   doc.SourceID,
		Title:      doc.Title,
		Format:     doc.Format,
		RawLength:  doc.RawLength,
		ChunkCount: doc.ChunkCount,
		Concepts:   concepts,
		CreatedAt:  doc.CreatedAt,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, UpdateAll: true}).
		Create(rec).Error
}

// RecordBatchJob upserts so the same run can be written at start and again
// at completion.
func (r *gormRecorder) RecordBatchJob(ctx context.Context, job *domain.BatchJob) error {
	errs, err := json.Marshal(job.Errors)
	if err != nil {
		return err
	}
	rec := &BatchJobRun{
		ID:         job.ID,
		Total:      job.Total,
		Processed:  job.Processed,
		Failed:     job.Failed,
		Status:     job.Status,
		Errors:     errs,
		StartedAt:  job.StartedAt,
		FinishedAt: job.FinishedAt,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, UpdateAll: true}).
		Create(rec).Error
}

func (r *gormRecorder) RecordProposal(ctx context.Context, p *domain.AgentProposal) error {
	target, err := json.Marshal(p.Target)
	if err != nil {
		return err
	}
	rec := &ProposalRecord{
		ID:         p.ID,
		AgentType:  string(p.AgentType),
		Action:     string(p.Action),
		Status:     string(p.Status),
		Confidence: p.Confidence,
		Reasoning:  p.Reasoning,
		Target:     target,
		CreatedAt:  p.CreatedAt,
	}
	if p.Status != domain.StatusProposed {
		now := time.Now().UTC()
		rec.DecidedAt = &now
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, UpdateAll: true}).
		Create(rec).Error
}

func (r *gormRecorder) RecentDocuments(ctx context.Context, limit int) ([]*DocumentRecord, error) {
	if limit < 1 {
		limit = 20
	}
	var out []*DocumentRecord
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

func (r *gormRecorder) ProposalsByStatus(ctx context.Context, status string, limit int) ([]*ProposalRecord, error) {
	if limit < 1 {
		limit = 50
	}
	query := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var out []*ProposalRecord
	err := query.Find(&out).Error
	return out, err
}

// NopRecorder is used when auditing is disabled.
type NopRecorder struct{}

func (NopRecorder) RecordDocument(ctx context.Context, doc *domain.Document) error     { return nil }
func (NopRecorder) RecordBatchJob(ctx context.Context, job *domain.BatchJob) error     { return nil }
func (NopRecorder) RecordProposal(ctx context.Context, p *domain.AgentProposal) error  { return nil }
func (NopRecorder) RecentDocuments(ctx context.Context, limit int) ([]*DocumentRecord, error) {
	return nil, nil
}
func (NopRecorder) ProposalsByStatus(ctx context.Context, status string, limit int) ([]*ProposalRecord, error) {
	return nil, nil
}
