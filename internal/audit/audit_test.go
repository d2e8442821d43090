package audit

import (
	"context"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/mnemograph/mnemograph-backend/internal/domain"
	"github.com/mnemograph/mnemograph-backend/internal/platform/logger"
)

func mustTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	t.Cleanup(log.Sync)
	return log
}

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	return db
}

func TestRecordDocument(t *testing.T) {
	rec := NewRecorder(testDB(t), mustTestLogger(t))
	ctx := context.Background()

	doc := &domain.Document{
		ID:         "6a3cc0f4-1111-4a56-9a1d-000000000001",
		SourceID:   "6a3cc0f4-1111-4a56-9a1d-000000000002",
		Title:      "attention notes",
		Format:     "markdown",
		RawLength:  1200,
		ChunkCount: 3,
		Concepts:   []string{"attention", "softmax"},
		CreatedAt:  time.Now().UTC(),
	}
	if err := rec.RecordDocument(ctx, doc); err != nil {
		t.Fatalf("RecordDocument: %v", err)
	}

	docs, err := rec.RecentDocuments(ctx, 10)
	if err != nil {
		t.Fatalf("RecentDocuments: %v", err)
	}
	if len(docs) != 1 || docs[0].Title != "attention notes" || docs[0].ChunkCount != 3 {
		t.Fatalf("recorded document: %+v", docs)
	}
}

func TestRecordBatchJobUpserts(t *testing.T) {
	rec := NewRecorder(testDB(t), mustTestLogger(t))
	ctx := context.Background()

	job := &domain.BatchJob{
		ID:        "6a3cc0f4-2222-4a56-9a1d-000000000001",
		Total:     4,
		Status:    domain.BatchRunning,
		StartedAt: time.Now().UTC(),
	}
	if err := rec.RecordBatchJob(ctx, job); err != nil {
		t.Fatalf("RecordBatchJob (start): %v", err)
	}

	finished := time.Now().UTC()
	job.Processed = 4
	job.Status = domain.BatchCompleted
	job.FinishedAt = &finished
	if err := rec.RecordBatchJob(ctx, job); err != nil {
		t.Fatalf("RecordBatchJob (finish): %v", err)
	}

	var runs []*BatchJobRun
	if err := testQuery(rec).Find(&runs).Error; err != nil {
		t.Fatalf("find runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("upsert must not duplicate: %d", len(runs))
	}
	if runs[0].Status != domain.BatchCompleted || runs[0].Processed != 4 {
		t.Fatalf("final state: %+v", runs[0])
	}
}

func TestProposalDecisionTimestamps(t *testing.T) {
	rec := NewRecorder(testDB(t), mustTestLogger(t))
	ctx := context.Background()

	node := domain.NewNode(domain.KindConcept, "dropout", "regularization by noise")
	p := domain.NewProposal(domain.AgentIngestion, domain.ActionCreateNode,
		domain.CreateNodeTarget{Node: node}, "new concept", 0.8)
	if err := rec.RecordProposal(ctx, p); err != nil {
		t.Fatalf("RecordProposal (proposed): %v", err)
	}

	pending, err := rec.ProposalsByStatus(ctx, string(domain.StatusProposed), 10)
	if err != nil || len(pending) != 1 {
		t.Fatalf("pending: %d %v", len(pending), err)
	}
	if pending[0].DecidedAt != nil {
		t.Fatalf("undecided proposal must have nil decided_at")
	}

	p.Status = domain.StatusApproved
	if err := rec.RecordProposal(ctx, p); err != nil {
		t.Fatalf("RecordProposal (approved): %v", err)
	}
	approved, err := rec.ProposalsByStatus(ctx, string(domain.StatusApproved), 10)
	if err != nil || len(approved) != 1 {
		t.Fatalf("approved: %d %v", len(approved), err)
	}
	if approved[0].DecidedAt == nil {
		t.Fatalf("decided proposal must carry decided_at")
	}
}

func testQuery(rec Recorder) *gorm.DB {
	return rec.(*gormRecorder).db
}
