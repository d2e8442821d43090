// Package workflows runs long-lived ingestion and reasoning work on
// Temporal. The engine works without it: a nil client disables the
// package and the HTTP surface reports the operations as unsupported.
package workflows

const (
	WorkflowIngest = "kg_ingest"
	WorkflowReason = "kg_reason"

	ActivityIngest = "kg_ingest_run"
	ActivityReason = "kg_reason_run"
)

type IngestInput struct {
	Title string `json:"title"`
	Raw   string `json:"raw"`
}

type IngestResult struct {
	DocumentID string   `json:"document_id"`
	Title      string   `json:"title"`
	ChunkCount int      `json:"chunk_count"`
	Embeddings int      `json:"embeddings"`
	Concepts   []string `json:"concepts,omitempty"`
}

type ReasonResult struct {
	Generated    int `json:"generated"`
	AutoApproved int `json:"auto_approved"`
}

type Submission struct {
	WorkflowID string `json:"workflow_id"`
	RunID      string `json:"run_id,omitempty"`
	Status     string `json:"status"`
}

type StatusResult struct {
	WorkflowID string `json:"workflow_id"`
	RunID      string `json:"run_id,omitempty"`
	Status     string `json:"status"`
	Result     any    `json:"result,omitempty"`
}
