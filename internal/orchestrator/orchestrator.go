// Package orchestrator owns the proposal queue: enqueueing agent output,
// auto-approving high-confidence proposals and executing approved changes
// against storage.
package orchestrator

import (
	"context"
	"fmt"
	"sync"

	"github.com/mnemograph/mnemograph-backend/internal/agents"
	"github.com/mnemograph/mnemograph-backend/internal/domain"
	"github.com/mnemograph/mnemograph-backend/internal/kgerr"
	"github.com/mnemograph/mnemograph-backend/internal/platform/logger"
	"github.com/mnemograph/mnemograph-backend/internal/storage"
)

const DefaultAutoApproveConfidence = 0.95

type Config struct {
	AutoApproveConfidence float64
	LogProposals          bool
}

func DefaultConfig() Config {
	return Config{AutoApproveConfidence: DefaultAutoApproveConfidence}
}

// DecisionRecorder receives every decided proposal. Recording is
// best-effort: a failing recorder never blocks the queue.
type DecisionRecorder interface {
	RecordProposal(ctx context.Context, p *domain.AgentProposal) error
}

type Orchestrator struct {
	cfg   Config
	store storage.Adapter
	log   *logger.Logger
	audit DecisionRecorder

	mu    sync.Mutex
	queue map[string]*domain.AgentProposal
	order []string
}

func New(cfg Config, store storage.Adapter, log *logger.Logger) *Orchestrator {
	if cfg.AutoApproveConfidence <= 0 || cfg.AutoApproveConfidence > 1 {
		cfg.AutoApproveConfidence = DefaultAutoApproveConfidence
	}
	return &Orchestrator{
		cfg:   cfg,
		store: store,
		log:   log.With("service", "Orchestrator"),
		queue: make(map[string]*domain.AgentProposal),
	}
}

// SetDecisionRecorder attaches an audit sink for decided proposals.
func (o *Orchestrator) SetDecisionRecorder(r DecisionRecorder) {
	o.audit = r
}

func (o *Orchestrator) recordDecision(ctx context.Context, p *domain.AgentProposal) {
	if o.audit == nil {
		return
	}
	if err := o.audit.RecordProposal(ctx, p); err != nil {
		o.log.Warn("proposal audit record failed", "proposal_id", p.ID, "error", err)
	}
}

// Enqueue inserts proposals in order. A proposal at or above the
// auto-approval threshold is approved and executed before the next one is
// considered. On context cancellation the unprocessed tail stays queued.
func (o *Orchestrator) Enqueue(ctx context.Context, proposals []*domain.AgentProposal) (autoApproved int, err error) {
	for i, p := range proposals {
		if p == nil {
			continue
		}
		if err := p.Validate(); err != nil {
			return autoApproved, err
		}
		o.mu.Lock()
		if _, dup := o.queue[p.ID]; dup {
			o.mu.Unlock()
			return autoApproved, kgerr.Newf(kgerr.KindConflict, "orchestrator.Enqueue", "proposal %s already queued", p.ID)
		}
		o.queue[p.ID] = p
		o.order = append(o.order, p.ID)
		o.mu.Unlock()
		if o.cfg.LogProposals {
			o.log.Info("proposal queued",
				"proposal_id", p.ID, "agent", p.AgentType, "action", p.Action, "confidence", p.Confidence)
		}

		if p.Confidence < o.cfg.AutoApproveConfidence {
			continue
		}
		if ctx.Err() != nil {
			// Tail beyond i stays queued as proposed.
			o.log.Warn("enqueue cancelled, leaving tail unprocessed", "remaining", len(proposals)-i)
			return autoApproved, nil
		}
		if _, err := o.Approve(ctx, p.ID); err == nil {
			autoApproved++
		}
	}
	return autoApproved, nil
}

// Approve transitions a proposed entry to approved and executes it. An
// execution failure rejects the proposal instead, recording the error in
// its reasoning, and is not returned as an enqueue-level failure.
func (o *Orchestrator) Approve(ctx context.Context, id string) (*domain.AgentProposal, error) {
	o.mu.Lock()
	p, ok := o.queue[id]
	if !ok {
		o.mu.Unlock()
		return nil, kgerr.Newf(kgerr.KindNotFound, "orchestrator.Approve", "proposal %s not found", id)
	}
	if p.Status != domain.StatusProposed {
		o.mu.Unlock()
		return nil, kgerr.Newf(kgerr.KindConflict, "orchestrator.Approve", "proposal %s is already %s", id, p.Status)
	}
	p.Status = domain.StatusApproved
	o.mu.Unlock()

	if err := o.execute(ctx, p); err != nil {
		o.mu.Lock()
		p.Status = domain.StatusRejected
		p.Reasoning = fmt.Sprintf("%s | execution failed: %v", p.Reasoning, err)
		o.mu.Unlock()
		o.log.Warn("proposal execution failed",
			"proposal_id", p.ID, "action", p.Action, "error", err)
		o.recordDecision(ctx, p)
		return p, nil
	}
	o.recordDecision(ctx, p)
	return p, nil
}

// Reject transitions a proposed entry to rejected. Rejected proposals are
// never executed and the transition is final.
func (o *Orchestrator) Reject(id string) (*domain.AgentProposal, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	p, ok := o.queue[id]
	if !ok {
		return nil, kgerr.Newf(kgerr.KindNotFound, "orchestrator.Reject", "proposal %s not found", id)
	}
	if p.Status != domain.StatusProposed {
		return nil, kgerr.Newf(kgerr.KindConflict, "orchestrator.Reject", "proposal %s is already %s", id, p.Status)
	}
	p.Status = domain.StatusRejected
	o.recordDecision(context.Background(), p)
	return p, nil
}

// Proposals returns queue entries in insertion order, optionally filtered
// by status.
func (o *Orchestrator) Proposals(status domain.ProposalStatus) []*domain.AgentProposal {
	o.mu.Lock()
	defer o.mu.Unlock()
	var out []*domain.AgentProposal
	for _, id := range o.order {
		p := o.queue[id]
		if status == "" || p.Status == status {
			out = append(out, p)
		}
	}
	return out
}

func (o *Orchestrator) Proposal(id string) (*domain.AgentProposal, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	p, ok := o.queue[id]
	if !ok {
		return nil, kgerr.Newf(kgerr.KindNotFound, "orchestrator.Proposal", "proposal %s not found", id)
	}
	return p, nil
}

// WorkflowReport counts a full-workflow run.
type WorkflowReport struct {
	Generated    int `json:"generated"`
	AutoApproved int `json:"auto_approved"`
}

// FullWorkflow runs alignment, contradiction and research in order over the
// current storage, enqueues everything and reports the counts.
func (o *Orchestrator) FullWorkflow(ctx context.Context, graphAgents ...agents.GraphAgent) (*WorkflowReport, error) {
	report := &WorkflowReport{}
	for _, agent := range graphAgents {
		if ctx.Err() != nil {
			return report, nil
		}
		proposals, err := agent.Propose(ctx, o.store)
		if err != nil {
			o.log.Warn("agent failed during full workflow", "agent", agent.Type(), "error", err)
			continue
		}
		approved, err := o.Enqueue(ctx, proposals)
		if err != nil {
			return report, err
		}
		report.Generated += len(proposals)
		report.AutoApproved += approved
	}
	o.log.Info("full workflow complete",
		"generated", report.Generated, "auto_approved", report.AutoApproved)
	return report, nil
}

func (o *Orchestrator) execute(ctx context.Context, p *domain.AgentProposal) error {
	const op = "orchestrator.execute"
	switch target := p.Target.(type) {
	case domain.CreateNodeTarget:
		_, err := o.store.CreateNode(ctx, target.Node)
		return wrapExec(op, err)
	case domain.UpdateNodeTarget:
		_, err := o.store.UpdateNode(ctx, target.NodeID, target.Patch)
		return wrapExec(op, err)
	case domain.CreateEdgeTarget:
		_, err := o.store.CreateEdge(ctx, target.Edge)
		return wrapExec(op, err)
	case domain.UpdateEdgeTarget:
		_, err := o.store.UpdateEdge(ctx, target.EdgeID, target.Patch)
		return wrapExec(op, err)
	case domain.MergeNodesTarget:
		return wrapExec(op, o.mergeNodes(ctx, target))
	case domain.FlagConflictTarget:
		edge := domain.NewEdge(target.NodeA, target.NodeB, domain.RelCompetesWith)
		edge.Dynamics.Inhibitory = true
		edge.Conflicting = true
		edge.Confidence = p.Confidence
		_, err := o.store.CreateEdge(ctx, edge)
		return wrapExec(op, err)
	default:
		return kgerr.Newf(kgerr.KindExecution, op, "no dispatch for target %T", p.Target)
	}
}

func wrapExec(op string, err error) error {
	if err == nil {
		return nil
	}
	return kgerr.Wrap(kgerr.KindExecution, op, "proposal execution", err)
}
