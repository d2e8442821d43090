package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ProposalTarget is the payload of a proposal. The concrete type is
// determined by the proposal's action; the dispatcher switches on it
// instead of sniffing field presence at runtime.
type ProposalTarget interface {
	proposalTarget()
}

type CreateNodeTarget struct {
	Node *Node `json:"node"`
}

type UpdateNodeTarget struct {
	NodeID string    `json:"node_id"`
	Patch  NodePatch `json:"patch"`
}

type CreateEdgeTarget struct {
	Edge *Edge `json:"edge"`
}

type UpdateEdgeTarget struct {
	EdgeID string    `json:"edge_id"`
	Patch  EdgePatch `json:"patch"`
}

type MergeNodesTarget struct {
	NodeA string `json:"node_a"`
	NodeB string `json:"node_b"`
}

type FlagConflictTarget struct {
	NodeA string `json:"node_a"`
	NodeB string `json:"node_b"`
}

func (CreateNodeTarget) proposalTarget()   {}
func (UpdateNodeTarget) proposalTarget()   {}
func (CreateEdgeTarget) proposalTarget()   {}
func (UpdateEdgeTarget) proposalTarget()   {}
func (MergeNodesTarget) proposalTarget()   {}
func (FlagConflictTarget) proposalTarget() {}

// AgentProposal is a value-typed description of an intended graph change.
// It is immutable once executed; status moves proposed → approved or
// proposed → rejected, never back.
type AgentProposal struct {
	ID         string         `json:"id"`
	AgentType  AgentType      `json:"agent_type"`
	Action     ProposalAction `json:"action"`
	Target     ProposalTarget `json:"target"`
	Reasoning  string         `json:"reasoning"`
	Confidence float64        `json:"confidence"`
	Status     ProposalStatus `json:"status"`
	CreatedAt  time.Time      `json:"created_at"`
}

func NewProposal(agent AgentType, action ProposalAction, target ProposalTarget, reasoning string, confidence float64) *AgentProposal {
	return &AgentProposal{
		ID:         uuid.NewString(),
		AgentType:  agent,
		Action:     action,
		Target:     target,
		Reasoning:  reasoning,
		Confidence: confidence,
		Status:     StatusProposed,
		CreatedAt:  time.Now().UTC(),
	}
}

type proposalWire struct {
	ID         string          `json:"id"`
	AgentType  AgentType       `json:"agent_type"`
	Action     ProposalAction  `json:"action"`
	Target     json.RawMessage `json:"target"`
	Reasoning  string          `json:"reasoning"`
	Confidence float64         `json:"confidence"`
	Status     ProposalStatus  `json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
}

func (p AgentProposal) MarshalJSON() ([]byte, error) {
	target, err := json.Marshal(p.Target)
	if err != nil {
		return nil, err
	}
	return json.Marshal(proposalWire{
		ID:         p.ID,
		AgentType:  p.AgentType,
		Action:     p.Action,
		Target:     target,
		Reasoning:  p.Reasoning,
		Confidence: p.Confidence,
		Status:     p.Status,
		CreatedAt:  p.CreatedAt,
	})
}

func (p *AgentProposal) UnmarshalJSON(data []byte) error {
	var w proposalWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	p.ID = w.ID
	p.AgentType = w.AgentType
	p.Action = w.Action
	p.Reasoning = w.Reasoning
	p.Confidence = w.Confidence
	p.Status = w.Status
	p.CreatedAt = w.CreatedAt
	if len(w.Target) == 0 || string(w.Target) == "null" {
		p.Target = nil
		return nil
	}
	target, err := decodeTarget(w.Action, w.Target)
	if err != nil {
		return err
	}
	p.Target = target
	return nil
}

func decodeTarget(action ProposalAction, raw json.RawMessage) (ProposalTarget, error) {
	switch action {
	case ActionCreateNode:
		var t CreateNodeTarget
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, err
		}
		return t, nil
	case ActionUpdateNode:
		var t UpdateNodeTarget
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, err
		}
		return t, nil
	case ActionCreateEdge:
		var t CreateEdgeTarget
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, err
		}
		return t, nil
	case ActionUpdateEdge:
		var t UpdateEdgeTarget
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, err
		}
		return t, nil
	case ActionMergeNodes:
		var t MergeNodesTarget
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, err
		}
		return t, nil
	case ActionFlagConflict:
		var t FlagConflictTarget
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, err
		}
		return t, nil
	default:
		return nil, fmt.Errorf("unknown proposal action %q", action)
	}
}
