package orchestrator

import (
	"context"
	"sort"

	"github.com/mnemograph/mnemograph-backend/internal/domain"
	"github.com/mnemograph/mnemograph-backend/internal/kgerr"
)

// mergeNodes keeps the higher-confidence node as canonical, unions the
// grounding lists, deletes the duplicate and rewires every incident edge to
// the canonical node, dropping duplicates by (from, to, relation).
func (o *Orchestrator) mergeNodes(ctx context.Context, target domain.MergeNodesTarget) error {
	const op = "orchestrator.mergeNodes"
	a, err := o.store.GetNode(ctx, target.NodeA)
	if err != nil {
		return err
	}
	b, err := o.store.GetNode(ctx, target.NodeB)
	if err != nil {
		return err
	}

	canonical, duplicate := a, b
	if b.CognitiveState.Confidence > a.CognitiveState.Confidence {
		canonical, duplicate = b, a
	}

	grounding := domain.Grounding{
		SourceRefs:         unionStrings(canonical.Grounding.SourceRefs, duplicate.Grounding.SourceRefs),
		ImplementationRefs: unionStrings(canonical.Grounding.ImplementationRefs, duplicate.Grounding.ImplementationRefs),
	}
	if _, err := o.store.UpdateNode(ctx, canonical.ID, domain.NodePatch{Grounding: &grounding}); err != nil {
		return err
	}

	// Snapshot the duplicate's edges before the cascade delete takes them.
	outgoing, err := o.store.EdgesFrom(ctx, duplicate.ID)
	if err != nil {
		return err
	}
	incoming, err := o.store.EdgesTo(ctx, duplicate.ID)
	if err != nil {
		return err
	}

	if _, err := o.store.DeleteNode(ctx, duplicate.ID); err != nil {
		return err
	}

	type edgeKey struct {
		from, to string
		relation domain.Relation
	}
	existing := make(map[edgeKey]bool)
	canonOut, err := o.store.EdgesFrom(ctx, canonical.ID)
	if err != nil {
		return err
	}
	canonIn, err := o.store.EdgesTo(ctx, canonical.ID)
	if err != nil {
		return err
	}
	for _, e := range append(canonOut, canonIn...) {
		existing[edgeKey{e.FromNode, e.ToNode, e.Relation}] = true
	}

	for _, e := range append(outgoing, incoming...) {
		rewired := e.Clone()
		if rewired.FromNode == duplicate.ID {
			rewired.FromNode = canonical.ID
		}
		if rewired.ToNode == duplicate.ID {
			rewired.ToNode = canonical.ID
		}
		if rewired.FromNode == rewired.ToNode {
			continue
		}
		key := edgeKey{rewired.FromNode, rewired.ToNode, rewired.Relation}
		if existing[key] {
			continue
		}
		existing[key] = true
		if _, err := o.store.CreateEdge(ctx, rewired); err != nil {
			return kgerr.Wrap(kgerr.KindExecution, op, "rewire edge", err)
		}
	}
	return nil
}

func unionStrings(a, b []string) []string {
	set := make(map[string]bool, len(a)+len(b))
	for _, s := range a {
		set[s] = true
	}
	for _, s := range b {
		set[s] = true
	}
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
