package decay

import (
	"fmt"
	"sort"
	"time"

	"github.com/mnemograph/mnemograph-backend/internal/domain"
	"github.com/mnemograph/mnemograph-backend/internal/embedding"
)

// Consolidation is one synthesized cluster: the merged vector, the emitted
// abstraction node and the ids of the members it replaces conceptually
// (members are not deleted).
type Consolidation struct {
	Vector    *domain.VectorPayload
	Concept   *domain.Node
	MemberIDs []string
}

// Consolidate greedily clusters vectors whose pairwise similarity to the
// cluster seed reaches the configured threshold and synthesizes one vector
// plus one abstraction concept node per cluster of two or more members.
// Input order does not matter; clusters are seeded in created_at order.
func (e *Engine) Consolidate(vectors []*domain.VectorPayload, now time.Time) []Consolidation {
	if len(vectors) < 2 {
		return nil
	}
	sorted := make([]*domain.VectorPayload, len(vectors))
	copy(sorted, vectors)
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
		}
		return sorted[i].ID < sorted[j].ID
	})

	assigned := make(map[string]bool, len(sorted))
	var out []Consolidation
	for _, seed := range sorted {
		if assigned[seed.ID] {
			continue
		}
		cluster := []*domain.VectorPayload{seed}
		for _, candidate := range sorted {
			if assigned[candidate.ID] || candidate.ID == seed.ID {
				continue
			}
			if embedding.Cosine(seed.Embedding, candidate.Embedding) >= e.cfg.ConsolidationThreshold {
				cluster = append(cluster, candidate)
			}
		}
		if len(cluster) < 2 {
			continue
		}
		for _, m := range cluster {
			assigned[m.ID] = true
		}
		out = append(out, e.synthesize(cluster, now))
	}
	return out
}

func (e *Engine) synthesize(cluster []*domain.VectorPayload, now time.Time) Consolidation {
	first := cluster[0]
	dim := len(first.Embedding)

	mean := make([]float64, dim)
	minConfidence := first.Confidence
	refSet := make(map[string]bool)
	sharedLevel := first.AbstractionLevel
	levelShared := true
	memberIDs := make([]string, 0, len(cluster))
	for _, m := range cluster {
		memberIDs = append(memberIDs, m.ID)
		for i, v := range m.Embedding {
			if i < dim {
				mean[i] += v
			}
		}
		if m.Confidence < minConfidence {
			minConfidence = m.Confidence
		}
		for _, r := range m.EntityRefs {
			refSet[r] = true
		}
		if m.AbstractionLevel != sharedLevel {
			levelShared = false
		}
	}
	for i := range mean {
		mean[i] /= float64(len(cluster))
	}

	refs := make([]string, 0, len(refSet))
	for r := range refSet {
		refs = append(refs, r)
	}
	sort.Strings(refs)

	level := first.AbstractionLevel
	if levelShared {
		if sharedLevel == domain.LevelCode {
			level = domain.LevelIntuition
		} else {
			level = domain.LevelMath
		}
	}

	merged := domain.NewVectorPayload(first.Collection, mean, first.EmbeddingType)
	merged.Confidence = 0.95 * minConfidence
	merged.EntityRefs = refs
	merged.AbstractionLevel = level
	merged.SourceTier = first.SourceTier
	merged.CreatedAt = now
	merged.UpdatedAt = now

	concept := domain.NewNode(domain.KindAbstraction,
		fmt.Sprintf("consolidated abstraction over %d vectors", len(cluster)),
		"synthesized from a consolidation cluster")
	concept.Level.Abstraction = 0.8
	concept.CognitiveState.Confidence = merged.Confidence
	concept.Grounding.SourceRefs = refs
	concept.CreatedAt = now
	concept.UpdatedAt = now
	concept.Temporal.IntroducedAt = now
	concept.Temporal.LastReinforcedAt = now
	concept.Temporal.PeakRelevanceAt = now

	return Consolidation{Vector: merged, Concept: concept, MemberIDs: memberIDs}
}
