package neo4jstore

import (
	"time"

	"github.com/mnemograph/mnemograph-backend/internal/domain"
)

// Nested node structs are flattened onto the vertex so every field is
// indexable. Timestamps travel as RFC3339Nano strings.

func nodeProps(n *domain.Node) map[string]any {
	return map[string]any{
		"id":                    n.ID,
		"kind":                  string(n.Kind),
		"name":                  n.Name,
		"description":           n.Description,
		"abstraction":           n.Level.Abstraction,
		"difficulty":            n.Level.Difficulty,
		"volatility":            n.Level.Volatility,
		"strength":              n.CognitiveState.Strength,
		"activation":            n.CognitiveState.Activation,
		"decay_rate":            n.CognitiveState.DecayRate,
		"confidence":            n.CognitiveState.Confidence,
		"introduced_at":         formatTime(n.Temporal.IntroducedAt),
		"last_reinforced_at":    formatTime(n.Temporal.LastReinforcedAt),
		"peak_relevance_at":     formatTime(n.Temporal.PeakRelevanceAt),
		"used_in_production":    n.RealWorld.UsedInProduction,
		"companies_using":       int64(n.RealWorld.CompaniesUsing),
		"avg_salary_weight":     n.RealWorld.AvgSalaryWeight,
		"interview_frequency":   n.RealWorld.InterviewFrequency,
		"source_refs":           toAnySlice(n.Grounding.SourceRefs),
		"implementation_refs":   toAnySlice(n.Grounding.ImplementationRefs),
		"common_bugs":           toAnySlice(n.FailureSurface.CommonBugs),
		"misconceptions":        toAnySlice(n.FailureSurface.Misconceptions),
		"created_at":            formatTime(n.CreatedAt),
		"updated_at":            formatTime(n.UpdatedAt),
		"canonical_name":        n.CanonicalName,
		"first_appearance_year": int64(n.FirstAppearanceYear),
		"domain":                n.Domain,
	}
}

func nodeFromProps(props map[string]any) *domain.Node {
	return &domain.Node{
		ID:          asString(props["id"]),
		Kind:        domain.NodeKind(asString(props["kind"])),
		Name:        asString(props["name"]),
		Description: asString(props["description"]),
		Level: domain.Level{
			Abstraction: asFloat(props["abstraction"]),
			Difficulty:  asFloat(props["difficulty"]),
			Volatility:  asFloat(props["volatility"]),
		},
		CognitiveState: domain.CognitiveState{
			Strength:   asFloat(props["strength"]),
			Activation: asFloat(props["activation"]),
			DecayRate:  asFloat(props["decay_rate"]),
			Confidence: asFloat(props["confidence"]),
		},
		Temporal: domain.NodeTemporal{
			IntroducedAt:     asTime(props["introduced_at"]),
			LastReinforcedAt: asTime(props["last_reinforced_at"]),
			PeakRelevanceAt:  asTime(props["peak_relevance_at"]),
		},
		RealWorld: domain.RealWorld{
			UsedInProduction:   asBool(props["used_in_production"]),
			CompaniesUsing:     asInt(props["companies_using"]),
			AvgSalaryWeight:    asFloat(props["avg_salary_weight"]),
			InterviewFrequency: asFloat(props["interview_frequency"]),
		},
		Grounding: domain.Grounding{
			SourceRefs:         asStrings(props["source_refs"]),
			ImplementationRefs: asStrings(props["implementation_refs"]),
		},
		FailureSurface: domain.FailureSurface{
			CommonBugs:     asStrings(props["common_bugs"]),
			Misconceptions: asStrings(props["misconceptions"]),
		},
		CreatedAt:           asTime(props["created_at"]),
		UpdatedAt:           asTime(props["updated_at"]),
		CanonicalName:       asString(props["canonical_name"]),
		FirstAppearanceYear: asInt(props["first_appearance_year"]),
		Domain:              asString(props["domain"]),
	}
}

func edgeProps(e *domain.Edge) map[string]any {
	return map[string]any{
		"id":                 e.ID,
		"relation":           string(e.Relation),
		"strength":           e.Weight.Strength,
		"decay_rate":         e.Weight.DecayRate,
		"reinforcement_rate": e.Weight.ReinforcementRate,
		"inhibitory":         e.Dynamics.Inhibitory,
		"directional":        e.Dynamics.Directional,
		"created_at":         formatTime(e.Temporal.CreatedAt),
		"last_used_at":       formatTime(e.Temporal.LastUsedAt),
		"confidence":         e.Confidence,
		"conflicting":        e.Conflicting,
	}
}

func edgeFromProps(props map[string]any, from, to string) *domain.Edge {
	return &domain.Edge{
		ID:       asString(props["id"]),
		FromNode: from,
		ToNode:   to,
		Relation: domain.Relation(asString(props["relation"])),
		Weight: domain.EdgeWeight{
			Strength:          asFloat(props["strength"]),
			DecayRate:         asFloat(props["decay_rate"]),
			ReinforcementRate: asFloat(props["reinforcement_rate"]),
		},
		Dynamics: domain.EdgeDynamics{
			Inhibitory:  asBool(props["inhibitory"]),
			Directional: asBool(props["directional"]),
		},
		Temporal: domain.EdgeTemporal{
			CreatedAt:  asTime(props["created_at"]),
			LastUsedAt: asTime(props["last_used_at"]),
		},
		Confidence:  asFloat(props["confidence"]),
		Conflicting: asBool(props["conflicting"]),
	}
}

func chunkProps(c *domain.DocumentChunk) map[string]any {
	return map[string]any{
		"id":           c.ID,
		"content":      c.Content,
		"source_id":    c.SourceID,
		"section":      c.Section,
		"claim_type":   string(c.ClaimType),
		"concepts":     toAnySlice(c.Concepts),
		"embedding_id": c.EmbeddingID,
		"confidence":   c.Confidence,
		"created_at":   formatTime(c.CreatedAt),
	}
}

func chunkFromProps(props map[string]any) *domain.DocumentChunk {
	return &domain.DocumentChunk{
		ID:          asString(props["id"]),
		Content:     asString(props["content"]),
		SourceID:    asString(props["source_id"]),
		Section:     asString(props["section"]),
		ClaimType:   domain.ClaimType(asString(props["claim_type"])),
		Concepts:    asStrings(props["concepts"]),
		EmbeddingID: asString(props["embedding_id"]),
		Confidence:  asFloat(props["confidence"]),
		CreatedAt:   asTime(props["created_at"]),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func asTime(v any) time.Time {
	s, ok := v.(string)
	if !ok || s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asFloat(v any) float64 {
	switch typed := v.(type) {
	case float64:
		return typed
	case int64:
		return float64(typed)
	default:
		return 0
	}
}

func asInt(v any) int {
	switch typed := v.(type) {
	case int64:
		return int(typed)
	case float64:
		return int(typed)
	default:
		return 0
	}
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}

func asStrings(v any) []string {
	raw, ok := v.([]any)
	if !ok || len(raw) == 0 {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func toAnySlice(in []string) []any {
	out := make([]any, 0, len(in))
	for _, s := range in {
		out = append(out, s)
	}
	return out
}
