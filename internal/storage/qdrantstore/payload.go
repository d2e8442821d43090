package qdrantstore

import (
	"time"

	"github.com/mnemograph/mnemograph-backend/internal/domain"
)

// The embedding rides as the point vector; everything else becomes point
// payload so the filter translation can reach it.

func vectorPayloadProps(v *domain.VectorPayload) map[string]any {
	props := map[string]any{
		"collection":        v.Collection,
		"embedding_type":    string(v.EmbeddingType),
		"entity_refs":       v.EntityRefs,
		"confidence":        v.Confidence,
		"abstraction_level": string(v.AbstractionLevel),
		"source_tier":       string(v.SourceTier),
		"created_at":        v.CreatedAt.UTC().Format(time.RFC3339Nano),
		"updated_at":        v.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
	if v.DecayScore != nil {
		props["decay_score"] = *v.DecayScore
	}
	return props
}

func vectorFromPoint(id string, vector []float64, collection string, payload map[string]any) *domain.VectorPayload {
	out := &domain.VectorPayload{
		ID:               id,
		Embedding:        append([]float64(nil), vector...),
		EmbeddingType:    domain.EmbeddingType(payloadString(payload, "embedding_type")),
		Collection:       collection,
		EntityRefs:       payloadStrings(payload, "entity_refs"),
		Confidence:       payloadFloat(payload, "confidence"),
		AbstractionLevel: domain.AbstractionLevel(payloadString(payload, "abstraction_level")),
		SourceTier:       domain.SourceTier(payloadString(payload, "source_tier")),
		CreatedAt:        payloadTime(payload, "created_at"),
		UpdatedAt:        payloadTime(payload, "updated_at"),
	}
	if raw, ok := payload["decay_score"]; ok {
		if score, ok := raw.(float64); ok {
			out.DecayScore = &score
		}
	}
	return out
}

func payloadString(payload map[string]any, key string) string {
	s, _ := payload[key].(string)
	return s
}

func payloadFloat(payload map[string]any, key string) float64 {
	switch typed := payload[key].(type) {
	case float64:
		return typed
	case int64:
		return float64(typed)
	default:
		return 0
	}
}

func payloadStrings(payload map[string]any, key string) []string {
	switch typed := payload[key].(type) {
	case []string:
		return append([]string(nil), typed...)
	case []any:
		out := make([]string, 0, len(typed))
		for _, item := range typed {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	default:
		return nil
	}
}

func payloadTime(payload map[string]any, key string) time.Time {
	raw, _ := payload[key].(string)
	if raw == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}
