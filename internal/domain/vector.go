package domain

import (
	"time"

	"github.com/google/uuid"
)

// VectorPayload is an embedding plus retrieval metadata. Vectors live
// independently of nodes unless EntityRefs is non-empty; deleting a
// referenced node never cascades here.
type VectorPayload struct {
	ID               string           `json:"id"`
	Embedding        []float64        `json:"embedding"`
	EmbeddingType    EmbeddingType    `json:"embedding_type"`
	Collection       string           `json:"collection"`
	EntityRefs       []string         `json:"entity_refs"`
	Confidence       float64          `json:"confidence"`
	AbstractionLevel AbstractionLevel `json:"abstraction_level"`
	SourceTier       SourceTier       `json:"source_tier"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
	DecayScore       *float64         `json:"decay_score,omitempty"`
}

func NewVectorPayload(collection string, embedding []float64, embType EmbeddingType) *VectorPayload {
	now := time.Now().UTC()
	return &VectorPayload{
		ID:               uuid.NewString(),
		Embedding:        embedding,
		EmbeddingType:    embType,
		Collection:       collection,
		Confidence:       0.5,
		AbstractionLevel: LevelIntuition,
		SourceTier:       TierT3,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func (v *VectorPayload) Clone() *VectorPayload {
	if v == nil {
		return nil
	}
	out := *v
	out.Embedding = append([]float64(nil), v.Embedding...)
	out.EntityRefs = append([]string(nil), v.EntityRefs...)
	if v.DecayScore != nil {
		score := *v.DecayScore
		out.DecayScore = &score
	}
	return &out
}
