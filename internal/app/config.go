package app

import (
	"strings"
	"time"

	"github.com/mnemograph/mnemograph-backend/internal/decay"
	"github.com/mnemograph/mnemograph-backend/internal/platform/envutil"
)

type Config struct {
	LogMode     string
	Port        string
	Environment string
	Version     string

	StorageType  string
	EmbeddingDim int

	ChunkSize             int
	ChunkOverlap          int
	AutoConceptExtraction bool
	BatchWorkers          int

	EnableVectorSearch   bool
	EnableGraphReasoning bool

	AutoApproveConfidence float64
	AlignmentThreshold    float64
	CurriculumDepth       int

	DecayBaseLambda             float64
	DecayReinforcementBoost     float64
	DecayCitationWeight         float64
	DecayFoundationalBonus      float64
	DecayConsolidationThreshold float64
	DecayForgettingThreshold    float64
	DecayInterval               time.Duration

	EmbedCacheTTL time.Duration
}

func LoadConfig() Config {
	return Config{
		LogMode:     envutil.Str("LOG_MODE", "development"),
		Port:        envutil.Str("PORT", "8080"),
		Environment: envutil.Str("ENVIRONMENT", "development"),
		Version:     envutil.Str("SERVICE_VERSION", "dev"),

		StorageType:  strings.ToLower(envutil.Str("STORAGE_TYPE", "memory")),
		EmbeddingDim: envutil.Int("EMBEDDING_DIMENSION", 768),

		ChunkSize:             envutil.Int("CHUNK_SIZE", 512),
		ChunkOverlap:          envutil.Int("CHUNK_OVERLAP", 100),
		AutoConceptExtraction: envutil.Bool("AUTO_CONCEPT_EXTRACTION", true),
		BatchWorkers:          envutil.Int("BATCH_WORKERS", 4),

		EnableVectorSearch:   envutil.Bool("ENABLE_VECTOR_SEARCH", true),
		EnableGraphReasoning: envutil.Bool("ENABLE_GRAPH_REASONING", true),

		AutoApproveConfidence: envutil.Float("AUTO_APPROVE_CONFIDENCE", 0.95),
		AlignmentThreshold:    envutil.Float("ALIGNMENT_THRESHOLD", 0.85),
		CurriculumDepth:       envutil.Int("CURRICULUM_DEPTH", 2),

		DecayBaseLambda:             envutil.Float("DECAY_BASE_LAMBDA", 0),
		DecayReinforcementBoost:     envutil.Float("DECAY_REINFORCEMENT_BOOST", 0),
		DecayCitationWeight:         envutil.Float("DECAY_CITATION_WEIGHT", 0),
		DecayFoundationalBonus:      envutil.Float("DECAY_FOUNDATIONAL_BONUS", 0),
		DecayConsolidationThreshold: envutil.Float("DECAY_CONSOLIDATION_THRESHOLD", 0),
		DecayForgettingThreshold:    envutil.Float("DECAY_FORGETTING_THRESHOLD", 0),
		DecayInterval:               envutil.DurationSeconds("DECAY_INTERVAL_SECONDS", 0),

		EmbedCacheTTL: envutil.DurationSeconds("EMBED_CACHE_TTL_SECONDS", 24*60*60),
	}
}

// DecayConfig merges the env overrides onto the engine defaults. Zero
// values keep the default.
func (c Config) DecayConfig() decay.Config {
	cfg := decay.DefaultConfig()
	if c.DecayBaseLambda > 0 {
		cfg.BaseLambda = c.DecayBaseLambda
	}
	if c.DecayReinforcementBoost > 0 {
		cfg.ReinforcementBoost = c.DecayReinforcementBoost
	}
	if c.DecayCitationWeight > 0 {
		cfg.CitationWeight = c.DecayCitationWeight
	}
	if c.DecayFoundationalBonus > 0 {
		cfg.FoundationalBonus = c.DecayFoundationalBonus
	}
	if c.DecayConsolidationThreshold > 0 {
		cfg.ConsolidationThreshold = c.DecayConsolidationThreshold
	}
	if c.DecayForgettingThreshold > 0 {
		cfg.ForgettingThreshold = c.DecayForgettingThreshold
	}
	if c.DecayInterval > 0 {
		cfg.Interval = c.DecayInterval
	}
	return cfg
}
