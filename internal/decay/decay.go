// Package decay implements the memory model: exponential strength decay,
// reinforcement on access, vector decay scoring and cluster consolidation.
// The engine is pure over its inputs; callers persist the returned entities.
package decay

import (
	"math"
	"time"

	"github.com/mnemograph/mnemograph-backend/internal/domain"
)

// Config is the full knob set of the engine.
type Config struct {
	// BaseLambda is the default decay constant. Zero means ln2 / 30 days.
	BaseLambda float64
	// ReinforcementBoost is added to strength on each access.
	ReinforcementBoost float64
	// CitationWeight scales the confidence contribution of source tiers
	// when reinforcing from citations.
	CitationWeight float64
	// FoundationalBonus is added to strength for nodes with
	// abstraction < 0.3.
	FoundationalBonus float64
	// ConsolidationThreshold is the minimum pairwise similarity for
	// vectors to join a consolidation cluster.
	ConsolidationThreshold float64
	// ForgettingThreshold is the strength below which a node counts as
	// forgotten.
	ForgettingThreshold float64
	// Interval is the minimum gap between scheduled passes.
	Interval time.Duration
}

func DefaultConfig() Config {
	return Config{
		BaseLambda:             DefaultLambda(),
		ReinforcementBoost:     0.3,
		CitationWeight:         0.05,
		FoundationalBonus:      0.5,
		ConsolidationThreshold: 0.7,
		ForgettingThreshold:    0.1,
		Interval:               time.Hour,
	}
}

// DefaultLambda gives a 30-day half-life.
func DefaultLambda() float64 {
	return math.Ln2 / (30 * 24 * time.Hour).Seconds()
}

func clamp01(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}

type Engine struct {
	cfg Config
}

func NewEngine(cfg Config) *Engine {
	if cfg.BaseLambda <= 0 {
		cfg.BaseLambda = DefaultLambda()
	}
	if cfg.ReinforcementBoost <= 0 {
		cfg.ReinforcementBoost = 0.3
	}
	if cfg.FoundationalBonus <= 0 {
		cfg.FoundationalBonus = 0.5
	}
	if cfg.ConsolidationThreshold <= 0 {
		cfg.ConsolidationThreshold = 0.7
	}
	if cfg.ForgettingThreshold <= 0 {
		cfg.ForgettingThreshold = 0.1
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	return &Engine{cfg: cfg}
}

func (e *Engine) Config() Config { return e.cfg }

// lambda returns the node's override when set, the engine default otherwise.
func (e *Engine) lambda(n *domain.Node) float64 {
	if n.CognitiveState.DecayRate > 0 {
		return n.CognitiveState.DecayRate
	}
	return e.cfg.BaseLambda
}

// StrengthAt evaluates the strength law at time t without mutating the node:
//
//	clamp01(strength0 * exp(-lambda * dt) + foundationalBonus - 0.5*volatility)
//
// with dt measured from last_reinforced_at. Negative dt counts as zero.
func (e *Engine) StrengthAt(n *domain.Node, t time.Time) float64 {
	dt := t.Sub(n.Temporal.LastReinforcedAt).Seconds()
	if dt < 0 {
		dt = 0
	}
	s := n.CognitiveState.Strength * math.Exp(-e.lambda(n)*dt)
	if n.Level.Abstraction < 0.3 {
		s += e.cfg.FoundationalBonus
	}
	s -= 0.5 * n.Level.Volatility
	return clamp01(s)
}

// Decay returns a copy of the node with the strength law applied at time t.
// last_reinforced_at is left alone so repeated passes stay idempotent for a
// fixed t.
func (e *Engine) Decay(n *domain.Node, t time.Time) *domain.Node {
	out := n.Clone()
	out.CognitiveState.Strength = e.StrengthAt(n, t)
	out.UpdatedAt = t
	return out
}

// Reinforce returns a copy of the node with an access recorded at time t.
func (e *Engine) Reinforce(n *domain.Node, t time.Time) *domain.Node {
	out := n.Clone()
	out.CognitiveState.Strength = clamp01(out.CognitiveState.Strength + e.cfg.ReinforcementBoost)
	out.CognitiveState.Activation = clamp01(out.CognitiveState.Activation + 0.2)
	out.Temporal.LastReinforcedAt = t
	if t.After(out.Temporal.PeakRelevanceAt) {
		out.Temporal.PeakRelevanceAt = t
	}
	out.UpdatedAt = t
	return out
}

// ForgettingTime reports how long until strength falls below tau, assuming
// no reinforcement. Zero when strength is already at or below tau.
func (e *Engine) ForgettingTime(n *domain.Node, tau float64) time.Duration {
	s := n.CognitiveState.Strength
	if tau <= 0 || s <= tau {
		return 0
	}
	seconds := -math.Log(tau/s) / e.lambda(n)
	return time.Duration(seconds * float64(time.Second))
}

// Forgotten reports whether the node's strength at time t is below the
// configured forgetting threshold.
func (e *Engine) Forgotten(n *domain.Node, t time.Time) bool {
	return e.StrengthAt(n, t) < e.cfg.ForgettingThreshold
}

// VectorDecayScore evaluates the vector freshness law at time t.
func (e *Engine) VectorDecayScore(v *domain.VectorPayload, t time.Time) float64 {
	dt := t.Sub(v.UpdatedAt).Seconds()
	if dt < 0 {
		dt = 0
	}
	score := math.Exp(-e.cfg.BaseLambda * dt)
	if v.AbstractionLevel == domain.LevelTheory {
		score += 0.2
	}
	score += 0.1 * v.Confidence
	return clamp01(score)
}
