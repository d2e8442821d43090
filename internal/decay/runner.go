package decay

import (
	"context"
	"sync"
	"time"

	"github.com/mnemograph/mnemograph-backend/internal/domain"
	"github.com/mnemograph/mnemograph-backend/internal/platform/logger"
	"github.com/mnemograph/mnemograph-backend/internal/storage"
)

// Scheduler gates passes: a pass runs when at least interval has elapsed
// since the previous one.
type Scheduler struct {
	mu       sync.Mutex
	interval time.Duration
	lastRun  time.Time
}

func NewScheduler(interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Scheduler{interval: interval}
}

func (s *Scheduler) ShouldRun(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastRun) >= s.interval
}

func (s *Scheduler) MarkRun(now time.Time) {
	s.mu.Lock()
	s.lastRun = now
	s.mu.Unlock()
}

// Runner drives scheduled decay passes against a storage backend. The
// engine computes; the runner persists.
type Runner struct {
	engine *Engine
	sched  *Scheduler
	store  storage.Adapter
	log    *logger.Logger

	pageSize int
}

func NewRunner(engine *Engine, store storage.Adapter, log *logger.Logger) *Runner {
	return &Runner{
		engine:   engine,
		sched:    NewScheduler(engine.Config().Interval),
		store:    store,
		log:      log.With("service", "DecayRunner"),
		pageSize: 200,
	}
}

// Start ticks until the context is cancelled. Tick granularity is a
// fraction of the pass interval so a pass is never late by more than that.
func (r *Runner) Start(ctx context.Context) {
	tick := r.engine.Config().Interval / 4
	if tick < time.Second {
		tick = time.Second
	}
	ticker := time.NewTicker(tick)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				r.log.Info("decay runner stopped")
				return
			case now := <-ticker.C:
				if !r.sched.ShouldRun(now) {
					continue
				}
				if err := r.RunPass(ctx); err != nil {
					r.log.Error("decay pass failed", "error", err)
					continue
				}
				r.sched.MarkRun(now)
			}
		}
	}()
}

// RunPass applies the strength law to every node. Write-back is optimistic:
// a node reinforced between snapshot and write is re-read and recomputed
// once; if it moves again it is left for the next pass.
func (r *Runner) RunPass(ctx context.Context) error {
	now := time.Now().UTC()
	updated := 0
	for page := 1; ; page++ {
		nodes, err := r.store.ListNodes(ctx, page, r.pageSize)
		if err != nil {
			return err
		}
		for _, n := range nodes.Items {
			if err := r.decayOne(ctx, n, now); err != nil {
				r.log.Warn("skipping node in decay pass", "node_id", n.ID, "error", err)
				continue
			}
			updated++
		}
		if !nodes.HasMore {
			break
		}
	}
	r.log.Info("decay pass complete", "nodes", updated)
	return nil
}

func (r *Runner) decayOne(ctx context.Context, snapshot *domain.Node, now time.Time) error {
	for attempt := 0; attempt < 2; attempt++ {
		decayed := r.engine.Decay(snapshot, now)

		current, err := r.store.GetNode(ctx, snapshot.ID)
		if err != nil {
			return err
		}
		if current.CognitiveState.Strength != snapshot.CognitiveState.Strength ||
			!current.Temporal.LastReinforcedAt.Equal(snapshot.Temporal.LastReinforcedAt) {
			snapshot = current
			continue
		}
		state := decayed.CognitiveState
		_, err = r.store.UpdateNode(ctx, snapshot.ID, domain.NodePatch{CognitiveState: &state})
		return err
	}
	return nil
}
