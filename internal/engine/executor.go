package engine

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/vk/paperforge/internal/artifact"
	"github.com/vk/paperforge/internal/ctxlog"
)

// scheduler tracks which rules are ready. All fields are guarded by mu.
type scheduler struct {
	mu        sync.Mutex
	pending   map[string]int
	remaining int
	ready     chan string
	done      chan struct{}
	fresh     map[string]bool
}

// execute runs the plan on e.workers goroutines. A rule is queued once all
// of its dependencies succeeded; the first error cancels every worker.
func (e *Engine) execute(ctx context.Context, p *buildPlan, env artifact.Environment) (map[string]bool, error) {
	logger := ctxlog.FromContext(ctx)

	s := &scheduler{
		pending:   make(map[string]int, len(p.rules)),
		remaining: len(p.rules),
		// Every rule is queued exactly once, so sends never block.
		ready: make(chan string, len(p.rules)),
		done:  make(chan struct{}),
		fresh: make(map[string]bool, len(p.rules)),
	}
	for _, id := range p.graph.Nodes() {
		deps, err := p.graph.Dependencies(id)
		if err != nil {
			return nil, err
		}
		s.pending[id] = len(deps)
	}
	// Seed in rule order so independent rules start in visitation order.
	for _, r := range p.rules {
		if s.pending[r.ID] == 0 {
			s.ready <- r.ID
		}
	}
	if s.remaining == 0 {
		close(s.done)
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < e.workers; i++ {
		workerID := i
		g.Go(func() error {
			return e.worker(gctx, p, s, env, workerID)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.remaining > 0 {
		// Only reachable when the parent context was cancelled.
		return nil, ctx.Err()
	}
	logger.Debug("All rules finished.", "rules", len(p.rules))
	return s.fresh, nil
}

func (e *Engine) worker(ctx context.Context, p *buildPlan, s *scheduler, env artifact.Environment, workerID int) error {
	logger := ctxlog.FromContext(ctx).With("workerID", workerID)
	logger.Debug("Worker started.")
	defer logger.Debug("Worker finished.")

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.done:
			return nil
		case id := <-s.ready:
			ran, err := e.runRule(ctx, p.byID[id], env)
			if err != nil {
				logger.Error("Rule execution failed.", "rule", id, "error", err)
				return err
			}
			if err := s.complete(p, id, ran); err != nil {
				return err
			}
		}
	}
}

// complete marks a rule as finished and queues the dependents it unlocks.
func (s *scheduler) complete(p *buildPlan, id string, ran bool) error {
	dependents, err := p.graph.Dependents(id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.fresh[id] = ran
	for _, dep := range dependents {
		s.pending[dep]--
		if s.pending[dep] == 0 {
			s.ready <- dep
		}
	}
	s.remaining--
	if s.remaining == 0 {
		close(s.done)
	}
	return nil
}
