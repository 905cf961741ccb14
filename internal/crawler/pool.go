package crawler

import (
	"context"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// PoolStrategy crawls breadth-first with a bounded number of concurrent fetches
// and stops after MaxPages pages have been dispatched.
type PoolStrategy struct {
	Workers  int
	MaxPages int
	// Limiter paces dispatches. Nil means unlimited.
	Limiter *rate.Limiter
}

func (p *PoolStrategy) Name() string { return "pool" }

func (p *PoolStrategy) Crawl(ctx context.Context, s *Session, seeds []string) (Stats, error) {
	if p.MaxPages <= 0 {
		return s.Stats(), nil
	}
	width := p.Workers
	if width <= 0 {
		width = DefaultWorkers
	}
	if width > MaxWorkers {
		width = MaxWorkers
	}

	var frontier []string
	for _, seed := range seeds {
		if u, ok := s.claim(seed); ok {
			frontier = append(frontier, u)
		}
	}

	var g errgroup.Group
	g.SetLimit(width)
	done := make(chan []string, width)
	dispatched, inflight := 0, 0

	for {
		for len(frontier) > 0 && dispatched < p.MaxPages && inflight < width {
			if ctx.Err() != nil {
				frontier = nil
				break
			}
			if p.Limiter != nil {
				if err := p.Limiter.Wait(ctx); err != nil {
					frontier = nil
					break
				}
			}
			u := frontier[0]
			frontier = frontier[1:]
			dispatched++
			inflight++
			g.Go(func() error {
				done <- s.visit(ctx, p.Name(), u)
				return nil
			})
		}
		if inflight == 0 {
			break
		}

		links := <-done
		inflight--
		if dispatched >= p.MaxPages || ctx.Err() != nil {
			continue
		}
		for _, link := range links {
			if u, ok := s.claim(link); ok {
				frontier = append(frontier, u)
			}
		}
	}
	_ = g.Wait()

	stats := s.Stats()
	s.log.WithField("processed", stats.Processed).WithField("persisted", stats.Persisted).
		WithField("failed", stats.Failed).Info("pool crawl finished")
	return stats, ctx.Err()
}
