package crawler

import (
	"context"
	"fmt"
	"time"
)

// target is a URL waiting on the work stack with its remaining depth budget.
type target struct {
	URL   string
	Depth int
}

// DepthFirstStrategy follows links depth-first from a single start URL, one page at a time,
// pausing Delay between pages. Depth 0 fetches only the start page.
type DepthFirstStrategy struct {
	MaxDepth int
	Delay    time.Duration
}

func (d *DepthFirstStrategy) Name() string { return "depth" }

func (d *DepthFirstStrategy) Crawl(ctx context.Context, s *Session, seeds []string) (Stats, error) {
	if len(seeds) == 0 {
		return s.Stats(), fmt.Errorf("depth crawl needs a start url")
	}
	if len(seeds) > 1 {
		s.log.WithField("ignored", len(seeds)-1).Warn("depth crawl uses only the first start url")
	}

	var stack []target
	if u, ok := s.claim(seeds[0]); ok {
		stack = append(stack, target{URL: u, Depth: d.MaxDepth})
	}

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return s.Stats(), err
		}
		t := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		links := s.visit(ctx, d.Name(), t.URL)
		if t.Depth > 0 {
			var children []string
			for _, link := range links {
				if u, ok := s.claim(link); ok {
					children = append(children, u)
				}
			}
			// reverse order so the first link on the page is popped first
			for i := len(children) - 1; i >= 0; i-- {
				stack = append(stack, target{URL: children[i], Depth: t.Depth - 1})
			}
		}

		if len(stack) > 0 && d.Delay > 0 {
			timer := time.NewTimer(d.Delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return s.Stats(), ctx.Err()
			case <-timer.C:
			}
		}
	}

	stats := s.Stats()
	s.log.WithField("processed", stats.Processed).WithField("persisted", stats.Persisted).Info("depth crawl finished")
	return stats, nil
}
