package crawler

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/mohammad-safakhou/campusbot/config"
)

// Strategy drives a crawl over a session. Both modes share the session's visited set,
// fetcher and persistence.
type Strategy interface {
	Name() string
	Crawl(ctx context.Context, s *Session, seeds []string) (Stats, error)
}

const (
	DefaultWorkers  = 5
	MaxWorkers      = 50
	DefaultMaxPages = 50
	DefaultDelay    = time.Second
)

// NewStrategy returns the strategy named by cfg.Mode.
func NewStrategy(cfg config.CrawlConfig) (Strategy, error) {
	switch cfg.Mode {
	case "pool", "":
		p := &PoolStrategy{Workers: cfg.Workers, MaxPages: cfg.MaxPages}
		if cfg.RatePerSecond > 0 {
			p.Limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1)
		}
		return p, nil
	case "depth":
		return &DepthFirstStrategy{MaxDepth: cfg.MaxDepth, Delay: cfg.Delay}, nil
	default:
		return nil, fmt.Errorf("unknown crawl mode %q", cfg.Mode)
	}
}
