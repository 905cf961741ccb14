package crawler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeFailed    = "failed"
	outcomeSkipped   = "skipped"
	outcomePersisted = "persisted"
	outcomeEmpty     = "empty"
)

var (
	pagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campusbot_crawl_pages_total",
		Help: "Pages handled by the crawler, by strategy and outcome.",
	}, []string{"strategy", "outcome"})

	fetchSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "campusbot_crawl_fetch_seconds",
		Help:    "Time spent fetching a single page.",
		Buckets: prometheus.DefBuckets,
	}, []string{"strategy"})
)
