package crawler

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mohammad-safakhou/campusbot/internal/helpers"
	"github.com/mohammad-safakhou/campusbot/internal/logging"
	"github.com/mohammad-safakhou/campusbot/models"
	"github.com/mohammad-safakhou/campusbot/tools/web_fetch"
)

// Stats summarises a finished crawl.
type Stats struct {
	Processed int `json:"processed"`
	Persisted int `json:"persisted"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

type Options struct {
	Fetcher web_fetch.WebFetcher
	// Writer persists page text. Nil disables persistence.
	Writer  *Writer
	Extract ExtractOptions
	// Allow filters links before they are queued. Nil allows everything.
	Allow func(rawURL string) bool
	// OnDocument receives each non-empty page. Called from worker goroutines.
	OnDocument func(models.Document)
	Logger     *logrus.Logger
}

// Session holds the state of a single crawl invocation.
type Session struct {
	mu      sync.Mutex
	visited *VisitedSet
	stats   Stats
	opts    Options
	log     *logrus.Entry
}

func NewSession(opts Options) *Session {
	return &Session{
		visited: NewVisitedSet(),
		opts:    opts,
		log:     logging.WithComponent(opts.Logger, "crawler"),
	}
}

func (s *Session) Visited() *VisitedSet { return s.visited }

func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// claim canonicalises raw and marks it visited. It returns the URL to fetch and
// whether the caller now owns it.
func (s *Session) claim(raw string) (string, bool) {
	u, err := helpers.CanonicalURL(raw)
	if err != nil {
		return "", false
	}
	if s.opts.Allow != nil && !s.opts.Allow(u) {
		return "", false
	}
	return u, s.visited.MarkIfNotVisited(u)
}

// visit fetches, extracts and persists one page and returns its same-origin links.
// Failures are logged and counted; they never abort the crawl.
func (s *Session) visit(ctx context.Context, strategy, pageURL string) []string {
	log := s.log.WithFields(logrus.Fields{"strategy": strategy, "url": pageURL})

	start := time.Now()
	res := s.opts.Fetcher.Exec(ctx, pageURL)
	fetchSeconds.WithLabelValues(strategy).Observe(time.Since(start).Seconds())

	s.count(func(st *Stats) { st.Processed++ })
	if !res.OK() {
		log.WithFields(logrus.Fields{"kind": res.Failure.Kind, "reason": res.Failure.Message}).Warn("fetch failed")
		s.count(func(st *Stats) { st.Failed++ })
		pagesTotal.WithLabelValues(strategy, outcomeFailed).Inc()
		return nil
	}
	if ct := strings.ToLower(res.ContentType); ct != "" && !strings.Contains(ct, "html") {
		log.WithField("content_type", res.ContentType).Debug("skipping non-html page")
		s.count(func(st *Stats) { st.Skipped++ })
		pagesTotal.WithLabelValues(strategy, outcomeSkipped).Inc()
		return nil
	}

	base := s.resolveFinal(pageURL, res.FinalURL)
	page, err := ExtractPage(base, res.Body, s.opts.Extract)
	if err != nil {
		log.WithError(err).Warn("extract failed")
		s.count(func(st *Stats) { st.Skipped++ })
		pagesTotal.WithLabelValues(strategy, outcomeSkipped).Inc()
		return nil
	}

	if page.Text == "" {
		pagesTotal.WithLabelValues(strategy, outcomeEmpty).Inc()
	} else {
		s.persist(log, strategy, base, page.Text)
	}

	links := make([]string, 0, len(page.Links))
	for _, link := range page.Links {
		if helpers.IsInternal(link, base) {
			links = append(links, link)
		}
	}
	return links
}

// resolveFinal returns the URL a redirect ended on, marking it visited so a later
// link to it is not fetched again. It falls back to requested.
func (s *Session) resolveFinal(requested, final string) string {
	if final == "" || final == requested {
		return requested
	}
	if u, err := helpers.CanonicalURL(final); err == nil && u != requested {
		s.visited.MarkIfNotVisited(u)
	}
	return final
}

func (s *Session) persist(log *logrus.Entry, strategy, pageURL, text string) {
	if s.opts.OnDocument != nil {
		s.opts.OnDocument(models.Document{Text: text, Source: pageURL})
	}
	if s.opts.Writer == nil {
		pagesTotal.WithLabelValues(strategy, outcomePersisted).Inc()
		return
	}
	path, err := s.opts.Writer.Write(pageURL, text)
	if err != nil {
		log.WithError(err).Error("persist failed")
		return
	}
	s.count(func(st *Stats) { st.Persisted++ })
	pagesTotal.WithLabelValues(strategy, outcomePersisted).Inc()
	log.WithField("file", path).Debug("page saved")
}

func (s *Session) count(fn func(*Stats)) {
	s.mu.Lock()
	fn(&s.stats)
	s.mu.Unlock()
}
