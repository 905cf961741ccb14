package helpers

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// Citation describes one ranked chunk as shown to a reader.
type Citation struct {
	Rank    int
	Score   float64
	Source  string // page URL or PDF path
	Page    int
	Snippet string
}

type citationConfig struct {
	maxSnippet int
}

type CitationOption func(*citationConfig)

// WithMaxSnippetLength truncates snippets to n runes (default 180).
func WithMaxSnippetLength(n int) CitationOption {
	return func(cfg *citationConfig) {
		if n > 0 {
			cfg.maxSnippet = n
		}
	}
}

// FormatCitation renders a citation as:
// [rank] score origin (p. N) - "snippet" <source>
func FormatCitation(c Citation, opts ...CitationOption) string {
	cfg := citationConfig{maxSnippet: 180}
	for _, opt := range opts {
		opt(&cfg)
	}

	parts := []string{fmt.Sprintf("[%d]", c.Rank), fmt.Sprintf("%.4f", c.Score)}
	if origin := citationOrigin(c.Source); origin != "" {
		parts = append(parts, origin)
	}
	if c.Page > 0 {
		parts = append(parts, fmt.Sprintf("(p. %d)", c.Page))
	}
	if snippet := formatSnippet(c.Snippet, cfg.maxSnippet); snippet != "" {
		parts = append(parts, "- "+snippet)
	}
	if src := strings.TrimSpace(c.Source); src != "" {
		parts = append(parts, "<"+src+">")
	}
	return strings.Join(parts, " ")
}

func FormatCitations(citations []Citation, opts ...CitationOption) []string {
	if len(citations) == 0 {
		return nil
	}
	out := make([]string, 0, len(citations))
	for _, c := range citations {
		out = append(out, FormatCitation(c, opts...))
	}
	return out
}

func formatSnippet(snippet string, limit int) string {
	snippet = strings.Join(strings.Fields(snippet), " ")
	if snippet == "" {
		return ""
	}
	if r := []rune(snippet); limit > 0 && len(r) > limit {
		snippet = string(r[:limit]) + "…"
	}
	return `"` + snippet + `"`
}

// citationOrigin is the host of a URL source or the base name of a file source.
func citationOrigin(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if u, err := url.Parse(raw); err == nil && u.Host != "" {
		host := strings.ToLower(u.Host)
		host = strings.TrimSuffix(host, ":80")
		return strings.TrimSuffix(host, ":443")
	}
	return filepath.Base(raw)
}
