package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

const (
	defaultSearchK = 5
	maxSearchK     = 50
	sampleChars    = 500
	snippetChars   = 240
)

type SearchResult struct {
	ID      string  `json:"id"`
	Source  string  `json:"source"`
	Page    int     `json:"page,omitempty"`
	Rank    int     `json:"rank"`
	Score   float64 `json:"score"`
	Snippet string  `json:"snippet"`
}

type SearchResponse struct {
	Query   string         `json:"query"`
	Results []SearchResult `json:"results"`
}

func (s *Server) search(c echo.Context) error {
	q := strings.TrimSpace(c.QueryParam("q"))
	if q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "q is required")
	}
	k := defaultSearchK
	if raw := c.QueryParam("k"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "k must be a positive integer")
		}
		k = min(n, maxSearchK)
	}
	if s.deps.Search == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "search is not available")
	}

	hits, err := s.deps.Search.Search(c.Request().Context(), q, k)
	if err != nil {
		return err
	}
	resp := SearchResponse{Query: q, Results: make([]SearchResult, 0, len(hits))}
	for _, h := range hits {
		resp.Results = append(resp.Results, SearchResult{
			ID:      h.ID,
			Source:  h.Source,
			Page:    h.Page,
			Rank:    h.Rank,
			Score:   h.Score,
			Snippet: h.Snippet(snippetChars),
		})
	}
	return c.JSON(http.StatusOK, resp)
}

type WebContentResponse struct {
	Count  int    `json:"count"`
	Source string `json:"source,omitempty"`
	Sample string `json:"sample"`
}

// webContent reports how many crawled documents are on disk with a sample of the first.
func (s *Server) webContent(c echo.Context) error {
	if s.deps.Documents == nil {
		return c.JSON(http.StatusOK, WebContentResponse{})
	}
	docs, err := s.deps.Documents()
	if err != nil {
		return err
	}
	resp := WebContentResponse{Count: len(docs)}
	if len(docs) > 0 {
		resp.Source = docs[0].Source
		r := []rune(docs[0].Text)
		if len(r) > sampleChars {
			r = r[:sampleChars]
		}
		resp.Sample = string(r)
	}
	return c.JSON(http.StatusOK, resp)
}
