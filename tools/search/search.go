package search

import (
	"context"
	"sort"

	"github.com/mohammad-safakhou/campusbot/models"
)

const (
	rrfK      = 60
	maxTopK   = 50
	defaultK  = 10
	candidate = 3 // candidates fetched per list, as a multiple of k
)

// VectorSearcher is satisfied by *vectorindex.Index.
type VectorSearcher interface {
	Query(ctx context.Context, text string, k int) ([]models.SearchHit, error)
}

// Hybrid fuses BM25 and vector rankings with reciprocal-rank fusion.
type Hybrid struct {
	Vector  VectorSearcher
	Keyword *Keyword
}

func NewHybrid(vector VectorSearcher, keyword *Keyword) *Hybrid {
	return &Hybrid{Vector: vector, Keyword: keyword}
}

func (h *Hybrid) Search(ctx context.Context, q string, k int) ([]models.SearchHit, error) {
	if k <= 0 {
		k = defaultK
	}
	k = min(k, maxTopK)
	var bmHits []models.SearchHit
	if h.Keyword != nil {
		var err error
		if bmHits, err = h.Keyword.Search(q, k*candidate); err != nil {
			return nil, err
		}
	}
	vecHits, err := h.Vector.Query(ctx, q, k*candidate)
	if err != nil {
		return nil, err
	}
	return FuseRRF(bmHits, vecHits, k), nil
}

// FuseRRF merges ranked lists by summing 1/(rrfK+rank) per chunk and keeps the top k.
func FuseRRF(a, b []models.SearchHit, k int) []models.SearchHit {
	type agg struct {
		item  models.SearchHit
		score float64
		order int
	}
	m := map[string]*agg{}
	add := func(list []models.SearchHit) {
		for i, h := range list {
			rank := h.Rank
			if rank <= 0 {
				rank = i + 1
			}
			x, ok := m[h.ID]
			if !ok {
				x = &agg{item: h, order: len(m)}
				m[h.ID] = x
			}
			x.score += 1.0 / float64(rrfK+rank)
		}
	}
	add(a)
	add(b)

	items := make([]*agg, 0, len(m))
	for _, v := range m {
		items = append(items, v)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].score != items[j].score {
			return items[i].score > items[j].score
		}
		return items[i].order < items[j].order
	})
	n := min(k, len(items))
	out := make([]models.SearchHit, 0, n)
	for i := 0; i < n; i++ {
		hit := items[i].item
		hit.Score = items[i].score
		hit.Rank = i + 1
		out = append(out, hit)
	}
	return out
}
