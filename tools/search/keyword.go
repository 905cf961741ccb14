package search

import (
	"fmt"
	"strings"

	"github.com/blevesearch/bleve"

	"github.com/mohammad-safakhou/campusbot/models"
)

// Keyword is an in-memory BM25 index over chunk texts.
type Keyword struct {
	index  bleve.Index
	chunks map[string]models.Chunk
}

type keywordDoc struct {
	Text   string `json:"text"`
	Source string `json:"source"`
}

func NewKeyword(chunks []models.Chunk) (*Keyword, error) {
	index, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create keyword index: %w", err)
	}
	kw := &Keyword{index: index, chunks: make(map[string]models.Chunk, len(chunks))}

	batch := index.NewBatch()
	for _, c := range chunks {
		if err := batch.Index(c.ID, keywordDoc{Text: c.Text, Source: c.Source}); err != nil {
			return nil, fmt.Errorf("index chunk %s: %w", c.ID, err)
		}
		kw.chunks[c.ID] = c
		if batch.Size() >= 500 {
			if err := index.Batch(batch); err != nil {
				return nil, err
			}
			batch = index.NewBatch()
		}
	}
	if batch.Size() > 0 {
		if err := index.Batch(batch); err != nil {
			return nil, err
		}
	}
	return kw, nil
}

// Search returns up to k chunks ranked by BM25 relevance to q.
func (kw *Keyword) Search(q string, k int) ([]models.SearchHit, error) {
	if k <= 0 || strings.TrimSpace(q) == "" {
		return nil, nil
	}
	req := bleve.NewSearchRequestOptions(bleve.NewMatchQuery(q), k, 0, false)
	res, err := kw.index.Search(req)
	if err != nil {
		return nil, err
	}
	out := make([]models.SearchHit, 0, len(res.Hits))
	for _, hit := range res.Hits {
		c, ok := kw.chunks[hit.ID]
		if !ok {
			continue
		}
		out = append(out, models.SearchHit{Chunk: c, Score: hit.Score, Rank: len(out) + 1})
	}
	return out, nil
}

func (kw *Keyword) Close() error { return kw.index.Close() }
