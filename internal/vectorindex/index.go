// Package vectorindex holds embedded chunks, persists them to a single SQLite file and
// answers nearest-neighbour queries through an in-memory chromem collection.
package vectorindex

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"time"

	chromem "github.com/philippgille/chromem-go"

	"github.com/mohammad-safakhou/campusbot/models"
	"github.com/mohammad-safakhou/campusbot/tools/embedding"
)

var (
	// ErrIndexNotFound means no usable persisted index exists and the caller should rebuild.
	ErrIndexNotFound = errors.New("vector index not found")
	ErrEmptyQuery    = errors.New("empty query")
)

const collectionName = "chunks"

// Index is a read-only set of embedded chunks. It is safe for concurrent queries.
type Index struct {
	chunks    []models.Chunk
	vectors   [][]float32
	dim       int
	model     string
	createdAt time.Time
	embedder  embedding.Embedder
	coll      *chromem.Collection
}

// Build embeds every chunk and returns the resulting index. Any embedding failure aborts the build.
func Build(ctx context.Context, embedder embedding.Embedder, chunks []models.Chunk) (*Index, error) {
	if embedder == nil {
		return nil, errors.New("embedder is required")
	}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	var vecs [][]float32
	if len(texts) > 0 {
		var err error
		vecs, err = embedder.EmbedMany(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embed chunks: %w", err)
		}
	}
	return newIndex(ctx, embedder, chunks, vecs, modelOf(embedder), time.Now().UTC())
}

func newIndex(ctx context.Context, embedder embedding.Embedder, chunks []models.Chunk, vecs [][]float32, model string, createdAt time.Time) (*Index, error) {
	if len(vecs) != len(chunks) {
		return nil, fmt.Errorf("got %d vectors for %d chunks", len(vecs), len(chunks))
	}
	ix := &Index{
		chunks:    make([]models.Chunk, len(chunks)),
		vectors:   vecs,
		model:     model,
		createdAt: createdAt,
		embedder:  embedder,
	}
	copy(ix.chunks, chunks)

	seen := make(map[string]int, len(chunks))
	docs := make([]chromem.Document, len(chunks))
	for i := range ix.chunks {
		v := vecs[i]
		if i == 0 {
			ix.dim = len(v)
		}
		if len(v) == 0 || len(v) != ix.dim {
			return nil, fmt.Errorf("chunk %d: vector dimension %d, expected %d", i, len(v), ix.dim)
		}
		c := &ix.chunks[i]
		if c.ID == "" {
			c.ID = fmt.Sprintf("chunk-%d", i)
		}
		if n := seen[c.ID]; n > 0 {
			base := c.ID
			for {
				c.ID = fmt.Sprintf("%s~%d", base, n)
				n++
				if seen[c.ID] == 0 {
					break
				}
			}
			seen[base] = n
		}
		seen[c.ID]++
		docs[i] = chromem.Document{
			ID:        c.ID,
			Metadata:  map[string]string{"pos": fmt.Sprint(i)},
			Embedding: append([]float32(nil), v...),
			Content:   c.Text,
		}
	}

	db := chromem.NewDB()
	coll, err := db.CreateCollection(collectionName, nil, ix.embedQuery)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	if len(docs) > 0 {
		if err := coll.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
			return nil, fmt.Errorf("add documents: %w", err)
		}
	}
	ix.coll = coll
	return ix, nil
}

func (ix *Index) embedQuery(ctx context.Context, text string) ([]float32, error) {
	if ix.embedder == nil {
		return nil, errors.New("index has no embedder")
	}
	vecs, err := ix.embedder.EmbedMany(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("expected 1 query vector, got %d", len(vecs))
	}
	if len(vecs[0]) != ix.dim {
		return nil, fmt.Errorf("query vector dimension %d, index dimension %d", len(vecs[0]), ix.dim)
	}
	return vecs[0], nil
}

func (ix *Index) Len() int             { return len(ix.chunks) }
func (ix *Index) Dimension() int       { return ix.dim }
func (ix *Index) Model() string        { return ix.model }
func (ix *Index) CreatedAt() time.Time { return ix.createdAt }

// Chunks returns a copy of the indexed chunks in build order.
func (ix *Index) Chunks() []models.Chunk {
	return append([]models.Chunk(nil), ix.chunks...)
}

// Query returns up to k chunks ordered by decreasing cosine similarity to text.
// k <= 0 or an empty index yields an empty result without calling the embedder.
func (ix *Index) Query(ctx context.Context, text string, k int) ([]models.SearchHit, error) {
	if k <= 0 || len(ix.chunks) == 0 {
		return nil, nil
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyQuery
	}
	if k > len(ix.chunks) {
		k = len(ix.chunks)
	}
	res, err := ix.coll.Query(ctx, text, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}
	sort.SliceStable(res, func(i, j int) bool {
		if res[i].Similarity != res[j].Similarity {
			return res[i].Similarity > res[j].Similarity
		}
		return res[i].ID < res[j].ID
	})

	hits := make([]models.SearchHit, 0, len(res))
	for i, r := range res {
		var pos int
		if _, err := fmt.Sscan(r.Metadata["pos"], &pos); err != nil || pos < 0 || pos >= len(ix.chunks) {
			return nil, fmt.Errorf("query index: bad position for %s", r.ID)
		}
		hits = append(hits, models.SearchHit{Chunk: ix.chunks[pos], Score: float64(r.Similarity), Rank: i + 1})
	}
	return hits, nil
}

func modelOf(e embedding.Embedder) string {
	if m, ok := e.(interface{ Model() string }); ok {
		return m.Model()
	}
	return ""
}
