package vectorindex

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mohammad-safakhou/campusbot/models"
)

// axisEmbedder maps each known keyword to its own axis so similarity is predictable.
type axisEmbedder struct {
	model string
	calls int
	fail  error
}

var axes = []string{"tuition", "housing", "scholarship", "library"}

func (a *axisEmbedder) Model() string { return a.model }

func (a *axisEmbedder) EmbedMany(_ context.Context, texts []string) ([][]float32, error) {
	a.calls++
	if a.fail != nil {
		return nil, a.fail
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v := make([]float32, len(axes)+1)
		v[len(axes)] = 0.01
		for j, word := range axes {
			v[j] = float32(strings.Count(strings.ToLower(t), word))
		}
		out[i] = v
	}
	return out, nil
}

func sampleChunks() []models.Chunk {
	return []models.Chunk{
		{ID: "c0", Text: "tuition fees are paid each semester", Source: "https://u.example/fees"},
		{ID: "c1", Text: "housing and housing allocation", Source: "https://u.example/housing"},
		{ID: "c2", Text: "scholarship for tuition discount", Source: "guide.pdf", Page: 2},
		{ID: "c3", Text: "library opening hours", Source: "https://u.example/library"},
	}
}

func TestQueryRanksBySimilarity(t *testing.T) {
	emb := &axisEmbedder{model: "axis"}
	ix, err := Build(context.Background(), emb, sampleChunks())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	hits, err := ix.Query(context.Background(), "housing", 2)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(hits) != 2 || hits[0].ID != "c1" || hits[0].Rank != 1 {
		t.Fatalf("unexpected hits %+v", hits)
	}
	if hits[0].Score < hits[1].Score {
		t.Fatalf("hits not ordered best first: %+v", hits)
	}

	hits, err = ix.Query(context.Background(), "scholarship tuition", 4)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if hits[0].ID != "c2" || hits[0].Source != "guide.pdf" || hits[0].Page != 2 {
		t.Fatalf("expected the scholarship chunk first, got %+v", hits[0])
	}
}

func TestQueryBounds(t *testing.T) {
	emb := &axisEmbedder{}
	ix, err := Build(context.Background(), emb, sampleChunks())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	calls := emb.calls

	hits, err := ix.Query(context.Background(), "tuition", 0)
	if err != nil || len(hits) != 0 {
		t.Fatalf("k=0 should be empty, got %v %v", hits, err)
	}
	if emb.calls != calls {
		t.Fatalf("k=0 must not call the embedder")
	}
	hits, err = ix.Query(context.Background(), "tuition", 50)
	if err != nil || len(hits) != 4 {
		t.Fatalf("k>n should return all chunks, got %d %v", len(hits), err)
	}
	if _, err := ix.Query(context.Background(), "  ", 3); !errors.Is(err, ErrEmptyQuery) {
		t.Fatalf("expected ErrEmptyQuery, got %v", err)
	}

	empty, err := Build(context.Background(), emb, nil)
	if err != nil {
		t.Fatalf("build empty: %v", err)
	}
	if hits, err := empty.Query(context.Background(), "tuition", 5); err != nil || len(hits) != 0 {
		t.Fatalf("empty index should return nothing, got %v %v", hits, err)
	}
}

func TestBuildFailsOnProviderError(t *testing.T) {
	boom := errors.New("provider down")
	if _, err := Build(context.Background(), &axisEmbedder{fail: boom}, sampleChunks()); !errors.Is(err, boom) {
		t.Fatalf("expected provider error, got %v", err)
	}
}

func TestQueryPropagatesProviderError(t *testing.T) {
	emb := &axisEmbedder{}
	ix, err := Build(context.Background(), emb, sampleChunks())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	emb.fail = errors.New("provider down")
	if _, err := ix.Query(context.Background(), "tuition", 2); err == nil {
		t.Fatalf("expected error")
	}
}

func TestPersistLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	emb := &axisEmbedder{model: "axis"}
	ix, err := Build(ctx, emb, sampleChunks())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	path := filepath.Join(t.TempDir(), "nested", "index.db")
	if err := ix.Persist(path); err != nil {
		t.Fatalf("persist: %v", err)
	}

	loaded, err := Load(ctx, path, emb)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Len() != ix.Len() || loaded.Dimension() != ix.Dimension() || loaded.Model() != "axis" {
		t.Fatalf("loaded index differs: len=%d dim=%d model=%s", loaded.Len(), loaded.Dimension(), loaded.Model())
	}
	for _, q := range []string{"housing", "tuition", "library hours"} {
		a, err := ix.Query(ctx, q, 3)
		if err != nil {
			t.Fatalf("query: %v", err)
		}
		b, err := loaded.Query(ctx, q, 3)
		if err != nil {
			t.Fatalf("query loaded: %v", err)
		}
		for i := range a {
			if a[i].ID != b[i].ID || a[i].Text != b[i].Text || a[i].Source != b[i].Source {
				t.Fatalf("query %q differs at %d: %+v vs %+v", q, i, a[i], b[i])
			}
		}
	}

	// a second persist replaces the file in place
	if err := ix.Persist(path); err != nil {
		t.Fatalf("persist again: %v", err)
	}
}

func TestLoadMissingOrCorrupt(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(context.Background(), filepath.Join(dir, "absent.db"), &axisEmbedder{}); !errors.Is(err, ErrIndexNotFound) {
		t.Fatalf("missing file: expected ErrIndexNotFound, got %v", err)
	}

	corrupt := filepath.Join(dir, "corrupt.db")
	if err := os.WriteFile(corrupt, []byte("definitely not sqlite"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(context.Background(), corrupt, &axisEmbedder{}); !errors.Is(err, ErrIndexNotFound) {
		t.Fatalf("corrupt file: expected ErrIndexNotFound, got %v", err)
	}
}

func TestLoadRejectsOtherModel(t *testing.T) {
	ctx := context.Background()
	ix, err := Build(ctx, &axisEmbedder{model: "old"}, sampleChunks())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	path := filepath.Join(t.TempDir(), "index.db")
	if err := ix.Persist(path); err != nil {
		t.Fatalf("persist: %v", err)
	}
	if _, err := Load(ctx, path, &axisEmbedder{model: "new"}); !errors.Is(err, ErrIndexNotFound) {
		t.Fatalf("expected ErrIndexNotFound for a model change, got %v", err)
	}
}

func TestDuplicateChunkIDsStayDistinct(t *testing.T) {
	chunks := []models.Chunk{
		{ID: "same", Text: "tuition"},
		{ID: "same", Text: "housing"},
		{ID: "same~1", Text: "library"},
		{ID: "same", Text: "library"},
	}
	ix, err := Build(context.Background(), &axisEmbedder{}, chunks)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if ix.Len() != 4 || ix.coll.Count() != 4 {
		t.Fatalf("expected 4 stored chunks, got len=%d count=%d", ix.Len(), ix.coll.Count())
	}
	ids := map[string]bool{}
	for _, c := range ix.Chunks() {
		if ids[c.ID] {
			t.Fatalf("id %q assigned twice: %+v", c.ID, ix.Chunks())
		}
		ids[c.ID] = true
	}
	hits, err := ix.Query(context.Background(), "housing", 1)
	if err != nil || len(hits) != 1 || hits[0].Text != "housing" {
		t.Fatalf("unexpected hits %+v %v", hits, err)
	}
	all, err := ix.Query(context.Background(), "housing", 10)
	if err != nil || len(all) != 4 {
		t.Fatalf("expected every chunk back for k=10, got %d %v", len(all), err)
	}
}
