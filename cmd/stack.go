package cmd

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mohammad-safakhou/campusbot/internal/chunker"
	"github.com/mohammad-safakhou/campusbot/internal/pipeline"
	"github.com/mohammad-safakhou/campusbot/internal/rag"
	"github.com/mohammad-safakhou/campusbot/internal/vectorindex"
	"github.com/mohammad-safakhou/campusbot/provider"
	"github.com/mohammad-safakhou/campusbot/tools/embedding"
	"github.com/mohammad-safakhou/campusbot/tools/search"
)

const (
	redisDialTimeout = 5 * time.Second
	retryBaseDelay   = 500 * time.Millisecond
	retryMaxDelay    = 10 * time.Second
)

// stack is the provider, embedder and index builder shared by index, query and serve.
type stack struct {
	app      *app
	llm      provider.Provider
	redis    *redis.Client
	embedder *embedding.Embedding
	builder  *pipeline.Builder

	ix      *vectorindex.Index
	keyword *search.Keyword
}

func (a *app) stack(ctx context.Context) (*stack, error) {
	llm, err := provider.NewProvider(provider.OpenAI, a.cfg.LLM)
	if err != nil {
		return nil, err
	}
	splitter, err := chunker.New(a.cfg.Chunking.Size, a.cfg.Chunking.Overlap, a.cfg.Chunking.Separators)
	if err != nil {
		return nil, err
	}

	st := &stack{app: a, llm: llm}
	opts := []embedding.Option{
		embedding.WithBatchSize(a.cfg.Index.BatchSize),
		embedding.WithRetry(a.cfg.LLM.MaxRetries, retryBaseDelay, retryMaxDelay),
		embedding.WithLogger(a.log),
	}
	if rc := a.cfg.Storage.Redis; rc.Enabled {
		client, err := embedding.Conn(ctx, rc.Addr(), rc.Password, rc.DB, redisDialTimeout)
		if err != nil {
			a.log.WithError(err).WithField("addr", rc.Addr()).Warn("redis unavailable, continuing without cache")
		} else {
			st.redis = client
			opts = append(opts, embedding.WithCache(embedding.NewRedisCache(client, rc.TTL)))
		}
	}
	st.embedder = embedding.NewEmbedding(llm, llm.EmbeddingModel(), opts...)
	st.builder = pipeline.NewBuilder(a.cfg.Crawl.OutputDir, a.cfg.PDF.InputDir, a.cfg.Index.Path, splitter, st.embedder, a.log)
	return st, nil
}

// index loads the persisted index, rebuilding it when missing or stale.
func (st *stack) index(ctx context.Context) (*vectorindex.Index, error) {
	if st.ix != nil {
		return st.ix, nil
	}
	ix, err := st.builder.LoadOrBuild(ctx)
	if err != nil {
		return nil, err
	}
	st.ix = ix
	return ix, nil
}

// hybrid builds the keyword index over the loaded chunks and fuses it with vector search.
func (st *stack) hybrid(ctx context.Context) (*search.Hybrid, error) {
	ix, err := st.index(ctx)
	if err != nil {
		return nil, err
	}
	if st.keyword == nil {
		kw, err := search.NewKeyword(ix.Chunks())
		if err != nil {
			return nil, err
		}
		st.keyword = kw
	}
	return search.NewHybrid(ix, st.keyword), nil
}

// retriever returns the configured retrieval mode.
func (st *stack) retriever(ctx context.Context) (rag.Retriever, error) {
	if st.app.cfg.Retrieval.Mode == "hybrid" {
		h, err := st.hybrid(ctx)
		if err != nil {
			return nil, err
		}
		return rag.RetrieverFunc(h.Search), nil
	}
	ix, err := st.index(ctx)
	if err != nil {
		return nil, err
	}
	return rag.RetrieverFunc(ix.Query), nil
}

func (st *stack) Close() {
	if st.keyword != nil {
		_ = st.keyword.Close()
	}
	if st.redis != nil {
		_ = st.redis.Close()
	}
}
