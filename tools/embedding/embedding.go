package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"

	"github.com/mohammad-safakhou/campusbot/internal/logging"
)

const (
	DefaultBatchSize  = 64
	DefaultMaxRetries = 2
)

// Embedder turns texts into vectors, one per input, in input order.
type Embedder interface {
	EmbedMany(ctx context.Context, texts []string) ([][]float32, error)
}

// Client is the remote embedding call.
type Client interface {
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}

var cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "campusbot_embedding_cache_total",
	Help: "Embedding cache lookups by result.",
}, []string{"result"})

// Embedding batches calls to a Client, retries transient failures and consults an
// optional cache before calling out.
type Embedding struct {
	client    Client
	model     string
	batchSize int
	cache     Cache
	executor  failsafe.Executor[[][]float32]
	log       *logrus.Entry
}

type Option func(*Embedding)

func WithBatchSize(n int) Option {
	return func(e *Embedding) {
		if n > 0 {
			e.batchSize = n
		}
	}
}

func WithCache(c Cache) Option { return func(e *Embedding) { e.cache = c } }

func WithLogger(l *logrus.Logger) Option {
	return func(e *Embedding) { e.log = logging.WithComponent(l, "embedding") }
}

// WithRetry replaces the default retry policy. maxRetries counts attempts after the first.
func WithRetry(maxRetries int, base, max time.Duration) Option {
	return func(e *Embedding) { e.executor = newExecutor(maxRetries, base, max) }
}

func NewEmbedding(client Client, model string, opts ...Option) *Embedding {
	e := &Embedding{
		client:    client,
		model:     model,
		batchSize: DefaultBatchSize,
		executor:  newExecutor(DefaultMaxRetries, 500*time.Millisecond, 5*time.Second),
		log:       logging.WithComponent(nil, "embedding"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func newExecutor(maxRetries int, base, max time.Duration) failsafe.Executor[[][]float32] {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if base <= 0 {
		base = 100 * time.Millisecond
	}
	if max < base {
		max = base
	}
	policy := retrypolicy.NewBuilder[[][]float32]().
		WithBackoff(base, max).
		WithMaxRetries(maxRetries).
		HandleIf(func(_ [][]float32, err error) bool { return retryable(err) }).
		Build()
	return failsafe.With[[][]float32](policy)
}

// retryable treats context errors and errors that declare themselves permanent as final.
func retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var temp interface{ Temporary() bool }
	if errors.As(err, &temp) {
		return temp.Temporary()
	}
	return true
}

func (e *Embedding) Model() string { return e.model }

func (e *Embedding) EmbedMany(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, len(texts))
	missing := make([]int, 0, len(texts))
	if e.cache != nil {
		cached, err := e.cache.GetMany(ctx, e.model, texts)
		if err != nil {
			e.log.WithError(err).Warn("embedding cache read failed")
			cached = nil
		}
		for i := range texts {
			if i < len(cached) && cached[i] != nil {
				out[i] = cached[i]
				cacheLookups.WithLabelValues("hit").Inc()
				continue
			}
			cacheLookups.WithLabelValues("miss").Inc()
			missing = append(missing, i)
		}
	} else {
		for i := range texts {
			missing = append(missing, i)
		}
	}

	for start := 0; start < len(missing); start += e.batchSize {
		end := start + e.batchSize
		if end > len(missing) {
			end = len(missing)
		}
		idx := missing[start:end]
		batch := make([]string, len(idx))
		for j, i := range idx {
			batch[j] = texts[i]
		}

		vecs, err := e.executor.WithContext(ctx).Get(func() ([][]float32, error) {
			return e.client.CreateEmbedding(ctx, batch)
		})
		if err != nil {
			return nil, fmt.Errorf("embed batch %d-%d: %w", start, end, err)
		}
		if len(vecs) != len(batch) {
			return nil, fmt.Errorf("embed batch %d-%d: expected %d vectors, got %d", start, end, len(batch), len(vecs))
		}
		for j, i := range idx {
			out[i] = vecs[j]
		}
		if e.cache != nil {
			if err := e.cache.SetMany(ctx, e.model, batch, vecs); err != nil {
				e.log.WithError(err).Warn("embedding cache write failed")
			}
		}
		e.log.WithFields(logrus.Fields{"batch": len(batch), "done": end, "total": len(missing)}).Debug("embedded batch")
	}
	return out, nil
}
