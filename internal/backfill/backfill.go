// Package backfill implements the embedding re-embed script: it finds
// articles collected with a NULL embedding (a feed fetch that beat the
// embedding provider, or a provider outage) and fills them in. It is a
// one-shot batch job, run from cmd/newsengine, never from the request path.
package backfill

import (
	"context"
	"fmt"
	"time"

	"newsengine/internal/core"
	"newsengine/internal/persistence"
)

// Embedder is the subset of internal/embedding.Client that backfill needs.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

const (
	maxRetries  = 5
	initialWait = 1 * time.Second
)

// Runner re-embeds articles with a missing embedding vector in batches,
// retrying each batch with exponential backoff (1s, 2s, 4s, 8s, 16s) before
// giving up on it.
type Runner struct {
	articles  persistence.ArticleStore
	embedder  Embedder
	batchSize int

	// initialWait is the first retry delay; exposed only so tests can shrink
	// it. Production callers always get NewRunner's default.
	initialWait time.Duration
}

// NewRunner builds a Runner. batchSize bounds how many pending articles are
// embedded per Cloudflare request and per persistence write.
func NewRunner(articles persistence.ArticleStore, embedder Embedder, batchSize int) *Runner {
	if batchSize < 1 {
		batchSize = 1
	}
	return &Runner{articles: articles, embedder: embedder, batchSize: batchSize, initialWait: initialWait}
}

// Result summarizes one Run invocation.
type Result struct {
	Embedded int
	Failed   int
}

// Run repeatedly pulls up to batchSize pending articles, embeds them, and
// writes the vectors back, until PendingEmbeddings returns nothing more or
// ctx is done. A batch that exhausts its retries is counted as Failed and
// Run moves on rather than aborting the whole backfill.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	var result Result

	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		pending, err := r.articles.PendingEmbeddings(ctx, r.batchSize)
		if err != nil {
			return result, fmt.Errorf("backfill: list pending articles: %w", err)
		}
		if len(pending) == 0 {
			return result, nil
		}

		embedded, err := r.embedBatchWithRetry(ctx, pending)
		if err != nil {
			result.Failed += len(pending)
			continue
		}

		if err := r.articles.UpsertBatch(ctx, embedded); err != nil {
			return result, fmt.Errorf("backfill: write embedded batch: %w", err)
		}
		result.Embedded += len(embedded)
	}
}

func (r *Runner) embedBatchWithRetry(ctx context.Context, pending []core.Article) ([]core.Article, error) {
	texts := make([]string, len(pending))
	for i, a := range pending {
		texts[i] = a.Title + "\n\n" + a.Summary
	}

	wait := r.initialWait
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			wait *= 2
		}

		vectors, err := r.embedder.Embed(ctx, texts)
		if err != nil {
			lastErr = err
			continue
		}
		if len(vectors) != len(pending) {
			lastErr = fmt.Errorf("backfill: embedder returned %d vectors for %d articles", len(vectors), len(pending))
			continue
		}

		out := make([]core.Article, len(pending))
		for i, a := range pending {
			a.Embedding = vectors[i]
			out[i] = a
		}
		return out, nil
	}

	return nil, fmt.Errorf("backfill: batch of %d articles failed after %d attempts: %w", len(pending), maxRetries+1, lastErr)
}
