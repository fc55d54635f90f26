// Package collector polls the configured RSS/Atom feeds, turns new entries
// into embedded core.Article rows, and upserts them into the article store.
// It runs independently of the ranking engine — the engine only ever reads
// what the collector has already written.
package collector

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"newsengine/internal/core"
	"newsengine/internal/feeds"
	"newsengine/internal/logger"
)

// DefaultBatchSize is the number of new articles handed to the embedder in
// one Embed call and written in one upsert, within the spec's 50-100 range.
const DefaultBatchSize = 75

// Embedder is the subset of internal/embedding.Client the collector needs,
// expressed as an interface so tests can supply a fake.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

// ArticleUpserter is the subset of persistence.ArticleStore the collector
// needs — it never reads, only writes.
type ArticleUpserter interface {
	UpsertBatch(ctx context.Context, articles []core.Article) error
}

// Collector polls a fixed list of feed URLs each run.
type Collector struct {
	feeds     *feeds.FeedManager
	store     ArticleUpserter
	embedder  Embedder
	feedURLs  []string
	batchSize int
	log       *slog.Logger
}

// New builds a Collector. batchSize <= 0 uses DefaultBatchSize.
func New(store ArticleUpserter, embedder Embedder, feedURLs []string, batchSize int) *Collector {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Collector{
		feeds:     feeds.NewFeedManager(),
		store:     store,
		embedder:  embedder,
		feedURLs:  feedURLs,
		batchSize: batchSize,
		log:       logger.Get(),
	}
}

// articleID is the canonical-URL content hash identity scheme: the first 16
// hex characters of SHA-256(link).
func articleID(link string) string {
	sum := sha256.Sum256([]byte(link))
	return hex.EncodeToString(sum[:])[:16]
}

// Run polls every configured feed once, dedupes entries within this run by
// their link-derived ID, embeds them in batches, and upserts them. It does
// not check which links the store already has: an entry that is already
// stored is embedded again and upserted onto its existing row (link is the
// conflict key). A failed embedding or upsert call ends the run with an
// error; batches upserted before it stay committed, and the failed batch
// and the batches after it are not written.
func (c *Collector) Run(ctx context.Context) error {
	var candidates []core.Article
	seen := map[string]bool{}

	for _, url := range c.feedURLs {
		parsed, err := c.feeds.FetchFeed(url, "", "")
		if err != nil {
			c.log.Warn("feed fetch failed", "url", url, "error", err.Error())
			continue
		}
		if parsed.NotModified {
			continue
		}

		for _, item := range parsed.Items {
			if item.Link == "" {
				continue
			}
			id := articleID(item.Link)
			if seen[id] {
				continue
			}
			seen[id] = true
			candidates = append(candidates, core.Article{
				ID:          id,
				Link:        item.Link,
				Title:       item.Title,
				Summary:     item.Description,
				Published:   item.Published,
				Category:    item.Category,
				CollectedAt: time.Now().UTC(),
			})
		}
	}

	if len(candidates) == 0 {
		return nil
	}

	for start := 0; start < len(candidates); start += c.batchSize {
		end := start + c.batchSize
		if end > len(candidates) {
			end = len(candidates)
		}
		batch := candidates[start:end]

		texts := make([]string, len(batch))
		for i, a := range batch {
			texts[i] = a.Title + "\n" + a.Summary
		}

		vectors, err := c.embedder.Embed(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed batch [%d:%d]: %w", start, end, err)
		}
		for i := range batch {
			if i < len(vectors) {
				batch[i].Embedding = vectors[i]
			}
		}

		if err := c.store.UpsertBatch(ctx, batch); err != nil {
			return fmt.Errorf("upsert batch [%d:%d]: %w", start, end, err)
		}
	}

	c.log.Info("collector run complete", "new_articles", len(candidates))
	return nil
}
