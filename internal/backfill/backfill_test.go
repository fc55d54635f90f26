package backfill

import (
	"context"
	"errors"
	"testing"
	"time"

	"newsengine/internal/core"
	"newsengine/internal/persistence"
)

type stubArticleStore struct {
	persistence.ArticleStore
	pending  []core.Article
	upserted []core.Article
}

func (s *stubArticleStore) PendingEmbeddings(ctx context.Context, limit int) ([]core.Article, error) {
	if len(s.pending) == 0 {
		return nil, nil
	}
	n := limit
	if n > len(s.pending) {
		n = len(s.pending)
	}
	batch := s.pending[:n]
	s.pending = s.pending[n:]
	return batch, nil
}

func (s *stubArticleStore) UpsertBatch(ctx context.Context, articles []core.Article) error {
	s.upserted = append(s.upserted, articles...)
	return nil
}

type stubEmbedder struct {
	failUntilAttempt int
	calls            int
	dim              int
}

func (e *stubEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	e.calls++
	if e.calls <= e.failUntilAttempt {
		return nil, errors.New("embedder unavailable")
	}
	out := make([][]float64, len(texts))
	for i := range texts {
		out[i] = make([]float64, e.dim)
	}
	return out, nil
}

func TestRunEmbedsAllPendingArticles(t *testing.T) {
	store := &stubArticleStore{pending: []core.Article{{ID: "a1", Title: "one"}, {ID: "a2", Title: "two"}, {ID: "a3", Title: "three"}}}
	embedder := &stubEmbedder{dim: 4}
	r := NewRunner(store, embedder, 2)

	result, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Embedded != 3 {
		t.Errorf("Embedded = %d, want 3", result.Embedded)
	}
	if len(store.upserted) != 3 {
		t.Fatalf("upserted %d articles, want 3", len(store.upserted))
	}
	for _, a := range store.upserted {
		if !a.HasEmbedding() {
			t.Errorf("article %s was written without an embedding", a.ID)
		}
	}
}

func TestRunRetriesTransientFailures(t *testing.T) {
	store := &stubArticleStore{pending: []core.Article{{ID: "a1", Title: "one"}}}
	embedder := &stubEmbedder{failUntilAttempt: 2, dim: 4}
	r := NewRunner(store, embedder, 10)
	r.initialWait = time.Millisecond

	result, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Embedded != 1 {
		t.Errorf("Embedded = %d, want 1", result.Embedded)
	}
	if embedder.calls != 3 {
		t.Errorf("embedder called %d times, want 3 (2 failures + 1 success)", embedder.calls)
	}
}

func TestRunCountsExhaustedBatchAsFailed(t *testing.T) {
	store := &stubArticleStore{pending: []core.Article{{ID: "a1", Title: "one"}}}
	embedder := &stubEmbedder{failUntilAttempt: 999, dim: 4}
	r := NewRunner(store, embedder, 10)
	r.initialWait = time.Millisecond

	result, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Failed != 1 {
		t.Errorf("Failed = %d, want 1", result.Failed)
	}
	if result.Embedded != 0 {
		t.Errorf("Embedded = %d, want 0", result.Embedded)
	}
}

func TestRunRespectsContextCancellation(t *testing.T) {
	store := &stubArticleStore{pending: []core.Article{{ID: "a1", Title: "one"}}}
	embedder := &stubEmbedder{failUntilAttempt: 999, dim: 4}
	r := NewRunner(store, embedder, 10)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	_, err := r.Run(ctx)
	if err == nil {
		t.Fatal("Run() with an already-expiring context, want error")
	}
}
