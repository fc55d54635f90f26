package collector

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"newsengine/internal/core"
)

var errBoom = errors.New("embedder unavailable")

type fakeEmbedder struct {
	calls int
	err   error
}

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float64, len(texts))
	for i := range texts {
		out[i] = []float64{1, 2, 3}
	}
	return out, nil
}

type fakeStore struct {
	upserted []core.Article
}

func (s *fakeStore) UpsertBatch(ctx context.Context, articles []core.Article) error {
	s.upserted = append(s.upserted, articles...)
	return nil
}

func TestCollectorRunEmbedsAndUpserts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<?xml version="1.0"?>
<rss version="2.0"><channel><title>T</title>
<item><title>A</title><link>https://example.com/a</link><description>d</description></item>
<item><title>B</title><link>https://example.com/b</link><description>d</description></item>
</channel></rss>`))
	}))
	defer srv.Close()

	embedder := &fakeEmbedder{}
	store := &fakeStore{}
	c := New(store, embedder, []string{srv.URL}, 10)

	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(store.upserted) != 2 {
		t.Fatalf("len(upserted) = %d, want 2", len(store.upserted))
	}
	if embedder.calls != 1 {
		t.Errorf("embedder.calls = %d, want 1", embedder.calls)
	}
	for _, a := range store.upserted {
		if !a.HasEmbedding() {
			t.Errorf("article %s missing embedding", a.ID)
		}
	}
}

func TestCollectorRunSkipsEntriesWithoutLink(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<?xml version="1.0"?>
<rss version="2.0"><channel><title>T</title>
<item><title>A</title><link></link><description>d</description></item>
</channel></rss>`))
	}))
	defer srv.Close()

	embedder := &fakeEmbedder{}
	store := &fakeStore{}
	c := New(store, embedder, []string{srv.URL}, 10)

	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(store.upserted) != 0 {
		t.Errorf("len(upserted) = %d, want 0", len(store.upserted))
	}
}

func TestCollectorRunAbortsOnEmbedderFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<?xml version="1.0"?>
<rss version="2.0"><channel><title>T</title>
<item><title>A</title><link>https://example.com/a</link><description>d</description></item>
</channel></rss>`))
	}))
	defer srv.Close()

	embedder := &fakeEmbedder{err: errBoom}
	store := &fakeStore{}
	c := New(store, embedder, []string{srv.URL}, 10)

	if err := c.Run(context.Background()); err == nil {
		t.Fatal("expected error from embedder failure")
	}
	if len(store.upserted) != 0 {
		t.Errorf("expected no upserts after embedder failure, got %d", len(store.upserted))
	}
}

func TestArticleIDDeterministic(t *testing.T) {
	a := articleID("https://example.com/a")
	b := articleID("https://example.com/a")
	if a != b {
		t.Errorf("articleID not deterministic: %s != %s", a, b)
	}
	if len(a) != 16 {
		t.Errorf("len(articleID) = %d, want 16", len(a))
	}
}
