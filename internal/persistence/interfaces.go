// Package persistence provides the storage adapters the ranking engine
// depends on: a vector-capable article store, a per-user interest vector
// store, an append-only interaction log, a user-profile table, and a
// daily health-snapshot log.
package persistence

import (
	"context"

	"newsengine/internal/core"
)

// ListOptions paginates list-style queries.
type ListOptions struct {
	Limit  int
	Offset int
}

// ArticleStore is the article store external collaborator. It is
// read-shared, write-exclusive to the collector; the engine only reads it
// (plus writing embeddings during backfill).
type ArticleStore interface {
	// UpsertBatch inserts or updates articles keyed by Link. A zero-length
	// Embedding is stored as NULL, marking the row "pending".
	UpsertBatch(ctx context.Context, articles []core.Article) error

	// Get retrieves a single article by ID. Returns (core.Article{}, false,
	// nil) if it doesn't exist.
	Get(ctx context.Context, id string) (core.Article, bool, error)

	// GetMany retrieves multiple articles by ID in one round trip. Missing
	// IDs are simply absent from the result.
	GetMany(ctx context.Context, ids []string) ([]core.Article, error)

	// MatchArticles returns the matchCount articles with the highest cosine
	// similarity to query, excluding rows with a NULL embedding, sorted
	// similarity desc.
	MatchArticles(ctx context.Context, query []float64, matchCount int) ([]core.Article, []float64, error)

	// RandomArticles returns a uniform-ish sample of pickCount articles.
	// Rows with a NULL embedding are included.
	RandomArticles(ctx context.Context, pickCount int) ([]core.Article, error)

	// SampleByCategory ILIKE-matches %category% against the comma-joined
	// Category field and returns up to limit articles.
	SampleByCategory(ctx context.Context, category string, limit int) ([]core.Article, error)

	// FirstN returns the first n articles with a non-NULL embedding, oldest
	// collected first.
	FirstN(ctx context.Context, n int) ([]core.Article, error)

	// Latest returns the latest-collected articles, descending by
	// CollectedAt.
	Latest(ctx context.Context, limit int) ([]core.Article, error)

	// EmbeddingDimension reports the fixed embedding dimension D for this
	// deployment, or 0 if the store has no embeddings yet.
	EmbeddingDimension(ctx context.Context) (int, error)

	// PendingEmbeddings returns up to limit articles with a NULL embedding,
	// oldest collected first. Used by the backfill script to find work.
	PendingEmbeddings(ctx context.Context, limit int) ([]core.Article, error)
}

// UserVectorStore holds one dense vector per user, upsert semantics,
// write-exclusive to the owning user's session.
type UserVectorStore interface {
	Get(ctx context.Context, userID string) (core.UserVector, bool, error)
	Upsert(ctx context.Context, v core.UserVector) error
}

// InteractionStore is an append-only-conceptually log, idempotent upsert
// keyed on (UserID, ArticleID, Kind).
type InteractionStore interface {
	Upsert(ctx context.Context, in core.Interaction) error
	InteractedIDs(ctx context.Context, userID string, kinds []core.InteractionKind) (map[string]bool, error)
	History(ctx context.Context, userID string, kinds []core.InteractionKind, limit int) ([]core.Interaction, error)

	// Positive returns the user's most recent limit interactions among the
	// "positive" kinds (View, DeepDive), newest first — the basis for top-3
	// category computation and health analytics.
	Positive(ctx context.Context, userID string, limit int) ([]core.Interaction, error)
	Stats(ctx context.Context, userID string) (core.Stats, error)
}

// UserProfileStore is the single per-user onboarding row.
type UserProfileStore interface {
	Get(ctx context.Context, userID string) (core.UserProfile, bool, error)
	Upsert(ctx context.Context, p core.UserProfile) error
}

// HealthStore holds one snapshot per user per calendar day, upsert on
// (UserID, ScoreDate).
type HealthStore interface {
	Upsert(ctx context.Context, s core.HealthSnapshot) error
	History(ctx context.Context, userID string, days int) ([]core.HealthSnapshot, error)
}

// Store aggregates every repository the engine needs.
type Store interface {
	Articles() ArticleStore
	UserVectors() UserVectorStore
	Interactions() InteractionStore
	Profiles() UserProfileStore
	Health() HealthStore
	Ping(ctx context.Context) error
	Close() error
}
